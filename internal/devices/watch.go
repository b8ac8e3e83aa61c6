package devices

import (
	"context"
	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"pixy/internal/logging"
)

// Event is a DRM hotplug notification.
type Event struct {
	Action  string
	Device  string
	KObject string
}

// Watch calls onChange for every DRM add, remove, or change uevent until ctx
// is cancelled. Without netlink access it logs a warning and returns nil.
func Watch(ctx context.Context, logger *slog.Logger, onChange func(Event)) error {
	logger = logging.NewComponentLogger(logger, "device-watch")

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(logger, "failed to connect to udev netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run on Linux with access to netlink sockets"),
			logging.String(logging.FieldImpact, "device hotplug is not tracked"),
		)
		return nil
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, drmMatcher())
	defer close(quit)

	logger.Info("watching drm devices", logging.String(logging.FieldEventType, "device_watch_started"))
	for {
		select {
		case <-ctx.Done():
			return nil
		case uevent := <-queue:
			ev := eventFrom(uevent)
			logger.Debug("drm uevent",
				logging.String("action", ev.Action),
				logging.String("device", ev.Device),
			)
			if onChange != nil {
				onChange(ev)
			}
		case err := <-errs:
			logging.WarnWithContext(logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "hotplug events may be missed"),
			)
		}
	}
}

func drmMatcher() netlink.Matcher {
	action := "add|remove|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "drm"},
	})
	return rules
}

func eventFrom(uevent netlink.UEvent) Event {
	return Event{
		Action:  string(uevent.Action),
		Device:  uevent.Env["DEVNAME"],
		KObject: uevent.KObj,
	}
}
