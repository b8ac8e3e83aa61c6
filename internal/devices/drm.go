package devices

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
)

const (
	warnUnavailable = "device enumeration unavailable"
	warnFailed      = "device enumeration failed"
)

// CrawlFunc returns the uevent records of existing DRM card nodes.
type CrawlFunc func(ctx context.Context) ([]crawler.Device, error)

// DRMDetector enumerates GPUs from sysfs DRM card nodes. Indexes are DRM card
// numbers, which usually but not always match the upscaler's own ordering.
type DRMDetector struct {
	// SysRoot defaults to /sys.
	SysRoot string
	// Crawl defaults to a go-udev crawl of /sys/devices.
	Crawl CrawlFunc
}

// Detect lists DRM cards. A host without sysfs DRM support yields an empty
// result with an "unavailable" warning; a crawl error yields a "failed" one.
func (d DRMDetector) Detect(ctx context.Context) Result {
	root := d.sysRoot()
	if _, err := os.Stat(filepath.Join(root, "class", "drm")); err != nil {
		return degraded(warnUnavailable, err)
	}

	crawl := d.Crawl
	if crawl == nil {
		crawl = crawlDRMCards
	}
	found, err := crawl(ctx)
	if err != nil {
		return degraded(warnFailed, err)
	}

	devices := make([]Device, 0, len(found))
	for _, dev := range found {
		idx, ok := cardIndex(dev.Env["DEVNAME"])
		if !ok {
			continue
		}
		devices = append(devices, Device{Index: idx, Name: d.describe(dev.KObj, idx)})
	}
	sortDevices(devices)
	return Result{Devices: devices}
}

func (d DRMDetector) sysRoot() string {
	if d.SysRoot == "" {
		return "/sys"
	}
	return d.SysRoot
}

// describe names a card by the driver and PCI id of its parent device.
func (d DRMDetector) describe(kobj string, idx int) string {
	rel := strings.TrimPrefix(kobj, "/sys")
	env := readUevent(filepath.Join(d.sysRoot(), rel, "device", "uevent"))
	driver := env["DRIVER"]
	pciID := env["PCI_ID"]
	switch {
	case driver != "" && pciID != "":
		return fmt.Sprintf("%s (%s)", driver, pciID)
	case driver != "":
		return driver
	default:
		return "card" + strconv.Itoa(idx)
	}
}

func cardIndex(devname string) (int, bool) {
	num, ok := strings.CutPrefix(devname, "dri/card")
	if !ok || num == "" {
		return 0, false
	}
	idx, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return idx, true
}

func readUevent(path string) map[string]string {
	env := map[string]string{}
	f, err := os.Open(path)
	if err != nil {
		return env
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok {
			env[key] = value
		}
	}
	return env
}

func cardMatcher() netlink.Matcher {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{"DEVNAME": `^dri/card[0-9]+$`},
	})
	return rules
}

func crawlDRMCards(ctx context.Context) ([]crawler.Device, error) {
	queue := make(chan crawler.Device)
	errs := make(chan error, 1)
	quit := crawler.ExistingDevices(queue, errs, cardMatcher())
	defer close(quit)

	var found []crawler.Device
	for {
		select {
		case <-ctx.Done():
			go func() {
				for range queue {
				}
			}()
			return nil, ctx.Err()
		case err := <-errs:
			return nil, err
		case dev, ok := <-queue:
			if !ok {
				select {
				case err := <-errs:
					return nil, err
				default:
				}
				return found, nil
			}
			found = append(found, dev)
		}
	}
}
