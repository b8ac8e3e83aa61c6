package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pixy/internal/devices"
	"pixy/internal/logging"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var native bool
	var watch bool
	var binary string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List GPUs usable by the upscalers",
		RunE: func(cmd *cobra.Command, args []string) error {
			detector := ctx.deviceDetector(native, binary)
			out := cmd.OutOrStdout()

			report := func() error {
				result := detector.Detect(cmd.Context())
				if result.Degraded() {
					logging.WarnWithContext(ctx.loggerValue(), "device detection degraded", "device_detection_degraded",
						logging.String("warning", result.Warning),
						logging.String(logging.FieldErrorHint, "check the upscaler install or try --native"),
						logging.String(logging.FieldImpact, "no devices listed"),
					)
				}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				printDevices(out, result)
				return nil
			}

			if err := report(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Watching for GPU changes (Ctrl+C to stop)")
			return devices.Watch(cmd.Context(), ctx.loggerValue(), func(ev devices.Event) {
				fmt.Fprintf(out, "\n%s %s\n", ev.Action, orDash(ev.Device))
				_ = report()
			})
		},
	}

	cmd.Flags().BoolVar(&native, "native", false, "Enumerate DRM cards from sysfs instead of asking the upscaler binary")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-list on GPU hotplug events")
	cmd.Flags().StringVar(&binary, "binary", "realesrgan-ncnn-vulkan", "Upscaler binary used for listing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// deviceDetector returns the sysfs detector or a binary detector for name. An
// unresolvable binary still yields a detector so the result carries the warning.
func (c *commandContext) deviceDetector(native bool, name string) devices.Detector {
	if native {
		return devices.DRMDetector{}
	}
	name = strings.TrimSpace(name)
	path, err := c.resolver().Resolve(name)
	if err != nil {
		return missingBinary{name: name, err: err}
	}
	return devices.BinaryDetector{Path: path}
}

type missingBinary struct {
	name string
	err  error
}

func (m missingBinary) Detect(context.Context) devices.Result {
	return devices.Result{Devices: []devices.Device{}, Warning: "upscaler binary not found: " + m.name, Err: m.err}
}

func printDevices(out io.Writer, result devices.Result) {
	if result.Warning != "" {
		fmt.Fprintf(out, "Warning: %s\n", result.Warning)
	}
	if len(result.Devices) == 0 {
		fmt.Fprintln(out, "No devices detected")
		return
	}
	rows := make([][]string, 0, len(result.Devices))
	for _, d := range result.Devices {
		rows = append(rows, []string{strconv.Itoa(d.Index), d.Name})
	}
	fmt.Fprintln(out, renderTable([]string{"GPU", "Name"}, rows, []columnAlignment{alignRight, alignLeft}))
}
