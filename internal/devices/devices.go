package devices

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pixy/internal/procexec"
	"pixy/internal/services"
)

// Device is one upscale-capable GPU as reported by a detector.
type Device struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Result is a device inventory. Warning is set when detection degraded to an
// empty list; callers log it and carry on.
type Result struct {
	Devices []Device `json:"devices"`
	Warning string   `json:"warning,omitempty"`
	Err     error    `json:"-"`
}

// Degraded reports whether detection failed.
func (r Result) Degraded() bool {
	return r.Warning != ""
}

// Detector enumerates devices. Implementations never return an error; failures
// are reported through Result.Warning.
type Detector interface {
	Detect(ctx context.Context) Result
}

var deviceLine = regexp.MustCompile(`^\s*(\d+):\s*(.*)$`)

// ParseDeviceList parses "<index>: <name>" lines. Other lines are ignored.
func ParseDeviceList(output string) []Device {
	devices := []Device{}
	for _, line := range strings.Split(output, "\n") {
		m := deviceLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		devices = append(devices, Device{Index: idx, Name: strings.TrimSpace(m[2])})
	}
	return devices
}

// BinaryDetector lists devices by running an upscaler binary with -l.
type BinaryDetector struct {
	Path   string
	Runner procexec.Runner
}

// Detect runs the binary and parses its stdout.
func (d BinaryDetector) Detect(ctx context.Context) Result {
	if strings.TrimSpace(d.Path) == "" {
		return degraded("no upscaler binary configured", nil)
	}
	if _, err := os.Stat(d.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return degraded("upscaler binary not found: "+d.Path, err)
		}
		return degraded("upscaler binary unavailable: "+err.Error(), err)
	}

	runner := d.Runner
	if runner == nil {
		runner = procexec.ExecRunner{}
	}
	out, err := runner.Run(ctx, procexec.Command{Name: "device-list", Path: d.Path, Args: []string{"-l"}})
	if err != nil {
		var procErr *services.ProcessError
		if errors.As(err, &procErr) {
			return degraded("device listing failed: "+procErr.Error(), err)
		}
		return degraded("device listing could not start: "+err.Error(), err)
	}
	return Result{Devices: ParseDeviceList(string(out.Stdout))}
}

func degraded(warning string, err error) Result {
	return Result{Devices: []Device{}, Warning: warning, Err: err}
}

func sortDevices(devices []Device) {
	sort.Slice(devices, func(i, j int) bool { return devices[i].Index < devices[j].Index })
}
