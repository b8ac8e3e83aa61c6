package devices

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"
)

func TestParseDeviceList(t *testing.T) {
	got := ParseDeviceList("0:  NVIDIA GeForce RTX\n1:  llvmpipe\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 devices, got %+v", got)
	}
	if got[0] != (Device{Index: 0, Name: "NVIDIA GeForce RTX"}) || got[1] != (Device{Index: 1, Name: "llvmpipe"}) {
		t.Fatalf("unexpected devices %+v", got)
	}
}

func TestParseDeviceListSkipsNoise(t *testing.T) {
	out := "[0 AMD Radeon]  queueC=1[2]\n  2:\tIntel Arc A770  \r\nnot a device\n"
	got := ParseDeviceList(out)
	if len(got) != 1 || got[0].Index != 2 || got[0].Name != "Intel Arc A770" {
		t.Fatalf("unexpected devices %+v", got)
	}
	empty := ParseDeviceList("no vulkan devices\n")
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}
	data, err := json.Marshal(Result{Devices: empty})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"devices":[]`) {
		t.Fatalf("expected empty devices array, got %s", data)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "realesrgan-ncnn-vulkan")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBinaryDetectorMissingBinary(t *testing.T) {
	res := BinaryDetector{Path: filepath.Join(t.TempDir(), "absent")}.Detect(context.Background())
	if res.Devices == nil || len(res.Devices) != 0 {
		t.Fatalf("expected empty non-nil inventory, got %+v", res.Devices)
	}
	if !res.Degraded() || !errors.Is(res.Err, os.ErrNotExist) {
		t.Fatalf("expected not-exist warning, got %+v", res)
	}
}

func TestBinaryDetectorParsesStdout(t *testing.T) {
	path := writeScript(t, "[ \"$1\" = \"-l\" ] || exit 3\nprintf '0:  NVIDIA GeForce RTX\\n1:  llvmpipe\\n'\n")
	res := BinaryDetector{Path: path}.Detect(context.Background())
	if res.Degraded() {
		t.Fatalf("unexpected warning %q", res.Warning)
	}
	if len(res.Devices) != 2 || res.Devices[1].Name != "llvmpipe" {
		t.Fatalf("unexpected devices %+v", res.Devices)
	}
}

func TestBinaryDetectorNonZeroExit(t *testing.T) {
	path := writeScript(t, "echo 'vkCreateInstance failed' >&2\nexit 255\n")
	res := BinaryDetector{Path: path}.Detect(context.Background())
	if !res.Degraded() || len(res.Devices) != 0 {
		t.Fatalf("expected degraded empty result, got %+v", res)
	}
}

func TestDRMDetectorUnavailable(t *testing.T) {
	res := DRMDetector{SysRoot: t.TempDir()}.Detect(context.Background())
	if res.Warning != warnUnavailable || len(res.Devices) != 0 {
		t.Fatalf("expected unavailable warning, got %+v", res)
	}
}

func fakeSys(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "class", "drm"), 0o755); err != nil {
		t.Fatal(err)
	}
	parent := filepath.Join(root, "devices", "pci0000:00", "0000:01:00.0")
	if err := os.MkdirAll(filepath.Join(parent, "drm", "card1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(parent, filepath.Join(parent, "drm", "card1", "device")); err != nil {
		t.Fatal(err)
	}
	uevent := "DRIVER=amdgpu\nPCI_ID=1002:744C\nPCI_SLOT_NAME=0000:01:00.0\n"
	if err := os.WriteFile(filepath.Join(parent, "uevent"), []byte(uevent), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestDRMDetectorNamesCards(t *testing.T) {
	root := fakeSys(t)
	crawl := func(context.Context) ([]crawler.Device, error) {
		return []crawler.Device{
			{KObj: "/sys/devices/pci0000:00/0000:01:00.0/drm/card1", Env: map[string]string{"DEVNAME": "dri/card1"}},
			{KObj: "/sys/devices/platform/simple-framebuffer.0/drm/card0", Env: map[string]string{"DEVNAME": "dri/card0"}},
			{KObj: "/sys/devices/pci0000:00/0000:01:00.0/drm/renderD128", Env: map[string]string{"DEVNAME": "dri/renderD128"}},
		}, nil
	}
	res := DRMDetector{SysRoot: root, Crawl: crawl}.Detect(context.Background())
	if res.Degraded() {
		t.Fatalf("unexpected warning %q", res.Warning)
	}
	want := []Device{{Index: 0, Name: "card0"}, {Index: 1, Name: "amdgpu (1002:744C)"}}
	if len(res.Devices) != len(want) || res.Devices[0] != want[0] || res.Devices[1] != want[1] {
		t.Fatalf("devices = %+v, want %+v", res.Devices, want)
	}
}

func TestDRMDetectorCrawlFailure(t *testing.T) {
	crawl := func(context.Context) ([]crawler.Device, error) { return nil, errors.New("permission denied") }
	res := DRMDetector{SysRoot: fakeSys(t), Crawl: crawl}.Detect(context.Background())
	if res.Warning != warnFailed || len(res.Devices) != 0 || res.Err == nil {
		t.Fatalf("expected failed warning, got %+v", res)
	}
}

func TestCardIndex(t *testing.T) {
	for devname, want := range map[string]int{"dri/card0": 0, "dri/card12": 12} {
		if got, ok := cardIndex(devname); !ok || got != want {
			t.Errorf("cardIndex(%q) = %d, %v", devname, got, ok)
		}
	}
	for _, devname := range []string{"", "dri/card", "dri/renderD128", "sr0"} {
		if _, ok := cardIndex(devname); ok {
			t.Errorf("cardIndex(%q) should fail", devname)
		}
	}
}

func TestDRMMatcher(t *testing.T) {
	m := drmMatcher()
	for _, action := range []netlink.KObjAction{netlink.ADD, netlink.REMOVE, netlink.CHANGE} {
		if !m.Evaluate(netlink.UEvent{Action: action, Env: map[string]string{"SUBSYSTEM": "drm"}}) {
			t.Errorf("expected %s drm event to match", action)
		}
	}
	if m.Evaluate(netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "block"}}) {
		t.Error("block events should not match")
	}
}

func TestEventFrom(t *testing.T) {
	ev := eventFrom(netlink.UEvent{Action: netlink.ADD, KObj: "/devices/x/drm/card2", Env: map[string]string{"DEVNAME": "dri/card2"}})
	if ev.Action != "add" || ev.Device != "dri/card2" || ev.KObject != "/devices/x/drm/card2" {
		t.Fatalf("unexpected event %+v", ev)
	}
}
