package main

import (
	"testing"
)

func TestDevicesMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "devices", "--binary", "pixy-no-such-upscaler")
	if err != nil {
		t.Fatalf("devices should not fail: %v", err)
	}
	requireContains(t, out, "upscaler binary not found")
	requireContains(t, out, "No devices detected")
}

func TestDevicesFromBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.stub(t, "fake-upscaler", "echo '[0 NVIDIA GeForce RTX 3080]  queueC=2[8]'\necho '0: NVIDIA GeForce RTX 3080'\necho '1: AMD Radeon RX 6800'\n")

	out, _, err := runCLI(t, env, "devices", "--binary", "fake-upscaler")
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	requireContains(t, out, "NVIDIA GeForce RTX 3080")
	requireContains(t, out, "AMD Radeon RX 6800")

	out, _, err = runCLI(t, env, "devices", "--binary", "fake-upscaler", "--json")
	if err != nil {
		t.Fatalf("devices --json: %v", err)
	}
	requireContains(t, out, `"index": 1`)
}
