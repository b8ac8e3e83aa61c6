// Package devices lists GPUs usable by the ncnn-vulkan upscalers.
//
// Listing is advisory. Every detector returns a Result whose Warning explains
// why the inventory is empty instead of returning an error, so a host without
// a GPU runtime can still run the rest of pixy. BinaryDetector asks an
// upscaler binary (-l); DRMDetector reads sysfs through go-udev. Watch follows
// DRM hotplug over udev netlink.
package devices
