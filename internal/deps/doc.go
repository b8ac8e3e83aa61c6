// Package deps resolves the external tools pixy drives (ffmpeg, ffprobe and the
// ncnn-vulkan upscalers) and reports which of them are available.
package deps
