// Package frames turns a video into a numbered image sequence with ffmpeg.
//
// Extraction forces overwrite, disables frame-rate resync (-vsync 0) so every
// source frame yields exactly one image, and keeps frame timestamps. An
// optional crop and a single prefilter (yadif, hqdn3d, deband) can be applied
// on the way out.
package frames
