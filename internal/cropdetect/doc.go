// Package cropdetect finds letterbox bars with drapto's sampler and turns the
// result into an ffmpeg crop filter for frame extraction.
package cropdetect
