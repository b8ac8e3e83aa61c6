// Package pipeline runs an upscale job end to end.
//
// A run extracts every source frame with ffmpeg, upscales the sequence with
// the model's ncnn-vulkan binary, and re-encodes the result while stream
// copying audio, subtitles, and attachments from the original. Stages are
// sequential blocking subprocesses inside a per-job work directory; the
// first failure aborts the run and leaves the directory behind.
package pipeline
