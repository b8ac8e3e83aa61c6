// Package ffprobe wraps the ffprobe CLI to extract container and stream
// metadata.
//
// Inspect resolves ffprobe, requests JSON-formatted format and stream data,
// and decodes it into typed structs while retaining the raw payload. Helpers
// expose the video frame rate used by the final transcode along with stream
// counts and duration.
package ffprobe
