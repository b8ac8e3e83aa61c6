// Package encoder maps encode settings to the ordered ffmpeg flags used by the
// final transcode.
package encoder
