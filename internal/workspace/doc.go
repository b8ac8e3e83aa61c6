// Package workspace manages per-job working directories.
//
// Every job gets its own directory named by job id, holding the extracted and
// upscaled frame sequences plus a flock-protected lock file. Concurrent jobs
// never share frames, and Prune can clear abandoned directories without
// touching ones still in use.
package workspace
