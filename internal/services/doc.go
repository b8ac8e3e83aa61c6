// Package services defines the shared error taxonomy and context helpers used
// by every pipeline component.
//
// Key responsibilities:
//   - Sentinel markers (command not found, io, json, invalid argument,
//     process failed) plus the typed CommandNotFoundError and ProcessError
//     that carry the tool name or the failing command line.
//   - The Wrap helper that adds stage/operation context while keeping
//     errors.Is and errors.As working.
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
package services
