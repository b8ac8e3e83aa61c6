// Package preflight checks that a job can run before any frame is extracted.
//
// These checks run in two contexts:
//   - "pixy upscale" calls RunAll before acquiring a work directory. A failed
//     check aborts the job early instead of after minutes of extraction.
//   - "pixy check" prints every result as a status table.
//
// Free space is reported but only fails when below the configured minimum.
package preflight
