// Package history keeps a SQLite ledger of upscale runs.
//
// Each job is recorded when it starts, updated as it moves between stages, and
// closed with its outcome and error kind. The ledger is informational: callers
// log history failures and let the job continue.
package history
