package procexec

import (
	"context"
	"errors"
	"sync"
	"time"

	"pixy/internal/services"
)

// Entry records one invocation made through a Recording runner.
type Entry struct {
	Stage    string        `json:"stage"`
	Command  string        `json:"command"`
	Elapsed  time.Duration `json:"elapsed"`
	Failed   bool          `json:"failed"`
	ExitCode *int          `json:"exit_code,omitempty"`
}

// Recording wraps a Runner and keeps an ordered log of every command it ran.
// The stage label is taken from the context (services.WithStage).
type Recording struct {
	runner Runner

	mu      sync.Mutex
	entries []Entry
}

// NewRecording wraps runner, defaulting to ExecRunner.
func NewRecording(runner Runner) *Recording {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Recording{runner: runner}
}

// Run executes cmd through the wrapped runner and appends an Entry.
func (r *Recording) Run(ctx context.Context, cmd Command) (Output, error) {
	out, err := r.runner.Run(ctx, cmd)
	stage, _ := services.StageFromContext(ctx)
	entry := Entry{Stage: stage, Command: cmd.String(), Elapsed: out.Elapsed, Failed: err != nil}
	var procErr *services.ProcessError
	if errors.As(err, &procErr) {
		if code, ok := procErr.ExitCode(); ok {
			entry.ExitCode = &code
		}
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return out, err
}

// Entries returns a copy of the recorded log.
func (r *Recording) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
