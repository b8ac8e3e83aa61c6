package testsupport

import (
	"context"
	"sync"

	"pixy/internal/procexec"
)

// FakeRunner records commands instead of executing them.
type FakeRunner struct {
	mu    sync.Mutex
	calls []procexec.Command

	// Hook, when set, runs for every command and supplies its result.
	Hook func(ctx context.Context, call int, cmd procexec.Command) (procexec.Output, error)
}

// Run records cmd and delegates to Hook.
func (f *FakeRunner) Run(ctx context.Context, cmd procexec.Command) (procexec.Output, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, cmd)
	hook := f.Hook
	f.mu.Unlock()

	if hook == nil {
		return procexec.Output{}, nil
	}
	return hook(ctx, call, cmd)
}

// Calls returns a copy of the recorded commands.
func (f *FakeRunner) Calls() []procexec.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]procexec.Command(nil), f.calls...)
}

// Names returns the Name of every recorded command in order.
func (f *FakeRunner) Names() []string {
	calls := f.Calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return names
}
