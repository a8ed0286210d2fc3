package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/giantswarm/lockstep/internal/process"
)

var _ process.Runner = (*FakeRunner)(nil)

// FakeRunner is a process.Runner that records every command and answers with
// Handler. A nil Handler answers every command with an empty success.
type FakeRunner struct {
	Handler func(cmd process.Command) (process.Result, error)

	mu    sync.Mutex
	calls []process.Command
}

// Run implements process.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd process.Command) (process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return process.Result{}, nil
	}
	return handler(cmd)
}

// Calls returns every command run so far, in order.
func (f *FakeRunner) Calls() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]process.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the commands run so far whose Name is name.
func (f *FakeRunner) CallsTo(name string) []process.Command {
	var out []process.Command
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ExitError builds the *process.CommandError a real runner returns for a
// command that exited with code and wrote stderr.
func ExitError(cmd process.Command, code int, stderr string) error {
	return &process.CommandError{
		Command:  cmd,
		ExitCode: code,
		Stderr:   stderr,
		Err:      errors.New("exit status"),
	}
}
