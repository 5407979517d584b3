// Package testing provides test doubles for the exec package.
package testing

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rileyhilliard/rtop/internal/exec"
)

// Call records one invocation of FakeRunner.Run.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// Argv returns the full command line of the call.
func (c Call) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// Handler computes the result for a call.
type Handler func(call Call) (exec.Result, error)

// FakeRunner is an exec.Runner that never starts processes.
// Responses are looked up by command name, falling back to Default.
type FakeRunner struct {
	mu       sync.Mutex
	handlers map[string]Handler

	// Default handles commands without a registered handler.
	// Nil means exit 0 with no output.
	Default Handler

	// Calls lists every invocation in order.
	Calls []Call
}

// NewFakeRunner creates an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{handlers: make(map[string]Handler)}
}

// On registers a handler for the named binary.
func (f *FakeRunner) On(name string, h Handler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	return f
}

// Respond registers a fixed result for the named binary.
func (f *FakeRunner) Respond(name string, stdout, stderr string, exitCode int) *FakeRunner {
	return f.On(name, func(Call) (exec.Result, error) {
		return exec.Result{Stdout: []byte(stdout), Stderr: []byte(stderr), ExitCode: exitCode}, nil
	})
}

// Run implements exec.Runner.
func (f *FakeRunner) Run(_ context.Context, stdin io.Reader, name string, args ...string) (exec.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return exec.Result{ExitCode: -1}, err
		}
		call.Stdin = data
	}

	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	h, ok := f.handlers[name]
	if !ok {
		h = f.Default
	}
	f.mu.Unlock()

	if h == nil {
		return exec.Result{}, nil
	}
	return h(call)
}

// CallsTo returns the recorded calls to the named binary.
func (f *FakeRunner) CallsTo(name string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// CommandLines returns every call joined with spaces, for assertions.
func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		out = append(out, strings.Join(c.Argv(), " "))
	}
	return out
}
