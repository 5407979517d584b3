// Package exec runs short-lived local commands for rtop's collectors and
// privileged reads. Commands are always given as argv; nothing is passed
// through a shell, so paths and unit names never need quoting.
package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the command exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes a command to completion.
//
// A non-zero exit is reported through Result.ExitCode with a nil error.
// The error is only set when the command could not run at all (binary
// missing, fork failure, context cancelled before start).
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) (Result, error)
}

// LocalRunner runs commands on this machine.
type LocalRunner struct {
	// Env overrides the child environment. Nil inherits os.Environ().
	Env []string
}

// NewLocalRunner returns a runner that inherits the current environment.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run executes name with args, feeding stdin if non-nil, and captures output.
func (r *LocalRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) (Result, error) {
	command := exec.CommandContext(ctx, name, args...)
	if r.Env != nil {
		command.Env = r.Env
	} else {
		command.Env = os.Environ()
	}

	var stdout, stderr bytes.Buffer
	command.Stdin = stdin
	command.Stdout = &stdout
	command.Stderr = &stderr

	runErr := command.Run()
	result := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if runErr != nil {
		// Command ran but returned non-zero
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		if IsNotFound(runErr) {
			return result, rterrors.WrapWithCode(runErr, rterrors.ErrExec,
				"Couldn't find '"+name+"'",
				"Make sure it is installed and on your PATH.")
		}
		return result, rterrors.WrapWithCode(runErr, rterrors.ErrExec,
			"Couldn't run '"+name+"'",
			"Make sure the command exists and is executable.")
	}

	return result, nil
}

// IsNotFound reports whether err means the binary does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
