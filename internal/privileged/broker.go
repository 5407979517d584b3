// Package privileged reads files, directories and command output that need
// root. Every read is tried unprivileged first; only a permission failure
// leads to a password prompt, and the password reaches sudo on stdin alone.
package privileged

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/exec"
	"github.com/rileyhilliard/rtop/internal/logger"
	"github.com/rileyhilliard/rtop/internal/logs"
)

const (
	DefaultSudoPath    = "sudo"
	DefaultMaxLines    = 5000
	DefaultMaxAttempts = 2

	listingNameWidth = 48
)

// authMarkers appear in sudo's stderr when the password is wrong or missing.
var authMarkers = []string{
	"incorrect password",
	"sorry, try again",
	"no password was provided",
	"a password is required",
	"authentication failure",
}

// permissionMarkers appear in a command's stderr when it lacked access.
var permissionMarkers = []string{
	"permission denied",
	"access denied",
	"operation not permitted",
}

// Options configures a Broker.
type Options struct {
	SudoPath string
	MaxLines int
	Runner   exec.Runner
	Logger   logger.Logger

	// Now is used to render listing ages. Nil means time.Now.
	Now func() time.Time
}

// Broker performs privileged reads.
type Broker struct {
	sudo     string
	maxLines int
	runner   exec.Runner
	log      logger.Logger
	now      func() time.Time
}

// NewBroker creates a Broker, filling in defaults for zero options.
func NewBroker(opts Options) *Broker {
	if opts.SudoPath == "" {
		opts.SudoPath = DefaultSudoPath
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	if opts.Runner == nil {
		opts.Runner = exec.NewLocalRunner()
	}
	if opts.Logger == nil {
		opts.Logger = logger.ForComponent(logger.CompPrivileged)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Broker{
		sudo:     opts.SudoPath,
		maxLines: opts.MaxLines,
		runner:   opts.Runner,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// MaxLines is the number of content lines kept per read.
func (b *Broker) MaxLines() int {
	return b.maxLines
}

// ReadFile reads path without privileges.
func (b *Broker) ReadFile(_ context.Context, path string) Outcome {
	t := FileTarget(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			b.log.Info("read %s: permission denied", t.Label)
			return NeedsPassword(t)
		}
		return Failed(t, rterrors.OneLine(err))
	}
	return Succeeded(t, b.clean(string(data)))
}

// ListDirectory lists dir without privileges. A directory the user cannot
// read comes back as NeedsPassword for a find-based listing.
func (b *Broker) ListDirectory(_ context.Context, dir string) Outcome {
	t := ListingTarget(dir)
	entries, err := logs.Walk(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			b.log.Info("list %s: permission denied", t.Label)
			return NeedsPassword(t)
		}
		return Failed(t, rterrors.OneLine(err))
	}
	return Succeeded(t, b.formatListing(entries))
}

// Attempt tries target without privileges.
func (b *Broker) Attempt(ctx context.Context, t Target) Outcome {
	switch t.Kind {
	case KindReadFile:
		return b.ReadFile(ctx, t.Path)
	case KindListDirectory:
		return b.ListDirectory(ctx, t.Path)
	}

	if len(t.Argv) == 0 {
		return Failed(t, "nothing to run")
	}
	res, err := b.runner.Run(ctx, nil, t.Argv[0], t.Argv[1:]...)
	if err != nil {
		return Failed(t, rterrors.OneLine(err))
	}
	if res.Success() {
		return Succeeded(t, b.clean(string(res.Stdout)))
	}

	stderr := string(res.Stderr)
	if containsAny(stderr, permissionMarkers) {
		b.log.Info("run %s: permission denied (exit %d)", t.Label, res.ExitCode)
		return NeedsPassword(t)
	}
	return Failed(t, firstLine(stderr, t.Argv[0]+" failed"))
}

// Escalate runs target under sudo -S with the password on stdin. The
// password is cleared before Escalate returns, whatever the outcome.
func (b *Broker) Escalate(ctx context.Context, t Target, pw *Password) Outcome {
	defer pw.Clear()

	if pw.Empty() {
		return Failed(t, "Password cannot be empty")
	}

	args := append([]string{"-S", "-p", "", "--"}, t.Command()...)
	res, err := b.runner.Run(ctx, pw.stdin(), b.sudo, args...)
	if err != nil {
		b.log.Warn("escalate %s: sudo did not run", t.Label)
		if exec.IsNotFound(err) {
			return Failed(t, "sudo is not installed")
		}
		return Failed(t, rterrors.OneLine(err))
	}

	if res.Success() {
		b.log.Info("escalate %s: succeeded", t.Label)
		return Succeeded(t, b.content(t, string(res.Stdout)))
	}

	stderr := string(res.Stderr)
	if containsAny(stderr, authMarkers) {
		b.log.Info("escalate %s: denied", t.Label)
		return Denied(t)
	}

	b.log.Info("escalate %s: failed with exit %d", t.Label, res.ExitCode)
	return Failed(t, firstLine(stderr, "sudo failed"))
}

func (b *Broker) content(t Target, stdout string) string {
	if t.Kind == KindListDirectory {
		return b.formatListing(logs.ParseListing(t.Path, stdout))
	}
	return b.clean(stdout)
}

func (b *Broker) formatListing(entries []logs.Entry) string {
	if len(entries) == 0 {
		return "(no files)"
	}
	return strings.Join(logs.FormatEntries(entries, listingNameWidth, b.now()), "\n")
}

// clean makes content safe to draw: invalid UTF-8 is replaced, escape
// sequences are removed and only the newest lines are kept.
func (b *Broker) clean(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = ansi.Strip(s)
	return CapLines(s, b.maxLines)
}

// CapLines keeps the last max lines of s.
func CapLines(s string, max int) string {
	if max <= 0 {
		return s
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[len(lines)-max:], "\n")
}

func containsAny(s string, markers []string) bool {
	s = strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func firstLine(s, fallback string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return fallback
}
