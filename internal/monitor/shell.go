package monitor

import (
	"errors"
	"fmt"
	"io"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/logger"
	"github.com/rileyhilliard/rtop/internal/shell"
)

// ShellManager owns the single shell session and its transcript. Leaving the
// shell tab keeps the session alive; Ensure starts a new one only when none
// is running.
type ShellManager struct {
	opts       shell.Options
	start      func(shell.Options) (*shell.Session, error)
	log        logger.Logger
	session    *shell.Session
	transcript *shell.Transcript

	rows, cols int
	ended      bool
	startErr   error
}

// NewShellManager creates a manager. No shell is started until Ensure.
func NewShellManager(opts shell.Options, scrollbackBytes int) *ShellManager {
	log := opts.Logger
	if log == nil {
		log = logger.ForComponent(logger.CompShell)
		opts.Logger = log
	}
	return &ShellManager{
		opts:       opts,
		start:      shell.Start,
		log:        log,
		transcript: shell.NewTranscript(scrollbackBytes),
	}
}

// Ensure starts a shell unless one is running. It reports whether a new
// session was started.
func (m *ShellManager) Ensure() (bool, error) {
	if m.session != nil && !m.ended {
		if !m.session.Exited() {
			return false, nil
		}
		// Exited since the last drain: collect its last output first.
		for m.Running() {
			m.Drain()
		}
	}

	if m.session != nil {
		// Releases the PTY of the exited shell.
		if err := m.session.Terminate(); err != nil {
			m.log.Warn("release exited shell: %v", err)
		}
	}

	opts := m.opts
	if m.rows > 0 && m.cols > 0 {
		opts.Rows, opts.Cols = m.rows, m.cols
	}

	s, err := m.start(opts)
	if err != nil {
		m.session = nil
		m.startErr = err
		m.log.Error("start shell: %v", rterrors.OneLine(err))
		return false, err
	}

	m.session = s
	m.ended = false
	m.startErr = nil
	return true, nil
}

// Running reports whether a live session exists.
func (m *ShellManager) Running() bool {
	return m.session != nil && !m.ended
}

// Pid is the live shell's pid, or 0.
func (m *ShellManager) Pid() int {
	if !m.Running() {
		return 0
	}
	return m.session.Pid()
}

// Session is the current session, live or ended. Nil before the first start.
func (m *ShellManager) Session() *shell.Session {
	return m.session
}

// Write forwards input to the live shell.
func (m *ShellManager) Write(p []byte) error {
	if !m.Running() {
		return shell.ErrNotRunning
	}
	_, err := m.session.Write(p)
	return err
}

// Resize records the terminal size for future sessions and applies it to
// the live one.
func (m *ShellManager) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	m.rows, m.cols = rows, cols
	if !m.Running() {
		return nil
	}
	err := m.session.Resize(rows, cols)
	if errors.Is(err, shell.ErrNotRunning) {
		return nil
	}
	return err
}

// Size is the last size given to Resize.
func (m *ShellManager) Size() (rows, cols int) {
	return m.rows, m.cols
}

// Drain moves queued output into the transcript. It reports whether
// anything changed. When the shell has exited it records the exit status
// and frees the terminal.
func (m *ShellManager) Drain() bool {
	if !m.Running() {
		return false
	}

	chunks, err := m.session.PollOutput()
	m.transcript.Append(chunks...)
	if err == nil {
		return len(chunks) > 0
	}
	if !errors.Is(err, io.EOF) {
		m.log.Warn("poll shell output: %v", err)
	}

	m.ended = true
	code, _ := m.session.ExitCode()
	m.transcript.AppendString(fmt.Sprintf("\r\n[shell exited with status %d, press F12 to start a new one]\r\n", code))
	if termErr := m.session.Terminate(); termErr != nil {
		m.log.Warn("release exited shell: %v", termErr)
	}
	return true
}

// Lines renders the transcript tail for a pane of width by height cells.
func (m *ShellManager) Lines(width, height int) []string {
	return m.transcript.Lines(width, height)
}

// Status is a one-line description of the session for the status bar.
func (m *ShellManager) Status() string {
	switch {
	case m.startErr != nil:
		return "shell failed: " + rterrors.OneLine(m.startErr)
	case m.session == nil:
		return "shell not started"
	case m.ended:
		code, _ := m.session.ExitCode()
		return fmt.Sprintf("shell exited (status %d)", code)
	default:
		return fmt.Sprintf("%s pid %d", m.session.Path(), m.session.Pid())
	}
}

// Close terminates the session, if any. Safe to call more than once.
func (m *ShellManager) Close() error {
	if m.session == nil {
		return nil
	}
	m.ended = true
	return m.session.Terminate()
}
