// Package shell hosts the embedded interactive shell: a login shell running on
// a pseudo-terminal, a background reader that queues its output, and a
// transcript that renders that output for the shell tab.
package shell

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/logger"
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateUnstarted State = iota
	StateRunning
	StateExited
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return "unstarted"
	}
}

const (
	readChunkSize = 4096

	DefaultQueueSize    = 256
	DefaultGracePeriod  = 500 * time.Millisecond
	DefaultWriteTimeout = 20 * time.Millisecond
	DefaultTerm         = "xterm-256color"
)

// ErrNotRunning is returned when writing to a session whose shell is gone.
var ErrNotRunning = errors.New("shell session is not running")

// Options configures Start. Zero values take the defaults above.
type Options struct {
	// Path is the configured shell; empty means resolve it (see ResolveShell).
	Path string
	Args []string

	// Term is exported as TERM when the environment does not set one.
	Term string

	// Env replaces os.Environ() for the child when non-nil.
	Env []string
	Dir string

	Rows int
	Cols int

	QueueSize    int
	GracePeriod  time.Duration
	WriteTimeout time.Duration

	Logger logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Term == "" {
		o.Term = DefaultTerm
	}
	if o.Rows <= 0 {
		o.Rows = 24
	}
	if o.Cols <= 0 {
		o.Cols = 80
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.Logger == nil {
		o.Logger = logger.ForComponent(logger.CompShell)
	}
	return o
}

// Session is one shell process attached to a pseudo-terminal.
//
// Output is read by a single background goroutine into a bounded queue and
// handed to the caller by PollOutput, which never blocks. Every other method
// is meant to be called from the UI loop.
type Session struct {
	opts Options
	log  logger.Logger

	cmd  *exec.Cmd
	ptmx *os.File
	path string

	queue chan []byte
	stop  chan struct{} // closed by Terminate
	done  chan struct{} // closed by the reader after the child is reaped

	mu       sync.Mutex
	state    State
	rows     int
	cols     int
	pending  []byte
	exitCode int

	terminateOnce sync.Once
	terminateErr  error
}

// Start spawns the shell on a new pseudo-terminal. The shell becomes a
// session leader with the terminal as its controlling tty and starts with the
// requested window size.
func Start(opts Options) (*Session, error) {
	opts = opts.withDefaults()

	path, err := ResolveShell(opts.Path)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, opts.Args...)
	cmd.Env = childEnv(opts)
	cmd.Dir = opts.Dir

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, rterrors.WrapWithCode(err, rterrors.ErrPTY,
			"Couldn't start the shell",
			"Check that /dev/ptmx is usable or set shell.path in your config.")
	}

	s := &Session{
		opts:     opts,
		log:      opts.Logger,
		cmd:      cmd,
		ptmx:     ptmx,
		path:     path,
		queue:    make(chan []byte, opts.QueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    StateRunning,
		rows:     opts.Rows,
		cols:     opts.Cols,
		exitCode: -1,
	}

	go s.readLoop()

	s.log.Info("started %s pid=%d size=%dx%d", path, s.Pid(), opts.Rows, opts.Cols)
	return s, nil
}

func childEnv(opts Options) []string {
	env := opts.Env
	if env == nil {
		env = os.Environ()
	}
	env = append([]string(nil), env...)

	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") && len(kv) > len("TERM=") {
			return env
		}
	}
	return append(env, "TERM="+opts.Term)
}

// readLoop copies PTY output into the queue until the shell side closes,
// then reaps the child. It is the only caller of cmd.Wait.
func (s *Session) readLoop() {
	defer close(s.done)

	buf := make([]byte, readChunkSize)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.queue <- chunk:
			case <-s.stop:
				s.reap()
				return
			}
		}
		if err != nil {
			// EIO is how Linux reports that the slave side has gone away.
			if !errors.Is(err, io.EOF) && !errors.Is(err, syscall.EIO) && !errors.Is(err, os.ErrClosed) {
				s.log.Warn("read from pty: %v", err)
			}
			break
		}
	}
	s.reap()
}

func (s *Session) reap() {
	err := s.cmd.Wait()
	code := exitStatus(s.cmd.ProcessState)

	s.mu.Lock()
	s.exitCode = code
	s.mu.Unlock()

	if err != nil && code < 0 {
		s.log.Warn("wait for shell: %v", err)
	}
	s.log.Info("shell pid=%d exited status=%d", s.Pid(), code)
}

// exitStatus maps a finished process to a shell-style status: the exit code,
// or 128+signal when it was killed.
func exitStatus(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ps.ExitCode()
}

// Path is the resolved shell binary.
func (s *Session) Path() string {
	return s.path
}

// Pid is the shell's process id, which is also its process group id.
func (s *Session) Pid() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// State reports the lifecycle stage as last observed by PollOutput or Terminate.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Exited reports whether the shell process has been reaped.
func (s *Session) Exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the shell's exit status once it has been reaped.
func (s *Session) ExitCode() (int, bool) {
	if !s.Exited() {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, true
}

// Write queues p for the shell and tries to deliver it within the write
// timeout. Bytes the PTY does not accept in time stay pending and go out,
// in order, before anything written later.
func (s *Session) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || s.Exited() {
		return 0, ErrNotRunning
	}

	s.pending = append(s.pending, p...)
	if err := s.flushLocked(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush retries delivery of pending input. Called on every loop tick.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return nil
	}
	return s.flushLocked()
}

func (s *Session) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}

	if err := s.ptmx.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		s.log.Debug("set write deadline: %v", err)
	}

	n, err := s.ptmx.Write(s.pending)
	s.pending = append(s.pending[:0], s.pending[n:]...)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil
		}
		return rterrors.WrapWithCode(err, rterrors.ErrPTY, "Couldn't write to the shell", "")
	}
	return nil
}

// Resize sets the PTY window size. The kernel delivers SIGWINCH to the
// shell's foreground process group.
func (s *Session) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return rterrors.New(rterrors.ErrPTY, "Invalid shell size", "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return ErrNotRunning
	}
	if rows == s.rows && cols == s.cols {
		return nil
	}

	if err := pty.Setsize(s.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return rterrors.WrapWithCode(err, rterrors.ErrPTY, "Couldn't resize the shell", "")
	}
	s.rows, s.cols = rows, cols
	return nil
}

// Size reads the current window size back from the PTY.
func (s *Session) Size() (rows, cols int, err error) {
	return pty.Getsize(s.ptmx)
}

// PollOutput returns every chunk the reader has queued so far without
// blocking. It also flushes pending input. Once the shell has exited and the
// queue is empty it marks the session exited and returns io.EOF.
func (s *Session) PollOutput() ([][]byte, error) {
	if err := s.Flush(); err != nil {
		s.log.Warn("flush pending input: %v", err)
	}

	chunks := s.drain(nil)
	if len(chunks) > 0 {
		return chunks, nil
	}

	select {
	case <-s.done:
	default:
		return nil, nil
	}

	// The reader sends its last chunk before closing done.
	if chunks = s.drain(nil); len(chunks) > 0 {
		return chunks, nil
	}

	s.mu.Lock()
	s.state = StateExited
	s.pending = nil
	s.mu.Unlock()
	return nil, io.EOF
}

func (s *Session) drain(out [][]byte) [][]byte {
	for {
		select {
		case chunk := <-s.queue:
			out = append(out, chunk)
		default:
			return out
		}
	}
}

// Terminate stops the shell and releases the PTY. It hangs up the whole
// process group, escalates to SIGKILL after the grace period, and waits a
// bounded time for the reader to finish. Safe to call more than once.
func (s *Session) Terminate() error {
	s.terminateOnce.Do(func() {
		s.terminateErr = s.terminate()
	})
	return s.terminateErr
}

func (s *Session) terminate() error {
	close(s.stop)
	grace := s.opts.GracePeriod

	if !s.Exited() {
		// Interactive shells ignore SIGTERM; SIGHUP is what a closing terminal sends.
		s.signalGroup(unix.SIGHUP)
		s.signalGroup(unix.SIGTERM)
		if !s.waitDone(grace) {
			s.log.Warn("shell pid=%d ignored SIGHUP, killing", s.Pid())
			s.signalGroup(unix.SIGKILL)
		}
	}

	var err error
	if closeErr := s.ptmx.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		err = rterrors.WrapWithCode(closeErr, rterrors.ErrPTY, "Couldn't close the shell terminal", "")
	}

	if !s.waitDone(grace) {
		s.log.Warn("reader for pid=%d did not finish within %s", s.Pid(), grace)
	}

	s.mu.Lock()
	s.state = StateExited
	s.pending = nil
	s.mu.Unlock()

	s.log.Info("terminated shell pid=%d", s.Pid())
	return err
}

func (s *Session) signalGroup(sig unix.Signal) {
	pid := s.Pid()
	if pid <= 0 {
		return
	}
	// pty.Start makes the shell a session leader, so its pgid is its pid.
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		s.log.Debug("signal %v to group %d: %v", sig, pid, err)
	}
}

func (s *Session) waitDone(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.done:
		return true
	case <-timer.C:
		return false
	}
}
