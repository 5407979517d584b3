package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names used with ForComponent.
const (
	CompShell      = "shell"
	CompPrivileged = "privileged"
	CompMonitor    = "monitor"
	CompMetrics    = "metrics"
	CompCLI        = "cli"
)

// Config controls the rotating file backend.
type Config struct {
	// File is the log file path. Empty discards all output.
	File string

	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string

	// MaxSizeMB is the size in megabytes before rotation (default 10).
	MaxSizeMB int

	// MaxBackups is the number of rotated files to keep (default 3).
	MaxBackups int

	// MaxAgeDays is how long rotated files are kept (default 14).
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool

	// Debug forces the debug level regardless of Level.
	Debug bool
}

var (
	globalMu     sync.RWMutex
	globalLogger *slog.Logger
	rotator      *lumberjack.Logger
)

// Init configures the global file logger. Safe to call more than once;
// the previous file is closed first.
func Init(cfg Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}

	if cfg.File == "" {
		globalLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 14
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	rotator = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	level := ParseLevel(cfg.Level)
	if cfg.Debug {
		level = slog.LevelDebug
	}

	globalLogger = slog.New(slog.NewTextHandler(rotator, &slog.HandlerOptions{Level: level}))
	return nil
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Shutdown closes the log file. Later log calls are discarded.
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = nil
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

func current() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return globalLogger
}

// ForComponent returns a Logger tagged with component=name. It resolves the
// backend at log time, so package-level loggers created before Init still
// write to the file afterwards.
func ForComponent(name string) Logger {
	return &slogLogger{l: slog.New(&dynamicHandler{component: name})}
}

// slogLogger adapts *slog.Logger to the printf-style Logger interface.
type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) log(level slog.Level, format string, args ...interface{}) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	s.l.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Debug(format string, args ...interface{}) {
	s.log(slog.LevelDebug, format, args...)
}

func (s *slogLogger) Info(format string, args ...interface{}) {
	s.log(slog.LevelInfo, format, args...)
}

func (s *slogLogger) Warn(format string, args ...interface{}) {
	s.log(slog.LevelWarn, format, args...)
}

func (s *slogLogger) Error(format string, args ...interface{}) {
	s.log(slog.LevelError, format, args...)
}

// dynamicHandler delegates to whatever handler is global at log time.
type dynamicHandler struct {
	component string
	attrs     []slog.Attr
	group     string
}

func (h *dynamicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return current().Handler().Enabled(ctx, level)
}

func (h *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := current().Handler()
	handler = handler.WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	if h.group != "" {
		handler = handler.WithGroup(h.group)
	}
	return handler.Handle(ctx, r)
}

func (h *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &dynamicHandler{component: h.component, attrs: newAttrs, group: h.group}
}

func (h *dynamicHandler) WithGroup(name string) slog.Handler {
	return &dynamicHandler{component: h.component, attrs: h.attrs, group: name}
}
