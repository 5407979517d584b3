package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete rtop configuration file.
type Config struct {
	Version     int              `yaml:"version" mapstructure:"version"`
	Interval    time.Duration    `yaml:"interval" mapstructure:"interval"`
	HistorySize int              `yaml:"history_size" mapstructure:"history_size"`
	Shell       ShellConfig      `yaml:"shell" mapstructure:"shell"`
	Privileged  PrivilegedConfig `yaml:"privileged" mapstructure:"privileged"`
	Logs        LogsConfig       `yaml:"logs" mapstructure:"logs"`
	Log         LogConfig        `yaml:"log" mapstructure:"log"`
	UI          UIConfig         `yaml:"ui" mapstructure:"ui"`
}

// ShellConfig controls the embedded shell session.
type ShellConfig struct {
	// Path is the shell binary. Empty means $SHELL, then the login shell
	// from /etc/passwd, then /bin/sh.
	Path string `yaml:"path" mapstructure:"path"`

	// Args are passed to the shell.
	Args []string `yaml:"args" mapstructure:"args"`

	// Term is exported as TERM when the environment has none.
	Term string `yaml:"term" mapstructure:"term"`

	// PollInterval is how often queued shell output is drained.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// GracePeriod bounds each wait while terminating the shell.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`

	// QueueSize is the number of output chunks buffered between the reader and the UI.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`

	// ScrollbackBytes caps the retained shell output.
	ScrollbackBytes int `yaml:"scrollback_bytes" mapstructure:"scrollback_bytes"`
}

// PrivilegedConfig controls password-gated reads.
type PrivilegedConfig struct {
	// SudoPath is the privilege-escalation binary.
	SudoPath string `yaml:"sudo_path" mapstructure:"sudo_path"`

	// MaxAttempts is how many wrong passwords are accepted before giving up.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// MaxLines caps the text shown for a file or journal.
	MaxLines int `yaml:"max_lines" mapstructure:"max_lines"`
}

// LogsConfig points at the directories browsed by the Logs and Journal tabs.
type LogsConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	JournalDir string `yaml:"journal_dir" mapstructure:"journal_dir"`
}

// LogConfig controls rtop's own log file.
type LogConfig struct {
	// File is the log path. Empty disables logging.
	File string `yaml:"file" mapstructure:"file"`

	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level" mapstructure:"level"`

	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// UIConfig controls rendering.
type UIConfig struct {
	// Color mode: "auto", "always", or "never".
	Color string `yaml:"color" mapstructure:"color"`

	Thresholds ThresholdValues `yaml:"thresholds" mapstructure:"thresholds"`
}

// ThresholdValues defines warning and critical percentages for gauges.
type ThresholdValues struct {
	Warning  int `yaml:"warning" mapstructure:"warning"`
	Critical int `yaml:"critical" mapstructure:"critical"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:     CurrentConfigVersion,
		Interval:    time.Second,
		HistorySize: 60,
		Shell: ShellConfig{
			Args:            []string{"-l"},
			Term:            "xterm-256color",
			PollInterval:    30 * time.Millisecond,
			GracePeriod:     500 * time.Millisecond,
			QueueSize:       256,
			ScrollbackBytes: 512 * 1024,
		},
		Privileged: PrivilegedConfig{
			SudoPath:    "sudo",
			MaxAttempts: 2,
			MaxLines:    5000,
		},
		Logs: LogsConfig{
			Dir:        "/var/log",
			JournalDir: "/var/log/journal",
		},
		Log: LogConfig{
			File:       "~/.local/state/rtop/rtop.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
		UI: UIConfig{
			Color: "auto",
			Thresholds: ThresholdValues{
				Warning:  70,
				Critical: 90,
			},
		},
	}
}
