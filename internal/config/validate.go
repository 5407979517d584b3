package config

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/rtop/internal/errors"
)

// MinInterval is the fastest metric refresh rtop accepts.
const MinInterval = 250 * time.Millisecond

// Validate checks the config for errors and returns a structured error.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateGeneral,
		func(c *Config) error { return validateShell(c.Shell) },
		func(c *Config) error { return validatePrivileged(c.Privileged) },
		func(c *Config) error { return validateLog(c.Log) },
		func(c *Config) error { return validateUI(c.UI) },
	}

	for _, check := range checks {
		if err := check(cfg); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Config has a problem",
				"Fix the value above, or run 'rtop config show' to see the effective config")
		}
	}
	return nil
}

func validateGeneral(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return fmt.Errorf("config version %d is newer than this rtop understands (%d) - upgrade rtop", cfg.Version, CurrentConfigVersion)
	}
	if cfg.Interval < MinInterval {
		return fmt.Errorf("interval %v is too fast - use at least %v", cfg.Interval, MinInterval)
	}
	if cfg.HistorySize < 1 {
		return fmt.Errorf("history_size needs to be at least 1 (got %d)", cfg.HistorySize)
	}
	return nil
}

// validateShell checks shell session settings.
func validateShell(sh ShellConfig) error {
	if sh.PollInterval <= 0 {
		return fmt.Errorf("shell.poll_interval needs to be positive - try '30ms'")
	}
	if sh.GracePeriod < 0 {
		return fmt.Errorf("shell.grace_period can't be negative")
	}
	if sh.QueueSize < 1 {
		return fmt.Errorf("shell.queue_size needs to be at least 1 (got %d)", sh.QueueSize)
	}
	if sh.ScrollbackBytes < 4096 {
		return fmt.Errorf("shell.scrollback_bytes needs to be at least 4096 (got %d)", sh.ScrollbackBytes)
	}
	return nil
}

// validatePrivileged checks password-gated read settings.
func validatePrivileged(p PrivilegedConfig) error {
	if p.SudoPath == "" {
		return fmt.Errorf("privileged.sudo_path is empty - set it to 'sudo' or a full path")
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("privileged.max_attempts needs to be at least 1 (got %d)", p.MaxAttempts)
	}
	if p.MaxLines < 1 {
		return fmt.Errorf("privileged.max_lines needs to be at least 1 (got %d)", p.MaxLines)
	}
	return nil
}

// validateLog checks rtop's own logging settings.
func validateLog(l LogConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("log.level '%s' isn't valid - use 'debug', 'info', 'warn', or 'error'", l.Level)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings can't be negative")
	}
	return nil
}

// validateUI checks rendering settings.
func validateUI(ui UIConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[ui.Color] {
		return fmt.Errorf("ui.color '%s' isn't valid - use 'auto', 'always', or 'never'", ui.Color)
	}
	return validateThresholds(ui.Thresholds)
}

// validateThresholds checks gauge thresholds.
func validateThresholds(thresh ThresholdValues) error {
	if thresh.Warning < 0 || thresh.Warning > 100 {
		return fmt.Errorf("ui.thresholds.warning needs to be 0-100 (got %d)", thresh.Warning)
	}
	if thresh.Critical < 0 || thresh.Critical > 100 {
		return fmt.Errorf("ui.thresholds.critical needs to be 0-100 (got %d)", thresh.Critical)
	}
	if thresh.Warning > 0 && thresh.Critical > 0 && thresh.Warning >= thresh.Critical {
		return fmt.Errorf("ui.thresholds.warning (%d%%) is higher than critical (%d%%) - should be the other way around", thresh.Warning, thresh.Critical)
	}
	return nil
}
