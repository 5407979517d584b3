package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/rtop/internal/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDirName is the directory under the XDG config home.
	ConfigDirName = "rtop"
	// ConfigFileName is the config file name inside ConfigDirName.
	ConfigFileName = "config.yaml"
	// ConfigEnv points at an explicit config file.
	ConfigEnv = "RTOP_CONFIG"
	// EnvPrefix is the prefix for per-key environment overrides (RTOP_INTERVAL, RTOP_SHELL_PATH).
	EnvPrefix = "RTOP"
)

// Load reads config from the specified path. An empty path loads defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'rtop config init' to create one, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. $RTOP_CONFIG
// 3. $XDG_CONFIG_HOME/rtop/config.yaml
// 4. ~/.config/rtop/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(ConfigEnv)
	}

	if explicit != "" {
		explicit = Expand(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", nil
}

// DefaultPath is where 'rtop config init' writes when no path is given.
func DefaultPath() string {
	paths := searchPaths()
	if len(paths) == 0 {
		return ConfigFileName
	}
	return paths[0]
}

func searchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, ConfigFileName))
	}
	return paths
}

// LoadOrDefault loads config from the found path, or returns defaults if not found.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Marshal renders a config as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't render config as YAML",
			"")
	}
	return data, nil
}

// Write saves cfg as YAML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't create config directory",
			"Check permissions on "+filepath.Dir(path))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write config file",
			"Check permissions on "+path)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		source := path
		if source == "" {
			source = "the RTOP_* environment"
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+source)
	}

	cfg.Shell.Path = Expand(cfg.Shell.Path)
	cfg.Logs.Dir = Expand(cfg.Logs.Dir)
	cfg.Logs.JournalDir = Expand(cfg.Logs.JournalDir)
	cfg.Log.File = Expand(cfg.Log.File)

	return cfg, nil
}

// setDefaults registers every key with viper. AutomaticEnv only applies to
// keys viper knows about, so this also enables RTOP_* overrides.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("interval", d.Interval.String())
	v.SetDefault("history_size", d.HistorySize)

	v.SetDefault("shell.path", d.Shell.Path)
	v.SetDefault("shell.args", d.Shell.Args)
	v.SetDefault("shell.term", d.Shell.Term)
	v.SetDefault("shell.poll_interval", d.Shell.PollInterval.String())
	v.SetDefault("shell.grace_period", d.Shell.GracePeriod.String())
	v.SetDefault("shell.queue_size", d.Shell.QueueSize)
	v.SetDefault("shell.scrollback_bytes", d.Shell.ScrollbackBytes)

	v.SetDefault("privileged.sudo_path", d.Privileged.SudoPath)
	v.SetDefault("privileged.max_attempts", d.Privileged.MaxAttempts)
	v.SetDefault("privileged.max_lines", d.Privileged.MaxLines)

	v.SetDefault("logs.dir", d.Logs.Dir)
	v.SetDefault("logs.journal_dir", d.Logs.JournalDir)

	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("ui.color", d.UI.Color)
	v.SetDefault("ui.thresholds.warning", d.UI.Thresholds.Warning)
	v.SetDefault("ui.thresholds.critical", d.UI.Thresholds.Critical)
}
