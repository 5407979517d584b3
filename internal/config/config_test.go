package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/rtop/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every search location at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv(ConfigEnv, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 60, cfg.HistorySize)
	assert.Equal(t, []string{"-l"}, cfg.Shell.Args)
	assert.Equal(t, "xterm-256color", cfg.Shell.Term)
	assert.Equal(t, 30*time.Millisecond, cfg.Shell.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Shell.GracePeriod)
	assert.Equal(t, 256, cfg.Shell.QueueSize)
	assert.Equal(t, "sudo", cfg.Privileged.SudoPath)
	assert.Equal(t, 2, cfg.Privileged.MaxAttempts)
	assert.Equal(t, 5000, cfg.Privileged.MaxLines)
	assert.Equal(t, "/var/log", cfg.Logs.Dir)
	assert.Equal(t, "/var/log/journal", cfg.Logs.JournalDir)
	assert.Equal(t, "auto", cfg.UI.Color)
	assert.Equal(t, 70, cfg.UI.Thresholds.Warning)
	assert.Equal(t, 90, cfg.UI.Thresholds.Critical)

	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	home := isolate(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	content := `
version: 1
interval: 2s
shell:
  path: /bin/sh
  args: ["-i"]
  poll_interval: 50ms
privileged:
  max_attempts: 3
log:
  file: ~/logs/rtop.log
  level: debug
ui:
  color: never
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.Equal(t, "/bin/sh", cfg.Shell.Path)
	assert.Equal(t, []string{"-i"}, cfg.Shell.Args)
	assert.Equal(t, 50*time.Millisecond, cfg.Shell.PollInterval)
	assert.Equal(t, 3, cfg.Privileged.MaxAttempts)
	assert.Equal(t, filepath.Join(home, "logs", "rtop.log"), cfg.Log.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "never", cfg.UI.Color)

	// Untouched keys keep their defaults
	assert.Equal(t, "sudo", cfg.Privileged.SudoPath)
	assert.Equal(t, 5000, cfg.Privileged.MaxLines)
	assert.Equal(t, 500*time.Millisecond, cfg.Shell.GracePeriod)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, "sudo", cfg.Privileged.SudoPath)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("RTOP_INTERVAL", "3s")
	t.Setenv("RTOP_PRIVILEGED_SUDO_PATH", "/usr/local/bin/sudo")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, "/usr/local/bin/sudo", cfg.Privileged.SudoPath)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("interval: [unclosed"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("bad duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dur.yaml")
		require.NoError(t, os.WriteFile(path, []byte("interval: soon\n"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})
}

func TestFind(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "mine.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

		found, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		isolate(t)
		_, err := Find(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("env var", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))
		t.Setenv(ConfigEnv, path)

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("xdg config home", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, "xdg", ConfigDirName, ConfigFileName)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("home fallback", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, ".config", ConfigDirName, ConfigFileName)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

		found, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, path, found)
	})

	t.Run("nothing found", func(t *testing.T) {
		isolate(t)
		found, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestWriteAndReload(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Interval = 5 * time.Second
	cfg.Shell.Path = "/bin/bash"
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, loaded.Interval)
	assert.Equal(t, "/bin/bash", loaded.Shell.Path)
	assert.Equal(t, cfg.Shell.PollInterval, loaded.Shell.PollInterval)
}

func TestMarshal_UsesReadableDurations(t *testing.T) {
	data, err := Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "interval: 1s")
	assert.Contains(t, string(data), "poll_interval: 30ms")
	assert.Contains(t, string(data), "sudo_path: sudo")
}

func TestExpand(t *testing.T) {
	home := isolate(t)
	t.Setenv("USER", "alice")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/var/log", "/var/log"},
		{"~", home},
		{"~/state/rtop.log", filepath.Join(home, "state", "rtop.log")},
		{"${HOME}/x", home + "/x"},
		{"/tmp/${USER}.log", "/tmp/alice.log"},
		{"~bob/x", "~bob/x"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.in))
		})
	}
}
