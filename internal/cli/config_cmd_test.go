package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/rtop/internal/config"
)

// withConfigFile points --config at path for the duration of the test.
func withConfigFile(t *testing.T, path string) {
	t.Helper()
	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })
}

// isolateConfig makes sure no real config on the machine is found.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv(config.ConfigEnv, "")
	withConfigFile(t, "")
	return dir
}

func TestConfigInit(t *testing.T) {
	never := func(string) (bool, error) {
		t.Fatal("confirm should not be called")
		return false, nil
	}
	yes := func(string) (bool, error) { return true, nil }
	no := func(string) (bool, error) { return false, nil }

	tests := []struct {
		name     string
		existing string
		force    bool
		confirm  confirmFunc
		wantOut  string
		wantKept bool
	}{
		{name: "new file", confirm: never, wantOut: "Wrote "},
		{name: "overwrite confirmed", existing: "interval: 5s\n", confirm: yes, wantOut: "Wrote "},
		{name: "overwrite declined", existing: "interval: 5s\n", confirm: no, wantOut: "Cancelled.", wantKept: true},
		{name: "force skips the prompt", existing: "interval: 5s\n", force: true, confirm: never, wantOut: "Wrote "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rtop", "config.yaml")
			if tt.existing != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0o644))
			}

			var out bytes.Buffer
			require.NoError(t, configInit(&out, path, tt.force, tt.confirm))
			assert.Contains(t, out.String(), tt.wantOut)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if tt.wantKept {
				assert.Equal(t, tt.existing, string(data))
				return
			}

			cfg, err := config.Load(path)
			require.NoError(t, err)
			assert.Equal(t, config.DefaultConfig().Interval, cfg.Interval)
		})
	}
}

func TestConfigShow(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 3s\nprivileged:\n  max_attempts: 4\n"), 0o644))
	withConfigFile(t, path)

	var out bytes.Buffer
	require.NoError(t, configShow(&out))

	cfg, err := config.Load(writeTemp(t, out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.Equal(t, 4, cfg.Privileged.MaxAttempts)
	assert.Equal(t, "sudo", cfg.Privileged.SudoPath, "unset keys show their defaults")
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interval: 1ms\n"), 0o644))
	withConfigFile(t, path)

	var out bytes.Buffer
	err := configShow(&out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too fast")
	assert.Empty(t, out.String())
}

func TestConfigPath(t *testing.T) {
	dir := isolateConfig(t)
	want := filepath.Join(dir, "rtop", "config.yaml")

	var out bytes.Buffer
	require.NoError(t, configPath(&out))
	assert.Equal(t, want+" (not created yet, using defaults)\n", out.String())

	require.NoError(t, config.Write(want, config.DefaultConfig()))
	out.Reset()
	require.NoError(t, configPath(&out))
	assert.Equal(t, want+"\n", out.String())
}

func TestConfigPath_MissingExplicitFile(t *testing.T) {
	dir := isolateConfig(t)
	withConfigFile(t, filepath.Join(dir, "nope.yaml"))

	var out bytes.Buffer
	err := configPath(&out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shown.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
