package logs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestListLogs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "syslog"), "hello\n")
	writeFile(t, filepath.Join(root, "apt", "history.log"), "installed\n")
	writeFile(t, filepath.Join(root, "journal", "abc", "system.journal"), "binary")
	require.NoError(t, os.Symlink(filepath.Join(root, "syslog"), filepath.Join(root, "current")))
	require.NoError(t, os.Symlink(filepath.Join(root, "apt"), filepath.Join(root, "apt-link")))

	entries, err := ListLogs(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"apt/history.log", "current", "syslog"}, names(entries))
	for _, e := range entries {
		assert.False(t, e.Restricted)
	}
	assert.Equal(t, int64(len("hello\n")), entries[1].Size, "file symlinks report the target size")
	assert.Equal(t, filepath.Join(root, "syslog"), entries[2].Path)
}

func TestListLogs_RestrictedDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read every directory")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "open.log"), "x")
	writeFile(t, filepath.Join(root, "private", "secret.log"), "y")
	require.NoError(t, os.Chmod(filepath.Join(root, "private"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "private"), 0o755) })

	entries, err := ListLogs(root)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "open.log", entries[0].Name)
	assert.Equal(t, "private/", entries[1].Name)
	assert.True(t, entries[1].Restricted)
	assert.Equal(t, filepath.Join(root, "private"), entries[1].Path)
}

func TestListLogs_UnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read every directory")
	}
	root := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.Mkdir(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	_, err := ListLogs(root)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestListJournal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "m1", "system.journal"), "a")
	writeFile(t, filepath.Join(root, "m1", "user-1000@x.journal~"), "b")
	writeFile(t, filepath.Join(root, "m1", "notes.txt"), "c")

	entries, err := ListJournal(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1/system.journal", "m1/user-1000@x.journal~"}, names(entries))
}

func TestListJournal_MissingRoot(t *testing.T) {
	entries, err := ListJournal(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryFormatting(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entry    Entry
		wantSize string
		wantAge  string
	}{
		{
			name:     "regular file",
			entry:    Entry{Size: 2048, ModTime: now.Add(-2 * time.Hour)},
			wantSize: "2.0 KiB",
			wantAge:  "2 hours ago",
		},
		{
			name:     "restricted directory",
			entry:    Entry{Restricted: true},
			wantSize: "-",
			wantAge:  "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSize, tt.entry.HumanSize())
			assert.Equal(t, tt.wantAge, tt.entry.Age(now))
		})
	}
}
