package privileged

import (
	"path/filepath"
	"strconv"

	"github.com/rileyhilliard/rtop/internal/logs"
)

// Kind says how a target is read.
type Kind int

const (
	// KindReadFile reads one file. Escalated, it runs cat.
	KindReadFile Kind = iota
	// KindRunCommand runs a command and shows its output.
	KindRunCommand
	// KindListDirectory lists the files under a directory.
	KindListDirectory
)

func (k Kind) String() string {
	switch k {
	case KindRunCommand:
		return "command"
	case KindListDirectory:
		return "listing"
	default:
		return "file"
	}
}

// Target is something the user asked to read.
type Target struct {
	Kind Kind

	// Path is the file or directory for KindReadFile and KindListDirectory.
	Path string

	// Argv is the command for KindRunCommand.
	Argv []string

	// Label is what the prompt and popup title show.
	Label string
}

// FileTarget reads path.
func FileTarget(path string) Target {
	return Target{Kind: KindReadFile, Path: path, Label: path}
}

// CommandTarget runs argv and shows its output under label.
func CommandTarget(label string, argv ...string) Target {
	return Target{Kind: KindRunCommand, Argv: argv, Label: label}
}

// ListingTarget lists the files under dir.
func ListingTarget(dir string) Target {
	return Target{Kind: KindListDirectory, Path: dir, Label: dir + string(filepath.Separator)}
}

// JournalTarget reads the newest maxLines entries of a journal file.
func JournalTarget(path string, maxLines int) Target {
	return CommandTarget(path,
		"journalctl", "--file", path,
		"-n", strconv.Itoa(maxLines),
		"-o", "short-iso",
		"--no-pager")
}

// Command is the argv that reads the target when run under sudo.
func (t Target) Command() []string {
	switch t.Kind {
	case KindReadFile:
		return []string{"cat", "--", t.Path}
	case KindListDirectory:
		return logs.FindArgs(t.Path)
	default:
		return append([]string(nil), t.Argv...)
	}
}

// Equal reports whether two targets read the same thing.
func (t Target) Equal(o Target) bool {
	if t.Kind != o.Kind || t.Path != o.Path || len(t.Argv) != len(o.Argv) {
		return false
	}
	for i := range t.Argv {
		if t.Argv[i] != o.Argv[i] {
			return false
		}
	}
	return true
}
