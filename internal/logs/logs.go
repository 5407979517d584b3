// Package logs enumerates plain log files under /var/log and systemd journal
// files, and renders file listings for the log and journal tabs.
package logs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Entry is one row of a listing.
type Entry struct {
	// Name is the path relative to the listed root.
	Name    string
	Path    string
	Size    int64
	ModTime time.Time

	// Restricted marks a directory rtop could not read. Opening it goes
	// through the privileged listing path.
	Restricted bool
}

// HumanSize renders Size in IEC units.
func (e Entry) HumanSize() string {
	if e.Restricted {
		return "-"
	}
	return humanize.IBytes(uint64(e.Size))
}

// Age renders the modification time relative to now.
func (e Entry) Age(now time.Time) string {
	if e.ModTime.IsZero() {
		return "-"
	}
	return humanize.RelTime(e.ModTime, now, "ago", "from now")
}

// ListLogs walks root and returns its regular files sorted by name.
// The journal/ subdirectory is skipped, directory symlinks are not followed
// and file symlinks are listed with their target's size. Subdirectories that
// cannot be read come back as Restricted entries. An unreadable root is an
// error wrapping fs.ErrPermission.
func ListLogs(root string) ([]Entry, error) {
	journal := filepath.Join(root, "journal")
	return walk(root, func(path string) bool {
		return path == journal
	}, nil)
}

// ListJournal returns the *.journal files under root. A missing root yields
// an empty list.
func ListJournal(root string) ([]Entry, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return walk(root, nil, func(name string) bool {
		return strings.HasSuffix(name, ".journal") || strings.HasSuffix(name, ".journal~")
	})
}

// Walk lists every regular file under dir, with the same rules as ListLogs
// but without skipping anything.
func Walk(dir string) ([]Entry, error) {
	return walk(dir, nil, nil)
}

func walk(root string, skipDir func(string) bool, keep func(string) bool) ([]Entry, error) {
	var out []Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				out = append(out, Entry{Name: relName(root, path) + "/", Path: path, Restricted: true})
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && skipDir != nil && skipDir(path) {
				return fs.SkipDir
			}
			return nil
		}

		if keep != nil && !keep(d.Name()) {
			return nil
		}

		var info fs.FileInfo
		switch {
		case d.Type().IsRegular():
			info, err = d.Info()
		case d.Type()&fs.ModeSymlink != 0:
			// Follow file symlinks only.
			info, err = os.Stat(path)
			if err == nil && !info.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}
		if err != nil {
			return nil
		}

		out = append(out, Entry{
			Name:    relName(root, path),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func relName(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return filepath.Base(path)
}
