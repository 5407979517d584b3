package logs

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// FindArgs is the argv that lists dir in the format ParseListing reads.
// It is what runs under sudo when a directory is restricted.
func FindArgs(dir string) []string {
	return []string{"find", dir, "-xdev", "-type", "f", "-printf", `%P\t%s\t%T@\n`}
}

// ParseListing reads find -printf '%P\t%s\t%T@' output for dir.
// Malformed lines are skipped.
func ParseListing(dir, content string) []Entry {
	var out []Entry
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 3 || fields[0] == "" {
			continue
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    fields[0],
			Path:    filepath.Join(dir, fields[0]),
			Size:    size,
			ModTime: parseEpoch(fields[2]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func parseEpoch(s string) time.Time {
	secStr, fracStr, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		fracStr += strings.Repeat("0", 9-len(fracStr))
		nsec, _ = strconv.ParseInt(fracStr, 10, 64)
	}
	return time.Unix(sec, nsec)
}

// FormatEntries renders entries as aligned "name  size  age" rows, with the
// name column truncated to nameWidth cells.
func FormatEntries(entries []Entry, nameWidth int, now time.Time) []string {
	if nameWidth < 8 {
		nameWidth = 8
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name
		if e.Restricted {
			name += " (restricted)"
		}
		name = runewidth.Truncate(name, nameWidth, "…")
		name = runewidth.FillRight(name, nameWidth)
		lines = append(lines, fmt.Sprintf("%s  %10s  %s", name, e.HumanSize(), e.Age(now)))
	}
	return lines
}
