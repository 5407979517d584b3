package shell

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// DefaultScrollbackBytes caps the raw output kept for the shell tab.
const DefaultScrollbackBytes = 512 * 1024

const tabWidth = 8

// Transcript accumulates raw shell output and renders its tail as plain
// text lines. It does not emulate a terminal: escape sequences are
// stripped, carriage returns rewrite the current line and backspaces move
// left by one cell. Full-screen programs will not render faithfully.
type Transcript struct {
	max  int
	data []byte

	version  uint64
	cacheKey [3]uint64
	cache    []string
}

// NewTranscript creates a transcript holding at most maxBytes of output.
// When the cap is exceeded the oldest half is dropped.
func NewTranscript(maxBytes int) *Transcript {
	if maxBytes <= 0 {
		maxBytes = DefaultScrollbackBytes
	}
	return &Transcript{max: maxBytes}
}

// Append adds output chunks in order.
func (t *Transcript) Append(chunks ...[]byte) {
	for _, c := range chunks {
		if len(c) == 0 {
			continue
		}
		t.data = append(t.data, c...)
		t.version++
	}
	if len(t.data) > t.max {
		t.trim()
	}
}

// AppendString adds a line of rtop's own text, such as an exit notice.
func (t *Transcript) AppendString(s string) {
	t.Append([]byte(s))
}

func (t *Transcript) trim() {
	keep := t.max / 2
	cut := len(t.data) - keep
	// Start on a line boundary so a half-dropped escape sequence doesn't leak.
	if i := bytes.IndexByte(t.data[cut:], '\n'); i >= 0 && i < keep {
		cut += i + 1
	}
	t.data = append(t.data[:0], t.data[cut:]...)
	t.version++
}

// Reset discards everything, for a new session.
func (t *Transcript) Reset() {
	t.data = t.data[:0]
	t.version++
}

// Len is the number of raw bytes retained.
func (t *Transcript) Len() int {
	return len(t.data)
}

// Lines renders the last height visual lines at the given width.
func (t *Transcript) Lines(width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}

	key := [3]uint64{t.version, uint64(width), uint64(height)}
	if t.cache != nil && key == t.cacheKey {
		return t.cache
	}

	// Each raw line yields at least one visual line, so the last height raw
	// lines are enough to fill the view.
	start := len(t.data)
	for n := 0; n < height && start > 0; n++ {
		i := bytes.LastIndexByte(t.data[:start-1], '\n')
		if i < 0 {
			start = 0
			break
		}
		start = i + 1
	}

	var out []string
	for _, line := range renderLines(string(t.data[start:])) {
		wrapped := ansi.Hardwrap(line, width, true)
		out = append(out, strings.Split(wrapped, "\n")...)
	}
	if len(out) > height {
		out = out[len(out)-height:]
	}

	t.cacheKey = key
	t.cache = out
	return out
}

// renderLines strips escape sequences and applies the line-local control
// characters of raw terminal output.
func renderLines(raw string) []string {
	text := ansi.Strip(raw)

	var lines []string
	var cur []rune
	col := 0

	put := func(r rune) {
		if col < len(cur) {
			cur[col] = r
		} else {
			for len(cur) < col {
				cur = append(cur, ' ')
			}
			cur = append(cur, r)
		}
		col++
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\n':
			lines = append(lines, string(cur))
			cur = cur[:0]
			col = 0
		case '\r':
			// A lone CR starts the line over, as line editors do when redrawing.
			if i+1 < len(runes) && runes[i+1] != '\n' && runes[i+1] != '\r' {
				cur = cur[:0]
			}
			col = 0
		case '\b':
			if col > 0 {
				col--
			}
		case '\t':
			next := (col/tabWidth + 1) * tabWidth
			for col < next {
				put(' ')
			}
		default:
			if r < 0x20 || r == 0x7f {
				continue
			}
			put(r)
		}
	}
	return append(lines, string(cur))
}
