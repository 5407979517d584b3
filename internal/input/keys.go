package input

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// Key bindings as constants for consistency.
const (
	KeyQuit      = "q"
	KeyQuitAlt   = "ctrl+c"
	KeyHelp      = "f1"
	KeyHelpAlt   = "?"
	KeyRefresh   = "r"
	KeyCycleSort = "s"
	KeyOpen      = "enter"
	KeyClose     = "esc"
	KeyUp        = "up"
	KeyUpK       = "k"
	KeyDown      = "down"
	KeyDownJ     = "j"
	KeyPageUp    = "pgup"
	KeyPageDown  = "pgdown"
	KeyFirst     = "home"
	KeyLast      = "end"
)

// pageStep is how far pgup/pgdown move a table selection.
const pageStep = 10

// shellSequences are the xterm encodings of keys without a single-byte form.
var shellSequences = map[tea.KeyType]string{
	tea.KeyUp:       "\x1b[A",
	tea.KeyDown:     "\x1b[B",
	tea.KeyRight:    "\x1b[C",
	tea.KeyLeft:     "\x1b[D",
	tea.KeyHome:     "\x1b[H",
	tea.KeyEnd:      "\x1b[F",
	tea.KeyPgUp:     "\x1b[5~",
	tea.KeyPgDown:   "\x1b[6~",
	tea.KeyDelete:   "\x1b[3~",
	tea.KeyInsert:   "\x1b[2~",
	tea.KeyShiftTab: "\x1b[Z",

	tea.KeyCtrlUp:     "\x1b[1;5A",
	tea.KeyCtrlDown:   "\x1b[1;5B",
	tea.KeyCtrlRight:  "\x1b[1;5C",
	tea.KeyCtrlLeft:   "\x1b[1;5D",
	tea.KeyShiftUp:    "\x1b[1;2A",
	tea.KeyShiftDown:  "\x1b[1;2B",
	tea.KeyShiftRight: "\x1b[1;2C",
	tea.KeyShiftLeft:  "\x1b[1;2D",
	tea.KeyCtrlPgUp:   "\x1b[5;5~",
	tea.KeyCtrlPgDown: "\x1b[6;5~",

	tea.KeyF1:  "\x1bOP",
	tea.KeyF2:  "\x1bOQ",
	tea.KeyF3:  "\x1bOR",
	tea.KeyF4:  "\x1bOS",
	tea.KeyF5:  "\x1b[15~",
	tea.KeyF6:  "\x1b[17~",
	tea.KeyF7:  "\x1b[18~",
	tea.KeyF8:  "\x1b[19~",
	tea.KeyF9:  "\x1b[20~",
	tea.KeyF10: "\x1b[21~",
	tea.KeyF11: "\x1b[23~",
	tea.KeyF12: "\x1b[24~",
}

// EncodeKey returns the bytes a terminal would send for k. Keys with no
// terminal encoding return nil.
func EncodeKey(k tea.KeyMsg) []byte {
	var out []byte

	switch {
	case k.Type == tea.KeyRunes:
		out = []byte(string(k.Runes))
	case k.Type == tea.KeySpace:
		out = []byte{' '}
	case k.Type == tea.KeyEnter:
		out = []byte{'\n'}
	case k.Type == tea.KeyBackspace:
		out = []byte{0x7f}
	case k.Type >= 0 && k.Type < 0x20:
		// Tab, escape and every ctrl+<x> are their C0 byte.
		out = []byte{byte(k.Type)}
	default:
		seq, ok := shellSequences[k.Type]
		if !ok {
			return nil
		}
		out = []byte(seq)
	}

	if k.Alt && !k.Paste {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

// isText reports whether k types characters: runes, space or a paste.
func isText(k tea.KeyMsg) bool {
	return k.Type == tea.KeyRunes || k.Type == tea.KeySpace
}

// textBytes returns the UTF-8 bytes and character count typed by k.
func textBytes(k tea.KeyMsg) ([]byte, int) {
	if k.Type == tea.KeySpace {
		return []byte{' '}, 1
	}
	b := []byte(string(k.Runes))
	return b, utf8.RuneCount(b)
}
