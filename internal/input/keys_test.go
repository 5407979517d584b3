package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func paste(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Paste: true}
}

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want string
	}{
		{name: "letter", key: runes("a"), want: "a"},
		{name: "multibyte rune", key: runes("é"), want: "é"},
		{name: "space", key: key(tea.KeySpace), want: " "},
		{name: "enter", key: key(tea.KeyEnter), want: "\n"},
		{name: "tab", key: key(tea.KeyTab), want: "\t"},
		{name: "backspace", key: key(tea.KeyBackspace), want: "\x7f"},
		{name: "escape", key: key(tea.KeyEsc), want: "\x1b"},
		{name: "ctrl+a", key: key(tea.KeyCtrlA), want: "\x01"},
		{name: "ctrl+c", key: key(tea.KeyCtrlC), want: "\x03"},
		{name: "ctrl+d", key: key(tea.KeyCtrlD), want: "\x04"},
		{name: "ctrl+z", key: key(tea.KeyCtrlZ), want: "\x1a"},
		{name: "ctrl+backslash", key: key(tea.KeyCtrlBackslash), want: "\x1c"},
		{name: "up", key: key(tea.KeyUp), want: "\x1b[A"},
		{name: "down", key: key(tea.KeyDown), want: "\x1b[B"},
		{name: "right", key: key(tea.KeyRight), want: "\x1b[C"},
		{name: "left", key: key(tea.KeyLeft), want: "\x1b[D"},
		{name: "home", key: key(tea.KeyHome), want: "\x1b[H"},
		{name: "end", key: key(tea.KeyEnd), want: "\x1b[F"},
		{name: "pgup", key: key(tea.KeyPgUp), want: "\x1b[5~"},
		{name: "pgdown", key: key(tea.KeyPgDown), want: "\x1b[6~"},
		{name: "delete", key: key(tea.KeyDelete), want: "\x1b[3~"},
		{name: "insert", key: key(tea.KeyInsert), want: "\x1b[2~"},
		{name: "shift+tab", key: key(tea.KeyShiftTab), want: "\x1b[Z"},
		{name: "f7", key: key(tea.KeyF7), want: "\x1b[18~"},
		{name: "f11", key: key(tea.KeyF11), want: "\x1b[23~"},
		{name: "alt+b", key: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b"), Alt: true}, want: "\x1bb"},
		{name: "alt+enter", key: tea.KeyMsg{Type: tea.KeyEnter, Alt: true}, want: "\x1b\n"},
		{name: "paste keeps text verbatim", key: paste("ls -la | grep q\n"), want: "ls -la | grep q\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(EncodeKey(tt.key)))
		})
	}
}

func TestEncodeKey_Unknown(t *testing.T) {
	assert.Nil(t, EncodeKey(key(tea.KeyF20)))
}

func TestTabs(t *testing.T) {
	assert.Equal(t, TabProcesses, TabDashboard.Next())
	assert.Equal(t, TabDashboard, TabShell.Next())
	assert.Equal(t, TabShell, TabDashboard.Prev())
	assert.Equal(t, "Journal", TabJournal.String())
	assert.Equal(t, "f12", TabShell.Key())
	assert.Equal(t, "f4", TabServices.Key())

	assert.False(t, TabDashboard.HasTable())
	assert.False(t, TabShell.HasTable())
	assert.True(t, TabLogs.HasTable())

	assert.Equal(t, PopupProcess, TabProcesses.DetailPopup())
	assert.Equal(t, PopupNone, TabShell.DetailPopup())
}
