package input

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/rtop/internal/privileged"
)

// Event is anything Route reacts to.
type Event interface {
	isEvent()
}

// KeyEvent is a key press, or a paste when Key.Paste is set.
type KeyEvent struct {
	Key tea.KeyMsg
}

// ResizeEvent carries the new terminal size.
type ResizeEvent struct {
	Width  int
	Height int
}

// ContentReadyEvent means popup content has been loaded.
type ContentReadyEvent struct {
	Popup PopupKind
	Lines int
}

// PermissionDeniedEvent means the unprivileged read of Target was refused.
// Popup is what to show once the escalated read succeeds.
type PermissionDeniedEvent struct {
	Target privileged.Target
	Popup  PopupKind
}

// PrivilegedResultEvent is the outcome of an escalation. Lines is the
// content length on success. A zero Popup keeps the one the prompt was
// opened for.
type PrivilegedResultEvent struct {
	Outcome privileged.Outcome
	Popup   PopupKind
	Lines   int
}

func (KeyEvent) isEvent()              {}
func (ResizeEvent) isEvent()           {}
func (ContentReadyEvent) isEvent()     {}
func (PermissionDeniedEvent) isEvent() {}
func (PrivilegedResultEvent) isEvent() {}
