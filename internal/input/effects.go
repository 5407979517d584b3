package input

import "github.com/rileyhilliard/rtop/internal/privileged"

// Effect is an action Route asks the event loop to perform. Effects are
// applied in the order returned.
type Effect interface {
	isEffect()
}

// ForwardToShell writes Bytes to the shell's terminal.
type ForwardToShell struct{ Bytes []byte }

// AppendPassword adds Bytes to the password buffer.
type AppendPassword struct{ Bytes []byte }

// BackspacePassword drops the last password character.
type BackspacePassword struct{}

// ClearPassword zeroes the password buffer.
type ClearPassword struct{}

// OpenPopup shows a popup of Kind.
type OpenPopup struct{ Kind PopupKind }

// ClosePopup hides the popup and drops its content.
type ClosePopup struct{}

// ChangeTab switches the visible tab.
type ChangeTab struct{ Tab Tab }

// EnterShell starts a shell session unless a live one exists.
type EnterShell struct{}

// LeaveShell means the shell tab lost focus. The session keeps running.
type LeaveShell struct{}

// ResizeShell resizes the shell's terminal.
type ResizeShell struct{ Rows, Cols int }

// RequestPrivilegedRead runs the escalated read of Target with the
// buffered password.
type RequestPrivilegedRead struct{ Target privileged.Target }

// OpenDetails loads the detail view for the selected row of Tab.
type OpenDetails struct{ Tab Tab }

// MoveSelection moves the table cursor by Delta rows, or to either end.
type MoveSelection struct {
	Delta   int
	ToStart bool
	ToEnd   bool
}

// Refresh collects metrics and reloads lists now.
type Refresh struct{}

// CycleSort switches the process sort column.
type CycleSort struct{}

// Notice shows Text on the status line.
type Notice struct{ Text string }

// Quit exits rtop.
type Quit struct{}

func (ForwardToShell) isEffect()        {}
func (AppendPassword) isEffect()        {}
func (BackspacePassword) isEffect()     {}
func (ClearPassword) isEffect()         {}
func (OpenPopup) isEffect()             {}
func (ClosePopup) isEffect()            {}
func (ChangeTab) isEffect()             {}
func (EnterShell) isEffect()            {}
func (LeaveShell) isEffect()            {}
func (ResizeShell) isEffect()           {}
func (RequestPrivilegedRead) isEffect() {}
func (OpenDetails) isEffect()           {}
func (MoveSelection) isEffect()         {}
func (Refresh) isEffect()               {}
func (CycleSort) isEffect()             {}
func (Notice) isEffect()                {}
func (Quit) isEffect()                  {}
