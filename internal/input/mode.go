package input

import "github.com/rileyhilliard/rtop/internal/privileged"

// Kind says who owns the keyboard.
type Kind int

const (
	// KindNavigation routes keys to rtop's own shortcuts.
	KindNavigation Kind = iota
	// KindShellFocus forwards every non-command key to the shell.
	KindShellFocus
	// KindPopupOpen routes keys to the open popup.
	KindPopupOpen
	// KindPasswordPrompt captures keys into the password buffer.
	KindPasswordPrompt
)

func (k Kind) String() string {
	switch k {
	case KindShellFocus:
		return "shell"
	case KindPopupOpen:
		return "popup"
	case KindPasswordPrompt:
		return "password"
	default:
		return "navigation"
	}
}

// PopupKind says what a popup shows.
type PopupKind int

const (
	PopupNone PopupKind = iota
	PopupProcess
	PopupService
	PopupLog
	PopupJournal
	PopupListing
	PopupHelp
)

func (p PopupKind) String() string {
	switch p {
	case PopupProcess:
		return "process"
	case PopupService:
		return "service"
	case PopupLog:
		return "log"
	case PopupJournal:
		return "journal"
	case PopupListing:
		return "listing"
	case PopupHelp:
		return "help"
	default:
		return "none"
	}
}

// Mode is the router state. It is a plain value: Route takes one and
// returns the next, and nothing else holds routing state.
type Mode struct {
	Kind Kind
	Tab  Tab

	// Terminal size from the last resize.
	Width  int
	Height int

	// Popup is the open popup for KindPopupOpen, and the popup to open on
	// success for KindPasswordPrompt.
	Popup PopupKind

	// Scroll is the first visible popup line, clamped to [0, Lines-PageSize].
	Scroll   int
	Lines    int
	PageSize int

	// Password prompt state. Typed counts characters for the empty check
	// and is never turned back into text.
	Target      privileged.Target
	Attempt     int
	MaxAttempts int
	Typed       int
	Pending     bool
}

// NewMode returns the startup mode: navigation on the dashboard.
func NewMode(maxAttempts int) Mode {
	if maxAttempts <= 0 {
		maxAttempts = privileged.DefaultMaxAttempts
	}
	return Mode{Kind: KindNavigation, Tab: TabDashboard, MaxAttempts: maxAttempts}
}

// base is the mode a popup or prompt returns to.
func (m Mode) base() Mode {
	m.Popup = PopupNone
	m.Scroll, m.Lines = 0, 0
	m.Target = privileged.Target{}
	m.Attempt, m.Typed = 0, 0
	m.Pending = false
	if m.Tab == TabShell {
		m.Kind = KindShellFocus
	} else {
		m.Kind = KindNavigation
	}
	return m
}

// MaxScroll is the largest valid popup scroll offset.
func (m Mode) MaxScroll() int {
	if n := m.Lines - m.PageSize; n > 0 {
		return n
	}
	return 0
}

func (m Mode) clampScroll() Mode {
	if m.Scroll > m.MaxScroll() {
		m.Scroll = m.MaxScroll()
	}
	if m.Scroll < 0 {
		m.Scroll = 0
	}
	return m
}

// Layout sizes, shared with the views so the shell and popups render
// exactly what the router sized them to.
const (
	// ShellChromeRows is the tab bar, the status line and the footer.
	ShellChromeRows = 3
	// ShellChromeCols is the left and right border of the shell pane.
	ShellChromeCols = 2
	// popupChromeRows is the outer margin, the border and the title/footer rows.
	popupChromeRows = 8
)

// ShellSize is the PTY size for a terminal of width by height cells.
func ShellSize(width, height int) (rows, cols int) {
	return max(1, height-ShellChromeRows), max(1, width-ShellChromeCols)
}

// PopupPageSize is the number of content lines a popup shows.
func PopupPageSize(height int) int {
	return max(1, height-popupChromeRows)
}
