// Package input decides who owns every key press. Route is a pure function
// from the current Mode and an Event to the next Mode and a list of
// Effects; the event loop performs the effects. Letter shortcuts only exist
// outside the shell, so anything typed into the shell reaches it unchanged.
package input

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/rtop/internal/privileged"
)

// Notices produced by the password prompt.
const (
	NoticeEmptyPassword = "Password cannot be empty"
	NoticeCancelled     = "Cancelled"
	NoticeTryAgain      = "Sorry, try again."
)

// Route computes the next mode and the effects of ev.
func Route(m Mode, ev Event) (Mode, []Effect) {
	switch ev := ev.(type) {
	case KeyEvent:
		return routeKey(m, ev.Key)
	case ResizeEvent:
		return routeResize(m, ev)
	case ContentReadyEvent:
		return routeContentReady(m, ev)
	case PermissionDeniedEvent:
		return routePermissionDenied(m, ev)
	case PrivilegedResultEvent:
		return routePrivilegedResult(m, ev)
	}
	return m, nil
}

func routeKey(m Mode, k tea.KeyMsg) (Mode, []Effect) {
	// F10 quits from anywhere, including the shell.
	if k.Type == tea.KeyF10 {
		if m.Kind == KindPasswordPrompt {
			return m.base(), []Effect{ClearPassword{}, Quit{}}
		}
		return m, []Effect{Quit{}}
	}

	switch m.Kind {
	case KindShellFocus:
		return routeShellKey(m, k)
	case KindPopupOpen:
		return routePopupKey(m, k)
	case KindPasswordPrompt:
		return routePasswordKey(m, k)
	default:
		return routeNavigationKey(m, k)
	}
}

func routeNavigationKey(m Mode, k tea.KeyMsg) (Mode, []Effect) {
	key := k.String()

	if k.Paste {
		return m, nil
	}

	if tab, ok := tabKeys[key]; ok {
		return switchTab(m, tab)
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		return m, []Effect{Quit{}}
	case KeyHelp, KeyHelpAlt:
		return openHelp(m)
	case "left", "h", "H", "shift+tab":
		return switchTab(m, m.Tab.Prev())
	case "right", "l", "L", "tab":
		return switchTab(m, m.Tab.Next())
	case "1", "2", "3", "4", "5", "6":
		return switchTab(m, Tabs[int(key[0]-'1')])
	case KeyRefresh:
		return m, []Effect{Refresh{}}
	case KeyCycleSort:
		if m.Tab == TabProcesses {
			return m, []Effect{CycleSort{}}
		}
		return m, nil
	}

	if !m.Tab.HasTable() {
		return m, nil
	}

	switch key {
	case KeyUp, KeyUpK:
		return m, []Effect{MoveSelection{Delta: -1}}
	case KeyDown, KeyDownJ:
		return m, []Effect{MoveSelection{Delta: 1}}
	case KeyPageUp:
		return m, []Effect{MoveSelection{Delta: -pageStep}}
	case KeyPageDown:
		return m, []Effect{MoveSelection{Delta: pageStep}}
	case KeyFirst:
		return m, []Effect{MoveSelection{ToStart: true}}
	case KeyLast:
		return m, []Effect{MoveSelection{ToEnd: true}}
	case KeyOpen:
		return m, []Effect{OpenDetails{Tab: m.Tab}}
	}
	return m, nil
}

func switchTab(m Mode, tab Tab) (Mode, []Effect) {
	wasShell := m.Kind == KindShellFocus
	m.Tab = tab

	if tab == TabShell {
		m.Kind = KindShellFocus
		if wasShell {
			return m, []Effect{EnterShell{}}
		}
		return m, []Effect{ChangeTab{Tab: tab}, EnterShell{}}
	}

	m.Kind = KindNavigation
	if wasShell {
		return m, []Effect{LeaveShell{}, ChangeTab{Tab: tab}}
	}
	return m, []Effect{ChangeTab{Tab: tab}}
}

func openHelp(m Mode) (Mode, []Effect) {
	m.Kind = KindPopupOpen
	m.Popup = PopupHelp
	m.Scroll, m.Lines = 0, 0
	m.PageSize = PopupPageSize(m.Height)
	return m, []Effect{OpenPopup{Kind: PopupHelp}}
}

// routeShellKey forwards everything except the fixed command keys.
func routeShellKey(m Mode, k tea.KeyMsg) (Mode, []Effect) {
	if !k.Paste && !k.Alt {
		switch k.Type {
		case tea.KeyF1:
			return openHelp(m)
		case tea.KeyF2, tea.KeyF3, tea.KeyF4, tea.KeyF5, tea.KeyF6, tea.KeyF12:
			return switchTab(m, tabKeys[k.String()])
		}
	}

	b := EncodeKey(k)
	if len(b) == 0 {
		return m, nil
	}
	return m, []Effect{ForwardToShell{Bytes: b}}
}

func routePopupKey(m Mode, k tea.KeyMsg) (Mode, []Effect) {
	key := k.String()

	switch key {
	case KeyQuitAlt:
		m = m.base()
		m.Kind = KindNavigation
		return m, []Effect{Quit{}}
	case KeyClose, KeyOpen, KeyQuit:
		return m.base(), []Effect{ClosePopup{}}
	case KeyHelp, KeyHelpAlt:
		if m.Popup == PopupHelp {
			return m.base(), []Effect{ClosePopup{}}
		}
	case KeyUp, KeyUpK:
		m.Scroll--
	case KeyDown, KeyDownJ:
		m.Scroll++
	case KeyPageUp:
		m.Scroll -= max(1, m.PageSize)
	case KeyPageDown:
		m.Scroll += max(1, m.PageSize)
	case KeyFirst:
		m.Scroll = 0
	case KeyLast:
		m.Scroll = m.MaxScroll()
	}
	return m.clampScroll(), nil
}

func routePasswordKey(m Mode, k tea.KeyMsg) (Mode, []Effect) {
	if m.Pending {
		return m, nil
	}

	if isText(k) {
		b, n := textBytes(k)
		if n == 0 {
			return m, nil
		}
		m.Typed += n
		return m, []Effect{AppendPassword{Bytes: b}}
	}

	switch k.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		if m.Typed == 0 {
			return m, nil
		}
		m.Typed--
		return m, []Effect{BackspacePassword{}}
	case tea.KeyCtrlU:
		m.Typed = 0
		return m, []Effect{ClearPassword{}}
	case tea.KeyEnter:
		if m.Typed == 0 {
			return m, []Effect{Notice{Text: NoticeEmptyPassword}}
		}
		m.Pending = true
		return m, []Effect{RequestPrivilegedRead{Target: m.Target}}
	case tea.KeyEsc, tea.KeyCtrlC:
		m = m.base()
		m.Kind = KindNavigation
		return m, []Effect{ClearPassword{}, Notice{Text: NoticeCancelled}}
	}
	return m, nil
}

func routeResize(m Mode, ev ResizeEvent) (Mode, []Effect) {
	m.Width, m.Height = ev.Width, ev.Height
	m.PageSize = PopupPageSize(ev.Height)
	if m.Kind == KindPopupOpen {
		m = m.clampScroll()
	}
	rows, cols := ShellSize(ev.Width, ev.Height)
	return m, []Effect{ResizeShell{Rows: rows, Cols: cols}}
}

func routeContentReady(m Mode, ev ContentReadyEvent) (Mode, []Effect) {
	if m.Kind == KindShellFocus || m.Kind == KindPasswordPrompt {
		return m, nil
	}
	return openPopup(m, ev.Popup, ev.Lines), []Effect{OpenPopup{Kind: ev.Popup}}
}

func openPopup(m Mode, kind PopupKind, lines int) Mode {
	m = m.base()
	m.Kind = KindPopupOpen
	m.Popup = kind
	m.Lines = lines
	m.PageSize = PopupPageSize(m.Height)
	return m
}

func routePermissionDenied(m Mode, ev PermissionDeniedEvent) (Mode, []Effect) {
	if m.Kind == KindPasswordPrompt {
		return m, nil
	}

	var effects []Effect
	if m.Kind == KindPopupOpen {
		effects = append(effects, ClosePopup{})
	}

	m = m.base()
	m.Kind = KindPasswordPrompt
	m.Target = ev.Target
	m.Popup = ev.Popup
	m.Attempt = 1
	return m, effects
}

func routePrivilegedResult(m Mode, ev PrivilegedResultEvent) (Mode, []Effect) {
	if m.Kind != KindPasswordPrompt {
		return m, nil
	}

	out := ev.Outcome
	switch out.Status {
	case privileged.StatusSucceeded:
		kind := ev.Popup
		if kind == PopupNone {
			kind = m.Popup
		}
		return openPopup(m, kind, ev.Lines), []Effect{ClearPassword{}, OpenPopup{Kind: kind}}

	case privileged.StatusDenied:
		maxAttempts := m.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = privileged.DefaultMaxAttempts
		}
		if m.Attempt < maxAttempts {
			m.Attempt++
			m.Typed = 0
			m.Pending = false
			return m, []Effect{ClearPassword{}, Notice{Text: NoticeTryAgain}}
		}
		attempts := m.Attempt
		m = m.base()
		m.Kind = KindNavigation
		return m, []Effect{ClearPassword{}, Notice{Text: fmt.Sprintf("Authentication failed after %d attempts", attempts)}}

	default:
		reason := out.Reason
		if reason == "" {
			reason = "Privileged read failed"
		}
		m = m.base()
		m.Kind = KindNavigation
		return m, []Effect{ClearPassword{}, Notice{Text: reason}}
	}
}
