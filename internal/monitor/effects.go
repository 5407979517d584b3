package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/input"
	"github.com/rileyhilliard/rtop/internal/privileged"
	"github.com/rileyhilliard/rtop/internal/shell"
)

// route feeds ev to the router and applies the effects it returns, in order.
func (m *Model) route(ev input.Event) tea.Cmd {
	next, effects := input.Route(m.mode, ev)
	m.mode = next

	var cmds []tea.Cmd
	for _, e := range effects {
		if cmd := m.apply(e); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.syncViewport()

	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (m *Model) apply(e input.Effect) tea.Cmd {
	switch e := e.(type) {
	case input.ForwardToShell:
		if err := m.shell.Write(e.Bytes); err != nil && !errors.Is(err, shell.ErrNotRunning) {
			m.log.Warn("write to shell: %v", err)
		}

	case input.AppendPassword:
		m.password.Append(e.Bytes)
		clear(e.Bytes)

	case input.BackspacePassword:
		m.password.Backspace()

	case input.ClearPassword:
		m.password.Clear()

	case input.OpenPopup:
		return m.openPopup(e.Kind)

	case input.ClosePopup:
		m.popup = popupContent{}

	case input.ChangeTab:
		if e.Tab == input.TabLogs || e.Tab == input.TabJournal {
			return m.loadLogsCmd(e.Tab)
		}

	case input.EnterShell:
		started, err := m.shell.Ensure()
		if err != nil {
			m.setNotice("Couldn't start the shell: " + rterrors.OneLine(err))
			return nil
		}
		if started {
			m.log.Info("shell started: %s", m.shell.Status())
		}

	case input.LeaveShell:
		m.log.Debug("shell tab left, pid %d keeps running", m.shell.Pid())

	case input.ResizeShell:
		if err := m.shell.Resize(e.Rows, e.Cols); err != nil {
			m.log.Warn("resize shell to %dx%d: %v", e.Cols, e.Rows, err)
		}

	case input.RequestPrivilegedRead:
		return m.escalate(e.Target)

	case input.OpenDetails:
		return m.openDetails(e.Tab)

	case input.MoveSelection:
		m.moveSelection(e)

	case input.Refresh:
		cmds := []tea.Cmd{m.loadLogsCmd(input.TabLogs), m.loadLogsCmd(input.TabJournal)}
		if !m.collecting {
			m.collecting = true
			cmds = append(cmds, m.collectCmd())
		}
		return tea.Batch(cmds...)

	case input.CycleSort:
		m.sortOrder = m.sortOrder.Next()
		m.processes = sortedProcesses(m.snapshot, m.sortOrder)
		m.setNotice("Sorted by " + m.sortOrder.String())

	case input.Notice:
		m.setNotice(e.Text)

	case input.Quit:
		m.quitting = true
		m.password.Clear()
		return tea.Quit
	}
	return nil
}

// openPopup shows a popup whose content is already loaded. Help is the one
// popup the router opens before its content exists, so it is loaded here
// and reported back.
func (m *Model) openPopup(kind input.PopupKind) tea.Cmd {
	if kind == input.PopupHelp && m.popup.kind != input.PopupHelp {
		m.setPopup(kind, "Help", m.helpLines())
		return m.route(input.ContentReadyEvent{Popup: kind, Lines: len(m.popup.lines)})
	}
	return nil
}

func (m *Model) setPopup(kind input.PopupKind, title string, lines []string) {
	m.popup = popupContent{kind: kind, title: title, lines: lines}
}

// openDetails starts loading the detail view of the selected row. The read
// runs off the loop and comes back as a detailMsg.
func (m *Model) openDetails(tab input.Tab) tea.Cmd {
	sel := m.selected[tab]
	if sel >= m.rowCount(tab) {
		return nil
	}
	kind := tab.DetailPopup()
	collector, broker := m.collector, m.broker

	var (
		title string
		read  func(ctx context.Context) privileged.Outcome
	)
	switch tab {
	case input.TabProcesses:
		pid := m.processes[sel].PID
		title = fmt.Sprintf("Process %d", pid)
		read = func(context.Context) privileged.Outcome {
			text, err := collector.ProcessDetails(pid)
			return textOutcome(title, text, err)
		}

	case input.TabServices:
		unit := m.snapshot.Services[sel].Unit
		title = unit
		read = func(ctx context.Context) privileged.Outcome {
			text, err := collector.ServiceStatus(ctx, unit)
			return textOutcome(title, text, err)
		}

	case input.TabLogs:
		entry := m.logEntries[sel]
		title = entry.Name
		if entry.Restricted {
			kind = input.PopupListing
			read = func(ctx context.Context) privileged.Outcome {
				return broker.ListDirectory(ctx, entry.Path)
			}
		} else {
			read = func(ctx context.Context) privileged.Outcome {
				return broker.ReadFile(ctx, entry.Path)
			}
		}

	case input.TabJournal:
		entry := m.journalEntries[sel]
		title = entry.Name
		target := privileged.JournalTarget(entry.Path, broker.MaxLines())
		read = func(ctx context.Context) privileged.Outcome {
			return broker.Attempt(ctx, target)
		}

	default:
		return nil
	}

	m.log.Debug("loading %s details: %s", tab, title)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()
		return detailMsg{kind: kind, title: title, outcome: read(ctx)}
	}
}

// textOutcome wraps a plain read that never needs a password.
func textOutcome(title, text string, err error) privileged.Outcome {
	t := privileged.Target{Label: title}
	if err != nil {
		return privileged.Failed(t, rterrors.OneLine(err))
	}
	return privileged.Succeeded(t, text)
}

// showDetails routes a finished detail read. A result that arrives after
// the user moved into the shell or a password prompt is dropped, since
// opening it would replace what they are doing.
func (m *Model) showDetails(msg detailMsg) tea.Cmd {
	if m.mode.Kind == input.KindShellFocus || m.mode.Kind == input.KindPasswordPrompt {
		m.log.Debug("dropping details for %s, mode is %s", msg.title, m.mode.Kind)
		return nil
	}
	return m.handleOutcome(msg.outcome, msg.kind, msg.title)
}

func (m *Model) handleOutcome(out privileged.Outcome, kind input.PopupKind, title string) tea.Cmd {
	switch out.Status {
	case privileged.StatusSucceeded:
		return m.showContent(kind, title, out.Lines())
	case privileged.StatusNeedsPassword:
		m.pendingTitle = title
		m.password.Clear()
		return m.route(input.PermissionDeniedEvent{Target: out.Target, Popup: kind})
	default:
		reason := out.Reason
		if reason == "" {
			reason = "Couldn't open " + title
		}
		m.setNotice(reason)
		return nil
	}
}

func (m *Model) showContent(kind input.PopupKind, title string, lines []string) tea.Cmd {
	m.setPopup(kind, title, lines)
	return m.route(input.ContentReadyEvent{Popup: kind, Lines: len(lines)})
}

// escalate hands the typed password to a sudo read that runs off the loop,
// so the prompt can show that it is checking. The model keeps a fresh
// buffer; the broker clears the handed-off one before the command returns.
func (m *Model) escalate(t privileged.Target) tea.Cmd {
	pw := m.password
	m.password = privileged.NewPassword()
	broker := m.broker

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), escalateTimeout)
		defer cancel()
		return escalationMsg{target: t, outcome: broker.Escalate(ctx, t, pw)}
	}
}

// finishEscalation routes the sudo result back to the prompt that asked
// for it.
func (m *Model) finishEscalation(msg escalationMsg) tea.Cmd {
	if m.mode.Kind != input.KindPasswordPrompt || !m.mode.Pending || !msg.target.Equal(m.mode.Target) {
		m.log.Debug("dropping privileged result for %s", msg.target.Label)
		return nil
	}

	out := msg.outcome
	ev := input.PrivilegedResultEvent{Outcome: out}
	if out.Status == privileged.StatusSucceeded {
		lines := out.Lines()
		m.setPopup(m.mode.Popup, m.pendingTitle, lines)
		ev.Lines = len(lines)
	}
	return m.route(ev)
}

func (m *Model) moveSelection(e input.MoveSelection) {
	tab := m.mode.Tab
	n := m.rowCount(tab)
	if n == 0 {
		return
	}

	sel := m.selected[tab]
	switch {
	case e.ToStart:
		sel = 0
	case e.ToEnd:
		sel = n - 1
	default:
		sel += e.Delta
	}
	m.selected[tab] = max(0, min(sel, n-1))
}

// syncViewport sizes the popup viewport and scrolls it to the router's
// offset.
func (m *Model) syncViewport() {
	if m.mode.Kind != input.KindPopupOpen {
		return
	}
	w, h := m.popupInnerWidth(), m.mode.PageSize
	m.viewport.Width, m.viewport.Height = w, h
	m.viewport.SetContent(strings.Join(fitLines(m.popup.lines, w), "\n"))
	m.viewport.SetYOffset(m.mode.Scroll)
}

// fitLines expands tabs and cuts every line to width cells. Popups scroll
// by line, so long lines are truncated rather than wrapped.
func fitLines(lines []string, width int) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		line = strings.ReplaceAll(line, "\t", "    ")
		out[i] = ansi.Truncate(line, width, "…")
	}
	return out
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
