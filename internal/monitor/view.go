package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/rileyhilliard/rtop/internal/input"
)

// render lays out the screen: tab bar, body, status line and key hints.
// An open popup takes over everything but the status line.
func (m Model) render() string {
	if m.width <= 0 || m.height <= 0 {
		return "Starting rtop..."
	}

	if m.mode.Kind == input.KindPopupOpen {
		return m.renderPopup() + "\n" + m.renderStatus()
	}

	bodyHeight := max(1, m.height-input.ShellChromeRows)
	var body string
	switch {
	case m.mode.Kind == input.KindPasswordPrompt:
		body = m.renderPasswordPrompt(bodyHeight)
	case m.mode.Tab == input.TabShell:
		body = m.renderShell(bodyHeight)
	default:
		body = m.renderTab(bodyHeight)
	}

	return strings.Join([]string{
		m.renderTabBar(),
		fitBlock(body, m.width, bodyHeight),
		m.renderStatus(),
		m.renderFooter(),
	}, "\n")
}

func (m Model) renderTab(height int) string {
	switch m.mode.Tab {
	case input.TabProcesses:
		return m.renderProcesses(height)
	case input.TabServices:
		return m.renderServices(height)
	case input.TabLogs:
		return m.renderLogList(input.TabLogs, m.logEntries, m.logErr, height)
	case input.TabJournal:
		return m.renderLogList(input.TabJournal, m.journalEntries, m.journalErr, height)
	default:
		return m.renderDashboard(height)
	}
}

// renderTabBar renders the tab names with their function keys and the host
// on the right.
func (m Model) renderTabBar() string {
	var tabs []string
	for _, tab := range input.Tabs {
		label := strings.ToUpper(tab.Key()) + " " + tab.String()
		if tab == m.mode.Tab {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabInactiveStyle.Render(label))
		}
	}
	left := strings.Join(tabs, "")

	right := "rtop"
	if m.version != "" {
		right += " " + m.version
	}
	if m.snapshot != nil && m.snapshot.System.Hostname != "" {
		right = m.snapshot.System.Hostname + " | " + right
	}
	right = TitleStyle.Render(right)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left, m.width, "")
	}
	return left + TabBarStyle.Render(strings.Repeat(" ", gap)) + right
}

// renderStatus shows a live notice, else a summary for the current mode.
func (m Model) renderStatus() string {
	if notice := m.activeNotice(); notice != "" {
		return ansi.Truncate(NoticeStyle.Render(notice), m.width, "…")
	}

	var text string
	switch {
	case m.mode.Kind == input.KindPasswordPrompt:
		text = "Password required for " + m.mode.Target.Label
	case m.mode.Kind == input.KindPopupOpen:
		text = m.popup.title
	case m.mode.Tab == input.TabShell:
		text = m.shell.Status()
	default:
		text = m.updatedText()
		if m.mode.Tab == input.TabProcesses {
			text += " | sort: " + m.sortOrder.String()
		}
	}
	return ansi.Truncate(StatusStyle.Render(text), m.width, "…")
}

func (m Model) updatedText() string {
	if m.snapshot == nil {
		return "collecting..."
	}
	switch secs := m.SecondsSinceUpdate(); secs {
	case 0:
		return "updated just now"
	case 1:
		return "updated 1s ago"
	default:
		return fmt.Sprintf("updated %ds ago", secs)
	}
}

// renderFooter renders the key hints for the current mode.
func (m Model) renderFooter() string {
	var hints [][2]string
	switch {
	case m.mode.Kind == input.KindPasswordPrompt:
		hints = [][2]string{{"enter", "submit"}, {"esc", "cancel"}, {"ctrl+u", "clear"}}
	case m.mode.Kind == input.KindShellFocus:
		hints = [][2]string{{"F1", "help"}, {"F2-F6", "tabs"}, {"F10", "quit"}, {"", "other keys go to the shell"}}
	case m.mode.Tab.HasTable():
		hints = [][2]string{{"F1", "help"}, {"F12", "shell"}, {"↑↓", "select"}, {"enter", "open"}, {"r", "refresh"}}
		if m.mode.Tab == input.TabProcesses {
			hints = append(hints, [2]string{"s", "sort"})
		}
		hints = append(hints, [2]string{"q", "quit"})
	default:
		hints = [][2]string{{"F1", "help"}, {"F2-F6", "tabs"}, {"F12", "shell"}, {"r", "refresh"}, {"q", "quit"}}
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		if h[0] == "" {
			parts = append(parts, FooterStyle.Render(h[1]))
			continue
		}
		parts = append(parts, FooterKeyStyle.Render(h[0])+" "+FooterStyle.Render(h[1]))
	}
	return ansi.Truncate(strings.Join(parts, FooterStyle.Render("  ")), m.width, "")
}

// renderShell draws the transcript tail between side borders, sized to the
// PTY so rows line up with what the shell thinks it has.
func (m Model) renderShell(height int) string {
	rows, cols := input.ShellSize(m.width, m.height)
	rows = min(rows, height)

	var lines []string
	if m.shell.Session() == nil {
		lines = centeredLines([]string{
			"Press F12 to start the shell",
			m.shell.Status(),
		}, cols, rows)
	} else {
		lines = m.shell.Lines(cols, rows)
	}

	border := ShellBorderStyle.Render("│")
	out := make([]string, 0, rows)
	for i := 0; i < rows; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		out = append(out, border+padRight(ansi.Truncate(line, cols, ""), cols)+border)
	}
	return strings.Join(out, "\n")
}

// renderPopup draws the open popup. Its content rows are exactly the
// router's page size, so scrolling and rendering agree.
func (m Model) renderPopup() string {
	inner := m.popupInnerWidth()
	sep := ShellBorderStyle.Render(strings.Repeat("─", inner))

	first := min(m.mode.Scroll+1, m.mode.Lines)
	last := min(m.mode.Scroll+m.mode.PageSize, m.mode.Lines)
	position := fmt.Sprintf("%d-%d/%d", first, last, m.mode.Lines)
	hint := "↑↓ scroll  pgup/pgdn page  home/end  esc close"
	gap := inner - lipgloss.Width(hint) - lipgloss.Width(position)
	footer := FooterStyle.Render(hint) + strings.Repeat(" ", max(1, gap)) + StatusStyle.Render(position)

	content := m.viewport.View()
	if len(m.popup.lines) == 0 {
		content = fitBlock(LabelStyle.Render("(empty)"), inner, m.mode.PageSize)
	}

	box := PopupStyle.Width(inner + 2).Render(strings.Join([]string{
		PopupTitleStyle.Render(ansi.Truncate(m.popup.title, inner, "…")),
		sep,
		content,
		sep,
		ansi.Truncate(footer, inner, ""),
	}, "\n"))

	return lipgloss.Place(m.width, max(1, m.height-1), lipgloss.Center, lipgloss.Center, box)
}

// popupInnerWidth is the content width of a popup: the screen minus a two
// cell margin, the border and the padding on each side.
func (m Model) popupInnerWidth() int {
	return max(10, m.width-8)
}

// fitBlock pads or cuts s to exactly height lines of at most width cells.
func fitBlock(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "")
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// centeredLines centers text in a width by height block.
func centeredLines(text []string, width, height int) []string {
	out := make([]string, height)
	top := max(0, (height-len(text))/2)
	for i, t := range text {
		if top+i >= height {
			break
		}
		pad := max(0, (width-ansi.StringWidth(t))/2)
		out[top+i] = strings.Repeat(" ", pad) + t
	}
	return out
}
