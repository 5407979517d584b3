package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// maxMaskWidth caps the dots drawn for a long password.
const maxMaskWidth = 32

// renderPasswordPrompt draws the sudo prompt. Only the number of typed
// characters is drawn; the password stays in its privileged.Password
// buffer. While sudo runs the attempt line reads "checking...".
func (m Model) renderPasswordPrompt(height int) string {
	width := min(60, max(30, m.width-8))

	attempt := fmt.Sprintf("attempt %d of %d", max(1, m.mode.Attempt), m.mode.MaxAttempts)
	mask := strings.Repeat("•", min(m.mode.Typed, maxMaskWidth))
	if m.mode.Typed > maxMaskWidth {
		mask += "…"
	}

	state := LabelStyle.Render(attempt)
	if m.mode.Pending {
		state = NoticeStyle.Render("checking...")
	}

	lines := []string{
		PopupTitleStyle.Render("Authentication required"),
		"",
		LabelStyle.Render("rtop needs root to read"),
		ValueStyle.Render(ansi.Truncate(m.mode.Target.Label, width-4, "…")),
		"",
		LabelStyle.Render("[sudo] password: ") + ValueStyle.Render(mask),
		"",
		state,
		FooterStyle.Render("enter submit | esc cancel"),
	}

	box := PopupStyle.Width(width).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, box)
}
