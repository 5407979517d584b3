package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	// Semantic colors for metrics
	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")

	ColorGraph = lipgloss.Color("#00FFFF")
)

// Thresholds are the warning and critical percentages for gauges.
type Thresholds struct {
	Warning  int
	Critical int
}

// DefaultThresholds color gauges yellow from 70% and red from 90%.
var DefaultThresholds = Thresholds{Warning: 70, Critical: 90}

func (t Thresholds) orDefault() Thresholds {
	if t.Warning <= 0 || t.Critical <= 0 {
		return DefaultThresholds
	}
	return t
}

// Color returns the gauge color for percent. Unset thresholds use the
// defaults.
func (t Thresholds) Color(percent float64) lipgloss.Color {
	t = t.orDefault()
	return MetricColorWithThresholds(percent, t.Warning, t.Critical)
}

// MetricColorWithThresholds returns the color for a percentage-based metric.
func MetricColorWithThresholds(percent float64, warning, critical int) lipgloss.Color {
	switch {
	case percent >= float64(critical):
		return ColorCritical
	case percent >= float64(warning):
		return ColorWarning
	default:
		return ColorHealthy
	}
}

var (
	TabBarStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Background(ColorSurfaceBg)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorDarkBg).
			Background(ColorAccent).
			Bold(true).
			Padding(0, 1)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary).
				Background(ColorSurfaceBg).
				Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorTextPrimary).
				Background(ColorAccentDim).
				Bold(true)

	RestrictedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	PopupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)

	PopupTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	ShellBorderStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)
)

// ThinProgressBar renders a line-based bar: ━ for filled cells, ─ for empty.
func ThinProgressBar(width int, percent float64, th Thresholds) string {
	if width < 1 {
		width = 1
	}
	percent = max(0, min(100, percent))

	filled := min(width, int(percent/100.0*float64(width)))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)

	return lipgloss.NewStyle().Foreground(th.Color(percent)).Render(bar)
}

// SectionHeader renders the top border of a card with a title and a value.
// Format: ╭─ Title ──────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// "╭─ " + title + " " on the left, " " + value + " ╮" on the right
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fillWidth := max(1, width-leftWidth-rightWidth)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fillWidth)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a card.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders one padded content line between side borders.
// Format: │ content                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}
	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	padding := max(0, width-4-lipgloss.Width(content))
	return borderStyle.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + borderStyle.Render("│")
}
