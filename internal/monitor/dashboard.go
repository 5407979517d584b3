package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/rtop/internal/metrics"
)

const (
	// twoColumnWidth is the terminal width from which cards sit side by side.
	twoColumnWidth = 120

	graphRows       = 2
	maxNetworkLines = 4
)

// renderDashboard renders the system line and the metric cards.
func (m Model) renderDashboard(height int) string {
	if m.snapshot == nil {
		return LabelStyle.Render("Collecting metrics...")
	}

	twoColumns := m.width >= twoColumnWidth
	w := 0
	if twoColumns {
		w = m.width / 2
	}

	cards := []string{m.renderCPUCard(w), m.renderMemoryCard(w)}
	if m.snapshot.GPU != nil {
		cards = append(cards, m.renderGPUCard(w))
	}
	cards = append(cards, m.renderNetworkCard(w))

	body := []string{m.renderSystemLine()}
	body = append(body, layoutCards(cards, twoColumns))
	return fitBlock(strings.Join(body, "\n"), m.width, height)
}

// layoutCards stacks cards, two per row when twoColumns is set.
func layoutCards(cards []string, twoColumns bool) string {
	if !twoColumns {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	var rows []string
	for i := 0; i < len(cards); i += 2 {
		if i+1 < len(cards) {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i], cards[i+1]))
		} else {
			rows = append(rows, cards[i])
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) cardWidth(w int) int {
	if w <= 0 {
		w = m.width
	}
	return max(20, w)
}

func (m Model) renderSystemLine() string {
	sys := m.snapshot.System
	parts := []string{}
	if sys.Hostname != "" {
		parts = append(parts, ValueStyle.Render(sys.Hostname))
	}
	if sys.Kernel != "" {
		parts = append(parts, LabelStyle.Render("kernel ")+ValueStyle.Render(sys.Kernel))
	}
	if sys.Uptime > 0 {
		parts = append(parts, LabelStyle.Render("up ")+ValueStyle.Render(formatUptime(sys.Uptime)))
	}
	if n := len(m.snapshot.Processes); n > 0 {
		parts = append(parts, LabelStyle.Render("procs ")+ValueStyle.Render(fmt.Sprintf("%d", n)))
	}
	return ansi.Truncate(strings.Join(parts, LabelStyle.Render(" | ")), m.width, "…")
}

// card wraps content lines in a titled border.
func card(title, value string, width int, lines []string) string {
	out := []string{SectionHeader(title, value, width)}
	for _, line := range lines {
		out = append(out, SectionContentLine(ansi.Truncate(line, width-4, "…"), width))
	}
	out = append(out, SectionFooter(width))
	return strings.Join(out, "\n")
}

// sourceError is the failure line for a source, if its last read failed.
func (m Model) sourceError(source string) (string, bool) {
	reason, ok := m.snapshot.Errors[source]
	if !ok {
		return "", false
	}
	return ErrorStyle.Render(reason), true
}

func (m Model) renderCPUCard(w int) string {
	width := m.cardWidth(w)
	inner := width - 4
	cpu := m.snapshot.CPU

	if line, failed := m.sourceError(metrics.SourceCPU); failed {
		return card("CPU", "--", width, []string{line})
	}

	lines := []string{ThinProgressBar(inner, cpu.Percent, m.thresholds)}
	if graph := RenderBrailleSparkline(m.history.CPU(inner*2), inner, graphRows, m.thresholds); graph != "" {
		lines = append(lines, strings.Split(graph, "\n")...)
	}
	lines = append(lines, LabelStyle.Render("cores ")+ValueStyle.Render(fmt.Sprintf("%d", cpu.Cores))+
		LabelStyle.Render("  load ")+ValueStyle.Render(fmt.Sprintf("%.2f %.2f %.2f", cpu.LoadAvg[0], cpu.LoadAvg[1], cpu.LoadAvg[2])))
	if len(cpu.PerCore) > 0 {
		lines = append(lines, renderPerCore(cpu.PerCore, m.thresholds))
	}
	return card("CPU", fmt.Sprintf("%.1f%%", cpu.Percent), width, lines)
}

// renderPerCore renders one short colored figure per core.
func renderPerCore(perCore []float64, th Thresholds) string {
	parts := make([]string, len(perCore))
	for i, p := range perCore {
		parts[i] = LabelStyle.Render(fmt.Sprintf("%d:", i)) +
			lipgloss.NewStyle().Foreground(th.Color(p)).Render(fmt.Sprintf("%3.0f%%", p))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderMemoryCard(w int) string {
	width := m.cardWidth(w)
	inner := width - 4
	ram := m.snapshot.RAM

	if line, failed := m.sourceError(metrics.SourceMemory); failed {
		return card("Memory", "--", width, []string{line})
	}

	lines := []string{ThinProgressBar(inner, ram.Percent(), m.thresholds)}
	if graph := RenderBrailleSparkline(m.history.RAM(inner*2), inner, graphRows, m.thresholds); graph != "" {
		lines = append(lines, strings.Split(graph, "\n")...)
	}
	lines = append(lines,
		LabelStyle.Render("used ")+ValueStyle.Render(humanize.IBytes(uint64(ram.UsedBytes)))+
			LabelStyle.Render(" of ")+ValueStyle.Render(humanize.IBytes(uint64(ram.TotalBytes)))+
			LabelStyle.Render("  cached ")+ValueStyle.Render(humanize.IBytes(uint64(ram.Cached)))+
			LabelStyle.Render("  avail ")+ValueStyle.Render(humanize.IBytes(uint64(ram.Available))))
	if ram.SwapTotal > 0 {
		label := fmt.Sprintf("swap %s of %s ", humanize.IBytes(uint64(ram.SwapUsed)), humanize.IBytes(uint64(ram.SwapTotal)))
		lines = append(lines, LabelStyle.Render(label)+ThinProgressBar(max(1, inner-len(label)), ram.SwapPercent(), m.thresholds))
	}
	return card("Memory", fmt.Sprintf("%.1f%%", ram.Percent()), width, lines)
}

func (m Model) renderGPUCard(w int) string {
	width := m.cardWidth(w)
	inner := width - 4
	gpu := m.snapshot.GPU

	lines := []string{ThinProgressBar(inner, gpu.Percent, m.thresholds)}
	if graph := RenderBrailleSparkline(m.history.GPU(inner*2), inner, graphRows, m.thresholds); graph != "" {
		lines = append(lines, strings.Split(graph, "\n")...)
	}

	details := []string{}
	if gpu.MemoryTotal > 0 {
		details = append(details, LabelStyle.Render("mem ")+ValueStyle.Render(
			humanize.IBytes(uint64(gpu.MemoryUsed))+" / "+humanize.IBytes(uint64(gpu.MemoryTotal))))
	}
	if gpu.Temperature > 0 {
		details = append(details, LabelStyle.Render("temp ")+ValueStyle.Render(fmt.Sprintf("%d°C", gpu.Temperature)))
	}
	if gpu.PowerWatts > 0 {
		details = append(details, LabelStyle.Render("power ")+ValueStyle.Render(fmt.Sprintf("%dW", gpu.PowerWatts)))
	}
	if gpu.Driver != "" {
		details = append(details, LabelStyle.Render("driver ")+ValueStyle.Render(gpu.Driver))
	}
	if len(details) > 0 {
		lines = append(lines, strings.Join(details, "  "))
	}

	title := "GPU"
	switch {
	case gpu.Name != "":
		title = "GPU " + gpu.Name
	case gpu.Vendor != "":
		title = "GPU " + gpu.Vendor
	}
	return card(ansi.Truncate(title, max(3, inner-12), "…"), fmt.Sprintf("%.1f%%", gpu.Percent), width, lines)
}

func (m Model) renderNetworkCard(w int) string {
	width := m.cardWidth(w)
	inner := width - 4

	if line, failed := m.sourceError(metrics.SourceNetwork); failed {
		return card("Network", "--", width, []string{line})
	}

	totalIn, totalOut := m.history.TotalNetworkRate()
	value := "↓ " + FormatRate(totalIn) + " ↑ " + FormatRate(totalOut)

	in, out := m.history.Throughput(inner - 4)
	lines := []string{
		LabelStyle.Render("in  ") + RenderMiniSparkline(in, inner-4, ColorGraph),
		LabelStyle.Render("out ") + RenderMiniSparkline(out, inner-4, ColorAccentDim),
	}

	rates := m.history.NetworkRates()
	for i, r := range rates {
		if i == maxNetworkLines {
			lines = append(lines, LabelStyle.Render(fmt.Sprintf("+%d more", len(rates)-maxNetworkLines)))
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			LabelStyle.Render(fmt.Sprintf("%-12s", ansi.Truncate(r.Interface, 12, "…"))),
			ValueStyle.Render(fmt.Sprintf("↓ %-12s", FormatRate(r.BytesInPerSec))),
			ValueStyle.Render("↑ "+FormatRate(r.BytesOutPerSec))))
	}
	if len(rates) == 0 {
		lines = append(lines, LabelStyle.Render("waiting for a second sample"))
	}
	return card("Network", value, width, lines)
}

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSecond float64) string {
	return humanize.IBytes(uint64(max(0, bytesPerSecond))) + "/s"
}

// formatUptime renders d as "3d 4h 12m", dropping leading zero units.
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
