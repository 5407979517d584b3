package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/input"
	"github.com/rileyhilliard/rtop/internal/logs"
	"github.com/rileyhilliard/rtop/internal/metrics"
)

// column describes one table column. A zero width column takes the space
// left over.
type column struct {
	title string
	width int
	right bool
}

var processColumns = []column{
	{title: "PID", width: 7, right: true},
	{title: "USER", width: 10},
	{title: "CPU%", width: 6, right: true},
	{title: "MEM%", width: 6, right: true},
	{title: "RSS", width: 9, right: true},
	{title: "S", width: 4},
	{title: "TIME", width: 9, right: true},
	{title: "COMMAND"},
}

var serviceColumns = []column{
	{title: "UNIT", width: 36},
	{title: "LOAD", width: 9},
	{title: "ACTIVE", width: 9},
	{title: "SUB", width: 10},
	{title: "DESCRIPTION"},
}

// sizeColumnsWidth is what logs.FormatEntries adds after the name.
const sizeColumnsWidth = 2 + 10 + 2 + 16

func sortedProcesses(s *metrics.Snapshot, order metrics.SortOrder) []metrics.Process {
	if s == nil {
		return nil
	}
	return metrics.SortProcesses(s.Processes, order)
}

// formatRow lays out cells under cols within width cells.
func formatRow(cols []column, cells []string, width int) string {
	var b strings.Builder
	used := 0
	for i, col := range cols {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		w := col.width
		if w == 0 {
			w = max(1, width-used)
		}
		cell = runewidth.Truncate(cell, w, "…")
		if col.right {
			cell = runewidth.FillLeft(cell, w)
		} else {
			cell = runewidth.FillRight(cell, w)
		}
		b.WriteString(cell)
		used += w
		if i < len(cols)-1 {
			b.WriteString(" ")
			used++
		}
	}
	return runewidth.Truncate(b.String(), width, "")
}

// visibleWindow returns the first row to draw so that sel stays on screen.
func visibleWindow(sel, total, rows int) int {
	if rows <= 0 || total <= rows {
		return 0
	}
	start := sel - rows/2
	return max(0, min(start, total-rows))
}

// renderTable draws a header and the rows around the selection. style
// picks a style for a row that is not selected; nil leaves it plain.
func (m Model) renderTable(header string, rows []string, sel, height int, style func(i int) *lipgloss.Style) string {
	lines := []string{TableHeaderStyle.Render(header)}

	visible := max(0, height-1)
	start := visibleWindow(sel, len(rows), visible)
	for i := start; i < len(rows) && i < start+visible; i++ {
		line := rows[i]
		switch {
		case i == sel:
			line = TableSelectedStyle.Render(runewidth.FillRight(line, m.width))
		case style != nil:
			if st := style(i); st != nil {
				line = st.Render(line)
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// tableRows formats every row under cols.
func (m Model) tableRows(cols []column, cells [][]string) []string {
	rows := make([]string, len(cells))
	for i, c := range cells {
		rows[i] = formatRow(cols, c, m.width)
	}
	return rows
}

func (m Model) tableHeader(cols []column) string {
	return formatRow(cols, headerCells(cols), m.width)
}

func headerCells(cols []column) []string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = c.title
	}
	return cells
}

func (m Model) renderProcesses(height int) string {
	if m.snapshot == nil {
		return LabelStyle.Render("Collecting processes...")
	}
	if reason, ok := m.snapshot.Errors[metrics.SourceProcesses]; ok && len(m.processes) == 0 {
		return ErrorStyle.Render("Couldn't list processes: " + reason)
	}

	rows := make([][]string, len(m.processes))
	for i, p := range m.processes {
		rows[i] = []string{
			fmt.Sprintf("%d", p.PID),
			p.User,
			fmt.Sprintf("%.1f", p.CPU),
			fmt.Sprintf("%.1f", p.Memory),
			humanize.IBytes(uint64(p.RSS)),
			p.State,
			p.Time,
			p.Command,
		}
	}
	return m.renderTable(m.tableHeader(processColumns), m.tableRows(processColumns, rows),
		m.selected[input.TabProcesses], height, nil)
}

func (m Model) renderServices(height int) string {
	if m.snapshot == nil {
		return LabelStyle.Render("Collecting services...")
	}
	services := m.snapshot.Services
	if reason, ok := m.snapshot.Errors[metrics.SourceServices]; ok && len(services) == 0 {
		return ErrorStyle.Render("Couldn't list services: " + reason)
	}
	if len(services) == 0 {
		return LabelStyle.Render("No services")
	}

	rows := make([][]string, len(services))
	for i, s := range services {
		rows[i] = []string{s.Unit, s.Load, s.Active, s.Sub, s.Description}
	}
	return m.renderTable(m.tableHeader(serviceColumns), m.tableRows(serviceColumns, rows),
		m.selected[input.TabServices], height, func(i int) *lipgloss.Style {
			if services[i].Failed() {
				return &ErrorStyle
			}
			return nil
		})
}

func (m Model) renderLogList(tab input.Tab, entries []logs.Entry, err error, height int) string {
	if err != nil && len(entries) == 0 {
		return ErrorStyle.Render("Couldn't list files: " + rterrors.OneLine(err))
	}
	if len(entries) == 0 {
		if tab == input.TabJournal {
			return LabelStyle.Render("No journal files found in " + m.journalDir)
		}
		return LabelStyle.Render("No log files found in " + m.logsDir)
	}

	nameWidth := max(8, m.width-sizeColumnsWidth)
	formatted := logs.FormatEntries(entries, nameWidth, m.now())
	cols := []column{{title: "NAME", width: nameWidth}, {title: "SIZE", width: 12, right: true}, {title: "MODIFIED"}}

	return m.renderTable(m.tableHeader(cols), formatted, m.selected[tab], height, func(i int) *lipgloss.Style {
		if entries[i].Restricted {
			return &RestrictedStyle
		}
		return nil
	})
}
