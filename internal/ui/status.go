package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors for status lines
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

var (
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	failStyle    = lipgloss.NewStyle().Foreground(ColorError)
	skippedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Success writes "✓ msg".
func Success(w io.Writer, format string, args ...interface{}) {
	line(w, successStyle, SymbolSuccess, format, args...)
}

// Skipped writes "⊘ msg".
func Skipped(w io.Writer, format string, args ...interface{}) {
	line(w, skippedStyle, SymbolSkipped, format, args...)
}

// Fail writes "✗ msg".
func Fail(w io.Writer, format string, args ...interface{}) {
	line(w, failStyle, SymbolFail, format, args...)
}

func line(w io.Writer, style lipgloss.Style, symbol, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", style.Render(symbol), fmt.Sprintf(format, args...))
}
