// Package ui renders the one-line status messages rtop's subcommands print
// outside the dashboard.
//
// # Symbols
//
//	✓ SymbolSuccess - the command did what was asked
//	⊘ SymbolSkipped - nothing was changed, usually because the user said no
//	✗ SymbolFail    - matches the prefix of structured errors
//
// Colors follow the lipgloss color profile, so --no-color and ui.color:
// never strip them along with the dashboard's.
package ui
