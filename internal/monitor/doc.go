// Package monitor implements rtop's terminal UI.
//
// The package uses the Bubble Tea framework, which follows The Elm Architecture
// (Model-Update-View pattern). Update is the single event loop of the
// program:
//
//   - tea.KeyMsg and tea.WindowSizeMsg go through input.Route. The model
//     applies the returned effects in order and does nothing else with keys.
//   - shellTickMsg fires every shell poll interval (default 30ms) and drains
//     the shell's queued output into its transcript.
//   - tickMsg fires every refresh interval (default 1s) and starts a metrics
//     collection in a tea.Cmd, so a slow collector never blocks input.
//   - metricsMsg and logsMsg carry finished collections back to the model.
//
// # Key Components
//
//	Model         - The Bubble Tea model: router mode, data, popup and notice
//	ShellManager  - Owns the single shell session and its transcript
//	Styles/Graphs - Shared colors, cards, progress bars and braille sparklines
//
// # Shell lifecycle
//
// The shell is started on the first visit to the shell tab. Leaving the tab
// keeps it running; only an exited shell is replaced, and only when the user
// comes back with F12. The CLI closes the ShellManager when the program
// ends, which hangs up the shell's process group.
//
// # Privileged reads
//
// Opening a log, listing or journal the user cannot read moves the router to
// the password prompt. Keystrokes are appended to a privileged.Password and
// the escalated read runs synchronously in Update when enter is pressed.
// The buffer is cleared on every way out of the prompt.
package monitor
