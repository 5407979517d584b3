package monitor

import "fmt"

// HelpBinding represents a single keyboard shortcut entry.
type HelpBinding struct {
	Key  string
	Desc string
}

// helpSection groups bindings under a heading.
type helpSection struct {
	Title    string
	Bindings []HelpBinding
}

var helpSections = []helpSection{
	{
		Title: "Anywhere",
		Bindings: []HelpBinding{
			{Key: "F1", Desc: "Toggle this help"},
			{Key: "F2 - F6", Desc: "Dashboard, Processes, Services, Logs, Journal"},
			{Key: "F12", Desc: "Shell (starts one if none is running)"},
			{Key: "F10", Desc: "Quit"},
		},
	},
	{
		Title: "Outside the shell",
		Bindings: []HelpBinding{
			{Key: "1 - 6", Desc: "Select tab"},
			{Key: "tab / l", Desc: "Next tab"},
			{Key: "shift+tab / h", Desc: "Previous tab"},
			{Key: "up / k", Desc: "Select previous row"},
			{Key: "down / j", Desc: "Select next row"},
			{Key: "pgup / pgdn", Desc: "Move ten rows"},
			{Key: "home / end", Desc: "First or last row"},
			{Key: "enter", Desc: "Open details"},
			{Key: "r", Desc: "Refresh now"},
			{Key: "s", Desc: "Cycle process sort (cpu, memory, pid, name)"},
			{Key: "?", Desc: "Help"},
			{Key: "q / ctrl+c", Desc: "Quit"},
		},
	},
	{
		Title: "Shell",
		Bindings: []HelpBinding{
			{Key: "any other key", Desc: "Sent to the shell, ctrl+c included"},
			{Key: "F2 - F6", Desc: "Leave the shell; it keeps running"},
		},
	},
	{
		Title: "Popups",
		Bindings: []HelpBinding{
			{Key: "up / down", Desc: "Scroll one line"},
			{Key: "pgup / pgdn", Desc: "Scroll one page"},
			{Key: "home / end", Desc: "Top or bottom"},
			{Key: "esc / enter / q", Desc: "Close"},
		},
	},
	{
		Title: "Password prompt",
		Bindings: []HelpBinding{
			{Key: "enter", Desc: "Run the read with sudo"},
			{Key: "backspace", Desc: "Delete a character"},
			{Key: "ctrl+u", Desc: "Clear"},
			{Key: "esc", Desc: "Cancel"},
		},
	},
}

// helpLines is the content of the help popup.
func (m Model) helpLines() []string {
	version := m.version
	if version == "" {
		version = "dev"
	}

	lines := []string{
		fmt.Sprintf("rtop %s", version),
		"",
	}
	for _, section := range helpSections {
		lines = append(lines, section.Title)
		for _, b := range section.Bindings {
			lines = append(lines, fmt.Sprintf("  %-16s %s", b.Key, b.Desc))
		}
		lines = append(lines, "")
	}
	lines = append(lines, "Reads that need root ask for your sudo password. It is sent to sudo on stdin and dropped right after.")
	return lines
}
