package input

// Tab is one of the top-level views.
type Tab int

const (
	TabDashboard Tab = iota
	TabProcesses
	TabServices
	TabLogs
	TabJournal
	TabShell
)

// Tabs lists every tab in display order. Digits 1..6 select them.
var Tabs = []Tab{TabDashboard, TabProcesses, TabServices, TabLogs, TabJournal, TabShell}

var tabTitles = map[Tab]string{
	TabDashboard: "Dashboard",
	TabProcesses: "Processes",
	TabServices:  "Services",
	TabLogs:      "Logs",
	TabJournal:   "Journal",
	TabShell:     "Shell",
}

// tabKeys are the function keys that jump straight to a tab.
var tabKeys = map[string]Tab{
	"f2":  TabDashboard,
	"f3":  TabProcesses,
	"f4":  TabServices,
	"f5":  TabLogs,
	"f6":  TabJournal,
	"f12": TabShell,
}

func (t Tab) String() string {
	if s, ok := tabTitles[t]; ok {
		return s
	}
	return "Unknown"
}

// Key is the function key bound to the tab.
func (t Tab) Key() string {
	for k, tab := range tabKeys {
		if tab == t {
			return k
		}
	}
	return ""
}

// Next returns the tab to the right, wrapping around.
func (t Tab) Next() Tab {
	return Tabs[(int(t)+1)%len(Tabs)]
}

// Prev returns the tab to the left, wrapping around.
func (t Tab) Prev() Tab {
	return Tabs[(int(t)-1+len(Tabs))%len(Tabs)]
}

// HasTable reports whether the tab shows a selectable table.
func (t Tab) HasTable() bool {
	switch t {
	case TabProcesses, TabServices, TabLogs, TabJournal:
		return true
	}
	return false
}

// DetailPopup is the popup opened by enter on the tab's table.
func (t Tab) DetailPopup() PopupKind {
	switch t {
	case TabProcesses:
		return PopupProcess
	case TabServices:
		return PopupService
	case TabLogs:
		return PopupLog
	case TabJournal:
		return PopupJournal
	}
	return PopupNone
}
