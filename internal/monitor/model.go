package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/rtop/internal/input"
	"github.com/rileyhilliard/rtop/internal/logger"
	"github.com/rileyhilliard/rtop/internal/logs"
	"github.com/rileyhilliard/rtop/internal/metrics"
	"github.com/rileyhilliard/rtop/internal/privileged"
	"github.com/rileyhilliard/rtop/internal/shell"
)

const (
	// MinInterval is the fastest allowed metrics refresh.
	MinInterval = 250 * time.Millisecond

	defaultInterval  = time.Second
	defaultShellPoll = 30 * time.Millisecond

	// noticeTTL is how long a status-line notice stays visible.
	noticeTTL = 5 * time.Second

	collectTimeout  = 10 * time.Second
	detailTimeout   = 10 * time.Second
	escalateTimeout = 30 * time.Second
)

// Options wires the model to its collaborators.
type Options struct {
	Collector *metrics.Collector
	Broker    *privileged.Broker
	Shell     *ShellManager
	History   *metrics.History

	Interval    time.Duration
	ShellPoll   time.Duration
	MaxAttempts int
	Thresholds  Thresholds

	LogsDir    string
	JournalDir string
	Version    string

	Logger logger.Logger
	Now    func() time.Time
}

// popupContent is what the open popup shows.
type popupContent struct {
	kind  input.PopupKind
	title string
	lines []string
}

// Model is the Bubble Tea model for rtop. Keys and resizes go through
// input.Route; the model only performs the effects it returns.
type Model struct {
	mode input.Mode

	collector *metrics.Collector
	history   *metrics.History
	broker    *privileged.Broker
	shell     *ShellManager
	password  *privileged.Password

	snapshot   *metrics.Snapshot
	lastUpdate time.Time
	collecting bool
	sortOrder  metrics.SortOrder
	processes  []metrics.Process

	logEntries     []logs.Entry
	logErr         error
	journalEntries []logs.Entry
	journalErr     error

	selected map[input.Tab]int

	popup        popupContent
	pendingTitle string
	viewport     viewport.Model

	notice   string
	noticeAt time.Time
	quitting bool

	width      int
	height     int
	interval   time.Duration
	shellPoll  time.Duration
	thresholds Thresholds
	version    string
	logsDir    string
	journalDir string

	log logger.Logger
	now func() time.Time
}

// tickMsg starts a metrics collection.
type tickMsg time.Time

// shellTickMsg drains shell output.
type shellTickMsg time.Time

// metricsMsg carries a finished collection.
type metricsMsg struct {
	snapshot *metrics.Snapshot
	err      error
}

// logsMsg carries a fresh file list for the logs or journal tab.
type logsMsg struct {
	tab     input.Tab
	entries []logs.Entry
	err     error
}

// detailMsg carries a finished detail read for the selected row.
type detailMsg struct {
	kind    input.PopupKind
	title   string
	outcome privileged.Outcome
}

// escalationMsg carries the result of a sudo read.
type escalationMsg struct {
	target  privileged.Target
	outcome privileged.Outcome
}

// NewModel creates the model. Collection starts with Init.
func NewModel(opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	opts.Interval = max(opts.Interval, MinInterval)
	if opts.ShellPoll <= 0 {
		opts.ShellPoll = defaultShellPoll
	}
	if opts.History == nil {
		opts.History = metrics.NewHistory(metrics.DefaultHistorySize)
	}
	if opts.Collector == nil {
		opts.Collector = metrics.NewCollector(metrics.Options{})
	}
	if opts.Broker == nil {
		opts.Broker = privileged.NewBroker(privileged.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = logger.ForComponent(logger.CompMonitor)
	}
	if opts.Shell == nil {
		opts.Shell = NewShellManager(shell.Options{}, 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return Model{
		mode:       input.NewMode(opts.MaxAttempts),
		collector:  opts.Collector,
		history:    opts.History,
		broker:     opts.Broker,
		shell:      opts.Shell,
		password:   privileged.NewPassword(),
		collecting: true, // Init collects
		sortOrder:  metrics.SortCPU,
		selected:   make(map[input.Tab]int),
		viewport:   viewport.New(0, 0),
		interval:   opts.Interval,
		shellPoll:  opts.ShellPoll,
		thresholds: opts.Thresholds.orDefault(),
		version:    opts.Version,
		logsDir:    opts.LogsDir,
		journalDir: opts.JournalDir,
		log:        opts.Logger,
		now:        opts.Now,
	}
}

// Init starts the refresh timers, the first collection and the log lists.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.collectCmd(),
		m.tickCmd(),
		m.shellTickCmd(),
		m.loadLogsCmd(input.TabLogs),
		m.loadLogsCmd(input.TabJournal),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.route(input.KeyEvent{Key: msg})
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cmd := m.route(input.ResizeEvent{Width: msg.Width, Height: msg.Height})
		return m, cmd

	case shellTickMsg:
		m.shell.Drain()
		return m, m.shellTickCmd()

	case tickMsg:
		if m.collecting {
			return m, m.tickCmd()
		}
		m.collecting = true
		return m, tea.Batch(m.tickCmd(), m.collectCmd())

	case metricsMsg:
		m.collecting = false
		m.updateMetrics(msg)

	case logsMsg:
		m.updateLogs(msg)

	case detailMsg:
		cmd := m.showDetails(msg)
		return m, cmd

	case escalationMsg:
		cmd := m.finishEscalation(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// Mode is the router state, exposed for tests and the CLI.
func (m Model) Mode() input.Mode {
	return m.mode
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) shellTickCmd() tea.Cmd {
	return tea.Tick(m.shellPoll, func(t time.Time) tea.Msg {
		return shellTickMsg(t)
	})
}

// collectCmd gathers a snapshot off the loop goroutine. It touches no model
// state.
func (m Model) collectCmd() tea.Cmd {
	collector := m.collector
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
		defer cancel()
		snap, err := collector.Collect(ctx)
		return metricsMsg{snapshot: snap, err: err}
	}
}

func (m Model) loadLogsCmd(tab input.Tab) tea.Cmd {
	dir, list := m.logsDir, logs.ListLogs
	if tab == input.TabJournal {
		dir, list = m.journalDir, logs.ListJournal
	}
	if dir == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := list(dir)
		return logsMsg{tab: tab, entries: entries, err: err}
	}
}

func (m *Model) updateMetrics(msg metricsMsg) {
	if msg.err != nil {
		m.log.Warn("collect metrics: %v", msg.err)
		return
	}
	if msg.snapshot == nil {
		return
	}

	m.snapshot = msg.snapshot
	m.lastUpdate = msg.snapshot.Timestamp
	m.history.Push(msg.snapshot)
	m.processes = sortedProcesses(msg.snapshot, m.sortOrder)
	for source, reason := range msg.snapshot.Errors {
		m.log.Debug("collect %s: %s", source, reason)
	}
	m.clampSelection(input.TabProcesses)
	m.clampSelection(input.TabServices)
}

func (m *Model) updateLogs(msg logsMsg) {
	if msg.err != nil {
		m.log.Warn("list %s: %v", msg.tab, msg.err)
	}
	switch msg.tab {
	case input.TabLogs:
		m.logEntries, m.logErr = msg.entries, msg.err
	case input.TabJournal:
		m.journalEntries, m.journalErr = msg.entries, msg.err
	}
	m.clampSelection(msg.tab)
}

// rowCount is the number of selectable rows in tab's table.
func (m Model) rowCount(tab input.Tab) int {
	switch tab {
	case input.TabProcesses:
		return len(m.processes)
	case input.TabServices:
		if m.snapshot == nil {
			return 0
		}
		return len(m.snapshot.Services)
	case input.TabLogs:
		return len(m.logEntries)
	case input.TabJournal:
		return len(m.journalEntries)
	}
	return 0
}

func (m *Model) clampSelection(tab input.Tab) {
	n := m.rowCount(tab)
	sel := m.selected[tab]
	if sel >= n {
		sel = n - 1
	}
	m.selected[tab] = max(0, sel)
}

func (m *Model) setNotice(text string) {
	m.notice = text
	m.noticeAt = m.now()
}

// activeNotice is the notice to show, or "" once it has expired.
func (m Model) activeNotice() string {
	if m.notice == "" || m.now().Sub(m.noticeAt) > noticeTTL {
		return ""
	}
	return m.notice
}

// SecondsSinceUpdate returns how many seconds have passed since the last
// snapshot.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(m.now().Sub(m.lastUpdate).Seconds())
}
