package monitor

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/rtop/internal/exec"
	exectest "github.com/rileyhilliard/rtop/internal/exec/testing"
	"github.com/rileyhilliard/rtop/internal/input"
	"github.com/rileyhilliard/rtop/internal/logger"
	"github.com/rileyhilliard/rtop/internal/logs"
	"github.com/rileyhilliard/rtop/internal/metrics"
	"github.com/rileyhilliard/rtop/internal/privileged"
	"github.com/rileyhilliard/rtop/internal/shell"
)

const journalPath = "/var/log/journal/abc/system.journal"

var testNow = time.Unix(1700000000, 0)

func newTestModel(t *testing.T, runner *exectest.FakeRunner) Model {
	t.Helper()
	log := logger.NewBufferLogger()
	m := NewModel(Options{
		Collector: metrics.NewCollector(metrics.Options{
			Runner:   runner,
			ProcRoot: t.TempDir(),
			SysRoot:  t.TempDir(),
			Logger:   log,
			Now:      func() time.Time { return testNow },
		}),
		Broker: privileged.NewBroker(privileged.Options{
			Runner: runner,
			Logger: log,
			Now:    func() time.Time { return testNow },
		}),
		Shell:      NewShellManager(shell.Options{Logger: log}, 0),
		Version:    "1.2.3",
		LogsDir:    t.TempDir(),
		JournalDir: t.TempDir(),
		Logger:     log,
		Now:        func() time.Time { return testNow },
	})
	t.Cleanup(func() { _ = m.shell.Close() })
	return send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

// settle sends msg and feeds back the detail and sudo results its command
// produces, as the runtime would. Timers and other messages are not run.
func settle(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	for _, out := range runCmd(cmd) {
		switch out.(type) {
		case detailMsg, escalationMsg:
			m = settle(t, m, out)
		}
	}
	return m
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runCmd(c)...)
	}
	return out
}

// openJournal selects the journal tab and presses enter on its only row.
func openJournal(t *testing.T, m Model) Model {
	t.Helper()
	return settle(t, send(t, m, key(tea.KeyF6)), key(tea.KeyEnter))
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeText sends one key per character, as a terminal would.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = send(t, m, runes(string(r)))
	}
	return m
}

func withJournal(t *testing.T, m Model) Model {
	t.Helper()
	return send(t, m, logsMsg{tab: input.TabJournal, entries: []logs.Entry{
		{Name: "abc/system.journal", Path: journalPath, Size: 8 << 20, ModTime: testNow},
	}})
}

// sudoWithPassword accepts only want on stdin and prints the journal.
func sudoWithPassword(want string) exectest.Handler {
	return func(c exectest.Call) (exec.Result, error) {
		if string(c.Stdin) != want+"\n" {
			return exec.Result{Stderr: []byte("Sorry, try again.\n"), ExitCode: 1}, nil
		}
		return exec.Result{Stdout: []byte("boot line\nsecond line\n")}, nil
	}
}

func deniedJournal() *exectest.FakeRunner {
	return exectest.NewFakeRunner().
		Respond("journalctl", "", "Failed to open files: Permission denied\n", 1)
}

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel(Options{Interval: time.Millisecond, Logger: logger.Noop()})

	assert.Equal(t, MinInterval, m.interval)
	assert.Equal(t, defaultShellPoll, m.shellPoll)
	assert.Equal(t, DefaultThresholds, m.thresholds)
	assert.Equal(t, input.KindNavigation, m.Mode().Kind)
	assert.Equal(t, input.TabDashboard, m.Mode().Tab)
	assert.True(t, m.collecting)
	assert.Equal(t, "Starting rtop...", m.View())
}

func TestModel_ResizeSizesShell(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())

	rows, cols := m.shell.Size()
	assert.Equal(t, 27, rows)
	assert.Equal(t, 98, cols)
	assert.Equal(t, 100, m.Mode().Width)
	assert.Equal(t, input.PopupPageSize(30), m.Mode().PageSize)
}

func TestModel_MetricsUpdate(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	snap := &metrics.Snapshot{
		Timestamp: testNow,
		CPU:       metrics.CPUMetrics{Percent: 12.5, Cores: 2},
		Processes: []metrics.Process{
			{PID: 1, CPU: 0.1, Command: "init"},
			{PID: 42, CPU: 30, Command: "busy"},
		},
	}

	m = send(t, m, metricsMsg{snapshot: snap})

	assert.False(t, m.collecting)
	assert.Equal(t, snap, m.snapshot)
	require.Len(t, m.processes, 2)
	assert.Equal(t, 42, m.processes[0].PID, "sorted by cpu")
	assert.Equal(t, []float64{12.5}, m.history.CPU(5))
	assert.Contains(t, ansi.Strip(m.View()), "12.5%")
}

func TestModel_TickSkipsWhileCollecting(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	require.True(t, m.collecting)

	m = send(t, m, tickMsg(testNow))
	assert.True(t, m.collecting)

	m = send(t, m, metricsMsg{err: assert.AnError})
	assert.False(t, m.collecting)
	assert.Nil(t, m.snapshot)

	m = send(t, m, tickMsg(testNow))
	assert.True(t, m.collecting)
}

func TestModel_TabSwitchAndSelection(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	procs := make([]metrics.Process, 30)
	for i := range procs {
		procs[i] = metrics.Process{PID: i + 1, Command: "p"}
	}
	m = send(t, m, metricsMsg{snapshot: &metrics.Snapshot{Timestamp: testNow, Processes: procs}})

	m = send(t, m, key(tea.KeyF3))
	assert.Equal(t, input.TabProcesses, m.Mode().Tab)

	m = send(t, m, runes("j"), runes("j"), key(tea.KeyDown))
	assert.Equal(t, 3, m.selected[input.TabProcesses])

	m = send(t, m, key(tea.KeyPgDown), key(tea.KeyPgDown), key(tea.KeyPgDown))
	assert.Equal(t, 29, m.selected[input.TabProcesses], "clamped to the last row")

	m = send(t, m, key(tea.KeyHome))
	assert.Equal(t, 0, m.selected[input.TabProcesses])

	m = send(t, m, key(tea.KeyUp))
	assert.Equal(t, 0, m.selected[input.TabProcesses])
}

func TestModel_CycleSort(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	m = send(t, m, metricsMsg{snapshot: &metrics.Snapshot{Timestamp: testNow, Processes: []metrics.Process{
		{PID: 2, CPU: 1, RSS: 900, Command: "b"},
		{PID: 1, CPU: 9, RSS: 100, Command: "a"},
	}}})

	m = send(t, m, key(tea.KeyF3), runes("s"))

	assert.Equal(t, metrics.SortMemory, m.sortOrder)
	assert.Equal(t, 2, m.processes[0].PID)
	assert.Equal(t, "Sorted by memory", m.activeNotice())
}

func TestModel_HelpPopup(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())

	m = send(t, m, key(tea.KeyF1))

	mode := m.Mode()
	assert.Equal(t, input.KindPopupOpen, mode.Kind)
	assert.Equal(t, input.PopupHelp, mode.Popup)
	assert.Equal(t, len(m.helpLines()), mode.Lines)
	assert.Contains(t, ansi.Strip(m.View()), "rtop 1.2.3")

	m = send(t, m, key(tea.KeyEsc))
	assert.Equal(t, input.KindNavigation, m.Mode().Kind)
	assert.Equal(t, input.PopupNone, m.popup.kind)
	assert.Nil(t, m.popup.lines)
}

func TestModel_PopupScrollMatchesViewport(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	m = send(t, m, key(tea.KeyF1), key(tea.KeyEnd))

	mode := m.Mode()
	require.Greater(t, mode.Lines, mode.PageSize, "help must be taller than the popup for this test")
	assert.Equal(t, mode.MaxScroll(), mode.Scroll)
	assert.Equal(t, mode.Scroll, m.viewport.YOffset)
	assert.Equal(t, mode.PageSize, m.viewport.Height)
}

func TestModel_OpenReadableLog(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	path := writeFile(t, m.logsDir, "syslog", "one\ntwo\nthree\n")
	m = send(t, m, logsMsg{tab: input.TabLogs, entries: []logs.Entry{{Name: "syslog", Path: path}}})

	m = settle(t, send(t, m, key(tea.KeyF5)), key(tea.KeyEnter))

	assert.Equal(t, input.KindPopupOpen, m.Mode().Kind)
	assert.Equal(t, input.PopupLog, m.Mode().Popup)
	assert.Equal(t, 3, m.Mode().Lines)
	assert.Equal(t, "syslog", m.popup.title)
	assert.Contains(t, ansi.Strip(m.View()), "three")
}

func TestModel_EscalationSucceeds(t *testing.T) {
	runner := deniedJournal().On("sudo", sudoWithPassword("hunter2"))
	m := withJournal(t, newTestModel(t, runner))

	m = openJournal(t, m)
	require.Equal(t, input.KindPasswordPrompt, m.Mode().Kind)
	assert.Equal(t, journalPath, m.Mode().Target.Label)

	m = typeText(t, m, "hunter2")
	assert.Equal(t, 7, m.password.Len())
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "•••••••")
	assert.NotContains(t, view, "hunter2")

	typed := m.password
	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Mode().Pending)
	assert.Contains(t, ansi.Strip(m.View()), "checking...")
	assert.True(t, m.password.Empty(), "the model keeps no copy while sudo runs")

	m = send(t, m, cmd())

	assert.True(t, typed.Empty(), "password cleared after the read")
	assert.True(t, m.password.Empty())
	assert.Equal(t, input.KindPopupOpen, m.Mode().Kind)
	assert.Equal(t, input.PopupJournal, m.Mode().Popup)
	assert.Equal(t, 2, m.Mode().Lines)
	assert.Equal(t, []string{"boot line", "second line"}, m.popup.lines)
	assert.Equal(t, "abc/system.journal", m.popup.title)

	sudo := runner.CallsTo("sudo")
	require.Len(t, sudo, 1)
	assert.NotContains(t, strings.Join(sudo[0].Argv(), " "), "hunter2")
	assert.Equal(t, "hunter2\n", string(sudo[0].Stdin))

	buf := m.log.(*logger.BufferLogger)
	assert.False(t, buf.Contains("hunter2"))
}

func TestModel_EscalationRetriesThenGivesUp(t *testing.T) {
	runner := deniedJournal().On("sudo", sudoWithPassword("right"))
	m := openJournal(t, withJournal(t, newTestModel(t, runner)))

	m = typeText(t, m, "wrong")
	m = settle(t, m, key(tea.KeyEnter))
	assert.Equal(t, input.KindPasswordPrompt, m.Mode().Kind)
	assert.Equal(t, 2, m.Mode().Attempt)
	assert.Equal(t, input.NoticeTryAgain, m.activeNotice())
	assert.True(t, m.password.Empty())

	m = typeText(t, m, "nope")
	m = settle(t, m, key(tea.KeyEnter))
	assert.Equal(t, input.KindNavigation, m.Mode().Kind)
	assert.Equal(t, "Authentication failed after 2 attempts", m.activeNotice())
	assert.True(t, m.password.Empty())
	assert.Len(t, runner.CallsTo("sudo"), 2)
}

func TestModel_DetailsLoadOffTheLoop(t *testing.T) {
	release := make(chan struct{})
	runner := exectest.NewFakeRunner().On("journalctl", func(exectest.Call) (exec.Result, error) {
		<-release
		return exec.Result{Stdout: []byte("line one\n")}, nil
	})
	m := send(t, withJournal(t, newTestModel(t, runner)), key(tea.KeyF6))

	type updated struct {
		m   tea.Model
		cmd tea.Cmd
	}
	done := make(chan updated, 1)
	go func() {
		next, cmd := m.Update(key(tea.KeyEnter))
		done <- updated{next, cmd}
	}()

	var u updated
	select {
	case u = <-done:
	case <-time.After(time.Second):
		close(release)
		t.Fatal("Update waited for journalctl")
	}
	require.NotNil(t, u.cmd)
	m = u.m.(Model)
	assert.Equal(t, input.KindNavigation, m.Mode().Kind)

	// The loop keeps taking keys while the read runs.
	m = send(t, m, key(tea.KeyF1))
	assert.Equal(t, input.PopupHelp, m.Mode().Popup)

	close(release)
	m = send(t, m, u.cmd())

	assert.Equal(t, input.KindPopupOpen, m.Mode().Kind)
	assert.Equal(t, input.PopupJournal, m.Mode().Popup)
	assert.Equal(t, []string{"line one"}, m.popup.lines)
	assert.Equal(t, "abc/system.journal", m.popup.title)
}

func TestModel_LateDetailsDoNotInterruptTheShell(t *testing.T) {
	runner := exectest.NewFakeRunner().Respond("journalctl", "line one\n", "", 0)
	m := send(t, withJournal(t, newTestModel(t, runner)), key(tea.KeyF6))
	m.shell.start = func(shell.Options) (*shell.Session, error) {
		return nil, errors.New("no ptys left")
	}

	next, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	m = send(t, next.(Model), key(tea.KeyF12), cmd())

	assert.Equal(t, input.KindShellFocus, m.Mode().Kind)
	assert.Equal(t, input.PopupNone, m.popup.kind)
}

func TestModel_StaleEscalationResultIsDropped(t *testing.T) {
	m := openJournal(t, withJournal(t, newTestModel(t, deniedJournal())))
	require.Equal(t, input.KindPasswordPrompt, m.Mode().Kind)

	other := privileged.FileTarget("/etc/shadow")
	m = send(t, m, escalationMsg{target: other, outcome: privileged.Succeeded(other, "root:x\n")})

	assert.Equal(t, input.KindPasswordPrompt, m.Mode().Kind)
	assert.Equal(t, input.PopupNone, m.popup.kind)
}

func TestModel_PasswordPromptExits(t *testing.T) {
	tests := []struct {
		name     string
		keys     []tea.KeyMsg
		wantKind input.Kind
		quit     bool
	}{
		{"escape cancels", []tea.KeyMsg{key(tea.KeyEsc)}, input.KindNavigation, false},
		{"ctrl+c cancels", []tea.KeyMsg{key(tea.KeyCtrlC)}, input.KindNavigation, false},
		{"F10 quits", []tea.KeyMsg{key(tea.KeyF10)}, input.KindNavigation, true},
		{"F12 is not a tab switch here and ctrl+u clears", []tea.KeyMsg{key(tea.KeyF12), key(tea.KeyCtrlU)}, input.KindPasswordPrompt, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := deniedJournal()
			m := openJournal(t, withJournal(t, newTestModel(t, runner)))
			m = typeText(t, m, "secret")
			require.Equal(t, 6, m.password.Len())

			for _, k := range tt.keys {
				m = send(t, m, k)
			}

			assert.Equal(t, tt.wantKind, m.Mode().Kind)
			assert.True(t, m.password.Empty())
			assert.Equal(t, tt.quit, m.quitting)
			assert.Empty(t, runner.CallsTo("sudo"))
		})
	}
}

func TestModel_EmptyPasswordIsNotSent(t *testing.T) {
	runner := deniedJournal()
	m := openJournal(t, withJournal(t, newTestModel(t, runner)))
	m = send(t, m, key(tea.KeyEnter))

	assert.Equal(t, input.KindPasswordPrompt, m.Mode().Kind)
	assert.Equal(t, input.NoticeEmptyPassword, m.activeNotice())
	assert.Empty(t, runner.CallsTo("sudo"))
}

func TestModel_NoticeExpires(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	now := testNow
	m.now = func() time.Time { return now }

	m.setNotice("hello")
	assert.Equal(t, "hello", m.activeNotice())

	now = now.Add(noticeTTL + time.Second)
	assert.Empty(t, m.activeNotice())
}

func TestModel_QuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), key(tea.KeyCtrlC), key(tea.KeyF10)} {
		t.Run(k.String(), func(t *testing.T) {
			m := newTestModel(t, exectest.NewFakeRunner())
			next, cmd := m.Update(k)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, next.View())
		})
	}
}

func TestModel_ViewFitsTerminal(t *testing.T) {
	m := newTestModel(t, exectest.NewFakeRunner())
	m = send(t, m, metricsMsg{snapshot: &metrics.Snapshot{
		Timestamp: testNow,
		System:    metrics.SystemInfo{Hostname: "box"},
		RAM:       metrics.RAMMetrics{UsedBytes: 1 << 30, TotalBytes: 4 << 30},
		Services:  []metrics.Service{{Unit: "cron.service", Load: "loaded", Active: "failed", Sub: "failed"}},
	}})

	for _, tab := range []tea.KeyType{tea.KeyF2, tea.KeyF3, tea.KeyF4, tea.KeyF5, tea.KeyF6} {
		m = send(t, m, key(tab))
		lines := strings.Split(m.View(), "\n")
		assert.Len(t, lines, 30, "tab %s", m.Mode().Tab)
		for _, line := range lines {
			assert.LessOrEqual(t, ansi.StringWidth(line), 100)
		}
	}
}
