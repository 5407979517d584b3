package metrics

import (
	"context"
	"os"
	osexec "os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/rtop/internal/exec"
	exectest "github.com/rileyhilliard/rtop/internal/exec/testing"
	"github.com/rileyhilliard/rtop/internal/logger"
)

// fakeProc writes a minimal /proc tree.
func fakeProc(t *testing.T, stat string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"stat":    stat,
		"loadavg": "0.50 1.00 1.50 2/100 1234\n",
		"meminfo": "MemTotal: 1000 kB\nMemFree: 200 kB\nMemAvailable: 600 kB\nBuffers: 0 kB\nCached: 100 kB\n",
		"net/dev": procNetDev,
		"uptime":  "120.5 60.0\n",

		"sys/kernel/osrelease": "6.1.0-test\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestCollector(t *testing.T, root string, runner exec.Runner) *Collector {
	t.Helper()
	return NewCollector(Options{
		Runner:   runner,
		ProcRoot: root,
		SysRoot:  t.TempDir(),
		Hostname: func() (string, error) { return "testbox", nil },
		Logger:   logger.NewBufferLogger(),
		Now:      func() time.Time { return time.Unix(1700000000, 0) },
	})
}

func TestCollector_Collect(t *testing.T) {
	root := fakeProc(t, procStatTwoCores)
	runner := exectest.NewFakeRunner().
		Respond("ps", psOutput, "", 0).
		Respond(SystemctlBinary, "cron.service loaded active running Cron\n", "", 0).
		Respond("nvidia-smi", "RTX, 50, 1, 2, 60, 100\n", "", 0)

	c := newTestCollector(t, root, runner)
	snap, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Errors)
	assert.Equal(t, time.Unix(1700000000, 0), snap.Timestamp)
	assert.Equal(t, 2, snap.CPU.Cores)
	assert.Equal(t, [3]float64{0.5, 1.0, 1.5}, snap.CPU.LoadAvg)
	assert.Equal(t, int64(400*1024), snap.RAM.UsedBytes)
	assert.Len(t, snap.Network, 2)
	assert.Equal(t, SystemInfo{Hostname: "testbox", Kernel: "6.1.0-test", Uptime: 120 * time.Second}, snap.System)
	require.NotNil(t, snap.GPU)
	assert.Equal(t, "RTX", snap.GPU.Name)
	assert.Len(t, snap.Processes, 3)
	require.Len(t, snap.Services, 1)
	assert.Equal(t, "cron.service", snap.Services[0].Unit)

	assert.Equal(t, []string{"aux"}, runner.CallsTo("ps")[0].Args)
	assert.Equal(t, listUnitsArgs, runner.CallsTo(SystemctlBinary)[0].Args)
}

func TestCollector_CPUDeltaAcrossCalls(t *testing.T) {
	root := fakeProc(t, procStatTwoCores)
	c := newTestCollector(t, root, exectest.NewFakeRunner())

	first, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.CPU.Percent)

	require.NoError(t, os.WriteFile(filepath.Join(root, "stat"),
		[]byte("cpu  200 0 200 1400 0 0 0 0 0 0\ncpu0 100 0 100 700 0 0 0 0 0 0\ncpu1 100 0 100 700 0 0 0 0 0 0\n"), 0o644))

	second, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.0, second.CPU.Percent, 0.001)
}

func TestCollector_SourceFailuresAreIsolated(t *testing.T) {
	root := fakeProc(t, procStatTwoCores)
	require.NoError(t, os.Remove(filepath.Join(root, "meminfo")))

	runner := exectest.NewFakeRunner().
		Respond("ps", "", "ps: bad option", 1).
		On(SystemctlBinary, func(exectest.Call) (exec.Result, error) {
			return exec.Result{ExitCode: -1}, osexec.ErrNotFound
		})

	c := newTestCollector(t, root, runner)
	snap, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Contains(t, snap.Errors, SourceMemory)
	assert.Contains(t, snap.Errors, SourceProcesses)
	assert.Contains(t, snap.Errors[SourceProcesses], "ps: bad option")
	assert.Contains(t, snap.Errors, SourceServices)
	assert.NotContains(t, snap.Errors, SourceCPU)
	assert.Equal(t, 2, snap.CPU.Cores)
	assert.Len(t, snap.Network, 2)
}

func TestCollector_MissingNvidiaSMIIsRemembered(t *testing.T) {
	root := fakeProc(t, procStatTwoCores)
	runner := exectest.NewFakeRunner().On("nvidia-smi", func(exectest.Call) (exec.Result, error) {
		return exec.Result{ExitCode: -1}, osexec.ErrNotFound
	})

	c := newTestCollector(t, root, runner)
	for i := 0; i < 3; i++ {
		snap, err := c.Collect(context.Background())
		require.NoError(t, err)
		assert.Nil(t, snap.GPU)
		assert.NotContains(t, snap.Errors, SourceGPU)
	}
	assert.Len(t, runner.CallsTo("nvidia-smi"), 1)
}

func TestCollector_GPUFallsBackToSysfs(t *testing.T) {
	runner := exectest.NewFakeRunner().On("nvidia-smi", func(exectest.Call) (exec.Result, error) {
		return exec.Result{ExitCode: -1}, osexec.ErrNotFound
	})
	c := NewCollector(Options{
		Runner:   runner,
		ProcRoot: fakeProc(t, procStatTwoCores),
		SysRoot: fakeSysfs(t, map[string]string{
			"class/drm/card0/device/vendor":           "0x1002\n",
			"class/drm/card0/device/device":           "0x73bf\n",
			"class/drm/card0/device/gpu_busy_percent": "12\n",
		}),
		Logger: logger.NewBufferLogger(),
	})

	for i := 0; i < 2; i++ {
		snap, err := c.Collect(context.Background())
		require.NoError(t, err)
		require.NotNil(t, snap.GPU)
		assert.Equal(t, "AMD", snap.GPU.Vendor)
		assert.Equal(t, 12.0, snap.GPU.Percent)
	}
	assert.Len(t, runner.CallsTo("nvidia-smi"), 1)
}

func TestCollector_GPUNonZeroExitMeansNoGPU(t *testing.T) {
	root := fakeProc(t, procStatTwoCores)
	runner := exectest.NewFakeRunner().Respond("nvidia-smi", "", "driver not loaded", 9)

	snap, err := newTestCollector(t, root, runner).Collect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.GPU)
	assert.Empty(t, snap.Errors)
}

func TestCollector_CancelledContext(t *testing.T) {
	root := fakeProc(t, procStatTwoCores)
	c := newTestCollector(t, root, exectest.NewFakeRunner())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestCollector_Defaults(t *testing.T) {
	c := NewCollector(Options{})
	assert.Equal(t, DefaultProcRoot, c.ProcRoot())
	assert.NotNil(t, c.Runner())
}
