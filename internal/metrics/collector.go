package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	rterrors "github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/exec"
	"github.com/rileyhilliard/rtop/internal/logger"
)

// DefaultProcRoot is where the kernel exposes /proc.
const DefaultProcRoot = "/proc"

// Source names used as keys of Snapshot.Errors.
const (
	SourceCPU       = "cpu"
	SourceMemory    = "memory"
	SourceNetwork   = "network"
	SourceGPU       = "gpu"
	SourceSystem    = "system"
	SourceProcesses = "processes"
	SourceServices  = "services"
)

// Options configures a Collector.
type Options struct {
	// Runner runs ps, systemctl and nvidia-smi. Nil means a LocalRunner.
	Runner exec.Runner

	// ProcRoot replaces /proc, for tests.
	ProcRoot string

	// SysRoot replaces /sys, for tests.
	SysRoot string

	// Hostname replaces os.Hostname, for tests.
	Hostname func() (string, error)

	Logger logger.Logger
	Now    func() time.Time
}

// Collector gathers local metrics. CPU percentages are computed from the
// difference to the previous Collect call, so the first snapshot reports 0%.
type Collector struct {
	runner   exec.Runner
	procRoot string
	sysRoot  string
	hostname func() (string, error)
	log      logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	prevCPU *cpuSample
	noGPU   bool
}

// NewCollector creates a collector with defaults filled in.
func NewCollector(opts Options) *Collector {
	c := &Collector{
		runner:   opts.Runner,
		procRoot: opts.ProcRoot,
		sysRoot:  opts.SysRoot,
		hostname: opts.Hostname,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if c.runner == nil {
		c.runner = exec.NewLocalRunner()
	}
	if c.procRoot == "" {
		c.procRoot = DefaultProcRoot
	}
	if c.sysRoot == "" {
		c.sysRoot = DefaultSysRoot
	}
	if c.hostname == nil {
		c.hostname = os.Hostname
	}
	if c.log == nil {
		c.log = logger.ForComponent(logger.CompMetrics)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// ProcRoot is the /proc directory this collector reads.
func (c *Collector) ProcRoot() string {
	return c.procRoot
}

// Runner is the command runner used for ps, systemctl and nvidia-smi.
func (c *Collector) Runner() exec.Runner {
	return c.runner
}

// Collect reads every source concurrently. A failing source is recorded in
// Snapshot.Errors and does not affect the others. The error is only set
// when ctx is done.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Timestamp: c.now(), Errors: make(map[string]string)}

	var errMu sync.Mutex
	fail := func(source string, err error) {
		errMu.Lock()
		defer errMu.Unlock()
		snap.Errors[source] = rterrors.OneLine(err)
		c.log.Debug("collect %s: %v", source, rterrors.OneLine(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cpu, err := c.collectCPU()
		if err != nil {
			fail(SourceCPU, err)
			return nil
		}
		snap.CPU = cpu
		return nil
	})

	g.Go(func() error {
		raw, err := c.readProc("meminfo")
		if err == nil {
			snap.RAM, err = parseMemory(raw)
		}
		if err != nil {
			fail(SourceMemory, err)
		}
		return nil
	})

	g.Go(func() error {
		raw, err := c.readProc("net/dev")
		if err == nil {
			snap.Network, err = parseNetwork(raw)
		}
		if err != nil {
			fail(SourceNetwork, err)
		}
		return nil
	})

	g.Go(func() error {
		info, err := c.collectSystem()
		snap.System = info
		if err != nil {
			fail(SourceSystem, err)
		}
		return nil
	})

	g.Go(func() error {
		gpu, err := c.collectGPU(gctx)
		if err != nil {
			fail(SourceGPU, err)
			return nil
		}
		snap.GPU = gpu
		return nil
	})

	g.Go(func() error {
		res, err := c.runner.Run(gctx, nil, "ps", psArgs...)
		if err == nil && !res.Success() {
			err = commandError("ps", res)
		}
		if err == nil {
			snap.Processes, err = parseProcesses(string(res.Stdout))
		}
		if err != nil {
			fail(SourceProcesses, err)
		}
		return nil
	})

	g.Go(func() error {
		res, err := c.runner.Run(gctx, nil, SystemctlBinary, listUnitsArgs...)
		if err == nil && !res.Success() {
			err = commandError(SystemctlBinary, res)
		}
		if err != nil {
			fail(SourceServices, err)
			return nil
		}
		snap.Services = parseServices(string(res.Stdout))
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Collector) readProc(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.procRoot, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Collector) collectCPU() (CPUMetrics, error) {
	rawStat, err := c.readProc("stat")
	if err != nil {
		return CPUMetrics{}, err
	}
	cur, err := parseProcStat(rawStat)
	if err != nil {
		return CPUMetrics{}, err
	}

	// loadavg is optional; containers sometimes hide it
	var load [3]float64
	if rawLoad, err := c.readProc("loadavg"); err == nil {
		if load, err = parseLoadAvg(rawLoad); err != nil {
			return CPUMetrics{}, err
		}
	}

	c.mu.Lock()
	prev := c.prevCPU
	c.prevCPU = &cur
	c.mu.Unlock()

	return cpuMetrics(prev, cur, load), nil
}

func (c *Collector) collectSystem() (SystemInfo, error) {
	var info SystemInfo
	var firstErr error

	if name, err := c.hostname(); err == nil {
		info.Hostname = name
	} else {
		firstErr = err
	}

	if kernel, err := c.readProc("sys/kernel/osrelease"); err == nil {
		info.Kernel = strings.TrimSpace(kernel)
	} else if firstErr == nil {
		firstErr = err
	}

	raw, err := c.readProc("uptime")
	if err == nil {
		info.Uptime, err = parseUptime(raw)
	}
	if err != nil && firstErr == nil {
		firstErr = err
	}

	return info, firstErr
}

// collectGPU queries nvidia-smi and falls back to the DRM cards in sysfs.
// A machine without nvidia-smi is remembered and never asked again.
func (c *Collector) collectGPU(ctx context.Context) (*GPUMetrics, error) {
	c.mu.Lock()
	skip := c.noGPU
	c.mu.Unlock()
	if !skip {
		gpu, err := c.queryNvidiaSMI(ctx)
		if gpu != nil || err != nil {
			return gpu, err
		}
	}
	return readSysfsGPU(c.sysRoot, c.procRoot), nil
}

// queryNvidiaSMI returns nil, nil when nvidia-smi is missing or reports no
// usable device.
func (c *Collector) queryNvidiaSMI(ctx context.Context) (*GPUMetrics, error) {
	res, err := c.runner.Run(ctx, nil, "nvidia-smi", nvidiaSMIArgs...)
	if err != nil {
		if exec.IsNotFound(err) {
			c.log.Debug("nvidia-smi not found, using sysfs for the GPU card")
			c.mu.Lock()
			c.noGPU = true
			c.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}
	if !res.Success() {
		// Driver present but no device, or the driver is not loaded
		return nil, nil
	}
	gpu, err := parseNvidiaSMI(string(res.Stdout))
	if gpu != nil {
		gpu.Vendor, gpu.Driver = "NVIDIA", "nvidia"
	}
	return gpu, err
}

// ProcessDetails renders /proc details for pid.
func (c *Collector) ProcessDetails(pid int) (string, error) {
	return ProcessDetails(c.procRoot, pid)
}

// ServiceStatus returns the systemctl status text of unit.
func (c *Collector) ServiceStatus(ctx context.Context, unit string) (string, error) {
	return ServiceStatus(ctx, c.runner, unit)
}

func commandError(name string, res exec.Result) error {
	msg := strings.TrimSpace(string(res.Stderr))
	if msg == "" {
		msg = "no output"
	}
	return rterrors.New(rterrors.ErrExec, name+" exited with "+strconv.Itoa(res.ExitCode)+": "+msg, "")
}
