// Package metrics collects the local system figures shown by rtop's data
// panels: CPU, memory, GPU and network from /proc and nvidia-smi, the
// process table from ps, and systemd services from systemctl.
//
// A Collector produces an immutable Snapshot per refresh. History keeps the
// recent samples in ring buffers for the dashboard sparklines.
package metrics

import "time"

// Snapshot is one refresh worth of metrics. It is never modified after
// Collect returns it.
type Snapshot struct {
	Timestamp time.Time
	CPU       CPUMetrics
	RAM       RAMMetrics
	GPU       *GPUMetrics // nil if no GPU
	Network   []NetworkInterface
	System    SystemInfo
	Processes []Process
	Services  []Service

	// Errors maps a source ("cpu", "processes", ...) to the one-line reason
	// it could not be read this time. Other sources are still filled in.
	Errors map[string]string
}

// CPUMetrics contains CPU usage information.
type CPUMetrics struct {
	Percent float64
	Cores   int
	PerCore []float64
	LoadAvg [3]float64
}

// RAMMetrics contains memory usage information.
type RAMMetrics struct {
	UsedBytes  int64
	TotalBytes int64
	Cached     int64
	Available  int64
	SwapUsed   int64
	SwapTotal  int64
}

// Percent is the used share of total memory.
func (r RAMMetrics) Percent() float64 {
	if r.TotalBytes <= 0 {
		return 0
	}
	return float64(r.UsedBytes) / float64(r.TotalBytes) * 100
}

// SwapPercent is the used share of total swap.
func (r RAMMetrics) SwapPercent() float64 {
	if r.SwapTotal <= 0 {
		return 0
	}
	return float64(r.SwapUsed) / float64(r.SwapTotal) * 100
}

// GPUMetrics contains GPU usage information from nvidia-smi, or from sysfs
// when nvidia-smi is not available.
type GPUMetrics struct {
	Name        string
	Vendor      string
	Driver      string
	Percent     float64
	MemoryUsed  int64
	MemoryTotal int64
	Temperature int
	PowerWatts  int
}

// NetworkInterface contains network I/O counters for a single interface.
type NetworkInterface struct {
	Name       string
	BytesIn    int64
	BytesOut   int64
	PacketsIn  int64
	PacketsOut int64
}

// SystemInfo contains general system information.
type SystemInfo struct {
	Hostname string
	Kernel   string
	Uptime   time.Duration
}

// Process is one row of the process table.
type Process struct {
	PID     int
	User    string
	CPU     float64
	Memory  float64
	RSS     int64 // bytes
	State   string
	Time    string
	Command string
}

// Service is one systemd service unit.
type Service struct {
	Unit        string
	Load        string
	Active      string
	Sub         string
	Description string
}

// Failed reports whether systemd considers the unit failed.
func (s Service) Failed() bool {
	return s.Active == "failed"
}
