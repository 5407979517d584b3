package metrics

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cpuJiffies is a pair of cumulative counters from one /proc/stat cpu line.
type cpuJiffies struct {
	total int64
	idle  int64
}

// cpuSample is the aggregate line plus one entry per core.
type cpuSample struct {
	all   cpuJiffies
	cores []cpuJiffies
}

// usage returns the busy percentage between two readings. It is 0 when
// the counters did not advance.
func usage(prev, cur cpuJiffies) float64 {
	if cur.total <= prev.total {
		return 0
	}
	totalDelta := cur.total - prev.total
	idleDelta := cur.idle - prev.idle
	if idleDelta < 0 {
		idleDelta = 0
	}
	if idleDelta > totalDelta {
		return 0
	}
	return float64(totalDelta-idleDelta) / float64(totalDelta) * 100
}

// parseCPULine sums the jiffy fields of a "cpu" or "cpuN" line.
// Fields: cpu user nice system idle iowait irq softirq steal guest guest_nice
func parseCPULine(line string) (cpuJiffies, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return cpuJiffies{}, fmt.Errorf("invalid /proc/stat cpu line: %s", line)
	}

	var j cpuJiffies
	for i := 1; i < len(fields); i++ {
		// guest and guest_nice are already counted in user and nice
		if i > 8 {
			break
		}
		val, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return cpuJiffies{}, fmt.Errorf("failed to parse cpu field %d: %w", i, err)
		}
		j.total += val

		// idle is field 4, iowait is field 5
		if i == 4 || i == 5 {
			j.idle += val
		}
	}
	return j, nil
}

// parseProcStat reads the aggregate and per-core counters from /proc/stat.
func parseProcStat(procStat string) (cpuSample, error) {
	var sample cpuSample
	found := false

	scanner := bufio.NewScanner(strings.NewReader(procStat))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			continue
		}

		j, err := parseCPULine(line)
		if err != nil {
			return cpuSample{}, err
		}

		if strings.HasPrefix(line, "cpu ") {
			sample.all = j
			found = true
			continue
		}
		if len(line) > 3 && line[3] >= '0' && line[3] <= '9' {
			sample.cores = append(sample.cores, j)
		}
	}

	if err := scanner.Err(); err != nil {
		return cpuSample{}, fmt.Errorf("error scanning /proc/stat: %w", err)
	}
	if !found {
		return cpuSample{}, fmt.Errorf("no aggregate cpu line in /proc/stat")
	}
	return sample, nil
}

// parseLoadAvg reads the 1, 5 and 15 minute load averages. Empty input
// yields zeros.
func parseLoadAvg(procLoadavg string) ([3]float64, error) {
	var load [3]float64
	fields := strings.Fields(strings.TrimSpace(procLoadavg))
	if len(fields) < 3 {
		return load, nil
	}
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return load, fmt.Errorf("failed to parse loadavg field %d: %w", i, err)
		}
		load[i] = val
	}
	return load, nil
}

// cpuMetrics turns two samples into percentages. Without a previous
// sample the percentages stay 0 until the next refresh.
func cpuMetrics(prev *cpuSample, cur cpuSample, load [3]float64) CPUMetrics {
	m := CPUMetrics{
		Cores:   len(cur.cores),
		PerCore: make([]float64, len(cur.cores)),
		LoadAvg: load,
	}
	if prev == nil {
		return m
	}

	m.Percent = usage(prev.all, cur.all)
	for i, core := range cur.cores {
		// Cores can come and go with hotplug
		if i < len(prev.cores) {
			m.PerCore[i] = usage(prev.cores[i], core)
		}
	}
	return m
}

// parseMemory parses memory metrics from /proc/meminfo output.
func parseMemory(procMeminfo string) (RAMMetrics, error) {
	var metrics RAMMetrics
	scanner := bufio.NewScanner(strings.NewReader(procMeminfo))

	var memTotal, memFree, memAvailable, buffers, cached, swapTotal, swapFree int64
	foundFields := 0

	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		key := strings.TrimSuffix(parts[0], ":")
		val, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}

		// Values in /proc/meminfo are in kB
		valBytes := val * 1024

		switch key {
		case "MemTotal":
			memTotal = valBytes
			foundFields++
		case "MemFree":
			memFree = valBytes
			foundFields++
		case "MemAvailable":
			memAvailable = valBytes
			foundFields++
		case "Buffers":
			buffers = valBytes
			foundFields++
		case "Cached":
			cached = valBytes
			foundFields++
		case "SwapTotal":
			swapTotal = valBytes
		case "SwapFree":
			swapFree = valBytes
		}
	}

	if err := scanner.Err(); err != nil {
		return metrics, fmt.Errorf("error scanning /proc/meminfo: %w", err)
	}
	if foundFields < 3 {
		return metrics, fmt.Errorf("insufficient memory info found in /proc/meminfo")
	}

	metrics.TotalBytes = memTotal
	metrics.Available = memAvailable
	metrics.Cached = cached + buffers
	if memAvailable > 0 {
		metrics.UsedBytes = memTotal - memAvailable
	} else {
		metrics.UsedBytes = memTotal - memFree - buffers - cached
	}
	if metrics.UsedBytes < 0 {
		metrics.UsedBytes = 0
	}
	metrics.SwapTotal = swapTotal
	metrics.SwapUsed = max(0, swapTotal-swapFree)

	return metrics, nil
}

// parseNetwork parses interface counters from /proc/net/dev output.
func parseNetwork(procNetDev string) ([]NetworkInterface, error) {
	var interfaces []NetworkInterface
	scanner := bufio.NewScanner(strings.NewReader(procNetDev))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Two header lines
		if lineNum <= 2 {
			continue
		}

		// "  iface: bytes packets errs drop fifo frame compressed multicast | bytes packets..."
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		fields := strings.Fields(rest)
		if len(fields) < 16 {
			continue
		}

		var counters [4]int64
		for i, idx := range []int{0, 1, 8, 9} {
			val, err := strconv.ParseInt(fields[idx], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse counter %d for %s: %w", idx, name, err)
			}
			counters[i] = val
		}

		interfaces = append(interfaces, NetworkInterface{
			Name:       name,
			BytesIn:    counters[0],
			PacketsIn:  counters[1],
			BytesOut:   counters[2],
			PacketsOut: counters[3],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning /proc/net/dev: %w", err)
	}
	return interfaces, nil
}

// parseUptime reads the first field of /proc/uptime.
func parseUptime(procUptime string) (time.Duration, error) {
	fields := strings.Fields(procUptime)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty /proc/uptime")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uptime: %w", err)
	}
	return time.Duration(secs * float64(time.Second)).Truncate(time.Second), nil
}
