package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// nvidiaSMIArgs queries the fields parseNvidiaSMI expects, in order.
var nvidiaSMIArgs = []string{
	"--query-gpu=name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw",
	"--format=csv,noheader,nounits",
}

// parseNvidiaSMI parses the first GPU from nvidia-smi CSV output.
// Example line: "NVIDIA GeForce RTX 3080, 45, 2048, 10240, 65, 220.5"
//
// Returns nil, nil when the output says there is no usable GPU.
func parseNvidiaSMI(output string) (*GPUMetrics, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	lower := strings.ToLower(output)
	for _, marker := range []string{"no devices", "not found", "failed", "error"} {
		if strings.Contains(lower, marker) {
			return nil, nil
		}
	}

	line, _, _ := strings.Cut(output, "\n")
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return nil, fmt.Errorf("nvidia-smi output has insufficient fields: expected 6, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	metrics := &GPUMetrics{Name: fields[0]}

	// Each numeric field may be blank or "[N/A]" on cards that do not
	// report it.
	numeric := []struct {
		label string
		apply func(float64)
	}{
		{"utilization", func(v float64) { metrics.Percent = v }},
		{"memory used", func(v float64) { metrics.MemoryUsed = int64(v) * 1024 * 1024 }},
		{"memory total", func(v float64) { metrics.MemoryTotal = int64(v) * 1024 * 1024 }},
		{"temperature", func(v float64) { metrics.Temperature = int(v) }},
		{"power", func(v float64) { metrics.PowerWatts = int(v) }},
	}
	for i, f := range numeric {
		raw := fields[i+1]
		if raw == "" || strings.HasPrefix(raw, "[") {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GPU %s '%s': %w", f.label, raw, err)
		}
		f.apply(v)
	}

	return metrics, nil
}
