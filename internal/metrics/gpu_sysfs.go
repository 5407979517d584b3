package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSysRoot is where the kernel exposes sysfs.
const DefaultSysRoot = "/sys"

// drmCard matches primary DRM nodes such as card0, not connectors like
// card0-DP-1 or render nodes.
var drmCard = regexp.MustCompile(`^card[0-9]+$`)

// gpuVendors maps PCI vendor IDs to names.
var gpuVendors = map[string]string{
	"0x10de": "NVIDIA",
	"0x1002": "AMD",
	"0x1022": "AMD",
	"0x8086": "Intel",
}

// hotSensorLabels mark the hwmon sensors that measure the GPU die.
var hotSensorLabels = []string{"edge", "gpu", "junction", "hotspot"}

// readSysfsGPU describes the first DRM card under sysRoot. It is used when
// nvidia-smi has nothing to say, so AMD and Intel cards still get a card on
// the dashboard. amdgpu also reports load and VRAM; other drivers leave them
// at zero. Returns nil when no card is found.
func readSysfsGPU(sysRoot, procRoot string) *GPUMetrics {
	drm := filepath.Join(sysRoot, "class", "drm")
	entries, err := os.ReadDir(drm)
	if err != nil {
		return nil
	}

	for _, e := range entries {
		if !drmCard.MatchString(e.Name()) {
			continue
		}
		dev := filepath.Join(drm, e.Name(), "device")
		vendorID := strings.ToLower(readTrimmed(filepath.Join(dev, "vendor")))
		if vendorID == "" {
			continue
		}

		vendor, ok := gpuVendors[vendorID]
		if !ok {
			vendor = vendorID
		}
		gpu := &GPUMetrics{Vendor: vendor}
		if target, err := os.Readlink(filepath.Join(dev, "driver")); err == nil {
			gpu.Driver = filepath.Base(target)
		}

		if vendor == "NVIDIA" {
			gpu.Name = nvidiaModel(procRoot)
		}
		if gpu.Name == "" {
			gpu.Name = fmt.Sprintf("%s GPU (%s)", vendor, readTrimmed(filepath.Join(dev, "device")))
		}

		if v, ok := readInt(filepath.Join(dev, "gpu_busy_percent")); ok {
			gpu.Percent = float64(v)
		}
		if v, ok := readInt(filepath.Join(dev, "mem_info_vram_used")); ok {
			gpu.MemoryUsed = v
		}
		if v, ok := readInt(filepath.Join(dev, "mem_info_vram_total")); ok {
			gpu.MemoryTotal = v
		}
		if t, ok := hwmonTemperature(dev); ok {
			gpu.Temperature = int(t)
		}
		return gpu
	}
	return nil
}

// nvidiaModel reads the model name the proprietary driver publishes under
// /proc/driver/nvidia/gpus/*/information.
func nvidiaModel(procRoot string) string {
	infos, _ := filepath.Glob(filepath.Join(procRoot, "driver", "nvidia", "gpus", "*", "information"))
	for _, path := range infos {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			if rest, ok := strings.CutPrefix(line, "Model:"); ok {
				return strings.TrimSpace(rest)
			}
		}
	}
	return ""
}

// hwmonTemperature returns the hottest die sensor of the device in °C,
// or the hottest sensor of any kind when none is labelled.
func hwmonTemperature(dev string) (float64, bool) {
	inputs, _ := filepath.Glob(filepath.Join(dev, "hwmon", "*", "temp*_input"))

	var die, hottest float64
	var haveDie, haveAny bool
	for _, path := range inputs {
		raw, err := strconv.ParseFloat(readTrimmed(path), 64)
		if err != nil {
			continue
		}
		// hwmon reports millidegrees
		if raw > 200 {
			raw /= 1000
		}
		if !haveAny || raw > hottest {
			hottest, haveAny = raw, true
		}

		label := strings.ToLower(readTrimmed(strings.TrimSuffix(path, "_input") + "_label"))
		for _, hot := range hotSensorLabels {
			if strings.Contains(label, hot) {
				if !haveDie || raw > die {
					die, haveDie = raw, true
				}
				break
			}
		}
	}

	if haveDie {
		return die, true
	}
	return hottest, haveAny
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readInt(path string) (int64, bool) {
	v, err := strconv.ParseInt(readTrimmed(path), 10, 64)
	return v, err == nil
}
