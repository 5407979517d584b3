package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultHistorySize is the default number of samples kept per metric.
const DefaultHistorySize = 60

// History keeps recent samples in ring buffers for sparkline rendering.
// Safe for concurrent use.
type History struct {
	mu   sync.RWMutex
	size int

	cpu *ringBuffer
	ram *ringBuffer
	gpu *ringBuffer // nil until a GPU sample arrives

	// Aggregate non-loopback throughput in bytes per second.
	netIn  *ringBuffer
	netOut *ringBuffer

	// Last counters per interface, for rates.
	last     map[string]NetworkInterface
	lastTime time.Time
	rates    []NetworkRate
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NetworkRate is the throughput of one interface between the last two samples.
type NetworkRate struct {
	Interface      string
	BytesInPerSec  float64
	BytesOutPerSec float64
}

// NewHistory creates a history with the given buffer size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:   size,
		cpu:    newRingBuffer(size),
		ram:    newRingBuffer(size),
		netIn:  newRingBuffer(size),
		netOut: newRingBuffer(size),
		last:   make(map[string]NetworkInterface),
	}
}

// Push records a snapshot. Rates are computed against the previous
// snapshot's counters and timestamp, so the first push yields none.
func (h *History) Push(s *Snapshot) {
	if s == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.cpu.push(s.CPU.Percent)
	h.ram.push(s.RAM.Percent())

	if s.GPU != nil {
		if h.gpu == nil {
			h.gpu = newRingBuffer(h.size)
		}
		h.gpu.push(s.GPU.Percent)
	}

	h.pushNetwork(s.Network, s.Timestamp)
}

// pushNetwork must be called with h.mu held.
func (h *History) pushNetwork(ifaces []NetworkInterface, at time.Time) {
	elapsed := at.Sub(h.lastTime).Seconds()
	hasPrev := !h.lastTime.IsZero() && elapsed > 0

	var rates []NetworkRate
	var totalIn, totalOut float64
	next := make(map[string]NetworkInterface, len(ifaces))

	for _, iface := range ifaces {
		next[iface.Name] = iface
		prev, ok := h.last[iface.Name]
		if !hasPrev || !ok {
			continue
		}

		// Counter reset or wraparound shows as a negative delta
		inDelta := max(0, float64(iface.BytesIn-prev.BytesIn))
		outDelta := max(0, float64(iface.BytesOut-prev.BytesOut))

		rate := NetworkRate{
			Interface:      iface.Name,
			BytesInPerSec:  inDelta / elapsed,
			BytesOutPerSec: outDelta / elapsed,
		}
		rates = append(rates, rate)
		if !isLoopback(iface.Name) {
			totalIn += rate.BytesInPerSec
			totalOut += rate.BytesOutPerSec
		}
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Interface < rates[j].Interface })

	h.last = next
	h.lastTime = at
	h.rates = rates
	if hasPrev {
		h.netIn.push(totalIn)
		h.netOut.push(totalOut)
	}
}

func isLoopback(name string) bool {
	return name == "lo" || name == "lo0"
}

// CPU returns the last count CPU percentages, oldest first.
func (h *History) CPU(count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cpu.getLast(count)
}

// RAM returns the last count memory percentages, oldest first.
func (h *History) RAM(count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ram.getLast(count)
}

// GPU returns the last count GPU percentages, or nil without a GPU.
func (h *History) GPU(count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.gpu == nil {
		return nil
	}
	return h.gpu.getLast(count)
}

// Throughput returns the last count aggregate receive and transmit rates
// in bytes per second, loopback excluded.
func (h *History) Throughput(count int) (in, out []float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.netIn.getLast(count), h.netOut.getLast(count)
}

// NetworkRates returns per-interface rates between the last two pushes,
// sorted by interface name.
func (h *History) NetworkRates() []NetworkRate {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]NetworkRate, len(h.rates))
	copy(out, h.rates)
	return out
}

// TotalNetworkRate returns the combined throughput of non-loopback interfaces.
func (h *History) TotalNetworkRate() (bytesInPerSec, bytesOutPerSec float64) {
	for _, r := range h.NetworkRates() {
		if isLoopback(r.Interface) {
			continue
		}
		bytesInPerSec += r.BytesInPerSec
		bytesOutPerSec += r.BytesOutPerSec
	}
	return
}

// Count returns the number of samples stored.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cpu.count
}

// Clear drops all samples.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cpu = newRingBuffer(h.size)
	h.ram = newRingBuffer(h.size)
	h.gpu = nil
	h.netIn = newRingBuffer(h.size)
	h.netOut = newRingBuffer(h.size)
	h.last = make(map[string]NetworkInterface)
	h.lastTime = time.Time{}
	h.rates = nil
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order.
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)

	// head is the next write position, so the newest value is at head-1
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
