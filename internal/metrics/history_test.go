package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistory(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultHistorySize},
		{"negative size", -1, DefaultHistorySize},
		{"custom size", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.size)
			assert.Equal(t, tt.expected, h.size)
			assert.Equal(t, 0, h.Count())
		})
	}
}

func snapshotAt(sec int64, cpu float64, ifaces ...NetworkInterface) *Snapshot {
	return &Snapshot{
		Timestamp: time.Unix(sec, 0),
		CPU:       CPUMetrics{Percent: cpu},
		RAM:       RAMMetrics{UsedBytes: 2, TotalBytes: 8},
		Network:   ifaces,
	}
}

func TestHistory_PushAndRead(t *testing.T) {
	h := NewHistory(10)
	h.Push(nil)
	assert.Equal(t, 0, h.Count())

	for i := 0; i < 5; i++ {
		h.Push(snapshotAt(int64(i), float64(i*10)))
	}

	assert.Equal(t, 5, h.Count())
	assert.Equal(t, []float64{0, 10, 20, 30, 40}, h.CPU(5))
	assert.Equal(t, []float64{30, 40}, h.CPU(2))
	assert.Equal(t, []float64{25, 25, 25}, h.RAM(3))
	assert.Nil(t, h.GPU(5), "no GPU samples")
	assert.Nil(t, h.CPU(0))
}

func TestHistory_RingBufferOverflow(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 8; i++ {
		h.Push(snapshotAt(int64(i), float64(i)))
	}

	assert.Equal(t, 5, h.Count())
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, h.CPU(10))
}

func TestHistory_GPU(t *testing.T) {
	h := NewHistory(5)
	s := snapshotAt(1, 0)
	s.GPU = &GPUMetrics{Percent: 70}
	h.Push(s)
	assert.Equal(t, []float64{70}, h.GPU(5))
}

func TestHistory_NetworkRates(t *testing.T) {
	h := NewHistory(10)

	h.Push(snapshotAt(100, 0,
		NetworkInterface{Name: "lo", BytesIn: 1000, BytesOut: 1000},
		NetworkInterface{Name: "eth0", BytesIn: 10000, BytesOut: 5000},
	))
	assert.Empty(t, h.NetworkRates(), "first sample has nothing to compare with")
	in, out := h.Throughput(10)
	assert.Nil(t, in)
	assert.Nil(t, out)

	h.Push(snapshotAt(102, 0,
		NetworkInterface{Name: "lo", BytesIn: 3000, BytesOut: 3000},
		NetworkInterface{Name: "eth0", BytesIn: 14000, BytesOut: 4000},
	))

	rates := h.NetworkRates()
	require.Len(t, rates, 2)
	assert.Equal(t, NetworkRate{Interface: "eth0", BytesInPerSec: 2000, BytesOutPerSec: 0}, rates[0])
	assert.Equal(t, NetworkRate{Interface: "lo", BytesInPerSec: 1000, BytesOutPerSec: 1000}, rates[1])

	totalIn, totalOut := h.TotalNetworkRate()
	assert.Equal(t, 2000.0, totalIn)
	assert.Equal(t, 0.0, totalOut)

	in, out = h.Throughput(10)
	assert.Equal(t, []float64{2000}, in)
	assert.Equal(t, []float64{0}, out)
}

func TestHistory_NewInterfaceHasNoRateYet(t *testing.T) {
	h := NewHistory(10)
	h.Push(snapshotAt(1, 0, NetworkInterface{Name: "eth0", BytesIn: 10}))
	h.Push(snapshotAt(2, 0,
		NetworkInterface{Name: "eth0", BytesIn: 20},
		NetworkInterface{Name: "wg0", BytesIn: 500},
	))

	rates := h.NetworkRates()
	require.Len(t, rates, 1)
	assert.Equal(t, "eth0", rates[0].Interface)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(10)
	h.Push(snapshotAt(1, 5, NetworkInterface{Name: "eth0"}))
	h.Push(snapshotAt(2, 5, NetworkInterface{Name: "eth0"}))
	h.Clear()

	assert.Equal(t, 0, h.Count())
	assert.Empty(t, h.NetworkRates())
	in, _ := h.Throughput(5)
	assert.Nil(t, in)
}

func TestHistory_ConcurrentAccess(t *testing.T) {
	h := NewHistory(50)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Push(snapshotAt(int64(base*1000+j), float64(j)))
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.CPU(10)
				_ = h.NetworkRates()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, h.Count())
}
