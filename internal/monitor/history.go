package monitor

import (
	"sync"
	"time"

	"github.com/sshsshje/sshsshje/internal/collector"
)

// DefaultHistorySize is the default number of data points to retain per metric.
const DefaultHistorySize = 60

// History keeps recent system samples in ring buffers for sparklines and
// network throughput.
type History struct {
	mu   sync.RWMutex
	size int

	cpu  *ringBuffer
	mem  *ringBuffer
	disk *ringBuffer

	// Raw counters from the previous sample, used to derive rates.
	lastSent int64
	lastRecv int64
	lastAt   time.Time
	sentRate float64
	recvRate float64
}

type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history with the given buffer size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size: size,
		cpu:  newRingBuffer(size),
		mem:  newRingBuffer(size),
		disk: newRingBuffer(size),
	}
}

// Push records one sample taken at at.
func (h *History) Push(m collector.SystemMetrics, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cpu.push(m.CPUUsage)
	h.mem.push(m.Memory.Percent)
	h.disk.push(m.RootDisk().Percent)

	if !h.lastAt.IsZero() {
		if secs := at.Sub(h.lastAt).Seconds(); secs > 0 {
			h.sentRate = counterRate(h.lastSent, m.Network.BytesSent, secs)
			h.recvRate = counterRate(h.lastRecv, m.Network.BytesRecv, secs)
		}
	}
	h.lastSent = m.Network.BytesSent
	h.lastRecv = m.Network.BytesRecv
	h.lastAt = at
}

// counterRate turns two cumulative counter readings into bytes/s. A counter
// that went backwards (reboot, wraparound) yields 0.
func counterRate(prev, cur int64, secs float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / secs
}

// CPU returns up to count CPU samples, oldest first.
func (h *History) CPU(count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cpu.getLast(count)
}

// Memory returns up to count memory samples, oldest first.
func (h *History) Memory(count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mem.getLast(count)
}

// Disk returns up to count root disk samples, oldest first.
func (h *History) Disk(count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.disk.getLast(count)
}

// NetworkRate returns the throughput between the last two samples in
// bytes per second.
func (h *History) NetworkRate() (sent, recv float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sentRate, h.recvRate
}

// Count returns the number of samples stored.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cpu.count
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

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	// head is the next write position, so the newest value sits at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
