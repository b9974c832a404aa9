// Package monitoring watches process memory and goroutine growth.
package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const bytesPerMB = 1024 * 1024

// MemoryMonitor compares current heap and goroutine counts against a
// baseline taken after warmup.
type MemoryMonitor struct {
	mu                 sync.RWMutex
	baselineHeap       uint64
	baselineGoroutines int
	threshold          float64
	lastReport         string
}

// MemorySnapshot represents a point-in-time memory state
type MemorySnapshot struct {
	Timestamp    time.Time
	HeapAlloc    uint64
	HeapInuse    uint64
	NumGC        uint32
	NumGoroutine int
}

// NewMemoryMonitor creates a monitor. threshold is the growth multiplier
// that counts as a leak, e.g. 2.0 for doubling.
func NewMemoryMonitor(threshold float64) *MemoryMonitor {
	return &MemoryMonitor{threshold: threshold}
}

// EstablishBaseline records the current heap and goroutine count.
func (m *MemoryMonitor) EstablishBaseline() {
	runtime.GC()
	s := TakeSnapshot()

	m.mu.Lock()
	m.baselineHeap = s.HeapAlloc
	m.baselineGoroutines = s.NumGoroutine
	m.lastReport = ""
	m.mu.Unlock()
}

// TakeSnapshot captures current memory state
func TakeSnapshot() MemorySnapshot {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return MemorySnapshot{
		Timestamp:    time.Now(),
		HeapAlloc:    stats.Alloc,
		HeapInuse:    stats.HeapInuse,
		NumGC:        stats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// CheckForLeaks compares s to the baseline. Without a baseline nothing is
// reported.
func (m *MemoryMonitor) CheckForLeaks(s MemorySnapshot) (leaked bool, report string) {
	m.mu.RLock()
	baselineHeap, baselineGoroutines, threshold := m.baselineHeap, m.baselineGoroutines, m.threshold
	m.mu.RUnlock()

	if baselineHeap == 0 || baselineGoroutines == 0 {
		return false, ""
	}

	if growth := float64(s.HeapAlloc) / float64(baselineHeap); growth > threshold {
		return true, fmt.Sprintf("heap grew %.2fx (%.2f MB to %.2f MB)",
			growth, float64(baselineHeap)/bytesPerMB, float64(s.HeapAlloc)/bytesPerMB)
	}
	if growth := float64(s.NumGoroutine) / float64(baselineGoroutines); growth > threshold {
		return true, fmt.Sprintf("goroutines grew %.2fx (%d to %d)", growth, baselineGoroutines, s.NumGoroutine)
	}
	return false, ""
}

// Run checks every interval until ctx is done and calls warn for each
// leak found.
func (m *MemoryMonitor) Run(ctx context.Context, interval time.Duration, warn func(report string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			leaked, report := m.CheckForLeaks(TakeSnapshot())
			m.mu.Lock()
			m.lastReport = report
			m.mu.Unlock()
			if leaked && warn != nil {
				warn(report)
			}
		}
	}
}

// LastReport returns the most recent leak report, or "" when the last
// check was clean.
func (m *MemoryMonitor) LastReport() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}
