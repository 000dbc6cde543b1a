package preview

import (
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats accumulates scheduler counters for the lifetime of the prefetcher.
type Stats struct {
	mu        sync.Mutex
	startTime time.Time
	fetched   int
	failed    int
	batches   int
	notified  int
}

// StatsSnapshot is the exported view of the counters plus process usage at
// snapshot time.
type StatsSnapshot struct {
	Fetched         int     `json:"fetched"`
	Failed          int     `json:"failed"`
	Batches         int     `json:"batches"`
	Notified        int     `json:"notified"`
	Cached          int     `json:"cached"`
	Queued          int     `json:"queued"`
	SuccessRate     float64 `json:"success_rate"`
	FetchesPerSec   float64 `json:"fetches_per_sec"`
	CPUUtilization  float64 `json:"cpu_utilization"`
	MemoryUsed      uint64  `json:"memory_used"`
	MemoryAvailable uint64  `json:"memory_available"`
	GoroutineCount  int     `json:"goroutine_count"`
}

func newStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) addFetched() {
	s.mu.Lock()
	s.fetched++
	s.mu.Unlock()
}

func (s *Stats) addFailed() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

func (s *Stats) addBatch() {
	s.mu.Lock()
	s.batches++
	s.mu.Unlock()
}

func (s *Stats) addNotified(n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.notified += n
	s.mu.Unlock()
}

func (s *Stats) snapshot(cached, queued int) StatsSnapshot {
	s.mu.Lock()
	snap := StatsSnapshot{
		Fetched:  s.fetched,
		Failed:   s.failed,
		Batches:  s.batches,
		Notified: s.notified,
		Cached:   cached,
		Queued:   queued,
	}
	elapsed := time.Since(s.startTime).Seconds()
	s.mu.Unlock()

	total := snap.Fetched + snap.Failed
	if total > 0 {
		snap.SuccessRate = float64(snap.Fetched) / float64(total) * 100
	}
	if elapsed > 0 {
		snap.FetchesPerSec = float64(total) / elapsed
	}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		snap.CPUUtilization = cpuPercent[0]
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.MemoryUsed = ms.Alloc
	snap.GoroutineCount = runtime.NumGoroutine()

	if v, err := mem.VirtualMemory(); err == nil {
		snap.MemoryAvailable = v.Available
	}

	return snap
}
