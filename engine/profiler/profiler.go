// Package profiler tracks frame rate, memory statistics and per pass timing.
package profiler

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// PassStat accumulates the timing of one frame graph pass between reports.
type PassStat struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Average returns the mean duration of the pass, or 0 before it has run.
func (s PassStat) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler tracks frame rate, memory statistics and pass timing for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	mu             sync.Mutex
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	passes         map[string]*PassStat
	order          []string
	now            func() time.Time
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - opts: optional builder options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		passes:         make(map[string]*PassStat),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// RecordPass adds one execution of a named pass. Safe for concurrent use; a nil profiler
// ignores the call.
//
// Parameters:
//   - name: the pass name
//   - d: how long the pass took
func (p *Profiler) RecordPass(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.passes[name]
	if !ok {
		s = &PassStat{Name: name}
		p.passes[name] = s
		p.order = append(p.order, name)
	}
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
}

// Passes returns a snapshot of the pass statistics in first recorded order.
func (p *Profiler) Passes() []PassStat {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PassStat, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, *p.passes[name])
	}
	return out
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// and the average and worst time of every pass recorded since the last report.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log := common.Logger()
	log.Info("profiler",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	names := slices.Clone(p.order)
	for _, name := range names {
		s := p.passes[name]
		log.Debug("profiler pass", "pass", name, "runs", s.Count, "avg", s.Average(), "max", s.Max)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.passes)
	p.order = p.order[:0]
	return true
}
