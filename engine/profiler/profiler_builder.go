package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often Tick reports.
//
// Parameters:
//   - d: the report interval; non-positive values report every tick
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval to a profiler
func WithUpdateInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = max(d, 0)
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
