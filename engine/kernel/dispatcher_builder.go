package kernel

import "time"

// DispatcherBuilderOption is a functional option for configuring a Dispatcher via NewDispatcher.
type DispatcherBuilderOption func(*dispatcher)

// WithWorkers is an option builder that sets the number of pool workers. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the worker count to a dispatcher
func WithWorkers(n int) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if n >= 1 {
			d.workers = n
		}
	}
}

// WithQueueSize sets the pool task queue capacity.
func WithQueueSize(n int) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if n >= 1 {
			d.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle pool worker lives before exiting.
func WithIdleTimeout(t time.Duration) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if t > 0 {
			d.idleTimeout = t
		}
	}
}
