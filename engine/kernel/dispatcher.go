package kernel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// WorkgroupSize is the number of invocations per GPU workgroup for the vertex kernels.
// CPU dispatches round their chunk size to a multiple of it.
const WorkgroupSize = 256

// Workgroups returns the number of workgroups needed to cover n invocations.
func Workgroups(n int) uint32 {
	return uint32(common.CeilDiv(max(n, 0), WorkgroupSize))
}

// dispatcher is the implementation of the Dispatcher interface.
type dispatcher struct {
	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration
	nextID      atomic.Int64
}

// Dispatcher runs data-parallel kernels on a reusable worker pool.
// Each Dispatch is a full barrier: it returns only once every chunk has finished.
type Dispatcher interface {
	// Dispatch splits [0, n) into chunks and runs fn on each chunk in parallel.
	// A cancelled context stops chunks that have not started yet; the call still waits
	// for running chunks before returning the context error.
	//
	// Parameters:
	//   - ctx: the dispatch context
	//   - n: the number of invocations
	//   - fn: the kernel body, called with a half-open range [lo, hi)
	//
	// Returns:
	//   - error: ctx.Err() if the dispatch was cancelled
	Dispatch(ctx context.Context, n int, fn func(lo, hi int)) error

	// Each runs fn once per index in [0, n) as its own task, for coarse work items such as
	// raster tiles. It has the same barrier and cancellation behavior as Dispatch.
	Each(ctx context.Context, n int, fn func(i int)) error

	// Workers returns the configured worker count.
	//
	// Returns:
	//   - int: the worker count
	Workers() int
}

var _ Dispatcher = &dispatcher{}

// NewDispatcher creates a Dispatcher backed by a dynamic worker pool.
//
// Parameters:
//   - options: a variadic list of DispatcherBuilderOption functions
//
// Returns:
//   - Dispatcher: the dispatcher
func NewDispatcher(options ...DispatcherBuilderOption) Dispatcher {
	d := &dispatcher{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: 1 * time.Second,
	}
	for _, option := range options {
		option(d)
	}
	d.pool = worker.NewDynamicWorkerPool(d.workers, d.queueSize, d.idleTimeout)
	return d
}

func (d *dispatcher) Workers() int {
	return d.workers
}

func (d *dispatcher) Dispatch(ctx context.Context, n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return ctx.Err()
	}
	chunk := d.chunkSize(n)

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		if ctx.Err() != nil {
			break
		}
		hi := min(lo+chunk, n)
		wg.Add(1)
		start := lo
		d.pool.SubmitTask(worker.Task{
			ID: int(d.nextID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				fn(start, hi)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return ctx.Err()
}

func (d *dispatcher) Each(ctx context.Context, n int, fn func(i int)) error {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		index := i
		d.pool.SubmitTask(worker.Task{
			ID: int(d.nextID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				fn(index)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return ctx.Err()
}

// chunkSize spreads n invocations over about four chunks per worker, in whole workgroups.
func (d *dispatcher) chunkSize(n int) int {
	groups := common.CeilDiv(n, WorkgroupSize)
	perChunk := max(common.CeilDiv(groups, d.workers*4), 1)
	return perChunk * WorkgroupSize
}
