package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
)

// resizeGate hands surface sizes from Resize to the next frame. Backends hold their own lock
// for a whole frame, so Resize only records the size here and abandons the frame in flight;
// the frame stops at its next pass boundary and the next frame rebuilds the target chain.
type resizeGate struct {
	mu       *sync.Mutex
	inflight *framegraph.Frame
	pending  *[2]int
}

func newResizeGate() *resizeGate {
	return &resizeGate{mu: &sync.Mutex{}}
}

// request records a new size and abandons the running frame, if any.
func (g *resizeGate) request(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pending = &[2]int{width, height}
	if g.inflight != nil {
		g.inflight.Abandon()
		g.inflight = nil
	}
}

// take returns the size requested since the last call.
//
// Returns:
//   - int: the requested width
//   - int: the requested height
//   - bool: false if no resize is pending
func (g *resizeGate) take() (int, int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return 0, 0, false
	}
	size := *g.pending
	g.pending = nil
	return size[0], size[1], true
}

// begin marks f as the frame in flight. A resize that arrived after take abandons f at once.
func (g *resizeGate) begin(f *framegraph.Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		f.Abandon()
		return
	}
	g.inflight = f
}

// end clears the frame in flight.
func (g *resizeGate) end(f *framegraph.Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inflight == f {
		g.inflight = nil
	}
}

// running reports whether a frame is in flight.
func (g *resizeGate) running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight != nil
}
