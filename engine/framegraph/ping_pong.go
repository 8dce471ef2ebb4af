package framegraph

// PingPong holds two copies of a per-frame resource. Frame N writes slot N%2 while the slot of
// frame N-1 stays readable.
type PingPong[T any] struct {
	slots [2]T
	frame uint64
}

// NewPingPong creates a double buffer over a and b, starting at frame 0.
func NewPingPong[T any](a, b T) *PingPong[T] {
	return &PingPong[T]{slots: [2]T{a, b}}
}

// Frame returns the current frame number.
func (p *PingPong[T]) Frame() uint64 {
	return p.frame
}

// Current returns the slot written this frame.
func (p *PingPong[T]) Current() T {
	return p.slots[p.frame%2]
}

// Previous returns the slot written last frame.
func (p *PingPong[T]) Previous() T {
	return p.slots[(p.frame+1)%2]
}

// Advance moves to the next frame.
func (p *PingPong[T]) Advance() {
	p.frame++
}
