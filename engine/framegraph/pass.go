package framegraph

import "context"

// PassFunc records or executes the work of a pass.
type PassFunc func(ctx context.Context) error

// Pass is one node of the frame graph.
type Pass struct {
	Name   string
	Kind   PassKind
	Reads  []ResourceID
	Writes []ResourceID
	Run    PassFunc
}
