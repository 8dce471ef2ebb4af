// Package framegraph orders the passes of one frame, checks that every resource hand-off goes
// from a single producer to later consumers, and records the barriers between them.
package framegraph

import (
	"github.com/google/uuid"
)

// ResourceKind distinguishes buffers from textures.
type ResourceKind int

const (
	ResourceBuffer ResourceKind = iota
	ResourceTexture
)

func (k ResourceKind) String() string {
	if k == ResourceTexture {
		return "texture"
	}
	return "buffer"
}

// ResourceID identifies a resource within a graph.
type ResourceID = uuid.UUID

// Resource is a logical buffer or texture passed between passes.
type Resource struct {
	ID   ResourceID
	Name string
	Kind ResourceKind

	// Transient resources are produced inside the frame and dropped when the frame is abandoned.
	// Non-transient resources are imported: their contents exist before the first pass runs.
	Transient bool
}

// PassKind distinguishes compute dispatches from render passes.
type PassKind int

const (
	PassCompute PassKind = iota
	PassRender
)

func (k PassKind) String() string {
	if k == PassRender {
		return "render"
	}
	return "compute"
}

// Barrier is a hand-off of a resource from the pass that wrote it to a pass that reads it.
type Barrier struct {
	Resource ResourceID
	Name     string
	From     string
	To       string
}
