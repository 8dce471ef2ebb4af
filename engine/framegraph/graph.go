package framegraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"

	"github.com/google/uuid"
)

var (
	// ErrBarrierViolation reports a read with no earlier producer or a second writer.
	ErrBarrierViolation = errors.New("framegraph: barrier violation")
	// ErrUnknownResource reports a pass referencing a resource the graph never declared.
	ErrUnknownResource = errors.New("framegraph: unknown resource")
	// ErrFrameAbandoned is returned when executing a frame after Abandon.
	ErrFrameAbandoned = errors.New("framegraph: frame abandoned")
)

// Graph collects the resources and passes of a frame in declaration order.
type Graph interface {
	// Import declares a resource whose contents exist before the frame starts.
	Import(name string, kind ResourceKind) Resource

	// Create declares a transient resource that a pass of this frame must produce.
	Create(name string, kind ResourceKind) Resource

	// Resource looks up a declared resource by name.
	Resource(name string) (Resource, bool)

	// AddPass appends a pass. Passes execute in the order they are added.
	AddPass(p Pass)

	// Passes returns the pass names in execution order.
	Passes() []string

	// Compile validates every hand-off and computes the barriers.
	//
	// Returns:
	//   - *Frame: the executable frame
	//   - error: ErrBarrierViolation or ErrUnknownResource, wrapped with the offending pass
	Compile() (*Frame, error)
}

type graphImpl struct {
	resources map[ResourceID]Resource
	byName    map[string]ResourceID
	passes    []Pass
	strict    bool
	profiler  *profiler.Profiler
}

var _ Graph = &graphImpl{}

// NewGraph creates an empty frame graph.
//
// Parameters:
//   - opts: optional builder options
//
// Returns:
//   - Graph: the graph
func NewGraph(opts ...GraphBuilderOption) Graph {
	g := &graphImpl{
		resources: make(map[ResourceID]Resource),
		byName:    make(map[string]ResourceID),
		strict:    strictBarriersDefault,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *graphImpl) declare(name string, kind ResourceKind, transient bool) Resource {
	r := Resource{ID: uuid.New(), Name: name, Kind: kind, Transient: transient}
	g.resources[r.ID] = r
	g.byName[name] = r.ID
	return r
}

func (g *graphImpl) Import(name string, kind ResourceKind) Resource {
	return g.declare(name, kind, false)
}

func (g *graphImpl) Create(name string, kind ResourceKind) Resource {
	return g.declare(name, kind, true)
}

func (g *graphImpl) Resource(name string) (Resource, bool) {
	id, ok := g.byName[name]
	if !ok {
		return Resource{}, false
	}
	return g.resources[id], true
}

func (g *graphImpl) AddPass(p Pass) {
	g.passes = append(g.passes, p)
}

func (g *graphImpl) Passes() []string {
	names := make([]string, len(g.passes))
	for i, p := range g.passes {
		names[i] = p.Name
	}
	return names
}

func (g *graphImpl) Compile() (*Frame, error) {
	frame, err := g.compile()
	if err != nil && g.strict && errors.Is(err, ErrBarrierViolation) {
		panic(err)
	}
	return frame, err
}

func (g *graphImpl) compile() (*Frame, error) {
	producer := make(map[ResourceID]string, len(g.resources))
	barriers := make([][]Barrier, len(g.passes))

	for i, p := range g.passes {
		for _, id := range p.Reads {
			r, ok := g.resources[id]
			if !ok {
				return nil, fmt.Errorf("pass %s reads %s: %w", p.Name, id, ErrUnknownResource)
			}
			from, produced := producer[id]
			if !produced {
				if r.Transient {
					return nil, fmt.Errorf("pass %s reads %s before any pass writes it: %w", p.Name, r.Name, ErrBarrierViolation)
				}
				continue
			}
			barriers[i] = append(barriers[i], Barrier{Resource: id, Name: r.Name, From: from, To: p.Name})
		}
		for _, id := range p.Writes {
			r, ok := g.resources[id]
			if !ok {
				return nil, fmt.Errorf("pass %s writes %s: %w", p.Name, id, ErrUnknownResource)
			}
			if prev, written := producer[id]; written {
				return nil, fmt.Errorf("pass %s writes %s already written by %s: %w", p.Name, r.Name, prev, ErrBarrierViolation)
			}
			producer[id] = p.Name
		}
	}

	return &Frame{
		mu:       &sync.Mutex{},
		passes:   g.passes,
		barriers: barriers,
		graph:    g,
	}, nil
}

// Frame is a compiled, executable graph. Abandon may be called from another goroutine while
// the frame executes.
type Frame struct {
	mu        *sync.Mutex
	passes    []Pass
	barriers  [][]Barrier
	graph     *graphImpl
	abandoned atomic.Bool
}

// Barriers returns every hand-off in execution order.
func (f *Frame) Barriers() []Barrier {
	var out []Barrier
	for _, b := range f.barriers {
		out = append(out, b...)
	}
	return out
}

// Execute runs every pass in order. A pass error stops the frame and is returned wrapped with
// the pass name. Cancellation is only observed before the first pass; abandonment is observed
// before every pass, so an abandoned frame stops at the next pass boundary.
//
// Parameters:
//   - ctx: the context handed to every pass
//
// Returns:
//   - error: the first pass error, ctx.Err(), or ErrFrameAbandoned
func (f *Frame) Execute(ctx context.Context) error {
	if f.abandoned.Load() {
		return ErrFrameAbandoned
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log := common.Logger()
	for i, p := range f.passes {
		if f.abandoned.Load() {
			log.Debug("frame stopped", "next_pass", p.Name)
			return ErrFrameAbandoned
		}
		for _, b := range f.barriers[i] {
			log.Debug("barrier", "resource", b.Name, "from", b.From, "to", b.To)
		}
		if p.Run == nil {
			continue
		}
		start := time.Now()
		if err := p.Run(ctx); err != nil {
			return fmt.Errorf("framegraph: pass %s: %w", p.Name, err)
		}
		f.graph.profiler.RecordPass(p.Name, time.Since(start))
	}
	return nil
}

// Abandon drops the frame's transient resources from the graph. The frame can no longer be
// executed and the graph must be rebuilt before the next frame.
func (f *Frame) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.abandoned.CompareAndSwap(false, true) {
		return
	}
	n := 0
	for id, r := range f.graph.resources {
		if !r.Transient {
			continue
		}
		delete(f.graph.resources, id)
		delete(f.graph.byName, r.Name)
		n++
	}
	common.Logger().Debug("frame abandoned", "transient_resources", n)
}

// Abandoned reports whether Abandon was called.
func (f *Frame) Abandoned() bool {
	return f.abandoned.Load()
}
