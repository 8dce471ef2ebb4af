package framegraph

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
)

// GraphBuilderOption is a functional option for configuring a Graph via NewGraph.
type GraphBuilderOption func(*graphImpl)

// WithStrictBarriers makes Compile panic on a barrier violation instead of returning an error.
// Builds with the oxydebug tag default to strict.
//
// Parameters:
//   - strict: whether violations panic
//
// Returns:
//   - GraphBuilderOption: a function that applies the mode to a graph
func WithStrictBarriers(strict bool) GraphBuilderOption {
	return func(g *graphImpl) {
		g.strict = strict
	}
}

// WithProfiler reports the duration of every executed pass to p.
func WithProfiler(p *profiler.Profiler) GraphBuilderOption {
	return func(g *graphImpl) {
		g.profiler = p
	}
}
