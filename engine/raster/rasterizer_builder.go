package raster

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/kernel"
)

// RasterizerBuilderOption is a functional option for configuring a Rasterizer via NewRasterizer.
type RasterizerBuilderOption func(*rasterizer)

// WithDispatcher shares an existing worker pool with the rasterizer.
//
// Parameters:
//   - d: the dispatcher
//
// Returns:
//   - RasterizerBuilderOption: a function that applies the dispatcher to a rasterizer
func WithDispatcher(d kernel.Dispatcher) RasterizerBuilderOption {
	return func(r *rasterizer) {
		r.dispatcher = d
	}
}

// WithTileSize sets the tile edge length. Values below 8 are ignored.
func WithTileSize(n int) RasterizerBuilderOption {
	return func(r *rasterizer) {
		if n >= 8 {
			r.tileSize = n
		}
	}
}
