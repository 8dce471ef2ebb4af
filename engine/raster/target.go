// Package raster is the software triangle rasterizer behind the CPU renderer backend. Triangles
// are clipped in clip space, binned into screen tiles and rasterized tile by tile on the kernel
// worker pool. Within a tile, triangles are processed in submission order.
package raster

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
)

// DepthBuffer holds one [0, 1] depth value per pixel; smaller is closer.
type DepthBuffer struct {
	Width, Height int
	Values        []float32
}

// NewDepthBuffer allocates a depth buffer cleared to the far plane.
func NewDepthBuffer(width, height int) *DepthBuffer {
	width, height = max(width, 1), max(height, 1)
	d := &DepthBuffer{Width: width, Height: height, Values: make([]float32, width*height)}
	d.Clear(1)
	return d
}

// Clear sets every depth to v.
func (d *DepthBuffer) Clear(v float32) {
	for i := range d.Values {
		d.Values[i] = v
	}
}

// At returns the depth at (x, y), or 1 outside the buffer.
func (d *DepthBuffer) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return 1
	}
	return d.Values[y*d.Width+x]
}

// Target is what a draw writes into. Either attachment may be nil.
type Target struct {
	Color *postfx.Image
	Depth *DepthBuffer
}

// Size returns the dimensions of the first non-nil attachment.
func (t Target) Size() (int, int) {
	if t.Color != nil {
		return t.Color.Width, t.Color.Height
	}
	if t.Depth != nil {
		return t.Depth.Width, t.Depth.Height
	}
	return 0, 0
}
