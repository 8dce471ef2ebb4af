package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/shadow"
)

// Extent is the pixel size of a render target.
type Extent struct {
	Width, Height int
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

func (e Extent) half() Extent {
	return Extent{common.CeilDiv(e.Width, 2), common.CeilDiv(e.Height, 2)}
}

// TargetChain holds the size of every render target of a frame.
type TargetChain struct {
	Shadow         Extent
	VarianceShadow Extent
	Color          Extent
	BloomThreshold Extent
	BloomMips      [postfx.BloomMipCount]Extent
	BloomCombine   Extent
	BloomUpscale   Extent
}

// NewTargetChain sizes the targets for a surface. The bloom chain works on the surface size
// divided by the scale factor: the threshold at a quarter of it, each blur mip at half the
// previous target, the combine at the threshold size and the upscale at half. Every dimension
// is at least 1.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//   - scale: the window scale factor, values at or below 0 count as 1
//
// Returns:
//   - TargetChain: the target sizes
func NewTargetChain(width, height int, scale float32) TargetChain {
	if scale <= 0 {
		scale = 1
	}
	width, height = max(width, 1), max(height, 1)
	base := Extent{max(int(float32(width)/scale), 1), max(int(float32(height)/scale), 1)}

	c := TargetChain{
		Shadow:         Extent{shadow.DepthMapSize, shadow.DepthMapSize},
		VarianceShadow: Extent{shadow.VarianceMapSize, shadow.VarianceMapSize},
		Color:          Extent{width, height},
		BloomThreshold: Extent{common.CeilDiv(base.Width, 4), common.CeilDiv(base.Height, 4)},
		BloomUpscale:   base.half(),
	}
	prev := c.BloomThreshold
	for i := range c.BloomMips {
		c.BloomMips[i] = prev.half()
		prev = c.BloomMips[i]
	}
	c.BloomCombine = c.BloomThreshold
	return c
}
