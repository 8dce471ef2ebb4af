// Package shadow implements variance shadow mapping: depth moments, the variance downsample
// and the Chebyshev visibility query.
package shadow

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// Render target sizes of the shadow pass.
const (
	DepthMapSize    = 1024
	VarianceMapSize = 512
)

// MinVariance bounds the variance from below so flat receivers do not self-shadow.
const MinVariance = 1e-5

// MomentMap is a two channel image of depth moments (M1, M2), the CPU counterpart of the
// RG32Float variance texture.
type MomentMap struct {
	Width, Height int
	Texels        []mgl32.Vec2
}

// NewMomentMap allocates a map cleared to the far plane: M1 = 1, M2 = 1.
//
// Parameters:
//   - width, height: the map size in texels, at least 1
//
// Returns:
//   - *MomentMap: the map
func NewMomentMap(width, height int) *MomentMap {
	width, height = max(width, 1), max(height, 1)
	m := &MomentMap{Width: width, Height: height, Texels: make([]mgl32.Vec2, width*height)}
	for i := range m.Texels {
		m.Texels[i] = mgl32.Vec2{1, 1}
	}
	return m
}

// Moments returns the first two moments of a depth sample.
func Moments(depth float32) mgl32.Vec2 {
	return mgl32.Vec2{depth, depth * depth}
}

// FromDepth converts a depth buffer into a moment map of the same size.
//
// Parameters:
//   - depth: row-major depth values in [0, 1]
//   - width, height: the buffer size
//
// Returns:
//   - *MomentMap: the moments
//   - error: if depth does not hold width*height values
func FromDepth(depth []float32, width, height int) (*MomentMap, error) {
	if width <= 0 || height <= 0 || len(depth) != width*height {
		return nil, fmt.Errorf("shadow: depth buffer holds %d values, want %dx%d", len(depth), width, height)
	}
	m := &MomentMap{Width: width, Height: height, Texels: make([]mgl32.Vec2, len(depth))}
	for i, d := range depth {
		m.Texels[i] = Moments(d)
	}
	return m, nil
}

// At returns the texel at (x, y) with clamp-to-edge addressing.
func (m *MomentMap) At(x, y int) mgl32.Vec2 {
	x = common.Clamp(x, 0, m.Width-1)
	y = common.Clamp(y, 0, m.Height-1)
	return m.Texels[y*m.Width+x]
}

// VarianceDownsample averages 2x2 blocks of moments into a map of half the size (rounded up).
// Averaging moments, not depths, keeps the variance of the filtered region.
//
// Parameters:
//   - src: the full resolution moments
//
// Returns:
//   - *MomentMap: the downsampled moments
func VarianceDownsample(src *MomentMap) *MomentMap {
	return Resample(src, common.CeilDiv(src.Width, 2), common.CeilDiv(src.Height, 2))
}

// Resample box filters src into a width x height map. Each destination texel averages the
// source texels its footprint covers.
func Resample(src *MomentMap, width, height int) *MomentMap {
	dst := NewMomentMap(width, height)
	sx := float64(src.Width) / float64(dst.Width)
	sy := float64(src.Height) / float64(dst.Height)
	for y := 0; y < dst.Height; y++ {
		y0 := int(math.Floor(float64(y) * sy))
		y1 := max(int(math.Ceil(float64(y+1)*sy)), y0+1)
		for x := 0; x < dst.Width; x++ {
			x0 := int(math.Floor(float64(x) * sx))
			x1 := max(int(math.Ceil(float64(x+1)*sx)), x0+1)
			var sum mgl32.Vec2
			n := 0
			for yy := y0; yy < y1; yy++ {
				for xx := x0; xx < x1; xx++ {
					sum = sum.Add(src.At(xx, yy))
					n++
				}
			}
			dst.Texels[y*dst.Width+x] = sum.Mul(1 / float32(n))
		}
	}
	return dst
}
