package postfx

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// PostParams configure the final pass.
type PostParams struct {
	Exposure float32
	// BloomIntensity scales the recombined bloom before it is added.
	BloomIntensity float32
}

// DefaultPostParams returns unit exposure and bloom intensity.
func DefaultPostParams() PostParams {
	return PostParams{Exposure: 1, BloomIntensity: 1}
}

// Tonemap maps HDR color to [0, 1) with 1 - exp(-c * exposure) and gamma encodes it.
func Tonemap(c mgl32.Vec3, exposure float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := range c {
		v := 1 - math.Exp(-float64(max(c[i], 0)*exposure))
		out[i] = float32(math.Pow(v, 1/2.2))
	}
	return out
}

// PostProcessColor computes one output pixel: bloom is added to the scene color, the sum is
// tonemapped, graded through the LUT and blended back toward the ungraded value by the scene
// alpha, so background pixels keep their bloom but skip grading.
//
// Parameters:
//   - c: the forward pass color, alpha is scene coverage
//   - bloom: the recombined bloom at this pixel
//   - lut: the grading table, nil for none
//   - p: the exposure and bloom intensity
//
// Returns:
//   - mgl32.Vec4: the final color, alpha 1
func PostProcessColor(c mgl32.Vec4, bloom mgl32.Vec3, lut *LUT3D, p PostParams) mgl32.Vec4 {
	hdr := c.Vec3().Add(bloom.Mul(p.BloomIntensity))
	mapped := Tonemap(hdr, p.Exposure)
	if lut == nil {
		return mapped.Vec4(1)
	}
	graded := lut.Sample(mapped)
	return common.MixVec3(mapped, graded, common.Saturate(c[3])).Vec4(1)
}

// PostProcess runs the final pass over a whole frame. The bloom target may be smaller than
// color; it is sampled bilinearly at each pixel's UV.
//
// Parameters:
//   - color: the forward pass output
//   - bloom: the upscaled bloom, or nil
//   - lut: the grading table, or nil
//   - p: the exposure and bloom intensity
//
// Returns:
//   - *Image: the presented frame
func PostProcess(color, bloom *Image, lut *LUT3D, p PostParams) *Image {
	dst := NewImage(color.Width, color.Height)
	for y := 0; y < color.Height; y++ {
		for x := 0; x < color.Width; x++ {
			var b mgl32.Vec3
			if bloom != nil {
				b = bloom.Sample(color.UV(x, y)).Vec3()
			}
			i := y*color.Width + x
			dst.Pix[i] = PostProcessColor(color.Pix[i], b, lut, p)
		}
	}
	return dst
}
