package postfx

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// BloomMipCount is the number of blur mips in the bloom chain.
const BloomMipCount = 4

// BloomWeights scale each blur mip during recombination. They sum to 1 so saturated input
// cannot gain energy.
var BloomWeights = [BloomMipCount]float32{0.4, 0.3, 0.2, 0.1}

// BlurKernel is the 3x3 tent filter of the blur downsample, normalized to sum to 1.
var BlurKernel = [3][3]float32{
	{1.0 / 16, 2.0 / 16, 1.0 / 16},
	{2.0 / 16, 4.0 / 16, 2.0 / 16},
	{1.0 / 16, 2.0 / 16, 1.0 / 16},
}

// BloomGamma is the exponent applied after recombination.
const BloomGamma = 1 / 2.2

// BloomParams configure the threshold stage.
type BloomParams struct {
	Threshold float32
	Knee      float32
	// Enabled false clears the threshold target, so every later stage outputs black.
	Enabled bool
}

// DefaultBloomParams returns the threshold used by the viewer.
func DefaultBloomParams() BloomParams {
	return BloomParams{Threshold: 1, Knee: 0.5, Enabled: true}
}

// ThresholdColor keeps the part of c above the threshold with a quadratic soft knee.
// The color is scaled as a whole so its hue is preserved.
//
// Parameters:
//   - c: the HDR color
//   - threshold: the brightness where bloom starts
//   - knee: the width of the soft transition below the threshold
//
// Returns:
//   - mgl32.Vec4: the bloom contribution, alpha 1
func ThresholdColor(c mgl32.Vec4, threshold, knee float32) mgl32.Vec4 {
	brightness := max(c[0], c[1], c[2])
	if brightness <= 0 {
		return mgl32.Vec4{0, 0, 0, 1}
	}
	soft := common.Clamp(brightness-threshold+knee, 0, 2*knee)
	soft = soft * soft / (4*knee + 1e-5)
	contribution := max(soft, brightness-threshold) / max(brightness, 1e-5)
	return mgl32.Vec4{c[0] * contribution, c[1] * contribution, c[2] * contribution, 1}
}

// Threshold applies ThresholdColor to every pixel of src.
func Threshold(src *Image, p BloomParams) *Image {
	dst := NewImage(src.Width, src.Height)
	if !p.Enabled {
		dst.Fill(mgl32.Vec4{0, 0, 0, 1})
		return dst
	}
	for i, c := range src.Pix {
		dst.Pix[i] = ThresholdColor(c, p.Threshold, p.Knee)
	}
	return dst
}

// BlurDownsample halves the image (rounding up) and filters it with BlurKernel centered on the
// source texel under each destination pixel.
func BlurDownsample(src *Image) *Image {
	dst := NewImage(common.CeilDiv(src.Width, 2), common.CeilDiv(src.Height, 2))
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			sx, sy := x*2, y*2
			var sum mgl32.Vec4
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum = sum.Add(src.At(sx+kx, sy+ky).Mul(BlurKernel[ky+1][kx+1]))
				}
			}
			dst.Pix[y*dst.Width+x] = sum
		}
	}
	return dst
}

// Combine resamples each mip to width x height, sums them with weights and gamma encodes
// the result.
//
// Parameters:
//   - mips: the blurred mips
//   - weights: the per mip weights; missing weights count as zero
//   - width, height: the output size
//
// Returns:
//   - *Image: the recombined bloom, alpha 1
func Combine(mips []*Image, weights []float32, width, height int) *Image {
	dst := NewImage(width, height)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			uv := dst.UV(x, y)
			var sum mgl32.Vec3
			for i, mip := range mips {
				if i >= len(weights) {
					break
				}
				sum = sum.Add(mip.Sample(uv).Vec3().Mul(weights[i]))
			}
			dst.Pix[y*dst.Width+x] = gammaEncode(sum).Vec4(1)
		}
	}
	return dst
}

func gammaEncode(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Pow(float64(max(c[0], 0)), BloomGamma)),
		float32(math.Pow(float64(max(c[1], 0)), BloomGamma)),
		float32(math.Pow(float64(max(c[2], 0)), BloomGamma)),
	}
}

// BloomResult holds every target of one run of the bloom chain.
type BloomResult struct {
	Threshold *Image
	Mips      [BloomMipCount]*Image
	Combined  *Image
	Upscaled  *Image
}

// Bloom runs the whole chain on an HDR color target: threshold at a quarter of the viewport,
// four successive blur mips, recombination at the threshold size, and a bilinear upscale to
// half the viewport. Each stage reads only the previous stage's output.
//
// Parameters:
//   - color: the forward pass output
//   - p: the threshold parameters
//
// Returns:
//   - BloomResult: the intermediate and final targets
func Bloom(color *Image, p BloomParams) BloomResult {
	var r BloomResult
	quarter := BoxDownsample(color, common.CeilDiv(color.Width, 4), common.CeilDiv(color.Height, 4))
	r.Threshold = Threshold(quarter, p)
	prev := r.Threshold
	for i := range r.Mips {
		r.Mips[i] = BlurDownsample(prev)
		prev = r.Mips[i]
	}
	r.Combined = Combine(r.Mips[:], BloomWeights[:], r.Threshold.Width, r.Threshold.Height)
	r.Upscaled = Resize(r.Combined, common.CeilDiv(color.Width, 2), common.CeilDiv(color.Height, 2))
	return r
}
