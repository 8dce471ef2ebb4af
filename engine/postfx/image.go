// Package postfx implements the screen space chains that run after the forward pass: bloom,
// outline and the final tonemap with color grading.
package postfx

import (
	"image"
	"image/color"
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// Image is a linear float RGBA render target.
type Image struct {
	Width, Height int
	Pix           []mgl32.Vec4
}

// NewImage allocates a cleared image. Each dimension is at least 1.
func NewImage(width, height int) *Image {
	width, height = max(width, 1), max(height, 1)
	return &Image{Width: width, Height: height, Pix: make([]mgl32.Vec4, width*height)}
}

// Fill sets every pixel to c.
func (m *Image) Fill(c mgl32.Vec4) {
	for i := range m.Pix {
		m.Pix[i] = c
	}
}

// At returns the pixel at (x, y) with clamp-to-edge addressing.
func (m *Image) At(x, y int) mgl32.Vec4 {
	x = common.Clamp(x, 0, m.Width-1)
	y = common.Clamp(y, 0, m.Height-1)
	return m.Pix[y*m.Width+x]
}

// Set writes the pixel at (x, y). Out of range writes are ignored.
func (m *Image) Set(x, y int, c mgl32.Vec4) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = c
}

// Sample reads the image at uv with bilinear filtering and clamped addressing.
func (m *Image) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	fx := common.Saturate(uv[0])*float32(m.Width) - 0.5
	fy := common.Saturate(uv[1])*float32(m.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	top := common.MixVec4(m.At(x0, y0), m.At(x0+1, y0), tx)
	bottom := common.MixVec4(m.At(x0, y0+1), m.At(x0+1, y0+1), tx)
	return common.MixVec4(top, bottom, ty)
}

// UV returns the texture coordinate of the center of pixel (x, y).
func (m *Image) UV(x, y int) mgl32.Vec2 {
	return mgl32.Vec2{(float32(x) + 0.5) / float32(m.Width), (float32(y) + 0.5) / float32(m.Height)}
}

// Resize resamples the image to width x height with bilinear filtering.
func Resize(src *Image, width, height int) *Image {
	dst := NewImage(width, height)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			dst.Pix[y*dst.Width+x] = src.Sample(dst.UV(x, y))
		}
	}
	return dst
}

// BoxDownsample averages the source texels under each destination pixel.
func BoxDownsample(src *Image, width, height int) *Image {
	dst := NewImage(width, height)
	sx := float64(src.Width) / float64(dst.Width)
	sy := float64(src.Height) / float64(dst.Height)
	for y := 0; y < dst.Height; y++ {
		y0 := int(math.Floor(float64(y) * sy))
		y1 := max(int(math.Ceil(float64(y+1)*sy)), y0+1)
		for x := 0; x < dst.Width; x++ {
			x0 := int(math.Floor(float64(x) * sx))
			x1 := max(int(math.Ceil(float64(x+1)*sx)), x0+1)
			var sum mgl32.Vec4
			for yy := y0; yy < y1; yy++ {
				for xx := x0; xx < x1; xx++ {
					sum = sum.Add(src.At(xx, yy))
				}
			}
			dst.Pix[y*dst.Width+x] = sum.Mul(1 / float32((x1-x0)*(y1-y0)))
		}
	}
	return dst
}

// ToNRGBA quantizes the image to 8 bits per channel, clamping to [0, 1].
func (m *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c := m.Pix[y*m.Width+x]
			out.SetNRGBA(x, y, color.NRGBA{R: quantize(c[0]), G: quantize(c[1]), B: quantize(c[2]), A: quantize(c[3])})
		}
	}
	return out
}

// FromImage converts a decoded image to linear float values in [0, 1] without any transfer
// function.
func FromImage(img image.Image) *Image {
	rgba := common.ToRGBA(img)
	b := rgba.Bounds()
	out := NewImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := rgba.Pix[i : i+4]
			out.Pix[y*out.Width+x] = mgl32.Vec4{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
		}
	}
	return out
}

func quantize(v float32) uint8 {
	return uint8(common.Saturate(v)*255 + 0.5)
}
