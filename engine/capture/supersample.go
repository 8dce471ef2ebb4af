package capture

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample resizes img to width x height with Catmull-Rom filtering in premultiplied
// alpha, so transparent texels do not darken the edges they border.
//
// Parameters:
//   - img: the source image in straight alpha
//   - width: the output width
//   - height: the output height
//
// Returns:
//   - *image.NRGBA: the resized image in straight alpha
func Downsample(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	premul := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			si := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := premul.PixOffset(x, y)
			a := uint32(img.Pix[si+3])
			premul.Pix[di] = uint8((uint32(img.Pix[si])*a + 127) / 255)
			premul.Pix[di+1] = uint8((uint32(img.Pix[si+1])*a + 127) / 255)
			premul.Pix[di+2] = uint8((uint32(img.Pix[si+2])*a + 127) / 255)
			premul.Pix[di+3] = uint8(a)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := dst.Pix[i+3]
		if a > 0 {
			inv := 255 / float64(a)
			out.Pix[i] = clamp8(float64(dst.Pix[i]) * inv)
			out.Pix[i+1] = clamp8(float64(dst.Pix[i+1]) * inv)
			out.Pix[i+2] = clamp8(float64(dst.Pix[i+2]) * inv)
		}
		out.Pix[i+3] = a
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
