package postfx

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// Pattern selects the neighborhood sampled by Dilate.
type Pattern int

const (
	// PatternCross samples the horizontal and vertical axes only.
	PatternCross Pattern = iota
	// PatternBox samples the full square.
	PatternBox
)

// ParsePattern maps "cross" or "box" to a Pattern.
func ParsePattern(name string) (Pattern, error) {
	switch name {
	case "cross", "":
		return PatternCross, nil
	case "box":
		return PatternBox, nil
	default:
		return PatternCross, fmt.Errorf("postfx: unknown outline pattern %q", name)
	}
}

// Mask is a single channel coverage target in [0, 1].
type Mask struct {
	Width, Height int
	Values        []float32
}

// NewMask allocates an empty mask. Each dimension is at least 1.
func NewMask(width, height int) *Mask {
	width, height = max(width, 1), max(height, 1)
	return &Mask{Width: width, Height: height, Values: make([]float32, width*height)}
}

// At returns the coverage at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Values[y*m.Width+x]
}

// Set writes the coverage at (x, y). Out of range writes are ignored.
func (m *Mask) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Values[y*m.Width+x] = v
}

// OutlineMask builds a coverage mask from the alpha of an isolated render of the outlined
// geometry.
func OutlineMask(isolated *Image) *Mask {
	m := NewMask(isolated.Width, isolated.Height)
	for i, c := range isolated.Pix {
		m.Values[i] = common.Saturate(c[3])
	}
	return m
}

// Dilate grows the mask by radius pixels. Each output pixel sums the coverage of its
// neighborhood and clamps the sum to 1.
//
// Parameters:
//   - src: the original mask
//   - radius: the dilation radius in pixels; 0 copies the mask
//   - pattern: the neighborhood shape
//
// Returns:
//   - *Mask: the dilated mask
func Dilate(src *Mask, radius int, pattern Pattern) *Mask {
	dst := NewMask(src.Width, src.Height)
	radius = max(radius, 0)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			var sum float32
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if pattern == PatternCross && dx != 0 && dy != 0 {
						continue
					}
					sum += src.At(x+dx, y+dy)
				}
			}
			dst.Values[y*dst.Width+x] = min(sum, 1)
		}
	}
	return dst
}

// CompositeOutline writes color into dst where the dilated mask is covered and the original is
// not, producing a ring around the geometry. The outline alpha blends over dst. Masks of a
// different size than dst are sampled at the matching UV.
//
// Parameters:
//   - dst: the frame to draw into
//   - original: the undilated mask
//   - dilated: the dilated mask
//   - color: the outline color
func CompositeOutline(dst *Image, original, dilated *Mask, color mgl32.Vec4) {
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			ox, oy := scaleCoord(x, dst.Width, original.Width), scaleCoord(y, dst.Height, original.Height)
			dx, dy := scaleCoord(x, dst.Width, dilated.Width), scaleCoord(y, dst.Height, dilated.Height)
			if dilated.At(dx, dy) <= 0 || original.At(ox, oy) != 0 {
				continue
			}
			i := y*dst.Width + x
			c := dst.Pix[i]
			blended := common.MixVec3(c.Vec3(), color.Vec3(), color[3])
			dst.Pix[i] = blended.Vec4(c[3])
		}
	}
}

func scaleCoord(v, from, to int) int {
	if from == to {
		return v
	}
	return v * to / from
}
