package postfx

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	_ "github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultLUTSize is the edge length of the identity grading table.
const DefaultLUTSize = 16

// LUT3D is a color grading table indexed by RGB, stored red fastest then green then blue.
type LUT3D struct {
	Size int
	Data []mgl32.Vec3
}

// IdentityLUT returns a table that maps every color to itself.
func IdentityLUT(size int) *LUT3D {
	size = max(size, 2)
	l := &LUT3D{Size: size, Data: make([]mgl32.Vec3, size*size*size)}
	step := 1 / float32(size-1)
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				l.Data[l.index(r, g, b)] = mgl32.Vec3{float32(r) * step, float32(g) * step, float32(b) * step}
			}
		}
	}
	return l
}

func (l *LUT3D) index(r, g, b int) int {
	return (b*l.Size+g)*l.Size + r
}

func (l *LUT3D) at(r, g, b int) mgl32.Vec3 {
	n := l.Size - 1
	return l.Data[l.index(common.Clamp(r, 0, n), common.Clamp(g, 0, n), common.Clamp(b, 0, n))]
}

// Sample looks up c with trilinear filtering. Inputs are clamped to [0, 1].
func (l *LUT3D) Sample(c mgl32.Vec3) mgl32.Vec3 {
	n := float32(l.Size - 1)
	var i [3]int
	var f [3]float32
	for k := 0; k < 3; k++ {
		p := common.Saturate(c[k]) * n
		fl := float32(math.Floor(float64(p)))
		i[k] = int(fl)
		f[k] = p - fl
	}

	c00 := common.MixVec3(l.at(i[0], i[1], i[2]), l.at(i[0]+1, i[1], i[2]), f[0])
	c10 := common.MixVec3(l.at(i[0], i[1]+1, i[2]), l.at(i[0]+1, i[1]+1, i[2]), f[0])
	c01 := common.MixVec3(l.at(i[0], i[1], i[2]+1), l.at(i[0]+1, i[1], i[2]+1), f[0])
	c11 := common.MixVec3(l.at(i[0], i[1]+1, i[2]+1), l.at(i[0]+1, i[1]+1, i[2]+1), f[0])
	c0 := common.MixVec3(c00, c10, f[1])
	c1 := common.MixVec3(c01, c11, f[1])
	return common.MixVec3(c0, c1, f[2])
}

// RGBA8 packs the table into RGBA8 texels for a 3D texture upload.
func (l *LUT3D) RGBA8() []byte {
	out := make([]byte, 0, len(l.Data)*4)
	for _, c := range l.Data {
		out = append(out, quantize(c[0]), quantize(c[1]), quantize(c[2]), 255)
	}
	return out
}

// LUTFromStrip reads a table from a horizontal strip of N tiles of N x N pixels. Tile b holds
// the blue slice b with red along x and green along y.
//
// Parameters:
//   - img: the strip image, N*N pixels wide and N pixels tall
//
// Returns:
//   - *LUT3D: the table
//   - error: if the image is not a valid strip
func LUTFromStrip(img image.Image) (*LUT3D, error) {
	b := img.Bounds()
	n := b.Dy()
	if n < 2 || b.Dx() != n*n {
		return nil, fmt.Errorf("postfx: lut strip is %dx%d, want N*N x N", b.Dx(), b.Dy())
	}
	src := FromImage(img)
	l := &LUT3D{Size: n, Data: make([]mgl32.Vec3, n*n*n)}
	for blue := 0; blue < n; blue++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				l.Data[l.index(r, g, blue)] = src.At(blue*n+r, g).Vec3()
			}
		}
	}
	return l, nil
}

// LoadLUT decodes a strip image (PNG, JPEG or TGA) from disk.
func LoadLUT(path string) (*LUT3D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("postfx: open lut %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("postfx: decode lut %s: %w", path, err)
	}
	return LUTFromStrip(img)
}
