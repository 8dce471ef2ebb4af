// package common contains small shared types and helpers used throughout the engine. They are plain structs and
// functions rather than interface-wrapped types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	_ "github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// The BindGroupProvider stages these before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is tightly packed pixel data, 4 bytes per pixel for RGBA8 or 8 bytes for RG32Float.
	Pixels []byte
	Width  uint32
	Height uint32
	// Format overrides the default RGBA8UnormSrgb format when non-zero.
	Format wgpu.TextureFormat
	// Depth is the number of slices for 3D textures (color grading LUTs). Zero means a 2D texture.
	Depth uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode outside [0, 1].
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the level of detail range.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// ImportedTexture is texture data handed over by an asset loader.
// For embedded textures the Data field contains the encoded image bytes.
// For external textures the Path field points at the file on disk.
type ImportedTexture struct {
	// Name identifies the texture (for example "col", "nor", "prm").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains encoded image bytes (PNG, JPEG or TGA) for embedded textures.
	Data []byte

	// MimeType indicates the image format when known.
	MimeType string

	// Image holds pixels generated by the loader. It takes precedence over Data and Path.
	Image *image.RGBA

	// Width and Height are populated after Decode.
	Width, Height int

	// SamplerData overrides the default linear/repeat sampler when non-nil.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture to an RGBA image.
// PNG, JPEG and TGA are supported.
//
// Returns:
//   - *image.RGBA: the decoded pixels, origin at (0, 0)
//   - error: error if the texture has no source or decoding fails
func (t *ImportedTexture) Decode() (*image.RGBA, error) {
	if t == nil {
		return nil, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	switch {
	case t.Image != nil:
		img = t.Image
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded image %q: %w", t.Name, err)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	default:
		return nil, fmt.Errorf("texture %q has neither data nor path", t.Name)
	}

	rgba := ToRGBA(img)
	t.Width = rgba.Rect.Dx()
	t.Height = rgba.Rect.Dy()
	return rgba, nil
}

// ToRGBA converts any image to a zero-origin *image.RGBA, reusing it when already in that form.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// Staging converts an RGBA image to texture staging data.
func Staging(img *image.RGBA) TextureStagingData {
	return TextureStagingData{
		Pixels: img.Pix,
		Width:  uint32(img.Rect.Dx()),
		Height: uint32(img.Rect.Dy()),
	}
}
