// Package capture exports presented frames as WebP or PNG files.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"

	"github.com/HugoSmits86/nativewebp"
)

// ErrUnknownFormat is returned for file extensions without an encoder.
var ErrUnknownFormat = errors.New("capture: unknown image format")

// Format selects the encoder.
type Format int

const (
	FormatWebP Format = iota
	FormatPNG
)

// String returns the file extension of the format without the dot.
func (f Format) String() string {
	if f == FormatPNG {
		return "png"
	}
	return "webp"
}

// FormatFromPath picks the format from a file extension.
//
// Parameters:
//   - path: the output path
//
// Returns:
//   - Format: the format
//   - error: ErrUnknownFormat for extensions other than .webp and .png
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return FormatWebP, nil
	case ".png":
		return FormatPNG, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// SequencePath returns the path of frame i of a numbered sequence, e.g. dir/frame_0007.webp.
func SequencePath(dir, prefix string, i int, f Format) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%04d.%s", prefix, i, f))
}

// capturer is the implementation of the Capturer interface.
type capturer struct {
	format     Format
	downsample int
	width      int
	height     int
}

// Capturer quantizes presented frames to 8 bits and encodes them.
// Frames rendered above the output size are filtered down first.
type Capturer interface {
	// Prepare converts a frame to the output image: quantized, straight alpha, output sized.
	//
	// Parameters:
	//   - frame: the presented frame
	//
	// Returns:
	//   - *image.NRGBA: the output image
	Prepare(frame *postfx.Image) *image.NRGBA

	// Write encodes a frame in the configured format.
	//
	// Parameters:
	//   - w: the destination
	//   - frame: the presented frame
	//
	// Returns:
	//   - error: error if encoding fails
	Write(w io.Writer, frame *postfx.Image) error

	// WriteFile encodes a frame to path. The format follows the file extension and
	// missing parent directories are created.
	//
	// Parameters:
	//   - path: the output path, ending in .webp or .png
	//   - frame: the presented frame
	//
	// Returns:
	//   - error: ErrUnknownFormat or an I/O or encoding error
	WriteFile(path string, frame *postfx.Image) error
}

var _ Capturer = &capturer{}

// NewCapturer creates a new Capturer with the given options applied.
// The default writes WebP at the frame's own size.
//
// Parameters:
//   - options: a variadic list of CapturerBuilderOption functions
//
// Returns:
//   - Capturer: the configured capturer
func NewCapturer(options ...CapturerBuilderOption) Capturer {
	c := &capturer{format: FormatWebP, downsample: 1}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *capturer) Prepare(frame *postfx.Image) *image.NRGBA {
	img := frame.ToNRGBA()
	w, h := c.outputSize(frame.Width, frame.Height)
	if w == frame.Width && h == frame.Height {
		return img
	}
	return Downsample(img, w, h)
}

func (c *capturer) outputSize(w, h int) (int, int) {
	if c.width > 0 && c.height > 0 {
		return c.width, c.height
	}
	return max(w/c.downsample, 1), max(h/c.downsample, 1)
}

func (c *capturer) Write(w io.Writer, frame *postfx.Image) error {
	return encode(w, c.Prepare(frame), c.format)
}

func (c *capturer) WriteFile(path string, frame *postfx.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	img := c.Prepare(frame)
	if err := encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	common.Logger().Info("frame captured", "path", path, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return nil
}

func encode(w io.Writer, img *image.NRGBA, format Format) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	default:
		err = nativewebp.Encode(w, img, nil)
	}
	if err != nil {
		return fmt.Errorf("capture: encode %s: %w", format, err)
	}
	return nil
}
