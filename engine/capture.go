package engine

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-viewer/engine/capture"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// captureState holds the numbered screenshot sequence of the viewer.
type captureState struct {
	requested atomic.Bool

	dir      string
	prefix   string
	format   capture.Format
	capturer capture.Capturer
	next     int

	// Surface backends keep no CPU copy of the frame, so captures are redrawn on a software
	// renderer created with these options.
	options   []renderer.RendererBuilderOption
	offscreen renderer.Renderer
	model     model.Model
}

// frameSource returns a renderer whose Output holds the current frame. For the software
// backend that is the viewer's renderer itself.
func (e *engine) frameSource(ctx context.Context) (renderer.Renderer, error) {
	if e.renderer.Output() != nil {
		return e.renderer, nil
	}

	c := e.capture
	width, height := max(e.window.Width(), 1), max(e.window.Height(), 1)
	if c.offscreen == nil {
		opts := append(append([]renderer.RendererBuilderOption(nil), c.options...), renderer.WithSize(width, height))
		c.offscreen = renderer.NewRenderer(renderer.BackendTypeSoftware, opts...)
	} else {
		c.offscreen.Resize(width, height)
	}
	if m := e.renderer.Model(); m != c.model {
		if err := c.offscreen.SetModel(m); err != nil {
			return nil, err
		}
		c.model = m
	}

	e.mu.Lock()
	rs, opts := e.render, e.options
	e.mu.Unlock()
	c.offscreen.SetCamera(e.camera)
	c.offscreen.SetRenderSettings(rs)
	c.offscreen.SetRenderOptions(opts)
	if e.lights != nil {
		c.offscreen.SetLightSelector(e.lights)
	}
	if err := c.offscreen.RenderFrame(ctx, e.frameState()); err != nil {
		return nil, err
	}
	return c.offscreen, nil
}

// writeCapture writes the current frame as the next file of the capture sequence.
//
// Parameters:
//   - ctx: cancels an offscreen redraw
//
// Returns:
//   - string: the written path
//   - error: a render or encode error
func (e *engine) writeCapture(ctx context.Context) (string, error) {
	c := e.capture
	src, err := e.frameSource(ctx)
	if err != nil {
		return "", fmt.Errorf("engine: capture: %w", err)
	}
	frame := src.Output()
	if frame == nil {
		return "", fmt.Errorf("engine: capture: no frame")
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("engine: capture: %w", err)
	}
	path := capture.SequencePath(c.dir, c.prefix, c.next, c.format)
	if err := c.capturer.WriteFile(path, frame); err != nil {
		return "", err
	}
	c.next++
	return path, nil
}

// releaseCapture frees the offscreen renderer.
func (e *engine) releaseCapture() {
	if e.capture != nil && e.capture.offscreen != nil {
		e.capture.offscreen.Release()
		e.capture.offscreen = nil
	}
}
