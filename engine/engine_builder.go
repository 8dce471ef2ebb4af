package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/capture"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithTickRate sets the animation tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine reads input from. The renderer should present to the
// same window.
//
// Parameters:
//   - w: an opened Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer frames are drawn with. The engine releases it when Run returns.
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithCamera sets the camera instead of an orbit camera framing the model.
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithAnimator sets the evaluator that poses the model each tick. Without one the model is
// drawn in its rest pose.
func WithAnimator(a animator.Animator) EngineBuilderOption {
	return func(e *engine) {
		e.animator = a
	}
}

// WithLightSelector sets the light sets shared by the viewer and capture renderers.
func WithLightSelector(s light.Selector) EngineBuilderOption {
	return func(e *engine) {
		e.lights = s
	}
}

// WithRenderSettings sets the initial shading toggles and debug mode.
func WithRenderSettings(rs settings.RenderSettings) EngineBuilderOption {
	return func(e *engine) {
		e.render = rs.Clamped()
	}
}

// WithRenderOptions sets the initial mask and outline selection.
func WithRenderOptions(opts settings.ModelRenderOptions) EngineBuilderOption {
	return func(e *engine) {
		e.options = opts
	}
}

// WithKeyBindings replaces DefaultKeyBindings.
//
// Parameters:
//   - bindings: GLFW key codes mapped to viewer actions
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyBindings(bindings map[int]common.KeyAction) EngineBuilderOption {
	return func(e *engine) {
		e.bindings = bindings
	}
}

// WithCapture enables the capture action. Frames are written to dir as a numbered sequence
// named prefix_NNNN in the capturer's format. Options configure the software renderer that
// redraws captures when the viewer renders to a surface.
//
// Parameters:
//   - dir: the output directory, created on the first capture
//   - prefix: the file name prefix
//   - format: the encoder of the sequence
//   - c: the capturer encoding the files
//   - options: builder options of the offscreen renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCapture(dir, prefix string, format capture.Format, c capture.Capturer, options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.capture = &captureState{
			dir:      dir,
			prefix:   prefix,
			format:   format,
			capturer: c,
			options:  options,
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
