package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSurface sets the window the wgpu backend presents to. Its size becomes the initial
// surface size.
//
// Parameters:
//   - s: the presentation surface
//
// Returns:
//   - RendererBuilderOption: a function that applies the surface option to a renderer
func WithSurface(s Surface) RendererBuilderOption {
	return func(r *renderer) {
		r.surface = s
	}
}

// WithSize sets the initial target size of backends without a surface.
func WithSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.width, r.cfg.height = max(width, 1), max(height, 1)
	}
}

// WithScaleFactor sets the window scale factor the bloom chain is sized by.
func WithScaleFactor(scale float32) RendererBuilderOption {
	return func(r *renderer) {
		if scale > 0 {
			r.cfg.scale = scale
		}
	}
}

// WithWorkers sets the worker count of the software backend's kernel pool.
// Zero or negative values use the pool default.
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.workers = n
	}
}

// WithStrictBarriers makes a frame graph barrier violation panic instead of failing the frame.
func WithStrictBarriers(strict bool) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.strict = strict
	}
}

// WithClearColor sets the background color. Background pixels skip color grading.
func WithClearColor(c mgl32.Vec4) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.clearColor = c
	}
}

// WithBoneRadius sets the bone sphere radius of the skeleton overlay in world units. Zero or
// negative values size the bones from the model bounds.
func WithBoneRadius(radius float32) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.boneRadius = radius
	}
}

// WithLUT sets the color grading table of the post-process pass. Nil grades with identity.
//
// Parameters:
//   - lut: the 3D lookup table
//
// Returns:
//   - RendererBuilderOption: a function that applies the grading table to a renderer
func WithLUT(lut *postfx.LUT3D) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.lut = lut
	}
}

// WithOutline configures the outline drawn around the selected mesh objects.
func WithOutline(p OutlineParams) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.outline = p
	}
}

// WithBloom configures the bloom threshold.
func WithBloom(p postfx.BloomParams) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.bloom = p
	}
}

// WithPostParams sets the exposure and bloom intensity of the post-process pass.
func WithPostParams(p postfx.PostParams) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.post = p
	}
}

// WithProfiler reports pass timings and frame statistics to p.
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.profiler = p
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count of the wgpu model passes.
// When not specified, MSAA is off.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.msaa = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). It does not select BackendTypeSoftware.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.forceFallback = force
	}
}

// ConfigOptions converts a resolved viewer config into builder options. It loads the
// config's grading table when one is named.
//
// Parameters:
//   - cfg: a config after Resolve and Validate
//
// Returns:
//   - []RendererBuilderOption: options for NewRenderer
//   - error: a LUT load or outline pattern error
func ConfigOptions(cfg settings.Config) ([]RendererBuilderOption, error) {
	pattern, err := postfx.ParsePattern(cfg.OutlinePattern)
	if err != nil {
		return nil, fmt.Errorf("renderer: config: %w", err)
	}

	opts := []RendererBuilderOption{
		WithSize(cfg.Width, cfg.Height),
		WithScaleFactor(cfg.ScaleFactor),
		WithWorkers(cfg.Workers),
		WithClearColor(mgl32.Vec4(cfg.ClearColor)),
		WithPresentMode(ParsePresentMode(cfg.PresentMode)),
		WithMSAA(MSAASampleCount(cfg.MSAA)),
		WithOutline(OutlineParams{
			Color:   mgl32.Vec4(cfg.OutlineColor),
			Radius:  cfg.OutlineRadius,
			Pattern: pattern,
		}),
		WithBloom(postfx.BloomParams{Threshold: cfg.BloomThreshold, Knee: cfg.BloomKnee, Enabled: true}),
		WithPostParams(postfx.PostParams{Exposure: cfg.Exposure, BloomIntensity: cfg.BloomIntensity}),
		WithBoneRadius(cfg.BoneRadius),
	}
	if cfg.LUTPath != "" {
		lut, err := postfx.LoadLUT(cfg.LUTPath)
		if err != nil {
			return nil, fmt.Errorf("renderer: config: %w", err)
		}
		opts = append(opts, WithLUT(lut))
	}
	return opts, nil
}
