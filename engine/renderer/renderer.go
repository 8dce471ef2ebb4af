package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Surface is the presentation target of the wgpu backend. window.Window implements it.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	model    model.Model
	camera   camera.Camera
	lights   light.Selector
	render   settings.RenderSettings
	skinning settings.SkinningSettings
	options  settings.ModelRenderOptions
	frame    uint64

	// Pre-creation config collected from builder options
	cfg     backendConfig
	surface Surface
}

// Renderer draws one model per frame through the standard frame graph.
//
// Settings setters take effect on the next RenderFrame call. Every frame renders from a
// snapshot of the settings taken when the frame starts.
type Renderer interface {
	// BackendType returns the backend the renderer was created with.
	BackendType() RendererBackendType

	// SetModel replaces the drawn model and uploads it to the backend.
	//
	// Parameters:
	//   - m: the model, or nil to draw nothing
	//
	// Returns:
	//   - error: an upload error from the backend
	SetModel(m model.Model) error

	// Model returns the drawn model.
	Model() model.Model

	// Resize configures the backend for a new surface size without waiting for a running frame.
	// The frame in flight is abandoned at its next pass and returns framegraph.ErrFrameAbandoned;
	// the render target chain is rebuilt when the next frame starts.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes how frames are delivered to the display.
	SetPresentMode(mode PresentMode)

	// SetCamera sets the camera the model passes are drawn from.
	SetCamera(c camera.Camera)

	// SetRenderSettings sets the shading toggles and debug mode of the following frames.
	SetRenderSettings(rs settings.RenderSettings)

	// RenderSettings returns the current shading toggles.
	RenderSettings() settings.RenderSettings

	// SetSkinningSettings sets the skinning toggles of the following frames.
	SetSkinningSettings(ss settings.SkinningSettings)

	// SetRenderOptions sets the mask and outline selection of the following frames.
	SetRenderOptions(opts settings.ModelRenderOptions)

	// SetLightSelector sets the light sets the mesh objects choose from.
	SetLightSelector(s light.Selector)

	// RenderFrame renders and presents one frame.
	//
	// Parameters:
	//   - ctx: cancels the frame before its first pass
	//   - fs: the animated skeleton state, or nil for the rest pose
	//
	// Returns:
	//   - error: a frame graph or pass error
	RenderFrame(ctx context.Context, fs *skeleton.FrameState) error

	// Output returns the last presented frame of the software backend, or nil for the wgpu
	// backend, which presents to its surface.
	Output() *postfx.Image

	// Passes returns the pass names of the last frame in execution order.
	Passes() []string

	// Release frees every backend resource. The renderer cannot be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer with the specified backend type and builder options.
// The wgpu backend needs a surface from WithSurface and panics without one, the same way it
// panics when no GPU device can be created.
//
// Parameters:
//   - backendType: the backend to use
//   - options: a variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the configured renderer
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		render:      settings.DefaultRenderSettings(),
		skinning:    settings.DefaultSkinningSettings(),
		options:     settings.DefaultModelRenderOptions(),
		lights:      light.NewSelector(),
		cfg:         defaultBackendConfig(),
	}

	// Apply options first so config flags (e.g. forceFallback) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.cfg)
	case BackendTypeWGPU:
		fallthrough
	default:
		if r.surface == nil {
			panic("renderer: the wgpu backend needs a surface, use WithSurface")
		}
		r.cfg.width, r.cfg.height = r.surface.Width(), r.surface.Height()
		r.backend = newWGPURendererBackend(r.surface.SurfaceDescriptor(), r.cfg)
	}
	common.Logger().Info("renderer created", "backend", backendType.String(), "width", r.cfg.width, "height", r.cfg.height)
	return r
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) SetModel(m model.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.SetModel(m); err != nil {
		return fmt.Errorf("renderer: set model: %w", err)
	}
	r.model = m
	return nil
}

func (r *renderer) Model() model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	width, height = max(width, 1), max(height, 1)
	r.cfg.width, r.cfg.height = width, height
	if r.camera != nil {
		r.camera.SetAspect(float32(width) / float32(height))
	}
	r.backend.Resize(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetCamera(c camera.Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.camera = c
}

func (r *renderer) SetRenderSettings(rs settings.RenderSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.render = rs.Clamped()
}

func (r *renderer) RenderSettings() settings.RenderSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.render
}

func (r *renderer) SetSkinningSettings(ss settings.SkinningSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skinning = ss
}

func (r *renderer) SetRenderOptions(opts settings.ModelRenderOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = opts
}

func (r *renderer) SetLightSelector(s light.Selector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == nil {
		s = light.NewSelector()
	}
	r.lights = s
}

func (r *renderer) RenderFrame(ctx context.Context, fs *skeleton.FrameState) error {
	r.mu.Lock()
	in := FrameInput{
		Index:          r.frame,
		State:          fs,
		ViewProjection: mgl32.Ident4(),
		Render:         r.render,
		Skinning:       r.skinning,
		Options:        r.options,
		Lights:         r.lights,
	}
	if r.camera != nil {
		in.ViewProjection = r.camera.ViewProjectionMatrix()
		in.CameraPosition = r.camera.Position()
	}
	r.frame++
	backend := r.backend
	r.mu.Unlock()

	return backend.RenderFrame(ctx, in)
}

func (r *renderer) Output() *postfx.Image {
	return r.backend.Output()
}

func (r *renderer) Passes() []string {
	return r.backend.Passes()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
	r.model = nil
}
