package renderer

import (
	"context"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend. It presents to a window surface.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU backend built on the kernel worker pool and the
	// tiled rasterizer. It renders into an image returned by Output.
	BackendTypeSoftware
)

// String returns the config name of the backend.
func (t RendererBackendType) String() string {
	if t == BackendTypeSoftware {
		return "software"
	}
	return "wgpu"
}

// ParseBackendType maps a config name to a backend type. Unknown names select wgpu.
func ParseBackendType(name string) RendererBackendType {
	if name == "software" {
		return BackendTypeSoftware
	}
	return BackendTypeWGPU
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps "fifo" and "immediate" to a PresentMode. Unknown names select VSync.
func ParsePresentMode(name string) PresentMode {
	if name == "immediate" || name == "uncapped" {
		return PresentModeUncapped
	}
	return PresentModeVSync
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing of the model passes.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend is implemented by every backend. The Renderer serializes calls into it.
type RendererBackend interface {
	// SetModel uploads the geometry, materials and textures of m and allocates its skinned
	// vertex buffers. A nil model clears the scene.
	//
	// Parameters:
	//   - m: the model, or nil
	//
	// Returns:
	//   - error: if the model cannot be uploaded
	SetModel(m model.Model) error

	// Resize abandons any in-flight frame and rebuilds the render target chain.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// SetPresentMode changes how frames reach the display. The software backend ignores it.
	SetPresentMode(mode PresentMode)

	// RenderFrame builds, compiles and executes the frame graph for one frame.
	//
	// Parameters:
	//   - ctx: cancels the frame before its first pass
	//   - in: the per-frame inputs
	//
	// Returns:
	//   - error: a barrier violation or the first pass error
	RenderFrame(ctx context.Context, in FrameInput) error

	// Output returns the last presented frame, or nil for backends that present to a surface.
	Output() *postfx.Image

	// Passes returns the pass names of the last compiled frame in execution order.
	Passes() []string

	// Release frees every backend resource.
	Release()
}
