package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/overlay"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameInput is the snapshot of everything one frame reads. The Renderer captures it under its
// lock so a frame never observes settings changed halfway through.
type FrameInput struct {
	Index uint64

	// State holds the animated bone transforms. Nil renders the rest pose.
	State *skeleton.FrameState

	ViewProjection mgl32.Mat4
	CameraPosition mgl32.Vec3

	Render   settings.RenderSettings
	Skinning settings.SkinningSettings
	Options  settings.ModelRenderOptions
	Lights   light.Selector
}

// OutlineParams configure the outline chain.
type OutlineParams struct {
	Color   mgl32.Vec4
	Radius  int
	Pattern postfx.Pattern
}

// DefaultOutlineParams returns a two pixel yellow cross outline.
func DefaultOutlineParams() OutlineParams {
	return OutlineParams{Color: mgl32.Vec4{1, 1, 0, 1}, Radius: 2, Pattern: postfx.PatternCross}
}

// backendConfig is the construction time configuration shared by every backend.
type backendConfig struct {
	width   int
	height  int
	scale   float32
	workers int
	strict  bool

	clearColor mgl32.Vec4
	bloom      postfx.BloomParams
	post       postfx.PostParams
	lut        *postfx.LUT3D
	outline    OutlineParams
	boneRadius float32
	profiler   *profiler.Profiler

	presentMode   PresentMode
	msaa          MSAASampleCount
	forceFallback bool
}

func defaultBackendConfig() backendConfig {
	return backendConfig{
		width:       1280,
		height:      720,
		scale:       1,
		clearColor:  mgl32.Vec4{0.25, 0.25, 0.25, 1},
		bloom:       postfx.DefaultBloomParams(),
		post:        postfx.DefaultPostParams(),
		outline:     DefaultOutlineParams(),
		presentMode: PresentModeVSync,
		msaa:        MSAAOff,
	}
}

// backgroundColor is the clear color of the model passes. Alpha 0 marks background pixels so
// the post pass leaves them ungraded.
func (c backendConfig) backgroundColor() mgl32.Vec4 {
	return mgl32.Vec4{c.clearColor[0], c.clearColor[1], c.clearColor[2], 0}
}

// skeletonOverlay builds the skeleton overlay of a frame, or an empty mesh when neither bones
// nor axes are enabled.
func (c backendConfig) skeletonOverlay(m model.Model, state *skeleton.FrameState, opts settings.ModelRenderOptions) overlay.Mesh {
	if !opts.DrawSkeleton() || m == nil || m.Skeleton() == nil || state == nil {
		return overlay.Mesh{}
	}
	radius := c.boneRadius
	if radius <= 0 {
		radius = overlay.BoneRadius(m.Bounds())
	}
	return overlay.BuildSkeleton(m.Skeleton(), state.World, overlay.SkeletonOptions{
		Bones:  opts.DrawBones,
		Axes:   opts.DrawBoneAxes,
		Radius: radius,
	})
}
