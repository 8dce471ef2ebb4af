package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
)

// Pass names of the standard frame.
const (
	PassSkinning         = "skinning"
	PassRenormal         = "renormal"
	PassDebug            = "model_debug"
	PassShadowDepth      = "shadow_depth"
	PassVarianceShadow   = "variance_shadow"
	PassOutlineMask      = "outline_mask"
	PassBloomThreshold   = "bloom_threshold"
	PassBloomCombine     = "bloom_combine"
	PassBloomUpscale     = "bloom_upscale"
	PassPostProcess      = "post_process"
	PassOutlineComposite = "outline_composite"
	PassFloorGrid        = "floor_grid"
	PassSkeleton         = "skeleton"
	PassPresent          = "present"
)

// ModelPassName returns the name of the forward pass drawing objects of render pass p.
func ModelPassName(p model.RenderPass) string {
	return "model" + p.String()
}

// BloomBlurPassName returns the name of the blur pass producing mip i.
func BloomBlurPassName(i int) string {
	return fmt.Sprintf("bloom_blur_%d", i)
}

// Resource names of the standard frame.
const (
	ResourceFrameState     = "frame_state"
	ResourceSourceVertices = "source_vertices"
	ResourceSkinned        = "skinned_vertices"
	ResourceRenormalized   = "renormalized_vertices"
	ResourceShadowDepth    = "shadow_depth"
	ResourceVarianceShadow = "variance_shadow"
	ResourceOutlineMask    = "outline_mask"
	ResourceBloomThreshold = "bloom_threshold"
	ResourceBloomCombine   = "bloom_combine"
	ResourceBloomUpscale   = "bloom_upscale"
	ResourcePost           = "post_color"
	ResourceOutlined       = "outlined_color"
	ResourceFloorGrid      = "floor_grid_color"
	ResourceSkeleton       = "skeleton_color"
	ResourceSurface        = "surface"
)

// ColorResourceName returns the color target as written by the forward pass of p. Each model
// pass reads the previous version and writes its own so every version has a single producer.
func ColorResourceName(p model.RenderPass) string {
	return "color" + p.String()
}

// DepthResourceName returns the depth target as written by the forward pass of p.
func DepthResourceName(p model.RenderPass) string {
	return "depth" + p.String()
}

// BloomMipResourceName returns the blur mip i.
func BloomMipResourceName(i int) string {
	return fmt.Sprintf("bloom_mip_%d", i)
}

// FramePasses holds the work of every pass of the standard frame. A backend fills in the
// functions and BuildFrameGraph wires them into a graph. Nil functions record the pass without
// running anything.
type FramePasses struct {
	Skinning framegraph.PassFunc
	Renormal framegraph.PassFunc

	// Debug replaces everything after the renormal pass when the frame renders a debug mode.
	Debug framegraph.PassFunc

	ShadowDepth    framegraph.PassFunc
	VarianceShadow framegraph.PassFunc

	// Model is indexed by model.RenderPass.
	Model [4]framegraph.PassFunc

	// FloorGrid blends the ground grid over the opaque pass, depth tested against it.
	FloorGrid framegraph.PassFunc

	OutlineMask      framegraph.PassFunc
	BloomThreshold   framegraph.PassFunc
	BloomBlur        [postfx.BloomMipCount]framegraph.PassFunc
	BloomCombine     framegraph.PassFunc
	BloomUpscale     framegraph.PassFunc
	PostProcess      framegraph.PassFunc
	OutlineComposite framegraph.PassFunc

	// Skeleton draws the bones over the finished image with a cleared depth buffer.
	Skeleton framegraph.PassFunc
	Present  framegraph.PassFunc
}

// BuildFrameGraph declares the resources and passes of one frame in the fixed order
//
//	skinning -> renormal -> shadow depth -> variance shadow -> model opaque -> floor grid
//	-> model far, sort, near -> outline mask -> bloom threshold -> blur x4 -> bloom combine
//	-> bloom upscale -> post process -> outline composite -> skeleton -> present
//
// With debug set, the debug pass follows the renormal pass and writes the surface directly.
//
// Parameters:
//   - g: an empty graph
//   - p: the pass functions
//   - debug: whether the frame renders a debug mode
func BuildFrameGraph(g framegraph.Graph, p FramePasses, debug bool) {
	tex := func(name string) framegraph.ResourceID {
		return g.Create(name, framegraph.ResourceTexture).ID
	}
	buf := func(name string) framegraph.ResourceID {
		return g.Create(name, framegraph.ResourceBuffer).ID
	}
	ids := func(ids ...framegraph.ResourceID) []framegraph.ResourceID {
		return ids
	}

	frameState := g.Import(ResourceFrameState, framegraph.ResourceBuffer).ID
	source := g.Import(ResourceSourceVertices, framegraph.ResourceBuffer).ID
	surface := g.Import(ResourceSurface, framegraph.ResourceTexture).ID

	skinned := buf(ResourceSkinned)
	renormalized := buf(ResourceRenormalized)

	g.AddPass(framegraph.Pass{
		Name:   PassSkinning,
		Kind:   framegraph.PassCompute,
		Reads:  ids(frameState, source),
		Writes: ids(skinned),
		Run:    p.Skinning,
	})
	g.AddPass(framegraph.Pass{
		Name:   PassRenormal,
		Kind:   framegraph.PassCompute,
		Reads:  ids(skinned),
		Writes: ids(renormalized),
		Run:    p.Renormal,
	})

	if debug {
		g.AddPass(framegraph.Pass{
			Name:   PassDebug,
			Kind:   framegraph.PassRender,
			Reads:  ids(renormalized),
			Writes: ids(surface),
			Run:    p.Debug,
		})
		return
	}

	shadowDepth := tex(ResourceShadowDepth)
	variance := tex(ResourceVarianceShadow)
	g.AddPass(framegraph.Pass{
		Name:   PassShadowDepth,
		Kind:   framegraph.PassRender,
		Reads:  ids(renormalized),
		Writes: ids(shadowDepth),
		Run:    p.ShadowDepth,
	})
	g.AddPass(framegraph.Pass{
		Name:   PassVarianceShadow,
		Kind:   framegraph.PassRender,
		Reads:  ids(shadowDepth),
		Writes: ids(variance),
		Run:    p.VarianceShadow,
	})

	var color, depth framegraph.ResourceID
	for rp := model.PassOpaque; rp <= model.PassNear; rp++ {
		nextColor, nextDepth := tex(ColorResourceName(rp)), tex(DepthResourceName(rp))
		reads := ids(renormalized, variance)
		if rp != model.PassOpaque {
			reads = append(reads, color, depth)
		}
		g.AddPass(framegraph.Pass{
			Name:   ModelPassName(rp),
			Kind:   framegraph.PassRender,
			Reads:  reads,
			Writes: ids(nextColor, nextDepth),
			Run:    p.Model[rp],
		})
		color, depth = nextColor, nextDepth

		if rp == model.PassOpaque {
			grid := tex(ResourceFloorGrid)
			g.AddPass(framegraph.Pass{
				Name:   PassFloorGrid,
				Kind:   framegraph.PassRender,
				Reads:  ids(color, depth),
				Writes: ids(grid),
				Run:    p.FloorGrid,
			})
			color = grid
		}
	}

	mask := tex(ResourceOutlineMask)
	g.AddPass(framegraph.Pass{
		Name:   PassOutlineMask,
		Kind:   framegraph.PassRender,
		Reads:  ids(renormalized),
		Writes: ids(mask),
		Run:    p.OutlineMask,
	})

	threshold := tex(ResourceBloomThreshold)
	g.AddPass(framegraph.Pass{
		Name:   PassBloomThreshold,
		Kind:   framegraph.PassRender,
		Reads:  ids(color),
		Writes: ids(threshold),
		Run:    p.BloomThreshold,
	})
	mips := make([]framegraph.ResourceID, postfx.BloomMipCount)
	prev := threshold
	for i := range mips {
		mips[i] = tex(BloomMipResourceName(i))
		g.AddPass(framegraph.Pass{
			Name:   BloomBlurPassName(i),
			Kind:   framegraph.PassRender,
			Reads:  ids(prev),
			Writes: ids(mips[i]),
			Run:    p.BloomBlur[i],
		})
		prev = mips[i]
	}

	combine := tex(ResourceBloomCombine)
	g.AddPass(framegraph.Pass{
		Name:   PassBloomCombine,
		Kind:   framegraph.PassRender,
		Reads:  mips,
		Writes: ids(combine),
		Run:    p.BloomCombine,
	})
	upscale := tex(ResourceBloomUpscale)
	g.AddPass(framegraph.Pass{
		Name:   PassBloomUpscale,
		Kind:   framegraph.PassRender,
		Reads:  ids(combine),
		Writes: ids(upscale),
		Run:    p.BloomUpscale,
	})

	post := tex(ResourcePost)
	g.AddPass(framegraph.Pass{
		Name:   PassPostProcess,
		Kind:   framegraph.PassRender,
		Reads:  ids(color, upscale),
		Writes: ids(post),
		Run:    p.PostProcess,
	})
	outlined := tex(ResourceOutlined)
	g.AddPass(framegraph.Pass{
		Name:   PassOutlineComposite,
		Kind:   framegraph.PassRender,
		Reads:  ids(post, mask),
		Writes: ids(outlined),
		Run:    p.OutlineComposite,
	})
	skel := tex(ResourceSkeleton)
	g.AddPass(framegraph.Pass{
		Name:   PassSkeleton,
		Kind:   framegraph.PassRender,
		Reads:  ids(frameState, outlined),
		Writes: ids(skel),
		Run:    p.Skeleton,
	})
	g.AddPass(framegraph.Pass{
		Name:   PassPresent,
		Kind:   framegraph.PassRender,
		Reads:  ids(skel),
		Writes: ids(surface),
		Run:    p.Present,
	})
}
