package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

func wgpuColor(c mgl32.Vec4) wgpu.Color {
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

func workgroupSize(p pipeline.Pipeline) uint32 {
	return p.Shader(shader.ShaderTypeCompute).WorkgroupSize()[0]
}

// dispatch records one compute pass per mesh with the group chosen by pick.
func (b *wgpuRendererBackend) dispatch(f *wgpuFrame, p pipeline.Pipeline, pick func(*wgpuMesh) bind_group_provider.BindGroupProvider) {
	size := workgroupSize(p)
	for _, m := range b.meshes {
		group := pick(m)
		if group == nil {
			continue
		}
		pass := f.encoder.BeginComputePass(nil)
		pass.SetPipeline(p.ComputePipeline())
		pass.SetBindGroup(0, group.BindGroup(), nil)
		pass.DispatchWorkgroups(m.workgroups(size), 1, 1)
		pass.End()
	}
}

func (b *wgpuRendererBackend) skin(f *wgpuFrame) error {
	b.writeSkinning(f)
	b.dispatch(f, b.pipelines.skinning, func(m *wgpuMesh) bind_group_provider.BindGroupProvider {
		return m.skinned.Current().skinning
	})
	return nil
}

// renormal runs over every mesh. The kernel copies the skinned vertices into the draw stream
// and smooths normals only for objects that ask for it.
func (b *wgpuRendererBackend) renormal(f *wgpuFrame) error {
	b.dispatch(f, b.pipelines.renormal, func(m *wgpuMesh) bind_group_provider.BindGroupProvider {
		return m.skinned.Current().renormal
	})
	return nil
}

// drawMesh binds the draw streams the mesh's skin slot wrote this frame and issues its indexed
// draw. Only the listed vertex slots are bound; without any, every stream is bound.
func drawMesh(pass *wgpu.RenderPassEncoder, m *wgpuMesh, slots ...int) {
	stream := m.stream()
	if len(slots) == 0 {
		slots = stream.VertexSlots()
	}
	for _, slot := range slots {
		pass.SetVertexBuffer(uint32(slot), stream.VertexBuffer(slot), 0, wgpu.WholeSize)
	}
	pass.SetIndexBuffer(stream.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(stream.IndexCount()), 1, 0, 0, 0)
}

func (b *wgpuRendererBackend) lightSlot(f *wgpuFrame, m *wgpuMesh) int {
	return f.lights.Slot(m.obj.LightSet)
}

// drawShadowDepth renders every shadow caster into the depth map of each light set slot in
// use.
func (b *wgpuRendererBackend) drawShadowDepth(f *wgpuFrame) error {
	seen := make(map[int]bool)
	for _, m := range b.meshes {
		slot := b.lightSlot(f, m)
		if !f.filter.drawn(m.obj) || seen[slot] {
			continue
		}
		seen[slot] = true

		s, err := b.shadowSlot(slot)
		if err != nil {
			return err
		}
		uniforms := light.NewGPULightUniforms(f.sets[slot])
		b.queue.WriteBuffer(s.light, 0, uniforms.Marshal())

		pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: fmt.Sprintf("Shadow Depth %d", slot),
			DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
				View:            s.depth.view,
				DepthLoadOp:     wgpu.LoadOpClear,
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: 1.0,
			},
		})
		pass.SetPipeline(b.pipelines.shadowDepth.RenderPipeline())
		pass.SetBindGroup(0, s.depthGroup.BindGroup(), nil)
		for _, caster := range b.meshes {
			if caster.obj.CastsShadow && f.filter.drawn(caster.obj) {
				drawMesh(pass, caster, 0)
			}
		}
		pass.End()
		f.shadowed = append(f.shadowed, slot)
	}
	return nil
}

// varianceShadow turns each rendered depth map into its moment map.
func (b *wgpuRendererBackend) varianceShadow(f *wgpuFrame) error {
	for _, slot := range f.shadowed {
		s := b.shadows[slot]
		b.drawFullscreen(f, s.variance, b.pipelines.variance, s.varianceGroup, fmt.Sprintf("Variance Shadow %d", slot))
	}
	return nil
}

// drawModel draws the meshes of one render pass. The opaque pass clears color and depth; the
// later passes load them.
func (b *wgpuRendererBackend) drawModel(f *wgpuFrame, rp model.RenderPass) error {
	load := wgpu.LoadOpLoad
	if rp == model.PassOpaque {
		load = wgpu.LoadOpClear
	}
	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Model" + rp.String(),
		ColorAttachments: []wgpu.RenderPassColorAttachment{b.targets.colorAttachment(load, wgpuColor(b.cfg.backgroundColor()))},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.depth.view,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	defer pass.End()

	frustum := common.ExtractFrustum(f.in.ViewProjection)
	for _, m := range meshesInPass(b.meshes, rp, f.filter, f.in.CameraPosition) {
		if culled(m.obj, frustum) {
			continue
		}
		s, err := b.shadowSlot(b.lightSlot(f, m))
		if err != nil {
			return err
		}
		pass.SetPipeline(b.pipelines.forward(m.mat).RenderPipeline())
		pass.SetBindGroup(0, b.frameGroup.BindGroup(), nil)
		pass.SetBindGroup(1, m.material.BindGroup(), nil)
		pass.SetBindGroup(2, s.modelGroup.BindGroup(), nil)
		drawMesh(pass, m)
	}
	return nil
}

// drawFloorGrid blends the ground grid into the opaque color and depth. The program expands
// the quad from the vertex index and fades the lines with their screen space width.
func (b *wgpuRendererBackend) drawFloorGrid(f *wgpuFrame) error {
	if !f.in.Options.DrawFloorGrid {
		return nil
	}
	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Floor Grid",
		ColorAttachments: []wgpu.RenderPassColorAttachment{b.targets.colorAttachment(wgpu.LoadOpLoad, wgpu.Color{})},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:         b.targets.depth.view,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		},
	})
	pass.SetPipeline(b.pipelines.floorGrid.RenderPipeline())
	pass.SetBindGroup(0, b.gridFrameGroup.BindGroup(), nil)
	pass.Draw(6, 1, 0, 0)
	pass.End()
	return nil
}

// drawDebug draws every drawn mesh with the debug program straight into the surface, then
// submits and presents the frame.
func (b *wgpuRendererBackend) drawDebug(f *wgpuFrame) error {
	if err := b.acquireSurface(f); err != nil {
		return err
	}
	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Model Debug",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       f.surfaceView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpuColor(b.cfg.clearColor),
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.maskDepth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	for rp := model.PassOpaque; rp <= model.PassNear; rp++ {
		for _, m := range meshesInPass(b.meshes, rp, f.filter, f.in.CameraPosition) {
			pass.SetPipeline(b.pipelines.forwardDebug(m.mat).RenderPipeline())
			pass.SetBindGroup(0, b.debugFrameGroup.BindGroup(), nil)
			pass.SetBindGroup(1, m.debugMaterial.BindGroup(), nil)
			drawMesh(pass, m)
		}
	}
	pass.End()
	return b.present(f)
}

// drawOutlineMask renders the coverage of the outlined meshes into the mask target.
func (b *wgpuRendererBackend) drawOutlineMask(f *wgpuFrame) error {
	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Outline Mask",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    b.targets.mask.view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.maskDepth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(b.pipelines.outlineMask.RenderPipeline())
	pass.SetBindGroup(0, b.maskFrameGroup.BindGroup(), nil)
	for _, m := range b.meshes {
		if f.filter.outlined(m.obj) {
			drawMesh(pass, m, 0)
		}
	}
	pass.End()
	return nil
}

func (b *wgpuRendererBackend) bloomThreshold(f *wgpuFrame) error {
	return b.fullscreen(f, b.targets.threshold.view, b.pipelines.threshold, "Bloom Threshold", map[string]any{
		"color": b.targets.color.view,
		"bloom": b.bloomBuffer,
	})
}

func (b *wgpuRendererBackend) bloomBlur(f *wgpuFrame, i int) error {
	src := b.targets.threshold
	if i > 0 {
		src = b.targets.mips[i-1]
	}
	return b.fullscreen(f, b.targets.mips[i].view, b.pipelines.blur, fmt.Sprintf("Bloom Blur %d", i), map[string]any{
		"source": src.view,
	})
}

func (b *wgpuRendererBackend) bloomCombine(f *wgpuFrame) error {
	resources := map[string]any{"linear_sampler": b.linearSampler}
	for i := range postfx.BloomMipCount {
		resources[fmt.Sprintf("mip%d", i)] = b.targets.mips[i].view
	}
	return b.fullscreen(f, b.targets.combine.view, b.pipelines.combine, "Bloom Combine", resources)
}

func (b *wgpuRendererBackend) bloomUpscale(f *wgpuFrame) error {
	return b.fullscreen(f, b.targets.upscale.view, b.pipelines.upscale, "Bloom Upscale", map[string]any{
		"source":         b.targets.combine.view,
		"linear_sampler": b.linearSampler,
	})
}

func (b *wgpuRendererBackend) postProcess(f *wgpuFrame) error {
	return b.fullscreen(f, b.targets.post.view, b.pipelines.post, "Post Process", map[string]any{
		"color":          b.targets.color.view,
		"bloom_color":    b.targets.upscale.view,
		"linear_sampler": b.linearSampler,
		"lut":            b.lut.view,
		"post":           b.postBuffer,
	})
}

// outlineComposite is the last pass of the frame and the only one writing the surface.
func (b *wgpuRendererBackend) outlineComposite(f *wgpuFrame) error {
	if err := b.acquireSurface(f); err != nil {
		return err
	}
	return b.fullscreen(f, f.surfaceView, b.pipelines.composite, "Outline Composite", map[string]any{
		"color":   b.targets.post.view,
		"mask":    b.targets.mask.view,
		"outline": b.outlineBuffer,
	})
}

// drawSkeleton draws the skeleton overlay over the composited surface. The mesh is rebuilt on
// the CPU every frame and its buffers live until the frame is released.
func (b *wgpuRendererBackend) drawSkeleton(f *wgpuFrame) error {
	mesh := b.cfg.skeletonOverlay(b.model, f.state, f.in.Options)
	if mesh.Empty() {
		return nil
	}
	if err := b.acquireSurface(f); err != nil {
		return err
	}
	vertices, err := b.createBuffer("Skeleton Vertices", wgpu.BufferUsageVertex, mesh.MarshalVertices(), 0)
	if err != nil {
		return err
	}
	indices, err := b.createBuffer("Skeleton Indices", wgpu.BufferUsageIndex, mesh.MarshalIndices(), 0)
	if err != nil {
		vertices.Release()
		return err
	}
	stream := bind_group_provider.NewBindGroupProvider("Skeleton")
	stream.SetVertexBuffer(0, vertices)
	stream.SetIndexBuffer(indices, len(mesh.Indices))
	stream.Own(vertices, indices)
	f.transient = append(f.transient, stream)

	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Skeleton",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    f.surfaceView,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.maskDepth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass.SetPipeline(b.pipelines.skeleton.RenderPipeline())
	pass.SetBindGroup(0, b.skeletonFrameGroup.BindGroup(), nil)
	pass.SetVertexBuffer(0, stream.VertexBuffer(0), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(stream.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(stream.IndexCount()), 1, 0, 0, 0)
	pass.End()
	return nil
}

// present submits the frame's commands and presents the surface texture.
func (b *wgpuRendererBackend) present(f *wgpuFrame) error {
	commandBuffer, err := f.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	f.encoder.Release()
	f.encoder = nil

	if f.surfaceTexture != nil {
		b.surface.Present()
	}
	f.release()
	return nil
}

// acquireSurface fetches the surface texture of the frame once.
func (b *wgpuRendererBackend) acquireSurface(f *wgpuFrame) error {
	if f.surfaceView != nil {
		return nil
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("acquire surface: %w", err)
	}
	f.surfaceTexture, f.surfaceView = surfaceTexture, view
	return nil
}

// fullscreen creates a group of p for this frame only and draws a full-screen triangle into
// target with it.
func (b *wgpuRendererBackend) fullscreen(f *wgpuFrame, target *wgpu.TextureView, p pipeline.Pipeline, label string, resources map[string]any) error {
	group, err := b.bindGroup(label, p, 0, resources)
	if err != nil {
		return err
	}
	f.transient = append(f.transient, group)
	b.drawFullscreenView(f, target, p, group, label)
	return nil
}

func (b *wgpuRendererBackend) drawFullscreen(f *wgpuFrame, target *wgpuTexture, p pipeline.Pipeline, group bind_group_provider.BindGroupProvider, label string) {
	b.drawFullscreenView(f, target.view, p, group, label)
}

func (b *wgpuRendererBackend) drawFullscreenView(f *wgpuFrame, target *wgpu.TextureView, p pipeline.Pipeline, group bind_group_provider.BindGroupProvider, label string) {
	pass := f.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    target,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(p.RenderPipeline())
	pass.SetBindGroup(0, group.BindGroup(), nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
}
