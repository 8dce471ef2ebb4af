package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTargets holds the size dependent render targets of the frame. With MSAA the forward
// passes draw into msaaColor and resolve into color.
type wgpuTargets struct {
	color     *wgpuTexture
	msaaColor *wgpuTexture
	depth     *wgpuTexture

	mask      *wgpuTexture
	maskDepth *wgpuTexture

	threshold *wgpuTexture
	mips      [postfx.BloomMipCount]*wgpuTexture
	combine   *wgpuTexture
	upscale   *wgpuTexture
	post      *wgpuTexture
}

func (t *wgpuTargets) all() []*wgpuTexture {
	out := []*wgpuTexture{t.color, t.msaaColor, t.depth, t.mask, t.maskDepth, t.threshold, t.combine, t.upscale, t.post}
	return append(out, t.mips[:]...)
}

func (t *wgpuTargets) Release() {
	for _, tex := range t.all() {
		tex.Release()
	}
}

// buildTargets allocates every target of the chain.
func (b *wgpuRendererBackend) buildTargets() (*wgpuTargets, error) {
	t := &wgpuTargets{}
	c := b.chain
	specs := []struct {
		dst     **wgpuTexture
		label   string
		size    Extent
		format  wgpu.TextureFormat
		samples uint32
	}{
		{&t.color, "Color", c.Color, hdrFormat, 1},
		{&t.depth, "Depth", c.Color, depthFormat, b.sampleCount},
		{&t.mask, "Outline Mask", c.Color, maskFormat, 1},
		{&t.maskDepth, "Outline Mask Depth", c.Color, depthFormat, 1},
		{&t.threshold, "Bloom Threshold", c.BloomThreshold, hdrFormat, 1},
		{&t.combine, "Bloom Combine", c.BloomCombine, hdrFormat, 1},
		{&t.upscale, "Bloom Upscale", c.BloomUpscale, hdrFormat, 1},
		{&t.post, "Post", c.Color, postFormat, 1},
	}
	if b.sampleCount > 1 {
		specs = append(specs, struct {
			dst     **wgpuTexture
			label   string
			size    Extent
			format  wgpu.TextureFormat
			samples uint32
		}{&t.msaaColor, "MSAA Color", c.Color, hdrFormat, b.sampleCount})
	}
	for _, s := range specs {
		tex, err := b.createTarget(s.label, s.size, s.format, s.samples)
		if err != nil {
			t.Release()
			return nil, err
		}
		*s.dst = tex
	}
	for i := range t.mips {
		tex, err := b.createTarget(fmt.Sprintf("Bloom Mip %d", i), c.BloomMips[i], hdrFormat, 1)
		if err != nil {
			t.Release()
			return nil, err
		}
		t.mips[i] = tex
	}
	return t, nil
}

// colorAttachment returns the forward pass color attachment. With MSAA the multisampled
// target resolves into the color target at the end of every pass.
func (t *wgpuTargets) colorAttachment(load wgpu.LoadOp, clear wgpu.Color) wgpu.RenderPassColorAttachment {
	a := wgpu.RenderPassColorAttachment{
		View:       t.color.view,
		LoadOp:     load,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
	if t.msaaColor != nil {
		a.View = t.msaaColor.view
		a.ResolveTarget = t.color.view
	}
	return a
}

// wgpuShadowSlot holds the shadow maps of one light set slot and the groups reading them. The
// model group owns the light buffer and both maps.
type wgpuShadowSlot struct {
	light    *wgpu.Buffer
	depth    *wgpuTexture
	variance *wgpuTexture

	depthGroup    bind_group_provider.BindGroupProvider
	varianceGroup bind_group_provider.BindGroupProvider
	modelGroup    bind_group_provider.BindGroupProvider
}

func (s *wgpuShadowSlot) Release() {
	s.depthGroup.Release()
	s.varianceGroup.Release()
	s.modelGroup.Release()
}

// shadowSlot returns the shadow maps of a light set slot, allocating them on first use.
func (b *wgpuRendererBackend) shadowSlot(slot int) (*wgpuShadowSlot, error) {
	if s, ok := b.shadows[slot]; ok {
		return s, nil
	}

	label := fmt.Sprintf("Shadow %d", slot)
	var owned []bind_group_provider.Releaser
	fail := func(err error) (*wgpuShadowSlot, error) {
		for i := len(owned) - 1; i >= 0; i-- {
			owned[i].Release()
		}
		return nil, err
	}

	lightBuf, err := b.createBuffer(label+" Light", wgpu.BufferUsageUniform, nil, light.GPULightUniformsSize)
	if err != nil {
		return fail(err)
	}
	owned = append(owned, lightBuf)
	depth, err := b.createTexture(label+" Depth", b.chain.Shadow, depthFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, 1)
	if err != nil {
		return fail(err)
	}
	owned = append(owned, depth)
	variance, err := b.createTarget(label+" Variance", b.chain.VarianceShadow, varianceFormat, 1)
	if err != nil {
		return fail(err)
	}
	owned = append(owned, variance)

	s := &wgpuShadowSlot{light: lightBuf, depth: depth, variance: variance}
	if s.depthGroup, err = b.bindGroup(label+" Depth", b.pipelines.shadowDepth, 0, map[string]any{"light": lightBuf}); err != nil {
		return fail(err)
	}
	owned = append(owned, s.depthGroup)
	if s.varianceGroup, err = b.bindGroup(label+" Variance", b.pipelines.variance, 0, map[string]any{"shadow_depth": depth.view}); err != nil {
		return fail(err)
	}
	owned = append(owned, s.varianceGroup)
	s.modelGroup, err = b.bindGroup(label+" Model", b.pipelines.reference(false), 2, map[string]any{
		"light":          lightBuf,
		"shadow_moments": variance.view,
		"shadow_sampler": b.linearSampler,
	})
	if err != nil {
		return fail(err)
	}
	s.modelGroup.Own(lightBuf, depth, variance)

	b.shadows[slot] = s
	return s, nil
}
