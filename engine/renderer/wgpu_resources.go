package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is a texture with the default view over all of it.
type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTexture) Release() {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

// createTexture allocates a 2D texture and its view.
//
// Parameters:
//   - label: the debug label
//   - size: the extent in pixels
//   - format: the texel format
//   - usage: the texture usage flags
//   - samples: the multisample count
//
// Returns:
//   - *wgpuTexture: the texture
//   - error: if the device rejects the texture
func (b *wgpuRendererBackend) createTexture(label string, size Extent, format wgpu.TextureFormat, usage wgpu.TextureUsage, samples uint32) (*wgpuTexture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(max(size.Width, 1)),
			Height:             uint32(max(size.Height, 1)),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   max(samples, 1),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view %s: %w", label, err)
	}
	return &wgpuTexture{texture: tex, view: view}, nil
}

// createTarget allocates a render target that later passes sample.
func (b *wgpuRendererBackend) createTarget(label string, size Extent, format wgpu.TextureFormat, samples uint32) (*wgpuTexture, error) {
	usage := wgpu.TextureUsageRenderAttachment
	if samples <= 1 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	return b.createTexture(label, size, format, usage, samples)
}

// uploadTexture creates a sampled texture from staging data. A non-zero Depth creates a 3D
// texture. The format defaults to RGBA8UnormSrgb.
func (b *wgpuRendererBackend) uploadTexture(label string, staging common.TextureStagingData) (*wgpuTexture, error) {
	format := common.Coalesce(staging.Format, wgpu.TextureFormatRGBA8UnormSrgb)
	dimension := wgpu.TextureDimension2D
	depth := uint32(1)
	if staging.Depth > 0 {
		dimension = wgpu.TextureDimension3D
		depth = staging.Depth
	}
	size := wgpu.Extent3D{
		Width:              max(staging.Width, 1),
		Height:             max(staging.Height, 1),
		DepthOrArrayLayers: depth,
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     dimension,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  size.Width * 4,
			RowsPerImage: size.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view %s: %w", label, err)
	}
	return &wgpuTexture{texture: tex, view: view}, nil
}

// createBuffer allocates a buffer of at least size bytes and uploads data into it. Sizes are
// rounded up to a multiple of 4 and never drop below 4.
func (b *wgpuRendererBackend) createBuffer(label string, usage wgpu.BufferUsage, data []byte, size int) (*wgpu.Buffer, error) {
	size = max(size, len(data), 4)
	size = common.CeilDiv(size, 4) * 4
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(size),
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %s: %w", label, err)
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

// createSampler creates a sampler. Unset fields default to repeat addressing and linear
// filtering.
func (b *wgpuRendererBackend) createSampler(label string, s common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(s.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
		Compare:       s.Compare,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %s: %w", label, err)
	}
	return samp, nil
}

// namedBindings resolves resources by WGSL variable name into provider options.
//
// Parameters:
//   - p: the pipeline the group is drawn with
//   - group: the group index
//   - resources: *wgpu.Buffer, *wgpu.TextureView or *wgpu.Sampler values keyed by variable name
//
// Returns:
//   - []bind_group_provider.BindGroupProviderOption: one option per resource
//   - error: if a name is not bound in the group
func namedBindings(p pipeline.Pipeline, group int, resources map[string]any) ([]bind_group_provider.BindGroupProviderOption, error) {
	opts := make([]bind_group_provider.BindGroupProviderOption, 0, len(resources))
	for name, r := range resources {
		binding, ok := p.Binding(group, name)
		if !ok {
			return nil, fmt.Errorf("%s: group %d has no binding %q", p.PipelineKey(), group, name)
		}
		switch v := r.(type) {
		case *wgpu.Buffer:
			opts = append(opts, bind_group_provider.WithBuffer(binding, v))
		case *wgpu.TextureView:
			opts = append(opts, bind_group_provider.WithTextureView(binding, v))
		case *wgpu.Sampler:
			opts = append(opts, bind_group_provider.WithSampler(binding, v))
		default:
			return nil, fmt.Errorf("%s: binding %q has unsupported resource %T", p.PipelineKey(), name, r)
		}
	}
	return opts, nil
}

// bindGroup creates a bind group of p from named resources.
//
// Parameters:
//   - label: the debug label
//   - p: the pipeline the group is drawn with
//   - group: the group index
//   - resources: the resources keyed by variable name
//
// Returns:
//   - bind_group_provider.BindGroupProvider: the initialized provider
//   - error: if a resource is missing or the device rejects the group
func (b *wgpuRendererBackend) bindGroup(label string, p pipeline.Pipeline, group int, resources map[string]any) (bind_group_provider.BindGroupProvider, error) {
	opts, err := namedBindings(p, group, resources)
	if err != nil {
		return nil, err
	}
	provider := bind_group_provider.NewBindGroupProvider(label, opts...)
	if err := provider.Init(b.device, p.BindGroupLayout(group), p.BindGroupLayoutDescriptor(group)); err != nil {
		return nil, err
	}
	return provider, nil
}
