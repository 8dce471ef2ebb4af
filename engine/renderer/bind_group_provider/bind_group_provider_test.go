package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReleaser struct {
	name  string
	order *[]string
}

func (f *fakeReleaser) Release() {
	*f.order = append(*f.order, f.name)
}

func compositeLayout() wgpu.BindGroupLayoutDescriptor {
	color := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageFragment}
	color.Texture.SampleType = wgpu.TextureSampleTypeFloat
	sampler := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: wgpu.ShaderStageFragment}
	sampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	uniform := wgpu.BindGroupLayoutEntry{Binding: 2, Visibility: wgpu.ShaderStageFragment}
	uniform.Buffer.Type = wgpu.BufferBindingTypeUniform
	return wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{color, sampler, uniform}}
}

func TestEntries_ResolvesByKind(t *testing.T) {
	tv := &wgpu.TextureView{}
	s := &wgpu.Sampler{}
	buf := &wgpu.Buffer{}
	p := NewBindGroupProvider("composite",
		WithTextureView(0, tv),
		WithSampler(1, s),
		WithBuffer(2, buf),
	)

	entries, err := p.Entries(compositeLayout())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Same(t, tv, entries[0].TextureView)
	assert.Same(t, s, entries[1].Sampler)
	assert.Same(t, buf, entries[2].Buffer)
	assert.Equal(t, wgpu.WholeSize, entries[2].Size)
	assert.Equal(t, "composite", p.Label())
}

func TestEntries_MissingResource(t *testing.T) {
	tests := []struct {
		name string
		opts []BindGroupProviderOption
		want string
	}{
		{"texture", []BindGroupProviderOption{WithSampler(1, &wgpu.Sampler{}), WithBuffer(2, &wgpu.Buffer{})}, "texture binding 0"},
		{"sampler", []BindGroupProviderOption{WithTextureView(0, &wgpu.TextureView{}), WithBuffer(2, &wgpu.Buffer{})}, "sampler binding 1"},
		{"buffer", []BindGroupProviderOption{WithTextureView(0, &wgpu.TextureView{}), WithSampler(1, &wgpu.Sampler{})}, "buffer binding 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBindGroupProvider("composite", tt.opts...).Entries(compositeLayout())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVertexSlots_Sorted(t *testing.T) {
	p := NewBindGroupProvider("mesh")
	a, b := &wgpu.Buffer{}, &wgpu.Buffer{}
	p.SetVertexBuffer(1, b)
	p.SetVertexBuffer(0, a)
	p.SetIndexBuffer(&wgpu.Buffer{}, 36)

	assert.Equal(t, []int{0, 1}, p.VertexSlots())
	assert.Same(t, a, p.VertexBuffer(0))
	assert.Nil(t, p.VertexBuffer(2))
	assert.Equal(t, 36, p.IndexCount())
	assert.NotNil(t, p.IndexBuffer())
}

func TestRelease_OwnedInReverseOrder(t *testing.T) {
	var order []string
	p := NewBindGroupProvider("mesh")
	p.Own(&fakeReleaser{"vertex", &order}, &fakeReleaser{"index", &order})
	p.Own(&fakeReleaser{"uniform", &order})

	p.Release()
	assert.Equal(t, []string{"uniform", "index", "vertex"}, order)

	p.Release()
	assert.Len(t, order, 3)
	assert.Nil(t, p.BindGroup())
}

func TestWithBuffers(t *testing.T) {
	bufs := map[int]*wgpu.Buffer{0: {}, 3: {}}
	p := NewBindGroupProvider("skinning", WithBuffers(bufs))
	assert.Same(t, bufs[3], p.Buffer(3))
	assert.Nil(t, p.Buffer(1))
}
