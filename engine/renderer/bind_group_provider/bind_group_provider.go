package bind_group_provider

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// Releaser is a GPU object that can be released, such as a *wgpu.Buffer or *wgpu.Texture.
type Releaser interface {
	Release()
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group created by Init, or nil.
	bindGroup *wgpu.BindGroup
	// buffers holds the GPU buffers bound by this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textureViews holds the GPU texture views bound by this provider, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the GPU samplers bound by this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// vertexBuffers holds the vertex streams of a draw, keyed by vertex buffer slot.
	vertexBuffers map[int]*wgpu.Buffer
	indexBuffer   *wgpu.Buffer
	indexCount    int

	// owned resources are released with the provider, in reverse order.
	owned []Releaser
}

// BindGroupProvider collects the GPU resources of one bind group, and optionally the vertex and
// index buffers of a draw, and creates the bind group against a pipeline's layout.
//
// Resources set on a provider are borrowed: Release frees only the bind group and the
// resources handed over with Own. This lets the ping-pong slots of a mesh share buffers.
//
// Usage pattern:
//  1. The backend creates a provider and sets its buffers, texture views and samplers
//  2. The backend calls Init with the layout of the pipeline the group is drawn with
//  3. Passes bind BindGroup() and draw from VertexBuffer(slot) and IndexBuffer()
//  4. Uniform buffers are updated with BufferWrite
type BindGroupProvider interface {
	// Release frees the bind group and every owned resource.
	Release()

	// Label returns the debug label for this provider.
	// Used for debugging and profiling purposes.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if Init has not been called.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer bound at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the GPU sampler for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the vertex buffer of a slot, or nil.
	VertexBuffer(slot int) *wgpu.Buffer

	// VertexSlots returns the vertex buffer slots in ascending order.
	VertexSlots() []int

	// IndexBuffer returns the GPU index buffer, or nil if not set.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// SetBuffer binds a buffer.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView stores a GPU texture view for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view to store
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores a GPU sampler for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// SetVertexBuffer stores the vertex buffer of a slot.
	SetVertexBuffer(slot int, buf *wgpu.Buffer)

	// SetIndexBuffer stores the index buffer and the number of indices it holds.
	SetIndexBuffer(buf *wgpu.Buffer, count int)

	// Own hands resources over to the provider. They are released with it.
	Own(resources ...Releaser)

	// Entries resolves the entries of a bind group from the provider's resources.
	//
	// Parameters:
	//   - desc: the layout descriptor the group is created against
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per layout entry
	//   - error: if a binding has no resource of the kind the layout expects
	Entries(desc wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error)

	// Init creates the bind group, replacing a previous one.
	//
	// Parameters:
	//   - device: the device to create the bind group on
	//   - layout: the pipeline's layout of the group
	//   - desc: the descriptor the layout was created from
	//
	// Returns:
	//   - error: if a resource is missing or the device rejects the group
	Init(device *wgpu.Device, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor) error
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label of the provider and the objects it creates
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:         label,
		buffers:       make(map[int]*wgpu.Buffer),
		textureViews:  make(map[int]*wgpu.TextureView),
		samplers:      make(map[int]*wgpu.Sampler),
		vertexBuffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer(slot int) *wgpu.Buffer {
	return p.vertexBuffers[slot]
}

func (p *bindGroupProvider) VertexSlots() []int {
	slots := make([]int, 0, len(p.vertexBuffers))
	for s := range p.vertexBuffers {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetVertexBuffer(slot int, buf *wgpu.Buffer) {
	p.vertexBuffers[slot] = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer, count int) {
	p.indexBuffer = buf
	p.indexCount = count
}

func (p *bindGroupProvider) Own(resources ...Releaser) {
	p.owned = append(p.owned, resources...)
}

func (p *bindGroupProvider) Entries(desc wgpu.BindGroupLayoutDescriptor) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		binding := int(entry.Binding)

		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			tv := p.textureViews[binding]
			if tv == nil {
				return nil, fmt.Errorf("%s: texture binding %d has no texture view", p.label, binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			s := p.samplers[binding]
			if s == nil {
				return nil, fmt.Errorf("%s: sampler binding %d has no sampler", p.label, binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: s}
		default:
			buf := p.buffers[binding]
			if buf == nil {
				return nil, fmt.Errorf("%s: buffer binding %d has no buffer", p.label, binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}
	return entries, nil
}

func (p *bindGroupProvider) Init(device *wgpu.Device, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor) error {
	entries, err := p.Entries(desc)
	if err != nil {
		return err
	}
	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bindGroup
	return nil
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i := len(p.owned) - 1; i >= 0; i-- {
		p.owned[i].Release()
	}
	p.owned = nil
}
