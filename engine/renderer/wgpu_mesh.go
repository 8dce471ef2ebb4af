package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuSkinSlot is one half of a mesh's skinned ping-pong pair. The skinning kernel writes
// skinned, the renormal kernel turns it into renormalized, and draw carries renormalized as
// vertex slot 0 for every pass of the frame that wrote it. The other slot stays untouched while
// the previous frame may still read it.
type wgpuSkinSlot struct {
	skinned      *wgpu.Buffer
	renormalized *wgpu.Buffer

	skinning bind_group_provider.BindGroupProvider
	renormal bind_group_provider.BindGroupProvider
	draw     bind_group_provider.BindGroupProvider
}

// Release frees the slot's groups and the two buffers its draw provider owns.
func (s *wgpuSkinSlot) Release() {
	if s.skinning != nil {
		s.skinning.Release()
	}
	if s.renormal != nil {
		s.renormal.Release()
	}
	s.draw.Release()
}

// newSkinSlotDraw creates the draw streams of one slot. The slot owns skinned and
// renormalized; the rest pose streams are shared with the other slot and owned by the mesh.
func newSkinSlotDraw(label string, skinned, renormalized, vertex1, index *wgpu.Buffer, indexCount int) bind_group_provider.BindGroupProvider {
	draw := bind_group_provider.NewBindGroupProvider(label)
	draw.Own(skinned, renormalized)
	draw.SetVertexBuffer(0, renormalized)
	draw.SetVertexBuffer(1, vertex1)
	draw.SetIndexBuffer(index, indexCount)
	return draw
}

// skinSlotResources returns the compute group resources of one slot keyed by variable name.
// shared holds the per mesh buffers both slots read.
func skinSlotResources(shared map[string]*wgpu.Buffer, bones, skinned, renormalized *wgpu.Buffer) (skinning, renormal map[string]any) {
	skinning = map[string]any{
		"source":  shared["source"],
		"weights": shared["weights"],
		"info":    shared["info"],
		"bones":   bones,
		"skinned": skinned,
	}
	renormal = map[string]any{
		"skinned":      skinned,
		"adjacency":    shared["adjacency"],
		"info":         shared["info"],
		"renormalized": renormalized,
	}
	return skinning, renormal
}

// wgpuMesh is the per mesh object state of the wgpu backend. The shared provider owns the
// buffers both skin slots read; the draw streams live in the slots.
type wgpuMesh struct {
	index int
	obj   *model.MeshObject
	mat   material.Material
	info  model.GPUMeshObjectInfo

	shared  bind_group_provider.BindGroupProvider
	skinned *framegraph.PingPong[*wgpuSkinSlot]

	material      bind_group_provider.BindGroupProvider
	debugMaterial bind_group_provider.BindGroupProvider
}

func (m *wgpuMesh) meshObject() *model.MeshObject {
	return m.obj
}

// stream returns the vertex and index streams written this frame.
func (m *wgpuMesh) stream() bind_group_provider.BindGroupProvider {
	return m.skinned.Current().draw
}

// workgroups returns the dispatch size of the per vertex kernels.
func (m *wgpuMesh) workgroups(size uint32) uint32 {
	return uint32(common.CeilDiv(len(m.obj.Vertices), int(max(size, 1))))
}

func (m *wgpuMesh) Release() {
	m.material.Release()
	m.debugMaterial.Release()
	m.skinned.Current().Release()
	m.skinned.Previous().Release()
	m.shared.Release()
}

// wgpuTextureCache uploads each model texture once per color space.
type wgpuTextureCache struct {
	backend *wgpuRendererBackend
	model   model.Model
	white   *wgpuTexture
	uploads map[string]*wgpuTexture
}

// get returns the view of a model texture. Missing or undecodable textures fall back to a
// white texel; the material uniforms flag the slot as empty.
func (c *wgpuTextureCache) get(name string, srgb bool) *wgpu.TextureView {
	key := name
	if srgb {
		key += "#srgb"
	}
	if t, ok := c.uploads[key]; ok {
		return t.view
	}

	var uploaded *wgpuTexture
	if tex := c.model.Texture(name); tex != nil {
		rgba, err := tex.Decode()
		if err != nil {
			common.Logger().Warn("texture decode failed", "texture", name, "error", err)
		} else {
			staging := common.Staging(rgba)
			staging.Format = wgpu.TextureFormatRGBA8Unorm
			if srgb {
				staging.Format = wgpu.TextureFormatRGBA8UnormSrgb
			}
			uploaded, err = c.backend.uploadTexture(c.model.Name()+" "+name, staging)
			if err != nil {
				common.Logger().Warn("texture upload failed", "texture", name, "error", err)
			}
		}
	}
	if uploaded == nil {
		c.uploads[key] = c.white
		return c.white.view
	}
	c.uploads[key] = uploaded
	return uploaded.view
}

// materialBindings returns the material group resources of a material keyed by variable name.
func (c *wgpuTextureCache) materialBindings(mat material.Material, uniforms *wgpu.Buffer, sampler *wgpu.Sampler) map[string]any {
	resources := map[string]any{
		"material":         uniforms,
		"material_sampler": sampler,
	}
	for slot := range material.TextureCount {
		resources[fmt.Sprintf("tex%d", slot)] = c.white.view
	}
	if mat == nil {
		return resources
	}
	for _, slot := range mat.TextureSlots() {
		ref, ok := mat.Texture(slot)
		if !ok || slot < 0 || slot >= material.TextureCount {
			continue
		}
		resources[fmt.Sprintf("tex%d", slot)] = c.get(ref.Name, srgbSlots[slot])
	}
	return resources
}

func (c *wgpuTextureCache) Release() {
	for key, t := range c.uploads {
		if t != c.white {
			t.Release()
		}
		delete(c.uploads, key)
	}
}

// uploadModel creates the GPU state of every mesh object of m. Mesh objects without vertices
// are skipped.
func (b *wgpuRendererBackend) uploadModel(m model.Model) error {
	bones, err := b.createBuffer(m.Name()+" Bones", wgpu.BufferUsageStorage, nil, skeleton.BoneTransformsSize(m.BoneCount()))
	if err != nil {
		return err
	}
	b.bones = bones
	b.boneCount = m.BoneCount()

	for i, obj := range m.MeshObjects() {
		if len(obj.Vertices) == 0 {
			continue
		}
		mesh, err := b.uploadMesh(m, i, obj)
		if err != nil {
			return fmt.Errorf("mesh object %s: %w", obj.Name, err)
		}
		b.meshes = append(b.meshes, mesh)
	}
	return nil
}

func (b *wgpuRendererBackend) uploadMesh(m model.Model, index int, obj *model.MeshObject) (*wgpuMesh, error) {
	label := fmt.Sprintf("%s %s", m.Name(), obj.Name)
	mesh := &wgpuMesh{
		index:  index,
		obj:    obj,
		mat:    m.Material(obj.MaterialLabel),
		info:   obj.GPUInfo(),
		shared: bind_group_provider.NewBindGroupProvider(label),
	}
	var slots [2]*wgpuSkinSlot
	fail := func(err error) (*wgpuMesh, error) {
		for _, slot := range slots {
			if slot != nil {
				slot.Release()
			}
		}
		mesh.shared.Release()
		return nil, err
	}

	vertex0 := model.MarshalVertex0(obj.Vertices)
	type spec struct {
		name  string
		usage wgpu.BufferUsage
		data  []byte
		size  int
	}
	specs := []spec{
		{"source", wgpu.BufferUsageStorage, vertex0, 0},
		{"weights", wgpu.BufferUsageStorage, model.MarshalVertexWeights(obj.Vertices), 0},
		{"info", wgpu.BufferUsageUniform, nil, mesh.info.Size()},
		{"adjacency", wgpu.BufferUsageStorage, common.SliceToBytes(obj.Adjacency.Flatten()), 0},
		{"vertex1", wgpu.BufferUsageVertex, model.MarshalVertex1(obj.Vertices), 0},
		{"index", wgpu.BufferUsageIndex, common.SliceToBytes(obj.Indices), 0},
		{"uniforms", wgpu.BufferUsageUniform, nil, material.GPUMaterialUniformsSize},
	}
	bufs := make(map[string]*wgpu.Buffer, len(specs))
	for _, s := range specs {
		buf, err := b.createBuffer(label+" "+s.name, s.usage, s.data, s.size)
		if err != nil {
			return fail(err)
		}
		mesh.shared.Own(buf)
		bufs[s.name] = buf
	}
	uniforms := m.Uniforms(obj)
	b.queue.WriteBuffer(bufs["uniforms"], 0, uniforms.Marshal())

	for i := range slots {
		slotLabel := fmt.Sprintf("%s %d", label, i)
		skinned, err := b.createBuffer(slotLabel+" skinned", wgpu.BufferUsageStorage, nil, len(vertex0))
		if err != nil {
			return fail(err)
		}
		renormalized, err := b.createBuffer(slotLabel+" renormalized", wgpu.BufferUsageStorage|wgpu.BufferUsageVertex, nil, len(vertex0))
		if err != nil {
			skinned.Release()
			return fail(err)
		}
		slot := &wgpuSkinSlot{
			skinned:      skinned,
			renormalized: renormalized,
			draw:         newSkinSlotDraw(slotLabel+" draw", skinned, renormalized, bufs["vertex1"], bufs["index"], len(obj.Indices)),
		}
		slots[i] = slot

		skinning, renormal := skinSlotResources(bufs, b.bones, skinned, renormalized)
		if slot.skinning, err = b.bindGroup(slotLabel+" skinning", b.pipelines.skinning, 0, skinning); err != nil {
			return fail(err)
		}
		if slot.renormal, err = b.bindGroup(slotLabel+" renormal", b.pipelines.renormal, 0, renormal); err != nil {
			return fail(err)
		}
	}
	mesh.skinned = framegraph.NewPingPong(slots[0], slots[1])

	var err error
	forward := b.pipelines.reference(false)
	mesh.material, err = b.bindGroup(label+" material", forward, 1, b.textures.materialBindings(mesh.mat, bufs["uniforms"], b.materialSampler))
	if err != nil {
		return fail(err)
	}
	debug := b.pipelines.reference(true)
	mesh.debugMaterial, err = b.bindGroup(label+" debug material", debug, 1, b.textures.materialBindings(mesh.mat, bufs["uniforms"], b.materialSampler))
	if err != nil {
		mesh.material.Release()
		return fail(err)
	}
	return mesh, nil
}

// writeSkinning uploads the bone transforms and the per mesh skinning toggles of a frame.
// Without a frame state the bones are left untouched and report a count of 0.
func (b *wgpuRendererBackend) writeSkinning(f *wgpuFrame) {
	boneCount := 0
	if f.state != nil {
		boneCount = f.state.Len()
		b.queue.WriteBuffer(b.bones, 0, f.state.MarshalBones())
	}

	writes := make([]bind_group_provider.BufferWrite, 0, len(b.meshes))
	for _, m := range b.meshes {
		info := m.info.WithFrame(boneCount, f.in.Skinning.EnableSkinning, f.in.Skinning.EnableParenting)
		slot := m.skinned.Current()
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: slot.skinning,
			Binding:  b.skinningInfoBinding,
			Data:     info.Marshal(),
		})
	}
	bind_group_provider.WriteBuffers(b.queue, writes)
}
