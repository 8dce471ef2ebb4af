package model

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// GPUVertex0Source is the WGSL VertexInput0 struct read by the vertex stage from the skinned
// attribute stream.
//
//go:embed assets/vertex0.wgsl
var GPUVertex0Source string

// GPUVertex1Source is the WGSL VertexInput1 struct of the static attribute stream.
//
//go:embed assets/vertex1.wgsl
var GPUVertex1Source string

// GPUSkinnedVertexSource is the storage view of GPUVertex0 used by the skinning and
// normal smoothing kernels.
//
//go:embed assets/skinned_vertex.wgsl
var GPUSkinnedVertexSource string

// GPUVertexWeightsSource is the WGSL definition of the VertexWeights struct.
//
//go:embed assets/vertex_weights.wgsl
var GPUVertexWeightsSource string

// GPUMeshObjectInfoSource is the WGSL definition of the MeshObjectInfo uniform.
//
//go:embed assets/mesh_object_info.wgsl
var GPUMeshObjectInfoSource string

// GPUVertex0 is the skinned attribute stream: the skinning kernel reads and writes it.
// Size: 48 bytes.
//
//	struct VertexInput0 {
//	    position0: vec4<f32>,
//	    normal0: vec4<f32>,
//	    tangent0: vec4<f32>,
//	}
type GPUVertex0 struct {
	Position [4]float32
	Normal   [4]float32
	Tangent  [4]float32
}

// Size returns the size of the GPUVertex0 struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex0) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUVertex1 is the static attribute stream: UV sets and vertex colors, tightly packed.
// Size: 152 bytes.
//
//	struct VertexInput1 {
//	    @location(3) uv0: vec2<f32>, ... @location(7) uv4: vec2<f32>,
//	    @location(8) color0: vec4<f32>, ... @location(14) color6: vec4<f32>,
//	}
type GPUVertex1 struct {
	UV     [UVSetCount][2]float32
	Colors [ColorSetCount][4]float32
}

// Size returns the size of the GPUVertex1 struct in bytes.
func (g *GPUVertex1) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUVertexWeights holds the influences of one vertex. Unused slots carry a negative bone index.
// Size: 32 bytes.
type GPUVertexWeights struct {
	Bones   [InfluenceCount]int32
	Weights [InfluenceCount]float32
}

// Size returns the size of the GPUVertexWeights struct in bytes.
func (g *GPUVertexWeights) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Attachment kinds as seen by the skinning shader.
const (
	gpuAttachmentStatic   uint32 = 0
	gpuAttachmentParented uint32 = 1
	gpuAttachmentSkinned  uint32 = 2
)

// Skinning toggles carried in GPUMeshObjectInfo.Flags.
const (
	GPUFlagSkinning      uint32 = 1 << 0
	GPUFlagParenting     uint32 = 1 << 1
	GPUFlagSmoothNormals uint32 = 1 << 2
)

// GPUMeshObjectInfo is the per-dispatch uniform of the skinning kernel. The attachment and
// vertex count are fixed at upload; Flags and BoneCount are rewritten every frame.
// Size: 32 bytes.
type GPUMeshObjectInfo struct {
	ParentBone  int32
	Attachment  uint32
	VertexCount uint32
	Flags       uint32
	BoneCount   uint32
	_           [3]uint32
}

// Size returns the size of the GPUMeshObjectInfo struct in bytes.
func (g *GPUMeshObjectInfo) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the info struct.
//
// Returns:
//   - []byte: 32 bytes ready for GPU upload
func (g *GPUMeshObjectInfo) Marshal() []byte {
	buf := make([]byte, 32)
	common.PutUint32s(buf, 0, uint32(g.ParentBone), g.Attachment, g.VertexCount, g.Flags, g.BoneCount)
	return buf
}

// WithFrame returns a copy carrying the bone count and skinning toggles of one frame. The
// smooth normals flag set at upload is kept.
//
// Parameters:
//   - boneCount: the number of bones in the frame state
//   - skinning: whether skinned vertices follow their bones
//   - parenting: whether parented objects follow their bone
//
// Returns:
//   - GPUMeshObjectInfo: the updated info
func (g GPUMeshObjectInfo) WithFrame(boneCount int, skinning, parenting bool) GPUMeshObjectInfo {
	g.BoneCount = uint32(max(boneCount, 0))
	g.Flags &= GPUFlagSmoothNormals
	if skinning {
		g.Flags |= GPUFlagSkinning
	}
	if parenting {
		g.Flags |= GPUFlagParenting
	}
	return g
}

// GPUInfo returns the skinning uniform of a mesh object.
func (m *MeshObject) GPUInfo() GPUMeshObjectInfo {
	info := GPUMeshObjectInfo{ParentBone: -1, VertexCount: uint32(len(m.Vertices))}
	if m.SmoothNormals && len(m.Adjacency) > 0 {
		info.Flags = GPUFlagSmoothNormals
	}
	switch a := m.Attachment.(type) {
	case Parented:
		info.ParentBone = int32(a.Bone)
		info.Attachment = gpuAttachmentParented
	case Skinned:
		info.Attachment = gpuAttachmentSkinned
	default:
		info.Attachment = gpuAttachmentStatic
	}
	return info
}

// Vertex0 converts vertices to the skinned attribute stream.
func Vertex0(vertices []Vertex) []GPUVertex0 {
	out := make([]GPUVertex0, len(vertices))
	for i := range vertices {
		v := &vertices[i]
		out[i] = GPUVertex0{
			Position: [4]float32{v.Position[0], v.Position[1], v.Position[2], 1},
			Normal:   [4]float32{v.Normal[0], v.Normal[1], v.Normal[2], 0},
			Tangent:  v.Tangent,
		}
	}
	return out
}

// Vertex1 converts vertices to the static attribute stream.
func Vertex1(vertices []Vertex) []GPUVertex1 {
	out := make([]GPUVertex1, len(vertices))
	for i := range vertices {
		for k, uv := range vertices[i].UV {
			out[i].UV[k] = uv
		}
		for k, c := range vertices[i].Colors {
			out[i].Colors[k] = c
		}
	}
	return out
}

// VertexWeights converts vertex influences to the weight stream.
func VertexWeights(vertices []Vertex) []GPUVertexWeights {
	out := make([]GPUVertexWeights, len(vertices))
	for i := range vertices {
		for k, in := range vertices[i].Influences {
			out[i].Bones[k] = in.Bone
			out[i].Weights[k] = in.Weight
		}
	}
	return out
}

// MarshalVertex0 returns the skinned attribute stream as bytes.
func MarshalVertex0(vertices []Vertex) []byte {
	return common.SliceToBytes(Vertex0(vertices))
}

// MarshalVertex1 returns the static attribute stream as bytes.
func MarshalVertex1(vertices []Vertex) []byte {
	return common.SliceToBytes(Vertex1(vertices))
}

// MarshalVertexWeights returns the weight stream as bytes.
func MarshalVertexWeights(vertices []Vertex) []byte {
	return common.SliceToBytes(VertexWeights(vertices))
}
