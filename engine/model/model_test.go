package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad() ([]Vertex, []uint32) {
	up := mgl32.Vec3{0, 0, 1}
	vertices := []Vertex{
		NewVertex(mgl32.Vec3{0, 0, 0}, up),
		NewVertex(mgl32.Vec3{1, 0, 0}, up),
		NewVertex(mgl32.Vec3{1, 1, 0}, up),
		NewVertex(mgl32.Vec3{0, 1, 0}, up),
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}

func TestBuildAdjacency_WindingOrderPairs(t *testing.T) {
	vertices, indices := quad()
	adj := BuildAdjacency(indices, len(vertices))

	require.Len(t, adj, 4)
	assert.Equal(t, [2]int32{1, 2}, adj[0][0])
	assert.Equal(t, [2]int32{2, 3}, adj[0][1])
	assert.Equal(t, [2]int32{NoNeighbor, NoNeighbor}, adj[0][2])
	assert.Equal(t, [2]int32{0, 1}, adj[2][0])
	assert.Equal(t, [2]int32{3, 0}, adj[2][1])
	assert.Len(t, adj.Flatten(), 4*AdjacencyPairs*2)
}

func TestBuildAdjacency_KeepsFirstNinePairs(t *testing.T) {
	// a fan of 12 triangles around vertex 0
	var indices []uint32
	for i := uint32(1); i <= 12; i++ {
		indices = append(indices, 0, i, i+1)
	}
	adj := BuildAdjacency(indices, 14)

	for k := 0; k < AdjacencyPairs; k++ {
		assert.Equal(t, int32(k+1), adj[0][k][0])
	}
}

func TestBuildAdjacency_SkipsOutOfRangeTriangles(t *testing.T) {
	adj := BuildAdjacency([]uint32{0, 1, 9, 0, 1, 2, 5}, 3)

	assert.Equal(t, [2]int32{1, 2}, adj[0][0])
	assert.Equal(t, [2]int32{NoNeighbor, NoNeighbor}, adj[0][1])
}

func TestResolveAttachment(t *testing.T) {
	vertices, _ := quad()
	assert.Equal(t, Static{}, ResolveAttachment(-1, vertices, 4))
	assert.Equal(t, Parented{Bone: 2}, ResolveAttachment(2, vertices, 4))
	assert.Equal(t, Static{}, ResolveAttachment(7, vertices, 4))

	vertices[3].Influences[1] = Influence{Bone: 1, Weight: 1}
	assert.Equal(t, Skinned{}, ResolveAttachment(2, vertices, 4), "weights supersede parenting")

	vertices[3].Influences[1] = Influence{Bone: 9, Weight: 1}
	assert.Equal(t, Parented{Bone: 2}, ResolveAttachment(2, vertices, 4), "out of range influences are unused")
}

func TestInfluence_Valid(t *testing.T) {
	assert.True(t, Influence{Bone: 0}.Valid(1))
	assert.False(t, Influence{Bone: -1}.Valid(1))
	assert.False(t, Influence{Bone: 1}.Valid(1))
	assert.False(t, Influence{Bone: skeleton.MaxBoneCount}.Valid(skeleton.MaxBoneCount+10))
}

func TestNewModel_BoundsAndUniforms(t *testing.T) {
	vertices, indices := quad()
	obj := NewMeshObject("body", vertices, indices,
		WithMaterialLabel("skin", material.ProgramStandard+"_sort"))
	missing := NewMeshObject("eyes", vertices, indices, WithMaterialLabel("nope", ""))

	m := NewModel(
		WithName("fighter"),
		WithMeshObjects(obj, missing),
		WithMaterials(material.NewMaterial("skin",
			material.WithShaderLabel(material.ProgramStandard+"_sort"),
			material.WithTexture(material.SlotColor, "col"))),
	)

	lo, hi := BoxCorners(m.Bounds())
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, lo)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, hi)
	assert.Equal(t, PassSort, obj.Pass)
	assert.Equal(t, 0, m.BoneCount())

	u := m.Uniforms(obj)
	assert.False(t, u.HasTexture[material.SlotColor], "texture col is not bound")

	assert.True(t, m.Uniforms(missing).EnableSpecular, "missing material uses defaults")
}

func TestMeshObject_GPUInfo(t *testing.T) {
	vertices, indices := quad()
	obj := NewMeshObject("prop", vertices, indices, WithAttachment(Parented{Bone: 3}))

	info := obj.GPUInfo()
	assert.Equal(t, int32(3), info.ParentBone)
	assert.Equal(t, gpuAttachmentParented, info.Attachment)
	assert.Equal(t, uint32(4), info.VertexCount)
	assert.Equal(t, 3, obj.ParentBone())
	assert.False(t, obj.IsSkinned())

	framed := info.WithFrame(12, false, true)
	assert.Equal(t, GPUFlagParenting, framed.Flags)
	assert.Equal(t, uint32(12), framed.BoneCount)
	assert.Equal(t, 32, framed.Size())
	assert.Len(t, framed.Marshal(), 32)

	assert.Equal(t, 48, (&GPUVertex0{}).Size())
	assert.Equal(t, 152, (&GPUVertex1{}).Size())
	assert.Equal(t, 32, (&GPUVertexWeights{}).Size())
	assert.Len(t, MarshalVertex0(vertices), 4*48)
}

func TestMeshObject_GPUInfoSmoothNormals(t *testing.T) {
	vertices, indices := quad()
	obj := NewMeshObject("body", vertices, indices, WithAttachment(Skinned{}), WithNormalSmoothing(true))

	info := obj.GPUInfo()
	assert.Equal(t, GPUFlagSmoothNormals, info.Flags)

	framed := info.WithFrame(2, true, false)
	assert.Equal(t, GPUFlagSmoothNormals|GPUFlagSkinning, framed.Flags, "toggles keep the upload flag")

	plain := NewMeshObject("body", vertices, indices, WithAttachment(Skinned{}))
	assert.Zero(t, plain.GPUInfo().Flags)
}
