package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skinnedTriangle builds a glTF document with a two-joint skin, one skinned triangle
// and a translation clip on the second joint, with every buffer embedded as a data URI.
func skinnedTriangle() []byte {
	var buf bytes.Buffer
	put := func(values ...any) {
		for _, v := range values {
			_ = binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	f := func(v ...float32) []float32 { return v }

	put(f(0, 0, 0, 1, 0, 0, 0, 1, 0))                 // 0: positions, 36 bytes
	put([]uint16{0, 1, 2, 0})                         // 36: indices + padding, 8 bytes
	put([]uint16{0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0}) // 44: joints, 24 bytes
	put(f(1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0))        // 68: weights, 48 bytes
	put(f(0, 1))                                      // 116: key times, 8 bytes
	put(f(0, 1, 0, 0, 2, 0))                          // 124: translations, 24 bytes

	data := base64.StdEncoding.EncodeToString(buf.Bytes())
	return []byte(fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0, 2]}],
  "nodes": [
    {"name": "root", "children": [1]},
    {"name": "child", "translation": [0, 1, 0]},
    {"name": "body", "mesh": 0, "skin": 0}
  ],
  "skins": [{"joints": [0, 1]}],
  "meshes": [{"name": "body", "primitives": [{
    "attributes": {"POSITION": 0, "JOINTS_0": 2, "WEIGHTS_0": 3},
    "indices": 1,
    "material": 0
  }]}],
  "materials": [{
    "name": "skin",
    "pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0.5, 1], "metallicFactor": 0, "roughnessFactor": 0.5},
    "alphaMode": "MASK",
    "alphaCutoff": 0.25,
    "doubleSided": true
  }],
  "animations": [{
    "channels": [{"sampler": 0, "target": {"node": 1, "path": "translation"}}],
    "samplers": [{"input": 4, "output": 5, "interpolation": "LINEAR"}]
  }],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"},
    {"bufferView": 2, "componentType": 5123, "count": 3, "type": "VEC4"},
    {"bufferView": 3, "componentType": 5126, "count": 3, "type": "VEC4"},
    {"bufferView": 4, "componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [1]},
    {"bufferView": 5, "componentType": 5126, "count": 2, "type": "VEC3"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6},
    {"buffer": 0, "byteOffset": 44, "byteLength": 24},
    {"buffer": 0, "byteOffset": 68, "byteLength": 48},
    {"buffer": 0, "byteOffset": 116, "byteLength": 8},
    {"buffer": 0, "byteOffset": 124, "byteLength": 24}
  ],
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}]
}`, buf.Len(), data))
}

func writeAsset(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func assertVec3Near(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d", i)
	}
}

func TestLoader_LoadSkinnedAsset(t *testing.T) {
	path := writeAsset(t, "triangle.gltf", skinnedTriangle())
	l := NewLoader(BackendTypeGLTF, WithNormalSmoothing(true))

	a, err := l.Load(path)
	require.NoError(t, err)
	m := a.Model

	assert.Equal(t, "triangle", m.Name())
	require.Equal(t, 2, m.BoneCount())
	child, ok := m.Skeleton().Index("child")
	require.True(t, ok)
	assert.Equal(t, 1, child)
	assert.Equal(t, 0, m.Skeleton().Parent(child))
	assert.Equal(t, skeleton.NoParent, m.Skeleton().Parent(0))

	require.Len(t, m.MeshObjects(), 1)
	obj := m.MeshObjects()[0]
	assert.True(t, obj.IsSkinned())
	assert.True(t, obj.SmoothNormals)
	assert.Equal(t, []uint32{0, 1, 2}, obj.Indices)
	assert.Equal(t, model.PassOpaque, obj.Pass)

	// Identity inverse binds pose vertices weighted to the child at the child's rest transform.
	assertVec3Near(t, mgl32.Vec3{0, 0, 0}, obj.Vertices[0].Position)
	assertVec3Near(t, mgl32.Vec3{1, 1, 0}, obj.Vertices[1].Position)
	assertVec3Near(t, mgl32.Vec3{0, 0, 1}, obj.Vertices[2].Normal)

	assert.Equal(t, model.Influence{Bone: 0, Weight: 1}, obj.Vertices[0].Influences[0])
	assert.Equal(t, model.Influence{Bone: 1, Weight: 1}, obj.Vertices[1].Influences[0])
	assert.Equal(t, model.NoBone, obj.Vertices[1].Influences[1].Bone)
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 0.5}, obj.Vertices[0].Colors[0])

	require.Len(t, a.Clips, 1)
	clip := a.Clips[0]
	assert.Equal(t, "animation0", clip.Name)
	assert.InDelta(t, 1, clip.Duration, 1e-6)
	require.Len(t, clip.Channels, 1)
	assert.Equal(t, child, clip.Channels[0].Bone)
	require.Len(t, clip.Channels[0].Translations, 2)
	assertVec3Near(t, mgl32.Vec3{0, 2, 0}, clip.Channels[0].Translations[1].Value)
}

func TestLoader_MaterialMapping(t *testing.T) {
	path := writeAsset(t, "triangle.gltf", skinnedTriangle())
	a, err := NewLoader(BackendTypeGLTF).Load(path)
	require.NoError(t, err)

	mat := a.Model.Material("skin")
	require.NotNil(t, mat)
	assert.Equal(t, material.ProgramMasked+"_opaque", mat.ShaderLabel())
	assert.Equal(t, material.CullNone, mat.Cull())

	threshold, ok := mat.Float(material.FloatAlphaThreshold)
	require.True(t, ok)
	assert.InDelta(t, 0.25, threshold, 1e-6)

	albedo, ok := mat.Vector(material.VectorAlbedoColor)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.5, 1}, albedo)

	texRef, ok := mat.Texture(material.SlotPRM)
	require.True(t, ok)
	assert.Equal(t, "skin_prm", texRef.Name)
	img, err := a.Model.Texture(texRef.Name).Decode()
	require.NoError(t, err)
	px := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0), px.R)
	assert.Equal(t, uint8(128), px.G)
	assert.Equal(t, uint8(255), px.B)
	assert.Equal(t, uint8(41), px.A)

	u := a.Model.Uniforms(a.Model.MeshObjects()[0])
	assert.True(t, u.HasTexture[material.SlotPRM])
	assert.True(t, u.IsDiscard)
}

func TestLoader_LoadMeshOnly(t *testing.T) {
	path := writeAsset(t, "triangle.gltf", skinnedTriangle())
	a, err := NewLoader(BackendTypeGLTF).LoadMeshOnly(path)
	require.NoError(t, err)

	assert.Nil(t, a.Model.Skeleton())
	assert.Empty(t, a.Clips)
	obj := a.Model.MeshObjects()[0]
	assert.False(t, obj.IsSkinned())
	assert.Equal(t, model.NoBone, obj.Vertices[1].Influences[0].Bone)
	assertVec3Near(t, mgl32.Vec3{1, 1, 0}, obj.Vertices[1].Position)
}

func TestLoader_CachesByPath(t *testing.T) {
	path := writeAsset(t, "triangle.gltf", skinnedTriangle())
	l := NewLoader(BackendTypeGLTF)

	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, l.Get(path))
	assert.Len(t, l.Assets(), 1)
}

func TestLoader_LoadReader(t *testing.T) {
	a, err := NewLoader(BackendTypeGLTF).LoadReader("stream", bytes.NewReader(skinnedTriangle()))
	require.NoError(t, err)

	assert.Equal(t, "stream", a.Model.Name())
	assert.Len(t, a.Model.MeshObjects(), 1)
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load("model.obj")
	assert.Error(t, err)

	empty := writeAsset(t, "empty.gltf", []byte(`{"asset": {"version": "2.0"}, "nodes": [{"name": "lonely"}]}`))
	_, err = l.Load(empty)
	assert.ErrorIs(t, err, ErrNoMesh)

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
}

func TestGenerateTangents_FollowsUVGradient(t *testing.T) {
	vertices := []model.Vertex{
		model.NewVertex(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}),
		model.NewVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}),
		model.NewVertex(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}),
	}
	vertices[1].UV[model.UVMap1] = mgl32.Vec2{1, 0}
	vertices[2].UV[model.UVMap1] = mgl32.Vec2{0, -1}

	generateTangents(vertices, []uint32{0, 1, 2})

	for _, v := range vertices {
		assertVec3Near(t, mgl32.Vec3{1, 0, 0}, v.Tangent.Vec3())
		assert.Equal(t, float32(-1), v.Tangent.W())
	}
}

func TestNodeLocal_ZeroRotationAndScaleAreIdentity(t *testing.T) {
	assert.True(t, toQuat([4]float64{}).ApproxEqual(mgl32.QuatIdent()))
	q := toQuat([4]float64{0, math.Sqrt2 / 2, 0, math.Sqrt2 / 2})
	assertVec3Near(t, mgl32.Vec3{0, 0, -1}, q.Rotate(mgl32.Vec3{1, 0, 0}))
}
