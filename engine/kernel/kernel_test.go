package kernel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], eps, "component %d: want %v got %v", i, want, got)
	}
}

func oneBoneFrame(t *testing.T, local mgl32.Mat4) (skeleton.Skeleton, *skeleton.FrameState) {
	t.Helper()
	s, err := skeleton.NewSkeleton([]skeleton.Bone{{Name: "root", Parent: skeleton.NoParent, Local: mgl32.Ident4()}})
	require.NoError(t, err)
	return s, skeleton.NewFrameStateFromLocal(s, []mgl32.Mat4{local})
}

func twoBoneFrame(t *testing.T) *skeleton.FrameState {
	t.Helper()
	s, err := skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "root", Parent: skeleton.NoParent, Local: mgl32.Translate3D(0, 1, 0)},
		{Name: "arm", Parent: 0, Local: mgl32.Translate3D(1, 0, 0)},
	})
	require.NoError(t, err)
	return skeleton.NewFrameStateFromLocal(s, []mgl32.Mat4{
		mgl32.Translate3D(0, 1, 0).Mul4(mgl32.HomogRotate3DZ(0.7)),
		mgl32.Translate3D(1, 0, 0).Mul4(mgl32.Scale3D(1, 2, 0.5)),
	})
}

func TestDispatcher_CoversRangeOnce(t *testing.T) {
	d := NewDispatcher(WithWorkers(3))
	n := 10_000
	hits := make([]atomic.Int32, n)

	require.NoError(t, d.Dispatch(context.Background(), n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			hits[i].Add(1)
		}
	}))
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
	assert.Equal(t, 3, d.Workers())
	assert.Equal(t, uint32(40), Workgroups(n))
}

func TestDispatcher_EachRunsEveryIndex(t *testing.T) {
	d := NewDispatcher(WithWorkers(4))
	hits := make([]atomic.Int32, 37)

	require.NoError(t, d.Each(context.Background(), len(hits), func(i int) {
		hits[i].Add(1)
	}))
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
}

func TestDispatcher_CancelledContext(t *testing.T) {
	d := NewDispatcher(WithWorkers(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	err := d.Dispatch(ctx, 1000, func(lo, hi int) { ran.Add(1) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), ran.Load())
}

func TestSkinVertex_StaticPassThrough(t *testing.T) {
	fs := twoBoneFrame(t)
	v := model.NewVertex(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 1, 0})

	assert.Equal(t, v, SkinVertex(v, model.Static{}, fs, settings.DefaultSkinningSettings()))
	assert.Equal(t, v, SkinVertex(v, model.Skinned{}, fs, settings.DefaultSkinningSettings()))
}

func TestSkinVertex_SingleInfluence(t *testing.T) {
	fs := twoBoneFrame(t)
	v := model.NewVertex(mgl32.Vec3{0.5, -1, 2}, mgl32.Vec3{0, 0, 1})
	v.Influences[0] = model.Influence{Bone: 1, Weight: 1}

	got := SkinVertex(v, model.Skinned{}, fs, settings.DefaultSkinningSettings())

	assertVec3InDelta(t, common.TransformPoint(fs.AnimatedWorld[1], v.Position), got.Position)
	assert.InDelta(t, 1, got.Normal.Len(), eps)
	assert.InDelta(t, 1, got.Tangent.Vec3().Len(), eps)
	assert.Equal(t, v.Tangent.W(), got.Tangent.W())
}

func TestSkinVertex_UnitNormalsAndTangents(t *testing.T) {
	fs := twoBoneFrame(t)
	tests := []struct {
		name       string
		influences [model.InfluenceCount]model.Influence
	}{
		{"two bones", [4]model.Influence{{0, 0.3}, {1, 0.7}, {-1, 0}, {-1, 0}}},
		{"weights over one", [4]model.Influence{{0, 1}, {1, 1}, {0, 0.5}, {-1, 0}}},
		{"unnormalized small", [4]model.Influence{{1, 0.1}, {-1, 0}, {-1, 0}, {-1, 0}}},
		{"out of range mixed", [4]model.Influence{{1, 0.5}, {9, 0.5}, {600, 1}, {0, 0.25}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := model.NewVertex(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.6, 0.8, 0})
			v.Tangent = mgl32.Vec4{0, 0, 1, -1}
			v.Influences = tt.influences

			got := SkinVertex(v, model.Skinned{}, fs, settings.DefaultSkinningSettings())
			assert.InDelta(t, 1, got.Normal.Len(), eps)
			assert.InDelta(t, 1, got.Tangent.Vec3().Len(), eps)
			assert.Equal(t, float32(-1), got.Tangent.W())
		})
	}
}

func TestSkinVertex_OutOfRangeBonesIgnored(t *testing.T) {
	fs := twoBoneFrame(t)
	v := model.NewVertex(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 0, 0})
	v.Influences = [4]model.Influence{{0, 1}, {2, 1}, {skeleton.MaxBoneCount, 1}, {-1, 1}}

	got := SkinVertex(v, model.Skinned{}, fs, settings.DefaultSkinningSettings())
	assertVec3InDelta(t, common.TransformPoint(fs.AnimatedWorld[0], v.Position), got.Position)
}

func TestSkinVertex_NoValidInfluencePassesThrough(t *testing.T) {
	fs := twoBoneFrame(t)
	v := model.NewVertex(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 0, 0})
	v.Influences = [4]model.Influence{{5, 1}, {6, 1}, {-1, 0}, {-1, 0}}

	assert.Equal(t, v, SkinVertex(v, model.Skinned{}, fs, settings.DefaultSkinningSettings()))
}

func TestSkinVertex_Parented(t *testing.T) {
	_, fs := oneBoneFrame(t, mgl32.Translate3D(0, 5, 0))
	v := model.NewVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1})

	got := SkinVertex(v, model.Parented{Bone: 0}, fs, settings.DefaultSkinningSettings())
	assertVec3InDelta(t, mgl32.Vec3{1, 5, 0}, got.Position)
	assertVec3InDelta(t, v.Normal, got.Normal)

	got = SkinVertex(v, model.Parented{Bone: 3}, fs, settings.DefaultSkinningSettings())
	assert.Equal(t, v, got)
}

func TestSkinVertex_Toggles(t *testing.T) {
	_, fs := oneBoneFrame(t, mgl32.Translate3D(0, 5, 0))

	rigid := model.NewVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1})
	skinned := rigid
	skinned.Influences[0] = model.Influence{Bone: 0, Weight: 1}

	noParenting := settings.SkinningSettings{EnableParenting: false, EnableSkinning: true}
	assert.Equal(t, rigid, SkinVertex(rigid, model.Parented{Bone: 0}, fs, noParenting))
	assert.NotEqual(t, skinned, SkinVertex(skinned, model.Skinned{}, fs, noParenting))

	noSkinning := settings.SkinningSettings{EnableParenting: true, EnableSkinning: false}
	assert.Equal(t, skinned, SkinVertex(skinned, model.Skinned{}, fs, noSkinning))
	assert.NotEqual(t, rigid, SkinVertex(rigid, model.Parented{Bone: 0}, fs, noSkinning))
}

func TestSkin_SingleTriangleTranslated(t *testing.T) {
	_, fs := oneBoneFrame(t, mgl32.Translate3D(0, 5, 0))
	src := []model.Vertex{
		model.NewVertex(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}),
		model.NewVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}),
		model.NewVertex(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}),
	}
	for i := range src {
		src[i].Influences = [4]model.Influence{{0, 1}, {0, 0}, {0, 0}, {0, 0}}
	}
	obj := model.NewMeshObject("tri", src, []uint32{0, 1, 2},
		model.WithAttachment(model.ResolveAttachment(-1, src, 1)))
	require.True(t, obj.IsSkinned())

	dst := make([]model.Vertex, len(src))
	require.NoError(t, SkinMeshObject(context.Background(), NewDispatcher(WithWorkers(2)), obj, dst, fs, settings.DefaultSkinningSettings()))

	for i := range src {
		assertVec3InDelta(t, src[i].Position.Add(mgl32.Vec3{0, 5, 0}), dst[i].Position)
		assertVec3InDelta(t, src[i].Normal, dst[i].Normal)
	}
}

func TestSkin_DestinationTooSmall(t *testing.T) {
	_, fs := oneBoneFrame(t, mgl32.Ident4())
	src := make([]model.Vertex, 4)
	err := Skin(context.Background(), NewDispatcher(WithWorkers(1)), src, make([]model.Vertex, 2), model.Static{}, fs, settings.DefaultSkinningSettings())
	assert.Error(t, err)
}

// grid builds an n x n vertex patch in the z = 0 plane with counter-clockwise triangles.
func grid(n int) ([]model.Vertex, []uint32) {
	var vertices []model.Vertex
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			vertices = append(vertices, model.NewVertex(mgl32.Vec3{float32(x), float32(y), 0}, mgl32.Vec3{1, 0, 0}))
		}
	}
	var indices []uint32
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			i := uint32(y*n + x)
			indices = append(indices, i, i+1, i+uint32(n), i+1, i+uint32(n)+1, i+uint32(n))
		}
	}
	return vertices, indices
}

func TestSmoothNormals_PlanarPatchIdempotent(t *testing.T) {
	vertices, indices := grid(4)
	adj := model.BuildAdjacency(indices, len(vertices))
	d := NewDispatcher(WithWorkers(2))

	require.NoError(t, SmoothNormals(context.Background(), d, vertices, adj))
	first := make([]mgl32.Vec3, len(vertices))
	for i := range vertices {
		first[i] = vertices[i].Normal
		assertVec3InDelta(t, mgl32.Vec3{0, 0, 1}, vertices[i].Normal)
	}

	require.NoError(t, SmoothNormals(context.Background(), d, vertices, adj))
	for i := range vertices {
		assertVec3InDelta(t, first[i], vertices[i].Normal)
	}
}

func TestSmoothNormals_InvalidAdjacencyKeepsNormal(t *testing.T) {
	vertices := []model.Vertex{
		model.NewVertex(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		model.NewVertex(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}),
	}
	adj := model.Adjacency{{}, {}}
	for i := range adj {
		for k := range adj[i] {
			adj[i][k] = [2]int32{model.NoNeighbor, model.NoNeighbor}
		}
	}
	adj[0][0] = [2]int32{1, 7}
	adj[1][0] = [2]int32{-3, 0}

	require.NoError(t, SmoothNormals(context.Background(), NewDispatcher(WithWorkers(1)), vertices, adj))
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, vertices[0].Normal)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, vertices[1].Normal)
}

func TestSmoothNormals_OnlyNormalsChange(t *testing.T) {
	vertices, indices := grid(3)
	before := append([]model.Vertex(nil), vertices...)
	adj := model.BuildAdjacency(indices, len(vertices))

	require.NoError(t, SmoothNormals(context.Background(), NewDispatcher(), vertices, adj))
	for i := range vertices {
		assert.Equal(t, before[i].Position, vertices[i].Position)
		assert.Equal(t, before[i].Tangent, vertices[i].Tangent)
	}
}
