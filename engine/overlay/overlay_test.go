package overlay

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBones(t *testing.T) (skeleton.Skeleton, []mgl32.Mat4) {
	t.Helper()
	s, err := skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "Hip", Parent: skeleton.NoParent, Local: mgl32.Translate3D(1, 0, 0)},
		{Name: "H_Knee", Parent: 0, Local: mgl32.Translate3D(0, -2, 0)},
	})
	require.NoError(t, err)
	return s, []mgl32.Mat4{s.RestWorld(0), s.RestWorld(1)}
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, msgAndArgs...)
	}
}

func TestJointTransforms_PointAtParent(t *testing.T) {
	s, world := twoBones(t)
	joints := JointTransforms(s, world)
	require.Len(t, joints, 2)

	assertVecNear(t, mgl32.Vec3{1, -2, 0}, mgl32.TransformCoordinate(mgl32.Vec3{}, joints[1]), "tip on the bone")
	assertVecNear(t, mgl32.Vec3{1, 0, 0}, mgl32.TransformCoordinate(mgl32.Vec3{0, 1, 0}, joints[1]), "apex on the parent")
	assert.InDelta(t, 0, joints[0].Col(1).Vec3().Len(), 1e-6, "roots have no joint")
}

func TestBuildSkeleton_Parts(t *testing.T) {
	s, world := twoBones(t)

	none := BuildSkeleton(s, world, SkeletonOptions{Radius: 0.1})
	assert.True(t, none.Empty())
	assert.True(t, BuildSkeleton(nil, world, SkeletonOptions{Bones: true, Radius: 0.1}).Empty())

	bones := BuildSkeleton(s, world, SkeletonOptions{Bones: true, Radius: 0.1})
	sphere := 2*sphereSegments + (sphereSegments-2)*sphereSegments*2
	joint := 8
	assert.Len(t, bones.Indices, 3*(joint+2*sphere))
	assert.Len(t, bones.Vertices, len(bones.Indices))

	axes := BuildSkeleton(s, world, SkeletonOptions{Axes: true, Radius: 0.1})
	assert.Len(t, axes.Indices, 3*2*3*12, "three sticks of twelve triangles per bone")
}

func TestBuildSkeleton_Colors(t *testing.T) {
	s, world := twoBones(t)
	m := BuildSkeleton(s, world, SkeletonOptions{Bones: true, Radius: 0.1})

	var helper, regular int
	for _, v := range m.Vertices {
		switch {
		case v.Color[0] > v.Color[1] && v.Color[2] > v.Color[0]:
			helper++
		case v.Color[0] == v.Color[1] && v.Color[1] == v.Color[2]:
			regular++
		}
	}
	assert.Greater(t, helper, 0, "the H_ bone and its joint")
	assert.Greater(t, regular, 0)
	assert.Equal(t, len(m.Vertices), helper+regular)
}

func TestBuildSkeleton_AxesFollowBoneRotation(t *testing.T) {
	s, err := skeleton.NewSkeleton([]skeleton.Bone{{Name: "Root", Parent: skeleton.NoParent, Local: mgl32.Ident4()}})
	require.NoError(t, err)
	world := []mgl32.Mat4{mgl32.HomogRotate3DZ(mgl32.DegToRad(90))}

	m := BuildSkeleton(s, world, SkeletonOptions{Axes: true, Radius: 0.25})
	var reach mgl32.Vec3
	for _, v := range m.Vertices {
		if v.Color[0] > 0 && v.Color[1] == 0 && v.Position.Len() > reach.Len() {
			reach = v.Position
		}
	}
	// The X axis is rotated onto +Y and is four radii long.
	assert.InDelta(t, 1, reach[1], 1e-4)
	assert.Less(t, reach[0]*reach[0]+reach[2]*reach[2], float32(0.02))
}

func TestBoneRadius(t *testing.T) {
	assert.Equal(t, float32(0.05), BoneRadius(dvec3.Box{}))
	box := dvec3.Box{Min: dvec3.T{0, 0, 0}, Max: dvec3.T{3, 4, 0}}
	assert.InDelta(t, 0.05, BoneRadius(box), 1e-6)
}

func TestGridColor(t *testing.T) {
	fw := mgl32.Vec2{0.05, 0.05}

	origin := GridColor(mgl32.Vec2{0, 0}, fw)
	assert.InDelta(t, 1, origin[3], 1e-6, "the axes cross at the origin")

	xAxis := GridColor(mgl32.Vec2{3.5, 0}, fw)
	assert.Greater(t, xAxis[0], xAxis[2], "the x axis is red")
	zAxis := GridColor(mgl32.Vec2{0, 3.5}, fw)
	assert.Greater(t, zAxis[2], zAxis[0], "the z axis is blue")

	line := GridColor(mgl32.Vec2{2, 3.5}, fw)
	assert.InDelta(t, gridLineAlpha*(1-mgl32.Vec2{2, 3.5}.Len()/GridExtent), line[3], 1e-5)
	assert.Equal(t, float32(0), GridColor(mgl32.Vec2{2.5, 3.5}, fw)[3], "between lines")
	assert.Equal(t, float32(0), GridColor(mgl32.Vec2{GridExtent, 0}, fw)[3], "faded at the edge")
}

func TestGroundPoint(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 5, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	inv := proj.Mul4(view).Inv()

	p, ok := GroundPoint(inv, mgl32.Vec2{0, 0})
	require.True(t, ok)
	for i := range p {
		assert.InDelta(t, 0, p[i], 1e-3)
	}

	_, ok = GroundPoint(inv, mgl32.Vec2{0, 1})
	assert.True(t, ok, "the top edge still looks down")

	up := mgl32.LookAtV(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 10, 1}, mgl32.Vec3{0, 1, 0})
	_, ok = GroundPoint(proj.Mul4(up).Inv(), mgl32.Vec2{0, 0})
	assert.False(t, ok, "looking up never reaches the ground")
}

func TestMeshMarshal(t *testing.T) {
	m := GridMesh()
	assert.Len(t, m.MarshalVertices(), 4*GPUVertexSize)
	assert.Len(t, m.MarshalIndices(), 6*4)
}
