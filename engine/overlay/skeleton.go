package overlay

import (
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// Skeleton colors. Helper bones are the H_ prefixed bones driven by constraints rather than
// animation.
var (
	BoneColor       = mgl32.Vec4{0.65, 0.65, 0.65, 1}
	HelperBoneColor = mgl32.Vec4{0.3, 0, 0.6, 1}
	AxisColors      = [3]mgl32.Vec4{{1, 0, 0, 1}, {0, 1, 0, 1}, {0, 0, 1, 1}}
)

// helperPrefix marks helper bones by name.
const helperPrefix = "H_"

// Sphere and joint proportions relative to the bone radius.
const (
	sphereSegments = 8
	jointRing      = 0.9
	axisLength     = 4
	axisWidth      = 0.25
)

// SkeletonOptions select the parts of the skeleton overlay.
type SkeletonOptions struct {
	// Bones draws a sphere per bone and a joint pyramid from each bone to its parent.
	Bones bool
	// Axes draws the X, Y and Z axes of each bone in red, green and blue.
	Axes bool
	// Radius is the bone sphere radius in world units.
	Radius float32
}

// BoneColorOf returns the overlay color of a bone.
func BoneColorOf(b skeleton.Bone) mgl32.Vec4 {
	if strings.HasPrefix(b.Name, helperPrefix) {
		return HelperBoneColor
	}
	return BoneColor
}

// JointTransforms returns one transform per bone mapping the unit joint, which points up the Y
// axis from the origin, onto the segment from the bone to its parent. Y is scaled by the
// segment length. Roots and bones sitting on their parent get a zero length joint.
//
// Parameters:
//   - s: the skeleton
//   - world: the current world transform per bone
//
// Returns:
//   - []mgl32.Mat4: the joint transform per bone
func JointTransforms(s skeleton.Skeleton, world []mgl32.Mat4) []mgl32.Mat4 {
	n := min(s.Len(), len(world))
	out := make([]mgl32.Mat4, n)
	for i := 0; i < n; i++ {
		pos := world[i].Col(3).Vec3()
		parentPos := pos
		if p := s.Parent(i); p >= 0 && p < n {
			parentPos = world[p].Col(3).Vec3()
		}
		dir := parentPos.Sub(pos)
		length := dir.Len()
		rotation := mgl32.QuatIdent()
		if length > 0 {
			rotation = mgl32.QuatBetweenVectors(mgl32.Vec3{0, 1, 0}, dir.Mul(1/length))
		}
		out[i] = mgl32.Translate3D(pos[0], pos[1], pos[2]).
			Mul4(rotation.Mat4()).
			Mul4(mgl32.Scale3D(1, length, 1))
	}
	return out
}

// BuildSkeleton returns the skeleton overlay of one frame: joints first, then bone spheres,
// then axes.
//
// Parameters:
//   - s: the skeleton, nil draws nothing
//   - world: the current world transform per bone
//   - opts: the parts to draw and the bone radius
//
// Returns:
//   - Mesh: the world space triangles
func BuildSkeleton(s skeleton.Skeleton, world []mgl32.Mat4, opts SkeletonOptions) Mesh {
	var m Mesh
	if s == nil || (!opts.Bones && !opts.Axes) {
		return m
	}
	bones := s.Bones()
	n := min(s.Len(), len(world))

	if opts.Bones {
		joints := JointTransforms(s, world)
		for i := 0; i < n; i++ {
			if s.Parent(i) >= 0 {
				m.addJoint(joints[i], opts.Radius, BoneColorOf(bones[i]))
			}
		}
		for i := 0; i < n; i++ {
			m.addSphere(world[i].Col(3).Vec3(), opts.Radius, BoneColorOf(bones[i]))
		}
	}
	if opts.Axes {
		for i := 0; i < n; i++ {
			origin := world[i].Col(3).Vec3()
			for k := range 3 {
				axis := world[i].Col(k).Vec3()
				if axis.Len() == 0 {
					continue
				}
				m.addStick(origin, axis.Normalize().Mul(axisLength*opts.Radius), axisWidth*opts.Radius, AxisColors[k])
			}
		}
	}
	return m
}

// addJoint appends a double pyramid with its tip at the bone, a square ring near the parent
// and its apex on the parent. The ring corners sit radius world units off the segment.
func (m *Mesh) addJoint(t mgl32.Mat4, radius float32, color mgl32.Vec4) {
	if t.Col(1).Vec3().Len() == 0 {
		return
	}
	at := func(x, y, z float32) mgl32.Vec3 {
		return mgl32.TransformCoordinate(mgl32.Vec3{x, y, z}, t)
	}
	tip, apex := at(0, 0, 0), at(0, 1, 0)
	r := radius * math.Sqrt2 / 2
	ring := [4]mgl32.Vec3{
		at(-r, jointRing, -r),
		at(r, jointRing, -r),
		at(r, jointRing, r),
		at(-r, jointRing, r),
	}
	for i := range ring {
		a, b := ring[i], ring[(i+1)%4]
		m.addTriangle(tip, b, a, color)
		m.addTriangle(apex, a, b, color)
	}
}

// addSphere appends a latitude and longitude sphere.
func (m *Mesh) addSphere(center mgl32.Vec3, radius float32, color mgl32.Vec4) {
	point := func(lat, lon int) mgl32.Vec3 {
		theta := math.Pi * float64(lat) / sphereSegments
		phi := 2 * math.Pi * float64(lon) / sphereSegments
		return center.Add(mgl32.Vec3{
			float32(math.Sin(theta) * math.Cos(phi)),
			float32(math.Cos(theta)),
			float32(math.Sin(theta) * math.Sin(phi)),
		}.Mul(radius))
	}
	for lat := 0; lat < sphereSegments; lat++ {
		for lon := 0; lon < sphereSegments; lon++ {
			a, b := point(lat, lon), point(lat+1, lon)
			c, d := point(lat+1, lon+1), point(lat, lon+1)
			switch lat {
			case 0:
				m.addTriangle(a, c, b, color)
			case sphereSegments - 1:
				m.addTriangle(a, d, b, color)
			default:
				m.addQuad(a, d, c, b, color)
			}
		}
	}
}

// addStick appends a square box from origin to origin+dir with the given half width.
func (m *Mesh) addStick(origin, dir mgl32.Vec3, halfWidth float32, color mgl32.Vec4) {
	d := dir.Normalize()
	ref := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(d.Dot(ref))) > 0.9 {
		ref = mgl32.Vec3{1, 0, 0}
	}
	u := d.Cross(ref).Normalize().Mul(halfWidth)
	v := d.Cross(u).Normalize().Mul(halfWidth)

	end := origin.Add(dir)
	var near, far [4]mgl32.Vec3
	for i, o := range [4]mgl32.Vec3{u.Add(v), u.Sub(v), u.Mul(-1).Sub(v), v.Sub(u)} {
		near[i], far[i] = origin.Add(o), end.Add(o)
	}
	for i := range near {
		j := (i + 1) % 4
		m.addQuad(near[i], near[j], far[j], far[i], color)
	}
	m.addQuad(near[3], near[2], near[1], near[0], color)
	m.addQuad(far[0], far[1], far[2], far[3], color)
}
