package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is ax + by + cz + d = 0 with (a, b, c) = Normal and d = Distance.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum holds the six view frustum planes with normals pointing inward.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// ExtractFrustum extracts frustum planes from a view-projection matrix using the
// Gribb/Hartmann method. The near plane uses the [0, 1] depth convention.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	rows := [6]mgl32.Vec4{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r2,
		r3.Sub(r2),
	}

	var f Frustum
	for i, r := range rows {
		n := r.Vec3()
		l := n.Len()
		if l > 0 {
			f.Planes[i] = Plane{Normal: n.Mul(1 / l), Distance: r[3] / l}
		}
	}
	return f
}

// IntersectsBox reports whether the axis-aligned box [lo, hi] is at least partially inside the frustum.
func (f Frustum) IntersectsBox(lo, hi mgl32.Vec3) bool {
	for _, p := range f.Planes {
		// positive vertex along the plane normal
		v := lo
		for k := 0; k < 3; k++ {
			if p.Normal[k] >= 0 {
				v[k] = hi[k]
			}
		}
		if p.Normal.Dot(v)+p.Distance < 0 {
			return false
		}
	}
	return true
}
