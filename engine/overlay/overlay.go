// Package overlay builds the viewer geometry drawn on top of the shaded model: the skeleton
// (joints, bones and bone axes) and the floor grid. Geometry is produced in world space on the
// CPU each frame so both backends draw exactly the same triangles.
package overlay

import (
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one overlay vertex in world space. Colors are lit when the mesh is built.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Empty reports whether the mesh has nothing to draw.
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// lightDir is the fixed key light of the overlay, pointing toward the light.
var lightDir = mgl32.Vec3{0.3, 1, 0.5}.Normalize()

// lit darkens c by how far the face with normal n turns away from the key light.
func lit(c mgl32.Vec4, n mgl32.Vec3) mgl32.Vec4 {
	if n.Len() == 0 {
		return c
	}
	k := 0.55 + 0.45*max(n.Normalize().Dot(lightDir), 0)
	return mgl32.Vec4{c[0] * k, c[1] * k, c[2] * k, c[3]}
}

// addTriangle appends a flat shaded triangle.
func (m *Mesh) addTriangle(a, b, c mgl32.Vec3, color mgl32.Vec4) {
	shaded := lit(color, b.Sub(a).Cross(c.Sub(a)))
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		Vertex{Position: a, Color: shaded},
		Vertex{Position: b, Color: shaded},
		Vertex{Position: c, Color: shaded},
	)
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// addQuad appends the quad a b c d as two triangles.
func (m *Mesh) addQuad(a, b, c, d mgl32.Vec3, color mgl32.Vec4) {
	m.addTriangle(a, b, c, color)
	m.addTriangle(a, c, d, color)
}

// BoneRadius picks the bone sphere radius for a model: one percent of its bounding box
// diagonal, or 0.05 for an empty box.
func BoneRadius(bounds dvec3.Box) float32 {
	d := dvec3.Sub(&bounds.Max, &bounds.Min)
	diag := float32(d.Length())
	if diag <= 0 || math.IsNaN(float64(diag)) {
		return 0.05
	}
	return diag * 0.01
}
