package model

import (
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// ComputeBounds returns the axis-aligned bounding box of the vertex positions.
// An empty vertex list yields the zero box.
func ComputeBounds(vertices []Vertex) dvec3.Box {
	if len(vertices) == 0 {
		return dvec3.Box{}
	}
	box := dvec3.MinBox
	for i := range vertices {
		p := vertices[i].Position
		pt := dvec3.T{float64(p[0]), float64(p[1]), float64(p[2])}
		point := dvec3.Box{Min: pt, Max: pt}
		box.Join(&point)
	}
	return box
}

// JoinBounds merges boxes, skipping zero boxes from empty meshes.
func JoinBounds(boxes ...dvec3.Box) dvec3.Box {
	out := dvec3.MinBox
	found := false
	for i := range boxes {
		if boxes[i] == (dvec3.Box{}) {
			continue
		}
		out.Join(&boxes[i])
		found = true
	}
	if !found {
		return dvec3.Box{}
	}
	return out
}

// BoxCorners converts a box to single precision min/max corners.
func BoxCorners(b dvec3.Box) (mgl32.Vec3, mgl32.Vec3) {
	return mgl32.Vec3{float32(b.Min[0]), float32(b.Min[1]), float32(b.Min[2])},
		mgl32.Vec3{float32(b.Max[0]), float32(b.Max[1]), float32(b.Max[2])}
}

// BoxCenterExtent returns the center and half-size of a box.
func BoxCenterExtent(b dvec3.Box) (center, extent mgl32.Vec3) {
	lo, hi := BoxCorners(b)
	return lo.Add(hi).Mul(0.5), hi.Sub(lo).Mul(0.5)
}
