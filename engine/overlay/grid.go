package overlay

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// Floor grid layout, mirrored by programs/floor_grid.wgsl.
const (
	// GridExtent is the half size of the grid quad on the XZ plane. Lines fade out toward it.
	GridExtent = 100
	// GridCellSize is the distance between grid lines.
	GridCellSize = 1

	gridLineAlpha = 0.35
)

// Floor grid colors. The X axis runs red and the Z axis blue.
var (
	GridLineColor  = mgl32.Vec3{0.5, 0.5, 0.5}
	GridAxisXColor = mgl32.Vec3{0.8, 0.15, 0.15}
	GridAxisZColor = mgl32.Vec3{0.15, 0.3, 0.8}
)

// GridMesh returns the two triangles of the grid quad at y = 0.
func GridMesh() Mesh {
	e := float32(GridExtent)
	var m Mesh
	for _, p := range []mgl32.Vec3{{-e, 0, -e}, {e, 0, -e}, {e, 0, e}, {-e, 0, e}} {
		m.Vertices = append(m.Vertices, Vertex{Position: p})
	}
	m.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return m
}

// gridLine is the coverage of the nearest integer line at coord, antialiased over width.
func gridLine(coord, width float32) float32 {
	d := float32(math.Abs(float64(coord) - math.Round(float64(coord))))
	return 1 - common.Saturate(d/max(width, 1e-4))
}

// axisLine is the coverage of the line at coord = 0.
func axisLine(coord, width float32) float32 {
	return 1 - common.Saturate(float32(math.Abs(float64(coord)))/max(width, 1e-4))
}

// GridColor returns the straight alpha color of the grid at a ground point.
//
// Parameters:
//   - p: the point on the ground as (x, z)
//   - footprint: the ground size of one pixel along x and z, as fwidth measures it
//
// Returns:
//   - mgl32.Vec4: the grid color, alpha 0 between lines
func GridColor(p, footprint mgl32.Vec2) mgl32.Vec4 {
	minor := max(
		gridLine(p[0]/GridCellSize, footprint[0]/GridCellSize),
		gridLine(p[1]/GridCellSize, footprint[1]/GridCellSize),
	)
	color := GridLineColor
	alpha := minor * gridLineAlpha

	xAxis := axisLine(p[1], footprint[1])
	color = common.MixVec3(color, GridAxisXColor, xAxis)
	alpha = max(alpha, xAxis)
	zAxis := axisLine(p[0], footprint[0])
	color = common.MixVec3(color, GridAxisZColor, zAxis)
	alpha = max(alpha, zAxis)

	fade := 1 - common.Saturate(p.Len()/GridExtent)
	return color.Vec4(alpha * fade)
}

// GroundPoint intersects the view ray through a point of the screen with the y = 0 plane.
//
// Parameters:
//   - invViewProj: the inverse of the view projection matrix
//   - ndc: the screen point in normalized device coordinates
//
// Returns:
//   - mgl32.Vec3: the point on the ground
//   - bool: false when the ray runs parallel to the ground or hits it behind the camera
func GroundPoint(invViewProj mgl32.Mat4, ndc mgl32.Vec2) (mgl32.Vec3, bool) {
	near := invViewProj.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], 0, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], 1, 1})
	if near[3] == 0 || far[3] == 0 {
		return mgl32.Vec3{}, false
	}
	from := near.Vec3().Mul(1 / near[3])
	dir := far.Vec3().Mul(1 / far[3]).Sub(from)
	if math.Abs(float64(dir[1])) < 1e-8 {
		return mgl32.Vec3{}, false
	}
	t := -from[1] / dir[1]
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return from.Add(dir.Mul(t)), true
}
