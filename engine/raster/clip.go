package raster

import (
	"github.com/go-gl/mathgl/mgl32"
)

// clipVertex is a clip space position plus its weights over the source triangle's vertices.
type clipVertex struct {
	pos  mgl32.Vec4
	bary mgl32.Vec3
}

// maxClipVertices bounds a triangle clipped by two planes.
const maxClipVertices = 5

type clipPolygon struct {
	v [maxClipVertices]clipVertex
	n int
}

// clipNearFar clips a triangle against 0 <= z <= w, the depth range of a zero-to-one projection.
// The result is empty when the triangle lies outside the range.
func clipNearFar(t Triangle) clipPolygon {
	var poly clipPolygon
	poly.v[0] = clipVertex{pos: t.Clip[0], bary: mgl32.Vec3{1, 0, 0}}
	poly.v[1] = clipVertex{pos: t.Clip[1], bary: mgl32.Vec3{0, 1, 0}}
	poly.v[2] = clipVertex{pos: t.Clip[2], bary: mgl32.Vec3{0, 0, 1}}
	poly.n = 3

	poly = clipAgainst(poly, func(p mgl32.Vec4) float32 { return p[2] })
	poly = clipAgainst(poly, func(p mgl32.Vec4) float32 { return p[3] - p[2] })
	return poly
}

// clipAgainst keeps the part of the polygon where dist >= 0.
func clipAgainst(in clipPolygon, dist func(mgl32.Vec4) float32) clipPolygon {
	var out clipPolygon
	if in.n == 0 {
		return out
	}
	for i := 0; i < in.n; i++ {
		a := in.v[i]
		b := in.v[(i+1)%in.n]
		da, db := dist(a.pos), dist(b.pos)
		if da >= 0 && out.n < maxClipVertices {
			out.v[out.n] = a
			out.n++
		}
		if (da >= 0) != (db >= 0) && out.n < maxClipVertices {
			t := da / (da - db)
			out.v[out.n] = clipVertex{
				pos:  a.pos.Add(b.pos.Sub(a.pos).Mul(t)),
				bary: a.bary.Add(b.bary.Sub(a.bary).Mul(t)),
			}
			out.n++
		}
	}
	if out.n < 3 {
		out.n = 0
	}
	return out
}
