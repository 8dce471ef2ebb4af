package raster

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"

	"github.com/go-gl/mathgl/mgl32"
)

// State is the fixed function configuration of a draw.
type State struct {
	Cull       material.CullMode
	Blend      material.BlendMode
	DepthTest  bool
	DepthWrite bool

	// Wireframe keeps only fragments within one pixel of a triangle edge.
	Wireframe bool
}

// OpaqueState returns back face culling with depth test and write.
func OpaqueState() State {
	return State{Cull: material.CullBack, Blend: material.BlendOpaque, DepthTest: true, DepthWrite: true}
}

// Triangle is a primitive in clip space. Primitive is handed back in every Fragment so the
// caller can find its vertex attributes.
type Triangle struct {
	Clip      [3]mgl32.Vec4
	Primitive int
}

// Fragment is one covered pixel.
type Fragment struct {
	X, Y  int
	Depth float32

	// Bary holds perspective correct weights of the primitive's three vertices.
	Bary        mgl32.Vec3
	Primitive   int
	FrontFacing bool
}

// ShadeFunc computes the color of a fragment. Returning false discards it.
type ShadeFunc func(f Fragment) (mgl32.Vec4, bool)

// Interpolate3 blends three vectors by barycentric weights.
func Interpolate3(b mgl32.Vec3, v0, v1, v2 mgl32.Vec3) mgl32.Vec3 {
	return v0.Mul(b[0]).Add(v1.Mul(b[1])).Add(v2.Mul(b[2]))
}

// Interpolate4 blends three vectors by barycentric weights.
func Interpolate4(b mgl32.Vec3, v0, v1, v2 mgl32.Vec4) mgl32.Vec4 {
	return v0.Mul(b[0]).Add(v1.Mul(b[1])).Add(v2.Mul(b[2]))
}

// Interpolate2 blends three vectors by barycentric weights.
func Interpolate2(b mgl32.Vec3, v0, v1, v2 mgl32.Vec2) mgl32.Vec2 {
	return v0.Mul(b[0]).Add(v1.Mul(b[1])).Add(v2.Mul(b[2]))
}

func blend(mode material.BlendMode, dst, src mgl32.Vec4) mgl32.Vec4 {
	switch mode {
	case material.BlendAlpha:
		a := src[3]
		rgb := src.Vec3().Mul(a).Add(dst.Vec3().Mul(1 - a))
		return rgb.Vec4(a + dst[3]*(1-a))
	case material.BlendAdditive:
		rgb := dst.Vec3().Add(src.Vec3().Mul(src[3]))
		return rgb.Vec4(min(dst[3]+src[3], 1))
	default:
		return src
	}
}
