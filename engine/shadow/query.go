package shadow

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// ClampUV clamps each coordinate to [0, 1]. Shadow lookups outside the light volume must read
// the edge texel rather than wrap onto unrelated geometry.
func ClampUV(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{common.Saturate(uv[0]), common.Saturate(uv[1])}
}

// ProjectToLight maps a world position into shadow map UV and light depth.
//
// Parameters:
//   - lightTransform: the light view-projection
//   - world: the world position
//
// Returns:
//   - mgl32.Vec2: the unclamped UV, with V pointing down
//   - float32: the light space depth
func ProjectToLight(lightTransform mgl32.Mat4, world mgl32.Vec3) (mgl32.Vec2, float32) {
	p := lightTransform.Mul4x1(world.Vec4(1))
	if p[3] != 0 && p[3] != 1 {
		p = p.Mul(1 / p[3])
	}
	return mgl32.Vec2{p[0]*0.5 + 0.5, 0.5 - p[1]*0.5}, p[2]
}

// Sample reads the moments at uv with bilinear filtering. The UV is clamped first.
func (m *MomentMap) Sample(uv mgl32.Vec2) mgl32.Vec2 {
	uv = ClampUV(uv)
	fx := uv[0]*float32(m.Width) - 0.5
	fy := uv[1]*float32(m.Height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	top := lerp2(m.At(x0, y0), m.At(x0+1, y0), tx)
	bottom := lerp2(m.At(x0, y0+1), m.At(x0+1, y0+1), tx)
	return lerp2(top, bottom, ty)
}

func lerp2(a, b mgl32.Vec2, t float32) mgl32.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

// Chebyshev returns the upper bound on the fraction of light reaching depth t given the moments
// of the occluders in the filter region.
//
// Parameters:
//   - moments: the filtered (M1, M2)
//   - t: the receiver depth
//   - minVariance: the variance floor
//
// Returns:
//   - float32: visibility in [0, 1], 1 when t is in front of the mean
func Chebyshev(moments mgl32.Vec2, t, minVariance float32) float32 {
	mean := moments[0]
	if t <= mean {
		return 1
	}
	variance := max(moments[1]-mean*mean, minVariance)
	d := t - mean
	return common.Saturate(variance / (variance + d*d))
}

// Query returns the visibility of a light space point.
//
// Parameters:
//   - m: the variance map
//   - uv: the shadow map UV, clamped before sampling
//   - depth: the receiver's light space depth
//
// Returns:
//   - float32: visibility in [0, 1]
func Query(m *MomentMap, uv mgl32.Vec2, depth float32) float32 {
	if m == nil {
		return 1
	}
	return Chebyshev(m.Sample(uv), depth, MinVariance)
}

// QueryWorld projects a world position into the light and queries its visibility.
func QueryWorld(m *MomentMap, lightTransform mgl32.Mat4, world mgl32.Vec3) float32 {
	uv, depth := ProjectToLight(lightTransform, world)
	return Query(m, uv, depth)
}
