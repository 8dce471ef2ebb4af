package shading

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
)

// ComplexityScale is the present-flag count that maps to the hot end of the complexity ramp.
const ComplexityScale = 32

// Gamma encodes a linear value with exponent 1/2.2.
func Gamma(v mgl32.Vec3) mgl32.Vec3 {
	const inv = 1 / 2.2
	return mgl32.Vec3{
		float32(math.Pow(float64(max(v[0], 0)), inv)),
		float32(math.Pow(float64(max(v[1], 0)), inv)),
		float32(math.Pow(float64(max(v[2], 0)), inv)),
	}
}

func remap(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(0.5).Add(mgl32.Vec3{0.5, 0.5, 0.5})
}

// defaultFor returns the neutral value shown for an unbound texture slot.
func defaultFor(slot int) mgl32.Vec4 {
	switch slot {
	case material.SlotColor, material.SlotDiffuse:
		return DefaultAlbedo
	case material.SlotNormal, material.SlotInkNormal:
		return DefaultNormalMap
	case material.SlotPRM:
		return DefaultPRM
	default:
		return DefaultTexture
	}
}

// uvPattern is a checkerboard of the UV coordinates used to inspect texture layout.
func uvPattern(uv mgl32.Vec2) mgl32.Vec4 {
	cx := int(math.Floor(float64(uv[0] * 8)))
	cy := int(math.Floor(float64(uv[1] * 8)))
	if (cx+cy)&1 == 0 {
		return mgl32.Vec4{uv[0] - float32(math.Floor(float64(uv[0]))), uv[1] - float32(math.Floor(float64(uv[1]))), 1, 1}
	}
	return mgl32.Vec4{0.1, 0.1, 0.1, 1}
}

// complexityRamp maps t in [0, 1] from blue through green to red.
func complexityRamp(t float32) mgl32.Vec3 {
	t = common.Saturate(t)
	if t < 0.5 {
		return common.MixVec3(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, t*2)
	}
	return common.MixVec3(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, (t-0.5)*2)
}

// ShadeDebug outputs the raw quantity selected by rs.DebugMode instead of the lit color.
// Debug output never discards. Modes that show vertex data ignore the material entirely.
//
// Parameters:
//   - in: the fragment
//   - u: the material uniforms
//   - tex: the bound textures
//   - rs: the render settings of the frame
//
// Returns:
//   - Output: the debug color
func ShadeDebug(in Fragment, u *material.Uniforms, tex TextureSource, rs settings.RenderSettings) Output {
	rs = rs.Clamped()
	if u == nil {
		u = &material.Uniforms{EnableSpecular: true}
	}
	n := common.NormalizeOr(in.Normal, mgl32.Vec3{0, 0, 1})
	var c mgl32.Vec4

	mode := rs.DebugMode
	switch {
	case mode == settings.DebugPosition0:
		c = in.Position.Vec4(1)
	case mode == settings.DebugNormal0:
		c = remap(n).Vec4(1)
	case mode == settings.DebugTangent0:
		c = remap(in.Tangent.Vec3()).Vec4(1)
	case mode >= settings.DebugColorSet1 && mode <= settings.DebugColorSet7:
		c = in.Colors[mode-settings.DebugColorSet1]
	case mode == settings.DebugMap1:
		c = mgl32.Vec4{in.UV[model.UVMap1][0], in.UV[model.UVMap1][1], 0, 1}
	case mode == settings.DebugBake1:
		c = mgl32.Vec4{in.UV[model.UVBake1][0], in.UV[model.UVBake1][1], 0, 1}
	case mode == settings.DebugUVSet:
		c = mgl32.Vec4{in.UV[model.UVSet][0], in.UV[model.UVSet][1], 0, 1}
	case mode == settings.DebugUVSet1:
		c = mgl32.Vec4{in.UV[model.UVSet1][0], in.UV[model.UVSet1][1], 0, 1}
	case mode == settings.DebugUVSet2:
		c = mgl32.Vec4{in.UV[model.UVSet2][0], in.UV[model.UVSet2][1], 0, 1}
	case mode == settings.DebugBasic:
		v := common.NormalizeOr(in.ViewDir, n)
		k := max(n.Dot(v), 0)*0.5 + 0.5
		c = mgl32.Vec4{k, k, k, 1}
	case mode == settings.DebugNormals:
		c = Gamma(remap(n)).Vec4(1)
		return Output{Color: c}
	case mode == settings.DebugBitangents:
		b := n.Cross(in.Tangent.Vec3()).Mul(common.Coalesce(in.Tangent.W(), 1))
		c = remap(common.NormalizeOr(b, mgl32.Vec3{})).Vec4(1)
	case mode == settings.DebugAlbedo:
		s := ResolveSurface(in, u, tex, rs)
		c = s.Albedo.Vec3().Vec4(s.Alpha)
	case mode == settings.DebugShaderComplexity:
		c = complexityRamp(float32(u.PresentCount()) / ComplexityScale).Vec4(1)
	default:
		slot, ok := mode.TextureSlot()
		if !ok {
			return Shade(in, u, tex, rs, DefaultEnvironment())
		}
		if rs.UseUVPattern {
			c = uvPattern(in.UV[textureUV[slot]])
		} else {
			c, _ = sample(u, tex, &in, slot, defaultFor(slot))
		}
	}
	return Output{Color: maskOutput(c, rs.RenderRGBA)}
}

// maskOutput zeroes masked color channels. A masked alpha channel is shown as opaque.
func maskOutput(c mgl32.Vec4, mask [4]bool) mgl32.Vec4 {
	for i := 0; i < 3; i++ {
		if !mask[i] {
			c[i] = 0
		}
	}
	if !mask[3] {
		c[3] = 1
	}
	return c
}
