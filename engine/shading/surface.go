package shading

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
)

// Neutral values used in place of textures whose presence flag is unset.
var (
	DefaultAlbedo      = mgl32.Vec4{1, 1, 1, 1}
	DefaultNormalMap   = mgl32.Vec4{0.5, 0.5, 1, 1}
	DefaultPRM         = mgl32.Vec4{0, 1, 1, 0.16}
	DefaultEmission    = mgl32.Vec4{0, 0, 0, 0}
	DefaultVertexColor = mgl32.Vec4{0.5, 0.5, 0.5, 0.5}
	DefaultTexture     = mgl32.Vec4{0, 0, 0, 1}
)

// DefaultAlphaThreshold is the discard threshold of materials without CustomFloat19.
const DefaultAlphaThreshold = 0.5

// SpecularScale maps the PRM specular channel to a dielectric reflectance at normal incidence.
const SpecularScale = 0.2

// textureUV selects the UV set each texture slot is sampled with.
var textureUV = [material.TextureCount]int{
	material.SlotColor2:    model.UVSet,
	material.SlotBakedAO:   model.UVBake1,
	material.SlotBakeLit:   model.UVBake1,
	material.SlotDiffuse2:  model.UVSet1,
	material.SlotDiffuse3:  model.UVSet2,
	material.SlotEmissive2: model.UVSet,
}

// Surface is the material state at a fragment after texture sampling and parameter lookup.
type Surface struct {
	Albedo    mgl32.Vec4
	Normal    mgl32.Vec3
	NormalMap mgl32.Vec4
	Metalness float32
	Roughness float32
	AO        float32
	Specular  float32

	// F0 is the dielectric reflectance at normal incidence derived from Specular.
	F0           float32
	SpecularTint mgl32.Vec3
	Emission     mgl32.Vec3
	VertexColor  mgl32.Vec4
	Alpha        float32
}

// sample reads a texture slot, or returns def without touching tex when the slot is not present.
func sample(u *material.Uniforms, tex TextureSource, in *Fragment, slot int, def mgl32.Vec4) (mgl32.Vec4, bool) {
	if slot < 0 || slot >= material.TextureCount || !u.HasTexture[slot] || tex == nil {
		return def, false
	}
	return tex.Sample(slot, in.UV[textureUV[slot]]), true
}

// maskChannels replaces the channels whose mask is false with the default.
func maskChannels(v, def mgl32.Vec4, mask [4]bool) mgl32.Vec4 {
	for i := range v {
		if !mask[i] {
			v[i] = def[i]
		}
	}
	return v
}

// ResolveSurface samples the present textures and reads the present parameters of a material.
//
// Parameters:
//   - in: the fragment
//   - u: the material uniforms
//   - tex: the bound textures
//   - rs: the render settings of the frame
//
// Returns:
//   - Surface: the resolved surface
func ResolveSurface(in Fragment, u *material.Uniforms, tex TextureSource, rs settings.RenderSettings) Surface {
	s := Surface{SpecularTint: mgl32.Vec3{1, 1, 1}}

	albedo, hasAlbedo := sample(u, tex, &in, material.SlotColor, DefaultAlbedo)
	if layer, ok := sample(u, tex, &in, material.SlotColor2, DefaultTexture); ok {
		albedo = common.MixVec4(albedo, layer.Vec3().Vec4(albedo.W()), layer.W())
	}
	if diffuse, ok := sample(u, tex, &in, material.SlotDiffuse, DefaultAlbedo); ok {
		albedo = mgl32.Vec4{albedo[0] * diffuse[0], albedo[1] * diffuse[1], albedo[2] * diffuse[2], albedo[3]}
	}
	if u.HasVector[material.VectorAlbedoColor] {
		c := u.CustomVector[material.VectorAlbedoColor]
		albedo = mgl32.Vec4{albedo[0] * c[0], albedo[1] * c[1], albedo[2] * c[2], albedo[3]}
	}
	if u.HasBoolean[material.BooleanInvertAlpha] && u.CustomBoolean[material.BooleanInvertAlpha] {
		albedo[3] = 1 - albedo[3]
	}

	nor, _ := sample(u, tex, &in, material.SlotNormal, DefaultNormalMap)
	s.NormalMap = maskChannels(nor, DefaultNormalMap, rs.RenderNor)

	prm, _ := sample(u, tex, &in, material.SlotPRM, DefaultPRM)
	prm = maskChannels(prm, DefaultPRM, rs.RenderPrm)
	s.Metalness = common.Saturate(prm[0])
	s.Roughness = prm[1]
	if u.HasFloat[material.FloatRoughnessBias] {
		s.Roughness += u.CustomFloat[material.FloatRoughnessBias]
	}
	s.Roughness = common.Clamp(s.Roughness, 0.04, 1)
	s.AO = common.Saturate(prm[2])
	s.Specular = common.Saturate(prm[3])
	s.F0 = SpecularScale * s.Specular
	if u.HasVector[material.VectorSpecularTint] {
		s.SpecularTint = u.CustomVector[material.VectorSpecularTint].Vec3()
	}

	emission, hasEmission := sample(u, tex, &in, material.SlotEmissive, DefaultEmission)
	if e2, ok := sample(u, tex, &in, material.SlotEmissive2, DefaultEmission); ok {
		emission = emission.Add(e2)
	}
	if u.HasVector[material.VectorEmissionScale] {
		sc := u.CustomVector[material.VectorEmissionScale]
		emission = mgl32.Vec4{emission[0] * sc[0], emission[1] * sc[1], emission[2] * sc[2], emission[3]}
	}
	s.Emission = emission.Vec3()

	s.VertexColor = DefaultVertexColor
	if u.HasColorSet1234[0] {
		s.VertexColor = in.Colors[0]
	}
	if rs.ScaleVertexColor {
		s.VertexColor = s.VertexColor.Mul(2)
	}
	if !rs.RenderVertexColor {
		s.VertexColor = mgl32.Vec4{1, 1, 1, 1}
	}

	alpha := float32(1)
	if hasAlbedo {
		alpha *= albedo[3]
	}
	if hasEmission && u.HasVector[material.VectorAlphaOverride] {
		alpha *= emission[3]
	}
	if u.HasColorSet1234[0] && rs.RenderVertexColor {
		alpha *= s.VertexColor[3]
	}
	s.Alpha = alpha

	rgb := albedo.Vec3()
	vc := s.VertexColor
	s.Albedo = mgl32.Vec4{rgb[0] * vc[0], rgb[1] * vc[1], rgb[2] * vc[2], albedo[3]}

	s.Normal = perturbNormal(in, s.NormalMap)
	return s
}

// perturbNormal applies a tangent space normal map sample to the interpolated normal.
func perturbNormal(in Fragment, nor mgl32.Vec4) mgl32.Vec3 {
	n := common.NormalizeOr(in.Normal, mgl32.Vec3{0, 0, 1})
	t := in.Tangent.Vec3()
	t = common.NormalizeOr(t.Sub(n.Mul(n.Dot(t))), mgl32.Vec3{})
	if t.Len() == 0 {
		return n
	}
	sign := in.Tangent.W()
	if sign == 0 {
		sign = 1
	}
	b := n.Cross(t).Mul(sign)

	x := nor[0]*2 - 1
	y := nor[1]*2 - 1
	z := float32(math.Sqrt(float64(common.Saturate(1 - x*x - y*y))))
	return common.NormalizeOr(t.Mul(x).Add(b.Mul(y)).Add(n.Mul(z)), n)
}

// AlphaThreshold returns the discard threshold of a material.
func AlphaThreshold(u *material.Uniforms) float32 {
	if u.HasFloat[material.FloatAlphaThreshold] {
		return u.CustomFloat[material.FloatAlphaThreshold]
	}
	return DefaultAlphaThreshold
}
