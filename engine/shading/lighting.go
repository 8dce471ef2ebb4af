package shading

import (
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
)

// LightingFunc computes the lit color of a resolved surface. It is the swappable BRDF of the
// forward pass and must be a pure function of its arguments.
type LightingFunc func(s Surface, in Fragment, u *material.Uniforms, rs settings.RenderSettings, env Environment) mgl32.Vec3

// Environment is the lighting state shared by every fragment of a draw call.
type Environment struct {
	// LightDir points from the surface toward the light.
	LightDir   mgl32.Vec3
	LightColor mgl32.Vec3
	Ambient    mgl32.Vec3
	// Lighting is the BRDF; nil selects DefaultLighting.
	Lighting LightingFunc
}

// DefaultEnvironment is a white key light from above the camera with a dim ambient term.
func DefaultEnvironment() Environment {
	return Environment{
		LightDir:   mgl32.Vec3{0.3, 0.8, 0.5}.Normalize(),
		LightColor: mgl32.Vec3{1, 1, 1},
		Ambient:    mgl32.Vec3{0.2, 0.2, 0.2},
	}
}

// DefaultLighting is a Lambert diffuse plus GGX specular plus rim BRDF. Each term is gated by
// its render settings toggle.
func DefaultLighting(s Surface, in Fragment, u *material.Uniforms, rs settings.RenderSettings, env Environment) mgl32.Vec3 {
	n := s.Normal
	l := common.NormalizeOr(env.LightDir, mgl32.Vec3{0, 1, 0})
	v := common.NormalizeOr(in.ViewDir, n)

	nDotL := max(n.Dot(l), 0)
	nDotV := max(n.Dot(v), 1e-4)
	shadow := float32(1)
	if rs.RenderShadows {
		shadow = common.Saturate(in.Shadow)
	}
	direct := env.LightColor.Mul(nDotL * shadow)

	var out mgl32.Vec3
	albedo := s.Albedo.Vec3()
	if rs.RenderDiffuse {
		lit := direct.Add(env.Ambient.Mul(s.AO))
		diffuse := albedo.Mul(1 - s.Metalness)
		out = out.Add(mul3(diffuse, lit))
	}

	if rs.RenderSpecular && u.EnableSpecular && nDotL > 0 {
		f0 := common.MixVec3(mgl32.Vec3{s.F0, s.F0, s.F0}, albedo, s.Metalness)
		h := common.NormalizeOr(l.Add(v), n)
		nDotH := max(n.Dot(h), 0)
		vDotH := max(v.Dot(h), 0)

		a := s.Roughness * s.Roughness
		d := ggx(nDotH, a)
		g := smithG(nDotL, a) * smithG(nDotV, a)
		fresnel := float32(math.Pow(float64(1-vDotH), 5))
		f := f0.Add(mgl32.Vec3{1, 1, 1}.Sub(f0).Mul(fresnel))

		spec := f.Mul(d * g / (4 * nDotV))
		out = out.Add(mul3(mul3(spec, s.SpecularTint), direct))
	}

	if rs.RenderRimLighting && u.HasVector[material.VectorRimColor] {
		rim := u.CustomVector[material.VectorRimColor]
		k := float32(math.Pow(float64(1-nDotV), 3)) * rim.W()
		out = out.Add(rim.Vec3().Mul(k))
	}

	if rs.RenderEmission {
		out = out.Add(s.Emission)
	}
	return out
}

func ggx(nDotH, a float32) float32 {
	a2 := a * a
	d := nDotH*nDotH*(a2-1) + 1
	return a2 / (math.Pi * d * d)
}

func smithG(nDotX, a float32) float32 {
	k := a / 2
	return nDotX / (nDotX*(1-k) + k)
}

func mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
