package shading

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
)

// Shade computes the color of one fragment of the forward pass.
//
// Textures are sampled only for slots whose presence flag is set; every other term uses its
// neutral default. Alpha is the product of the present albedo, emission and vertex color
// alphas. Discarding materials drop fragments below their alpha threshold. Any debug mode other
// than settings.DebugShaded is delegated to ShadeDebug.
//
// Parameters:
//   - in: the fragment
//   - u: the material uniforms
//   - tex: the bound textures
//   - rs: the render settings of the frame
//   - env: the lighting environment of the draw call
//
// Returns:
//   - Output: the shaded color, discard flag and resolved surface
func Shade(in Fragment, u *material.Uniforms, tex TextureSource, rs settings.RenderSettings, env Environment) Output {
	rs = rs.Clamped()
	if rs.DebugMode != settings.DebugShaded {
		return ShadeDebug(in, u, tex, rs)
	}
	if u == nil {
		u = &material.Uniforms{EnableSpecular: true}
	}

	s := ResolveSurface(in, u, tex, rs)
	s = ApplyTransition(s, in, u, tex, rs)

	if u.IsDiscard && s.Alpha < AlphaThreshold(u) {
		return Output{Discard: true, Surface: s}
	}

	lighting := env.Lighting
	if lighting == nil {
		lighting = DefaultLighting
	}
	rgb := lighting(s, in, u, rs, env)
	return Output{Color: maskOutput(rgb.Vec4(s.Alpha), rs.RenderRGBA), Surface: s}
}
