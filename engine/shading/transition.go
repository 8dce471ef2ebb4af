package shading

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
)

// TransitionPreset is the surface a transition blends toward.
type TransitionPreset struct {
	Albedo    mgl32.Vec3
	Metalness float32
	Roughness float32
}

// TransitionPresets are indexed by settings.TransitionMaterial.
var TransitionPresets = [...]TransitionPreset{
	settings.TransitionInk:      {Albedo: mgl32.Vec3{0.758, 0.116, 0.04}, Metalness: 0, Roughness: 0.3},
	settings.TransitionMetalBox: {Albedo: mgl32.Vec3{0.257, 0.257, 0.257}, Metalness: 1, Roughness: 0.2},
	settings.TransitionGold:     {Albedo: mgl32.Vec3{0.922, 0.685, 0.29}, Metalness: 1, Roughness: 0.25},
	settings.TransitionDitto:    {Albedo: mgl32.Vec3{0.564, 0.357, 0.88}, Metalness: 0, Roughness: 0.7},
}

// ApplyTransition blends the surface toward the preset of rs.TransitionMaterial. A fragment
// transitions once the factor reaches 1 minus the normal map's blue channel, so the effect
// spreads across the surface as the factor grows. The ink transition also swaps in the ink
// normal map when the material binds one.
//
// Parameters:
//   - s: the resolved surface
//   - in: the fragment
//   - u: the material uniforms
//   - tex: the bound textures
//   - rs: the render settings of the frame, already clamped
//
// Returns:
//   - Surface: the surface after the transition
func ApplyTransition(s Surface, in Fragment, u *material.Uniforms, tex TextureSource, rs settings.RenderSettings) Surface {
	factor := rs.TransitionFactor
	if factor <= 0 || factor < 1-s.NormalMap[2] {
		return s
	}
	preset := TransitionPresets[rs.TransitionMaterial]
	a := s.Albedo
	s.Albedo = common.MixVec3(a.Vec3(), preset.Albedo, factor).Vec4(a.W())
	s.Metalness = common.Mix(s.Metalness, preset.Metalness, factor)
	s.Roughness = common.Mix(s.Roughness, preset.Roughness, factor)

	if rs.TransitionMaterial == settings.TransitionInk {
		if ink, ok := sample(u, tex, &in, material.SlotInkNormal, DefaultNormalMap); ok {
			s.Normal = perturbNormal(in, ink)
		}
	}
	return s
}
