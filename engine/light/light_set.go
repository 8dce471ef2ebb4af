package light

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/shading"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// Default light orientations and the stage light volume.
var (
	DefaultStageRotation     = mgl32.Quat{W: -0.864401, V: mgl32.Vec3{-0.495286, -0.0751228, 0.0431234}}
	DefaultStageScale        = mgl32.Vec3{25, 25, 50}
	DefaultCharacterRotation = mgl32.Quat{W: 0.784886, V: mgl32.Vec3{-0.453154, -0.365998, -0.211309}}
	DefaultAmbient           = mgl32.Vec3{0.2, 0.2, 0.2}
)

// LightSet is a group of lights sharing one shadow volume. The first light is the key light:
// it shades the set's objects and renders their shadows.
type LightSet struct {
	Name     string
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Ambient  mgl32.Vec3
	Lights   []Light
}

// DefaultStageLightSet returns the stage light set used when no stage lights are loaded.
func DefaultStageLightSet() LightSet {
	return LightSet{
		Name:     "stage",
		Rotation: DefaultStageRotation,
		Scale:    DefaultStageScale,
		Ambient:  DefaultAmbient,
		Lights:   []Light{NewLight(WithRotation(DefaultStageRotation))},
	}
}

// DefaultCharacterLightSet returns the character light, the fallback of every object without a
// valid stage light set.
func DefaultCharacterLightSet() LightSet {
	return LightSet{
		Name:     "character",
		Rotation: DefaultCharacterRotation,
		Scale:    DefaultStageScale,
		Ambient:  DefaultAmbient,
		Lights:   []Light{NewLight(WithRotation(DefaultCharacterRotation))},
	}
}

// Key returns the set's key light, or nil for an empty set.
func (s LightSet) Key() Light {
	if len(s.Lights) == 0 {
		return nil
	}
	return s.Lights[0]
}

// Transform returns the light space transform of the set.
func (s LightSet) Transform() mgl32.Mat4 {
	return LightTransform(s.Rotation, s.Scale)
}

// Fit returns a copy of the set whose volume covers box.
func (s LightSet) Fit(box dvec3.Box) LightSet {
	s.Scale = FitScale(s.Rotation, box)
	return s
}

// Environment converts the set into the lighting environment of the forward pass.
// An empty set lights from its own rotation with white light.
//
// Returns:
//   - shading.Environment: the environment, with the default BRDF
func (s LightSet) Environment() shading.Environment {
	env := shading.Environment{
		LightDir:   Direction(s.Rotation),
		LightColor: mgl32.Vec3{1, 1, 1},
		Ambient:    s.Ambient,
	}
	if key := s.Key(); key != nil {
		env.LightDir = key.Direction()
		env.LightColor = key.Radiance()
	}
	return env
}
