package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithRotation is an option builder that sets the light orientation.
//
// Parameters:
//   - q: the rotation, normalized before storing
//
// Returns:
//   - LightBuilderOption: a function that applies the rotation option to a lightImpl
func WithRotation(q mgl32.Quat) LightBuilderOption {
	return func(l *lightImpl) {
		l.rotation = normalizeQuat(q)
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithCastsShadows sets whether the light renders the shadow map.
func WithCastsShadows(cast bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = cast
	}
}
