package light

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	rotation     mgl32.Quat
	color        mgl32.Vec3
	intensity    float32
	castsShadows bool
}

// Light is a directional light. Its direction is the light's +Z axis after rotation and points
// from the surface toward the light.
type Light interface {
	// Rotation returns the light orientation.
	//
	// Returns:
	//   - mgl32.Quat: the rotation
	Rotation() mgl32.Quat

	// Direction returns the unit vector from the surface toward the light.
	//
	// Returns:
	//   - mgl32.Vec3: the direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: the color
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Radiance returns color scaled by intensity.
	Radiance() mgl32.Vec3

	// CastsShadows returns whether this light renders the shadow map.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetRotation sets the light orientation. The quaternion is normalized.
	//
	// Parameters:
	//   - q: the rotation
	SetRotation(q mgl32.Quat)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - c: the color
	SetColor(c mgl32.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)
}

var _ Light = &lightImpl{}

// NewLight creates a white, unit intensity, shadow casting directional light pointing down +Z.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		rotation:     mgl32.QuatIdent(),
		color:        mgl32.Vec3{1, 1, 1},
		intensity:    1,
		castsShadows: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Rotation() mgl32.Quat {
	return l.rotation
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return Direction(l.rotation)
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Radiance() mgl32.Vec3 {
	return l.color.Mul(l.intensity)
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetRotation(q mgl32.Quat) {
	l.rotation = normalizeQuat(q)
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

// Direction returns the +Z axis rotated by q.
//
// Parameters:
//   - q: the light rotation
//
// Returns:
//   - mgl32.Vec3: the unit direction toward the light
func Direction(q mgl32.Quat) mgl32.Vec3 {
	return common.NormalizeOr(q.Mat4().Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3(), mgl32.Vec3{0, 0, 1})
}

// normalizeQuat returns q normalized, or the identity for a zero quaternion.
func normalizeQuat(q mgl32.Quat) mgl32.Quat {
	if q.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}
