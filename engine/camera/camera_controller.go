package camera

import (
	"github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController owns the positional state (position, target) the Camera reads each frame.
// It combines orbit controls around the target with planar panning, so both can be used from
// one controller instance.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target mgl32.Vec3)

	// Zoom adjusts the orbit radius. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// FrameBounds targets the center of box and picks a radius that fits the box's bounding
	// sphere into a view with vertical field of view fov. Radius bounds are widened if needed.
	//
	// Parameters:
	//   - box: the world-space bounds to frame
	//   - fov: the camera's vertical field of view in radians
	FrameBounds(box vec3.Box, fov float32)
}

// orbitCameraController rotates the camera around the target using spherical coordinates
// (radius, azimuth, elevation).
type orbitCameraController interface {
	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Drag orbits by a mouse movement in pixels scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal movement, positive to the right
	//   - dy: vertical movement, positive downward
	Drag(dx, dy float32)

	// Radius returns the current distance from the target.
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis in radians.
	Azimuth() float32

	// SetAzimuth sets the horizontal angle directly and recomputes position.
	SetAzimuth(azimuth float32)

	// Elevation returns the current vertical angle from the horizontal plane in radians.
	Elevation() float32

	// SetElevation sets the vertical angle directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - elevation: new vertical angle in radians
	SetElevation(elevation float32)
}

// planarCameraController translates position and target together along the camera's local
// axes, preserving the orbit relationship.
type planarCameraController interface {
	// PanRight translates the camera along its local right axis.
	//
	// Parameters:
	//   - delta: pan amount scaled by the pan speed
	PanRight(delta float32)

	// PanUp translates the camera along its local up axis.
	//
	// Parameters:
	//   - delta: pan amount scaled by the pan speed
	PanUp(delta float32)
}
