package light

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// FitMargin enlarges a fitted light volume so silhouettes at the box edge stay inside the
// shadow map.
const FitMargin = 1.05

// LightTransform builds the light's view-projection: an orthographic box of half extents scale
// centered on the origin, viewed through the rotation.
//
// Parameters:
//   - rotation: the light rotation
//   - scale: the half extents of the light volume
//
// Returns:
//   - mgl32.Mat4: the light space transform with depth in [0, 1]
func LightTransform(rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	proj := common.OrthoZO(-scale[0], scale[0], -scale[1], scale[1], -scale[2], scale[2])
	return proj.Mul4(rotation.Mat4())
}

// FitScale returns the half extents of the smallest origin-centered light volume that contains
// box after rotation.
//
// Parameters:
//   - rotation: the light rotation
//   - box: the world space bounds to cover
//
// Returns:
//   - mgl32.Vec3: the half extents, at least 1e-3 on every axis
func FitScale(rotation mgl32.Quat, box dvec3.Box) mgl32.Vec3 {
	lo, hi := model.BoxCorners(box)
	m := rotation.Mat4()
	var ext mgl32.Vec3
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{lo[0], lo[1], lo[2]}
		if i&1 != 0 {
			c[0] = hi[0]
		}
		if i&2 != 0 {
			c[1] = hi[1]
		}
		if i&4 != 0 {
			c[2] = hi[2]
		}
		p := common.TransformPoint(m, c)
		for k := 0; k < 3; k++ {
			ext[k] = max(ext[k], abs32(p[k]))
		}
	}
	for k := range ext {
		ext[k] = max(ext[k]*FitMargin, 1e-3)
	}
	return ext
}

// FitLightTransform builds a light transform whose volume covers box.
func FitLightTransform(rotation mgl32.Quat, box dvec3.Box) mgl32.Mat4 {
	return LightTransform(rotation, FitScale(rotation, box))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
