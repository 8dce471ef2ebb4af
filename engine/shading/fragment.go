// Package shading holds the per-fragment shading function of the forward pass. The function is
// pure: its output depends only on the interpolated vertex outputs, the bound textures, the
// material uniforms and the render settings of the frame.
package shading

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// Fragment is the interpolated vertex output at one pixel.
type Fragment struct {
	// Position is the world space position.
	Position mgl32.Vec3
	// Normal is the interpolated vertex normal; it need not be unit length.
	Normal mgl32.Vec3
	// Tangent carries the bitangent sign in W.
	Tangent mgl32.Vec4
	UV      [model.UVSetCount]mgl32.Vec2
	Colors  [model.ColorSetCount]mgl32.Vec4

	// ViewDir points from the surface toward the camera.
	ViewDir mgl32.Vec3
	// Shadow is the light visibility from the variance shadow query, 1 for fully lit.
	Shadow float32
}

// TextureSource samples the textures bound to a material. Implementations are only asked for
// slots whose presence flag is set.
type TextureSource interface {
	Sample(slot int, uv mgl32.Vec2) mgl32.Vec4
}

// Output is the result of shading one fragment.
type Output struct {
	Color mgl32.Vec4
	// Discard drops the fragment: no color and no depth write.
	Discard bool
	// Surface holds the resolved material inputs the color was computed from.
	Surface Surface
}
