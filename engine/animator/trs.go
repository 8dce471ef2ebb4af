package animator

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TRS is a transform split into translation, rotation and scale.
type TRS struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTRS is the TRS of the identity matrix.
func IdentityTRS() TRS {
	return TRS{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Mat4 composes the transform as translation * rotation * scale.
func (t TRS) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Lerp blends two transforms, slerping the rotation.
func (t TRS) Lerp(to TRS, f float32) TRS {
	return TRS{
		Translation: t.Translation.Add(to.Translation.Sub(t.Translation).Mul(f)),
		Rotation:    slerp(t.Rotation, to.Rotation, f),
		Scale:       t.Scale.Add(to.Scale.Sub(t.Scale).Mul(f)),
	}
}

// Decompose splits an affine matrix without shear into its TRS parts. A negative determinant
// is folded into the x scale.
//
// Parameters:
//   - m: the matrix to decompose
//
// Returns:
//   - TRS: the decomposed transform
func Decompose(m mgl32.Mat4) TRS {
	x, y, z := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	scale := mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	basis := mgl32.Ident4()
	for i, axis := range []mgl32.Vec3{x, y, z} {
		if scale[i] != 0 {
			axis = axis.Mul(1 / scale[i])
		}
		basis.SetCol(i, axis.Vec4(0))
	}
	return TRS{
		Translation: m.Col(3).Vec3(),
		Rotation:    mgl32.Mat4ToQuat(basis).Normalize(),
		Scale:       scale,
	}
}
