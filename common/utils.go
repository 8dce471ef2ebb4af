package common

import (
	"cmp"

	"github.com/go-gl/mathgl/mgl32"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Saturate clamps v to [0, 1].
func Saturate(v float32) float32 {
	return Clamp(v, 0, 1)
}

// Mix linearly interpolates between a and b by t, matching the WGSL mix builtin.
func Mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

// MixVec4 interpolates each component of a toward b by t.
func MixVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

// MixVec3 interpolates each component of a toward b by t.
func MixVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// BoolToUint32 converts a flag to the 0/1 representation used in uniform buffers.
func BoolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// CeilDiv returns ceil(n / d) for positive d.
func CeilDiv(n, d int) int {
	return (n + d - 1) / d
}
