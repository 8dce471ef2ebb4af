package animator

import (
	"math"
)

// WrapTime wraps a looping clip time into [0, duration) with a euclidean remainder, so
// negative times wrap from the end. A clip without length always plays at 0.
//
// Parameters:
//   - t: the unwrapped clip time in seconds
//   - duration: the clip length in seconds
//
// Returns:
//   - float32: the wrapped time
func WrapTime(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	r := float32(math.Mod(float64(t), float64(duration)))
	if r < 0 {
		r += duration
	}
	if r >= duration {
		r = 0
	}
	return r
}

// ClampTime clamps a non-looping clip time to [0, duration].
func ClampTime(t, duration float32) float32 {
	return min(max(t, 0), max(duration, 0))
}
