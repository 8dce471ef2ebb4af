package animator

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3Key stores a translation or scale value at a specific time.
type Vec3Key struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the vector value at this keyframe.
	Value mgl32.Vec3
}

// QuatKey stores a rotation at a specific time.
type QuatKey struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the unit quaternion at this keyframe.
	Value mgl32.Quat
}

// Channel holds the keyframes animating a single bone. Empty key lists leave the matching
// component of the bone's rest transform untouched.
type Channel struct {
	// Bone is the index of the animated bone in the skeleton.
	Bone int

	Translations []Vec3Key
	Rotations    []QuatKey
	Scales       []Vec3Key
}

// Clip is a named animation over a skeleton, for example a walk or idle loop.
type Clip struct {
	// Name identifies the clip.
	Name string

	// Duration is the clip length in seconds, the time of its last keyframe.
	Duration float32

	// Channels holds one entry per animated bone.
	Channels []Channel
}

// keySpan returns the keys surrounding t and the interpolation factor between them. Times
// before the first key clamp to it and times after the last key clamp to the last.
func keySpan(n int, time func(i int) float32, t float32) (int, int, float32) {
	if n == 1 || t <= time(0) {
		return 0, 0, 0
	}
	if t >= time(n-1) {
		return n - 1, n - 1, 0
	}
	hi := sort.Search(n, func(i int) bool { return time(i) > t })
	lo := hi - 1
	span := time(hi) - time(lo)
	if span <= 0 {
		return hi, hi, 0
	}
	return lo, hi, (t - time(lo)) / span
}

func sampleVec3(keys []Vec3Key, t float32) mgl32.Vec3 {
	lo, hi, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	a, b := keys[lo].Value, keys[hi].Value
	return a.Add(b.Sub(a).Mul(f))
}

func sampleQuat(keys []QuatKey, t float32) mgl32.Quat {
	lo, hi, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	return slerp(keys[lo].Value, keys[hi].Value, f)
}

// slerp interpolates along the shorter arc between two rotations.
func slerp(a, b mgl32.Quat, f float32) mgl32.Quat {
	if f == 0 {
		return a
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl32.QuatSlerp(a, b, f).Normalize()
}

// Sample evaluates the clip at time t into out. Bones without a channel, and components
// without keys, keep the rest values. Channels naming a bone outside rest are skipped.
//
// Parameters:
//   - t: the clip time in seconds
//   - rest: the rest-pose TRS per bone
//   - out: receives the sampled TRS per bone, at least len(rest) long
func (c *Clip) Sample(t float32, rest, out []TRS) {
	copy(out, rest)
	for _, ch := range c.Channels {
		if ch.Bone < 0 || ch.Bone >= len(rest) {
			continue
		}
		trs := &out[ch.Bone]
		if len(ch.Translations) > 0 {
			trs.Translation = sampleVec3(ch.Translations, t)
		}
		if len(ch.Rotations) > 0 {
			trs.Rotation = sampleQuat(ch.Rotations, t)
		}
		if len(ch.Scales) > 0 {
			trs.Scale = sampleVec3(ch.Scales, t)
		}
	}
}
