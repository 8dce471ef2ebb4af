package animator

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// playbackState tracks playback time, speed, looping and the blend between two clips.
type playbackState struct {
	clip, blendTo               int
	time, blendToTime           float32
	speed                       float32
	loop, playing, blending     bool
	blendDuration, blendElapsed float32
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu *sync.Mutex

	skeleton skeleton.Skeleton
	rest     []TRS
	clips    []Clip
	state    playbackState

	pose, blendPose []TRS
	local           []mgl32.Mat4
}

// Animator samples clips for one skeleton. Advance moves playback forward; FrameState returns
// the evaluated pose for the skinning kernel. Without a playing clip the rest pose is returned.
type Animator interface {
	// AddClip registers a clip.
	//
	// Returns:
	//   - int: the clip index
	AddClip(c Clip) int

	// Clips returns the registered clips.
	Clips() []Clip

	// ClipIndex finds a clip by name.
	ClipIndex(name string) (int, bool)

	// Play starts a clip from time 0. Out of range indices stop playback.
	//
	// Parameters:
	//   - clip: the clip index
	//   - loop: whether playback wraps at the end of the clip
	Play(clip int, loop bool)

	// BlendTo crossfades from the current clip to another over duration seconds.
	// Without a playing clip it behaves like Play.
	BlendTo(clip int, duration float32)

	// CancelBlend stops an in-progress blend and keeps the current clip.
	CancelBlend()

	// IsBlending reports whether a crossfade is in progress.
	IsBlending() bool

	// BlendProgress returns crossfade progress in [0, 1], or 0 if not blending.
	BlendProgress() float32

	// SetTime seeks the current clip.
	SetTime(t float32)

	// Time returns the current clip time.
	Time() float32

	// SetSpeed sets the playback speed multiplier. Negative speeds play backward.
	SetSpeed(speed float32)

	// Advance moves playback forward by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float32)

	// LocalTransforms samples the current pose.
	//
	// Returns:
	//   - []mgl32.Mat4: one local transform per bone; the slice is reused by the next call
	LocalTransforms() []mgl32.Mat4

	// FrameState samples the current pose and evaluates it into a frame state.
	FrameState() *skeleton.FrameState
}

var _ Animator = &animator{}

// NewAnimator creates an animator for s with the skeleton's bind pose as its rest pose.
//
// Parameters:
//   - s: the skeleton to animate
//   - options: optional builder options
//
// Returns:
//   - Animator: the animator
func NewAnimator(s skeleton.Skeleton, options ...AnimatorBuilderOption) Animator {
	bones := s.Bones()
	a := &animator{
		mu:        &sync.Mutex{},
		skeleton:  s,
		rest:      make([]TRS, len(bones)),
		pose:      make([]TRS, len(bones)),
		blendPose: make([]TRS, len(bones)),
		local:     make([]mgl32.Mat4, len(bones)),
		state:     playbackState{speed: 1, loop: true},
	}
	for i, b := range bones {
		a.rest[i] = Decompose(b.Local)
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *animator) AddClip(c Clip) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clips = append(a.clips, c)
	return len(a.clips) - 1
}

func (a *animator) Clips() []Clip {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clips
}

func (a *animator) ClipIndex(name string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, c := range a.clips {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (a *animator) validClip(i int) bool {
	return i >= 0 && i < len(a.clips)
}

func (a *animator) Play(clip int, loop bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.validClip(clip) {
		common.Logger().Debug("animator: clip out of range, stopping", "clip", clip, "clips", len(a.clips))
		a.state.playing = false
		a.state.blending = false
		return
	}
	a.state.clip = clip
	a.state.time = 0
	a.state.loop = loop
	a.state.playing = true
	a.state.blending = false
}

func (a *animator) BlendTo(clip int, duration float32) {
	a.mu.Lock()
	if !a.state.playing || duration <= 0 {
		loop := a.state.loop
		a.mu.Unlock()
		a.Play(clip, loop)
		return
	}
	defer a.mu.Unlock()
	if !a.validClip(clip) {
		return
	}
	a.state.blending = true
	a.state.blendTo = clip
	a.state.blendToTime = 0
	a.state.blendDuration = duration
	a.state.blendElapsed = 0
}

func (a *animator) CancelBlend() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.blending = false
}

func (a *animator) IsBlending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.blending
}

func (a *animator) BlendProgress() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.blending {
		return 0
	}
	return common.Saturate(a.state.blendElapsed / a.state.blendDuration)
}

func (a *animator) SetTime(t float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.time = a.wrap(a.state.clip, t)
}

func (a *animator) Time() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.time
}

func (a *animator) SetSpeed(speed float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.speed = speed
}

// wrap applies the loop mode to a time on clip. Caller must hold the mutex.
func (a *animator) wrap(clip int, t float32) float32 {
	if !a.validClip(clip) {
		return 0
	}
	d := a.clips[clip].Duration
	if a.state.loop {
		return WrapTime(t, d)
	}
	return ClampTime(t, d)
}

func (a *animator) Advance(dt float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.playing {
		return
	}
	step := dt * a.state.speed
	a.state.time = a.wrap(a.state.clip, a.state.time+step)

	if !a.state.blending {
		return
	}
	a.state.blendElapsed += dt
	a.state.blendToTime = a.wrap(a.state.blendTo, a.state.blendToTime+step)
	if a.state.blendElapsed >= a.state.blendDuration {
		a.state.clip = a.state.blendTo
		a.state.time = a.state.blendToTime
		a.state.blending = false
	}
}

func (a *animator) LocalTransforms() []mgl32.Mat4 {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case !a.state.playing:
		copy(a.pose, a.rest)
	default:
		a.clips[a.state.clip].Sample(a.state.time, a.rest, a.pose)
		if a.state.blending {
			a.clips[a.state.blendTo].Sample(a.state.blendToTime, a.rest, a.blendPose)
			f := common.Saturate(a.state.blendElapsed / a.state.blendDuration)
			for i := range a.pose {
				a.pose[i] = a.pose[i].Lerp(a.blendPose[i], f)
			}
		}
	}
	for i, p := range a.pose {
		a.local[i] = p.Mat4()
	}
	return a.local
}

func (a *animator) FrameState() *skeleton.FrameState {
	return skeleton.NewFrameStateFromLocal(a.skeleton, a.LocalTransforms())
}
