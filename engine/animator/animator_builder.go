package animator

// AnimatorBuilderOption is a functional option for configuring an Animator via NewAnimator.
type AnimatorBuilderOption func(*animator)

// WithClips registers clips at construction.
//
// Parameters:
//   - clips: the clips to add
//
// Returns:
//   - AnimatorBuilderOption: a function that adds the clips to an animator
func WithClips(clips ...Clip) AnimatorBuilderOption {
	return func(a *animator) {
		a.clips = append(a.clips, clips...)
	}
}

// WithSpeed sets the initial playback speed.
func WithSpeed(speed float32) AnimatorBuilderOption {
	return func(a *animator) {
		a.state.speed = speed
	}
}

// WithAutoplay starts the first clip, looping, once construction completes.
func WithAutoplay() AnimatorBuilderOption {
	return func(a *animator) {
		if len(a.clips) > 0 {
			a.state.clip = 0
			a.state.playing = true
			a.state.loop = true
		}
	}
}
