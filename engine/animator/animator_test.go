package animator

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSkeleton(t *testing.T) skeleton.Skeleton {
	t.Helper()
	s, err := skeleton.NewSkeleton([]skeleton.Bone{
		{Name: "root", Parent: skeleton.NoParent, Local: mgl32.Ident4()},
		{Name: "arm", Parent: 0, Local: mgl32.Translate3D(0, 1, 0)},
	})
	require.NoError(t, err)
	return s
}

func slide(name string, to float32) Clip {
	return Clip{
		Name:     name,
		Duration: 2,
		Channels: []Channel{{
			Bone:         0,
			Translations: []Vec3Key{{Time: 0, Value: mgl32.Vec3{0, 0, 0}}, {Time: 2, Value: mgl32.Vec3{to, 0, 0}}},
		}},
	}
}

func TestWrapTime(t *testing.T) {
	tests := []struct {
		name        string
		t, duration float32
		want        float32
	}{
		{"inside", 0.5, 2, 0.5},
		{"past end", 5, 2, 1},
		{"exact end", 2, 2, 0},
		{"negative", -0.5, 2, 1.5},
		{"zero duration", 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WrapTime(tt.t, tt.duration), 1e-6)
		})
	}
}

func TestDecompose_RoundTrip(t *testing.T) {
	want := TRS{
		Translation: mgl32.Vec3{1, 2, 3},
		Rotation:    mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0}),
		Scale:       mgl32.Vec3{2, 2, 2},
	}
	got := Decompose(want.Mat4())

	assert.True(t, want.Mat4().ApproxEqualThreshold(got.Mat4(), 1e-4))
}

func TestAnimator_RestPoseWithoutClip(t *testing.T) {
	s := testSkeleton(t)
	a := NewAnimator(s)

	local := a.LocalTransforms()
	require.Len(t, local, 2)
	assert.True(t, local[1].ApproxEqualThreshold(mgl32.Translate3D(0, 1, 0), 1e-5))
}

func TestAnimator_SamplesAndLoops(t *testing.T) {
	a := NewAnimator(testSkeleton(t), WithClips(slide("walk", 4)), WithAutoplay())

	a.Advance(1)
	assert.InDelta(t, 2, a.LocalTransforms()[0].Col(3)[0], 1e-5)

	a.Advance(2.5)
	assert.InDelta(t, 1.5, a.Time(), 1e-5)
	assert.InDelta(t, 3, a.LocalTransforms()[0].Col(3)[0], 1e-5)

	fs := a.FrameState()
	assert.InDelta(t, 3, fs.World[1].Col(3)[0], 1e-5)
	assert.InDelta(t, 1, fs.World[1].Col(3)[1], 1e-5)
}

func TestAnimator_NoLoopClamps(t *testing.T) {
	a := NewAnimator(testSkeleton(t), WithClips(slide("walk", 4)))
	a.Play(0, false)

	a.Advance(10)
	assert.InDelta(t, 2, a.Time(), 1e-6)
	assert.InDelta(t, 4, a.LocalTransforms()[0].Col(3)[0], 1e-5)
}

func TestAnimator_NegativeSpeedWraps(t *testing.T) {
	a := NewAnimator(testSkeleton(t), WithClips(slide("walk", 4)), WithAutoplay(), WithSpeed(-1))

	a.Advance(0.5)
	assert.InDelta(t, 1.5, a.Time(), 1e-6)
}

func TestAnimator_BlendTo(t *testing.T) {
	a := NewAnimator(testSkeleton(t), WithClips(slide("left", -4), slide("right", 4)), WithAutoplay())
	a.BlendTo(1, 1)
	require.True(t, a.IsBlending())

	a.Advance(0.5)
	assert.InDelta(t, 0.5, a.BlendProgress(), 1e-6)
	// left at t=0.5 is -1, right at t=0.5 is 1
	assert.InDelta(t, 0, a.LocalTransforms()[0].Col(3)[0], 1e-5)

	a.Advance(0.5)
	assert.False(t, a.IsBlending())
	assert.InDelta(t, 2, a.LocalTransforms()[0].Col(3)[0], 1e-5)
}

func TestAnimator_PlayOutOfRangeStops(t *testing.T) {
	a := NewAnimator(testSkeleton(t), WithClips(slide("walk", 4)), WithAutoplay())
	a.Advance(1)
	a.Play(5, true)

	assert.InDelta(t, 0, a.LocalTransforms()[0].Col(3)[0], 1e-6)
	idx, ok := a.ClipIndex("walk")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestClip_SampleKeepsRestForUnanimatedBones(t *testing.T) {
	rest := []TRS{IdentityTRS(), {Translation: mgl32.Vec3{0, 1, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}}
	clip := slide("walk", 4)
	clip.Channels = append(clip.Channels, Channel{Bone: 7, Scales: []Vec3Key{{Time: 0, Value: mgl32.Vec3{3, 3, 3}}}})
	out := make([]TRS, len(rest))

	clip.Sample(3, rest, out)

	assert.InDelta(t, 4, out[0].Translation[0], 1e-6)
	assert.Equal(t, rest[1], out[1])
}

func TestClampTime(t *testing.T) {
	assert.InDelta(t, 0, ClampTime(-1, 2), 1e-6)
	assert.InDelta(t, 2, ClampTime(5, 2), 1e-6)
	assert.InDelta(t, 1.25, ClampTime(1.25, 2), 1e-6)
}
