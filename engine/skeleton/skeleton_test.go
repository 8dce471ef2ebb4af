package skeleton

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() []Bone {
	return []Bone{
		{Name: "Trans", Parent: NoParent, Local: mgl32.Ident4()},
		{Name: "Hip", Parent: 0, Local: mgl32.Translate3D(0, 1, 0)},
		{Name: "Waist", Parent: 1, Local: mgl32.Translate3D(0, 2, 0)},
	}
}

func assertMatNear(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
}

func TestNewSkeleton_RestWorld(t *testing.T) {
	s, err := NewSkeleton(chain())
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{0, 1, 2}, s.Order())
	assertMatNear(t, mgl32.Translate3D(0, 3, 0), s.RestWorld(2))
	assertMatNear(t, mgl32.Translate3D(0, -3, 0), s.InverseRestWorld(2))

	i, ok := s.Index("Waist")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestNewSkeleton_ParentAfterChild(t *testing.T) {
	bones := []Bone{
		{Name: "Child", Parent: 2, Local: mgl32.Translate3D(1, 0, 0)},
		{Name: "Other", Parent: NoParent, Local: mgl32.Ident4()},
		{Name: "Root", Parent: NoParent, Local: mgl32.Translate3D(0, 0, 5)},
	}
	s, err := NewSkeleton(bones)
	require.NoError(t, err)

	order := s.Order()
	pos := map[int]int{}
	for k, i := range order {
		pos[i] = k
	}
	assert.Less(t, pos[2], pos[0], "parent must be evaluated before child")
	assertMatNear(t, mgl32.Translate3D(1, 0, 5), s.RestWorld(0))
}

func TestNewSkeleton_Errors(t *testing.T) {
	tests := []struct {
		name  string
		bones []Bone
		want  error
	}{
		{
			name:  "self parent",
			bones: []Bone{{Name: "A", Parent: 0, Local: mgl32.Ident4()}},
			want:  ErrBoneCycle,
		},
		{
			name: "two bone cycle",
			bones: []Bone{
				{Name: "A", Parent: 1, Local: mgl32.Ident4()},
				{Name: "B", Parent: 0, Local: mgl32.Ident4()},
			},
			want: ErrBoneCycle,
		},
		{
			name:  "parent out of range",
			bones: []Bone{{Name: "A", Parent: 4, Local: mgl32.Ident4()}},
			want:  ErrParentOutOfRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSkeleton(tt.bones)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewSkeleton_BoneCapDropsExtraBones(t *testing.T) {
	bones := make([]Bone, 6)
	for i := range bones {
		bones[i] = Bone{Parent: i - 1, Local: mgl32.Translate3D(1, 0, 0)}
	}
	bones[0].Parent = NoParent
	bones[1].Parent = 5 // parent past the cap

	s, err := NewSkeleton(bones, WithMaxBones(4))
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, NoParent, s.Parent(1))
	assert.False(t, s.Valid(4))
	assertMatNear(t, mgl32.Ident4(), s.RestWorld(4))
}

func TestFrameState_RestPoseIsIdentity(t *testing.T) {
	s, err := NewSkeleton(chain())
	require.NoError(t, err)

	fs := RestFrameState(s)
	require.Equal(t, 3, fs.Len())
	for i := 0; i < fs.Len(); i++ {
		assertMatNear(t, mgl32.Ident4(), fs.AnimatedWorld[i])
		assertMatNear(t, mgl32.Ident4(), fs.AnimatedWorldInvTranspose[i])
		assertMatNear(t, s.RestWorld(i), fs.World[i])
	}
}

func TestFrameState_FromLocalTranslatesChildren(t *testing.T) {
	s, err := NewSkeleton(chain())
	require.NoError(t, err)

	local := []mgl32.Mat4{
		mgl32.Translate3D(0, 5, 0),
		mgl32.Translate3D(0, 1, 0),
		mgl32.Translate3D(0, 2, 0),
	}
	fs := NewFrameStateFromLocal(s, local)

	for i := 0; i < 3; i++ {
		assertMatNear(t, mgl32.Translate3D(0, 5, 0), fs.AnimatedWorld[i])
	}
	assertMatNear(t, mgl32.Translate3D(0, 8, 0), fs.World[2])
}

func TestFrameState_MarshalLayout(t *testing.T) {
	s, err := NewSkeleton(chain())
	require.NoError(t, err)
	fs := RestFrameState(s)

	buf := fs.MarshalBones()
	require.Len(t, buf, BoneTransformsSize(3))
	assert.Equal(t, 4*3*64, len(buf))

	// The world section starts at 2N matrices; bone 2 sits at y = 3 in the rest pose.
	off := (BoneSectionWorld*3 + 2) * 64
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[off+13*4:])))

	empty := &FrameState{}
	assert.Len(t, empty.MarshalBones(), 4*64)
	assert.False(t, empty.Valid(0))
}
