package skeleton

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameState holds the per-bone matrices consumed by one frame.
// It is built once per frame from the animation evaluator's output and is read-only afterwards.
type FrameState struct {
	// AnimatedWorld is world * inverse(restWorld) per bone. Rest-pose geometry multiplied by it
	// lands in the current pose.
	AnimatedWorld []mgl32.Mat4

	// AnimatedWorldInvTranspose is the inverse transpose of AnimatedWorld, applied to normals and tangents.
	AnimatedWorldInvTranspose []mgl32.Mat4

	// World is the plain current world transform per bone, used to parent meshes to a bone.
	World []mgl32.Mat4
}

// NewFrameStateFromWorld builds a frame state from evaluated world transforms.
// Bones without a supplied transform stay at their rest pose and extra transforms are ignored.
//
// Parameters:
//   - s: the skeleton the transforms are indexed against
//   - world: the current world transform per bone
//
// Returns:
//   - *FrameState: the frame state
func NewFrameStateFromWorld(s Skeleton, world []mgl32.Mat4) *FrameState {
	n := s.Len()
	fs := &FrameState{
		AnimatedWorld:             make([]mgl32.Mat4, n),
		AnimatedWorldInvTranspose: make([]mgl32.Mat4, n),
		World:                     make([]mgl32.Mat4, n),
	}
	for i := 0; i < n; i++ {
		w := s.RestWorld(i)
		if i < len(world) {
			w = world[i]
		}
		anim := w.Mul4(s.InverseRestWorld(i))
		fs.World[i] = w
		fs.AnimatedWorld[i] = anim
		fs.AnimatedWorldInvTranspose[i] = common.InverseTranspose(anim)
	}
	return fs
}

// NewFrameStateFromLocal evaluates parent-relative transforms into world transforms in the
// skeleton's evaluation order and builds the frame state from them.
// Bones without a supplied transform use their rest local transform.
//
// Parameters:
//   - s: the skeleton the transforms are indexed against
//   - local: the current parent-relative transform per bone
//
// Returns:
//   - *FrameState: the frame state
func NewFrameStateFromLocal(s Skeleton, local []mgl32.Mat4) *FrameState {
	return NewFrameStateFromWorld(s, EvaluateWorld(s, local))
}

// EvaluateWorld composes parent-relative transforms into world transforms, roots first.
//
// Parameters:
//   - s: the skeleton providing hierarchy and rest transforms
//   - local: the current parent-relative transform per bone
//
// Returns:
//   - []mgl32.Mat4: the world transform per bone
func EvaluateWorld(s Skeleton, local []mgl32.Mat4) []mgl32.Mat4 {
	bones := s.Bones()
	world := make([]mgl32.Mat4, len(bones))
	for _, i := range s.Order() {
		l := bones[i].Local
		if i < len(local) {
			l = local[i]
		}
		if p := bones[i].Parent; p != NoParent {
			world[i] = world[p].Mul4(l)
		} else {
			world[i] = l
		}
	}
	return world
}

// RestFrameState returns the frame state of the rest pose: identity animated transforms.
func RestFrameState(s Skeleton) *FrameState {
	return NewFrameStateFromWorld(s, nil)
}

// Len returns the number of bones the frame state carries.
func (fs *FrameState) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.AnimatedWorld)
}

// Valid reports whether bone addresses a bone in this frame state.
func (fs *FrameState) Valid(bone int) bool {
	return bone >= 0 && bone < fs.Len() && bone < MaxBoneCount
}
