package skeleton

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// mat4Size is the size of a mat4x4<f32> in a storage buffer.
const mat4Size = 64

// boneSections is the number of transform arrays packed into the bone buffer.
const boneSections = 4

// Sections of the bone buffer, in units of max(n, 1) matrices.
const (
	BoneSectionAnimated = iota
	BoneSectionAnimatedInvTranspose
	BoneSectionWorld
	BoneSectionWorldInvTranspose
)

// BoneTransformsSize returns the byte size of the bone storage buffer for n bones. The buffer
// is bound as array<mat4x4<f32>> and holds four sections of N = max(n, 1) matrices each:
//
//	[0, N)    animated world (world * inverse rest world)
//	[N, 2N)   inverse transpose of the animated world
//	[2N, 3N)  world
//	[3N, 4N)  inverse transpose of the world
//
// Empty skeletons still bind a valid buffer.
func BoneTransformsSize(n int) int {
	return boneSections * max(n, 1) * mat4Size
}

// MarshalBones serializes every section of the bone buffer.
//
// Returns:
//   - []byte: a buffer of BoneTransformsSize(fs.Len()) bytes
func (fs *FrameState) MarshalBones() []byte {
	n := max(fs.Len(), 1)
	buf := make([]byte, BoneTransformsSize(fs.Len()))
	put := func(section int, ms []mgl32.Mat4) {
		for i, m := range ms {
			common.PutMat4(buf, (section*n+i)*mat4Size, m)
		}
	}
	put(BoneSectionAnimated, fs.AnimatedWorld)
	put(BoneSectionAnimatedInvTranspose, fs.AnimatedWorldInvTranspose)
	put(BoneSectionWorld, fs.World)

	worldIT := make([]mgl32.Mat4, len(fs.World))
	for i, m := range fs.World {
		worldIT[i] = common.InverseTranspose(m)
	}
	put(BoneSectionWorldInvTranspose, worldIT)
	return buf
}
