package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
)

// Per-vertex attribute counts.
const (
	InfluenceCount = 4
	UVSetCount     = 5
	ColorSetCount  = 7
)

// UV set indices.
const (
	UVMap1 = iota
	UVSet
	UVSet1
	UVSet2
	UVBake1
)

// NoBone marks an unused influence slot.
const NoBone int32 = -1

// Influence is a (bone index, weight) pair. Weights need not sum to 1.
type Influence struct {
	Bone   int32
	Weight float32
}

// Valid reports whether the influence addresses one of boneCount bones.
// Negative indices and indices at or beyond skeleton.MaxBoneCount are unused.
//
// Parameters:
//   - boneCount: the number of bones in the frame state
//
// Returns:
//   - bool: true if the influence contributes to skinning
func (in Influence) Valid(boneCount int) bool {
	return in.Bone >= 0 && int(in.Bone) < boneCount && in.Bone < skeleton.MaxBoneCount
}

// Vertex is a rest-pose vertex as supplied by the asset loader.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	// Tangent carries the bitangent handedness sign in W.
	Tangent    mgl32.Vec4
	Influences [InfluenceCount]Influence
	UV         [UVSetCount]mgl32.Vec2
	Colors     [ColorSetCount]mgl32.Vec4
}

// NoInfluences returns an influence set with every slot unused.
func NoInfluences() [InfluenceCount]Influence {
	return [InfluenceCount]Influence{{Bone: NoBone}, {Bone: NoBone}, {Bone: NoBone}, {Bone: NoBone}}
}

// NewVertex returns a vertex at p with normal n, a +X tangent, no influences and white vertex colors.
func NewVertex(p, n mgl32.Vec3) Vertex {
	v := Vertex{
		Position:   p,
		Normal:     n,
		Tangent:    mgl32.Vec4{1, 0, 0, 1},
		Influences: NoInfluences(),
	}
	for i := range v.Colors {
		v.Colors[i] = mgl32.Vec4{0.5, 0.5, 0.5, 0.5}
	}
	return v
}
