package overlay

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUVertex is the vertex layout of programs/skeleton.wgsl: a homogeneous position and a color.
type GPUVertex struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// GPUVertexSize is the stride of GPUVertex in bytes.
const GPUVertexSize = 32

// MarshalVertices returns the vertex stream of m as bytes.
func (m *Mesh) MarshalVertices() []byte {
	out := make([]GPUVertex, len(m.Vertices))
	for i, v := range m.Vertices {
		out[i] = GPUVertex{Position: v.Position.Vec4(1), Color: v.Color}
	}
	return common.SliceToBytes(out)
}

// MarshalIndices returns the index stream of m as bytes.
func (m *Mesh) MarshalIndices() []byte {
	return common.SliceToBytes(m.Indices)
}
