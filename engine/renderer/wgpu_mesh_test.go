package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWGPUMesh_DrawsTheSlotWrittenThisFrame(t *testing.T) {
	vertex1, index := &wgpu.Buffer{}, &wgpu.Buffer{}
	shared := map[string]*wgpu.Buffer{"source": {}, "weights": {}, "info": {}, "adjacency": {}}

	var slots [2]*wgpuSkinSlot
	for i := range slots {
		skinned, renormalized := &wgpu.Buffer{}, &wgpu.Buffer{}
		skinning, renormal := skinSlotResources(shared, &wgpu.Buffer{}, skinned, renormalized)
		require.Same(t, skinned, skinning["skinned"])
		require.Same(t, skinned, renormal["skinned"])
		require.Same(t, renormalized, renormal["renormalized"])
		slots[i] = &wgpuSkinSlot{
			skinned:      skinned,
			renormalized: renormalized,
			draw:         newSkinSlotDraw("quad", skinned, renormalized, vertex1, index, 6),
		}
	}
	m := &wgpuMesh{skinned: framegraph.NewPingPong(slots[0], slots[1])}

	for frame := range 3 {
		stream := m.stream()
		assert.Same(t, m.skinned.Current().renormalized, stream.VertexBuffer(0), "frame %d", frame)
		assert.NotSame(t, m.skinned.Previous().renormalized, stream.VertexBuffer(0), "frame %d", frame)
		assert.Same(t, vertex1, stream.VertexBuffer(1))
		assert.Same(t, index, stream.IndexBuffer())
		assert.Equal(t, []int{0, 1}, stream.VertexSlots())
		assert.Equal(t, 6, stream.IndexCount())
		m.skinned.Advance()
	}
}
