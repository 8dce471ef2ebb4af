package raster

import (
	"context"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/kernel"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad(z float32, primitive int) []Triangle {
	return []Triangle{
		{Clip: [3]mgl32.Vec4{{-1, -1, z, 1}, {1, -1, z, 1}, {1, 1, z, 1}}, Primitive: primitive},
		{Clip: [3]mgl32.Vec4{{-1, -1, z, 1}, {1, 1, z, 1}, {-1, 1, z, 1}}, Primitive: primitive},
	}
}

func newTestRasterizer() Rasterizer {
	return NewRasterizer(WithDispatcher(kernel.NewDispatcher(kernel.WithWorkers(4))), WithTileSize(8))
}

func solidShade(c mgl32.Vec4) ShadeFunc {
	return func(Fragment) (mgl32.Vec4, bool) { return c, true }
}

func TestRasterizer_QuadCoversEveryPixelOnce(t *testing.T) {
	r := newTestRasterizer()
	const w, h = 20, 12
	target := Target{Color: postfx.NewImage(w, h)}
	counts := make([]int, w*h)

	err := r.Draw(context.Background(), target, quad(0.5, 0), State{Cull: material.CullBack}, func(f Fragment) (mgl32.Vec4, bool) {
		counts[f.Y*w+f.X]++
		return mgl32.Vec4{1, 1, 1, 1}, true
	})
	require.NoError(t, err)
	for i, c := range counts {
		require.Equal(t, 1, c, "pixel %d", i)
	}
}

func TestRasterizer_Culling(t *testing.T) {
	cw := []Triangle{{Clip: [3]mgl32.Vec4{{-1, -1, 0.5, 1}, {1, 1, 0.5, 1}, {1, -1, 0.5, 1}}}}
	tests := []struct {
		name      string
		cull      material.CullMode
		wantDrawn bool
	}{
		{"back culled", material.CullBack, false},
		{"front kept", material.CullFront, true},
		{"none", material.CullNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			drawn, front := 0, false
			target := Target{Color: postfx.NewImage(8, 8)}
			err := newTestRasterizer().Draw(context.Background(), target, cw, State{Cull: tt.cull}, func(f Fragment) (mgl32.Vec4, bool) {
				mu.Lock()
				drawn++
				front = front || f.FrontFacing
				mu.Unlock()
				return mgl32.Vec4{}, true
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantDrawn, drawn > 0)
			assert.False(t, front)
		})
	}
}

func TestRasterizer_DepthTest(t *testing.T) {
	near, far := mgl32.Vec4{1, 0, 0, 1}, mgl32.Vec4{0, 0, 1, 1}
	for _, order := range [][2]float32{{0.8, 0.2}, {0.2, 0.8}} {
		target := Target{Color: postfx.NewImage(8, 8), Depth: NewDepthBuffer(8, 8)}
		r := newTestRasterizer()
		for _, z := range order {
			c := far
			if z < 0.5 {
				c = near
			}
			require.NoError(t, r.Draw(context.Background(), target, quad(z, 0), OpaqueState(), solidShade(c)))
		}
		assert.Equal(t, near, target.Color.At(3, 3))
		assert.InDelta(t, 0.2, target.Depth.At(3, 3), 1e-6)
	}
}

func TestRasterizer_DepthOnly(t *testing.T) {
	target := Target{Depth: NewDepthBuffer(4, 4)}
	require.NoError(t, newTestRasterizer().Draw(context.Background(), target, quad(0.25, 0), OpaqueState(), nil))
	for _, d := range target.Depth.Values {
		assert.InDelta(t, 0.25, d, 1e-6)
	}
}

func TestRasterizer_PerspectiveBarySumsToOne(t *testing.T) {
	tri := []Triangle{{Clip: [3]mgl32.Vec4{{-1, -1, 0.1, 1}, {4, -4, 2, 4}, {0, 2, 0.5, 2}}, Primitive: 7}}
	var mu sync.Mutex
	var frags []Fragment
	target := Target{Color: postfx.NewImage(16, 16)}
	require.NoError(t, newTestRasterizer().Draw(context.Background(), target, tri, State{Cull: material.CullNone}, func(f Fragment) (mgl32.Vec4, bool) {
		mu.Lock()
		frags = append(frags, f)
		mu.Unlock()
		return mgl32.Vec4{}, true
	}))

	require.NotEmpty(t, frags)
	for _, f := range frags {
		assert.Equal(t, 7, f.Primitive)
		assert.InDelta(t, 1, f.Bary[0]+f.Bary[1]+f.Bary[2], 1e-4)
		for i := 0; i < 3; i++ {
			assert.GreaterOrEqual(t, f.Bary[i], float32(-1e-4))
		}
	}
}

func TestRasterizer_NearClipping(t *testing.T) {
	behind := []Triangle{{Clip: [3]mgl32.Vec4{{-1, -1, -0.5, 1}, {1, -1, -0.5, 1}, {0, 1, -0.5, 1}}}}
	crossing := []Triangle{{Clip: [3]mgl32.Vec4{{-1, -1, -0.5, 1}, {1, -1, 0.5, 1}, {0, 1, 0.5, 1}}}}

	var mu sync.Mutex
	count := 0
	shade := func(f Fragment) (mgl32.Vec4, bool) {
		mu.Lock()
		count++
		mu.Unlock()
		assert.GreaterOrEqual(t, f.Depth, float32(0))
		return mgl32.Vec4{}, true
	}
	r := newTestRasterizer()

	require.NoError(t, r.Draw(context.Background(), Target{Color: postfx.NewImage(16, 16)}, behind, State{Cull: material.CullNone}, shade))
	assert.Zero(t, count)

	require.NoError(t, r.Draw(context.Background(), Target{Color: postfx.NewImage(16, 16)}, crossing, State{Cull: material.CullNone}, shade))
	assert.Positive(t, count)
}

func TestRasterizer_DiscardAndBlend(t *testing.T) {
	target := Target{Color: postfx.NewImage(4, 4)}
	target.Color.Fill(mgl32.Vec4{0, 0, 0, 1})
	r := newTestRasterizer()

	require.NoError(t, r.Draw(context.Background(), target, quad(0.5, 0), State{Blend: material.BlendAlpha}, solidShade(mgl32.Vec4{1, 1, 1, 0.5})))
	assert.InDelta(t, 0.5, target.Color.At(1, 1)[0], 1e-6)
	assert.InDelta(t, 1, target.Color.At(1, 1)[3], 1e-6)

	require.NoError(t, r.Draw(context.Background(), target, quad(0.5, 0), State{}, func(Fragment) (mgl32.Vec4, bool) {
		return mgl32.Vec4{9, 9, 9, 9}, false
	}))
	assert.InDelta(t, 0.5, target.Color.At(1, 1)[0], 1e-6)
}

func TestRasterizer_Wireframe(t *testing.T) {
	const w = 16
	target := Target{Color: postfx.NewImage(w, w)}
	require.NoError(t, newTestRasterizer().Draw(context.Background(), target, quad(0.5, 0), State{Wireframe: true}, solidShade(mgl32.Vec4{1, 1, 1, 1})))

	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, target.Color.At(0, 5), "outer edge")
	assert.Equal(t, mgl32.Vec4{}, target.Color.At(11, 8), "interior")
}

func TestRasterizer_EmptyTarget(t *testing.T) {
	err := newTestRasterizer().Draw(context.Background(), Target{}, quad(0.5, 0), State{}, nil)
	assert.Error(t, err)
}
