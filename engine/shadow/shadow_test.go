package shadow

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientMap returns a map whose M1 increases with x and y so every texel differs.
func gradientMap(w, h int) *MomentMap {
	m := NewMomentMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float32(y*w+x) / float32(w*h)
			m.Texels[y*w+x] = Moments(d)
		}
	}
	return m
}

func TestClampUV(t *testing.T) {
	got := ClampUV(mgl32.Vec2{-0.3, 1.4})
	assert.Equal(t, mgl32.Vec2{0, 1}, got)
	assert.Equal(t, mgl32.Vec2{0.25, 0.75}, ClampUV(mgl32.Vec2{0.25, 0.75}))
}

func TestMomentMap_SampleClampsInsteadOfWrapping(t *testing.T) {
	m := gradientMap(8, 8)

	outside := m.Sample(mgl32.Vec2{-0.3, 1.4})
	assert.Equal(t, m.Sample(mgl32.Vec2{0, 1}), outside)
	assert.Equal(t, m.At(0, 7), outside)
	assert.NotEqual(t, m.Sample(mgl32.Vec2{0.7, 0.4}), outside)
}

func TestMomentMap_SampleBilinear(t *testing.T) {
	m := NewMomentMap(2, 1)
	m.Texels[0] = mgl32.Vec2{0, 0}
	m.Texels[1] = mgl32.Vec2{1, 1}

	mid := m.Sample(mgl32.Vec2{0.5, 0.5})
	assert.InDelta(t, 0.5, mid[0], 1e-6)
	assert.Equal(t, mgl32.Vec2{0, 0}, m.Sample(mgl32.Vec2{0.25, 0.5}))
}

func TestFromDepth(t *testing.T) {
	m, err := FromDepth([]float32{0.5, 0.25}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0.5, 0.25}, m.Texels[0])
	assert.Equal(t, mgl32.Vec2{0.25, 0.0625}, m.Texels[1])

	_, err = FromDepth([]float32{1}, 2, 2)
	assert.Error(t, err)
}

func TestVarianceDownsample(t *testing.T) {
	depth := []float32{
		0, 1, 0.5, 0.5,
		1, 0, 0.5, 0.5,
		0.2, 0.2, 0.2, 0.2,
		0.2, 0.2, 0.2, 0.2,
	}
	full, err := FromDepth(depth, 4, 4)
	require.NoError(t, err)

	half := VarianceDownsample(full)
	require.Equal(t, 2, half.Width)
	require.Equal(t, 2, half.Height)

	edge := half.Texels[0]
	assert.InDelta(t, 0.5, edge[0], 1e-6)
	assert.InDelta(t, 0.5, edge[1], 1e-6)
	assert.InDelta(t, 0.25, edge[1]-edge[0]*edge[0], 1e-6, "variance of the mixed block survives")

	flat := half.Texels[1]
	assert.InDelta(t, 0.5, flat[0], 1e-6)
	assert.InDelta(t, 0, flat[1]-flat[0]*flat[0], 1e-6)

	odd := VarianceDownsample(NewMomentMap(5, 3))
	assert.Equal(t, 3, odd.Width)
	assert.Equal(t, 2, odd.Height)

	vsm := VarianceDownsample(NewMomentMap(DepthMapSize, DepthMapSize))
	assert.Equal(t, VarianceMapSize, vsm.Width)
}

func TestChebyshev(t *testing.T) {
	tests := []struct {
		name    string
		moments mgl32.Vec2
		depth   float32
		want    float32
	}{
		{"receiver in front", mgl32.Vec2{0.5, 0.25}, 0.4, 1},
		{"receiver at mean", mgl32.Vec2{0.5, 0.25}, 0.5, 1},
		{"hard occluder", mgl32.Vec2{0.5, 0.25}, 0.9, MinVariance / (MinVariance + 0.16)},
		{"soft edge", mgl32.Vec2{0.5, 0.5}, 1, 0.25 / (0.25 + 0.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Chebyshev(tt.moments, tt.depth, MinVariance), 1e-5)
		})
	}
}

func TestQueryWorld(t *testing.T) {
	m := NewMomentMap(4, 4)
	for i := range m.Texels {
		m.Texels[i] = Moments(0.5)
	}
	transform := mgl32.Ident4()

	assert.Equal(t, float32(1), QueryWorld(m, transform, mgl32.Vec3{0, 0, 0.25}))
	assert.Less(t, QueryWorld(m, transform, mgl32.Vec3{0, 0, 0.9}), float32(0.01))
	assert.Less(t, QueryWorld(m, transform, mgl32.Vec3{-5, 5, 0.9}), float32(0.01), "outside the volume reads the edge")
	assert.Equal(t, float32(1), Query(nil, mgl32.Vec2{}, 1))
}

func TestProjectToLight(t *testing.T) {
	uv, depth := ProjectToLight(mgl32.Ident4(), mgl32.Vec3{1, 1, 0.3})
	assert.Equal(t, mgl32.Vec2{1, 0}, uv)
	assert.InDelta(t, 0.3, depth, 1e-6)
}
