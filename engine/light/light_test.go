package light

import (
	"testing"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRowsInDelta(t *testing.T, rows [4][4]float32, m mgl32.Mat4) {
	t.Helper()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			assert.InDelta(t, rows[r][c], m.At(r, c), 1e-5, "row %d col %d", r, c)
		}
	}
}

func TestLightTransform(t *testing.T) {
	one := mgl32.Vec3{1, 1, 1}
	tests := []struct {
		name     string
		rotation mgl32.Quat
		rows     [4][4]float32
	}{
		{
			name:     "identity",
			rotation: mgl32.QuatIdent(),
			rows:     [4][4]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, -0.5, 0.5}, {0, 0, 0, 1}},
		},
		{
			name:     "x 90 degrees",
			rotation: mgl32.Quat{W: 1, V: mgl32.Vec3{1, 0, 0}}.Normalize(),
			rows:     [4][4]float32{{1, 0, 0, 0}, {0, 0, -1, 0}, {0, -0.5, 0, 0.5}, {0, 0, 0, 1}},
		},
		{
			name:     "y 90 degrees",
			rotation: mgl32.Quat{W: 1, V: mgl32.Vec3{0, 1, 0}}.Normalize(),
			rows:     [4][4]float32{{0, 0, 1, 0}, {0, 1, 0, 0}, {0.5, 0, 0, 0.5}, {0, 0, 0, 1}},
		},
		{
			name:     "z 90 degrees",
			rotation: mgl32.Quat{W: 1, V: mgl32.Vec3{0, 0, 1}}.Normalize(),
			rows:     [4][4]float32{{0, -1, 0, 0}, {1, 0, 0, 0}, {0, 0, -0.5, 0.5}, {0, 0, 0, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertRowsInDelta(t, tt.rows, LightTransform(tt.rotation, one))
		})
	}
}

func TestDirection_CharacterLight(t *testing.T) {
	dir := Direction(DefaultCharacterRotation)
	assert.InDelta(t, -0.38302213, dir.X(), 1e-4)
	assert.InDelta(t, 0.86602527, dir.Y(), 1e-4)
	assert.InDelta(t, 0.32139426, dir.Z(), 1e-4)
}

func TestFitScale_CoversBox(t *testing.T) {
	box := dvec3.Box{Min: dvec3.T{-2, 0, -1}, Max: dvec3.T{2, 4, 1}}
	rot := DefaultStageRotation.Normalize()
	m := FitLightTransform(rot, box)

	for _, c := range []mgl32.Vec3{{-2, 0, -1}, {2, 4, 1}, {2, 0, -1}, {-2, 4, 1}} {
		p := m.Mul4x1(c.Vec4(1))
		assert.LessOrEqual(t, p.X(), float32(1))
		assert.GreaterOrEqual(t, p.X(), float32(-1))
		assert.LessOrEqual(t, p.Y(), float32(1))
		assert.GreaterOrEqual(t, p.Y(), float32(-1))
		assert.LessOrEqual(t, p.Z(), float32(1))
		assert.GreaterOrEqual(t, p.Z(), float32(0))
	}

	ext := FitScale(mgl32.QuatIdent(), box)
	assert.InDelta(t, 2*FitMargin, ext.X(), 1e-5)
	assert.InDelta(t, 4*FitMargin, ext.Y(), 1e-5)
	assert.InDelta(t, 1*FitMargin, ext.Z(), 1e-5)
}

func TestSelector_Select(t *testing.T) {
	stage := DefaultStageLightSet()
	sel := NewSelector(WithStageLightSets(stage))

	assert.Equal(t, "stage", sel.Select(0).Name)
	assert.Equal(t, "character", sel.Select(-1).Name)
	assert.Equal(t, "character", sel.Select(3).Name)
	assert.Equal(t, 1, sel.Slot(9))
	require.Len(t, sel.Sets(), 2)

	empty := NewSelector()
	assert.Equal(t, "character", empty.Select(0).Name)
	assert.Len(t, empty.Stage(), 0)
}

func TestLightSet_Environment(t *testing.T) {
	set := DefaultCharacterLightSet()
	set.Lights[0].SetIntensity(2)
	env := set.Environment()

	assert.InDelta(t, 0.86602527, env.LightDir.Y(), 1e-4)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, env.LightColor)
	assert.Equal(t, DefaultAmbient, env.Ambient)

	empty := LightSet{Rotation: mgl32.QuatIdent()}
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, empty.Environment().LightDir)
	assert.Nil(t, empty.Key())
}

func TestGPULightUniforms_Marshal(t *testing.T) {
	u := NewGPULightUniforms(DefaultStageLightSet())
	buf := u.Marshal()
	assert.Len(t, buf, u.Size())
	assert.Equal(t, 112, u.Size())
}
