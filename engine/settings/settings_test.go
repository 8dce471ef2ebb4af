package settings

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSettings_Clamped(t *testing.T) {
	tests := []struct {
		name       string
		in         RenderSettings
		wantMode   DebugMode
		wantTrans  TransitionMaterial
		wantFactor float32
	}{
		{"defaults untouched", DefaultRenderSettings(), DebugShaded, TransitionInk, 0},
		{"mode out of range", RenderSettings{DebugMode: 999}, DebugShaded, TransitionInk, 0},
		{"transition out of range", RenderSettings{TransitionMaterial: 7, TransitionFactor: 0.5}, DebugShaded, TransitionInk, 0.5},
		{"factor above one", RenderSettings{DebugMode: DebugNormals, TransitionFactor: 3}, DebugNormals, TransitionInk, 1},
		{"factor negative", RenderSettings{TransitionMaterial: TransitionGold, TransitionFactor: -1}, DebugShaded, TransitionGold, 0},
		{"factor NaN", RenderSettings{TransitionFactor: float32(math.NaN())}, DebugShaded, TransitionInk, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamped()
			assert.Equal(t, tt.wantMode, got.DebugMode)
			assert.Equal(t, tt.wantTrans, got.TransitionMaterial)
			assert.Equal(t, tt.wantFactor, got.TransitionFactor)
		})
	}
}

func TestDebugMode_NextPrevWrap(t *testing.T) {
	assert.Equal(t, DebugPosition0, DebugShaded.Next())
	assert.Equal(t, DebugShaded, DebugShaderComplexity.Next())
	assert.Equal(t, DebugShaderComplexity, DebugShaded.Prev())
	assert.Equal(t, TransitionInk, TransitionDitto.Next())
}

func TestDebugMode_TextureSlot(t *testing.T) {
	slot, ok := DebugTexture4.TextureSlot()
	assert.True(t, ok)
	assert.Equal(t, 4, slot)

	slot, ok = DebugTexture16.TextureSlot()
	assert.True(t, ok)
	assert.Equal(t, 16, slot)

	_, ok = DebugNormals.TextureSlot()
	assert.False(t, ok)
}

func TestParseDebugMode(t *testing.T) {
	for m := DebugShaded; m < debugModeCount; m++ {
		got, ok := ParseDebugMode(m.String())
		require.True(t, ok, m.String())
		assert.Equal(t, m, got)
	}
	_, ok := ParseDebugMode("Wireframe")
	assert.False(t, ok)
}

func TestRenderSettings_Marshal(t *testing.T) {
	rs := DefaultRenderSettings()
	rs.DebugMode = DebugAlbedo
	rs.TransitionFactor = 0.25
	rs.RenderRGBA[3] = false
	buf := rs.Marshal()

	require.Len(t, buf, GPURenderSettingsSize)
	assert.Equal(t, uint32(DebugAlbedo), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[32:])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[48:]))

	rgba := 11 * 16
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[rgba:])))
	assert.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(buf[rgba+12:])))
}

func TestConfig_LoadResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"width": 640,
		"backend": "software",
		"output_path": "out/frame.png",
		"render": {"debug_mode": 33, "transition_factor": 4},
		"options": {"draw_bones": true, "draw_floor_grid": true}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Resolve(Flags{Height: 480, Workers: 3})

	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "png", cfg.OutputFormat)
	assert.Equal(t, DebugNormals, cfg.Render.DebugMode)
	assert.Equal(t, float32(1), cfg.Render.TransitionFactor)
	assert.True(t, cfg.Skinning.EnableSkinning)
	assert.Equal(t, -1, cfg.Options.MaskModelIndex)
	assert.True(t, cfg.Options.DrawFloorGrid)
	assert.True(t, cfg.Options.DrawSkeleton())
	assert.False(t, cfg.Options.DrawBoneAxes)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "settings: parse")
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Backend: "vulkan"}
	cfg.Resolve(Flags{})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Config{}
	cfg.Resolve(Flags{DebugMode: "Albedo"})
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, DebugAlbedo, cfg.Render.DebugMode)
}
