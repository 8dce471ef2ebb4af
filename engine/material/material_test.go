package material

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textureSet map[string]bool

func (s textureSet) HasTexture(name string) bool { return s[name] }

func TestNewUniforms_NilMaterial(t *testing.T) {
	u := NewUniforms(nil, DefaultProgramDatabase(), nil)

	assert.True(t, u.EnableSpecular)
	assert.False(t, u.IsDiscard)
	assert.Equal(t, 0, u.PresentCount())
}

func TestNewUniforms_EmptyMaterialDisablesSpecular(t *testing.T) {
	u := NewUniforms(NewMaterial("empty"), DefaultProgramDatabase(), nil)

	assert.False(t, u.EnableSpecular)
	assert.Equal(t, [TextureCount]bool{}, u.HasTexture)
}

func TestNewUniforms_PresenceFlags(t *testing.T) {
	m := NewMaterial("body",
		WithShaderLabel(ProgramMasked+"_opaque"),
		WithVector(VectorAlbedoColor, mgl32.Vec4{1, 0.5, 0.25, 1}),
		WithFloat(FloatAlphaThreshold, 0.3),
		WithBoolean(BooleanInvertAlpha, true),
		WithTexture(SlotColor, "col"),
		WithTexture(SlotNormal, "nor"),
		WithVector(VectorCount, mgl32.Vec4{9, 9, 9, 9}),
	)
	u := NewUniforms(m, DefaultProgramDatabase(), textureSet{"col": true, "nor": true})

	assert.True(t, u.HasVector[VectorAlbedoColor])
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 1}, u.CustomVector[VectorAlbedoColor])
	assert.True(t, u.HasFloat[FloatAlphaThreshold])
	assert.True(t, u.CustomBoolean[BooleanInvertAlpha])
	assert.True(t, u.HasTexture[SlotColor])
	assert.True(t, u.HasTexture[SlotNormal])
	assert.False(t, u.HasTexture[SlotPRM])
	assert.True(t, u.IsDiscard)
	assert.True(t, u.EnableSpecular)
	assert.Equal(t, [4]bool{true, false, false, false}, u.HasColorSet1234)
	assert.Equal(t, 5, u.PresentCount())
}

func TestNewUniforms_UnboundTextureIsNotFlagged(t *testing.T) {
	m := NewMaterial("body", WithTexture(SlotColor, "col"), WithTexture(SlotPRM, "missing"))
	u := NewUniforms(m, DefaultProgramDatabase(), textureSet{"col": true})

	assert.True(t, u.HasTexture[SlotColor])
	assert.False(t, u.HasTexture[SlotPRM])
}

func TestNewUniforms_SpecularHeuristic(t *testing.T) {
	tests := []struct {
		name  string
		slots []int
		want  bool
	}{
		{"emissive only", []int{SlotEmissive, SlotEmissive2}, false},
		{"diffuse only", []int{SlotDiffuse, SlotDiffuse3}, false},
		{"emissive and diffuse", []int{SlotEmissive, SlotDiffuse}, true},
		{"color", []int{SlotColor}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []MaterialBuilderOption
			for _, s := range tt.slots {
				opts = append(opts, WithTexture(s, "t"))
			}
			u := NewUniforms(NewMaterial("m", opts...), nil, nil)
			assert.Equal(t, tt.want, u.EnableSpecular)
		})
	}
}

func TestProgramDatabase_LookupUsesPrefix(t *testing.T) {
	db := DefaultProgramDatabase()

	p, ok := db.Lookup(ProgramBlended + "_sort")
	require.True(t, ok)
	assert.Equal(t, ProgramBlended, p.Name)

	_, ok = db.Lookup("short")
	assert.False(t, ok)
	_, ok = db.Lookup("unknown_program_label_xyz_opaque")
	assert.False(t, ok)
}

func TestParseParam(t *testing.T) {
	kind, i, ok := ParseParam("CustomVector13")
	assert.True(t, ok)
	assert.Equal(t, ParamVector, kind)
	assert.Equal(t, 13, i)

	kind, i, ok = ParseParam("Texture4")
	assert.True(t, ok)
	assert.Equal(t, ParamTexture, kind)
	assert.Equal(t, 4, i)

	_, _, ok = ParseParam("CustomFloat20")
	assert.False(t, ok)
	_, _, ok = ParseParam("BlendState0")
	assert.False(t, ok)
}

func TestUniforms_MarshalLayout(t *testing.T) {
	m := NewMaterial("m",
		WithShaderLabel(ProgramMasked+"_opaque"),
		WithVector(0, mgl32.Vec4{1, 2, 3, 4}),
		WithTexture(SlotColor, "col"),
	)
	u := NewUniforms(m, DefaultProgramDatabase(), nil)
	buf := u.Marshal()

	require.Len(t, buf, GPUMaterialUniformsSize)
	assert.Equal(t, 3696, u.Size())

	hasTextureOffset := 16 * (VectorCount + BooleanCount + FloatCount + BooleanCount + FloatCount)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[hasTextureOffset:]))

	isDiscardOffset := GPUMaterialUniformsSize - 32
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[isDiscardOffset:]))
}
