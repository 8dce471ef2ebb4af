package shading

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

// recordingTextures returns a fixed color per slot and records every sampled slot.
type recordingTextures struct {
	colors  map[int]mgl32.Vec4
	sampled []int
}

func (r *recordingTextures) Sample(slot int, uv mgl32.Vec2) mgl32.Vec4 {
	r.sampled = append(r.sampled, slot)
	if c, ok := r.colors[slot]; ok {
		return c
	}
	return mgl32.Vec4{1, 0, 1, 1}
}

func fragment() Fragment {
	in := Fragment{
		Position: mgl32.Vec3{1, 2, 3},
		Normal:   mgl32.Vec3{0, 0, 2},
		Tangent:  mgl32.Vec4{1, 0, 0, 1},
		ViewDir:  mgl32.Vec3{0, 0, 1},
		Shadow:   1,
	}
	for i := range in.Colors {
		in.Colors[i] = mgl32.Vec4{0.5, 0.5, 0.5, 0.5}
	}
	return in
}

func uniforms(options ...material.MaterialBuilderOption) *material.Uniforms {
	u := material.NewUniforms(material.NewMaterial("m", options...), material.DefaultProgramDatabase(), nil)
	return &u
}

func TestShade_NoTexturesUsesDefaults(t *testing.T) {
	tex := &recordingTextures{}
	u := uniforms()

	out := Shade(fragment(), u, tex, settings.DefaultRenderSettings(), DefaultEnvironment())

	assert.Empty(t, tex.sampled)
	assert.False(t, out.Discard)
	assert.Equal(t, float32(1), out.Color.W())
	assert.InDelta(t, 0.032, out.Surface.F0, 1e-6)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, out.Surface.Albedo)
	assert.Equal(t, float32(1), out.Surface.Roughness)
	assert.Equal(t, float32(0), out.Surface.Metalness)
	for i := 0; i < 3; i++ {
		assert.Greater(t, out.Color[i], float32(0.5))
	}
}

func TestShade_NilUniforms(t *testing.T) {
	out := Shade(fragment(), nil, nil, settings.DefaultRenderSettings(), DefaultEnvironment())
	assert.False(t, out.Discard)
	assert.InDelta(t, 0.032, out.Surface.F0, 1e-6)
}

func TestShade_SamplesOnlyPresentSlots(t *testing.T) {
	tex := &recordingTextures{colors: map[int]mgl32.Vec4{material.SlotColor: {0.2, 0.4, 0.6, 1}}}
	u := uniforms(material.WithTexture(material.SlotColor, "col"))

	out := Shade(fragment(), u, tex, settings.DefaultRenderSettings(), DefaultEnvironment())

	assert.Equal(t, []int{material.SlotColor}, tex.sampled)
	assert.InDelta(t, 0.2, out.Surface.Albedo[0], eps)
	assert.InDelta(t, 0.6, out.Surface.Albedo[2], eps)
}

func TestShade_AlphaAccumulation(t *testing.T) {
	tests := []struct {
		name      string
		options   []material.MaterialBuilderOption
		textures  map[int]mgl32.Vec4
		wantAlpha float32
	}{
		{
			name:      "no sources",
			wantAlpha: 1,
		},
		{
			name:      "albedo alpha",
			options:   []material.MaterialBuilderOption{material.WithTexture(material.SlotColor, "col")},
			textures:  map[int]mgl32.Vec4{material.SlotColor: {1, 1, 1, 0.5}},
			wantAlpha: 0.5,
		},
		{
			name: "emission alpha ignored without override",
			options: []material.MaterialBuilderOption{
				material.WithTexture(material.SlotColor, "col"),
				material.WithTexture(material.SlotEmissive, "emi"),
			},
			textures:  map[int]mgl32.Vec4{material.SlotColor: {1, 1, 1, 0.5}, material.SlotEmissive: {1, 1, 1, 0.5}},
			wantAlpha: 0.5,
		},
		{
			name: "emission alpha with override",
			options: []material.MaterialBuilderOption{
				material.WithTexture(material.SlotColor, "col"),
				material.WithTexture(material.SlotEmissive, "emi"),
				material.WithVector(material.VectorAlphaOverride, mgl32.Vec4{1, 0, 0, 0}),
			},
			textures:  map[int]mgl32.Vec4{material.SlotColor: {1, 1, 1, 0.5}, material.SlotEmissive: {1, 1, 1, 0.5}},
			wantAlpha: 0.25,
		},
		{
			name: "vertex color alpha from program",
			options: []material.MaterialBuilderOption{
				material.WithShaderLabel(material.ProgramStandard + "_opaque"),
				material.WithTexture(material.SlotColor, "col"),
			},
			textures:  map[int]mgl32.Vec4{material.SlotColor: {1, 1, 1, 0.5}},
			wantAlpha: 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fragment()
			in.Colors[0] = mgl32.Vec4{0.5, 0.5, 0.5, 0.5}
			out := Shade(in, uniforms(tt.options...), &recordingTextures{colors: tt.textures}, settings.DefaultRenderSettings(), DefaultEnvironment())
			assert.InDelta(t, tt.wantAlpha, out.Color.W(), eps)
		})
	}
}

func TestShade_Discard(t *testing.T) {
	tex := &recordingTextures{colors: map[int]mgl32.Vec4{material.SlotColor: {1, 1, 1, 0.3}}}
	masked := []material.MaterialBuilderOption{
		material.WithShaderLabel(material.ProgramMasked + "_opaque"),
		material.WithTexture(material.SlotColor, "col"),
	}

	out := Shade(fragment(), uniforms(masked...), tex, settings.DefaultRenderSettings(), DefaultEnvironment())
	assert.True(t, out.Discard)
	assert.Equal(t, mgl32.Vec4{}, out.Color)

	withThreshold := append(masked, material.WithFloat(material.FloatAlphaThreshold, 0.2))
	out = Shade(fragment(), uniforms(withThreshold...), tex, settings.DefaultRenderSettings(), DefaultEnvironment())
	assert.False(t, out.Discard)

	opaque := uniforms(material.WithShaderLabel(material.ProgramStandard+"_opaque"), material.WithTexture(material.SlotColor, "col"))
	out = Shade(fragment(), opaque, tex, settings.DefaultRenderSettings(), DefaultEnvironment())
	assert.False(t, out.Discard)
}

func TestShade_TermToggles(t *testing.T) {
	u := uniforms(material.WithTexture(material.SlotEmissive, "emi"))
	tex := &recordingTextures{colors: map[int]mgl32.Vec4{material.SlotEmissive: {0, 0, 3, 1}}}

	all := Shade(fragment(), u, tex, settings.DefaultRenderSettings(), DefaultEnvironment())

	rs := settings.DefaultRenderSettings()
	rs.RenderEmission = false
	noEmission := Shade(fragment(), u, tex, rs, DefaultEnvironment())
	assert.InDelta(t, all.Color[2]-3, noEmission.Color[2], eps)

	rs = settings.DefaultRenderSettings()
	rs.RenderDiffuse = false
	rs.RenderSpecular = false
	rs.RenderEmission = false
	rs.RenderRimLighting = false
	dark := Shade(fragment(), u, tex, rs, DefaultEnvironment())
	assert.Equal(t, mgl32.Vec3{}, dark.Color.Vec3())

	rs = settings.DefaultRenderSettings()
	rs.RenderRGBA = [4]bool{true, false, true, true}
	masked := Shade(fragment(), u, tex, rs, DefaultEnvironment())
	assert.Equal(t, float32(0), masked.Color[1])
}

func TestShade_ShadowsToggle(t *testing.T) {
	u := uniforms()
	in := fragment()
	in.Shadow = 0

	shadowed := Shade(in, u, nil, settings.DefaultRenderSettings(), DefaultEnvironment())
	rs := settings.DefaultRenderSettings()
	rs.RenderShadows = false
	lit := Shade(in, u, nil, rs, DefaultEnvironment())

	assert.Less(t, shadowed.Color[0], lit.Color[0])
}

func TestShade_CustomLighting(t *testing.T) {
	env := DefaultEnvironment()
	env.Lighting = func(s Surface, in Fragment, u *material.Uniforms, rs settings.RenderSettings, env Environment) mgl32.Vec3 {
		return mgl32.Vec3{s.F0, s.Roughness, s.AO}
	}
	out := Shade(fragment(), uniforms(), nil, settings.DefaultRenderSettings(), env)
	assert.InDelta(t, 0.032, out.Color[0], 1e-6)
	assert.Equal(t, float32(1), out.Color[1])
}

func TestShadeDebug_NormalsIgnoresMaterial(t *testing.T) {
	rs := settings.DefaultRenderSettings()
	rs.DebugMode = settings.DebugNormals
	tex := &recordingTextures{}
	u := uniforms(
		material.WithTexture(material.SlotColor, "col"),
		material.WithTexture(material.SlotNormal, "nor"),
		material.WithShaderLabel(material.ProgramMasked+"_opaque"),
	)
	in := fragment()
	in.Normal = mgl32.Vec3{1, 0, 0}

	out := Shade(in, u, tex, rs, DefaultEnvironment())

	assert.Empty(t, tex.sampled)
	assert.False(t, out.Discard)
	want := []float64{1, math.Pow(0.5, 1/2.2), math.Pow(0.5, 1/2.2)}
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], out.Color[i], eps)
	}
	assert.Equal(t, float32(1), out.Color.W())
}

func TestShadeDebug_Modes(t *testing.T) {
	tex := &recordingTextures{colors: map[int]mgl32.Vec4{material.SlotPRM: {0.1, 0.2, 0.3, 0.4}}}
	u := uniforms(material.WithTexture(material.SlotPRM, "prm"))
	in := fragment()
	in.UV[0] = mgl32.Vec2{0.25, 0.75}
	in.Colors[2] = mgl32.Vec4{0.9, 0.8, 0.7, 0.6}

	tests := []struct {
		mode settings.DebugMode
		want mgl32.Vec4
	}{
		{settings.DebugPosition0, mgl32.Vec4{1, 2, 3, 1}},
		{settings.DebugNormal0, mgl32.Vec4{0.5, 0.5, 1, 1}},
		{settings.DebugColorSet3, mgl32.Vec4{0.9, 0.8, 0.7, 0.6}},
		{settings.DebugMap1, mgl32.Vec4{0.25, 0.75, 0, 1}},
		{settings.DebugTexture6, mgl32.Vec4{0.1, 0.2, 0.3, 0.4}},
		{settings.DebugTexture4, DefaultNormalMap},
		{settings.DebugTexture0, DefaultAlbedo},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			rs := settings.DefaultRenderSettings()
			rs.DebugMode = tt.mode
			out := ShadeDebug(in, u, tex, rs)
			for i := 0; i < 4; i++ {
				assert.InDelta(t, tt.want[i], out.Color[i], eps)
			}
		})
	}
}

func TestShadeDebug_ShaderComplexity(t *testing.T) {
	rs := settings.DefaultRenderSettings()
	rs.DebugMode = settings.DebugShaderComplexity

	cold := ShadeDebug(fragment(), uniforms(), nil, rs)
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, cold.Color)

	var options []material.MaterialBuilderOption
	for i := 0; i < ComplexityScale; i++ {
		options = append(options, material.WithVector(i, mgl32.Vec4{1, 1, 1, 1}))
	}
	hot := ShadeDebug(fragment(), uniforms(options...), nil, rs)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, hot.Color)
}

func TestApplyTransition(t *testing.T) {
	in := fragment()
	u := uniforms()
	base := ResolveSurface(in, u, nil, settings.DefaultRenderSettings())

	rs := settings.DefaultRenderSettings()
	rs.TransitionMaterial = settings.TransitionGold
	assert.Equal(t, base, ApplyTransition(base, in, u, nil, rs))

	rs.TransitionFactor = 1
	gold := ApplyTransition(base, in, u, nil, rs)
	want := TransitionPresets[settings.TransitionGold].Albedo
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], gold.Albedo[i], eps)
	}
	assert.Equal(t, float32(1), gold.Metalness)

	tex := &recordingTextures{colors: map[int]mgl32.Vec4{material.SlotNormal: {0.5, 0.5, 0.2, 1}}}
	bumpy := uniforms(material.WithTexture(material.SlotNormal, "nor"))
	surface := ResolveSurface(in, bumpy, tex, settings.DefaultRenderSettings())
	rs.TransitionFactor = 0.5
	assert.Equal(t, surface, ApplyTransition(surface, in, bumpy, tex, rs), "below the normal map threshold")
	rs.TransitionFactor = 0.9
	assert.NotEqual(t, surface, ApplyTransition(surface, in, bumpy, tex, rs))
}

func TestResolveSurface_NormalMap(t *testing.T) {
	in := fragment()
	s := ResolveSurface(in, uniforms(), nil, settings.DefaultRenderSettings())
	require.InDelta(t, 1, s.Normal.Z(), eps)

	tex := &recordingTextures{colors: map[int]mgl32.Vec4{material.SlotNormal: {1, 0.5, 0.5, 1}}}
	s = ResolveSurface(in, uniforms(material.WithTexture(material.SlotNormal, "nor")), tex, settings.DefaultRenderSettings())
	assert.InDelta(t, 1, s.Normal.X(), eps)

	rs := settings.DefaultRenderSettings()
	rs.RenderNor = [4]bool{false, false, true, true}
	s = ResolveSurface(in, uniforms(material.WithTexture(material.SlotNormal, "nor")), tex, rs)
	assert.InDelta(t, 1, s.Normal.Z(), eps)
}
