package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreProcessor_EveryProgramExpands(t *testing.T) {
	for _, program := range Programs {
		t.Run(program, func(t *testing.T) {
			raw, err := ProgramSource(program)
			require.NoError(t, err)

			out, err := NewPreProcessor().Process(raw)
			require.NoError(t, err)
			assert.NotContains(t, out, annotationPrefix)
		})
	}
}

func TestProgramSource_Unknown(t *testing.T) {
	_, err := ProgramSource("missing")
	assert.Error(t, err)
}

func TestPreProcessor_IncludesOnce(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:include camera\n//@oxy:include camera\n")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))

	// Libraries share the dedupe set of the program that includes them.
	raw, err := ProgramSource(ProgramModel)
	require.NoError(t, err)
	out, err = pp.Process(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct CameraUniform"))
	assert.Equal(t, 1, strings.Count(out, "struct RenderSettings"))
	assert.Equal(t, 1, strings.Count(out, "struct VertexInput0"))
}

func TestPreProcessor_GroupDeclaration(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:group 0 4 storage_read_write skinned array<skinned_vertex>")
	require.NoError(t, err)
	assert.Equal(t, "@group(0) @binding(4) var<storage, read_write> skinned: array<SkinnedVertex>;", out)

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, AnnotationTypeBindingGroup, decls[0].Type)
	assert.Equal(t, 0, *decls[0].Group)
	assert.Equal(t, 4, *decls[0].Binding)
}

func TestPreProcessor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", "//@oxy:"},
		{"unknown type", "//@oxy:bogus camera"},
		{"unknown include", "//@oxy:include nothing"},
		{"include arity", "//@oxy:include camera light"},
		{"group arity", "//@oxy:group 0 0 storage_uniform camera"},
		{"negative group", "//@oxy:group -1 0 storage_uniform camera camera"},
		{"bad binding", "//@oxy:group 0 x storage_uniform camera camera"},
		{"address space", "//@oxy:group 0 0 storage_private camera camera"},
		{"group type", "//@oxy:group 0 0 storage_uniform camera nothing"},
		{"library as group type", "//@oxy:group 0 0 storage_uniform lib shading"},
		{"array of unknown", "//@oxy:group 0 0 storage_read data array<nothing>"},
		{"provider arity", "//@oxy:provider 0 0"},
		{"provider identity", "//@oxy:provider 0 0 nobody"},
		{"provider role", "//@oxy:provider 0 0 frame nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process("fn keep() {}\n" + tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestParseAnnotation_PlainLines(t *testing.T) {
	for _, line := range []string{
		"// an ordinary comment",
		"let x = 1.0; //@oxy:include camera",
		"fn main() {}",
		"",
	} {
		a, err := parseAnnotation(line, 1)
		assert.NoError(t, err, line)
		assert.Nil(t, a, line)
	}
}

func TestNewShader_ModelLayouts(t *testing.T) {
	vs := NewShader("model_vs", ShaderTypeVertex, ProgramModel)
	fs := NewShader("model_fs", ShaderTypeFragment, ProgramModel)

	assert.Equal(t, "vs_model", vs.EntryPoint())
	assert.Equal(t, "fs_model", fs.EntryPoint())
	assert.Empty(t, fs.VertexLayouts())

	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, uint64(48), layouts[0][0].ArrayStride)
	assert.Len(t, layouts[0][0].Attributes, 3)
	assert.Equal(t, uint64(152), layouts[1][0].ArrayStride)
	assert.Len(t, layouts[1][0].Attributes, 12)
	assert.Equal(t, uint32(3), layouts[1][0].Attributes[0].ShaderLocation)

	frame := fs.BindGroupLayoutDescriptor(0)
	require.Len(t, frame.Entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, frame.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(camera.GPUCameraUniformSize), frame.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageFragment, frame.Entries[0].Visibility)

	mat := fs.BindGroupLayoutDescriptor(1)
	require.Len(t, mat.Entries, 2+material.TextureCount)
	assert.Equal(t, uint64(material.GPUMaterialUniformsSize), mat.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, mat.Entries[1].Sampler.Type)
	for _, e := range mat.Entries[2:] {
		assert.Equal(t, wgpu.TextureSampleTypeFloat, e.Texture.SampleType)
		assert.Equal(t, wgpu.TextureViewDimension2D, e.Texture.ViewDimension)
	}
	assert.Equal(t, "tex18", fs.BindGroupVarName(1, 20))

	shadow := fs.BindGroupLayoutDescriptor(2)
	require.Len(t, shadow.Entries, 3)
	binding, ok := fs.BindGroupFromVarName(2, "shadow_moments")
	assert.True(t, ok)
	assert.Equal(t, 1, binding)
}

func TestNewShader_ProviderGroup(t *testing.T) {
	model := NewShader("model_fs", ShaderTypeFragment, ProgramModel)
	for identity, want := range map[AnnotationArg]int{
		AnnotationArgFrame:    0,
		AnnotationArgMaterial: 1,
		AnnotationArgShadow:   2,
	} {
		g, ok := model.ProviderGroup(identity)
		assert.True(t, ok, identity)
		assert.Equal(t, want, g, identity)
	}

	debug := NewShader("debug_fs", ShaderTypeFragment, ProgramModelDebug)
	_, ok := debug.ProviderGroup(AnnotationArgShadow)
	assert.False(t, ok)
	assert.Empty(t, debug.BindGroupLayoutDescriptor(2).Entries)
}

func TestNewShader_Skinning(t *testing.T) {
	cs := NewShader("skinning", ShaderTypeCompute, ProgramSkinning)
	assert.Equal(t, "cs_skin", cs.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, cs.WorkgroupSize())

	entries := cs.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, entries, 5)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[0].Buffer.Type)
	assert.Equal(t, uint64(48), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(32), entries[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[2].Buffer.Type)
	assert.Equal(t, uint64(64), entries[3].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[4].Buffer.Type)
	assert.Equal(t, wgpu.ShaderStageCompute, entries[4].Visibility)

	rn := NewShader("renormal", ShaderTypeCompute, ProgramRenormal)
	assert.Equal(t, [3]uint32{64, 1, 1}, rn.WorkgroupSize())
	assert.Equal(t, uint64(4), rn.BindGroupLayoutDescriptor(0).Entries[1].Buffer.MinBindingSize)
}

func TestNewShader_TextureKinds(t *testing.T) {
	vsm := NewShader("vsm", ShaderTypeFragment, ProgramVarianceShadow)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, vsm.BindGroupLayoutDescriptor(0).Entries[0].Texture.SampleType)

	post := NewShader("post", ShaderTypeFragment, ProgramPostProcess)
	entries := post.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, entries, 5)
	assert.Equal(t, wgpu.TextureViewDimension3D, entries[3].Texture.ViewDimension)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[4].Buffer.Type)

	// Full screen passes draw without vertex buffers.
	vs := NewShader("post_vs", ShaderTypeVertex, ProgramPostProcess)
	assert.Equal(t, "vs_fullscreen", vs.EntryPoint())
	assert.Empty(t, vs.VertexLayouts())
}

func TestNewShader_OverlayPrograms(t *testing.T) {
	skel := NewShader("skeleton_vs", ShaderTypeVertex, ProgramSkeleton)
	assert.Equal(t, "vs_skeleton", skel.EntryPoint())
	layouts := skel.VertexLayouts()
	require.Len(t, layouts, 1, "the output struct carries @builtin(position)")
	assert.Equal(t, uint64(32), layouts[0][0].ArrayStride)
	require.Len(t, layouts[0][0].Attributes, 2)
	assert.Equal(t, uint64(16), layouts[0][0].Attributes[1].Offset)
	assert.Equal(t, uint32(1), layouts[0][0].Attributes[1].ShaderLocation)

	grid := NewShader("floor_grid_vs", ShaderTypeVertex, ProgramFloorGrid)
	assert.Equal(t, "vs_floor_grid", grid.EntryPoint())
	assert.Empty(t, grid.VertexLayouts())
	g, ok := grid.ProviderGroup(AnnotationArgFrame)
	assert.True(t, ok)
	assert.Equal(t, 0, g)
}

func TestParseStructMembers(t *testing.T) {
	members := parseStructMembers(`
		@location(2) weights: vec4<f32>,
		taps: array<f32, 4>,
		@builtin(position) clip: vec4<f32>,
	`)
	require.Len(t, members, 3)
	assert.Equal(t, structMember{name: "weights", typ: "vec4<f32>", location: 2}, members[0])
	assert.Equal(t, structMember{name: "taps", typ: "array<f32, 4>", location: -1}, members[1])
	assert.True(t, members[2].builtin)

	assert.False(t, wgslStruct{members: members}.isVertexInput())
	assert.True(t, wgslStruct{members: members[:1]}.isVertexInput())
	assert.False(t, wgslStruct{members: members[1:2]}.isVertexInput(), "no @location member")
}

func TestNewShader_UnknownProgramPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewShader("x", ShaderTypeVertex, "missing")
	})
}

func TestValidate_RejectsBrokenSource(t *testing.T) {
	_, err := Validate("fn broken(")
	assert.Error(t, err)
}

func TestValidateProgram(t *testing.T) {
	for _, program := range Programs {
		t.Run(program, func(t *testing.T) {
			spirv, err := ValidateProgram(program)
			if err != nil {
				// The compiler does not cover all of WGSL yet.
				t.Skipf("not compiled: %v", err)
			}
			require.GreaterOrEqual(t, len(spirv), 4)
			assert.Zero(t, len(spirv)%4)
		})
	}
}
