package shader

import (
	"embed"
	"fmt"
	"path"

	"github.com/cogentcore/webgpu/wgpu"
)

// sources holds the WGSL programs and the libraries they include.
//
//go:embed lib/*.wgsl programs/*.wgsl
var sources embed.FS

// Program names under programs/.
const (
	ProgramSkinning         = "skinning"
	ProgramRenormal         = "renormal"
	ProgramShadowDepth      = "shadow_depth"
	ProgramVarianceShadow   = "variance_shadow"
	ProgramModel            = "model"
	ProgramModelDebug       = "model_debug"
	ProgramOutlineMask      = "outline_mask"
	ProgramBloomThreshold   = "bloom_threshold"
	ProgramBloomBlur        = "bloom_blur"
	ProgramBloomCombine     = "bloom_combine"
	ProgramBloomUpscale     = "bloom_upscale"
	ProgramPostProcess      = "post_process"
	ProgramOutlineComposite = "outline_composite"
	ProgramFloorGrid        = "floor_grid"
	ProgramSkeleton         = "skeleton"
)

// Programs lists every program in the order the frame graph runs them.
var Programs = []string{
	ProgramSkinning, ProgramRenormal, ProgramShadowDepth, ProgramVarianceShadow,
	ProgramModel, ProgramModelDebug, ProgramFloorGrid, ProgramOutlineMask,
	ProgramBloomThreshold, ProgramBloomBlur, ProgramBloomCombine, ProgramBloomUpscale,
	ProgramPostProcess, ProgramOutlineComposite, ProgramSkeleton,
}

// ProgramSource returns the unprocessed WGSL of a program.
//
// Parameters:
//   - name: the program name, e.g. ProgramModel
//
// Returns:
//   - string: the raw program source
//   - error: if no program has that name
func ProgramSource(name string) (string, error) {
	data, err := sources.ReadFile(path.Join("programs", name+".wgsl"))
	if err != nil {
		return "", fmt.Errorf("shader: program %q: %w", name, err)
	}
	return string(data), nil
}

func mustReadSource(name string) string {
	data, err := sources.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("shader: embedded source %q missing: %v", name, err))
	}
	return string(data)
}

// ShaderType identifies the pipeline stage a Shader is built for.
type ShaderType int

const (
	ShaderTypeCompute ShaderType = iota
	ShaderTypeVertex
	ShaderTypeFragment
)

var stageVisibility = map[ShaderType]wgpu.ShaderStage{
	ShaderTypeCompute:  wgpu.ShaderStageCompute,
	ShaderTypeVertex:   wgpu.ShaderStageVertex,
	ShaderTypeFragment: wgpu.ShaderStageFragment,
}

// shader is the implementation of the Shader interface.
// It holds the processed program and the layouts reflected from it for one stage.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              map[int][]wgpu.VertexBufferLayout
	workGroupSize              [3]uint32
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is one stage of a processed WGSL program. A render program is loaded twice, once per
// stage, and the backend merges the bind group layouts of both stages.
type Shader interface {
	// Key returns the module label the shader was created with.
	Key() string

	// BindGroupLayoutDescriptor returns the reflected layout of one group, or an empty
	// descriptor if the program declares nothing in it.
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every reflected group layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the WGSL variable bound at group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or "" if nothing is bound there
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName finds the binding index of a WGSL variable.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name, e.g. "skinned"
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable is bound in the group
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayout returns the buffer layouts of one vertex buffer slot.
	VertexLayout(slot int) []wgpu.VertexBufferLayout

	// VertexLayouts returns the vertex buffer layouts keyed by slot. Empty for non-vertex stages.
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// EntryPoint returns the entry point of the shader's stage, e.g. "vs_main".
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size of a compute shader, [1, 1, 1] when the
	// attribute omits dimensions and [0, 0, 0] for other stages.
	WorkgroupSize() [3]uint32

	// Module returns the descriptor the backend creates the shader module from.
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the group and provider annotations of the program, libraries included.
	Declarations() []Annotation

	// ProviderGroup returns the bind group index a provider fills.
	//
	// Parameters:
	//   - identity: the provider identity, e.g. AnnotationArgMaterial
	//
	// Returns:
	//   - int: the group index
	//   - bool: false if the program declares no binding for the provider
	ProviderGroup(identity AnnotationArg) (int, bool)
}

var _ Shader = &shader{}

// NewShader loads an embedded program and reflects the layouts of one stage. Vertex shaders get
// their vertex buffer layouts, compute shaders their workgroup size. Every stage gets the bind
// group layouts of the whole program with its own visibility. Unknown programs and malformed
// annotations panic, the same as any other unusable built-in asset.
//
// Parameters:
//   - key: a unique identifier for the shader, used as the module label
//   - shaderType: the stage to reflect
//   - program: the program name, e.g. ProgramModel
//
// Returns:
//   - Shader: the processed shader
func NewShader(key string, shaderType ShaderType, program string) Shader {
	source, err := ProgramSource(program)
	if err != nil {
		panic(err.Error())
	}
	s := &shader{
		key:                        key,
		shaderType:                 shaderType,
		bindGroupLayoutDescriptors: make(map[int]wgpu.BindGroupLayoutDescriptor),
		bindingVarNames:            make(map[int]map[int]string),
		vertexLayouts:              make(map[int][]wgpu.VertexBufferLayout),
		workGroupSize:              [3]uint32{0, 0, 0},
		pp:                         NewPreProcessor(),
	}
	s.parseSource(program, source)
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) VertexLayout(slot int) []wgpu.VertexBufferLayout {
	return s.vertexLayouts[slot]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) ProviderGroup(identity AnnotationArg) (int, bool) {
	for _, d := range s.pp.Declarations() {
		if d.Type == AnnotationTypeProvider && d.Args[0] == identity {
			return *d.Group, true
		}
	}
	return -1, false
}

// parseSource processes the program, builds the module descriptor and reflects the entry
// point and layouts of the shader's stage.
func (s *shader) parseSource(program, raw string) {
	var err error
	s.source, err = s.pp.Process(raw)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to pre-process program %q: %v", program, err))
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	s.entryPoint = parseEntryPoint(s.source, s.shaderType)
	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(s.source)
	}
	if s.shaderType == ShaderTypeCompute {
		s.workGroupSize = parseWorkgroupSize(s.source)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(s.source, stageVisibility[s.shaderType])
}
