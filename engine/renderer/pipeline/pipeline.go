package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"

	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with a vertex and an optional fragment entry point.
	PipelineTypeRender
)

// pipeline is the implementation of the Pipeline interface.
// It holds the underlying WebGPU pipeline objects and the layouts they were created with.
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader, computeShader shader.Shader

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	// layouts are indexed by group. descriptors holds the merged descriptor of every group.
	layouts     []*wgpu.BindGroupLayout
	descriptors map[int]wgpu.BindGroupLayoutDescriptor
	modules     []*wgpu.ShaderModule
	layout      *wgpu.PipelineLayout

	// The following properties configure render pipeline creation and are set with the builder options.
	// Compute pipelines ignore them.

	colorFormat         wgpu.TextureFormat
	depthFormat         wgpu.TextureFormat
	sampleCount         uint32
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline is a GPU pipeline: a render pipeline (vertex and optional fragment shader) or a
// compute pipeline. It is configured with builder options, created on a device with Build and
// owns the bind group layouts every bind group drawn with it must be created against.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex, fragment, or compute)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Build creates the shader modules, bind group layouts, pipeline layout and pipeline on the
	// device. Building twice releases the first set of objects.
	//
	// Parameters:
	//   - device: the device to create the pipeline on
	//
	// Returns:
	//   - error: if a shader is missing or the device rejects an object
	Build(device *wgpu.Device) error

	// RenderPipeline returns the created render pipeline, or nil.
	RenderPipeline() *wgpu.RenderPipeline

	// ComputePipeline returns the created compute pipeline, or nil.
	ComputePipeline() *wgpu.ComputePipeline

	// BindGroupLayout returns the layout of a bind group after Build, or nil.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout or nil
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// BindGroupLayoutDescriptor returns the descriptor of a group merged across every stage.
	// It is available before Build.
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// Binding looks up the binding index of a named resource in any stage of the pipeline.
	//
	// Parameters:
	//   - group: the group index
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - int: the binding index, -1 if not found
	//   - bool: true if found
	Binding(group int, varName string) (int, bool)

	// ColorFormat returns the format of the color target, or TextureFormatUndefined for depth
	// only pipelines.
	ColorFormat() wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or TextureFormatUndefined without depth.
	DepthFormat() wgpu.TextureFormat

	// SampleCount returns the multisample count of the attachments.
	SampleCount() uint32

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// BlendState returns the blend state, or nil when the target is overwritten.
	BlendState() *wgpu.BlendState

	// Release frees the pipeline, its layouts and its shader modules.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
// Render pipelines default to an opaque color target with depth testing, no culling and
// counter clockwise front faces.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		colorFormat:       wgpu.TextureFormatRGBA16Float,
		depthFormat:       wgpu.TextureFormatDepth32Float,
		sampleCount:       1,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BlendStateFor maps a material blend mode to the blend state of the forward pass. Opaque
// materials overwrite the target and get nil.
//
// Parameters:
//   - mode: the material blend mode
//
// Returns:
//   - *wgpu.BlendState: the blend state, or nil for opaque
func BlendStateFor(mode material.BlendMode) *wgpu.BlendState {
	switch mode {
	case material.BlendAlpha:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case material.BlendAdditive:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default:
		return nil
	}
}

// CullModeFor maps a material cull mode to the primitive cull mode.
func CullModeFor(mode material.CullMode) wgpu.CullMode {
	switch mode {
	case material.CullFront:
		return wgpu.CullModeFront
	case material.CullNone:
		return wgpu.CullModeNone
	default:
		return wgpu.CullModeBack
	}
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.layouts) {
		return nil
	}
	return p.layouts[group]
}

func (p *pipeline) Binding(group int, varName string) (int, bool) {
	for _, s := range []shader.Shader{p.computeShader, p.vertexShader, p.fragmentShader} {
		if s == nil {
			continue
		}
		if binding, ok := s.BindGroupFromVarName(group, varName); ok {
			return binding, true
		}
	}
	return -1, false
}

func (p *pipeline) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return p.mergedDescriptors()[group]
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	if p.fragmentShader == nil {
		return wgpu.TextureFormatUndefined
	}
	return p.colorFormat
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

// mergedDescriptors returns the bind group descriptors of every stage, merged once.
func (p *pipeline) mergedDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	if p.descriptors != nil {
		return p.descriptors
	}
	switch p.pipelineType {
	case PipelineTypeCompute:
		if p.computeShader != nil {
			p.descriptors = p.computeShader.BindGroupLayoutDescriptors()
		}
	case PipelineTypeRender:
		var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
		if p.vertexShader != nil {
			vertex = p.vertexShader.BindGroupLayoutDescriptors()
		}
		if p.fragmentShader != nil {
			fragment = p.fragmentShader.BindGroupLayoutDescriptors()
		}
		p.descriptors = mergeBindGroupLayouts(vertex, fragment)
	}
	if p.descriptors == nil {
		p.descriptors = map[int]wgpu.BindGroupLayoutDescriptor{}
	}
	return p.descriptors
}

func (p *pipeline) Build(device *wgpu.Device) error {
	switch p.pipelineType {
	case PipelineTypeRender:
		if p.vertexShader == nil {
			return errors.New("pipeline: a render pipeline needs a vertex shader")
		}
	case PipelineTypeCompute:
		if p.computeShader == nil {
			return errors.New("pipeline: a compute pipeline needs a compute shader")
		}
	default:
		return fmt.Errorf("pipeline: unknown pipeline type %d", p.pipelineType)
	}
	p.Release()

	if err := p.buildLayout(device); err != nil {
		return err
	}
	if p.pipelineType == PipelineTypeCompute {
		return p.buildCompute(device)
	}
	return p.buildRender(device)
}

// buildLayout creates one bind group layout per group, an empty one for unused group indices,
// and the pipeline layout over them.
func (p *pipeline) buildLayout(device *wgpu.Device) error {
	descriptors := p.mergedDescriptors()
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}

	p.layouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := range p.layouts {
		desc := descriptors[g]
		desc.Label = fmt.Sprintf("%s group %d", p.pipelineKey, g)
		layout, err := device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("pipeline %q: bind group layout %d: %w", p.pipelineKey, g, err)
		}
		p.layouts[g] = layout
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.layouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: layout: %w", p.pipelineKey, err)
	}
	p.layout = layout
	return nil
}

func (p *pipeline) createModule(device *wgpu.Device, s shader.Shader) (*wgpu.ShaderModule, error) {
	module, err := device.CreateShaderModule(s.Module())
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: shader %q: %w", p.pipelineKey, s.Key(), err)
	}
	p.modules = append(p.modules, module)
	return module, nil
}

func (p *pipeline) buildCompute(device *wgpu.Device) error {
	module, err := p.createModule(device, p.computeShader)
	if err != nil {
		return err
	}
	created, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.pipelineKey + " Compute Pipeline",
		Layout: p.layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: p.computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
	}
	p.computePipeline = created
	return nil
}

func (p *pipeline) buildRender(device *wgpu.Device) error {
	vs, err := p.createModule(device, p.vertexShader)
	if err != nil {
		return err
	}

	slots := p.vertexShader.VertexLayouts()
	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(slots))
	for i := 0; i < len(slots); i++ {
		vertexLayouts = append(vertexLayouts, p.vertexShader.VertexLayout(i)...)
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: p.vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: p.sampleCount,
			Mask:  0xFFFFFFFF,
		},
	}

	if p.fragmentShader != nil {
		fs, err := p.createModule(device, p.fragmentShader)
		if err != nil {
			return err
		}
		desc.Fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: p.fragmentShader.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    p.colorFormat,
				WriteMask: p.writeMask,
				Blend:     p.blendState,
			}},
		}
	}

	if p.depthFormat != wgpu.TextureFormatUndefined {
		depthCompare := wgpu.CompareFunctionLess
		if !p.depthTestEnabled {
			depthCompare = wgpu.CompareFunctionAlways
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := device.CreateRenderPipeline(desc)
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
	}
	p.renderPipeline = created
	return nil
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, l := range p.layouts {
		if l != nil {
			l.Release()
		}
	}
	p.layouts = nil
	for _, m := range p.modules {
		m.Release()
	}
	p.modules = nil
}
