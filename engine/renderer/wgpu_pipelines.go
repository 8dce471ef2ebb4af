package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"

	"github.com/cogentcore/webgpu/wgpu"
)

// Target formats of the wgpu frame.
const (
	hdrFormat      = wgpu.TextureFormatRGBA16Float
	depthFormat    = wgpu.TextureFormatDepth32Float
	varianceFormat = wgpu.TextureFormatRG16Float
	maskFormat     = wgpu.TextureFormatR8Unorm
	postFormat     = wgpu.TextureFormatRGBA8Unorm
)

var (
	blendModes = []material.BlendMode{material.BlendOpaque, material.BlendAlpha, material.BlendAdditive}
	cullModes  = []material.CullMode{material.CullBack, material.CullFront, material.CullNone}
)

// materialState keys the forward pipelines of one program.
type materialState struct {
	blend material.BlendMode
	cull  material.CullMode
}

func materialStateOf(mat material.Material) materialState {
	if mat == nil {
		return materialState{material.BlendOpaque, material.CullBack}
	}
	return materialState{mat.Blend(), mat.Cull()}
}

// wgpuPipelines holds every pipeline of the frame graph.
type wgpuPipelines struct {
	skinning pipeline.Pipeline
	renormal pipeline.Pipeline

	shadowDepth pipeline.Pipeline
	variance    pipeline.Pipeline
	outlineMask pipeline.Pipeline

	threshold pipeline.Pipeline
	blur      pipeline.Pipeline
	combine   pipeline.Pipeline
	upscale   pipeline.Pipeline
	post      pipeline.Pipeline
	composite pipeline.Pipeline

	floorGrid pipeline.Pipeline
	skeleton  pipeline.Pipeline

	model map[materialState]pipeline.Pipeline
	debug map[materialState]pipeline.Pipeline
}

// newWGPUPipelines builds every pipeline. The forward pipelines are built once per blend and
// cull mode combination.
//
// Parameters:
//   - device: the device to build on
//   - surfaceFormat: the format of the presented surface
//   - samples: the multisample count of the model passes
//
// Returns:
//   - *wgpuPipelines: the built pipelines
//   - error: the first build error
func newWGPUPipelines(device *wgpu.Device, surfaceFormat wgpu.TextureFormat, samples uint32) (*wgpuPipelines, error) {
	fullscreen := func(key, program string, format wgpu.TextureFormat) pipeline.Pipeline {
		return pipeline.NewPipeline(key, pipeline.PipelineTypeRender,
			pipeline.WithProgram(program),
			pipeline.WithColorFormat(format),
			pipeline.WithDepthFormat(wgpu.TextureFormatUndefined),
		)
	}

	p := &wgpuPipelines{
		skinning: pipeline.NewPipeline(shader.ProgramSkinning, pipeline.PipelineTypeCompute, pipeline.WithProgram(shader.ProgramSkinning)),
		renormal: pipeline.NewPipeline(shader.ProgramRenormal, pipeline.PipelineTypeCompute, pipeline.WithProgram(shader.ProgramRenormal)),
		shadowDepth: pipeline.NewPipeline(shader.ProgramShadowDepth, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(shader.NewShader(shader.ProgramShadowDepth+" vs", shader.ShaderTypeVertex, shader.ProgramShadowDepth)),
			pipeline.WithDepthFormat(depthFormat),
			pipeline.WithCullMode(wgpu.CullModeNone),
		),
		variance: fullscreen(shader.ProgramVarianceShadow, shader.ProgramVarianceShadow, varianceFormat),
		outlineMask: pipeline.NewPipeline(shader.ProgramOutlineMask, pipeline.PipelineTypeRender,
			pipeline.WithProgram(shader.ProgramOutlineMask),
			pipeline.WithColorFormat(maskFormat),
			pipeline.WithDepthFormat(depthFormat),
		),
		threshold: fullscreen(shader.ProgramBloomThreshold, shader.ProgramBloomThreshold, hdrFormat),
		blur:      fullscreen(shader.ProgramBloomBlur, shader.ProgramBloomBlur, hdrFormat),
		combine:   fullscreen(shader.ProgramBloomCombine, shader.ProgramBloomCombine, hdrFormat),
		upscale:   fullscreen(shader.ProgramBloomUpscale, shader.ProgramBloomUpscale, hdrFormat),
		post:      fullscreen(shader.ProgramPostProcess, shader.ProgramPostProcess, postFormat),
		composite: fullscreen(shader.ProgramOutlineComposite, shader.ProgramOutlineComposite, surfaceFormat),
		floorGrid: pipeline.NewPipeline(shader.ProgramFloorGrid, pipeline.PipelineTypeRender,
			pipeline.WithProgram(shader.ProgramFloorGrid),
			pipeline.WithColorFormat(hdrFormat),
			pipeline.WithSampleCount(samples),
			pipeline.WithMaterialState(material.BlendAlpha, material.CullNone),
		),
		skeleton: pipeline.NewPipeline(shader.ProgramSkeleton, pipeline.PipelineTypeRender,
			pipeline.WithProgram(shader.ProgramSkeleton),
			pipeline.WithColorFormat(surfaceFormat),
			pipeline.WithDepthFormat(depthFormat),
		),
		model: make(map[materialState]pipeline.Pipeline),
		debug: make(map[materialState]pipeline.Pipeline),
	}
	for _, blend := range blendModes {
		for _, cull := range cullModes {
			key := materialState{blend, cull}
			p.model[key] = pipeline.NewPipeline(fmt.Sprintf("%s %s %s", shader.ProgramModel, blend, cull), pipeline.PipelineTypeRender,
				pipeline.WithProgram(shader.ProgramModel),
				pipeline.WithColorFormat(hdrFormat),
				pipeline.WithSampleCount(samples),
				pipeline.WithMaterialState(blend, cull),
			)
			p.debug[key] = pipeline.NewPipeline(fmt.Sprintf("%s %s %s", shader.ProgramModelDebug, blend, cull), pipeline.PipelineTypeRender,
				pipeline.WithProgram(shader.ProgramModelDebug),
				pipeline.WithColorFormat(surfaceFormat),
				pipeline.WithMaterialState(blend, cull),
			)
		}
	}

	for _, pl := range p.all() {
		if err := pl.Build(device); err != nil {
			p.Release()
			return nil, fmt.Errorf("failed to build pipeline %s: %w", pl.PipelineKey(), err)
		}
	}
	common.Logger().Debug("pipelines built", "count", len(p.all()), "surface_format", surfaceFormat, "samples", samples)
	return p, nil
}

// forward returns the model pipeline of a material. Bind groups created against the opaque
// back-face pipeline are compatible with every variant.
func (p *wgpuPipelines) forward(mat material.Material) pipeline.Pipeline {
	return p.model[materialStateOf(mat)]
}

func (p *wgpuPipelines) forwardDebug(mat material.Material) pipeline.Pipeline {
	return p.debug[materialStateOf(mat)]
}

// reference returns the pipeline the shared groups of a forward program are created against.
func (p *wgpuPipelines) reference(debug bool) pipeline.Pipeline {
	key := materialState{material.BlendOpaque, material.CullBack}
	if debug {
		return p.debug[key]
	}
	return p.model[key]
}

func (p *wgpuPipelines) all() []pipeline.Pipeline {
	out := []pipeline.Pipeline{
		p.skinning, p.renormal, p.shadowDepth, p.variance, p.outlineMask,
		p.threshold, p.blur, p.combine, p.upscale, p.post, p.composite,
		p.floorGrid, p.skeleton,
	}
	for _, blend := range blendModes {
		for _, cull := range cullModes {
			out = append(out, p.model[materialState{blend, cull}], p.debug[materialState{blend, cull}])
		}
	}
	return out
}

func (p *wgpuPipelines) Release() {
	for _, pl := range p.all() {
		if pl != nil {
			pl.Release()
		}
	}
}
