// pre_processor.go implements the WGSL pre-processor. It replaces @oxy: annotations with
// struct definitions, library source and generated declarations, and collects the binding
// declarations the wgpu backend wires bind groups from.
//
// The pre-processor keeps three registries:
//   - structRegistry: struct keys to the embedded WGSL source and type name of a Go GPU type
//   - libraryRegistry: library keys to WGSL function libraries under lib/
//   - addressSpaceRegistry: address space keys to WGSL var<> syntax
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
)

// maxIncludeDepth bounds library nesting.
const maxIncludeDepth = 8

// registryEntry pairs an embedded WGSL struct source with its type name.
type registryEntry struct {
	// Source is the struct definition injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations.
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	libraryRegistry      map[AnnotationArg]string
	addressSpaceRegistry map[AnnotationArg]string

	// declarations and included are reset by every Process call.
	declarations []Annotation
	included     map[AnnotationArg]bool
}

// PreProcessor expands @oxy: annotations in WGSL source.
type PreProcessor interface {
	// Process expands every annotation of source. Includes are injected once per call, so a
	// struct included by a program and by one of its libraries is defined once. Group
	// annotations become @group/@binding declarations. Provider annotations produce no output.
	// Group and provider annotations, including those of libraries, are recorded in source
	// order and returned by Declarations.
	//
	// Parameters:
	//   - source: the raw WGSL program
	//
	// Returns:
	//   - string: the expanded WGSL
	//   - error: if an annotation is malformed, references an unknown key or libraries nest too deep
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations of the last Process call.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with every struct and library registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:         {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
			AnnotationArgRenderSettings: {Source: settings.GPURenderSettingsSource, Type: "RenderSettings"},
			AnnotationArgLight:          {Source: light.GPULightUniformsSource, Type: "LightUniforms"},
			AnnotationArgMaterial:       {Source: material.GPUMaterialUniformsSource, Type: "MaterialUniforms"},
			annotationArgVertex0:        {Source: model.GPUVertex0Source, Type: "VertexInput0"},
			annotationArgVertex1:        {Source: model.GPUVertex1Source, Type: "VertexInput1"},
			AnnotationArgSkinnedVertex:  {Source: model.GPUSkinnedVertexSource, Type: "SkinnedVertex"},
			AnnotationArgVertexWeights:  {Source: model.GPUVertexWeightsSource, Type: "VertexWeights"},
			AnnotationArgMeshObjectInfo: {Source: model.GPUMeshObjectInfoSource, Type: "MeshObjectInfo"},
			AnnotationArgBloom:          {Source: postfx.GPUBloomUniformsSource, Type: "BloomUniforms"},
			AnnotationArgPost:           {Source: postfx.GPUPostUniformsSource, Type: "PostUniforms"},
			AnnotationArgOutline:        {Source: postfx.GPUOutlineUniformsSource, Type: "OutlineUniforms"},
		},
		libraryRegistry: map[AnnotationArg]string{
			annotationArgFullscreen:       mustReadSource("lib/fullscreen.wgsl"),
			annotationArgModelVertex:      mustReadSource("lib/model_vertex.wgsl"),
			annotationArgMaterialBindings: mustReadSource("lib/material_bindings.wgsl"),
			annotationArgShading:          mustReadSource("lib/shading.wgsl"),
			annotationArgShadowQuery:      mustReadSource("lib/shadow_query.wgsl"),
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	p.included = make(map[AnnotationArg]bool)

	var out []string
	if err := p.expand(source, 0, &out); err != nil {
		return "", err
	}
	return strings.Join(out, "\n"), nil
}

// expand appends the expanded lines of source to out. depth counts the enclosing includes.
func (p *preProcessor) expand(source string, depth int, out *[]string) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("includes nest deeper than %d", maxIncludeDepth)
	}
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return err
		}
		if a == nil {
			*out = append(*out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			key := a.Args[0]
			if p.included[key] {
				continue
			}
			p.included[key] = true
			if entry, ok := p.structRegistry[key]; ok {
				*out = append(*out, entry.Source)
				continue
			}
			lib, ok := p.libraryRegistry[key]
			if !ok {
				return fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, key)
			}
			if err := p.expand(lib, depth+1, out); err != nil {
				return fmt.Errorf("include %s: %w", key, err)
			}
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				entry := p.structRegistry[AnnotationArg(strings.TrimSuffix(inner, ">"))]
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			} else {
				wgslType = p.structRegistry[a.Args[2]].Type
			}
			*out = append(*out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeProvider:
			p.declarations = append(p.declarations, *a)
		}
	}
	return nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
