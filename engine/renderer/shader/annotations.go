// annotations.go defines the @oxy: annotations understood by the WGSL pre-processor.
// Annotations are single-line WGSL comments. They inject shared struct definitions and
// function libraries, generate buffer binding declarations, and tag hand-written bindings
// with the frame resource that feeds them so the wgpu backend can wire bind groups from the
// declarations instead of variable names.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered struct definition or function library at the
	// annotation site. Each key is injected at most once per program; libraries are processed
	// recursively, so their own annotations count toward the program's declarations.
	//
	// Syntax: //@oxy:include <key>
	//
	// Example: //@oxy:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding buffer declaration for a
	// registered struct type, or a runtime-sized array of one.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 0 storage_read source array<skinned_vertex>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider tags the hand-written binding below it with the frame resource
	// that fills it. It produces no WGSL output. The optional role names the binding's
	// purpose inside the provider's group.
	//
	// Syntax:
	//   //@oxy:provider <group> <binding> <provider_identity>
	//   //@oxy:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Examples:
	//   //@oxy:provider 1 1 material sampler
	//   //@oxy:provider 0 3 skinning bones
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation is one parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct or library key
	//   - group:    [0] = address space, [1] = var name, [2] = type key
	//   - provider: [0] = provider identity, [1] = binding role (optional)
	Args []AnnotationArg

	// Line is the 1-based line number in the file the annotation was read from.
	Line int

	// Group is the @group index of group and provider annotations.
	Group *int

	// Binding is the @binding index of group and provider annotations.
	Binding *int
}

// AnnotationArg is a typed annotation argument.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// Registered WGSL structs. Each maps to the embedded .wgsl asset of a Go GPU type.

const (
	// AnnotationArgCamera identifies CameraUniform (engine/camera).
	AnnotationArgCamera AnnotationArg = "camera"

	// AnnotationArgRenderSettings identifies RenderSettings (engine/settings).
	AnnotationArgRenderSettings AnnotationArg = "render_settings"

	// AnnotationArgLight identifies LightUniforms (engine/light).
	AnnotationArgLight AnnotationArg = "light"

	// AnnotationArgMaterial identifies MaterialUniforms (engine/material). The same key is the
	// material provider identity.
	AnnotationArgMaterial AnnotationArg = "material"

	// annotationArgVertex0 identifies VertexInput0, the position, normal and tangent stream.
	annotationArgVertex0 AnnotationArg = "vertex0"

	// annotationArgVertex1 identifies VertexInput1, the UV and color set stream.
	annotationArgVertex1 AnnotationArg = "vertex1"

	// AnnotationArgSkinnedVertex identifies SkinnedVertex, the storage layout of vertex stream 0.
	AnnotationArgSkinnedVertex AnnotationArg = "skinned_vertex"

	// AnnotationArgVertexWeights identifies VertexWeights, four bone influences per vertex.
	AnnotationArgVertexWeights AnnotationArg = "vertex_weights"

	// AnnotationArgMeshObjectInfo identifies MeshObjectInfo, the per mesh skinning uniform.
	AnnotationArgMeshObjectInfo AnnotationArg = "mesh_object_info"

	// AnnotationArgBloom identifies BloomUniforms (engine/postfx).
	AnnotationArgBloom AnnotationArg = "bloom"

	// AnnotationArgPost identifies PostUniforms (engine/postfx).
	AnnotationArgPost AnnotationArg = "post"

	// AnnotationArgOutline identifies OutlineUniforms (engine/postfx).
	AnnotationArgOutline AnnotationArg = "outline"
)

// ── Library arguments ──────────────────────────────────────────────────────────
// Shared WGSL function libraries under lib/. They can only be included.

const (
	annotationArgFullscreen       AnnotationArg = "fullscreen"
	annotationArgModelVertex      AnnotationArg = "model_vertex"
	annotationArgMaterialBindings AnnotationArg = "material_bindings"
	annotationArgShading          AnnotationArg = "shading"
	annotationArgShadowQuery      AnnotationArg = "shadow_query"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform>.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read>.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite maps to var<storage, read_write>.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// ── Provider identity arguments ────────────────────────────────────────────────
// The frame resource owning a bind group. The backend asks a shader for the group index of a
// provider with Shader.ProviderGroup.

const (
	// AnnotationArgFrame identifies the per frame group: camera and render settings.
	AnnotationArgFrame AnnotationArg = "frame"

	// AnnotationArgShadow identifies the light uniforms and shadow maps of a light set.
	AnnotationArgShadow AnnotationArg = "shadow"

	// AnnotationArgSkinning identifies the per mesh compute group: vertex streams, weights and bones.
	AnnotationArgSkinning AnnotationArg = "skinning"

	// AnnotationArgPostFX identifies the source targets of a full screen pass.
	AnnotationArgPostFX AnnotationArg = "postfx"
)

// ── Binding role arguments ─────────────────────────────────────────────────────

const (
	AnnotationArgRoleCamera    AnnotationArg = "camera"
	AnnotationArgRoleSampler   AnnotationArg = "sampler"
	AnnotationArgRoleTexture   AnnotationArg = "texture"
	AnnotationArgRoleLight     AnnotationArg = "light"
	AnnotationArgRoleMoments   AnnotationArg = "moments"
	AnnotationArgRoleDepth     AnnotationArg = "depth"
	AnnotationArgRoleSource    AnnotationArg = "source"
	AnnotationArgRoleSkinned   AnnotationArg = "skinned"
	AnnotationArgRoleBones     AnnotationArg = "bones"
	AnnotationArgRoleAdjacency AnnotationArg = "adjacency"
	AnnotationArgRoleColor     AnnotationArg = "color"
	AnnotationArgRoleBloom     AnnotationArg = "bloom"
	AnnotationArgRoleMip       AnnotationArg = "mip"
	AnnotationArgRoleLUT       AnnotationArg = "lut"
	AnnotationArgRoleMask      AnnotationArg = "mask"
)

// validStructTypes lists the keys accepted as @oxy:group types. Each has a struct registry entry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgRenderSettings,
	AnnotationArgLight,
	AnnotationArgMaterial,
	annotationArgVertex0,
	annotationArgVertex1,
	AnnotationArgSkinnedVertex,
	AnnotationArgVertexWeights,
	AnnotationArgMeshObjectInfo,
	AnnotationArgBloom,
	AnnotationArgPost,
	AnnotationArgOutline,
}

// validLibraries lists the keys that are include-only.
var validLibraries = []AnnotationArg{
	annotationArgFullscreen,
	annotationArgModelVertex,
	annotationArgMaterialBindings,
	annotationArgShading,
	annotationArgShadowQuery,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

var validProviderIdentities = []AnnotationArg{
	AnnotationArgFrame,
	AnnotationArgMaterial,
	AnnotationArgShadow,
	AnnotationArgSkinning,
	AnnotationArgPostFX,
}

var validBindingRoles = []AnnotationArg{
	AnnotationArgRoleCamera,
	AnnotationArgRoleSampler,
	AnnotationArgRoleTexture,
	AnnotationArgRoleLight,
	AnnotationArgRoleMoments,
	AnnotationArgRoleDepth,
	AnnotationArgRoleSource,
	AnnotationArgRoleSkinned,
	AnnotationArgRoleBones,
	AnnotationArgRoleAdjacency,
	AnnotationArgRoleColor,
	AnnotationArgRoleBloom,
	AnnotationArgRoleMip,
	AnnotationArgRoleLUT,
	AnnotationArgRoleMask,
}

// parseAnnotation parses one line of WGSL source. Lines without the annotation prefix return
// nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: if the annotation is malformed or names an unknown argument
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		key := AnnotationArg(args[1])
		if !slices.Contains(validStructTypes, key) && !slices.Contains(validLibraries, key) {
			return nil, fmt.Errorf("line %d: unknown include key %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{key}, Line: lineNum}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires five arguments (group, binding, address space, var name, type)", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
			typeArg = strings.TrimSuffix(inner, ">")
		}
		if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, typeArg)
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @oxy provider annotation requires three or four arguments (group, binding, provider identity[, binding role])", lineNum)
		}
		group, binding, err := parseSlot(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @oxy provider annotation", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q in @oxy provider annotation", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

// parseSlot parses the group and binding indices of an annotation.
func parseSlot(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q", lineNum, bindingArg)
	}
	return group, binding, nil
}
