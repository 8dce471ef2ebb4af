package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// vertexAttr is the vertex format of a WGSL type and its packed size.
type vertexAttr struct {
	format wgpu.VertexFormat
	size   uint64
}

// textureKind is the view a texture binding type is declared with.
type textureKind struct {
	dimension    wgpu.TextureViewDimension
	multisampled bool
}

// hostLayout is the size and alignment of a host-shareable type, used for MinBindingSize.
type hostLayout struct {
	size  uint64
	align uint64
}

// wgslVertexFormatMap maps the WGSL types allowed in a vertex input struct to their vertex
// format and byte size.
var wgslVertexFormatMap = map[string]vertexAttr{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
}

// wgslSampledTextureMap maps sampled and depth texture types to their view dimension.
var wgslSampledTextureMap = map[string]textureKind{
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// wgslSampleTypeMap maps the scalar parameter of a sampled texture to its sample type.
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// structBlockRegex captures the name and body of a struct declaration.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex  = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex captures the name and type of a struct member after its attributes.
	fieldRegex = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	computeEntryRegex  = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures one to three dimensions of @workgroup_size.
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, address space, name and type of a module
	// scope resource, e.g. "@group(1) @binding(2) var tex0: texture_2d<f32>;".
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, in source order.
// A vertex input struct has @location members and no @builtin member. Attributes are packed
// without padding. Structs with a member that is not a vertex format are skipped.
//
// Parameters:
//   - source: the processed WGSL
//
// Returns:
//   - map[int][]wgpu.VertexBufferLayout: layouts keyed by vertex buffer slot
func parseVertexLayouts(source string) map[int][]wgpu.VertexBufferLayout {
	result := make(map[int][]wgpu.VertexBufferLayout)
	slot := 0
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !ps.isVertexInput() {
			continue
		}
		layout, ok := buildVertexBufferLayout(ps)
		if !ok {
			continue
		}
		result[slot] = []wgpu.VertexBufferLayout{layout}
		slot++
	}
	return result
}

// parseBindGroupLayouts reflects every @group/@binding resource of the source into layout
// descriptors. Buffer entries get a MinBindingSize from the bound type: the struct size, or
// the element stride of a runtime-sized array.
//
// Parameters:
//   - source: the processed WGSL
//   - visibility: the stage set on every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group, entries sorted by binding
//   - map[int]map[int]string: variable names keyed by group and binding
func parseBindGroupLayouts(source string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		typeName := strings.TrimSpace(match[5])

		entry := classifyResource(uint32(binding), visibility, strings.TrimSpace(match[3]), typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		groups[group] = append(groups[group], entry)

		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = strings.TrimSpace(match[4])
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, varNames
}

// parseWorkgroupSize returns the @workgroup_size of the source. Missing dimensions are 1.
func parseWorkgroupSize(source string) [3]uint32 {
	result := [3]uint32{1, 1, 1}
	match := workgroupSizeRegex.FindStringSubmatch(stripComments(source))
	if match == nil {
		return result
	}
	for i := range result {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// parseEntryPoint returns the name of the first entry point of the stage, or "" if there is none.
func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	case ShaderTypeCompute:
		re = computeEntryRegex
	default:
		return ""
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// wgslStruct is a struct declaration of a program with its members in source order.
type wgslStruct struct {
	name    string
	members []structMember
}

// structMember is one struct member. location is -1 without @location.
type structMember struct {
	name     string
	typ      string
	location int
	builtin  bool
}

// isVertexInput reports whether s has a @location member and no @builtin member. Vertex
// outputs carry @builtin(position) and are excluded.
func (s wgslStruct) isVertexInput() bool {
	located := false
	for _, m := range s.members {
		if m.builtin {
			return false
		}
		located = located || m.location >= 0
	}
	return located
}

// parseStructBlocks returns every struct of comment-free source with its members.
func parseStructBlocks(source string) []wgslStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]wgslStruct, 0, len(matches))
	for _, match := range matches {
		structs = append(structs, wgslStruct{name: match[1], members: parseStructMembers(match[2])})
	}
	return structs
}

// parseStructMembers splits a struct body at top level commas. Parts that are not a
// "name: type" member are dropped.
func parseStructMembers(body string) []structMember {
	var members []structMember
	for _, part := range splitAtTopLevelCommas(body) {
		fm := fieldRegex.FindStringSubmatch(strings.TrimSpace(part))
		if fm == nil {
			continue
		}
		m := structMember{
			name:     fm[1],
			typ:      strings.TrimSpace(fm[2]),
			location: -1,
			builtin:  builtinRegex.MatchString(part),
		}
		if loc := locationRegex.FindStringSubmatch(part); loc != nil {
			if n, err := strconv.Atoi(loc[1]); err == nil {
				m.location = n
			}
		}
		members = append(members, m)
	}
	return members
}
