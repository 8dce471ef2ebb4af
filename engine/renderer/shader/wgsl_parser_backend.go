package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslPrimitiveLayoutMap holds the size and alignment of the host-shareable primitive types the
// programs bind. Both the templated and the short vector spellings are accepted.
var wgslPrimitiveLayoutMap = map[string]hostLayout{
	"f32": {4, 4},
	"i32": {4, 4},
	"u32": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
}

// roundUpAlign rounds value up to a multiple of alignment, a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// arrayElement splits "array<T>" or "array<T, N>" into the element type and count string.
// The count is "" for a runtime-sized array.
func arrayElement(typeName string) (elem string, count string, ok bool) {
	inner, found := strings.CutPrefix(typeName, "array<")
	if !found || !strings.HasSuffix(inner, ">") {
		return "", "", false
	}
	inner = strings.TrimSuffix(inner, ">")
	elem, count, _ = strings.Cut(inner, ",")
	return strings.TrimSpace(elem), strings.TrimSpace(count), true
}

// resolveTypeLayout resolves a type to its size and alignment. Runtime-sized arrays resolve to
// the stride of one element, which is the smallest binding that can hold them.
//
// Parameters:
//   - typeName: a primitive, a struct in knownTypes, or an array of either
//   - knownTypes: struct layouts resolved so far
//
// Returns:
//   - hostLayout: the layout
//   - bool: false if the type is unknown
func resolveTypeLayout(typeName string, knownTypes map[string]hostLayout) (hostLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	elem, count, ok := arrayElement(typeName)
	if !ok {
		return hostLayout{}, false
	}
	elemLayout, ok := resolveTypeLayout(elem, knownTypes)
	if !ok {
		return hostLayout{}, false
	}
	stride := roundUpAlign(elemLayout.align, elemLayout.size)
	if count == "" {
		return hostLayout{stride, elemLayout.align}, true
	}
	n, err := strconv.ParseUint(count, 10, 64)
	if err != nil {
		return hostLayout{}, false
	}
	return hostLayout{n * stride, elemLayout.align}, true
}

// computeStructLayout lays out the members of ps at their aligned offsets and rounds the size up
// to the largest member alignment. Builtin members take no space.
func computeStructLayout(ps wgslStruct, knownTypes map[string]hostLayout) (hostLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, field := range ps.members {
		if field.builtin {
			continue
		}
		layout, ok := resolveTypeLayout(field.typ, knownTypes)
		if !ok {
			return hostLayout{}, false
		}
		offset = roundUpAlign(layout.align, offset) + layout.size
		maxAlign = max(maxAlign, layout.align)
	}
	return hostLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes resolves the layout of every struct. Structs that nest other structs are
// retried until a pass makes no progress; those left unresolved are omitted.
func computeStructSizes(structs []wgslStruct) map[string]hostLayout {
	resolved := make(map[string]hostLayout, len(structs))
	pending := append([]wgslStruct(nil), structs...)
	for len(pending) > 0 {
		next := pending[:0]
		for _, ps := range pending {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return resolved
}

// classifyResource builds the layout entry of one resource declaration. Buffers are classified
// by address space, handle types by their type name.
//
// Parameters:
//   - binding: the @binding index
//   - visibility: the stages that see the resource
//   - addressSpace: the var<> qualifier, empty for samplers and textures
//   - typeName: the declared type
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the entry
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_"):
		base, param := splitTypeParams(typeName)
		if info, ok := wgslSampledTextureMap[base]; ok {
			entry.Texture.ViewDimension = info.dimension
			entry.Texture.Multisampled = info.multisampled
		}
		if strings.HasPrefix(base, "texture_depth_") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		} else if st, ok := wgslSampleTypeMap[param]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// splitTypeParams splits "texture_2d<f32>" into "texture_2d" and "f32". Types without
// parameters return an empty parameter string.
func splitTypeParams(typeName string) (base string, params string) {
	base, params, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return base, strings.TrimSpace(strings.TrimSuffix(params, ">"))
}

// stripComments removes block comments, which may nest, and then line comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch source[i : i+2] {
			case "/*":
				depth++
				i++
				continue
			case "*/":
				if depth > 0 {
					depth--
				}
				i++
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// buildVertexBufferLayout packs the members of a vertex input struct back to back.
//
// Returns:
//   - wgpu.VertexBufferLayout: per-vertex layout with the packed stride
//   - bool: false if a member has no vertex format
func buildVertexBufferLayout(ps wgslStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(ps.members))
	var offset uint64
	for _, f := range ps.members {
		info, ok := wgslVertexFormatMap[f.typ]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         info.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += info.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// splitAtTopLevelCommas splits a struct body at commas outside angle brackets, so
// "array<f32, 4>" stays one member.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
