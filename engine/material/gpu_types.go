package material

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// GPUMaterialUniformsSource is the WGSL definition of the MaterialUniforms struct.
//
//go:embed assets/material_uniforms.wgsl
var GPUMaterialUniformsSource string

// GPUMaterialUniformsSize is the byte size of the WGSL MaterialUniforms struct:
//
//	struct MaterialUniforms {
//	    custom_vector: array<vec4<f32>, 64>,
//	    custom_boolean: array<vec4<u32>, 20>,
//	    custom_float: array<vec4<f32>, 20>,
//	    has_boolean: array<vec4<u32>, 20>,
//	    has_float: array<vec4<u32>, 20>,
//	    has_texture: array<vec4<u32>, 19>,
//	    has_vector: array<vec4<u32>, 64>,
//	    has_color_set1234: vec4<u32>,
//	    has_color_set567: vec4<u32>,
//	    is_discard: vec4<u32>,
//	    enable_specular: vec4<u32>,
//	}
//
// Scalars occupy the x component of a vec4 to satisfy the 16-byte uniform array stride.
const GPUMaterialUniformsSize = 16 * (VectorCount + BooleanCount + FloatCount + BooleanCount + FloatCount + TextureCount + VectorCount + 4)

// Size returns the size of the uniform buffer in bytes.
//
// Returns:
//   - int: GPUMaterialUniformsSize
func (u *Uniforms) Size() int {
	return GPUMaterialUniformsSize
}

// Marshal serializes the uniforms into the MaterialUniforms layout.
//
// Returns:
//   - []byte: GPUMaterialUniformsSize bytes ready for upload
func (u *Uniforms) Marshal() []byte {
	buf := make([]byte, GPUMaterialUniformsSize)
	off := 0
	for _, v := range u.CustomVector {
		off = common.PutFloat32s(buf, off, v[:]...)
	}
	for _, b := range u.CustomBoolean {
		off = putFlag(buf, off, b)
	}
	for _, f := range u.CustomFloat {
		off = common.PutFloat32s(buf, off, f, 0, 0, 0)
	}
	for _, b := range u.HasBoolean {
		off = putFlag(buf, off, b)
	}
	for _, b := range u.HasFloat {
		off = putFlag(buf, off, b)
	}
	for _, b := range u.HasTexture {
		off = putFlag(buf, off, b)
	}
	for _, b := range u.HasVector {
		off = putFlag(buf, off, b)
	}
	c := u.HasColorSet1234
	off = common.PutUint32s(buf, off, common.BoolToUint32(c[0]), common.BoolToUint32(c[1]), common.BoolToUint32(c[2]), common.BoolToUint32(c[3]))
	d := u.HasColorSet567
	off = common.PutUint32s(buf, off, common.BoolToUint32(d[0]), common.BoolToUint32(d[1]), common.BoolToUint32(d[2]), 0)
	off = putFlag(buf, off, u.IsDiscard)
	putFlag(buf, off, u.EnableSpecular)
	return buf
}

// putFlag writes a bool into the x component of a vec4<u32>.
func putFlag(buf []byte, off int, b bool) int {
	common.PutUint32s(buf, off, common.BoolToUint32(b))
	return off + 16
}
