package light

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// GPULightUniformsSource is the WGSL definition of the LightUniforms struct.
//
//go:embed assets/light_uniforms.wgsl
var GPULightUniformsSource string

// GPULightUniformsSize is the byte size of the WGSL LightUniforms struct:
//
//	struct LightUniforms {
//	    light_transform: mat4x4<f32>,
//	    light_dir: vec4<f32>,
//	    light_color: vec4<f32>,
//	    ambient: vec4<f32>,
//	}
const GPULightUniformsSize = 64 + 3*16

// GPULightUniforms is the per light set uniform shared by the shadow and model passes.
type GPULightUniforms struct {
	LightTransform mgl32.Mat4
	LightDir       mgl32.Vec4
	LightColor     mgl32.Vec4
	Ambient        mgl32.Vec4
}

// NewGPULightUniforms packs a light set for upload.
func NewGPULightUniforms(s LightSet) GPULightUniforms {
	env := s.Environment()
	return GPULightUniforms{
		LightTransform: s.Transform(),
		LightDir:       env.LightDir.Vec4(0),
		LightColor:     env.LightColor.Vec4(1),
		Ambient:        env.Ambient.Vec4(1),
	}
}

// Size returns the size of the GPULightUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPULightUniforms) Size() int {
	return GPULightUniformsSize
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (g *GPULightUniforms) Marshal() []byte {
	buf := make([]byte, GPULightUniformsSize)
	off := common.PutMat4(buf, 0, g.LightTransform)
	off = common.PutFloat32s(buf, off, g.LightDir[:]...)
	off = common.PutFloat32s(buf, off, g.LightColor[:]...)
	common.PutFloat32s(buf, off, g.Ambient[:]...)
	return buf
}
