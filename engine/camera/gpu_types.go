package camera

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the WGSL definition of the CameraUniform struct.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniformSize is the byte size of the WGSL CameraUniform struct:
//
//	struct CameraUniform {
//	    view_proj: mat4x4<f32>,
//	    position: vec4<f32>,
//	}
const GPUCameraUniformSize = 80

// GPUCameraUniform is the GPU representation of the camera uniform buffer.
type GPUCameraUniform struct {
	ViewProj mgl32.Mat4
	Position mgl32.Vec3
}

// NewGPUCameraUniform captures the current matrices of c.
func NewGPUCameraUniform(c Camera) GPUCameraUniform {
	return GPUCameraUniform{ViewProj: c.ViewProjectionMatrix(), Position: c.Position()}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: GPUCameraUniformSize
func (g *GPUCameraUniform) Size() int {
	return GPUCameraUniformSize
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, GPUCameraUniformSize)
	off := common.PutMat4(buf, 0, g.ViewProj)
	common.PutFloat32s(buf, off, g.Position[0], g.Position[1], g.Position[2], 1)
	return buf
}
