package postfx

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUBloomUniformsSource is the WGSL definition of the BloomUniforms struct read by the
// threshold pass.
//
//go:embed assets/bloom_uniforms.wgsl
var GPUBloomUniformsSource string

// GPUPostUniformsSource is the WGSL definition of the PostUniforms struct.
//
//go:embed assets/post_uniforms.wgsl
var GPUPostUniformsSource string

// GPUOutlineUniformsSource is the WGSL definition of the OutlineUniforms struct.
//
//go:embed assets/outline_uniforms.wgsl
var GPUOutlineUniformsSource string

// Uniform sizes in bytes.
const (
	GPUBloomUniformsSize   = 32
	GPUPostUniformsSize    = 16
	GPUOutlineUniformsSize = 32
)

// MarshalBloom packs the threshold parameters. enabled is false when bloom is switched off
// for the frame, which makes the threshold pass output black.
//
// Parameters:
//   - p: the threshold and knee
//   - enabled: the frame's bloom toggle
//   - width: the width of the threshold target
//   - height: the height of the threshold target
//
// Returns:
//   - []byte: GPUBloomUniformsSize bytes ready for upload
func MarshalBloom(p BloomParams, enabled bool, width, height int) []byte {
	buf := make([]byte, GPUBloomUniformsSize)
	off := common.PutFloat32s(buf, 0, p.Threshold, p.Knee)
	off = common.PutUint32s(buf, off, common.BoolToUint32(p.Enabled && enabled), 0)
	common.PutUint32s(buf, off, uint32(max(width, 1)), uint32(max(height, 1)))
	return buf
}

// MarshalPost packs the post-process parameters.
//
// Parameters:
//   - p: the exposure and bloom intensity
//   - hasLUT: whether a grading table is bound
//
// Returns:
//   - []byte: GPUPostUniformsSize bytes ready for upload
func MarshalPost(p PostParams, hasLUT bool) []byte {
	buf := make([]byte, GPUPostUniformsSize)
	off := common.PutFloat32s(buf, 0, p.Exposure, p.BloomIntensity)
	common.PutUint32s(buf, off, common.BoolToUint32(hasLUT))
	return buf
}

// MarshalOutline packs the outline color, dilation radius and pattern.
func MarshalOutline(color mgl32.Vec4, radius int, pattern Pattern) []byte {
	buf := make([]byte, GPUOutlineUniformsSize)
	off := common.PutFloat32s(buf, 0, color[:]...)
	common.PutUint32s(buf, off, uint32(int32(max(radius, 0))), uint32(pattern))
	return buf
}
