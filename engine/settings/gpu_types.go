package settings

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// GPURenderSettingsSource is the WGSL definition of the RenderSettings uniform struct.
//
//go:embed assets/render_settings.wgsl
var GPURenderSettingsSource string

// GPURenderSettingsSize is the byte size of the WGSL RenderSettings uniform: 15 vec4 fields.
const GPURenderSettingsSize = 15 * 16

// Marshal serializes the settings into the RenderSettings uniform layout.
// Every scalar occupies a vec4; the transition factor and RGBA mask are f32, everything else u32.
//
// Returns:
//   - []byte: GPURenderSettingsSize bytes ready for upload
func (s RenderSettings) Marshal() []byte {
	s = s.Clamped()
	buf := make([]byte, GPURenderSettingsSize)
	b := common.BoolToUint32

	off := common.PutUint32s(buf, 0, uint32(s.DebugMode), 0, 0, 0)
	off = common.PutUint32s(buf, off, uint32(s.TransitionMaterial), 0, 0, 0)
	off = common.PutFloat32s(buf, off, s.TransitionFactor, 0, 0, 0)
	for _, flag := range []bool{
		s.RenderDiffuse, s.RenderSpecular, s.RenderEmission, s.RenderRimLighting,
		s.RenderShadows, s.RenderBloom, s.RenderVertexColor, s.ScaleVertexColor,
	} {
		off = common.PutUint32s(buf, off, b(flag), 0, 0, 0)
	}
	rgba := s.RenderRGBA
	off = common.PutFloat32s(buf, off, boolFloat(rgba[0]), boolFloat(rgba[1]), boolFloat(rgba[2]), boolFloat(rgba[3]))
	nor := s.RenderNor
	off = common.PutUint32s(buf, off, b(nor[0]), b(nor[1]), b(nor[2]), b(nor[3]))
	prm := s.RenderPrm
	off = common.PutUint32s(buf, off, b(prm[0]), b(prm[1]), b(prm[2]), b(prm[3]))
	common.PutUint32s(buf, off, b(s.UseUVPattern), 0, 0, 0)
	return buf
}

func boolFloat(v bool) float32 {
	if v {
		return 1
	}
	return 0
}
