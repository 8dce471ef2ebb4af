package material

import (
	"strconv"
	"strings"
)

// Parameter table sizes. Indices outside these ranges are ignored.
const (
	VectorCount  = 64
	FloatCount   = 20
	BooleanCount = 20
	TextureCount = 19
)

// ParamKind identifies which table a material parameter lives in.
type ParamKind int

const (
	ParamUnknown ParamKind = iota
	ParamVector
	ParamFloat
	ParamBoolean
	ParamTexture
)

// Texture slots with a fixed meaning in the shading program.
const (
	SlotColor           = 0
	SlotColor2          = 1
	SlotIrradianceCube  = 2
	SlotBakedAO         = 3
	SlotNormal          = 4
	SlotEmissive        = 5
	SlotPRM             = 6
	SlotSpecularCube    = 7
	SlotDiffuseCube     = 8
	SlotBakeLit         = 9
	SlotDiffuse         = 10
	SlotDiffuse2        = 11
	SlotDiffuse3        = 12
	SlotProjectionLight = 13
	SlotEmissive2       = 14
	SlotInkNormal       = 16
)

// Frequently read parameters.
const (
	VectorEmissionScale = 3  // CustomVector3: emission color scale
	VectorAlbedoColor   = 13 // CustomVector13: diffuse color multiplier
	VectorRimColor      = 14 // CustomVector14: rim color (rgb) and intensity (a)
	VectorAlphaOverride = 0  // CustomVector0: alpha override in x
	VectorSpecularTint  = 30 // CustomVector30: specular tint
	FloatAlphaThreshold = 19 // CustomFloat19: alpha discard threshold when authored
	FloatRoughnessBias  = 10 // CustomFloat10: roughness offset
	BooleanInvertAlpha  = 1  // CustomBoolean1: use albedo alpha from 1 - a
)

// ParseParam maps a parameter name such as "CustomVector13" or "Texture4" to its kind and index.
//
// Parameters:
//   - name: the parameter name, case-insensitive
//
// Returns:
//   - ParamKind: the table the parameter belongs to
//   - int: the index within that table
//   - bool: false if the name is unknown or the index is out of range
func ParseParam(name string) (ParamKind, int, bool) {
	lower := strings.ToLower(name)
	for _, p := range []struct {
		prefix string
		kind   ParamKind
		count  int
	}{
		{"customvector", ParamVector, VectorCount},
		{"customfloat", ParamFloat, FloatCount},
		{"customboolean", ParamBoolean, BooleanCount},
		{"texture", ParamTexture, TextureCount},
	} {
		rest, ok := strings.CutPrefix(lower, p.prefix)
		if !ok {
			continue
		}
		i, err := strconv.Atoi(rest)
		if err != nil || i < 0 || i >= p.count {
			return ParamUnknown, 0, false
		}
		return p.kind, i, true
	}
	return ParamUnknown, 0, false
}

// specularlessEmissive lists the slots of emission-only shaders.
var specularlessEmissive = map[int]bool{SlotEmissive: true, SlotEmissive2: true}

// specularlessDiffuse lists the slots of diffuse-only shaders.
var specularlessDiffuse = map[int]bool{SlotDiffuse: true, SlotDiffuse2: true, SlotDiffuse3: true}
