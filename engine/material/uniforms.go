package material

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// TextureLookup reports whether a named texture is actually bound.
type TextureLookup interface {
	HasTexture(name string) bool
}

// Uniforms is the flattened, presence-flagged view of a material that the shading program branches on.
// It is passed by value into the shading function and uploaded verbatim as the material uniform buffer.
type Uniforms struct {
	CustomVector  [VectorCount]mgl32.Vec4
	CustomFloat   [FloatCount]float32
	CustomBoolean [BooleanCount]bool

	HasVector  [VectorCount]bool
	HasFloat   [FloatCount]bool
	HasBoolean [BooleanCount]bool
	HasTexture [TextureCount]bool

	// HasColorSet1234 and HasColorSet567 flag which vertex color sets the program reads.
	HasColorSet1234 [4]bool
	HasColorSet567  [3]bool

	IsDiscard      bool
	EnableSpecular bool
}

// NewUniforms flattens a material for the shading program.
//
// A nil material produces all-zero uniforms with specular enabled. Texture slots whose
// texture is not bound according to lookup are left unflagged so the shader falls back
// to the neutral default instead of sampling a missing binding. A nil lookup treats every
// reference as bound.
//
// Specular is disabled for materials whose only textures are emissive or diffuse-only slots
// (including materials with no textures at all).
//
// Parameters:
//   - m: the material, or nil
//   - programs: the program database used to resolve the shader label
//   - lookup: the bound texture table, or nil
//
// Returns:
//   - Uniforms: the flattened material
func NewUniforms(m Material, programs ProgramDatabase, lookup TextureLookup) Uniforms {
	var u Uniforms
	if m == nil {
		u.EnableSpecular = true
		return u
	}

	for i := 0; i < VectorCount; i++ {
		if v, ok := m.Vector(i); ok {
			u.CustomVector[i] = v
			u.HasVector[i] = true
		}
	}
	for i := 0; i < FloatCount; i++ {
		if v, ok := m.Float(i); ok {
			u.CustomFloat[i] = v
			u.HasFloat[i] = true
		}
	}
	for i := 0; i < BooleanCount; i++ {
		if v, ok := m.Boolean(i); ok {
			u.CustomBoolean[i] = v
			u.HasBoolean[i] = true
		}
	}
	for _, slot := range m.TextureSlots() {
		ref, _ := m.Texture(slot)
		if lookup != nil && !lookup.HasTexture(ref.Name) {
			common.Logger().Debug("material texture is not bound, using default",
				"material", m.Label(), "slot", slot, "texture", ref.Name)
			continue
		}
		u.HasTexture[slot] = true
	}

	if program, ok := programs.Lookup(m.ShaderLabel()); ok {
		u.HasColorSet1234 = [4]bool{
			program.HasAttribute("colorSet1"),
			program.HasAttribute("colorSet2"),
			program.HasAttribute("colorSet3"),
			program.HasAttribute("colorSet4"),
		}
		u.HasColorSet567 = [3]bool{
			program.HasAttribute("colorSet5"),
			program.HasAttribute("colorSet6"),
			program.HasAttribute("colorSet7"),
		}
		u.IsDiscard = program.Discard
	}

	justEmissive, justDiffuse := true, true
	for slot, present := range u.HasTexture {
		if !present {
			continue
		}
		if !specularlessEmissive[slot] {
			justEmissive = false
		}
		if !specularlessDiffuse[slot] {
			justDiffuse = false
		}
	}
	u.EnableSpecular = !justEmissive && !justDiffuse

	return u
}

// PresentCount returns the number of authored parameters and bound textures,
// used by the shader complexity debug view.
func (u *Uniforms) PresentCount() int {
	n := 0
	for _, f := range u.HasVector {
		n += int(common.BoolToUint32(f))
	}
	for _, f := range u.HasFloat {
		n += int(common.BoolToUint32(f))
	}
	for _, f := range u.HasBoolean {
		n += int(common.BoolToUint32(f))
	}
	for _, f := range u.HasTexture {
		n += int(common.BoolToUint32(f))
	}
	return n
}

// MaxPresentCount is the largest value PresentCount can return.
const MaxPresentCount = VectorCount + FloatCount + BooleanCount + TextureCount
