package material

import (
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// BlendMode selects how the forward pass writes a material's color.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendAdditive
)

func (m BlendMode) String() string {
	switch m {
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	default:
		return "opaque"
	}
}

// CullMode selects which triangle faces are dropped.
type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

func (m CullMode) String() string {
	switch m {
	case CullFront:
		return "cull_front"
	case CullNone:
		return "cull_none"
	default:
		return "cull_back"
	}
}

// TextureRef names a texture bound to a material slot. Name is resolved against the model's texture table.
type TextureRef struct {
	Name string
}

// material is the implementation of the Material interface.
type material struct {
	label       string
	shaderLabel string
	vectors     map[int]mgl32.Vec4
	floats      map[int]float32
	booleans    map[int]bool
	textures    map[int]TextureRef
	blend       BlendMode
	cull        CullMode
}

// Material is a flat table of authored parameters driving the forward shading pass.
// Only authored entries are present in the maps; absence is what the presence flags encode.
// A Material is read-only after construction and may be shared by many mesh objects.
type Material interface {
	// Label retrieves the material label mesh objects refer to.
	//
	// Returns:
	//   - string: the material label
	Label() string

	// ShaderLabel retrieves the shader program label. The first 24 characters select the program.
	//
	// Returns:
	//   - string: the shader label
	ShaderLabel() string

	// Vector retrieves an authored CustomVector parameter.
	//
	// Parameters:
	//   - i: the parameter index
	//
	// Returns:
	//   - mgl32.Vec4: the value, zero if not authored
	//   - bool: true if authored
	Vector(i int) (mgl32.Vec4, bool)

	// Float retrieves an authored CustomFloat parameter.
	//
	// Parameters:
	//   - i: the parameter index
	//
	// Returns:
	//   - float32: the value, zero if not authored
	//   - bool: true if authored
	Float(i int) (float32, bool)

	// Boolean retrieves an authored CustomBoolean parameter.
	//
	// Parameters:
	//   - i: the parameter index
	//
	// Returns:
	//   - bool: the value, false if not authored
	//   - bool: true if authored
	Boolean(i int) (bool, bool)

	// Texture retrieves the texture bound to a slot.
	//
	// Parameters:
	//   - slot: the texture slot
	//
	// Returns:
	//   - TextureRef: the texture reference
	//   - bool: true if the slot was authored
	Texture(slot int) (TextureRef, bool)

	// TextureSlots returns the authored texture slots in ascending order.
	//
	// Returns:
	//   - []int: the slot indices
	TextureSlots() []int

	// Blend retrieves the blend mode.
	//
	// Returns:
	//   - BlendMode: the blend mode
	Blend() BlendMode

	// Cull retrieves the face culling mode.
	//
	// Returns:
	//   - CullMode: the cull mode
	Cull() CullMode
}

var _ Material = &material{}

// NewMaterial creates a new Material with the given options applied.
//
// Parameters:
//   - label: the material label
//   - options: a variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the configured material
func NewMaterial(label string, options ...MaterialBuilderOption) Material {
	m := &material{
		label:    label,
		vectors:  make(map[int]mgl32.Vec4),
		floats:   make(map[int]float32),
		booleans: make(map[int]bool),
		textures: make(map[int]TextureRef),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *material) Label() string {
	return m.label
}

func (m *material) ShaderLabel() string {
	return m.shaderLabel
}

func (m *material) Vector(i int) (mgl32.Vec4, bool) {
	v, ok := m.vectors[i]
	return v, ok
}

func (m *material) Float(i int) (float32, bool) {
	v, ok := m.floats[i]
	return v, ok
}

func (m *material) Boolean(i int) (bool, bool) {
	v, ok := m.booleans[i]
	return v, ok
}

func (m *material) Texture(slot int) (TextureRef, bool) {
	t, ok := m.textures[slot]
	return t, ok
}

func (m *material) TextureSlots() []int {
	return slices.Sorted(maps.Keys(m.textures))
}

func (m *material) Blend() BlendMode {
	return m.blend
}

func (m *material) Cull() CullMode {
	return m.cull
}
