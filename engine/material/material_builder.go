package material

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a functional option for configuring a Material via NewMaterial.
type MaterialBuilderOption func(*material)

// WithShaderLabel is an option builder that sets the shader program label.
//
// Parameters:
//   - label: the shader label
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader label to a material
func WithShaderLabel(label string) MaterialBuilderOption {
	return func(m *material) {
		m.shaderLabel = label
	}
}

// WithVector is an option builder that authors a CustomVector parameter.
// Indices outside [0, VectorCount) are ignored.
//
// Parameters:
//   - i: the parameter index
//   - v: the value
//
// Returns:
//   - MaterialBuilderOption: a function that authors the parameter on a material
func WithVector(i int, v mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		if i >= 0 && i < VectorCount {
			m.vectors[i] = v
		}
	}
}

// WithFloat is an option builder that authors a CustomFloat parameter.
// Indices outside [0, FloatCount) are ignored.
//
// Parameters:
//   - i: the parameter index
//   - v: the value
//
// Returns:
//   - MaterialBuilderOption: a function that authors the parameter on a material
func WithFloat(i int, v float32) MaterialBuilderOption {
	return func(m *material) {
		if i >= 0 && i < FloatCount {
			m.floats[i] = v
		}
	}
}

// WithBoolean is an option builder that authors a CustomBoolean parameter.
// Indices outside [0, BooleanCount) are ignored.
func WithBoolean(i int, v bool) MaterialBuilderOption {
	return func(m *material) {
		if i >= 0 && i < BooleanCount {
			m.booleans[i] = v
		}
	}
}

// WithTexture is an option builder that binds a named texture to a slot.
// Slots outside [0, TextureCount) are ignored.
//
// Parameters:
//   - slot: the texture slot
//   - name: the texture name in the model's texture table
//
// Returns:
//   - MaterialBuilderOption: a function that binds the texture on a material
func WithTexture(slot int, name string) MaterialBuilderOption {
	return func(m *material) {
		if slot >= 0 && slot < TextureCount {
			m.textures[slot] = TextureRef{Name: name}
		}
	}
}

// WithBlend sets the blend mode.
func WithBlend(mode BlendMode) MaterialBuilderOption {
	return func(m *material) {
		m.blend = mode
	}
}

// WithCull sets the face culling mode.
func WithCull(mode CullMode) MaterialBuilderOption {
	return func(m *material) {
		m.cull = mode
	}
}
