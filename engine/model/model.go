package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// model is the implementation of the Model interface.
type model struct {
	name        string
	skeleton    skeleton.Skeleton
	meshObjects []*MeshObject
	materials   map[string]material.Material
	programs    material.ProgramDatabase
	textures    map[string]*common.ImportedTexture
	bounds      dvec3.Box
}

// Model is a loaded, immutable model: skeleton, mesh objects, materials and textures.
// It is produced once by the asset loader and shared read-only by every frame.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skeleton retrieves the bone hierarchy, or nil for models without bones.
	//
	// Returns:
	//   - skeleton.Skeleton: the skeleton or nil
	Skeleton() skeleton.Skeleton

	// BoneCount returns the number of bones, zero without a skeleton.
	//
	// Returns:
	//   - int: the bone count
	BoneCount() int

	// MeshObjects retrieves the mesh objects in draw order.
	//
	// Returns:
	//   - []*MeshObject: the mesh objects
	MeshObjects() []*MeshObject

	// Material looks up a material by label.
	//
	// Parameters:
	//   - label: the material label
	//
	// Returns:
	//   - material.Material: the material, or nil if the label is unknown
	Material(label string) material.Material

	// Programs retrieves the shader program database used to resolve shader labels.
	//
	// Returns:
	//   - material.ProgramDatabase: the program database
	Programs() material.ProgramDatabase

	// Texture looks up an imported texture by name.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - *common.ImportedTexture: the texture, or nil
	Texture(name string) *common.ImportedTexture

	// TextureNames returns every texture name.
	//
	// Returns:
	//   - []string: the names in unspecified order
	TextureNames() []string

	// HasTexture reports whether a texture with the given name is bound.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - bool: true if the texture exists
	HasTexture(name string) bool

	// Uniforms flattens the material of a mesh object for the shading program.
	//
	// Parameters:
	//   - obj: the mesh object
	//
	// Returns:
	//   - material.Uniforms: the flattened material; a missing material yields the no-material defaults
	Uniforms(obj *MeshObject) material.Uniforms

	// Bounds returns the rest-pose bounding box of every mesh object.
	//
	// Returns:
	//   - dvec3.Box: the bounding box
	Bounds() dvec3.Box
}

var _ Model = &model{}
var _ material.TextureLookup = &model{}

// NewModel creates a new Model with the given options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions
//
// Returns:
//   - Model: the configured model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		materials: make(map[string]material.Material),
		programs:  material.DefaultProgramDatabase(),
		textures:  make(map[string]*common.ImportedTexture),
	}
	for _, option := range options {
		option(m)
	}

	boxes := make([]dvec3.Box, len(m.meshObjects))
	for i, obj := range m.meshObjects {
		boxes[i] = obj.Bounds
	}
	m.bounds = JoinBounds(boxes...)
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skeleton() skeleton.Skeleton {
	return m.skeleton
}

func (m *model) BoneCount() int {
	if m.skeleton == nil {
		return 0
	}
	return m.skeleton.Len()
}

func (m *model) MeshObjects() []*MeshObject {
	return m.meshObjects
}

func (m *model) Material(label string) material.Material {
	return m.materials[label]
}

func (m *model) Programs() material.ProgramDatabase {
	return m.programs
}

func (m *model) Texture(name string) *common.ImportedTexture {
	return m.textures[name]
}

func (m *model) TextureNames() []string {
	names := make([]string, 0, len(m.textures))
	for name := range m.textures {
		names = append(names, name)
	}
	return names
}

func (m *model) HasTexture(name string) bool {
	_, ok := m.textures[name]
	return ok
}

func (m *model) Uniforms(obj *MeshObject) material.Uniforms {
	mat := m.Material(obj.MaterialLabel)
	if mat == nil {
		return material.NewUniforms(nil, m.programs, m)
	}
	return material.NewUniforms(mat, m.programs, m)
}

func (m *model) Bounds() dvec3.Box {
	return m.bounds
}
