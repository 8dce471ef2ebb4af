package model

import (
	"strings"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/google/uuid"
)

// RenderPass orders mesh objects within the forward shading pass.
type RenderPass int

const (
	PassOpaque RenderPass = iota
	PassFar
	PassSort
	PassNear
)

// String returns the shader label suffix of the pass.
func (p RenderPass) String() string {
	switch p {
	case PassFar:
		return "_far"
	case PassSort:
		return "_sort"
	case PassNear:
		return "_near"
	default:
		return "_opaque"
	}
}

// PassFromShaderLabel derives the render pass from a shader label suffix.
// Labels without a known suffix draw in the opaque pass.
func PassFromShaderLabel(label string) RenderPass {
	switch {
	case strings.HasSuffix(label, "_far"):
		return PassFar
	case strings.HasSuffix(label, "_sort"):
		return PassSort
	case strings.HasSuffix(label, "_near"):
		return PassNear
	default:
		return PassOpaque
	}
}

// MeshObject is a group of vertices drawn with one material.
// Vertex, index and adjacency data are immutable after load.
type MeshObject struct {
	ID       uuid.UUID
	Name     string
	SubIndex int

	Vertices  []Vertex
	Indices   []uint32
	Adjacency Adjacency

	Attachment    Attachment
	MaterialLabel string
	Pass          RenderPass

	Visible     bool
	CastsShadow bool
	// SmoothNormals enables the normal-smoothing kernel for this object after skinning.
	SmoothNormals bool
	// LightSet selects the stage light set used for shadows and shading. Negative selects the character light.
	LightSet int

	Bounds dvec3.Box
}

// MeshObjectOption is a functional option for configuring a MeshObject via NewMeshObject.
type MeshObjectOption func(*MeshObject)

// NewMeshObject creates a visible, shadow-casting, static mesh object and builds its
// adjacency table and bounds from the given geometry.
//
// Parameters:
//   - name: the mesh object name
//   - vertices: the rest-pose vertices
//   - indices: the triangle list
//   - options: a variadic list of MeshObjectOption functions
//
// Returns:
//   - *MeshObject: the mesh object
func NewMeshObject(name string, vertices []Vertex, indices []uint32, options ...MeshObjectOption) *MeshObject {
	m := &MeshObject{
		ID:          uuid.New(),
		Name:        name,
		Vertices:    vertices,
		Indices:     indices,
		Adjacency:   BuildAdjacency(indices, len(vertices)),
		Attachment:  Static{},
		Visible:     true,
		CastsShadow: true,
		LightSet:    -1,
		Bounds:      ComputeBounds(vertices),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// WithAttachment sets how the object follows the skeleton.
func WithAttachment(a Attachment) MeshObjectOption {
	return func(m *MeshObject) {
		if a != nil {
			m.Attachment = a
		}
	}
}

// WithMaterialLabel sets the material label and derives the render pass from the shader label.
//
// Parameters:
//   - label: the material label
//   - shaderLabel: the material's shader label, used for the pass suffix
//
// Returns:
//   - MeshObjectOption: a function that applies the material to a mesh object
func WithMaterialLabel(label, shaderLabel string) MeshObjectOption {
	return func(m *MeshObject) {
		m.MaterialLabel = label
		m.Pass = PassFromShaderLabel(shaderLabel)
	}
}

// WithPass overrides the render pass.
func WithPass(p RenderPass) MeshObjectOption {
	return func(m *MeshObject) {
		m.Pass = p
	}
}

// WithSubIndex sets the sub index distinguishing objects that share a name.
func WithSubIndex(i int) MeshObjectOption {
	return func(m *MeshObject) {
		m.SubIndex = i
	}
}

// WithShadowCasting sets whether the object renders into the shadow map.
func WithShadowCasting(cast bool) MeshObjectOption {
	return func(m *MeshObject) {
		m.CastsShadow = cast
	}
}

// WithNormalSmoothing enables the normal-smoothing kernel for the object.
func WithNormalSmoothing(enabled bool) MeshObjectOption {
	return func(m *MeshObject) {
		m.SmoothNormals = enabled
	}
}

// WithLightSet selects the stage light set index. Negative values select the character light.
func WithLightSet(i int) MeshObjectOption {
	return func(m *MeshObject) {
		m.LightSet = i
	}
}

// ParentBone returns the bone a Parented object follows, or -1.
func (m *MeshObject) ParentBone() int {
	if p, ok := m.Attachment.(Parented); ok {
		return p.Bone
	}
	return -1
}

// IsSkinned reports whether the object is deformed by vertex influences.
func (m *MeshObject) IsSkinned() bool {
	_, ok := m.Attachment.(Skinned)
	return ok
}
