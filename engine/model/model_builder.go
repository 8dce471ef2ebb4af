package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithSkeleton is an option builder that sets the bone hierarchy of the Model.
//
// Parameters:
//   - s: the skeleton
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(s skeleton.Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = s
	}
}

// WithMeshObjects is an option builder that appends mesh objects in draw order.
//
// Parameters:
//   - objects: the mesh objects
//
// Returns:
//   - ModelBuilderOption: a function that appends the mesh objects to a model
func WithMeshObjects(objects ...*MeshObject) ModelBuilderOption {
	return func(m *model) {
		m.meshObjects = append(m.meshObjects, objects...)
	}
}

// WithMaterials is an option builder that registers materials by label.
//
// Parameters:
//   - materials: the materials
//
// Returns:
//   - ModelBuilderOption: a function that registers the materials on a model
func WithMaterials(materials ...material.Material) ModelBuilderOption {
	return func(m *model) {
		for _, mat := range materials {
			m.materials[mat.Label()] = mat
		}
	}
}

// WithPrograms replaces the default shader program database.
func WithPrograms(db material.ProgramDatabase) ModelBuilderOption {
	return func(m *model) {
		if db != nil {
			m.programs = db
		}
	}
}

// WithTexture registers an imported texture under name.
func WithTexture(name string, tex *common.ImportedTexture) ModelBuilderOption {
	return func(m *model) {
		m.textures[name] = tex
	}
}
