package material

import (
	"slices"
)

// ProgramLabelLength is the number of leading shader label characters that identify a program.
// Labels carry a render pass suffix after this prefix ("_opaque", "_sort", ...).
const ProgramLabelLength = 24

// ShaderProgram describes the fixed properties of a shading program shared by many materials.
type ShaderProgram struct {
	// Name is the program identifier, ProgramLabelLength characters long.
	Name string

	// Discard reports whether the program drops fragments below the alpha threshold.
	Discard bool

	// Attributes lists the vertex attributes the program reads ("Position0", "colorSet1", ...).
	Attributes []string

	// Passes lists the render pass suffixes the program supports.
	Passes []string
}

// HasAttribute reports whether the program reads the named vertex attribute.
func (p ShaderProgram) HasAttribute(name string) bool {
	return slices.Contains(p.Attributes, name)
}

// ProgramDatabase maps program names to their description.
type ProgramDatabase map[string]ShaderProgram

// NewProgramDatabase indexes the given programs by name.
//
// Parameters:
//   - programs: the programs to index
//
// Returns:
//   - ProgramDatabase: the database
func NewProgramDatabase(programs ...ShaderProgram) ProgramDatabase {
	db := make(ProgramDatabase, len(programs))
	for _, p := range programs {
		db[p.Name] = p
	}
	return db
}

// Lookup finds the program of a shader label using its first ProgramLabelLength characters.
// Labels shorter than the prefix never match.
//
// Parameters:
//   - shaderLabel: the material's shader label
//
// Returns:
//   - ShaderProgram: the program
//   - bool: true if found
func (db ProgramDatabase) Lookup(shaderLabel string) (ShaderProgram, bool) {
	if len(shaderLabel) < ProgramLabelLength {
		return ShaderProgram{}, false
	}
	p, ok := db[shaderLabel[:ProgramLabelLength]]
	return p, ok
}

// Built-in program names used for imported models that carry no program table.
const (
	ProgramStandard = "pbs_standard_00000000001"
	ProgramMasked   = "pbs_masked_0000000000002"
	ProgramBlended  = "pbs_blended_000000000003"
	ProgramEmissive = "pbs_emissive_00000000004"
)

var standardAttributes = []string{"Position0", "Normal0", "Tangent0", "map1", "uvSet", "colorSet1"}

// DefaultProgramDatabase returns the programs assigned by the asset loader.
func DefaultProgramDatabase() ProgramDatabase {
	return NewProgramDatabase(
		ShaderProgram{Name: ProgramStandard, Attributes: standardAttributes, Passes: []string{"_opaque", "_far", "_near"}},
		ShaderProgram{Name: ProgramMasked, Discard: true, Attributes: standardAttributes, Passes: []string{"_opaque"}},
		ShaderProgram{Name: ProgramBlended, Attributes: standardAttributes, Passes: []string{"_sort"}},
		ShaderProgram{Name: ProgramEmissive, Attributes: []string{"Position0", "Normal0", "map1"}, Passes: []string{"_opaque", "_sort"}},
	)
}
