package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Validate compiles processed WGSL to SPIR-V. It checks programs offline, without a device.
//
// Parameters:
//   - source: processed WGSL, e.g. Shader.Source
//
// Returns:
//   - []byte: the little-endian SPIR-V module
//   - error: if the source does not compile or the output is not SPIR-V
func Validate(source string) ([]byte, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile to SPIR-V: %w", err)
	}
	if len(spirv) < 4 || binary.LittleEndian.Uint32(spirv) != spirvMagic {
		return nil, fmt.Errorf("shader: compiler output is not a SPIR-V module")
	}
	return spirv, nil
}

// ValidateProgram processes a program and validates the result.
//
// Parameters:
//   - program: the program name, e.g. ProgramSkinning
//
// Returns:
//   - []byte: the SPIR-V module
//   - error: if the program is unknown, its annotations are malformed or it does not compile
func ValidateProgram(program string) ([]byte, error) {
	raw, err := ProgramSource(program)
	if err != nil {
		return nil, err
	}
	source, err := NewPreProcessor().Process(raw)
	if err != nil {
		return nil, fmt.Errorf("shader: program %q: %w", program, err)
	}
	spirv, err := Validate(source)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", program, err)
	}
	return spirv, nil
}
