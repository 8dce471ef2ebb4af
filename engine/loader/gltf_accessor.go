package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Vertex attribute semantics read by the mesh extractor.
const (
	attrPosition  = "POSITION"
	attrNormal    = "NORMAL"
	attrTangent   = "TANGENT"
	attrTexCoord0 = "TEXCOORD_0"
	attrTexCoord1 = "TEXCOORD_1"
	attrColor0    = "COLOR_0"
	attrJoints0   = "JOINTS_0"
	attrWeights0  = "WEIGHTS_0"
)

type float interface {
	~float32 | ~float64
}

// ref dereferences an optional glTF index.
func ref[T ~int | ~int32 | ~uint32](p *T) (int, bool) {
	if p == nil {
		return 0, false
	}
	return int(*p), true
}

// anyRef reads a glTF index stored either by value or behind a pointer.
func anyRef(v any) (int, bool) {
	switch i := v.(type) {
	case int:
		return i, true
	case uint32:
		return int(i), true
	case *int:
		return ref(i)
	case *uint32:
		return ref(i)
	}
	return 0, false
}

// scalar dereferences an optional glTF factor, falling back to def.
func scalar[T float](p *T, def float32) float32 {
	if p == nil {
		return def
	}
	return float32(*p)
}

func toVec3[T float](v [3]T) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// toQuat converts an (x, y, z, w) rotation. The all-zero value reads as identity.
func toQuat[T float](v [4]T) mgl32.Quat {
	if v == [4]T{} {
		return mgl32.QuatIdent()
	}
	return mgl32.Quat{W: float32(v[3]), V: mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}}
}

func toMat4[T float](m [16]T) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}

// colorFactor reads a base color factor, accepting both array encodings.
func colorFactor(v any) (mgl32.Vec4, bool) {
	switch c := v.(type) {
	case *[4]float64:
		if c != nil {
			return mgl32.Vec4{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}, true
		}
	case *[4]float32:
		if c != nil {
			return mgl32.Vec4(*c), true
		}
	}
	return mgl32.Vec4{}, false
}

// nodeLocal returns the parent-relative transform of a node. A non-zero matrix wins over TRS.
func nodeLocal(nd *gltf.Node) mgl32.Mat4 {
	if m := toMat4(nd.Matrix); m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		return m
	}
	t := toVec3(nd.Translation)
	s := toVec3(nd.Scale)
	if s == (mgl32.Vec3{}) {
		s = mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(toQuat(nd.Rotation).Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// accessor returns the accessor at index i.
func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	return doc.Accessors[i], nil
}

// readFloats reads a scalar float accessor.
func readFloats(doc *gltf.Document, i int) ([]float32, error) {
	acr, err := accessor(doc, i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: expected float scalars, got %T", i, data)
	}
	return v, nil
}

// readVec3s reads a float VEC3 accessor.
func readVec3s(doc *gltf.Document, i int) ([]mgl32.Vec3, error) {
	acr, err := accessor(doc, i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: expected float vec3, got %T", i, data)
	}
	out := make([]mgl32.Vec3, len(v))
	for j := range v {
		out[j] = mgl32.Vec3(v[j])
	}
	return out, nil
}

// readVec4s reads a VEC4 accessor, normalizing integer component types to [0, 1] or [-1, 1].
func readVec4s(doc *gltf.Document, i int) ([]mgl32.Vec4, error) {
	acr, err := accessor(doc, i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case [][4]float32:
		out := make([]mgl32.Vec4, len(v))
		for j := range v {
			out[j] = mgl32.Vec4(v[j])
		}
		return out, nil
	case [][4]int16:
		return normalizeVec4s(v, 32767), nil
	case [][4]uint16:
		return normalizeVec4s(v, 65535), nil
	case [][4]int8:
		return normalizeVec4s(v, 127), nil
	case [][4]uint8:
		return normalizeVec4s(v, 255), nil
	}
	return nil, fmt.Errorf("accessor %d: expected vec4, got %T", i, data)
}

func normalizeVec4s[T ~int8 | ~uint8 | ~int16 | ~uint16](v [][4]T, max float32) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(v))
	for j := range v {
		for k := 0; k < 4; k++ {
			out[j][k] = max32(float32(v[j][k])/max, -1)
		}
	}
	return out
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// readMat4s reads a float MAT4 accessor.
func readMat4s(doc *gltf.Document, i int) ([]mgl32.Mat4, error) {
	acr, err := accessor(doc, i)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	v, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d: expected float mat4, got %T", i, data)
	}
	out := make([]mgl32.Mat4, len(v))
	for j := range v {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[j][c*4+r] = v[j][c][r]
			}
		}
	}
	return out, nil
}
