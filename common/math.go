package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// PutFloat32s writes values as little-endian float32 into buf starting at offset.
//
// Parameters:
//   - buf: destination byte slice
//   - offset: byte offset of the first value
//   - values: values to write
//
// Returns:
//   - int: the byte offset immediately after the last written value
func PutFloat32s(buf []byte, offset int, values ...float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
		offset += 4
	}
	return offset
}

// PutMat4 writes a column-major matrix into buf starting at offset.
//
// Parameters:
//   - buf: destination byte slice (at least offset+64 bytes)
//   - offset: byte offset of the first element
//   - m: the matrix to write
//
// Returns:
//   - int: the byte offset immediately after the matrix
func PutMat4(buf []byte, offset int, m mgl32.Mat4) int {
	return PutFloat32s(buf, offset, m[:]...)
}

// PutUint32s writes values as little-endian uint32 into buf starting at offset.
func PutUint32s(buf []byte, offset int, values ...uint32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[offset:], v)
		offset += 4
	}
	return offset
}

// InverseTranspose returns the transpose of the inverse of m, used to carry
// normals and tangents through a transform with non-uniform scale.
// A singular matrix yields the zero matrix.
func InverseTranspose(m mgl32.Mat4) mgl32.Mat4 {
	return m.Inv().Transpose()
}

// TransformPoint applies m to p with w = 1.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies m to d with w = 0.
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// NormalizeOr returns v normalized, or fallback when v has no usable length.
//
// Parameters:
//   - v: the vector to normalize
//   - fallback: the value returned for zero-length or non-finite input
//
// Returns:
//   - mgl32.Vec3: the unit vector or fallback
func NormalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l <= 1e-12 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// OrthoZO builds a right-handed orthographic projection that maps depth to [0, 1],
// matching the WebGPU clip space convention.
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the depth extents
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func OrthoZO(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rl := 1 / (right - left)
	tb := 1 / (top - bottom)
	fn := 1 / (near - far)
	return mgl32.Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, near * fn, 1,
	}
}

// PerspectiveZO builds a right-handed perspective projection with depth in [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1 / float32(math.Tan(float64(fovY)/2))
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1
	m[14] = (near * far) / (near - far)
	return m
}
