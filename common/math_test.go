package common

import (
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrthoZO_DepthRange(t *testing.T) {
	m := OrthoZO(-1, 1, -1, 1, -10, 10)

	near := m.Mul4x1(mgl32.Vec4{0, 0, 10, 1})
	far := m.Mul4x1(mgl32.Vec4{0, 0, -10, 1})

	assert.InDelta(t, 0, near.Z(), 1e-6)
	assert.InDelta(t, 1, far.Z(), 1e-6)

	corner := m.Mul4x1(mgl32.Vec4{1, -1, 0, 1})
	assert.InDelta(t, 1, corner.X(), 1e-6)
	assert.InDelta(t, -1, corner.Y(), 1e-6)
}

func TestPerspectiveZO_DepthRange(t *testing.T) {
	m := PerspectiveZO(mgl32.DegToRad(60), 1, 0.5, 100)

	near := m.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := m.Mul4x1(mgl32.Vec4{0, 0, -100, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestInverseTranspose_UniformScalePreservesDirection(t *testing.T) {
	m := mgl32.Scale3D(2, 2, 2).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	n := TransformDirection(InverseTranspose(m), mgl32.Vec3{1, 0, 0}).Normalize()
	want := TransformDirection(m, mgl32.Vec3{1, 0, 0}).Normalize()

	assert.InDelta(t, want.X(), n.X(), 1e-5)
	assert.InDelta(t, want.Y(), n.Y(), 1e-5)
	assert.InDelta(t, want.Z(), n.Z(), 1e-5)
}

func TestNormalizeOr(t *testing.T) {
	fallback := mgl32.Vec3{0, 1, 0}
	assert.Equal(t, fallback, NormalizeOr(mgl32.Vec3{}, fallback))
	assert.InDelta(t, 1, NormalizeOr(mgl32.Vec3{3, 4, 0}, fallback).Len(), 1e-6)
}

func TestPutMat4_LittleEndianColumnMajor(t *testing.T) {
	buf := make([]byte, 64)
	end := PutMat4(buf, 0, mgl32.Translate3D(1, 2, 3))

	require.Equal(t, 64, end)
	// translation lives in elements 12..14
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf[48:52])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x40}, buf[52:56])
}

func TestClampAndMix(t *testing.T) {
	assert.Equal(t, 0, Clamp(-4, 0, 10))
	assert.Equal(t, 10, Clamp(14, 0, 10))
	assert.Equal(t, float32(1), Saturate(3))
	assert.InDelta(t, 0.5, Mix(0, 1, 0.5), 1e-6)
	assert.Equal(t, 3, CeilDiv(513, 256))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
}

func TestFrustum_IntersectsBox(t *testing.T) {
	proj := PerspectiveZO(mgl32.DegToRad(60), 1, 0.1, 50)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul4(view))

	assert.True(t, f.IntersectsBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
	assert.False(t, f.IntersectsBox(mgl32.Vec3{-1, -1, 20}, mgl32.Vec3{1, 1, 22}))
	assert.False(t, f.IntersectsBox(mgl32.Vec3{100, -1, -1}, mgl32.Vec3{102, 1, 1}))
}

func TestToRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewNRGBA(image.Rect(4, 4, 6, 6))
	src.Set(4, 4, color.NRGBA{R: 255, A: 255})

	dst := ToRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), dst.Rect)
	assert.Equal(t, uint8(255), dst.Pix[0])
}

func TestSetLogger_NilRestoresSilentLogger(t *testing.T) {
	SetLogger(slog.Default())
	assert.Same(t, slog.Default(), Logger())

	SetLogger(nil)
	require.NotNil(t, Logger())
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}
