package renderer

import (
	"context"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetSize = 32

// quadVertices is a front facing square covering the middle half of clip space at depth 0.5.
// The renderer draws it with an identity view projection.
func quadVertices() ([]model.Vertex, []uint32) {
	n := mgl32.Vec3{0, 0, 1}
	return []model.Vertex{
		model.NewVertex(mgl32.Vec3{-0.5, -0.5, 0.5}, n),
		model.NewVertex(mgl32.Vec3{0.5, -0.5, 0.5}, n),
		model.NewVertex(mgl32.Vec3{0.5, 0.5, 0.5}, n),
		model.NewVertex(mgl32.Vec3{-0.5, 0.5, 0.5}, n),
	}, []uint32{0, 1, 2, 0, 2, 3}
}

func quadModel(options ...model.MeshObjectOption) model.Model {
	v, idx := quadVertices()
	return model.NewModel(
		model.WithName("quad"),
		model.WithMeshObjects(model.NewMeshObject("quad", v, idx, options...)),
	)
}

func newSoftwareRenderer(t *testing.T, options ...RendererBuilderOption) Renderer {
	t.Helper()
	options = append([]RendererBuilderOption{WithSize(targetSize, targetSize), WithWorkers(4)}, options...)
	r := NewRenderer(BackendTypeSoftware, options...)
	t.Cleanup(r.Release)
	return r
}

func assertColorNear(t *testing.T, want, got mgl32.Vec4, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-3, msgAndArgs...)
	}
}

func TestSoftwareRenderer_NormalsDebugMode(t *testing.T) {
	clear := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	r := newSoftwareRenderer(t, WithClearColor(clear))
	require.NoError(t, r.SetModel(quadModel()))

	rs := settings.DefaultRenderSettings()
	rs.DebugMode = settings.DebugNormals
	r.SetRenderSettings(rs)
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	assert.Equal(t, []string{PassSkinning, PassRenormal, PassDebug}, r.Passes())

	out := r.Output()
	require.NotNil(t, out)
	require.Equal(t, targetSize, out.Width)

	// n = (0, 0, 1) remapped to (0.5, 0.5, 1) and gamma encoded.
	g := float32(math.Pow(0.5, 1/2.2))
	assertColorNear(t, mgl32.Vec4{g, g, 1, 1}, out.At(16, 16), "center")
	assertColorNear(t, clear, out.At(0, 0), "background")
}

func TestSoftwareRenderer_BlackSceneStaysBlack(t *testing.T) {
	r := newSoftwareRenderer(t, WithClearColor(mgl32.Vec4{0, 0, 0, 1}))
	require.NoError(t, r.SetModel(nil))
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	out := r.Output()
	require.NotNil(t, out)
	for i, c := range out.Pix {
		require.Equal(t, mgl32.Vec4{0, 0, 0, 1}, c, "pixel %d", i)
	}
}

func TestSoftwareRenderer_ShadedPassOrder(t *testing.T) {
	r := newSoftwareRenderer(t)
	require.NoError(t, r.SetModel(quadModel()))
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	assert.Equal(t, standardPasses, r.Passes())

	out := r.Output()
	require.NotNil(t, out)
	center := out.At(16, 16)
	assert.Equal(t, float32(1), center[3])
	assert.NotEqual(t, out.At(0, 0), center, "the quad covers the center")
}

func TestSoftwareRenderer_Outline(t *testing.T) {
	outline := OutlineParams{Color: mgl32.Vec4{1, 1, 0, 1}, Radius: 2, Pattern: postfx.PatternCross}
	r := newSoftwareRenderer(t, WithOutline(outline), WithClearColor(mgl32.Vec4{0, 0, 0, 1}))
	require.NoError(t, r.SetModel(quadModel()))
	r.SetRenderOptions(settings.ModelRenderOptions{MaskModelIndex: -1, OutlineMeshNames: []string{"quad"}})
	rs := settings.DefaultRenderSettings()
	rs.RenderBloom = false
	r.SetRenderSettings(rs)
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	out := r.Output()
	// The quad covers pixels 8 through 23; the ring is two pixels wide.
	assertColorNear(t, mgl32.Vec4{1, 1, 0, 1}, out.At(7, 16), "ring")
	assertColorNear(t, mgl32.Vec4{1, 1, 0, 1}, out.At(16, 25), "ring")
	assert.NotEqual(t, mgl32.Vec4{1, 1, 0, 1}, out.At(16, 16), "inside")
	assertColorNear(t, mgl32.Vec4{0, 0, 0, 1}, out.At(2, 16), "outside the ring")
}

func TestSoftwareRenderer_MaskedMaterialDrawsNothing(t *testing.T) {
	r := newSoftwareRenderer(t, WithClearColor(mgl32.Vec4{0, 0, 0, 1}))
	require.NoError(t, r.SetModel(quadModel(model.WithMaterialLabel("body", "SFX_PBS_0100000008008269_opaque"))))
	r.SetRenderOptions(settings.ModelRenderOptions{MaskModelIndex: -1, MaskMaterialLabel: "hair"})
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, r.Output().At(16, 16))
}

func TestSoftwareRenderer_SkinnedBuffersPingPong(t *testing.T) {
	s, err := skeleton.NewSkeleton([]skeleton.Bone{{Name: "root", Parent: skeleton.NoParent, Local: mgl32.Ident4()}})
	require.NoError(t, err)

	v, idx := quadVertices()
	for i := range v {
		v[i].Influences[0] = model.Influence{Bone: 0, Weight: 1}
	}
	m := model.NewModel(
		model.WithSkeleton(s),
		model.WithMeshObjects(model.NewMeshObject("quad", v, idx, model.WithAttachment(model.Skinned{}))),
	)

	r := newSoftwareRenderer(t)
	require.NoError(t, r.SetModel(m))
	for _, dx := range []float32{0.25, 0.5} {
		fs := skeleton.NewFrameStateFromLocal(s, []mgl32.Mat4{mgl32.Translate3D(dx, 0, 0)})
		require.NoError(t, r.RenderFrame(context.Background(), fs))
	}

	mesh := r.(*renderer).backend.(*softwareRendererBackend).meshes[0]
	assert.Equal(t, uint64(2), mesh.skinned.Frame())
	assert.InDelta(t, -0.25, mesh.skinned.Current()[0].Position.X(), 1e-5, "slot of frame 0")
	assert.InDelta(t, 0, mesh.skinned.Previous()[0].Position.X(), 1e-5, "slot of frame 1")
	assert.InDelta(t, -0.5, m.MeshObjects()[0].Vertices[0].Position.X(), 1e-6, "rest pose untouched")
}

func TestSoftwareRenderer_Resize(t *testing.T) {
	r := newSoftwareRenderer(t)
	require.NoError(t, r.SetModel(quadModel()))
	r.Resize(16, 8)
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	out := r.Output()
	assert.Equal(t, 16, out.Width)
	assert.Equal(t, 8, out.Height)
}

func TestSoftwareRenderer_CancelledFrame(t *testing.T) {
	r := newSoftwareRenderer(t)
	require.NoError(t, r.SetModel(quadModel()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.RenderFrame(ctx, nil), context.Canceled)
	assert.Nil(t, r.Output())
}

func TestConfigOptions(t *testing.T) {
	cfg := settings.Config{Width: 24, Height: 12, ClearColor: [4]float32{0, 0, 0, 1}}
	cfg.Resolve(settings.Flags{Workers: 2})
	require.NoError(t, cfg.Validate())

	opts, err := ConfigOptions(cfg)
	require.NoError(t, err)
	r := newSoftwareRenderer(t, opts...)
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	out := r.Output()
	require.NotNil(t, out)
	assert.Equal(t, 24, out.Width)
	assert.Equal(t, 12, out.Height)
	assertColorNear(t, mgl32.Vec4{0, 0, 0, 1}, out.At(0, 0))

	cfg.OutlinePattern = "diamond"
	_, err = ConfigOptions(cfg)
	assert.Error(t, err)

	cfg.OutlinePattern = "cross"
	cfg.LUTPath = "missing.cube"
	_, err = ConfigOptions(cfg)
	assert.Error(t, err)
}
