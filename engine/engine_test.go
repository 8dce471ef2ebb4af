package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/capture"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow records callbacks and title changes without opening a platform window.
type fakeWindow struct {
	title         string
	closeRequests int

	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKey         func(key int, down bool)
	onMouseButton func(button window.MouseButton, down bool, x, y int32)
	onMouseMove   func(x, y int32)
}

var _ window.Window = &fakeWindow{}

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32)) { w.onScroll = cb }
func (w *fakeWindow) SetKeyCallback(cb func(key int, down bool)) { w.onKey = cb }
func (w *fakeWindow) SetMouseButtonCallback(cb func(button window.MouseButton, down bool, x, y int32)) {
	w.onMouseButton = cb
}
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y int32)) { w.onMouseMove = cb }
func (w *fakeWindow) SetTitle(title string) { w.title = title }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) ContentScale() float32 { return 1 }
func (w *fakeWindow) IsRunning() bool { return false }
func (w *fakeWindow) RequestClose() { w.closeRequests++ }
func (w *fakeWindow) Close() error { return nil }
func (w *fakeWindow) ProcessMessages() {}
func (w *fakeWindow) Width() int { return 16 }
func (w *fakeWindow) Height() int { return 16 }

func quadModel() model.Model {
	n := mgl32.Vec3{0, 0, 1}
	v := []model.Vertex{
		model.NewVertex(mgl32.Vec3{-0.5, -0.5, 0.5}, n),
		model.NewVertex(mgl32.Vec3{0.5, -0.5, 0.5}, n),
		model.NewVertex(mgl32.Vec3{0.5, 0.5, 0.5}, n),
		model.NewVertex(mgl32.Vec3{-0.5, 0.5, 0.5}, n),
	}
	return model.NewModel(
		model.WithName("quad"),
		model.WithMeshObjects(model.NewMeshObject("quad", v, []uint32{0, 1, 2, 0, 2, 3})),
	)
}

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (*engine, *fakeWindow) {
	t.Helper()
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, renderer.WithSize(16, 16), renderer.WithWorkers(2))
	t.Cleanup(r.Release)
	require.NoError(t, r.SetModel(quadModel()))

	w := &fakeWindow{}
	options = append([]EngineBuilderOption{WithWindow(w), WithRenderer(r)}, options...)
	e, err := NewEngine(options...)
	require.NoError(t, err)
	return e.(*engine), w
}

func TestNewEngine_RequiresWindowAndRenderer(t *testing.T) {
	_, err := NewEngine()
	assert.Error(t, err)

	_, err = NewEngine(WithWindow(&fakeWindow{}))
	assert.Error(t, err)
}

func TestNewEngine_FramesModelAndSetsTitle(t *testing.T) {
	e, w := newTestEngine(t)

	assert.Equal(t, "quad | Shaded, Ink", w.title)
	ctrl := e.Camera().Controller()
	require.NotNil(t, ctrl)
	assert.Greater(t, ctrl.Radius(), float32(0))
}

func TestEngine_HandleActionUpdatesRenderSettings(t *testing.T) {
	tests := []struct {
		name   string
		action common.KeyAction
		check  func(t *testing.T, rs settings.RenderSettings)
	}{
		{
			name:   "next debug mode",
			action: common.ActionNextDebugMode,
			check: func(t *testing.T, rs settings.RenderSettings) {
				assert.Equal(t, settings.DebugPosition0, rs.DebugMode)
			},
		},
		{
			name:   "previous debug mode wraps",
			action: common.ActionPrevDebugMode,
			check: func(t *testing.T, rs settings.RenderSettings) {
				assert.Equal(t, settings.DebugShaderComplexity, rs.DebugMode)
			},
		},
		{
			name:   "toggle bloom",
			action: common.ActionToggleBloom,
			check: func(t *testing.T, rs settings.RenderSettings) {
				assert.False(t, rs.RenderBloom)
			},
		},
		{
			name:   "toggle shadows",
			action: common.ActionToggleShadows,
			check: func(t *testing.T, rs settings.RenderSettings) {
				assert.False(t, rs.RenderShadows)
			},
		},
		{
			name:   "next transition",
			action: common.ActionNextTransition,
			check: func(t *testing.T, rs settings.RenderSettings) {
				assert.Equal(t, settings.TransitionMetalBox, rs.TransitionMaterial)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			e.HandleAction(tt.action)
			tt.check(t, e.Renderer().RenderSettings())
		})
	}
}

func TestEngine_KeyCallbackUsesBindings(t *testing.T) {
	e, w := newTestEngine(t)

	w.onKey(common.KeyD, false)
	assert.Equal(t, settings.DebugShaded, e.Renderer().RenderSettings().DebugMode, "releases are ignored")

	w.onKey(common.KeyD, true)
	assert.Equal(t, settings.DebugPosition0, e.Renderer().RenderSettings().DebugMode)
	assert.Equal(t, "quad | Position0", w.title)

	w.onKey(common.KeySpace, true)
	assert.True(t, e.Paused())
	assert.Contains(t, w.title, "paused")
}

func TestEngine_ToggleOutlineRestoresSelection(t *testing.T) {
	opts := settings.DefaultModelRenderOptions()
	opts.OutlineMaterialLabels = []string{"skin"}
	opts.OutlineMeshNames = []string{"body"}
	e, _ := newTestEngine(t, WithRenderOptions(opts))

	e.HandleAction(common.ActionToggleOutline)
	assert.Empty(t, e.options.OutlineMaterialLabels)
	assert.Empty(t, e.options.OutlineMeshNames)

	e.HandleAction(common.ActionToggleOutline)
	assert.Equal(t, []string{"skin"}, e.options.OutlineMaterialLabels)
	assert.Equal(t, []string{"body"}, e.options.OutlineMeshNames)
}

func TestEngine_OverlayToggles(t *testing.T) {
	e, w := newTestEngine(t)

	w.onKey(common.KeyK, true)
	w.onKey(common.KeyX, true)
	w.onKey(common.KeyG, true)
	assert.True(t, e.options.DrawBones)
	assert.True(t, e.options.DrawBoneAxes)
	assert.True(t, e.options.DrawFloorGrid)

	e.HandleAction(common.ActionToggleFloorGrid)
	assert.False(t, e.options.DrawFloorGrid)
	assert.True(t, e.options.DrawSkeleton())
}

func TestEngine_QuitIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)

	e.HandleAction(common.ActionQuit)
	e.Quit()

	select {
	case <-e.quitChannel:
	default:
		t.Fatal("quit channel still open")
	}
}

func TestEngine_ResizeUpdatesAspect(t *testing.T) {
	e, w := newTestEngine(t)

	w.onResize(32, 16)
	assert.InDelta(t, 2.0, e.Camera().Aspect(), 1e-6)

	w.onResize(0, 16)
	assert.InDelta(t, 2.0, e.Camera().Aspect(), 1e-6, "degenerate sizes are ignored")
}

func TestEngine_DragOrbitsCamera(t *testing.T) {
	e, w := newTestEngine(t)
	ctrl := e.Camera().Controller()
	azimuth := ctrl.Azimuth()

	w.onMouseMove(40, 0)
	assert.Equal(t, azimuth, ctrl.Azimuth(), "moves without a button do nothing")

	w.onMouseButton(window.MouseButtonLeft, true, 0, 0)
	w.onMouseMove(40, 0)
	w.onMouseButton(window.MouseButtonLeft, false, 40, 0)
	assert.NotEqual(t, azimuth, ctrl.Azimuth())
}

func TestEngine_CaptureWritesSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	e, _ := newTestEngine(t, WithCapture(dir, "shot", capture.FormatPNG, capture.NewCapturer(capture.WithFormat(capture.FormatPNG))))

	e.renderFrame(context.Background())
	_, err := os.Stat(capture.SequencePath(dir, "shot", 0, capture.FormatPNG))
	assert.True(t, os.IsNotExist(err), "nothing is written without a request")

	e.HandleAction(common.ActionCapture)
	e.renderFrame(context.Background())
	e.HandleAction(common.ActionCapture)
	e.renderFrame(context.Background())

	for i := range 2 {
		info, err := os.Stat(capture.SequencePath(dir, "shot", i, capture.FormatPNG))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
