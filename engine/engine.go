package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running atomic.Bool
	paused  atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	renderer renderer.Renderer
	camera   camera.Camera
	animator animator.Animator

	lights   light.Selector
	bindings map[int]common.KeyAction
	capture  *captureState
	clip     int

	// Settings pushed to the renderer. The outline selection is kept aside while hidden.
	render        settings.RenderSettings
	options       settings.ModelRenderOptions
	hiddenOutline *settings.ModelRenderOptions

	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	tickCallback     func(deltaTime float32)

	drag      window.MouseButton
	dragging  bool
	lastMouse [2]int32
}

// Engine runs the viewer. It advances the animation on a fixed tick, renders the animated
// model on its own goroutine and turns window input into camera movement and setting changes.
type Engine interface {
	// Window returns the underlying window.
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	Renderer() renderer.Renderer

	// Camera returns the camera the model is viewed through.
	Camera() camera.Camera

	// Animator returns the animation evaluator, or nil for a static model.
	Animator() animator.Animator

	// SetTickRate sets the animation tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called after each animation tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	SetRenderFrameLimit(fps float64)

	// HandleAction applies a viewer command as if its key had been pressed.
	//
	// Parameters:
	//   - action: the command to apply
	HandleAction(action common.KeyAction)

	// Paused reports whether animation playback is paused.
	Paused() bool

	// Run starts the tick and render loops and processes window messages until the window
	// closes or Quit is called. It must be called from the thread that created the window.
	Run()

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine from a window and a renderer drawing into it. Missing cameras
// are created with an orbit controller framing the renderer's model.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: if no window or renderer was given
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		bindings:        common.DefaultKeyBindings,
		render:          settings.DefaultRenderSettings(),
		options:         settings.DefaultModelRenderOptions(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		return nil, fmt.Errorf("engine: new: no window")
	}
	if e.renderer == nil {
		return nil, fmt.Errorf("engine: new: no renderer")
	}

	if e.camera == nil {
		e.camera = camera.NewCamera(camera.WithController(camera.NewCameraController()))
		e.frameModel()
	}
	e.camera.SetAspect(float32(max(e.window.Width(), 1)) / float32(max(e.window.Height(), 1)))
	e.renderer.SetCamera(e.camera)
	e.renderer.SetRenderSettings(e.render)
	e.renderer.SetRenderOptions(e.options)
	if e.lights != nil {
		e.renderer.SetLightSelector(e.lights)
	}

	e.window.SetResizeCallback(e.onResize)
	e.window.SetKeyCallback(e.onKey)
	e.window.SetScrollCallback(e.onScroll)
	e.window.SetMouseButtonCallback(e.onMouseButton)
	e.window.SetMouseMoveCallback(e.onMouseMove)
	e.updateTitle()

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Animator() animator.Animator {
	return e.animator
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.releaseCapture()
	e.renderer.Release()
	if err := e.window.Close(); err != nil {
		common.Logger().Warn("window close failed", "err", err)
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the tick, render and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleTick()
	go e.handleRender()
	go e.handleQuit()
}

// handleTick runs the fixed-rate animation loop. It advances the animator unless playback is
// paused and listens for rate changes via tickRateChannel.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick advances one animation step and refreshes the camera matrices.
func (e *engine) tick(dt float32) {
	if e.animator != nil && !e.paused.Load() {
		e.animator.Advance(dt)
	}
	e.camera.Update()

	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-e.quitChannel
		cancel()
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			start := time.Now()
			e.renderFrame(ctx)

			if e.renderFrameLimit > 0 {
				if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame renders one frame of the current animation state and writes a pending capture.
func (e *engine) renderFrame(ctx context.Context) {
	err := e.renderer.RenderFrame(ctx, e.frameState())
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, framegraph.ErrFrameAbandoned):
		common.Logger().Debug("frame abandoned by resize")
	default:
		common.Logger().Warn("frame failed", "err", err)
	}
	if e.capture != nil && e.capture.requested.Swap(false) {
		path, err := e.writeCapture(ctx)
		if err != nil {
			common.Logger().Error("capture failed", "err", err)
			return
		}
		common.Logger().Info("frame captured", "path", path)
	}
}

func (e *engine) frameState() *skeleton.FrameState {
	if e.animator == nil {
		return nil
	}
	return e.animator.FrameState()
}

// handleQuit blocks until the quit channel is closed, then asks the window to stop its
// message loop.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
	e.window.RequestClose()
}

// SetTickRate sets the animation tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update rather than block.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
