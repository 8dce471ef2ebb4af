package engine

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

const (
	// clipBlendSeconds is the cross-fade used when switching animation clips.
	clipBlendSeconds = 0.25

	// panScale converts cursor pixels to pan distance per unit of orbit radius.
	panScale = 0.002
)

func (e *engine) onResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	e.camera.SetAspect(float32(width) / float32(height))
}

func (e *engine) onKey(key int, down bool) {
	if !down {
		return
	}
	if key >= common.Key1 && key <= common.Key9 {
		e.selectClip(key - common.Key1)
		return
	}
	if action, ok := e.bindings[key]; ok {
		e.HandleAction(action)
	}
}

func (e *engine) onScroll(delta float32) {
	if ctrl := e.camera.Controller(); ctrl != nil {
		ctrl.Zoom(delta)
		e.camera.Update()
	}
}

func (e *engine) onMouseButton(button window.MouseButton, down bool, x, y int32) {
	if !down {
		if e.dragging && button == e.drag {
			e.dragging = false
		}
		return
	}
	e.drag = button
	e.dragging = true
	e.lastMouse = [2]int32{x, y}
}

// onMouseMove orbits the camera while the left button is held and pans it while the middle
// button is held.
func (e *engine) onMouseMove(x, y int32) {
	if !e.dragging {
		return
	}
	dx := float32(x - e.lastMouse[0])
	dy := float32(y - e.lastMouse[1])
	e.lastMouse = [2]int32{x, y}

	ctrl := e.camera.Controller()
	if ctrl == nil {
		return
	}
	switch e.drag {
	case window.MouseButtonLeft:
		ctrl.Drag(dx, dy)
	case window.MouseButtonMiddle, window.MouseButtonRight:
		step := ctrl.Radius() * panScale
		ctrl.PanRight(-dx * step)
		ctrl.PanUp(dy * step)
	}
	e.camera.Update()
}

// HandleAction applies a viewer command. Title updates go through the window, so it should be
// called from the thread running the message loop.
func (e *engine) HandleAction(action common.KeyAction) {
	switch action {
	case common.ActionNextDebugMode:
		e.updateRender(func() { e.render.DebugMode = e.render.DebugMode.Next() })
	case common.ActionPrevDebugMode:
		e.updateRender(func() { e.render.DebugMode = e.render.DebugMode.Prev() })
	case common.ActionToggleBloom:
		e.updateRender(func() { e.render.RenderBloom = !e.render.RenderBloom })
	case common.ActionToggleShadows:
		e.updateRender(func() { e.render.RenderShadows = !e.render.RenderShadows })
	case common.ActionNextTransition:
		e.updateRender(func() { e.render.TransitionMaterial = e.render.TransitionMaterial.Next() })
	case common.ActionToggleOutline:
		e.updateOptions(e.toggleOutline)
	case common.ActionToggleWireframe:
		e.updateOptions(func() { e.options.DrawWireframe = !e.options.DrawWireframe })
	case common.ActionToggleBones:
		e.updateOptions(func() { e.options.DrawBones = !e.options.DrawBones })
	case common.ActionToggleBoneAxes:
		e.updateOptions(func() { e.options.DrawBoneAxes = !e.options.DrawBoneAxes })
	case common.ActionToggleFloorGrid:
		e.updateOptions(func() { e.options.DrawFloorGrid = !e.options.DrawFloorGrid })
	case common.ActionNextClip:
		if e.animator != nil && len(e.animator.Clips()) > 0 {
			e.selectClip((e.clip + 1) % len(e.animator.Clips()))
		}
	case common.ActionTogglePause:
		e.paused.Store(!e.paused.Load())
	case common.ActionFrameModel:
		e.frameModel()
	case common.ActionOrbitLeft, common.ActionOrbitRight, common.ActionOrbitUp, common.ActionOrbitDown:
		e.orbit(action)
	case common.ActionCapture:
		if e.capture != nil {
			e.capture.requested.Store(true)
		}
	case common.ActionQuit:
		e.signalQuit()
		return
	default:
		return
	}
	e.updateTitle()
}

func (e *engine) updateRender(change func()) {
	e.mu.Lock()
	change()
	e.render = e.render.Clamped()
	rs := e.render
	e.mu.Unlock()
	e.renderer.SetRenderSettings(rs)
}

func (e *engine) updateOptions(change func()) {
	e.mu.Lock()
	change()
	opts := e.options
	e.mu.Unlock()
	e.renderer.SetRenderOptions(opts)
}

// toggleOutline moves the outline selection aside and back. Caller must hold the mutex.
func (e *engine) toggleOutline() {
	if e.hiddenOutline != nil {
		e.options.OutlineMaterialLabels = e.hiddenOutline.OutlineMaterialLabels
		e.options.OutlineMeshNames = e.hiddenOutline.OutlineMeshNames
		e.hiddenOutline = nil
		return
	}
	saved := e.options
	e.hiddenOutline = &saved
	e.options.OutlineMaterialLabels = nil
	e.options.OutlineMeshNames = nil
}

// selectClip cross-fades to clip i. Selecting the current clip restarts it.
func (e *engine) selectClip(i int) {
	if e.animator == nil || i < 0 || i >= len(e.animator.Clips()) {
		return
	}
	if i == e.clip {
		e.animator.Play(i, true)
	} else {
		e.animator.BlendTo(i, clipBlendSeconds)
	}
	e.clip = i
	e.updateTitle()
}

// frameModel points the orbit controller at the renderer's model so it fills the view.
func (e *engine) frameModel() {
	ctrl := e.camera.Controller()
	m := e.renderer.Model()
	if ctrl == nil || m == nil {
		return
	}
	ctrl.FrameBounds(m.Bounds(), e.camera.Fov())
	e.camera.Update()
}

func (e *engine) orbit(action common.KeyAction) {
	ctrl := e.camera.Controller()
	if ctrl == nil {
		return
	}
	switch action {
	case common.ActionOrbitLeft:
		ctrl.OrbitLeft()
	case common.ActionOrbitRight:
		ctrl.OrbitRight()
	case common.ActionOrbitUp:
		ctrl.OrbitUp()
	case common.ActionOrbitDown:
		ctrl.OrbitDown()
	}
	e.camera.Update()
}

// title describes the current viewer state, e.g. "fighter | Normals | idle | paused".
func (e *engine) title() string {
	parts := []string{"oxy-viewer"}
	if m := e.renderer.Model(); m != nil && m.Name() != "" {
		parts[0] = m.Name()
	}

	e.mu.Lock()
	parts = append(parts, e.render.DebugMode.String())
	if e.render.DebugMode == settings.DebugShaded {
		parts[len(parts)-1] = fmt.Sprintf("%s, %s", e.render.DebugMode, e.render.TransitionMaterial)
	}
	e.mu.Unlock()

	if e.animator != nil {
		if clips := e.animator.Clips(); e.clip < len(clips) && clips[e.clip].Name != "" {
			parts = append(parts, clips[e.clip].Name)
		}
	}
	if e.paused.Load() {
		parts = append(parts, "paused")
	}
	return strings.Join(parts, " | ")
}

func (e *engine) updateTitle() {
	e.window.SetTitle(e.title())
}
