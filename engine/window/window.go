package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies a mouse button in button callbacks.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Window provides platform windowing, the presentation surface and input events for the
// viewer. It satisfies the renderer's Surface interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the scroll delta, positive away from the user
	SetScrollCallback(callback func(delta float32))

	// SetKeyCallback sets the callback for key presses, repeats and releases.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code and whether the key is down
	SetKeyCallback(callback func(key int, down bool))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button, whether it is down and the cursor position
	SetMouseButtonCallback(callback func(button MouseButton, down bool, x, y int32))

	// SetMouseMoveCallback sets the callback for cursor movement.
	SetMouseMoveCallback(callback func(x, y int32))

	// SetTitle replaces the title bar text.
	SetTitle(title string)

	// SurfaceDescriptor returns a platform surface descriptor for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// ContentScale returns the ratio between framebuffer pixels and screen coordinates, 1 on
	// standard displays.
	ContentScale() float32

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// RequestClose asks the message loop to stop after its current iteration. The window is
	// destroyed by Close.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never initialized
	Close() error

	// ProcessMessages runs the window message loop until the window closes, calling the
	// update callback each iteration. It must run on the thread that created the window.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	minWidth, minHeight int
	width, height       int
	scale               float32
	resizable           bool

	// internalWindow holds the platform window (glfwWindow).
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKey         func(key int, down bool)
	onMouseButton func(button MouseButton, down bool, x, y int32)
	onMouseMove   func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates and opens a window. It panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the opened window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "oxy-viewer",
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
		scale:     1,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyCallback(callback func(key int, down bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button MouseButton, down bool, x, y int32)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) ContentScale() float32 {
	return w.scale
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if ok := platformProcessMessages(w); !ok {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
