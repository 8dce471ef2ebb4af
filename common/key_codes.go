package common

// Virtual key codes for viewer input.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32

	Key1 = 49
	Key9 = 57

	KeyA = 65
	KeyB = 66
	KeyD = 68
	KeyF = 70
	KeyG = 71
	KeyK = 75
	KeyN = 78
	KeyO = 79
	KeyP = 80
	KeyS = 83
	KeyT = 84
	KeyW = 87
	KeyX = 88

	KeyEsc   = 256
	KeyRight = 262
	KeyLeft  = 263
	KeyDown  = 264
	KeyUp    = 265
)

// KeyAction identifies a viewer command bound to a key.
type KeyAction int

const (
	ActionNone KeyAction = iota
	ActionNextDebugMode
	ActionPrevDebugMode
	ActionToggleBloom
	ActionToggleShadows
	ActionToggleOutline
	ActionToggleWireframe
	ActionToggleBones
	ActionToggleBoneAxes
	ActionToggleFloorGrid
	ActionNextTransition
	ActionNextClip
	ActionTogglePause
	ActionFrameModel
	ActionOrbitLeft
	ActionOrbitRight
	ActionOrbitUp
	ActionOrbitDown
	ActionCapture
	ActionQuit
)

// DefaultKeyBindings maps viewer keys to actions. Key1 through Key9 select animation clips
// directly and are not part of the map.
var DefaultKeyBindings = map[int]KeyAction{
	KeyD:     ActionNextDebugMode,
	KeyA:     ActionPrevDebugMode,
	KeyB:     ActionToggleBloom,
	KeyS:     ActionToggleShadows,
	KeyO:     ActionToggleOutline,
	KeyW:     ActionToggleWireframe,
	KeyK:     ActionToggleBones,
	KeyX:     ActionToggleBoneAxes,
	KeyG:     ActionToggleFloorGrid,
	KeyT:     ActionNextTransition,
	KeyN:     ActionNextClip,
	KeySpace: ActionTogglePause,
	KeyF:     ActionFrameModel,
	KeyLeft:  ActionOrbitLeft,
	KeyRight: ActionOrbitRight,
	KeyUp:    ActionOrbitUp,
	KeyDown:  ActionOrbitDown,
	KeyP:     ActionCapture,
	KeyEsc:   ActionQuit,
}
