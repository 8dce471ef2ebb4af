package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrInvalidConfig is returned by Validate for values no default can repair.
var ErrInvalidConfig = errors.New("settings: invalid config")

// Config holds the viewer and headless renderer settings read from a JSON file.
type Config struct {
	// Input / output
	ModelPath    string `json:"model_path"`
	LUTPath      string `json:"lut_path"`
	OutputPath   string `json:"output_path"`
	OutputFormat string `json:"output_format"`
	FrameCount   int    `json:"frame_count"`
	FrameRate    int    `json:"frame_rate"`
	Supersample  int    `json:"supersample"`
	WebPQuality  int    `json:"webp_quality"`

	// Surface
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	ScaleFactor float32    `json:"scale_factor"`
	ClearColor  [4]float32 `json:"clear_color"`
	Backend     string     `json:"backend"`
	PresentMode string     `json:"present_mode"`
	MSAA        int        `json:"msaa"`
	Workers     int        `json:"workers"`

	// Outline
	OutlineColor   [4]float32 `json:"outline_color"`
	OutlineRadius  int        `json:"outline_radius"`
	OutlinePattern string     `json:"outline_pattern"`

	// BoneRadius sizes the skeleton overlay. Zero sizes it from the model bounds.
	BoneRadius float32 `json:"bone_radius"`

	// Bloom and tonemapping
	BloomThreshold float32 `json:"bloom_threshold"`
	BloomKnee      float32 `json:"bloom_knee"`
	BloomIntensity float32 `json:"bloom_intensity"`
	Exposure       float32 `json:"exposure"`

	// Per-frame shading toggles. Nil means DefaultRenderSettings.
	Render   *RenderSettings    `json:"render,omitempty"`
	Skinning *SkinningSettings  `json:"skinning,omitempty"`
	Options  ModelRenderOptions `json:"options"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ModelPath  string
	LUTPath    string
	OutputPath string
	Backend    string
	Width      int
	Height     int
	Frames     int
	Workers    int
	DebugMode  string
}

// Load reads a JSON config file. Fields not set in the file keep their zero values
// until Resolve fills them.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the parsed config
//   - error: a read or parse error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("settings: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies non-zero CLI flags over the file values and fills every empty field with
// its default.
func (c *Config) Resolve(flags Flags) {
	if flags.ModelPath != "" {
		c.ModelPath = flags.ModelPath
	}
	if flags.LUTPath != "" {
		c.LUTPath = flags.LUTPath
	}
	if flags.OutputPath != "" {
		c.OutputPath = flags.OutputPath
	}
	if flags.Backend != "" {
		c.Backend = flags.Backend
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Frames > 0 {
		c.FrameCount = flags.Frames
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if c.ScaleFactor <= 0 {
		c.ScaleFactor = 1
	}
	if c.ClearColor == [4]float32{} {
		c.ClearColor = [4]float32{0.25, 0.25, 0.25, 1}
	}
	if c.Backend == "" {
		c.Backend = "wgpu"
	}
	if c.PresentMode == "" {
		c.PresentMode = "fifo"
	}
	if c.MSAA <= 0 {
		c.MSAA = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.OutlineColor == [4]float32{} {
		c.OutlineColor = [4]float32{1, 1, 0, 1}
	}
	if c.OutlineRadius <= 0 {
		c.OutlineRadius = 2
	}
	if c.OutlinePattern == "" {
		c.OutlinePattern = "cross"
	}
	if c.BloomThreshold <= 0 {
		c.BloomThreshold = 1
	}
	if c.BloomKnee <= 0 {
		c.BloomKnee = 0.5
	}
	if c.BloomIntensity <= 0 {
		c.BloomIntensity = 1
	}
	if c.Exposure <= 0 {
		c.Exposure = 1
	}
	if c.FrameCount <= 0 {
		c.FrameCount = 1
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 60
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.WebPQuality <= 0 {
		c.WebPQuality = 90
	}
	if c.OutputPath == "" {
		c.OutputPath = "frame.webp"
	}
	if c.OutputFormat == "" {
		c.OutputFormat = strings.TrimPrefix(strings.ToLower(filepath.Ext(c.OutputPath)), ".")
	}
	if c.Render == nil {
		rs := DefaultRenderSettings()
		c.Render = &rs
	}
	if flags.DebugMode != "" {
		if mode, ok := ParseDebugMode(flags.DebugMode); ok {
			c.Render.DebugMode = mode
		}
	}
	*c.Render = c.Render.Clamped()
	if c.Skinning == nil {
		ss := DefaultSkinningSettings()
		c.Skinning = &ss
	}
	if c.Options.MaskModelIndex == 0 && c.Options.MaskMaterialLabel == "" && len(c.Options.OutlineMaterialLabels) == 0 {
		c.Options.MaskModelIndex = -1
	}
}

// Validate reports values that Resolve cannot repair.
//
// Returns:
//   - error: an ErrInvalidConfig wrapped error, or nil
func (c *Config) Validate() error {
	switch c.Backend {
	case "wgpu", "software":
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Backend)
	}
	switch c.OutlinePattern {
	case "cross", "box":
	default:
		return fmt.Errorf("%w: outline pattern %q", ErrInvalidConfig, c.OutlinePattern)
	}
	switch c.OutputFormat {
	case "webp", "png":
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalidConfig, c.OutputFormat)
	}
	switch c.MSAA {
	case 1, 4:
	default:
		return fmt.Errorf("%w: msaa %d", ErrInvalidConfig, c.MSAA)
	}
	return nil
}
