// Command oxy-viewer opens a window showing an animated glTF model on the wgpu backend.
//
// Controls: left drag orbits, middle drag pans, the wheel zooms. D and A cycle debug modes,
// B, S and O toggle bloom, shadows and the outline, W toggles the wireframe. K shows the
// bones, X their axes and G the floor grid. T cycles the transition material, N and 1-9 switch
// clips, Space pauses, F frames the model, P saves a screenshot and Esc quits.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/capture"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a JSON config file")
	modelPath := flag.String("model", "", "Path to the .gltf or .glb model")
	lutPath := flag.String("lut", "", "Path to a color grading LUT strip image")
	width := flag.Int("width", 0, "Window width (default: 1280)")
	height := flag.Int("height", 0, "Window height (default: 720)")
	workers := flag.Int("workers", 0, "Number of kernel workers (default: NumCPU)")
	debugMode := flag.String("debug", "", "Initial debug mode name")
	captureDir := flag.String("captures", "captures", "Directory screenshots are written to")
	fallback := flag.Bool("fallback-adapter", false, "Use the software Vulkan adapter")
	profile := flag.Bool("profile", false, "Log frame and pass timings every second")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg settings.Config
	if *configFile != "" {
		var err error
		cfg, err = settings.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(settings.Flags{
		ModelPath: *modelPath,
		LUTPath:   *lutPath,
		Width:     *width,
		Height:    *height,
		Workers:   *workers,
		DebugMode: *debugMode,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.ModelPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no model. Use -model or model_path in the config.")
		os.Exit(1)
	}
	if renderer.ParseBackendType(cfg.Backend) != renderer.BackendTypeWGPU {
		fmt.Fprintln(os.Stderr, "Error: the viewer presents through wgpu. Use oxy-render for the software backend.")
		os.Exit(1)
	}

	// ── Model ───────────────────────────────────────────────────────────
	ldr := loader.NewLoader(loader.BackendTypeGLTF, loader.WithNormalSmoothing(true))
	asset, err := ldr.Load(cfg.ModelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model: %v\n", err)
		os.Exit(1)
	}

	// ── Window ──────────────────────────────────────────────────────────
	win := window.NewWindow(
		window.WithTitle("oxy-viewer"),
		window.WithSize(cfg.Width, cfg.Height),
	)

	// ── Renderer ────────────────────────────────────────────────────────
	opts, err := renderer.ConfigOptions(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	captureOpts := opts
	if *profile {
		opts = append(opts, renderer.WithProfiler(profiler.NewProfiler()))
	}
	opts = append(opts,
		renderer.WithSurface(win),
		renderer.WithSize(win.Width(), win.Height()),
		renderer.WithScaleFactor(win.ContentScale()*cfg.ScaleFactor),
		renderer.WithForceSoftwareRenderer(*fallback),
	)
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, opts...)
	if err := r.SetModel(asset.Model); err != nil {
		fmt.Fprintf(os.Stderr, "Error uploading model: %v\n", err)
		os.Exit(1)
	}
	r.SetSkinningSettings(*cfg.Skinning)

	// ── Animation ───────────────────────────────────────────────────────
	var anim animator.Animator
	if skel := asset.Model.Skeleton(); skel != nil {
		anim = animator.NewAnimator(skel, animator.WithClips(asset.Clips...), animator.WithAutoplay())
	}

	// ── Engine ──────────────────────────────────────────────────────────
	format := capture.FormatPNG
	if cfg.OutputFormat == "webp" {
		format = capture.FormatWebP
	}
	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithAnimator(anim),
		engine.WithRenderSettings(*cfg.Render),
		engine.WithRenderOptions(cfg.Options),
		engine.WithTickRate(float64(cfg.FrameRate)),
		engine.WithCapture(*captureDir, common.Coalesce(asset.Model.Name(), "capture"), format, capture.NewCapturer(capture.WithFormat(format)), captureOpts...),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	eng.Run()
}
