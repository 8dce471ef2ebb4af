// Command oxy-render renders an animated glTF model on the software backend and writes the
// frames as WebP or PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/animator"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/capture"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a JSON config file")
	modelPath := flag.String("model", "", "Path to the .gltf or .glb model")
	lutPath := flag.String("lut", "", "Path to a color grading LUT strip image")
	outputPath := flag.String("out", "", "Output file; sequences are numbered next to it (default: frame.webp)")
	width := flag.Int("width", 0, "Output width in pixels (default: 1280)")
	height := flag.Int("height", 0, "Output height in pixels (default: 720)")
	frames := flag.Int("frames", 0, "Number of frames to render (default: 1)")
	workers := flag.Int("workers", 0, "Number of kernel workers (default: NumCPU)")
	debugMode := flag.String("debug", "", "Debug mode name, e.g. Normals or Texture0")
	clipName := flag.String("clip", "", "Animation clip to play (default: the first clip)")
	profile := flag.Bool("profile", false, "Log pass timings every second")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Load config
	var cfg settings.Config
	if *configFile != "" {
		var err error
		cfg, err = settings.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(settings.Flags{
		ModelPath:  *modelPath,
		LUTPath:    *lutPath,
		OutputPath: *outputPath,
		Width:      *width,
		Height:     *height,
		Frames:     *frames,
		Workers:    *workers,
		DebugMode:  *debugMode,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.ModelPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no model. Use -model or model_path in the config.")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var prof *profiler.Profiler
	if *profile {
		prof = profiler.NewProfiler()
	}

	start := time.Now()
	written, err := render(ctx, cfg, *clipName, prof)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	common.Logger().Info("done", "frames", written, "elapsed", time.Since(start).Round(time.Millisecond))
}

// render draws cfg.FrameCount frames at cfg.FrameRate and writes each one.
func render(ctx context.Context, cfg settings.Config, clipName string, prof *profiler.Profiler) (int, error) {
	// ── Model ───────────────────────────────────────────────────────────
	ldr := loader.NewLoader(loader.BackendTypeGLTF, loader.WithNormalSmoothing(true))
	asset, err := ldr.Load(cfg.ModelPath)
	if err != nil {
		return 0, err
	}
	m := asset.Model

	// ── Renderer ────────────────────────────────────────────────────────
	// Supersampled frames are rendered larger and reduced by the capturer.
	ss := max(cfg.Supersample, 1)
	opts, err := renderer.ConfigOptions(cfg)
	if err != nil {
		return 0, err
	}
	opts = append(opts, renderer.WithSize(cfg.Width*ss, cfg.Height*ss), renderer.WithProfiler(prof))
	r := renderer.NewRenderer(renderer.BackendTypeSoftware, opts...)
	defer r.Release()

	if err := r.SetModel(m); err != nil {
		return 0, err
	}
	r.SetRenderSettings(*cfg.Render)
	r.SetSkinningSettings(*cfg.Skinning)
	r.SetRenderOptions(cfg.Options)

	// ── Camera ──────────────────────────────────────────────────────────
	cam := camera.NewCamera(
		camera.WithAspect(float32(cfg.Width)/float32(cfg.Height)),
		camera.WithController(camera.NewCameraController()),
	)
	cam.Controller().FrameBounds(m.Bounds(), cam.Fov())
	cam.Update()
	r.SetCamera(cam)

	// ── Animation ───────────────────────────────────────────────────────
	var anim animator.Animator
	if m.Skeleton() != nil && len(asset.Clips) > 0 {
		anim = animator.NewAnimator(m.Skeleton(), animator.WithClips(asset.Clips...))
		clip := 0
		if clipName != "" {
			i, ok := anim.ClipIndex(clipName)
			if !ok {
				return 0, fmt.Errorf("clip %q not found in %s", clipName, cfg.ModelPath)
			}
			clip = i
		}
		anim.Play(clip, true)
		common.Logger().Info("playing clip", "clip", anim.Clips()[clip].Name, "duration", anim.Clips()[clip].Duration)
	}

	// ── Frames ──────────────────────────────────────────────────────────
	format := capture.FormatWebP
	if cfg.OutputFormat == "png" {
		format = capture.FormatPNG
	}
	capturer := capture.NewCapturer(capture.WithFormat(format), capture.WithSupersample(ss))
	dir := filepath.Dir(cfg.OutputPath)
	prefix := strings.TrimSuffix(filepath.Base(cfg.OutputPath), filepath.Ext(cfg.OutputPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	step := 1 / float32(cfg.FrameRate)
	for i := range cfg.FrameCount {
		// A nil state renders the rest pose.
		var fs *skeleton.FrameState
		if anim != nil {
			anim.SetTime(float32(i) * step)
			fs = anim.FrameState()
		}
		if err := r.RenderFrame(ctx, fs); err != nil {
			return i, err
		}

		path := cfg.OutputPath
		if cfg.FrameCount > 1 {
			path = capture.SequencePath(dir, prefix, i, format)
		}
		if err := capturer.WriteFile(path, r.Output()); err != nil {
			return i, err
		}
		common.Logger().Debug("frame written", "frame", i, "path", path)
	}
	return cfg.FrameCount, nil
}
