package renderer

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRendererBackend renders frames with WebGPU and presents them to a window surface. Every
// pass of a frame is recorded into one command encoder, submitted by the present pass.
type wgpuRendererBackend struct {
	mu *sync.Mutex

	cfg   backendConfig
	chain TargetChain

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   uint32

	pipelines *wgpuPipelines
	targets   *wgpuTargets

	materialSampler *wgpu.Sampler
	linearSampler   *wgpu.Sampler
	white           *wgpuTexture
	lut             *wgpuTexture

	// Frame uniforms, rewritten at the start of every frame.
	cameraBuffer   *wgpu.Buffer
	settingsBuffer *wgpu.Buffer
	bloomBuffer    *wgpu.Buffer
	postBuffer     *wgpu.Buffer
	outlineBuffer  *wgpu.Buffer

	frameGroup         bind_group_provider.BindGroupProvider
	debugFrameGroup    bind_group_provider.BindGroupProvider
	maskFrameGroup     bind_group_provider.BindGroupProvider
	gridFrameGroup     bind_group_provider.BindGroupProvider
	skeletonFrameGroup bind_group_provider.BindGroupProvider

	skinningInfoBinding int

	model     model.Model
	meshes    []*wgpuMesh
	bones     *wgpu.Buffer
	boneCount int
	textures  *wgpuTextureCache
	shadows   map[int]*wgpuShadowSlot

	resize *resizeGate
	passes []string
}

var _ RendererBackend = &wgpuRendererBackend{}

// wgpuFrame holds the per frame state of the wgpu backend.
type wgpuFrame struct {
	in     FrameInput
	state  *skeleton.FrameState
	filter drawFilter
	lights light.Selector
	sets   []light.LightSet

	// shadowed lists the light set slots whose shadow maps were rendered this frame.
	shadowed []int

	encoder        *wgpu.CommandEncoder
	surfaceTexture *wgpu.Texture
	surfaceView    *wgpu.TextureView
	transient      []bind_group_provider.BindGroupProvider
}

// release frees everything the frame still holds. A frame that failed before presenting drops
// its encoder and surface texture unsubmitted.
func (f *wgpuFrame) release() {
	for _, g := range f.transient {
		g.Release()
	}
	f.transient = nil
	if f.encoder != nil {
		f.encoder.Release()
		f.encoder = nil
	}
	if f.surfaceView != nil {
		f.surfaceView.Release()
		f.surfaceView = nil
	}
	if f.surfaceTexture != nil {
		f.surfaceTexture.Release()
		f.surfaceTexture = nil
	}
}

// newWGPURendererBackend creates the device for a surface and every resource that does not
// depend on the model. It panics if no adapter or device is available, matching the rest of
// the engine's GPU setup.
//
// Parameters:
//   - surfaceDescriptor: the platform surface of the window
//   - cfg: the backend configuration
//
// Returns:
//   - *wgpuRendererBackend: the configured backend
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, cfg backendConfig) *wgpuRendererBackend {
	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		mu:          &sync.Mutex{},
		cfg:         cfg,
		chain:       NewTargetChain(cfg.width, cfg.height, cfg.scale),
		resize:      newResizeGate(),
		instance:    wgpu.CreateInstance(nil),
		presentMode: presentModeFor(cfg.presentMode),
		sampleCount: uint32(max(cfg.msaa, MSAAOff)),
		shadows:     make(map[int]*wgpuShadowSlot),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallback,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	// The forward program binds a material group of TextureCount textures next to the shadow
	// moments, above the default sampled texture limit.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8
	limits.MaxSampledTexturesPerShaderStage = max(limits.MaxSampledTexturesPerShaderStage, uint32(material.TextureCount+4))

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = linearSurfaceFormat(capabilities.Formats)

	if err := b.init(); err != nil {
		panic(err)
	}
	b.configure()

	common.Logger().Info("wgpu backend ready",
		"surface_format", b.surfaceFormat,
		"msaa", b.sampleCount,
		"size", b.chain.Color,
	)
	return b
}

// linearSurfaceFormat picks the first surface format without sRGB encoding. The post pass
// writes gamma encoded color itself.
func linearSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f != wgpu.TextureFormatRGBA8UnormSrgb && f != wgpu.TextureFormatBGRA8UnormSrgb {
			return f
		}
	}
	if len(formats) > 0 {
		return formats[0]
	}
	return wgpu.TextureFormatBGRA8Unorm
}

func presentModeFor(mode PresentMode) wgpu.PresentMode {
	if mode == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// init creates the pipelines, samplers, frame uniforms and shared bind groups.
func (b *wgpuRendererBackend) init() error {
	pipelines, err := newWGPUPipelines(b.device, b.surfaceFormat, b.sampleCount)
	if err != nil {
		return err
	}
	b.pipelines = pipelines
	binding, ok := pipelines.skinning.Binding(0, "info")
	if !ok {
		return fmt.Errorf("%s: no info binding", pipelines.skinning.PipelineKey())
	}
	b.skinningInfoBinding = binding

	if b.materialSampler, err = b.createSampler("Material Sampler", common.SamplerStagingData{}); err != nil {
		return err
	}
	clamp := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
	}
	if b.linearSampler, err = b.createSampler("Linear Clamp Sampler", clamp); err != nil {
		return err
	}

	white := common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1, Format: wgpu.TextureFormatRGBA8Unorm}
	if b.white, err = b.uploadTexture("White Texture", white); err != nil {
		return err
	}
	lut := b.cfg.lut
	if lut == nil {
		lut = postfx.IdentityLUT(postfx.DefaultLUTSize)
	}
	lutStaging := common.TextureStagingData{
		Pixels: lut.RGBA8(),
		Width:  uint32(lut.Size),
		Height: uint32(lut.Size),
		Depth:  uint32(lut.Size),
		Format: wgpu.TextureFormatRGBA8Unorm,
	}
	if b.lut, err = b.uploadTexture("Color Grading LUT", lutStaging); err != nil {
		return err
	}

	uniforms := []struct {
		buf  **wgpu.Buffer
		name string
		size int
	}{
		{&b.cameraBuffer, "Camera", camera.GPUCameraUniformSize},
		{&b.settingsBuffer, "Render Settings", settings.GPURenderSettingsSize},
		{&b.bloomBuffer, "Bloom", postfx.GPUBloomUniformsSize},
		{&b.postBuffer, "Post", postfx.GPUPostUniformsSize},
		{&b.outlineBuffer, "Outline", postfx.GPUOutlineUniformsSize},
	}
	for _, u := range uniforms {
		if *u.buf, err = b.createBuffer(u.name+" Uniforms", wgpu.BufferUsageUniform, nil, u.size); err != nil {
			return err
		}
	}
	b.queue.WriteBuffer(b.postBuffer, 0, postfx.MarshalPost(b.cfg.post, b.cfg.lut != nil))
	o := b.cfg.outline
	b.queue.WriteBuffer(b.outlineBuffer, 0, postfx.MarshalOutline(o.Color, o.Radius, o.Pattern))

	frame := map[string]any{"camera": b.cameraBuffer, "settings": b.settingsBuffer}
	if b.frameGroup, err = b.bindGroup("Frame", pipelines.reference(false), 0, frame); err != nil {
		return err
	}
	if b.debugFrameGroup, err = b.bindGroup("Debug Frame", pipelines.reference(true), 0, frame); err != nil {
		return err
	}
	cam := map[string]any{"camera": b.cameraBuffer}
	if b.maskFrameGroup, err = b.bindGroup("Outline Mask Frame", pipelines.outlineMask, 0, cam); err != nil {
		return err
	}
	if b.gridFrameGroup, err = b.bindGroup("Floor Grid Frame", pipelines.floorGrid, 0, cam); err != nil {
		return err
	}
	if b.skeletonFrameGroup, err = b.bindGroup("Skeleton Frame", pipelines.skeleton, 0, cam); err != nil {
		return err
	}
	return nil
}

// configure applies the surface size and present mode and rebuilds the render targets. A zero
// sized surface stays unconfigured until the next resize.
func (b *wgpuRendererBackend) configure() {
	if b.cfg.width <= 0 || b.cfg.height <= 0 {
		return
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	if !slices.Contains(capabilities.PresentModes, b.presentMode) {
		b.presentMode = wgpu.PresentModeFifo
	}
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(b.cfg.width),
		Height:      uint32(b.cfg.height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.targets != nil {
		b.targets.Release()
	}
	targets, err := b.buildTargets()
	if err != nil {
		panic(err)
	}
	b.targets = targets
}

func (b *wgpuRendererBackend) SetModel(m model.Model) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseModel()
	b.model = m
	if m == nil {
		return nil
	}

	b.textures = &wgpuTextureCache{backend: b, model: m, white: b.white, uploads: make(map[string]*wgpuTexture)}
	if err := b.uploadModel(m); err != nil {
		b.releaseModel()
		b.model = nil
		return fmt.Errorf("renderer: upload model %s: %w", m.Name(), err)
	}
	common.Logger().Info("model uploaded", "model", m.Name(), "mesh_objects", len(b.meshes), "textures", len(b.textures.uploads))
	return nil
}

func (b *wgpuRendererBackend) releaseModel() {
	for _, m := range b.meshes {
		m.Release()
	}
	b.meshes = nil
	if b.textures != nil {
		b.textures.Release()
		b.textures = nil
	}
	if b.bones != nil {
		b.bones.Release()
		b.bones = nil
	}
	b.boneCount = 0
}

// Resize does not wait for a running frame. The surface is reconfigured when the next frame
// starts.
func (b *wgpuRendererBackend) Resize(width, height int) {
	b.resize.request(width, height)
}

// applySize reconfigures the surface and targets for a pending resize. Callers hold b.mu.
func (b *wgpuRendererBackend) applySize() {
	width, height, ok := b.resize.take()
	if !ok {
		return
	}
	b.cfg.width, b.cfg.height = width, height
	b.chain = NewTargetChain(width, height, b.cfg.scale)
	b.configure()
	common.Logger().Debug("target chain rebuilt", "color", b.chain.Color, "bloom_threshold", b.chain.BloomThreshold)
}

func (b *wgpuRendererBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = presentModeFor(mode)
	b.configure()
}

func (b *wgpuRendererBackend) RenderFrame(ctx context.Context, in FrameInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.applySize()
	if b.cfg.width <= 0 || b.cfg.height <= 0 {
		return nil
	}
	f, err := b.newFrame(in)
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer f.release()
	debug := in.Render.Clamped().DebugMode != settings.DebugShaded

	g := framegraph.NewGraph(framegraph.WithStrictBarriers(b.cfg.strict), framegraph.WithProfiler(b.cfg.profiler))
	BuildFrameGraph(g, b.framePasses(f), debug)

	frame, err := g.Compile()
	if err != nil {
		return fmt.Errorf("renderer: compile frame: %w", err)
	}
	b.passes = g.Passes()
	b.resize.begin(frame)
	defer b.resize.end(frame)

	if err := frame.Execute(ctx); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	for _, m := range b.meshes {
		m.skinned.Advance()
	}
	if b.cfg.profiler != nil {
		b.cfg.profiler.Tick()
	}
	return nil
}

// newFrame snapshots the light sets, uploads the frame uniforms and opens the frame's command
// encoder.
func (b *wgpuRendererBackend) newFrame(in FrameInput) (*wgpuFrame, error) {
	f := &wgpuFrame{
		in:     in,
		state:  in.State,
		filter: drawFilter{opts: in.Options},
		lights: in.Lights,
	}
	if f.state == nil && b.model != nil && b.model.Skeleton() != nil {
		f.state = skeleton.RestFrameState(b.model.Skeleton())
	}
	if f.state != nil && f.state.Len() > max(b.boneCount, 1) {
		return nil, fmt.Errorf("frame state has %d bones, the model has %d", f.state.Len(), b.boneCount)
	}
	if f.lights == nil {
		f.lights = light.NewSelector()
	}
	f.sets = f.lights.Sets()
	if b.model != nil {
		bounds := b.model.Bounds()
		for i := range f.sets {
			f.sets[i] = f.sets[i].Fit(bounds)
		}
	}

	cam := camera.GPUCameraUniform{ViewProj: in.ViewProjection, Position: in.CameraPosition}
	b.queue.WriteBuffer(b.cameraBuffer, 0, cam.Marshal())
	b.queue.WriteBuffer(b.settingsBuffer, 0, in.Render.Clamped().Marshal())
	t := b.chain.BloomThreshold
	b.queue.WriteBuffer(b.bloomBuffer, 0, postfx.MarshalBloom(b.cfg.bloom, in.Render.RenderBloom, t.Width, t.Height))

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	f.encoder = encoder
	return f, nil
}

func (b *wgpuRendererBackend) framePasses(f *wgpuFrame) FramePasses {
	p := FramePasses{
		Skinning:         func(ctx context.Context) error { return b.skin(f) },
		Renormal:         func(ctx context.Context) error { return b.renormal(f) },
		Debug:            func(ctx context.Context) error { return b.drawDebug(f) },
		ShadowDepth:      func(ctx context.Context) error { return b.drawShadowDepth(f) },
		VarianceShadow:   func(ctx context.Context) error { return b.varianceShadow(f) },
		FloorGrid:        func(ctx context.Context) error { return b.drawFloorGrid(f) },
		OutlineMask:      func(ctx context.Context) error { return b.drawOutlineMask(f) },
		BloomThreshold:   func(ctx context.Context) error { return b.bloomThreshold(f) },
		BloomCombine:     func(ctx context.Context) error { return b.bloomCombine(f) },
		BloomUpscale:     func(ctx context.Context) error { return b.bloomUpscale(f) },
		PostProcess:      func(ctx context.Context) error { return b.postProcess(f) },
		OutlineComposite: func(ctx context.Context) error { return b.outlineComposite(f) },
		Skeleton:         func(ctx context.Context) error { return b.drawSkeleton(f) },
		Present:          func(ctx context.Context) error { return b.present(f) },
	}
	for rp := model.PassOpaque; rp <= model.PassNear; rp++ {
		p.Model[rp] = func(ctx context.Context) error { return b.drawModel(f, rp) }
	}
	for i := range p.BloomBlur {
		p.BloomBlur[i] = func(ctx context.Context) error { return b.bloomBlur(f, i) }
	}
	return p
}

func (b *wgpuRendererBackend) Output() *postfx.Image {
	return nil
}

func (b *wgpuRendererBackend) Passes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.passes...)
}

func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseModel()
	b.model = nil
	for slot, s := range b.shadows {
		s.Release()
		delete(b.shadows, slot)
	}
	groups := []bind_group_provider.BindGroupProvider{
		b.frameGroup, b.debugFrameGroup, b.maskFrameGroup, b.gridFrameGroup, b.skeletonFrameGroup,
	}
	for _, g := range groups {
		if g != nil {
			g.Release()
		}
	}
	for _, buf := range []*wgpu.Buffer{b.cameraBuffer, b.settingsBuffer, b.bloomBuffer, b.postBuffer, b.outlineBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	for _, s := range []*wgpu.Sampler{b.materialSampler, b.linearSampler} {
		if s != nil {
			s.Release()
		}
	}
	b.white.Release()
	b.lut.Release()
	if b.targets != nil {
		b.targets.Release()
		b.targets = nil
	}
	if b.pipelines != nil {
		b.pipelines.Release()
		b.pipelines = nil
	}
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
