package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-viewer/engine/kernel"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/Carmen-Shannon/oxy-viewer/engine/overlay"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postfx"
	"github.com/Carmen-Shannon/oxy-viewer/engine/raster"
	"github.com/Carmen-Shannon/oxy-viewer/engine/settings"
	"github.com/Carmen-Shannon/oxy-viewer/engine/shading"
	"github.com/Carmen-Shannon/oxy-viewer/engine/shadow"
	"github.com/Carmen-Shannon/oxy-viewer/engine/skeleton"

	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/go-gl/mathgl/mgl32"
)

// softwareRendererBackend renders frames on the CPU. Compute passes run on the kernel worker
// pool and render passes on the tiled rasterizer, which shares the pool.
type softwareRendererBackend struct {
	mu *sync.Mutex

	cfg        backendConfig
	chain      TargetChain
	dispatcher kernel.Dispatcher
	rasterizer raster.Rasterizer

	model  model.Model
	meshes []*softwareMesh

	resize *resizeGate
	output *postfx.Image
	passes []string
}

var _ RendererBackend = &softwareRendererBackend{}

// softwareFrame holds the transient targets of one frame. Each pass fills in the targets it
// writes; later passes only read them.
type softwareFrame struct {
	in       FrameInput
	state    *skeleton.FrameState
	filter   drawFilter
	vertices [][]model.Vertex
	slots    []int

	sets       []light.LightSet
	transforms []mgl32.Mat4
	shadow     map[int]*raster.DepthBuffer
	variance   map[int]*shadow.MomentMap

	color     *postfx.Image
	depth     *raster.DepthBuffer
	mask      *postfx.Mask
	threshold *postfx.Image
	mips      [postfx.BloomMipCount]*postfx.Image
	combine   *postfx.Image
	upscale   *postfx.Image
	post      *postfx.Image
	outlined  *postfx.Image
}

func newSoftwareRendererBackend(cfg backendConfig) *softwareRendererBackend {
	opts := []kernel.DispatcherBuilderOption{}
	if cfg.workers > 0 {
		opts = append(opts, kernel.WithWorkers(cfg.workers))
	}
	d := kernel.NewDispatcher(opts...)
	b := &softwareRendererBackend{
		mu:         &sync.Mutex{},
		cfg:        cfg,
		dispatcher: d,
		rasterizer: raster.NewRasterizer(raster.WithDispatcher(d)),
		chain:      NewTargetChain(cfg.width, cfg.height, cfg.scale),
		resize:     newResizeGate(),
	}
	common.Logger().Info("software backend ready", "workers", d.Workers(), "size", b.chain.Color)
	return b
}

func (b *softwareRendererBackend) SetModel(m model.Model) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.model = m
	b.meshes = nil
	if m == nil {
		return nil
	}

	textures := newTextureCache(m)
	for i, obj := range m.MeshObjects() {
		mat := m.Material(obj.MaterialLabel)
		b.meshes = append(b.meshes, &softwareMesh{
			index:    i,
			obj:      obj,
			mat:      mat,
			uniforms: m.Uniforms(obj),
			textures: textures.textureSet(mat),
			skinned: framegraph.NewPingPong(
				make([]model.Vertex, len(obj.Vertices)),
				make([]model.Vertex, len(obj.Vertices)),
			),
		})
	}
	common.Logger().Info("model uploaded", "model", m.Name(), "mesh_objects", len(b.meshes), "textures", len(textures.images))
	return nil
}

// Resize does not wait for a running frame. The size is applied when the next frame starts.
func (b *softwareRendererBackend) Resize(width, height int) {
	b.resize.request(width, height)
}

// applySize rebuilds the target chain for a pending resize. Callers hold b.mu.
func (b *softwareRendererBackend) applySize() {
	width, height, ok := b.resize.take()
	if !ok {
		return
	}
	b.cfg.width, b.cfg.height = width, height
	b.chain = NewTargetChain(width, height, b.cfg.scale)
	common.Logger().Debug("target chain rebuilt", "color", b.chain.Color, "bloom_threshold", b.chain.BloomThreshold)
}

func (b *softwareRendererBackend) SetPresentMode(PresentMode) {}

func (b *softwareRendererBackend) RenderFrame(ctx context.Context, in FrameInput) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.applySize()
	f := b.newFrame(in)
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

func (b *softwareRendererBackend) newFrame(in FrameInput) *softwareFrame {
	f := &softwareFrame{
		in:       in,
		state:    in.State,
		filter:   drawFilter{opts: in.Options},
		vertices: make([][]model.Vertex, len(b.meshes)),
		slots:    make([]int, len(b.meshes)),
		shadow:   make(map[int]*raster.DepthBuffer),
		variance: make(map[int]*shadow.MomentMap),
	}
	if f.state == nil && b.model != nil && b.model.Skeleton() != nil {
		f.state = skeleton.RestFrameState(b.model.Skeleton())
	}

	lights := in.Lights
	if lights == nil {
		lights = light.NewSelector()
	}
	bounds := b.modelBounds()
	f.sets = lights.Sets()
	f.transforms = make([]mgl32.Mat4, len(f.sets))
	for i := range f.sets {
		if bounds != (dvec3.Box{}) {
			f.sets[i] = f.sets[i].Fit(bounds)
		}
		f.transforms[i] = f.sets[i].Transform()
	}
	for i, m := range b.meshes {
		f.slots[i] = lights.Slot(m.obj.LightSet)
		f.vertices[i] = m.skinned.Current()
	}
	return f
}

func (b *softwareRendererBackend) framePasses(f *softwareFrame) FramePasses {
	p := FramePasses{
		Skinning:         func(ctx context.Context) error { return b.skin(ctx, f) },
		Renormal:         func(ctx context.Context) error { return b.renormal(ctx, f) },
		Debug:            func(ctx context.Context) error { return b.drawDebug(ctx, f) },
		ShadowDepth:      func(ctx context.Context) error { return b.drawShadowDepth(ctx, f) },
		VarianceShadow:   func(ctx context.Context) error { return b.varianceShadow(f) },
		OutlineMask:      func(ctx context.Context) error { return b.drawOutlineMask(ctx, f) },
		BloomThreshold:   func(ctx context.Context) error { return b.bloomThreshold(f) },
		BloomCombine:     func(ctx context.Context) error { return b.bloomCombine(f) },
		BloomUpscale:     func(ctx context.Context) error { return b.bloomUpscale(f) },
		PostProcess:      func(ctx context.Context) error { return b.postProcess(f) },
		OutlineComposite: func(ctx context.Context) error { return b.outlineComposite(f) },
		FloorGrid:        func(ctx context.Context) error { return b.drawFloorGrid(ctx, f) },
		Skeleton:         func(ctx context.Context) error { return b.drawSkeleton(ctx, f) },
		Present: func(ctx context.Context) error {
			b.output = f.outlined
			return nil
		},
	}
	for rp := model.PassOpaque; rp <= model.PassNear; rp++ {
		p.Model[rp] = func(ctx context.Context) error { return b.drawModel(ctx, f, rp) }
	}
	for i := range p.BloomBlur {
		p.BloomBlur[i] = func(ctx context.Context) error { return b.bloomBlur(f, i) }
	}
	return p
}

func (b *softwareRendererBackend) modelBounds() dvec3.Box {
	if b.model == nil {
		return dvec3.Box{}
	}
	return b.model.Bounds()
}

func (b *softwareRendererBackend) skin(ctx context.Context, f *softwareFrame) error {
	for i, m := range b.meshes {
		if err := kernel.SkinMeshObject(ctx, b.dispatcher, m.obj, f.vertices[i], f.state, f.in.Skinning); err != nil {
			return err
		}
	}
	return nil
}

func (b *softwareRendererBackend) renormal(ctx context.Context, f *softwareFrame) error {
	for i, m := range b.meshes {
		if !m.obj.SmoothNormals {
			continue
		}
		if err := kernel.SmoothNormals(ctx, b.dispatcher, f.vertices[i], m.obj.Adjacency); err != nil {
			return err
		}
	}
	return nil
}

// shadowSlots returns the light set slots of every drawn mesh.
func (b *softwareRendererBackend) shadowSlots(f *softwareFrame) []int {
	seen := make(map[int]bool)
	var slots []int
	for i, m := range b.meshes {
		if f.filter.drawn(m.obj) && !seen[f.slots[i]] {
			seen[f.slots[i]] = true
			slots = append(slots, f.slots[i])
		}
	}
	return slots
}

// drawShadowDepth renders the positions of every shadow caster into one depth map per light
// set in use. No material is sampled.
func (b *softwareRendererBackend) drawShadowDepth(ctx context.Context, f *softwareFrame) error {
	state := raster.State{Cull: material.CullNone, DepthTest: true, DepthWrite: true}
	for _, slot := range b.shadowSlots(f) {
		depth := raster.NewDepthBuffer(b.chain.Shadow.Width, b.chain.Shadow.Height)
		for i, m := range b.meshes {
			if !m.obj.CastsShadow || !f.filter.drawn(m.obj) {
				continue
			}
			tris := triangles(f.vertices[i], m.obj.Indices, f.transforms[slot])
			if err := b.rasterizer.Draw(ctx, raster.Target{Depth: depth}, tris, state, nil); err != nil {
				return err
			}
		}
		f.shadow[slot] = depth
	}
	return nil
}

func (b *softwareRendererBackend) varianceShadow(f *softwareFrame) error {
	for slot, depth := range f.shadow {
		moments, err := shadow.FromDepth(depth.Values, depth.Width, depth.Height)
		if err != nil {
			return err
		}
		vsm := shadow.VarianceDownsample(moments)
		if vsm.Width != b.chain.VarianceShadow.Width || vsm.Height != b.chain.VarianceShadow.Height {
			vsm = shadow.Resample(vsm, b.chain.VarianceShadow.Width, b.chain.VarianceShadow.Height)
		}
		f.variance[slot] = vsm
	}
	return nil
}

// drawModel draws the meshes of one render pass with the forward shading function. The opaque
// pass clears the color and depth targets first.
func (b *softwareRendererBackend) drawModel(ctx context.Context, f *softwareFrame, rp model.RenderPass) error {
	if rp == model.PassOpaque {
		f.color = postfx.NewImage(b.chain.Color.Width, b.chain.Color.Height)
		f.color.Fill(b.cfg.backgroundColor())
		f.depth = raster.NewDepthBuffer(b.chain.Color.Width, b.chain.Color.Height)
	}

	rs := f.in.Render
	frustum := common.ExtractFrustum(f.in.ViewProjection)
	for _, m := range meshesInPass(b.meshes, rp, f.filter, f.in.CameraPosition) {
		if culled(m.obj, frustum) {
			continue
		}
		vertices, indices := f.vertices[m.index], m.obj.Indices
		slot := f.slots[m.index]
		env := f.sets[slot].Environment()
		variance, transform := f.variance[slot], f.transforms[slot]
		uniforms := m.uniforms

		shade := func(frag raster.Fragment) (mgl32.Vec4, bool) {
			in := interpolate(vertices, indices, frag, f.in.CameraPosition)
			in.Shadow = shadow.QueryWorld(variance, transform, in.Position)
			out := shading.Shade(in, &uniforms, m.textures, rs, env)
			return out.Color, !out.Discard
		}
		tris := triangles(vertices, indices, f.in.ViewProjection)
		target := raster.Target{Color: f.color, Depth: f.depth}
		if err := b.rasterizer.Draw(ctx, target, tris, drawState(m.mat, f.in.Options.DrawWireframe), shade); err != nil {
			return err
		}
	}
	return nil
}

// drawDebug draws every drawn mesh with the debug shading function straight into the output.
// Shadows, bloom, grading and outlines are skipped.
func (b *softwareRendererBackend) drawDebug(ctx context.Context, f *softwareFrame) error {
	out := postfx.NewImage(b.chain.Color.Width, b.chain.Color.Height)
	out.Fill(b.cfg.clearColor)
	depth := raster.NewDepthBuffer(b.chain.Color.Width, b.chain.Color.Height)

	rs := f.in.Render
	for rp := model.PassOpaque; rp <= model.PassNear; rp++ {
		for _, m := range meshesInPass(b.meshes, rp, f.filter, f.in.CameraPosition) {
			vertices, indices := f.vertices[m.index], m.obj.Indices
			uniforms := m.uniforms
			shade := func(frag raster.Fragment) (mgl32.Vec4, bool) {
				in := interpolate(vertices, indices, frag, f.in.CameraPosition)
				out := shading.ShadeDebug(in, &uniforms, m.textures, rs)
				return out.Color, !out.Discard
			}
			tris := triangles(vertices, indices, f.in.ViewProjection)
			if err := b.rasterizer.Draw(ctx, raster.Target{Color: out, Depth: depth}, tris, drawState(m.mat, f.in.Options.DrawWireframe), shade); err != nil {
				return err
			}
		}
	}
	b.output = out
	return nil
}

// drawOutlineMask renders the outlined meshes alone, with full alpha, and turns the coverage
// into the outline mask.
func (b *softwareRendererBackend) drawOutlineMask(ctx context.Context, f *softwareFrame) error {
	isolated := postfx.NewImage(b.chain.Color.Width, b.chain.Color.Height)
	depth := raster.NewDepthBuffer(b.chain.Color.Width, b.chain.Color.Height)
	state := raster.State{Cull: material.CullNone, DepthTest: true, DepthWrite: true}
	solid := func(raster.Fragment) (mgl32.Vec4, bool) {
		return mgl32.Vec4{1, 1, 1, 1}, true
	}
	for i, m := range b.meshes {
		if !f.filter.outlined(m.obj) {
			continue
		}
		tris := triangles(f.vertices[i], m.obj.Indices, f.in.ViewProjection)
		if err := b.rasterizer.Draw(ctx, raster.Target{Color: isolated, Depth: depth}, tris, state, solid); err != nil {
			return err
		}
	}
	f.mask = postfx.OutlineMask(isolated)
	return nil
}

func (b *softwareRendererBackend) bloomThreshold(f *softwareFrame) error {
	p := b.cfg.bloom
	p.Enabled = p.Enabled && f.in.Render.RenderBloom
	quarter := postfx.BoxDownsample(f.color, b.chain.BloomThreshold.Width, b.chain.BloomThreshold.Height)
	f.threshold = postfx.Threshold(quarter, p)
	return nil
}

func (b *softwareRendererBackend) bloomBlur(f *softwareFrame, i int) error {
	src := f.threshold
	if i > 0 {
		src = f.mips[i-1]
	}
	f.mips[i] = postfx.BlurDownsample(src)
	return nil
}

func (b *softwareRendererBackend) bloomCombine(f *softwareFrame) error {
	f.combine = postfx.Combine(f.mips[:], postfx.BloomWeights[:], b.chain.BloomCombine.Width, b.chain.BloomCombine.Height)
	return nil
}

func (b *softwareRendererBackend) bloomUpscale(f *softwareFrame) error {
	f.upscale = postfx.Resize(f.combine, b.chain.BloomUpscale.Width, b.chain.BloomUpscale.Height)
	return nil
}

func (b *softwareRendererBackend) postProcess(f *softwareFrame) error {
	f.post = postfx.PostProcess(f.color, f.upscale, b.cfg.lut, b.cfg.post)
	return nil
}

func (b *softwareRendererBackend) outlineComposite(f *softwareFrame) error {
	f.outlined = f.post
	o := b.cfg.outline
	dilated := postfx.Dilate(f.mask, o.Radius, o.Pattern)
	postfx.CompositeOutline(f.outlined, f.mask, dilated, o.Color)
	return nil
}

// overlayTriangles projects the indexed triangles of an overlay mesh with m.
func overlayTriangles(mesh overlay.Mesh, m mgl32.Mat4) []raster.Triangle {
	tris := make([]raster.Triangle, 0, len(mesh.Indices)/3)
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		var clip [3]mgl32.Vec4
		for k := range clip {
			clip[k] = m.Mul4x1(mesh.Vertices[mesh.Indices[i+k]].Position.Vec4(1))
		}
		tris = append(tris, raster.Triangle{Clip: clip, Primitive: i})
	}
	return tris
}

// drawFloorGrid blends the ground grid into the opaque pass output. Each fragment finds its
// ground point by casting the pixel's view ray, and the rays through the neighboring pixels
// give the line width.
func (b *softwareRendererBackend) drawFloorGrid(ctx context.Context, f *softwareFrame) error {
	if !f.in.Options.DrawFloorGrid {
		return nil
	}
	inv := f.in.ViewProjection.Inv()
	width, height := float32(f.color.Width), float32(f.color.Height)
	ground := func(x, y float32) (mgl32.Vec3, bool) {
		return overlay.GroundPoint(inv, mgl32.Vec2{2*x/width - 1, 1 - 2*y/height})
	}
	shade := func(frag raster.Fragment) (mgl32.Vec4, bool) {
		x, y := float32(frag.X)+0.5, float32(frag.Y)+0.5
		p, ok := ground(x, y)
		px, okX := ground(x+1, y)
		py, okY := ground(x, y+1)
		if !ok || !okX || !okY {
			return mgl32.Vec4{}, false
		}
		dx, dy := px.Sub(p), py.Sub(p)
		footprint := mgl32.Vec2{
			mgl32.Abs(dx[0]) + mgl32.Abs(dy[0]),
			mgl32.Abs(dx[2]) + mgl32.Abs(dy[2]),
		}
		c := overlay.GridColor(mgl32.Vec2{p[0], p[2]}, footprint)
		return c, c[3] > 0
	}
	state := raster.State{Cull: material.CullNone, Blend: material.BlendAlpha, DepthTest: true}
	tris := overlayTriangles(overlay.GridMesh(), f.in.ViewProjection)
	return b.rasterizer.Draw(ctx, raster.Target{Color: f.color, Depth: f.depth}, tris, state, shade)
}

// drawSkeleton draws the skeleton overlay over the outlined image. Depth is cleared first so
// bones stay visible inside the model.
func (b *softwareRendererBackend) drawSkeleton(ctx context.Context, f *softwareFrame) error {
	mesh := b.cfg.skeletonOverlay(b.model, f.state, f.in.Options)
	if mesh.Empty() {
		return nil
	}
	depth := raster.NewDepthBuffer(f.outlined.Width, f.outlined.Height)
	state := raster.State{Cull: material.CullNone, DepthTest: true, DepthWrite: true}
	shade := func(frag raster.Fragment) (mgl32.Vec4, bool) {
		return mesh.Vertices[mesh.Indices[frag.Primitive]].Color, true
	}
	tris := overlayTriangles(mesh, f.in.ViewProjection)
	return b.rasterizer.Draw(ctx, raster.Target{Color: f.outlined, Depth: depth}, tris, state, shade)
}

func (b *softwareRendererBackend) Output() *postfx.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

func (b *softwareRendererBackend) Passes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.passes...)
}

func (b *softwareRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meshes = nil
	b.model = nil
	b.output = nil
}
