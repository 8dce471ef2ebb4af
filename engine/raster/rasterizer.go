package raster

import (
	"context"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/kernel"
	"github.com/Carmen-Shannon/oxy-viewer/engine/material"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultTileSize is the edge length in pixels of a raster tile.
const DefaultTileSize = 32

// Rasterizer draws clip space triangles into a Target.
type Rasterizer interface {
	// Draw rasterizes tris with the given state. shade is called concurrently for fragments of
	// different tiles and must not mutate shared state; a nil shade writes depth only.
	//
	// Parameters:
	//   - ctx: cancels tiles that have not started
	//   - target: the attachments to write
	//   - tris: the triangles in submission order
	//   - state: the fixed function state
	//   - shade: the fragment function, or nil
	//
	// Returns:
	//   - error: if the target has no attachment or ctx is cancelled
	Draw(ctx context.Context, target Target, tris []Triangle, state State, shade ShadeFunc) error

	// TileSize returns the tile edge length in pixels.
	TileSize() int
}

type rasterizer struct {
	dispatcher kernel.Dispatcher
	tileSize   int
}

var _ Rasterizer = &rasterizer{}

// NewRasterizer creates a tiled rasterizer. Without WithDispatcher it creates its own worker pool.
//
// Parameters:
//   - opts: optional builder options
//
// Returns:
//   - Rasterizer: the rasterizer
func NewRasterizer(opts ...RasterizerBuilderOption) Rasterizer {
	r := &rasterizer{tileSize: DefaultTileSize}
	for _, opt := range opts {
		opt(r)
	}
	if r.dispatcher == nil {
		r.dispatcher = kernel.NewDispatcher()
	}
	return r
}

func (r *rasterizer) TileSize() int {
	return r.tileSize
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	bary    mgl32.Vec3
}

type setupTri struct {
	v                      [3]screenVertex
	area                   float32
	topLeft                [3]bool
	edgeLen                [3]float32
	minX, minY, maxX, maxY int
	primitive              int
	front                  bool
}

// setupResult holds the fan of a clipped triangle.
type setupResult struct {
	tris [maxClipVertices - 2]setupTri
	n    int
}

func (r *rasterizer) Draw(ctx context.Context, target Target, tris []Triangle, state State, shade ShadeFunc) error {
	width, height := target.Size()
	if width == 0 {
		return fmt.Errorf("raster: draw: target has no attachment")
	}
	if len(tris) == 0 {
		return ctx.Err()
	}

	setups := make([]setupResult, len(tris))
	err := r.dispatcher.Dispatch(ctx, len(tris), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			setups[i] = setup(tris[i], state.Cull, width, height)
		}
	})
	if err != nil {
		return fmt.Errorf("raster: setup: %w", err)
	}

	tilesX := common.CeilDiv(width, r.tileSize)
	tilesY := common.CeilDiv(height, r.tileSize)
	var prims []setupTri
	bins := make([][]int32, tilesX*tilesY)
	for i := range setups {
		for k := 0; k < setups[i].n; k++ {
			t := setups[i].tris[k]
			idx := int32(len(prims))
			prims = append(prims, t)
			for ty := t.minY / r.tileSize; ty <= t.maxY/r.tileSize; ty++ {
				for tx := t.minX / r.tileSize; tx <= t.maxX/r.tileSize; tx++ {
					bins[ty*tilesX+tx] = append(bins[ty*tilesX+tx], idx)
				}
			}
		}
	}

	err = r.dispatcher.Each(ctx, len(bins), func(tile int) {
		x0 := (tile % tilesX) * r.tileSize
		y0 := (tile / tilesX) * r.tileSize
		x1 := min(x0+r.tileSize, width) - 1
		y1 := min(y0+r.tileSize, height) - 1
		for _, idx := range bins[tile] {
			rasterizeTri(&prims[idx], x0, y0, x1, y1, target, state, shade)
		}
	})
	if err != nil {
		return fmt.Errorf("raster: draw: %w", err)
	}
	return nil
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (px-ax)*(by-ay) - (py-ay)*(bx-ax)
}

// isTopLeft reports whether pixels exactly on the edge a->b belong to the triangle.
func isTopLeft(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx < 0) || dy > 0
}

// setup clips, projects and culls one triangle.
func setup(t Triangle, cull material.CullMode, width, height int) setupResult {
	var res setupResult
	poly := clipNearFar(t)
	if poly.n == 0 {
		return res
	}

	var sv [maxClipVertices]screenVertex
	for i := 0; i < poly.n; i++ {
		p := poly.v[i].pos
		if p[3] <= 1e-6 {
			return res
		}
		invW := 1 / p[3]
		sv[i] = screenVertex{
			x:    (p[0]*invW*0.5 + 0.5) * float32(width),
			y:    (0.5 - p[1]*invW*0.5) * float32(height),
			z:    p[2] * invW,
			invW: invW,
			bary: poly.v[i].bary,
		}
	}

	for i := 1; i+1 < poly.n; i++ {
		st, ok := setupScreenTri([3]screenVertex{sv[0], sv[i], sv[i+1]}, cull, width, height)
		if !ok {
			continue
		}
		st.primitive = t.Primitive
		res.tris[res.n] = st
		res.n++
	}
	return res
}

func setupScreenTri(v [3]screenVertex, cull material.CullMode, width, height int) (setupTri, bool) {
	area := edge(v[0].x, v[0].y, v[1].x, v[1].y, v[2].x, v[2].y)
	if float32(math.Abs(float64(area))) < 1e-10 {
		return setupTri{}, false
	}
	front := area > 0
	switch {
	case cull == material.CullBack && !front:
		return setupTri{}, false
	case cull == material.CullFront && front:
		return setupTri{}, false
	}
	if !front {
		v[1], v[2] = v[2], v[1]
		area = -area
	}

	minX := min(v[0].x, v[1].x, v[2].x)
	maxX := max(v[0].x, v[1].x, v[2].x)
	minY := min(v[0].y, v[1].y, v[2].y)
	maxY := max(v[0].y, v[1].y, v[2].y)
	st := setupTri{
		v:     v,
		area:  area,
		front: front,
		minX:  common.Clamp(int(math.Floor(float64(minX))), 0, width-1),
		maxX:  common.Clamp(int(math.Ceil(float64(maxX))), 0, width-1),
		minY:  common.Clamp(int(math.Floor(float64(minY))), 0, height-1),
		maxY:  common.Clamp(int(math.Ceil(float64(maxY))), 0, height-1),
	}
	if maxX < 0 || maxY < 0 || minX > float32(width) || minY > float32(height) {
		return setupTri{}, false
	}

	// edge i is opposite vertex i
	for i := 0; i < 3; i++ {
		a, b := v[(i+1)%3], v[(i+2)%3]
		st.topLeft[i] = isTopLeft(a, b)
		st.edgeLen[i] = float32(math.Hypot(float64(b.x-a.x), float64(b.y-a.y)))
	}
	return st, true
}

func rasterizeTri(t *setupTri, x0, y0, x1, y1 int, target Target, state State, shade ShadeFunc) {
	minX, maxX := max(t.minX, x0), min(t.maxX, x1)
	minY, maxY := max(t.minY, y0), min(t.maxY, y1)
	if minX > maxX || minY > maxY {
		return
	}
	invArea := 1 / t.area
	width, _ := target.Size()

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5

			var w [3]float32
			inside := true
			for i := 0; i < 3; i++ {
				a, b := t.v[(i+1)%3], t.v[(i+2)%3]
				w[i] = edge(a.x, a.y, b.x, b.y, px, py)
				if w[i] < 0 || (w[i] == 0 && !t.topLeft[i]) {
					inside = false
					break
				}
			}
			if !inside {
				continue
			}
			if state.Wireframe && !nearEdge(t, w) {
				continue
			}

			l := mgl32.Vec3{w[0] * invArea, w[1] * invArea, w[2] * invArea}
			depth := l[0]*t.v[0].z + l[1]*t.v[1].z + l[2]*t.v[2].z
			i := y*width + x
			if state.DepthTest && target.Depth != nil && depth >= target.Depth.Values[i] {
				continue
			}

			if shade != nil {
				frag := Fragment{
					X:           x,
					Y:           y,
					Depth:       depth,
					Bary:        perspectiveBary(t, l),
					Primitive:   t.primitive,
					FrontFacing: t.front,
				}
				c, keep := shade(frag)
				if !keep {
					continue
				}
				if target.Color != nil {
					target.Color.Pix[i] = blend(state.Blend, target.Color.Pix[i], c)
				}
			}
			if state.DepthWrite && target.Depth != nil {
				target.Depth.Values[i] = depth
			}
		}
	}
}

func nearEdge(t *setupTri, w [3]float32) bool {
	for i := 0; i < 3; i++ {
		if t.edgeLen[i] > 0 && w[i]/t.edgeLen[i] < 1 {
			return true
		}
	}
	return false
}

// perspectiveBary converts screen linear weights into weights over the source triangle's
// vertices, corrected for perspective.
func perspectiveBary(t *setupTri, l mgl32.Vec3) mgl32.Vec3 {
	var b mgl32.Vec3
	var sum float32
	for i := 0; i < 3; i++ {
		k := l[i] * t.v[i].invW
		b = b.Add(t.v[i].bary.Mul(k))
		sum += k
	}
	if sum == 0 {
		return b
	}
	return b.Mul(1 / sum)
}
