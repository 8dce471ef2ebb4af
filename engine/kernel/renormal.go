package kernel

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// SmoothNormal computes the area-weighted normal of vertex i from its adjacency entry.
// Pairs with a negative or out-of-range index are skipped.
//
// Parameters:
//   - positions: the skinned positions of the whole mesh object
//   - i: the vertex index
//   - entry: the vertex's adjacency entry
//
// Returns:
//   - mgl32.Vec3: the smoothed unit normal
//   - bool: false if no pair contributed or the sum is degenerate
func SmoothNormal(positions []mgl32.Vec3, i int, entry model.AdjacencyEntry) (mgl32.Vec3, bool) {
	n := len(positions)
	if i < 0 || i >= n {
		return mgl32.Vec3{}, false
	}
	p := positions[i]
	var sum mgl32.Vec3
	for _, pair := range entry {
		b, c := int(pair[0]), int(pair[1])
		if b < 0 || c < 0 || b >= n || c >= n {
			continue
		}
		sum = sum.Add(positions[b].Sub(p).Cross(positions[c].Sub(p)))
	}
	l := sum.Len()
	if l <= 1e-12 {
		return mgl32.Vec3{}, false
	}
	return sum.Mul(1 / l), true
}

// SmoothNormals overwrites the normals of vertices with values recomputed from the adjacency
// table. Positions are read from a snapshot taken before any normal is written, so the result
// does not depend on chunk scheduling. Vertices without a usable adjacency keep their normal.
// The caller must have finished skinning the whole buffer before calling.
//
// Parameters:
//   - ctx: the dispatch context
//   - d: the dispatcher running the kernel
//   - vertices: the skinned vertices, modified in place
//   - adj: the mesh object's adjacency table
//
// Returns:
//   - error: the dispatch context error
func SmoothNormals(ctx context.Context, d Dispatcher, vertices []model.Vertex, adj model.Adjacency) error {
	positions := make([]mgl32.Vec3, len(vertices))
	for i := range vertices {
		positions[i] = vertices[i].Position
	}
	n := min(len(vertices), len(adj))
	if err := d.Dispatch(ctx, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if nrm, ok := SmoothNormal(positions, i, adj[i]); ok {
				vertices[i].Normal = nrm
			}
		}
	}); err != nil {
		return fmt.Errorf("kernel: smooth normals: %w", err)
	}
	return nil
}
