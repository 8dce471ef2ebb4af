package model

// AdjacencyPairs is the number of neighbor pairs stored per vertex.
const AdjacencyPairs = 9

// NoNeighbor marks an unused adjacency entry.
const NoNeighbor int32 = -1

// AdjacencyEntry holds up to AdjacencyPairs (b, c) pairs for a vertex i. Each pair closes a
// triangle (i, b, c) in the mesh's winding order.
type AdjacencyEntry [AdjacencyPairs][2]int32

// Adjacency is the per-vertex neighbor table consumed by normal smoothing.
// It is built once at load time and never modified afterwards.
type Adjacency []AdjacencyEntry

// BuildAdjacency walks a triangle list and records, for every corner, the two other corners
// of the triangle in winding order. Only the first AdjacencyPairs triangles of a vertex are kept.
// Triangles that reference a vertex outside [0, vertexCount) are skipped, as is a trailing
// partial triangle.
//
// Parameters:
//   - indices: the triangle list
//   - vertexCount: the number of vertices the indices address
//
// Returns:
//   - Adjacency: one entry per vertex, unused pairs set to NoNeighbor
func BuildAdjacency(indices []uint32, vertexCount int) Adjacency {
	adj := make(Adjacency, vertexCount)
	for i := range adj {
		for k := range adj[i] {
			adj[i][k] = [2]int32{NoNeighbor, NoNeighbor}
		}
	}
	counts := make([]int, vertexCount)

	for t := 0; t+2 < len(indices); t += 3 {
		tri := [3]uint32{indices[t], indices[t+1], indices[t+2]}
		if int(tri[0]) >= vertexCount || int(tri[1]) >= vertexCount || int(tri[2]) >= vertexCount {
			continue
		}
		for corner := 0; corner < 3; corner++ {
			v := tri[corner]
			if counts[v] >= AdjacencyPairs {
				continue
			}
			b := tri[(corner+1)%3]
			c := tri[(corner+2)%3]
			adj[v][counts[v]] = [2]int32{int32(b), int32(c)}
			counts[v]++
		}
	}
	return adj
}

// Flatten returns the table as 2*AdjacencyPairs int32 values per vertex for GPU upload.
func (a Adjacency) Flatten() []int32 {
	out := make([]int32, 0, len(a)*AdjacencyPairs*2)
	for _, e := range a {
		for _, p := range e {
			out = append(out, p[0], p[1])
		}
	}
	return out
}
