package matcher

import (
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// indexSearchK is the number of approximate candidates fetched per query.
// The exact Euclidean distance is recomputed for each candidate, so a few
// extra candidates absorb HNSW recall misses near the threshold.
const indexSearchK = 4

// Index is an HNSW graph over a gallery for sub-linear nearest-neighbour
// lookup in large galleries. The linear Match is the reference semantics;
// the index only accelerates the candidate search.
type Index struct {
	graph   *hnsw.Graph[string]
	vectors map[string][]float64
	mu      sync.RWMutex
}

// NewIndex builds an HNSW index from a gallery.
func NewIndex(g Gallery) *Index {
	graph := hnsw.NewGraph[string]()
	graph.M = constants.HNSWMaxNeighbors
	graph.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // Standard HNSW formula
	graph.Distance = hnsw.EuclideanDistance

	vectors := make(map[string][]float64, len(g))
	for _, e := range g {
		if len(e.Vector) == 0 {
			continue
		}
		graph.Add(hnsw.MakeNode(e.Label, toFloat32(e.Vector)))
		vectors[e.Label] = e.Vector
	}

	return &Index{graph: graph, vectors: vectors}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Match resolves the query against the index with the same accept/reject
// semantics as the linear Match: inclusive threshold, deterministic
// tie-break on equal distances.
func (ix *Index) Match(query []float64, threshold float64) Result {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		return Result{Label: Unknown, Distance: maxDistance}
	}

	neighbors := ix.graph.Search(toFloat32(query), indexSearchK)

	best := Result{Label: Unknown, Distance: maxDistance}
	for _, n := range neighbors {
		vec, ok := ix.vectors[n.Key]
		if !ok {
			continue
		}
		// Recompute in float64; graph distances are float32 approximations.
		d := Distance(vec, query)
		if d < best.Distance || (d == best.Distance && n.Key < best.Label) {
			best.Label = n.Key
			best.Distance = d
			best.Known = true
		}
	}

	if !best.Known || best.Distance > threshold {
		return Result{Label: Unknown, Distance: best.Distance}
	}
	return best
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
