package corpus

import (
	"sync"

	"github.com/coder/hnsw"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// DefaultDuplicateThreshold marks two speeches as near-duplicates when their
// cosine similarity is at least this high. Stenographic reports repeat
// procedural formulas verbatim, so the bar is deliberately high.
const DefaultDuplicateThreshold = 0.97

// DedupIndex finds near-duplicate speeches with an HNSW index over their
// embeddings. Used at load time to flag re-scraped or repeated interventions.
type DedupIndex struct {
	mu        sync.Mutex
	graph     *hnsw.Graph[int64]
	primary   map[int64]int64 // duplicate id -> first-seen id
	threshold float32
}

// NewDedupIndex creates an embedding-based duplicate index.
// A threshold <= 0 falls back to DefaultDuplicateThreshold.
func NewDedupIndex(threshold float64) *DedupIndex {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	g := hnsw.NewGraph[int64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 32

	return &DedupIndex{
		graph:     g,
		primary:   make(map[int64]int64),
		threshold: float32(threshold),
	}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Add indexes one speech embedding. It returns the id of an earlier
// near-duplicate speech and true when one exists.
func (d *DedupIndex) Add(id int64, vec []float64) (primary int64, isDup bool) {
	if len(vec) == 0 {
		return 0, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// HNSW internals can panic on degenerate input; a broken dedup index
	// must not take down corpus loading.
	defer func() {
		if r := recover(); r != nil {
			logging.Error("hnsw panic recovered in dedup index", "error", r, "speech", id)
			primary, isDup = 0, false
		}
	}()

	if _, exists := d.graph.Lookup(id); exists {
		if p, ok := d.primary[id]; ok {
			return p, true
		}
		return 0, false
	}

	vec32 := toFloat32(vec)

	var bestMatch int64
	var bestSim float32
	found := false

	if d.graph.Len() > 0 {
		// CosineDistance returns distance (0 = identical, 2 = opposite):
		// sim = 1 - distance/2
		for _, n := range d.graph.Search(vec32, 5) {
			if len(n.Value) != len(vec32) {
				continue
			}
			sim := 1.0 - hnsw.CosineDistance(vec32, n.Value)/2.0
			if sim >= d.threshold && (!found || sim > bestSim) {
				bestSim = sim
				bestMatch = n.Key
				found = true
			}
		}
	}

	d.graph.Add(hnsw.MakeNode(id, vec32))

	if !found {
		return 0, false
	}

	// Chase the chain so every duplicate points at the first-seen speech.
	p := bestMatch
	if root, ok := d.primary[p]; ok {
		p = root
	}
	d.primary[id] = p
	return p, true
}

// Duplicates returns the duplicate -> primary mapping discovered so far.
func (d *DedupIndex) Duplicates() map[int64]int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[int64]int64, len(d.primary))
	for k, v := range d.primary {
		out[k] = v
	}
	return out
}
