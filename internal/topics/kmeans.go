package topics

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// defaultMaxIterations bounds Lloyd refinement; assignments typically
// stabilize much earlier on speech embeddings.
const defaultMaxIterations = 50

// KMeans partitions embeddings into a fixed number of topics. Deterministic
// for a fixed seed: initialization is k-means++ off a seeded generator and
// refinement is plain Lloyd iteration.
type KMeans struct {
	K       int
	Seed    int64
	MaxIter int
}

// NewKMeans returns a KMeans assigner with k clusters and the given seed.
func NewKMeans(k int, seed int64) *KMeans {
	return &KMeans{K: k, Seed: seed, MaxIter: defaultMaxIterations}
}

// Assign clusters the embeddings. Topic ids are 0..K-1; a cluster that ends
// up empty keeps its id with a zero centroid.
func (km *KMeans) Assign(ctx context.Context, m *corpus.Matrix) (*Assignment, error) {
	n := m.Rows()
	if km.K <= 0 {
		return nil, fmt.Errorf("topics: cluster count must be positive, got %d", km.K)
	}
	if n < km.K {
		return nil, fmt.Errorf("topics: %d embeddings for %d clusters", n, km.K)
	}

	maxIter := km.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	rng := rand.New(rand.NewSource(km.Seed))
	centers := km.seedCenters(m, rng)

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		for i := 0; i < n; i++ {
			row := m.Row(i)
			best := 0
			bestDist := math.Inf(1)
			for c, center := range centers {
				if d := floats.Distance(row, center, 2); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			logging.Debug("k-means converged", "iterations", iter+1)
			break
		}

		// Recompute centers; an empty cluster keeps its previous center so
		// it can still capture points in later iterations.
		for c := range centers {
			mask := make([]bool, n)
			count := 0
			for i, a := range assign {
				if a == c {
					mask[i] = true
					count++
				}
			}
			if count > 0 {
				centers[c] = m.MeanRows(mask)
			}
		}
	}

	ids := make([]int, km.K)
	for i := range ids {
		ids[i] = i
	}
	centroids, err := centroidsFor(m, assign, ids)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, a := range assign {
		counts[a]++
	}
	for _, id := range ids {
		logging.Debug("cluster size", "cluster", id, "speeches", counts[id])
	}

	return &Assignment{
		TopicIDs:  assign,
		IDs:       ids,
		Centroids: centroids,
	}, nil
}

// seedCenters picks initial centers k-means++ style: the first uniformly,
// each next with probability proportional to squared distance from the
// nearest already-chosen center.
func (km *KMeans) seedCenters(m *corpus.Matrix, rng *rand.Rand) [][]float64 {
	n := m.Rows()
	centers := make([][]float64, 0, km.K)
	centers = append(centers, m.Row(rng.Intn(n)))

	dists := make([]float64, n)
	for len(centers) < km.K {
		total := 0.0
		for i := 0; i < n; i++ {
			row := m.Row(i)
			best := math.Inf(1)
			for _, c := range centers {
				if d := floats.Distance(row, c, 2); d < best {
					best = d
				}
			}
			dists[i] = best * best
			total += dists[i]
		}

		if total == 0 {
			// All remaining points coincide with a center; any pick works.
			centers = append(centers, m.Row(rng.Intn(n)))
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		picked := n - 1
		for i, d := range dists {
			acc += d
			if acc >= target {
				picked = i
				break
			}
		}
		centers = append(centers, m.Row(picked))
	}
	return centers
}
