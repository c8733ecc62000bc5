// Package units contains the concrete computation units: party relations,
// faction detection, speaker behavior, topic metrics and temporal trends.
package units

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/centroid"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/embed"
)

// Cohesion bands.
const (
	cohesionHighThreshold = 0.7
	cohesionLowThreshold  = 0.4

	CohesionCompact    = "compatto"
	CohesionModerate   = "moderato"
	CohesionFragmented = "frammentato"
)

// Relations measures how parties hold together internally (cohesion) and how
// close they sit to one another (affinity).
type Relations struct{}

func (Relations) Describe() analysis.Descriptor {
	return analysis.Descriptor{
		Name:        "relations",
		Description: "Party cohesion and inter-party affinity from embedding geometry",
		Version:     "1.0",
		Features: []analysis.Feature{
			{Name: "cohesion", Enabled: true},
			{Name: "affinity", Enabled: true},
		},
		Dependencies: []analysis.Resource{analysis.ResourceEmbeddings},
	}
}

func (Relations) Compute(b *analysis.Base) (analysis.Result, error) {
	scorer := centroid.NewScorer(b.Columns.Party)
	centroids := scorer.Centroids(b.Table, b.Embeddings)
	parties := centroid.GroupNames(centroids)

	out := analysis.Result{}

	if b.IsFeatureEnabled("cohesion") {
		cohesion := make(map[string]any, len(parties))
		for _, party := range parties {
			mask := b.Table.Mask(func(s corpus.Speech) bool { return s.Party == party })
			dists := memberDistances(b, mask, centroids[party])
			if len(dists) == 0 {
				continue
			}

			avg := stat.Mean(dists, nil)
			std := 0.0
			if len(dists) > 1 {
				std = stat.StdDev(dists, nil)
			}
			score := centroid.Conformity(avg)

			cohesion[party] = map[string]any{
				"cohesion_score": round4(score),
				"avg_distance":   round4(avg),
				"std_distance":   round4(std),
				"n_speeches":     len(dists),
				"band":           cohesionBand(score),
			}
		}
		out["cohesion"] = cohesion
	}

	if b.IsFeatureEnabled("affinity") {
		affinity := make(map[string]any, len(parties))
		for _, a := range parties {
			row := make(map[string]any, len(parties)-1)
			for _, other := range parties {
				if other == a {
					continue
				}
				row[other] = round4(embed.CosineSimilarity(centroids[a], centroids[other]))
			}
			affinity[a] = row
		}
		out["affinity"] = affinity
	}

	return out, nil
}

// cohesionBand maps a cohesion score to its qualitative band.
func cohesionBand(score float64) string {
	switch {
	case score > cohesionHighThreshold:
		return CohesionCompact
	case score < cohesionLowThreshold:
		return CohesionFragmented
	default:
		return CohesionModerate
	}
}

// memberDistances returns the distance of each masked row to the centroid.
func memberDistances(b *analysis.Base, mask []bool, center []float64) []float64 {
	var dists []float64
	for i, keep := range mask {
		if keep {
			dists = append(dists, floats.Distance(b.Embeddings.Row(i), center, 2))
		}
	}
	return dists
}
