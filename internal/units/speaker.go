package units

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
)

// Consistency bands over the 0-100 score.
const (
	consistencyVeryHigh = 80.0
	consistencyHigh     = 60.0
	consistencyMid      = 40.0

	minSpeechesForConsistency = 3
)

// Speaker measures per-speaker behavior: how thematically consistent each
// speaker's interventions are, and how verbose they are.
type Speaker struct{}

func (Speaker) Describe() analysis.Descriptor {
	return analysis.Descriptor{
		Name:        "speaker",
		Description: "Speaker consistency and verbosity metrics",
		Version:     "1.0",
		Features: []analysis.Feature{
			{Name: "consistency", Enabled: true},
			{Name: "verbosity", Enabled: true},
		},
		Dependencies: []analysis.Resource{analysis.ResourceEmbeddings},
	}
}

func (Speaker) Compute(b *analysis.Base) (analysis.Result, error) {
	out := analysis.Result{}

	if b.IsFeatureEnabled("consistency") {
		out["consistency"] = consistencyScores(b)
	}
	if b.IsFeatureEnabled("verbosity") {
		out["verbosity"] = verbosityScores(b)
	}
	return out, nil
}

// consistencyScores rates each speaker with at least three speeches on a
// 0-100 scale. The score compares the variance of the speaker's distances to
// their own centroid against the corpus-wide variance of distances to the
// global centroid: a speaker whose speeches spread as widely as the whole
// corpus scores 0, one who always says the same thing scores near 100.
func consistencyScores(b *analysis.Base) []any {
	globalMean := b.Embeddings.Mean()
	n := b.Table.Len()

	globalDists := make([]float64, n)
	for i := 0; i < n; i++ {
		globalDists[i] = floats.Distance(b.Embeddings.Row(i), globalMean, 2)
	}
	corpusVar := stat.Variance(globalDists, nil)

	var records []any
	for _, speaker := range b.Table.Speakers() {
		mask := b.Table.Mask(func(s corpus.Speech) bool { return s.Speaker == speaker })
		count := 0
		party := ""
		for i, keep := range mask {
			if keep {
				if count == 0 {
					party = b.Table.Speech(i).Party
				}
				count++
			}
		}
		if count < minSpeechesForConsistency {
			continue
		}

		own := b.Embeddings.MeanRows(mask)
		var dists []float64
		for i, keep := range mask {
			if keep {
				dists = append(dists, floats.Distance(b.Embeddings.Row(i), own, 2))
			}
		}

		speakerVar := stat.Variance(dists, nil)
		score := 100.0
		if corpusVar > 0 {
			score = 100 * (1 - speakerVar/corpusVar)
			if score < 0 {
				score = 0
			}
			if score > 100 {
				score = 100
			}
		}

		records = append(records, map[string]any{
			"speaker":           speaker,
			"party":             party,
			"n_speeches":        count,
			"consistency_score": round2(score),
			"band":              consistencyBand(score),
		})
	}
	return records
}

func consistencyBand(score float64) string {
	switch {
	case score >= consistencyVeryHigh:
		return "very_consistent"
	case score >= consistencyHigh:
		return "consistent"
	case score >= consistencyMid:
		return "variable"
	default:
		return "inconsistent"
	}
}

// verbosityScores ranks speakers by average speech length in words.
func verbosityScores(b *analysis.Base) []any {
	type acc struct {
		words int
		count int
		party string
	}
	totals := make(map[string]*acc)
	order := b.Table.Speakers()

	for i := 0; i < b.Table.Len(); i++ {
		s := b.Table.Speech(i)
		a, ok := totals[s.Speaker]
		if !ok {
			a = &acc{party: s.Party}
			totals[s.Speaker] = a
		}
		a.words += len(strings.Fields(s.Text))
		a.count++
	}

	records := make([]map[string]any, 0, len(order))
	for _, speaker := range order {
		a := totals[speaker]
		records = append(records, map[string]any{
			"speaker":     speaker,
			"party":       a.party,
			"n_speeches":  a.count,
			"avg_words":   round2(float64(a.words) / float64(a.count)),
			"total_words": a.words,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		wi := records[i]["avg_words"].(float64)
		wj := records[j]["avg_words"].(float64)
		if wi != wj {
			return wi > wj
		}
		return records[i]["speaker"].(string) < records[j]["speaker"].(string)
	})

	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
