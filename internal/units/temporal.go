package units

import (
	"sort"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
)

// Temporal tracks speech volume over time, overall and per party. It needs
// only the table itself, so it runs even when embeddings are absent.
type Temporal struct{}

func (Temporal) Describe() analysis.Descriptor {
	return analysis.Descriptor{
		Name:        "temporal",
		Description: "Monthly speech volume, overall and per party",
		Version:     "1.0",
		Features: []analysis.Feature{
			{Name: "trends", Enabled: true},
		},
	}
}

func (Temporal) Compute(b *analysis.Base) (analysis.Result, error) {
	if !b.IsFeatureEnabled("trends") {
		return analysis.Result{}, nil
	}

	volume := make(map[string]int)
	byParty := make(map[string]map[string]int)

	for i := 0; i < b.Table.Len(); i++ {
		s := b.Table.Speech(i)
		if s.Date.IsZero() {
			continue
		}
		month := s.Date.Format("2006-01")
		volume[month]++
		if byParty[s.Party] == nil {
			byParty[s.Party] = make(map[string]int)
		}
		byParty[s.Party][month]++
	}

	months := make([]string, 0, len(volume))
	for m := range volume {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]any, 0, len(months))
	for _, m := range months {
		series = append(series, map[string]any{"month": m, "n_speeches": volume[m]})
	}

	perParty := make(map[string]any, len(byParty))
	for party, counts := range byParty {
		partySeries := make([]any, 0, len(months))
		for _, m := range months {
			if n, ok := counts[m]; ok {
				partySeries = append(partySeries, map[string]any{"month": m, "n_speeches": n})
			}
		}
		perParty[party] = partySeries
	}

	return analysis.Result{
		"volume":   series,
		"by_party": perParty,
	}, nil
}
