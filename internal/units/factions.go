package units

import (
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/centroid"
)

// Factions profiles each speaker against their party's ideological center and
// flags internal currents: the mainstream core, bridges leaning toward another
// party, and mavericks far from everyone.
type Factions struct{}

func (Factions) Describe() analysis.Descriptor {
	return analysis.Descriptor{
		Name:        "factions",
		Description: "Speaker conformity profiles and intra-party faction detection",
		Version:     "1.0",
		Features: []analysis.Feature{
			{Name: "conformity", Enabled: true},
			{Name: "faction_detection", Enabled: true},
		},
		Dependencies: []analysis.Resource{analysis.ResourceEmbeddings},
	}
}

func (Factions) Compute(b *analysis.Base) (analysis.Result, error) {
	scorer := centroid.NewScorer(b.Columns.Party)
	profiles := scorer.ProfileMembers(b.Table, b.Embeddings, b.Columns.Speaker)

	out := analysis.Result{}

	if b.IsFeatureEnabled("conformity") {
		records := make([]any, 0, len(profiles))
		for _, p := range profiles {
			records = append(records, p)
		}
		out["profiles"] = records
	}

	if b.IsFeatureEnabled("faction_detection") {
		byParty := make(map[string]any)
		for _, p := range profiles {
			entry, ok := byParty[p.Group].(map[string][]string)
			if !ok {
				entry = map[string][]string{
					centroid.LabelMainstream: {},
					centroid.LabelBridge:     {},
					centroid.LabelMaverick:   {},
				}
				byParty[p.Group] = entry
			}
			entry[p.Label] = append(entry[p.Label], p.Entity)
		}
		out["by_party"] = byParty
	}

	return out, nil
}
