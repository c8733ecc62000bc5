package units

import (
	"strconv"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/topics"
)

const topKeywordsPerTopic = 10

// TopicMetrics derives per-topic keywords, display labels and how each
// party's attention distributes across topics.
type TopicMetrics struct{}

func (TopicMetrics) Describe() analysis.Descriptor {
	return analysis.Descriptor{
		Name:        "topics",
		Description: "Topic keywords, labels and per-party topic distribution",
		Version:     "1.0",
		Features: []analysis.Feature{
			{Name: "keywords", Enabled: true},
			{Name: "distribution", Enabled: true},
		},
		Dependencies: []analysis.Resource{analysis.ResourceClusterLabels},
	}
}

func (TopicMetrics) Compute(b *analysis.Base) (analysis.Result, error) {
	ids := b.Table.TopicIDs()
	out := analysis.Result{}

	if b.IsFeatureEnabled("keywords") {
		texts, err := b.Table.Strings(b.Columns.Text)
		if err != nil {
			return nil, err
		}
		kws, err := topics.ExtractKeywords(texts, b.Table.Topics(), ids, topKeywordsPerTopic, nil)
		if err != nil {
			return nil, err
		}

		perTopic := make(map[string]any, len(ids))
		for _, id := range ids {
			terms := make([]any, 0, len(kws[id]))
			for _, kw := range kws[id] {
				terms = append(terms, map[string]any{"term": kw.Term, "score": round4(kw.Score)})
			}

			label, ok := b.ClusterLabels[id]
			if !ok {
				label = topics.LabelFromKeywords(kws[id])
			}
			perTopic[strconv.Itoa(id)] = map[string]any{
				"label":    label,
				"keywords": terms,
			}
		}
		out["topics"] = perTopic
	}

	if b.IsFeatureEnabled("distribution") {
		out["distribution"] = topicDistribution(b, ids)
	}

	return out, nil
}

// topicDistribution computes, per party, the share of its speeches falling in
// each topic. Shares sum to 1 per party.
func topicDistribution(b *analysis.Base, ids []int) map[string]any {
	counts := make(map[string]map[int]int)
	totals := make(map[string]int)

	for i := 0; i < b.Table.Len(); i++ {
		s := b.Table.Speech(i)
		if counts[s.Party] == nil {
			counts[s.Party] = make(map[int]int)
		}
		counts[s.Party][s.Topic]++
		totals[s.Party]++
	}

	dist := make(map[string]any, len(counts))
	for _, party := range b.Table.Parties() {
		total := totals[party]
		if total == 0 {
			continue
		}
		shares := make(map[string]any, len(ids))
		for _, id := range ids {
			shares[strconv.Itoa(id)] = round4(float64(counts[party][id]) / float64(total))
		}
		dist[party] = map[string]any{
			"n_speeches": total,
			"shares":     shares,
		}
	}
	return dist
}
