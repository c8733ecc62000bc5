package units

import "github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"

// RegisterAll registers the standard unit set in its canonical order.
func RegisterAll(r *analysis.Registry) {
	r.Register(Relations{})
	r.Register(Factions{})
	r.Register(Speaker{})
	r.Register(TopicMetrics{})
	r.Register(Temporal{})
}
