package units

import (
	"testing"
	"time"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
)

// testBase builds an execution context over a small two-party corpus:
// party A speaks tightly around (1,0), party B spreads along the y axis.
func testBase(t *testing.T, u analysis.Unit) *analysis.Base {
	t.Helper()

	day := func(d int) time.Time {
		return time.Date(2024, time.Month(1+d%3), 1+d, 10, 0, 0, 0, time.UTC)
	}
	speeches := []corpus.Speech{
		{ID: 1, Speaker: "Rossi", Party: "A", Date: day(0), Text: "pensioni lavoro pensioni", Topic: 0},
		{ID: 2, Speaker: "Rossi", Party: "A", Date: day(1), Text: "pensioni previdenza", Topic: 0},
		{ID: 3, Speaker: "Rossi", Party: "A", Date: day(2), Text: "pensioni contributi", Topic: 0},
		{ID: 4, Speaker: "Bianchi", Party: "A", Date: day(3), Text: "pensioni riforma", Topic: 0},
		{ID: 5, Speaker: "Verdi", Party: "B", Date: day(4), Text: "scuola docenti", Topic: 1},
		{ID: 6, Speaker: "Verdi", Party: "B", Date: day(5), Text: "scuola studenti universita", Topic: 1},
		{ID: 7, Speaker: "Verdi", Party: "B", Date: day(6), Text: "istruzione ricerca scuola", Topic: 1},
		{ID: 8, Speaker: "Neri", Party: "B", Date: day(7), Text: "docenti istruzione", Topic: 0},
	}
	vectors := [][]float64{
		{1, 0}, {1.1, 0}, {0.9, 0}, {1, 0.1},
		{0, 1}, {0, 3}, {0, 5}, {0.2, 2},
	}

	m, err := corpus.NewMatrix(vectors)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}

	shared := analysis.Shared{
		Table:            corpus.NewTable(speeches, corpus.DefaultColumns()),
		Embeddings:       m,
		ClusterLabels:    map[int]string{0: "Pensioni", 1: "Scuola"},
		ClusterCentroids: m,
		Columns:          corpus.DefaultColumns(),
	}
	return analysis.NewBase(u, shared, nil, config.Analysis{})
}

func TestRelationsCohesion(t *testing.T) {
	b := testBase(t, Relations{})
	result, err := Relations{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	cohesion, ok := result["cohesion"].(map[string]any)
	if !ok {
		t.Fatalf("cohesion missing: %v", result)
	}

	a, ok := cohesion["A"].(map[string]any)
	if !ok {
		t.Fatalf("party A missing: %v", cohesion)
	}
	bParty := cohesion["B"].(map[string]any)

	// A is tight, B is spread out.
	if a["cohesion_score"].(float64) <= bParty["cohesion_score"].(float64) {
		t.Errorf("cohesion A (%v) should exceed B (%v)",
			a["cohesion_score"], bParty["cohesion_score"])
	}
	if a["band"] != CohesionCompact {
		t.Errorf("band A = %v, want %s", a["band"], CohesionCompact)
	}
	if a["n_speeches"].(int) != 4 {
		t.Errorf("n_speeches A = %v", a["n_speeches"])
	}
}

func TestRelationsAffinitySymmetric(t *testing.T) {
	b := testBase(t, Relations{})
	result, err := Relations{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	affinity := result["affinity"].(map[string]any)
	ab := affinity["A"].(map[string]any)["B"].(float64)
	ba := affinity["B"].(map[string]any)["A"].(float64)
	if ab != ba {
		t.Errorf("affinity not symmetric: A->B %v, B->A %v", ab, ba)
	}
	if ab < 0 || ab > 1 {
		t.Errorf("affinity out of range: %v", ab)
	}
}

func TestRelationsFeatureToggle(t *testing.T) {
	u := Relations{}
	shared := testBase(t, u).Shared
	cfg := config.Analysis{"relations": {Features: map[string]bool{"affinity": false}}}
	b := analysis.NewBase(u, shared, nil, cfg)

	result, err := u.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := result["affinity"]; ok {
		t.Error("disabled feature must not appear in output")
	}
	if _, ok := result["cohesion"]; !ok {
		t.Error("enabled feature missing")
	}
}

func TestFactionsProfiles(t *testing.T) {
	b := testBase(t, Factions{})
	result, err := Factions{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	profiles, ok := result["profiles"].([]any)
	if !ok || len(profiles) == 0 {
		t.Fatalf("profiles missing: %v", result)
	}

	byParty, ok := result["by_party"].(map[string]any)
	if !ok {
		t.Fatalf("by_party missing: %v", result)
	}
	if _, ok := byParty["A"]; !ok {
		t.Error("party A missing from faction groups")
	}
}

func TestSpeakerConsistency(t *testing.T) {
	b := testBase(t, Speaker{})
	result, err := Speaker{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	records, ok := result["consistency"].([]any)
	if !ok {
		t.Fatalf("consistency missing: %v", result)
	}

	// Only Rossi and Verdi have >= 3 speeches.
	if len(records) != 2 {
		t.Fatalf("consistency records = %d, want 2", len(records))
	}

	var rossi, verdi map[string]any
	for _, r := range records {
		rec := r.(map[string]any)
		switch rec["speaker"] {
		case "Rossi":
			rossi = rec
		case "Verdi":
			verdi = rec
		}
	}
	if rossi == nil || verdi == nil {
		t.Fatalf("expected Rossi and Verdi, got %v", records)
	}

	// Rossi repeats himself; Verdi drifts along the axis.
	rs := rossi["consistency_score"].(float64)
	vs := verdi["consistency_score"].(float64)
	if rs <= vs {
		t.Errorf("Rossi (%v) should be more consistent than Verdi (%v)", rs, vs)
	}
	if rs < 0 || rs > 100 {
		t.Errorf("score out of range: %v", rs)
	}
}

func TestSpeakerVerbosity(t *testing.T) {
	b := testBase(t, Speaker{})
	result, err := Speaker{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	records, ok := result["verbosity"].([]any)
	if !ok {
		t.Fatalf("verbosity missing: %v", result)
	}
	if len(records) != 4 {
		t.Fatalf("verbosity records = %d, want 4 speakers", len(records))
	}

	// Sorted by average words descending.
	prev := records[0].(map[string]any)["avg_words"].(float64)
	for _, r := range records[1:] {
		cur := r.(map[string]any)["avg_words"].(float64)
		if cur > prev {
			t.Fatalf("verbosity not sorted: %v after %v", cur, prev)
		}
		prev = cur
	}
}

func TestTopicMetrics(t *testing.T) {
	b := testBase(t, TopicMetrics{})
	result, err := TopicMetrics{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	perTopic, ok := result["topics"].(map[string]any)
	if !ok {
		t.Fatalf("topics missing: %v", result)
	}
	topic0 := perTopic["0"].(map[string]any)
	if topic0["label"] != "Pensioni" {
		t.Errorf("label = %v, want provided cluster label", topic0["label"])
	}

	dist, ok := result["distribution"].(map[string]any)
	if !ok {
		t.Fatalf("distribution missing: %v", result)
	}
	a := dist["A"].(map[string]any)
	shares := a["shares"].(map[string]any)
	if shares["0"].(float64) != 1.0 {
		t.Errorf("party A share of topic 0 = %v, want 1.0", shares["0"])
	}

	bShares := dist["B"].(map[string]any)["shares"].(map[string]any)
	total := bShares["0"].(float64) + bShares["1"].(float64)
	if total < 0.999 || total > 1.001 {
		t.Errorf("party B shares sum to %v, want 1", total)
	}
}

func TestTemporalTrends(t *testing.T) {
	b := testBase(t, Temporal{})
	result, err := Temporal{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	volume, ok := result["volume"].([]any)
	if !ok || len(volume) == 0 {
		t.Fatalf("volume missing: %v", result)
	}

	// Months sorted ascending.
	prev := volume[0].(map[string]any)["month"].(string)
	totalSpeeches := volume[0].(map[string]any)["n_speeches"].(int)
	for _, v := range volume[1:] {
		cur := v.(map[string]any)["month"].(string)
		if cur <= prev {
			t.Fatalf("months not sorted: %s after %s", cur, prev)
		}
		prev = cur
		totalSpeeches += v.(map[string]any)["n_speeches"].(int)
	}
	if totalSpeeches != 8 {
		t.Errorf("total speeches = %d, want 8", totalSpeeches)
	}

	byParty, ok := result["by_party"].(map[string]any)
	if !ok {
		t.Fatalf("by_party missing: %v", result)
	}
	if _, ok := byParty["A"]; !ok {
		t.Error("party A series missing")
	}
}

// Two parties with tightly clustered, well-separated speeches: both must come
// out highly cohesive, and their mutual affinity must sit below either
// party's self-cohesion.
func TestCohesionExceedsCrossPartyAffinity(t *testing.T) {
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	speeches := []corpus.Speech{
		{ID: 1, Speaker: "Rossi", Party: "A", Date: day, Text: "a"},
		{ID: 2, Speaker: "Bianchi", Party: "A", Date: day, Text: "b"},
		{ID: 3, Speaker: "Verdi", Party: "B", Date: day, Text: "c"},
		{ID: 4, Speaker: "Neri", Party: "B", Date: day, Text: "d"},
	}
	m, err := corpus.NewMatrix([][]float64{
		{0, 0, 0.01}, {0.01, 0, 0},
		{1, 1, 0.99}, {0.99, 1, 1},
	})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}

	shared := analysis.Shared{
		Table:      corpus.NewTable(speeches, corpus.DefaultColumns()),
		Embeddings: m,
		Columns:    corpus.DefaultColumns(),
	}
	b := analysis.NewBase(Relations{}, shared, nil, config.Analysis{})

	result, err := Relations{}.Compute(b)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	cohesion := result["cohesion"].(map[string]any)
	affinity := result["affinity"].(map[string]any)

	scoreA := cohesion["A"].(map[string]any)["cohesion_score"].(float64)
	scoreB := cohesion["B"].(map[string]any)["cohesion_score"].(float64)
	ab := affinity["A"].(map[string]any)["B"].(float64)

	if cohesion["A"].(map[string]any)["band"] != CohesionCompact {
		t.Errorf("party A band = %v, want %s", cohesion["A"].(map[string]any)["band"], CohesionCompact)
	}
	if cohesion["B"].(map[string]any)["band"] != CohesionCompact {
		t.Errorf("party B band = %v, want %s", cohesion["B"].(map[string]any)["band"], CohesionCompact)
	}
	if ab >= scoreA || ab >= scoreB {
		t.Errorf("cross-party affinity %v must be below self-cohesion A=%v B=%v", ab, scoreA, scoreB)
	}
}

func TestRegisterAllOrder(t *testing.T) {
	r := analysis.NewRegistry()
	RegisterAll(r)

	names := r.Names()
	want := []string{"relations", "factions", "speaker", "topics", "temporal"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
