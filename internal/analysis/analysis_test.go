package analysis

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/cache"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
)

// fakeUnit is a configurable test unit.
type fakeUnit struct {
	desc    Descriptor
	compute func(b *Base) (Result, error)
	calls   int
}

func (f *fakeUnit) Describe() Descriptor { return f.desc }
func (f *fakeUnit) Compute(b *Base) (Result, error) {
	f.calls++
	if f.compute != nil {
		return f.compute(b)
	}
	return Result{"unit": f.desc.Name}, nil
}

func newFake(name string, deps ...Resource) *fakeUnit {
	return &fakeUnit{desc: Descriptor{Name: name, Version: "1.0", Dependencies: deps}}
}

func testShared(t *testing.T, withEmbeddings bool) Shared {
	t.Helper()
	speeches := []corpus.Speech{
		{ID: 1, Speaker: "Rossi", Party: "A", Text: "uno", Date: time.Now()},
		{ID: 2, Speaker: "Bianchi", Party: "B", Text: "due", Date: time.Now()},
	}
	shared := Shared{
		Table:   corpus.NewTable(speeches, corpus.DefaultColumns()),
		Columns: corpus.DefaultColumns(),
	}
	if withEmbeddings {
		m, err := corpus.NewMatrix([][]float64{{1, 0}, {0, 1}})
		if err != nil {
			t.Fatalf("NewMatrix: %v", err)
		}
		shared.Embeddings = m
	}
	return shared
}

func TestRegistryOrderAndOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register(newFake("alpha"))
	r.Register(newFake("beta"))
	r.Register(newFake("gamma"))

	replacement := newFake("beta")
	r.Register(replacement)

	names := r.Names()
	want := []string{"alpha", "beta", "gamma"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	got, ok := r.Get("beta")
	if !ok || got != Unit(replacement) {
		t.Error("re-registration must overwrite the stored unit")
	}
}

func TestRegistryEnabled(t *testing.T) {
	r := NewRegistry()
	r.Register(newFake("alpha"))
	r.Register(newFake("beta"))

	off := false
	cfg := config.Analysis{"beta": {Enabled: &off}}

	enabled := r.Enabled(cfg)
	if len(enabled) != 1 || enabled[0].Describe().Name != "alpha" {
		t.Fatalf("enabled = %v", unitNames(enabled))
	}

	// Absent from config means enabled.
	if got := r.Enabled(config.Analysis{}); len(got) != 2 {
		t.Fatalf("default-enabled count = %d, want 2", len(got))
	}
}

func TestRegistryByDependency(t *testing.T) {
	r := NewRegistry()
	r.Register(newFake("two", ResourceEmbeddings, ResourceClusterLabels))
	r.Register(newFake("zero"))
	r.Register(newFake("one", ResourceEmbeddings))
	r.Register(newFake("alsozero"))

	got := unitNames(r.ByDependency(config.Analysis{}))
	want := []string{"zero", "alsozero", "one", "two"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func unitNames(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Describe().Name
	}
	return out
}

func TestFeatureOverrides(t *testing.T) {
	u := &fakeUnit{desc: Descriptor{
		Name:    "feat",
		Version: "1.0",
		Features: []Feature{
			{Name: "on_by_default", Enabled: true},
			{Name: "off_by_default", Enabled: false},
		},
	}}

	cfg := config.Analysis{"feat": {Features: map[string]bool{
		"off_by_default": true,
		"unknown":        true,
	}}}

	b := NewBase(u, testShared(t, false), nil, cfg)
	if !b.IsFeatureEnabled("on_by_default") {
		t.Error("default-on feature lost")
	}
	if !b.IsFeatureEnabled("off_by_default") {
		t.Error("config override not applied")
	}
	if b.IsFeatureEnabled("unknown") {
		t.Error("unknown feature names must stay false")
	}
}

func TestValidateDependencies(t *testing.T) {
	u := newFake("needy", ResourceEmbeddings)
	b := NewBase(u, testShared(t, false), nil, nil)

	err := b.ValidateDependencies()
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingDependencyError, got %v", err)
	}
	if missing.Resource != ResourceEmbeddings {
		t.Errorf("resource = %s", missing.Resource)
	}

	b = NewBase(u, testShared(t, true), nil, nil)
	if err := b.ValidateDependencies(); err != nil {
		t.Errorf("dependencies satisfied, got %v", err)
	}
}

func TestRunUnknownUnit(t *testing.T) {
	o, err := NewOrchestrator(NewRegistry(), testShared(t, false), OrchestratorOptions{})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	_, err = o.Run("ghost", false)
	if !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestRunAllIsolatesFailures(t *testing.T) {
	r := NewRegistry()
	r.Register(newFake("ok"))
	failing := newFake("failing")
	failing.compute = func(b *Base) (Result, error) {
		return nil, fmt.Errorf("boom")
	}
	r.Register(failing)
	r.Register(newFake("also_ok"))

	o, err := NewOrchestrator(r, testShared(t, false), OrchestratorOptions{})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	results := o.RunAll(false)
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results["failing"]["error"] != "boom" {
		t.Errorf("failing entry = %v", results["failing"])
	}
	if _, ok := results["ok"]["unit"]; !ok {
		t.Error("healthy unit must still produce output")
	}
}

func TestRunAllRecoversPanics(t *testing.T) {
	r := NewRegistry()
	panicking := newFake("panicking")
	panicking.compute = func(b *Base) (Result, error) { panic("kaboom") }
	r.Register(panicking)

	o, err := NewOrchestrator(r, testShared(t, false), OrchestratorOptions{})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	results := o.RunAll(false)
	msg, ok := results["panicking"]["error"].(string)
	if !ok || msg == "" {
		t.Fatalf("panic must surface as error entry, got %v", results["panicking"])
	}
}

func TestRunAllSkipsMissingResources(t *testing.T) {
	r := NewRegistry()
	r.Register(newFake("embedded", ResourceEmbeddings))
	r.Register(newFake("plain"))

	o, err := NewOrchestrator(r, testShared(t, false), OrchestratorOptions{})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	results := o.RunAll(false)
	if _, ok := results["embedded"]; ok {
		t.Error("unit with missing embeddings must be skipped, not errored")
	}
	if _, ok := results["plain"]; !ok {
		t.Error("independent unit must still run")
	}
}

func TestComputeCachedKeyAndReuse(t *testing.T) {
	r := NewRegistry()
	counted := newFake("counted")
	r.Register(counted)

	o, err := NewOrchestrator(r, testShared(t, false), OrchestratorOptions{
		Source:      "camera",
		CacheDir:    t.TempDir(),
		EnableCache: true,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	if _, err := o.Run("counted", true); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := o.Run("counted", true); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if counted.calls != 1 {
		t.Errorf("compute calls = %d, want 1 (second should hit cache)", counted.calls)
	}

	if !o.Cache().Has("counted_v1.0") {
		t.Error("cache key must be {name}_v{version}")
	}

	o.InvalidateCache("")
	if _, err := o.Run("counted", true); err != nil {
		t.Fatalf("run after invalidate: %v", err)
	}
	if counted.calls != 2 {
		t.Errorf("compute calls after invalidate = %d, want 2", counted.calls)
	}
}

func TestComputeCachedCustomKey(t *testing.T) {
	cm, err := cache.New(t.TempDir(), "camera", true)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}

	u := newFake("custom")
	b := NewBase(u, testShared(t, false), cm, nil)

	if _, err := b.ComputeCached("snapshot_2024_03"); err != nil {
		t.Fatalf("first ComputeCached: %v", err)
	}
	if !cm.Has("snapshot_2024_03") {
		t.Fatal("result must be stored under the caller-supplied key")
	}
	if cm.Has(b.CacheKey()) {
		t.Error("default key must not be written when a custom key is given")
	}

	if _, err := b.ComputeCached("snapshot_2024_03"); err != nil {
		t.Fatalf("second ComputeCached: %v", err)
	}
	if u.calls != 1 {
		t.Errorf("compute calls = %d, want 1 (second call should hit the custom key)", u.calls)
	}
}
