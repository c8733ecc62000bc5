package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Clustering.Clusters != 5 {
		t.Errorf("clusters = %d, want 5", cfg.Clustering.Clusters)
	}
	if cfg.Clustering.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Clustering.Seed)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "camera" {
		t.Errorf("sources = %v", cfg.Sources)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
clustering:
  clusters: 8
  use_taxonomy: true
paths:
  out_dir: /tmp/results
sources: [senato]
analyzers:
  relations:
    enabled: false
  speaker:
    features:
      verbosity: false
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Clustering.Clusters != 8 {
		t.Errorf("clusters = %d, want 8", cfg.Clustering.Clusters)
	}
	if !cfg.Clustering.UseTaxonomy {
		t.Error("use_taxonomy not applied")
	}
	// Untouched fields keep defaults.
	if cfg.Clustering.Seed != 42 {
		t.Errorf("seed = %d, want default 42", cfg.Clustering.Seed)
	}
	if cfg.Paths.Database != "speeches.db" {
		t.Errorf("database = %q, want default", cfg.Paths.Database)
	}

	if len(cfg.Sources) != 1 || cfg.Sources[0] != "senato" {
		t.Errorf("sources = %v", cfg.Sources)
	}

	if cfg.Analyzers.UnitEnabled("relations") {
		t.Error("relations should be disabled")
	}
	if !cfg.Analyzers.UnitEnabled("factions") {
		t.Error("units absent from config default to enabled")
	}
	overrides := cfg.Analyzers.FeatureOverrides("speaker")
	if v, ok := overrides["verbosity"]; !ok || v {
		t.Errorf("verbosity override = %v/%v", v, ok)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Clustering.Clusters != 5 {
		t.Errorf("clusters = %d", cfg.Clustering.Clusters)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
