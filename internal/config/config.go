// Package config loads the analyzer configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnitConfig is the per-unit section of the configuration.
// A nil Enabled means "enabled" (the default).
type UnitConfig struct {
	Enabled  *bool           `yaml:"enabled"`
	Features map[string]bool `yaml:"features"`
}

// Analysis maps unit name to its configuration.
// Unknown unit names and feature names are ignored, never errors.
type Analysis map[string]UnitConfig

// UnitEnabled reports whether the named unit is enabled.
// Units absent from the config default to enabled.
func (a Analysis) UnitEnabled(name string) bool {
	uc, ok := a[name]
	if !ok || uc.Enabled == nil {
		return true
	}
	return *uc.Enabled
}

// FeatureOverrides returns the configured feature flags for a unit,
// or nil when none are configured.
func (a Analysis) FeatureOverrides(name string) map[string]bool {
	return a[name].Features
}

// Clustering configures topic assignment.
type Clustering struct {
	// Clusters is the k-means cluster count when no taxonomy is used.
	Clusters int `yaml:"clusters"`
	// Seed makes unsupervised clustering deterministic.
	Seed int64 `yaml:"seed"`
	// UseTaxonomy selects keyword-taxonomy topics over k-means.
	UseTaxonomy bool `yaml:"use_taxonomy"`
}

// Embedding configures the embedding service used for taxonomy definitions.
type Embedding struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// Paths holds filesystem locations.
type Paths struct {
	Database string `yaml:"database"`
	CacheDir string `yaml:"cache_dir"`
	OutDir   string `yaml:"out_dir"`
	LogDir   string `yaml:"log_dir"`
}

// Config is the root configuration.
type Config struct {
	Analyzers  Analysis   `yaml:"analyzers"`
	Clustering Clustering `yaml:"clustering"`
	Embedding  Embedding  `yaml:"embedding"`
	Paths      Paths      `yaml:"paths"`
	// Sources are the corpus partitions to export (e.g. camera, senato).
	Sources []string `yaml:"sources"`
	// Workers caps the partition fan-out. Zero means one worker per partition.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Analyzers: Analysis{},
		Clustering: Clustering{
			Clusters: 5,
			Seed:     42,
		},
		Embedding: Embedding{
			Endpoint: "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Paths: Paths{
			Database: "speeches.db",
			CacheDir: "cache",
			OutDir:   "out",
		},
		Sources: []string{"camera", "senato"},
	}
}

// Load reads the YAML config at path. An empty path returns Default().
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
