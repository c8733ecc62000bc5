// Package analysis is the pluggable computation framework: the unit
// contract, the registry of available units, and the orchestrator that runs
// them over one shared dataset with caching and per-unit failure isolation.
package analysis

import (
	"fmt"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/cache"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// Resource names a shared input a unit may declare as required.
type Resource string

const (
	ResourceEmbeddings       Resource = "embeddings"
	ResourceClusterLabels    Resource = "cluster_labels"
	ResourceClusterCentroids Resource = "cluster_centroids"
)

// Result is one unit's output mapping. Values must be JSON-serializable so
// arbitrary unit output is cacheable and exportable.
type Result map[string]any

// Feature is one sub-metric flag with its default state. The order of a
// descriptor's features is part of the unit's public description.
type Feature struct {
	Name    string
	Enabled bool
}

// Descriptor is a unit's static metadata.
type Descriptor struct {
	Name        string
	Description string
	Version     string
	Features    []Feature
	// Dependencies lists the shared resources that must be present
	// before Compute runs.
	Dependencies []Resource
}

// Unit is the contract every pluggable metric group implements. A Unit is
// stateless; all data flows through the Base it is handed.
type Unit interface {
	Describe() Descriptor
	Compute(b *Base) (Result, error)
}

// Shared holds the inputs every unit computes over. Embeddings, labels and
// centroids are optional; units declare what they need.
type Shared struct {
	Table            *corpus.Table
	Embeddings       *corpus.Matrix
	ClusterLabels    map[int]string
	ClusterCentroids *corpus.Matrix
	Columns          corpus.Columns
}

// Base binds a unit to the shared data, its resolved feature flags, the
// configuration and an optional cache.
type Base struct {
	Shared
	Cache *cache.Manager

	unit     Unit
	desc     Descriptor
	features map[string]bool
}

// NewBase constructs the execution context for one unit. Feature flags are
// seeded from the unit's declared defaults, then overridden by matching keys
// in the unit's config section; unknown names in the override are ignored.
func NewBase(u Unit, shared Shared, cm *cache.Manager, cfg config.Analysis) *Base {
	desc := u.Describe()

	features := make(map[string]bool, len(desc.Features))
	for _, f := range desc.Features {
		features[f.Name] = f.Enabled
	}
	for name, enabled := range cfg.FeatureOverrides(desc.Name) {
		if _, known := features[name]; known {
			features[name] = enabled
			logging.Debug("feature overridden from config", "unit", desc.Name, "feature", name, "enabled", enabled)
		}
	}

	logging.Debug("unit initialized",
		"unit", desc.Name, "speeches", shared.Table.Len(), "features", features)

	return &Base{
		Shared:   shared,
		Cache:    cm,
		unit:     u,
		desc:     desc,
		features: features,
	}
}

// Describe returns the bound unit's descriptor.
func (b *Base) Describe() Descriptor { return b.desc }

// IsFeatureEnabled returns the seeded/overridden flag, defaulting to false
// for unrecognized names.
func (b *Base) IsFeatureEnabled(name string) bool {
	return b.features[name]
}

// ValidateDependencies fails with a MissingDependencyError for the first
// declared resource that was not supplied at construction. This is a
// precondition check: callers (or the orchestrator) invoke it before Compute.
func (b *Base) ValidateDependencies() error {
	for _, dep := range b.desc.Dependencies {
		switch dep {
		case ResourceEmbeddings:
			if b.Embeddings == nil {
				return &MissingDependencyError{Unit: b.desc.Name, Resource: dep}
			}
		case ResourceClusterLabels:
			if len(b.ClusterLabels) == 0 {
				return &MissingDependencyError{Unit: b.desc.Name, Resource: dep}
			}
		case ResourceClusterCentroids:
			if b.ClusterCentroids == nil {
				return &MissingDependencyError{Unit: b.desc.Name, Resource: dep}
			}
		}
	}
	return nil
}

// Compute runs the unit's computation directly, bypassing the cache.
func (b *Base) Compute() (Result, error) {
	return b.unit.Compute(b)
}

// CacheKey returns the default cache key for this unit.
func (b *Base) CacheKey() string {
	return fmt.Sprintf("%s_v%s", b.desc.Name, b.desc.Version)
}

// ComputeCached resolves a cache key (empty means the default
// {name}_v{version}), returns the cached value on a hit, and otherwise
// computes and stores the result. At most one computation per key per cache
// lifetime; no single-flight guarantee under concurrent callers.
func (b *Base) ComputeCached(cacheKey string) (Result, error) {
	key := cacheKey
	if key == "" {
		key = b.CacheKey()
	}

	if b.Cache != nil && b.Cache.Has(key) {
		if v, ok := b.Cache.Get(key); ok {
			logging.Info("loading from cache", "unit", b.desc.Name, "key", key)
			return toResult(v), nil
		}
	}

	logging.Info("computing", "unit", b.desc.Name)
	result, err := b.unit.Compute(b)
	if err != nil {
		return nil, err
	}

	if b.Cache != nil {
		b.Cache.SetWith(key, result, cache.SetOptions{Version: b.desc.Version})
		logging.Debug("cached result", "unit", b.desc.Name, "key", key)
	}
	return result, nil
}

// toResult reshapes a cached value into a Result. Cached JSON decodes to
// map[string]any, which is exactly a Result.
func toResult(v any) Result {
	switch m := v.(type) {
	case Result:
		return m
	case map[string]any:
		return Result(m)
	default:
		return Result{"value": v}
	}
}
