package analysis

import (
	"fmt"
	"runtime/debug"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/cache"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// Orchestrator resolves enabled units, validates their data dependencies,
// executes each via cache or fresh computation, isolates per-unit failures
// and aggregates results. One orchestrator is scoped to one source
// partition; units run strictly sequentially within a run.
type Orchestrator struct {
	registry *Registry
	shared   Shared
	cache    *cache.Manager
	cfg      config.Analysis
	source   string
}

// OrchestratorOptions configures NewOrchestrator.
type OrchestratorOptions struct {
	// Source is the data-source partition name (e.g. camera, senato).
	Source string
	// CacheDir is the base directory for persisted results. Empty disables
	// persistence; caching then stays memory-only.
	CacheDir string
	// EnableCache turns result caching on.
	EnableCache bool
	// Config is the per-unit configuration mapping.
	Config config.Analysis
}

// NewOrchestrator builds an orchestrator over the shared resources.
func NewOrchestrator(registry *Registry, shared Shared, opts OrchestratorOptions) (*Orchestrator, error) {
	source := opts.Source
	if source == "" {
		source = "default"
	}

	var cm *cache.Manager
	if opts.EnableCache {
		var err error
		cm, err = cache.New(opts.CacheDir, source, opts.CacheDir != "")
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Analysis{}
	}

	logging.Info("orchestrator initialized",
		"speeches", shared.Table.Len(), "source", source,
		"cache", cm != nil)

	return &Orchestrator{
		registry: registry,
		shared:   shared,
		cache:    cm,
		cfg:      cfg,
		source:   source,
	}, nil
}

// Source returns the partition this orchestrator is scoped to.
func (o *Orchestrator) Source() string { return o.source }

// Run executes a single unit by name, returning ErrUnknownUnit when the name
// is not registered. The unit's full dependency set is validated first.
func (o *Orchestrator) Run(name string, useCache bool) (Result, error) {
	u, ok := o.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownUnit, name, o.registry.Names())
	}

	base := NewBase(u, o.shared, o.cache, o.cfg)
	if err := base.ValidateDependencies(); err != nil {
		return nil, err
	}

	return o.compute(base, useCache)
}

// RunAll executes every enabled unit in registry order. A unit whose
// declared embeddings/centroids are absent is skipped (logged, omitted from
// the result). A unit that fails is recorded as {"error": message}; one
// failing unit never aborts the rest.
func (o *Orchestrator) RunAll(useCache bool) map[string]Result {
	results := make(map[string]Result)
	enabled := o.registry.Enabled(o.cfg)

	logging.Info("running enabled units", "count", len(enabled), "source", o.source)

	for _, u := range enabled {
		desc := u.Describe()

		if missing := o.missingResources(desc); len(missing) > 0 {
			logging.Warn("skipping unit: missing dependencies", "unit", desc.Name, "missing", missing)
			continue
		}

		base := NewBase(u, o.shared, o.cache, o.cfg)
		result, err := o.compute(base, useCache)
		if err != nil {
			logging.Error("unit failed", "unit", desc.Name, "error", err)
			results[desc.Name] = Result{"error": err.Error()}
			continue
		}
		results[desc.Name] = result
	}

	logging.Info("completed units", "count", len(results), "source", o.source)
	return results
}

// missingResources pre-filters only embeddings and centroid availability;
// the unit's own ValidateDependencies covers the full set when explicitly
// invoked via Run.
func (o *Orchestrator) missingResources(desc Descriptor) []Resource {
	var missing []Resource
	for _, dep := range desc.Dependencies {
		switch dep {
		case ResourceEmbeddings:
			if o.shared.Embeddings == nil {
				missing = append(missing, dep)
			}
		case ResourceClusterCentroids:
			if o.shared.ClusterCentroids == nil {
				missing = append(missing, dep)
			}
		}
	}
	return missing
}

// compute runs one unit, converting panics inside unit code into errors so
// a misbehaving unit stays isolated.
func (o *Orchestrator) compute(base *Base, useCache bool) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("unit panicked", "unit", base.Describe().Name,
				"panic", r, "stack", string(debug.Stack()))
			result = nil
			err = fmt.Errorf("unit %s panicked: %v", base.Describe().Name, r)
		}
	}()

	if useCache {
		return base.ComputeCached("")
	}
	return base.Compute()
}

// InvalidateCache delegates to the cache manager. An empty pattern clears
// everything for this orchestrator's partition.
func (o *Orchestrator) InvalidateCache(pattern string) {
	if o.cache != nil {
		o.cache.Invalidate(pattern)
	}
}

// Cache exposes the partition cache (nil when caching is disabled).
func (o *Orchestrator) Cache() *cache.Manager { return o.cache }
