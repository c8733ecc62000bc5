package analysis

import (
	"sort"
	"sync"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// Registry is a table of available computation units. It is an explicit
// object rather than a package-level singleton so tests and embedders can
// hold independent registries; iteration follows registration order.
type Registry struct {
	mu    sync.RWMutex
	units map[string]Unit
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: make(map[string]Unit)}
}

// Register inserts a unit. Registering a name that already exists silently
// overwrites the old unit (a warning is logged); this supports test-time and
// hot-reload redefinition and is not an error. Registration is idempotent:
// registering the same unit twice leaves the same end state as once.
func (r *Registry) Register(u Unit) {
	name := u.Describe().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[name]; exists {
		logging.Warn("overwriting existing unit registration", "unit", name)
	} else {
		r.order = append(r.order, name)
	}
	r.units[name] = u
	logging.Debug("registered unit", "unit", name)
}

// Get returns the unit registered under name.
func (r *Registry) Get(name string) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[name]
	return u, ok
}

// All returns a defensive copy of the table; callers may not mutate the
// live registry through it.
func (r *Registry) All() map[string]Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Unit, len(r.units))
	for name, u := range r.units {
		out[name] = u
	}
	return out
}

// Names returns all registered unit names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Enabled returns the units whose config entry's enabled flag (default
// true) is set, in registration order.
func (r *Registry) Enabled(cfg config.Analysis) []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Unit
	for _, name := range r.order {
		if cfg.UnitEnabled(name) {
			out = append(out, r.units[name])
		} else {
			logging.Info("unit disabled in config", "unit", name)
		}
	}
	return out
}

// ByDependency returns the enabled units sorted so units with fewer declared
// dependencies run first. This is a coarse approximation of a topological
// order: units with equal dependency counts keep registration order.
func (r *Registry) ByDependency(cfg config.Analysis) []Unit {
	units := r.Enabled(cfg)
	sort.SliceStable(units, func(i, j int) bool {
		return len(units[i].Describe().Dependencies) < len(units[j].Describe().Dependencies)
	})
	return units
}

// Clear removes all registrations (useful for tests).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = make(map[string]Unit)
	r.order = nil
	logging.Debug("cleared unit registry")
}
