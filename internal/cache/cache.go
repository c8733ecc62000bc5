// Package cache provides the two-level (memory + disk) result cache shared
// by all computation units. Caching is a performance optimization, never a
// correctness dependency: every disk failure degrades to a miss or a dropped
// write, and is logged rather than propagated.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

// MetadataFile is reserved next to the cached entries for future use.
const MetadataFile = "_metadata.json"

// EntryMeta records when an entry was written and by which unit version.
type EntryMeta struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

// Manager is the unified cache for one data-source partition.
//
// Concurrency: single writer per process. Workers processing different
// partitions must each own a Manager bound to their own source so persisted
// files never interleave.
type Manager struct {
	dir     string // {base}/analyzers/{source}
	source  string
	persist bool

	memory map[string]any
	meta   map[string]EntryMeta
}

// New creates a Manager scoped to the given source. When persist is true the
// source directory is created eagerly so writes only fail for transient
// reasons.
func New(baseDir, source string, persist bool) (*Manager, error) {
	dir := filepath.Join(baseDir, "analyzers", source)
	if persist {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	logging.Debug("cache manager initialized", "source", source, "dir", dir, "persist", persist)
	return &Manager{
		dir:     dir,
		source:  source,
		persist: persist,
		memory:  make(map[string]any),
		meta:    make(map[string]EntryMeta),
	}, nil
}

// Source returns the partition this cache is scoped to.
func (m *Manager) Source() string { return m.source }

// sanitizeKey replaces path separators so any key maps to a single file
// inside the source directory.
func sanitizeKey(key string) string {
	safe := strings.ReplaceAll(key, "/", "_")
	return strings.ReplaceAll(safe, "\\", "_")
}

// path returns the file path for a cache key.
func (m *Manager) path(key string) string {
	return filepath.Join(m.dir, sanitizeKey(key)+".json")
}

// Has reports whether key resolves in memory or (if persistence is enabled)
// on disk.
func (m *Manager) Has(key string) bool {
	if _, ok := m.memory[key]; ok {
		return true
	}
	if m.persist {
		_, err := os.Stat(m.path(key))
		return err == nil
	}
	return false
}

// Get returns the cached value for key. A disk hit is promoted into memory.
// A corrupt or unreadable file is a miss, not an error.
func (m *Manager) Get(key string) (any, bool) {
	if v, ok := m.memory[key]; ok {
		logging.Debug("cache hit (memory)", "key", key)
		return v, true
	}

	if m.persist {
		data, err := os.ReadFile(m.path(key))
		if err == nil {
			var v any
			if jsonErr := json.Unmarshal(data, &v); jsonErr == nil {
				m.memory[key] = v
				logging.Debug("cache hit (disk)", "key", key)
				return v, true
			} else {
				logging.Warn("failed to load cache entry", "key", key, "error", jsonErr)
			}
		} else if !os.IsNotExist(err) {
			logging.Warn("failed to read cache entry", "key", key, "error", err)
		}
	}

	logging.Debug("cache miss", "key", key)
	return nil, false
}

// SetOptions carries the optional Set parameters.
type SetOptions struct {
	// Version is recorded in the entry metadata.
	Version string
	// Persist overrides the manager-level persistence setting for this write.
	Persist *bool
}

// Set stores value under key. The value is normalized through a JSON
// round-trip so memory and disk hits return identical shapes, and so any
// JSON-serializable analyzer output persists without per-caller conversion.
func (m *Manager) Set(key string, value any) {
	m.SetWith(key, value, SetOptions{})
}

// SetWith is Set with explicit options.
func (m *Manager) SetWith(key string, value any, opts SetOptions) {
	data, err := json.Marshal(value)
	if err != nil {
		// Not serializable: keep it in memory only so the run still benefits.
		logging.Warn("cache value not serializable, kept in memory only", "key", key, "error", err)
		m.memory[key] = value
		m.meta[key] = EntryMeta{Timestamp: time.Now().Format(time.RFC3339), Version: opts.Version}
		return
	}

	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		normalized = value
	}
	m.memory[key] = normalized
	m.meta[key] = EntryMeta{Timestamp: time.Now().Format(time.RFC3339), Version: opts.Version}

	shouldPersist := m.persist
	if opts.Persist != nil {
		shouldPersist = *opts.Persist
	}
	if !shouldPersist {
		return
	}

	// A memory-only manager never created its directory; a per-call persist
	// override still has to land on disk.
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		logging.Warn("failed to create cache dir", "dir", m.dir, "error", err)
		return
	}

	if err := os.WriteFile(m.path(key), data, 0644); err != nil {
		// A dropped write must never block a fresh computation.
		logging.Warn("failed to persist cache entry", "key", key, "error", err)
		return
	}
	logging.Debug("cached to disk", "key", key)
}

// Invalidate removes cache entries. An empty pattern clears everything for
// this source; otherwise only keys containing the substring pattern are
// removed, from both memory and disk.
func (m *Manager) Invalidate(pattern string) {
	if pattern == "" {
		count := len(m.memory)
		m.memory = make(map[string]any)
		m.meta = make(map[string]EntryMeta)

		if m.persist {
			m.removeFiles(func(name string) bool { return true })
		}
		logging.Info("invalidated all cache entries", "source", m.source, "count", count)
		return
	}

	removed := 0
	for k := range m.memory {
		if strings.Contains(k, pattern) {
			delete(m.memory, k)
			delete(m.meta, k)
			removed++
		}
	}
	if m.persist {
		// File names carry the sanitized key, so the pattern must be
		// sanitized the same way or separator-bearing patterns never match.
		pat := sanitizeKey(pattern)
		m.removeFiles(func(name string) bool { return strings.Contains(name, pat) })
	}
	logging.Info("invalidated cache entries", "source", m.source, "pattern", pattern, "count", removed)
}

// removeFiles deletes persisted entries whose base name (without extension)
// matches, always sparing the reserved metadata file.
func (m *Manager) removeFiles(match func(name string) bool) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		logging.Warn("failed to list cache dir", "dir", m.dir, "error", err)
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == MetadataFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		if !match(strings.TrimSuffix(name, ".json")) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			logging.Warn("failed to remove cache file", "file", name, "error", err)
		}
	}
}

// ClearMemory drops only the in-memory level, keeping persisted entries.
func (m *Manager) ClearMemory() {
	m.memory = make(map[string]any)
	logging.Debug("cleared memory cache", "source", m.source)
}

// Stats describes the cache state. Entries covers keys written through this
// manager; keys promoted from disk appear in MemoryKeys without metadata.
type Stats struct {
	Source     string               `json:"source"`
	MemoryKeys int                  `json:"memory_keys"`
	DiskFiles  int                  `json:"disk_files"`
	Dir        string               `json:"cache_dir"`
	Entries    map[string]EntryMeta `json:"entries"`
}

// GetStats returns cache statistics.
func (m *Manager) GetStats() Stats {
	diskFiles := 0
	if m.persist {
		if entries, err := os.ReadDir(m.dir); err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
					diskFiles++
				}
			}
		}
	}
	entries := make(map[string]EntryMeta, len(m.meta))
	for k, v := range m.meta {
		entries[k] = v
	}
	return Stats{
		Source:     m.source,
		MemoryKeys: len(m.memory),
		DiskFiles:  diskFiles,
		Dir:        m.dir,
		Entries:    entries,
	}
}
