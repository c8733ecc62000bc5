// Package export fans analysis out over corpus partitions and writes one
// JSON document per partition.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/topics"
)

// PartitionInput is one source partition ready for analysis: its table, its
// row-aligned embeddings and the completed topic assignment.
type PartitionInput struct {
	Source     string
	Table      *corpus.Table
	Embeddings *corpus.Matrix
	Assignment *topics.Assignment
}

// Document is the exported shape for one partition.
type Document struct {
	Source      string                     `json:"source"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Speeches    int                        `json:"n_speeches"`
	Topics      map[int]string             `json:"topic_labels,omitempty"`
	Results     map[string]analysis.Result `json:"results"`
	Rebels      []RebelScore               `json:"rebel_scores,omitempty"`
}

// Exporter runs the full unit set over each partition and persists the
// results. Partitions share nothing: each gets its own orchestrator and its
// own source-scoped cache, so they can run concurrently.
type Exporter struct {
	registry *analysis.Registry
	cfg      *config.Config

	// UseCache toggles result caching across all partitions.
	UseCache bool
}

// NewExporter builds an exporter over the given registry and configuration.
func NewExporter(registry *analysis.Registry, cfg *config.Config) *Exporter {
	return &Exporter{registry: registry, cfg: cfg, UseCache: true}
}

// Export analyzes every partition concurrently and writes {source}.json files
// under the configured output directory. Unlike unit failures, which are
// isolated per unit, a partition failure aborts the whole batch.
func (e *Exporter) Export(ctx context.Context, partitions []PartitionInput) error {
	if err := os.MkdirAll(e.cfg.Paths.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if e.cfg.Workers > 0 {
		g.SetLimit(e.cfg.Workers)
	}

	for _, p := range partitions {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := e.exportPartition(p)
			if err != nil {
				return fmt.Errorf("partition %s: %w", p.Source, err)
			}
			path := filepath.Join(e.cfg.Paths.OutDir, p.Source+".json")
			if err := writeJSON(path, doc); err != nil {
				return fmt.Errorf("partition %s: %w", p.Source, err)
			}
			logging.Info("partition exported", "source", p.Source, "path", path)
			return nil
		})
	}
	return g.Wait()
}

func (e *Exporter) exportPartition(p PartitionInput) (*Document, error) {
	if p.Assignment != nil {
		if err := p.Table.SetTopics(p.Assignment.TopicIDs); err != nil {
			return nil, err
		}
	}

	shared := analysis.Shared{
		Table:      p.Table,
		Embeddings: p.Embeddings,
		Columns:    p.Table.Columns(),
	}
	if p.Assignment != nil {
		shared.ClusterLabels = p.Assignment.Labels
		shared.ClusterCentroids = p.Assignment.Centroids
	}

	orch, err := analysis.NewOrchestrator(e.registry, shared, analysis.OrchestratorOptions{
		Source:      p.Source,
		CacheDir:    e.cfg.Paths.CacheDir,
		EnableCache: e.UseCache,
		Config:      e.cfg.Analyzers,
	})
	if err != nil {
		return nil, err
	}

	results := orch.RunAll(e.UseCache)

	doc := &Document{
		Source:      p.Source,
		GeneratedAt: time.Now().UTC(),
		Speeches:    p.Table.Len(),
		Results:     results,
		Rebels:      RebelScores(p.Table),
	}
	if p.Assignment != nil {
		doc.Topics = p.Assignment.Labels
	}
	return doc, nil
}

// writeJSON writes v as indented JSON via a temp file rename, so a crashed
// export never leaves a truncated document behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
