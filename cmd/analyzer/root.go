package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/config"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/embed"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/export"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/topics"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/units"
)

var (
	flagConfig  string
	flagVerbose bool
	flagNoCache bool
)

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Parliamentary speech analytics",
	Long: `Parliamentary speech analytics.

Loads speeches and their embeddings from the corpus database, assigns each
speech a topic, runs the analysis units and exports one JSON document per
source (camera, senato).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		loadedConfig = cfg
		return logging.Init(cfg.Paths.LogDir, flagVerbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

// loadedConfig is populated by the root pre-run for every subcommand.
var loadedConfig *config.Config

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config (defaults apply when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "bypass the analysis result cache")
}

// newRegistry builds the standard unit registry.
func newRegistry() *analysis.Registry {
	r := analysis.NewRegistry()
	units.RegisterAll(r)
	return r
}

// newAssigner picks the configured topic strategy.
func newAssigner(cfg *config.Config) (topics.Assigner, error) {
	if cfg.Clustering.UseTaxonomy {
		embedder := embed.NewOllamaEmbedder(cfg.Embedding.Endpoint, cfg.Embedding.Model)
		if !embedder.Available() {
			return nil, fmt.Errorf("embedding service unavailable at %s", cfg.Embedding.Endpoint)
		}
		return topics.NewTaxonomy(topics.DefaultTaxonomy(), embedder)
	}
	return topics.NewKMeans(cfg.Clustering.Clusters, cfg.Clustering.Seed), nil
}

// loadPartitions loads every configured source and runs topic assignment.
// Sources whose embeddings are stale are skipped with a warning.
func loadPartitions(ctx context.Context, cfg *config.Config) ([]export.PartitionInput, error) {
	store, err := corpus.OpenStore(cfg.Paths.Database)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	assigner, err := newAssigner(cfg)
	if err != nil {
		return nil, err
	}

	var partitions []export.PartitionInput
	for _, source := range cfg.Sources {
		table, embeddings, err := store.LoadSource(source)
		if err != nil {
			return nil, fmt.Errorf("load source %s: %w", source, err)
		}
		if table.Len() == 0 {
			logging.Warn("source has no speeches, skipping", "source", source)
			continue
		}

		var assignment *topics.Assignment
		if embeddings != nil {
			assignment, err = assigner.Assign(ctx, embeddings)
			if err != nil {
				return nil, fmt.Errorf("assign topics for %s: %w", source, err)
			}
		} else {
			logging.Warn("source has no embeddings, analysis will be partial", "source", source)
		}

		partitions = append(partitions, export.PartitionInput{
			Source:     source,
			Table:      table,
			Embeddings: embeddings,
			Assignment: assignment,
		})
	}
	return partitions, nil
}
