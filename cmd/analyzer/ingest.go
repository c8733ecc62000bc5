package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/corpus"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/embed"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <records.json>",
	Short: "Load scraped speeches into the corpus database",
	Long: `Load scraped speeches into the corpus database.

The input is a JSON array of speech records. Records without a precomputed
embedding are embedded through the configured service; near-duplicate
speeches are dropped before persistence.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadedConfig

		records, err := corpus.ReadRecords(args[0])
		if err != nil {
			return err
		}

		store, err := corpus.OpenStore(cfg.Paths.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		var embedder embed.Embedder
		if oll := embed.NewOllamaEmbedder(cfg.Embedding.Endpoint, cfg.Embedding.Model); oll.Available() {
			embedder = oll
		}

		stats, err := corpus.Ingest(cmd.Context(), store, embedder, records)
		if err != nil {
			return err
		}
		fmt.Printf("read %d, embedded %d, duplicates %d, saved %d\n",
			stats.Read, stats.Embedded, stats.Duplicates, stats.Saved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
