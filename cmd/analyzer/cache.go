package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/cache"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

var flagCachePattern string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the analysis result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-source cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadedConfig

		stats := make([]cache.Stats, 0, len(cfg.Sources))
		for _, source := range cfg.Sources {
			m, err := cache.New(cfg.Paths.CacheDir, source, true)
			if err != nil {
				return err
			}
			stats = append(stats, m.GetStats())
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Invalidate cached results, optionally by key substring",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadedConfig

		for _, source := range cfg.Sources {
			m, err := cache.New(cfg.Paths.CacheDir, source, true)
			if err != nil {
				return err
			}
			m.Invalidate(flagCachePattern)
		}
		logging.Info("cache cleared", "pattern", flagCachePattern, "sources", len(cfg.Sources))
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVarP(&flagCachePattern, "pattern", "p", "", "only clear keys containing this substring")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
