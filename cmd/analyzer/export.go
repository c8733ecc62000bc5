package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/export"
	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/logging"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Analyze every configured source and write one JSON file each",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadedConfig

		partitions, err := loadPartitions(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if len(partitions) == 0 {
			return fmt.Errorf("no sources with data, nothing to export")
		}

		exporter := export.NewExporter(newRegistry(), cfg)
		exporter.UseCache = !flagNoCache

		if err := exporter.Export(cmd.Context(), partitions); err != nil {
			return err
		}
		logging.Info("export complete", "sources", len(partitions), "out", cfg.Paths.OutDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
