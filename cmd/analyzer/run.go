package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/WeridFire/Parliament-Speech-Analyzer/internal/analysis"
)

var flagRunSource string

var runCmd = &cobra.Command{
	Use:   "run <unit>",
	Short: "Run a single analysis unit for one source and print its result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadedConfig
		unitName := args[0]

		partitions, err := loadPartitions(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		for _, p := range partitions {
			if p.Source != flagRunSource {
				continue
			}
			if p.Assignment != nil {
				if err := p.Table.SetTopics(p.Assignment.TopicIDs); err != nil {
					return err
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

			orch, err := analysis.NewOrchestrator(newRegistry(), shared, analysis.OrchestratorOptions{
				Source:      p.Source,
				CacheDir:    cfg.Paths.CacheDir,
				EnableCache: !flagNoCache,
				Config:      cfg.Analyzers,
			})
			if err != nil {
				return err
			}

			result, err := orch.Run(unitName, !flagNoCache)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		return fmt.Errorf("source %s not found or has no data", flagRunSource)
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the registered analysis units",
	Run: func(cmd *cobra.Command, args []string) {
		r := newRegistry()
		for _, name := range r.Names() {
			u, _ := r.Get(name)
			desc := u.Describe()
			fmt.Printf("%s (v%s): %s\n", desc.Name, desc.Version, desc.Description)
			for _, f := range desc.Features {
				state := "off"
				if f.Enabled {
					state = "on"
				}
				fmt.Printf("  feature %s [%s]\n", f.Name, state)
			}
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&flagRunSource, "source", "s", "camera", "source partition to analyze")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(unitsCmd)
}
