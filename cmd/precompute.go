package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/catalog"
	"github.com/sells-group/coverage-cli/internal/precompute"
)

var (
	precomputeDryRun bool
	precomputeForce  bool
	precomputeFilter string
	precomputeFormat string
	precomputeXLSX   string
)

var precomputeCmd = &cobra.Command{
	Use:   "precompute",
	Short: "Precompute coverage for every qualifying catalog dataset",
	Long:  "Runs the per-state count batch (unbuffered, with linear-backoff retries) for each spatial dataset in the catalog and persists the counts for the live path to reuse.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		opts := precompute.Options{
			DatasetConcurrency: cfg.Precompute.DatasetConcurrency,
			RegionConcurrency:  cfg.Precompute.RegionConcurrency,
			RetryAttempts:      cfg.Precompute.RetryAttempts,
			RetryDelay:         cfg.Precompute.RetryDelay(),
			QueryTimeout:       cfg.Query.QueryTimeout(),
			DryRun:             precomputeDryRun,
			Force:              precomputeForce,
		}
		if precomputeFilter != "" {
			opts.DatasetFilter = func(d catalog.Dataset) bool {
				return strings.Contains(strings.ToLower(d.Name), strings.ToLower(precomputeFilter)) ||
					d.ID == precomputeFilter
			}
		}

		runner := &precompute.Runner{
			Store:   env.store,
			Regions: env.regions,
			Client:  env.client,
			Opts:    opts,
		}

		report, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}

		if precomputeXLSX != "" {
			if err := precompute.WriteXLSX(precomputeXLSX, report); err != nil {
				return err
			}
		}

		switch precomputeFormat {
		case "yaml":
			return precompute.WriteYAML(os.Stdout, report)
		default:
			return precompute.WriteTable(os.Stdout, report)
		}
	},
}

func init() {
	precomputeCmd.Flags().BoolVar(&precomputeDryRun, "dry-run", false, "compute and report without persisting")
	precomputeCmd.Flags().BoolVar(&precomputeForce, "force", false, "reprocess datasets that already have coverage records")
	precomputeCmd.Flags().StringVar(&precomputeFilter, "filter", "", "only process datasets whose name contains this substring (or matching id)")
	precomputeCmd.Flags().StringVar(&precomputeFormat, "format", "table", "report format: table or yaml")
	precomputeCmd.Flags().StringVar(&precomputeXLSX, "xlsx", "", "also save the report as a spreadsheet at this path")
	rootCmd.AddCommand(precomputeCmd)
}
