package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/arcgis"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/render"
)

var (
	analyzeLayerID string
	analyzeOutput  string
	analyzeNoSeed  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <service-url>",
	Short: "Analyze one feature service's per-state coverage",
	Long:  "Counts features intersecting each US state (plus DC) and writes a choropleth SVG. A precomputed coverage record for the target, if present, is used instead of live queries.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if analyzeNoSeed {
			env.analyzer.Seeds = nil
		}

		target := arcgis.TargetFor(args[0], analyzeLayerID)
		onProgress := func(completed, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d states", completed, total)
			if completed == total {
				fmt.Fprintln(os.Stderr)
			}
		}

		batch, err := env.analyzer.Analyze(cmd.Context(), target, onProgress)
		if errors.Is(err, coverage.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return err
		}

		out := render.Render(batch)
		if analyzeOutput == "-" || analyzeOutput == "" {
			fmt.Print(out.SVG)
		} else {
			if err := os.WriteFile(analyzeOutput, []byte(out.SVG), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", analyzeOutput)
		}
		fmt.Fprintln(os.Stderr, render.StatusLine(out.Summary))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLayerID, "layer", "", "layer id (default 0, ignored if the URL names a layer)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "coverage.svg", "output SVG path ('-' for stdout)")
	analyzeCmd.Flags().BoolVar(&analyzeNoSeed, "no-seed", false, "ignore precomputed coverage and always run live queries")
	rootCmd.AddCommand(analyzeCmd)
}
