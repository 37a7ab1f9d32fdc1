package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/coverage-cli/internal/catalog"
)

var (
	datasetName     string
	datasetLayerID  string
	datasetGeometry string
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage the dataset catalog",
}

var datasetsAddCmd = &cobra.Command{
	Use:   "add <service-url>",
	Short: "Add or update a catalog dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		d, err := env.store.UpsertDataset(cmd.Context(), catalog.Dataset{
			Name:         datasetName,
			ServiceURL:   args[0],
			LayerID:      datasetLayerID,
			GeometryType: datasetGeometry,
		})
		if err != nil {
			return err
		}

		qualifies := "no"
		if d.Qualifies() {
			qualifies = "yes"
		}
		fmt.Printf("%s  %s  (qualifies for precompute: %s)\n", d.ID, d.Name, qualifies)
		return nil
	},
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		datasets, err := env.store.ListDatasets(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tGEOMETRY\tQUALIFIES\tSERVICE")
		for _, d := range datasets {
			qualifies := ""
			if d.Qualifies() {
				qualifies = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.GeometryType, qualifies, d.ServiceURL)
		}
		return tw.Flush()
	},
}

func init() {
	datasetsAddCmd.Flags().StringVar(&datasetName, "name", "", "dataset display name")
	datasetsAddCmd.Flags().StringVar(&datasetLayerID, "layer", "", "layer id (ignored if the URL names a layer)")
	datasetsAddCmd.Flags().StringVar(&datasetGeometry, "geometry-type", "", "Esri geometry type (e.g. esriGeometryPoint)")
	datasetsCmd.AddCommand(datasetsAddCmd, datasetsListCmd)
	rootCmd.AddCommand(datasetsCmd)
}
