package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Fetch and list the reference state boundaries",
	Long:  "Fetches the 51 state polygons from the configured boundary source (or shapefile) and prints what survived the allowlist filter. Useful for diagnosing boundary-service trouble.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		regions, err := env.regions.Regions(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIPS\tABBR\tNAME\tRINGS")
		for _, r := range regions {
			rings := 0
			if r.Polygon != nil {
				rings = r.Polygon.NumLinearRings()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.FIPS, r.Abbr, r.Name, rings)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Printf("%d regions\n", len(regions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
