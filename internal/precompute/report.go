package precompute

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

func (o Outcome) statusString() string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Err != "":
		return "failed"
	default:
		return "ok"
	}
}

// WriteTable renders the report as an aligned text table for terminals.
func WriteTable(w io.Writer, rep *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "run %s\tstarted %s\tdry-run %v\n",
		rep.RunID, rep.StartedAt.Format("2006-01-02 15:04:05"), rep.DryRun)
	fmt.Fprintln(tw, "DATASET\tSTATUS\tSTATES\tFEATURES\tFAILED\tELAPSED")

	for _, o := range rep.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%d\t%s\n",
			o.Dataset.Name, o.statusString(),
			o.Summary.StatesWithData, o.Summary.TotalStates,
			o.Summary.TotalFeatures, o.Summary.FailedCount,
			o.Duration.Round(10*time.Millisecond),
		)
	}

	fmt.Fprintf(tw, "total\t%d processed, %d skipped, %d failed\n",
		rep.Processed, rep.Skipped, rep.Failed)
	return eris.Wrap(tw.Flush(), "report: flush table")
}

// WriteYAML renders the full report as YAML.
func WriteYAML(w io.Writer, rep *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close yaml encoder")
}

// WriteXLSX saves the report as a spreadsheet, one row per dataset.
func WriteXLSX(path string, rep *Report) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("coverage")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"dataset_id", "name", "service_url", "layer_id",
		"status", "states_with_data", "total_states", "total_features", "failed_regions", "error",
	} {
		header.AddCell().SetString(h)
	}

	for _, o := range rep.Outcomes {
		row := sheet.AddRow()
		row.AddCell().SetString(o.Dataset.ID)
		row.AddCell().SetString(o.Dataset.Name)
		row.AddCell().SetString(o.Dataset.ServiceURL)
		row.AddCell().SetString(o.Dataset.LayerID)
		row.AddCell().SetString(o.statusString())
		row.AddCell().SetInt(o.Summary.StatesWithData)
		row.AddCell().SetInt(o.Summary.TotalStates)
		row.AddCell().SetInt(o.Summary.TotalFeatures)
		row.AddCell().SetInt(o.Summary.FailedCount)
		row.AddCell().SetString(o.Err)
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}
