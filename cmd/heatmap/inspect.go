package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
	"github.com/couchcryptid/storm-data-heatmap/internal/ingest"
)

var (
	inspectCSV    string
	inspectCols   ingest.Columns
	inspectBorder float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a sample CSV without computing a raster",
	Long: `Prints the row counts, the bounding box of the samples (grown by --border)
and the category legend the influence mode would use.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := ingest.LoadFile(inspectCSV, inspectCols)
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		return writeInspection(cmd.OutOrStdout(), table, heatmap.Uniform(inspectBorder))
	},
}

func init() {
	addColumnFlags(inspectCmd, &inspectCSV, &inspectCols)
	inspectCmd.Flags().Float64Var(&inspectBorder, "border", 0, "padding in degrees added on every side of the data extent")
	rootCmd.AddCommand(inspectCmd)
}

func writeInspection(w io.Writer, table ingest.Table, pad heatmap.Padding) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "rows\t%d\n", table.Rows)
	fmt.Fprintf(tw, "skipped\t%d\n", table.Skipped)
	fmt.Fprintf(tw, "points\t%d\n", len(table.Points))
	fmt.Fprintf(tw, "value column\t%s\n", table.ValueLabel)

	bounds, err := heatmap.DeriveBounds(table.Points, pad)
	if err != nil {
		fmt.Fprintf(tw, "bounds\tunavailable (%v)\n", err)
	} else {
		fmt.Fprintf(tw, "latitude\t%g .. %g\n", bounds.LatMin(), bounds.LatMax())
		fmt.Fprintf(tw, "longitude\t%g .. %g\n", bounds.LonMin(), bounds.LonMax())
	}

	values := make([]string, len(table.Points))
	for i, p := range table.Points {
		values[i] = p.Value
	}
	legend := heatmap.BuildLegend(values)
	fmt.Fprintf(tw, "categories\t%d\n", legend.Len())
	for _, e := range legend.Entries() {
		fmt.Fprintf(tw, "  %d\t%s (%d)\n", e.Rank, e.Label, e.Count)
	}
	return tw.Flush()
}
