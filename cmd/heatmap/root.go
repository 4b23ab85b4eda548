package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-heatmap/internal/ingest"
	"github.com/couchcryptid/storm-data-heatmap/internal/observability"
)

var (
	logLevel  string
	logFormat string
	logger    = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Render categorical and weighted heatmap rasters from point samples",
	Long: `Reads point samples from a CSV file and interpolates them onto a regular
lat/lon grid. In influence mode each cell holds the rank of the category that
dominates its vicinity; in weighted mode it holds the distance-weighted sum of
the sample values.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger = observability.NewLoggerTo(cmd.ErrOrStderr(), logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// addColumnFlags registers the CSV source flags shared by every subcommand.
func addColumnFlags(cmd *cobra.Command, path *string, cols *ingest.Columns) {
	def := ingest.DefaultColumns()
	cmd.Flags().StringVar(path, "csv", "", "path to the sample CSV file (required)")
	cmd.Flags().IntVar(&cols.Name, "name-col", def.Name, "zero-based index of the sample name column")
	cmd.Flags().IntVar(&cols.Lat, "lat-col", def.Lat, "zero-based index of the latitude column")
	cmd.Flags().IntVar(&cols.Lon, "lon-col", def.Lon, "zero-based index of the longitude column")
	cmd.Flags().IntVar(&cols.Value, "value-col", def.Value, "zero-based index of the value column")
	_ = cmd.MarkFlagRequired("csv")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
