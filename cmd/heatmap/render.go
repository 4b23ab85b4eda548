package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
	"github.com/couchcryptid/storm-data-heatmap/internal/ingest"
)

type renderOptions struct {
	csv     string
	cols    ingest.Columns
	mode    string
	scale   float64
	radius  float64
	padding heatmap.Padding
	region  string
	clamp   bool
	workers int
	out     string
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Compute a raster from a CSV file and write it as JSON",
	Long: `Computes a raster over the samples in a CSV file and writes the snapshot
(bounds, grid size, legend, cells and statistics) as JSON.

Examples:
  # Category influence map with a half-degree border
  heatmap render --csv reports.csv --border 0.5

  # Weighted map clamped at 1.0, written to a file
  heatmap render --csv rainfall.csv --mode weighted --clamp --out raster.json

  # Fixed region; samples beyond its reach are dropped
  heatmap render --csv reports.csv --region 34.5,36,-97.5,-95.5`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		if renderOpts.out != "" {
			f, err := os.Create(renderOpts.out)
			if err != nil {
				return fmt.Errorf("render: create output: %w", err)
			}
			defer f.Close()
			w = f
		}
		return runRender(cmd.Context(), w, renderOpts)
	},
}

func init() {
	def := heatmap.DefaultConfig()
	f := renderCmd.Flags()
	addColumnFlags(renderCmd, &renderOpts.csv, &renderOpts.cols)
	f.StringVar(&renderOpts.mode, "mode", string(def.Mode), "interpolation mode: influence or weighted")
	f.Float64Var(&renderOpts.scale, "scale", def.Scale, "cell size in degrees")
	f.Float64Var(&renderOpts.radius, "radius", def.Radius, "influence radius in degrees")
	f.Float64Var(&renderOpts.padding.Border, "border", 0, "padding in degrees added on every side of the data extent")
	f.Float64Var(&renderOpts.padding.North, "pad-north", 0, "northern padding in degrees (overrides --border)")
	f.Float64Var(&renderOpts.padding.South, "pad-south", 0, "southern padding in degrees (overrides --border)")
	f.Float64Var(&renderOpts.padding.East, "pad-east", 0, "eastern padding in degrees (overrides --border)")
	f.Float64Var(&renderOpts.padding.West, "pad-west", 0, "western padding in degrees (overrides --border)")
	f.StringVar(&renderOpts.region, "region", "", "fixed extent as latMin,latMax,lonMin,lonMax (ignores padding)")
	f.BoolVar(&renderOpts.clamp, "clamp", false, "cap weighted values at 1.0")
	f.IntVar(&renderOpts.workers, "workers", 0, "parallel row bands (0 = GOMAXPROCS)")
	f.StringVar(&renderOpts.out, "out", "", "write the snapshot to a file (default: stdout)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(ctx context.Context, w io.Writer, opts renderOptions) error {
	table, err := ingest.LoadFile(opts.csv, opts.cols)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logger.Info("loaded samples", "path", opts.csv, "rows", table.Rows, "skipped", table.Skipped, "points", len(table.Points))

	cfg, err := opts.engineConfig(table.ValueLabel)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	cfg.Progress = progressLogger()

	engine, err := heatmap.NewEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	res, err := engine.Compute(ctx, table.Points)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if res.Dropped > 0 {
		logger.Warn("samples outside the raster's reach were dropped", "dropped", res.Dropped)
	}

	snapshot := domain.NewRasterSnapshot(res, table.ValueLabel, table.Points)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("render: write snapshot: %w", err)
	}
	return nil
}

func (o renderOptions) engineConfig(valueLabel string) (heatmap.Config, error) {
	mode, err := heatmap.ParseMode(o.mode)
	if err != nil {
		return heatmap.Config{}, err
	}
	cfg := heatmap.DefaultConfig()
	cfg.Mode = mode
	cfg.Scale = o.scale
	cfg.Radius = o.radius
	cfg.Padding = o.padding
	cfg.Clamp = o.clamp
	cfg.Workers = o.workers
	if valueLabel != "" {
		cfg.ValueLabel = valueLabel
	}
	if o.region != "" {
		region, err := parseRegion(o.region)
		if err != nil {
			return heatmap.Config{}, err
		}
		cfg.Region = &region
	}
	return cfg, cfg.Validate()
}

// parseRegion reads "latMin,latMax,lonMin,lonMax".
func parseRegion(s string) (heatmap.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return heatmap.BoundingBox{}, fmt.Errorf("region %q: want latMin,latMax,lonMin,lonMax", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return heatmap.BoundingBox{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = f
	}
	return heatmap.NewBoundingBox(v[0], v[1], v[2], v[3])
}

// progressLogger reports at roughly every tenth of the raster.
func progressLogger() heatmap.ProgressFunc {
	return func(done, total int) {
		step := max(1, total/10)
		if done%step == 0 || done == total {
			logger.Debug("rendering", "rows_done", done, "rows_total", total)
		}
	}
}
