package heatmap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Stats counts cell outcomes across a raster.
type Stats struct {
	Assigned  int `json:"assigned"`
	Ambiguous int `json:"ambiguous"`
	Empty     int `json:"empty"`
}

func (s *Stats) count(o Outcome) {
	switch o {
	case OutcomeAssigned:
		s.Assigned++
	case OutcomeAmbiguous:
		s.Ambiguous++
	default:
		s.Empty++
	}
}

func (s *Stats) merge(o Stats) {
	s.Assigned += o.Assigned
	s.Ambiguous += o.Ambiguous
	s.Empty += o.Empty
}

// Result is a completed raster with everything needed to render it.
type Result struct {
	Grid    *Grid
	Legend  Legend
	Bounds  BoundingBox
	Spec    GridSpec
	Mode    Mode
	Radius  float64 // degrees
	Clamped bool    // weighted aggregates were capped at 1.0
	Points  int     // samples in the dataset
	Dropped int     // samples outside the box's reach
	Stats   Stats
}

// Engine computes rasters for a fixed configuration. It holds no state
// between runs and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine validates cfg and returns an engine for it.
func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Compute is a one-shot convenience around NewEngine and Engine.Compute.
func Compute(ctx context.Context, points Dataset, cfg Config) (*Result, error) {
	e, err := NewEngine(cfg, nil)
	if err != nil {
		return nil, err
	}
	return e.Compute(ctx, points)
}

// Compute interpolates points onto a raster. Rows are filled in parallel
// bands; cancellation is observed at row boundaries. On error no result is
// returned.
func (e *Engine) Compute(ctx context.Context, points Dataset) (*Result, error) {
	bounds, err := e.cfg.bounds(points)
	if err != nil {
		return nil, err
	}
	spec := NewGridSpec(bounds, e.cfg.Scale)
	m := mapPoints(points, bounds, e.cfg.Scale, e.cfg.Radius)

	res, legend, err := e.newResolver(points, m)
	if err != nil {
		return nil, err
	}

	radius := e.cfg.Radius / e.cfg.Scale
	e.logger.Debug("computing raster",
		"mode", e.cfg.Mode,
		"lat_min", bounds.LatMin(), "lat_max", bounds.LatMax(),
		"lon_min", bounds.LonMin(), "lon_max", bounds.LonMax(),
		"width", spec.Width, "height", spec.Height,
		"radius_cells", radius,
		"points", len(points), "dropped", m.dropped(len(points)),
	)

	grid := newGrid(spec)
	stats, err := e.fill(ctx, grid, newPointIndex(m.cells, radius), res)
	if err != nil {
		return nil, err
	}

	return &Result{
		Grid:    grid,
		Legend:  legend,
		Bounds:  bounds,
		Spec:    spec,
		Mode:    e.cfg.Mode,
		Radius:  e.cfg.Radius,
		Clamped: e.cfg.Mode == ModeWeighted && e.cfg.Clamp,
		Points:  len(points),
		Dropped: m.dropped(len(points)),
		Stats:   stats,
	}, nil
}

// newResolver builds the legend and the mode's resolver over the mapped samples.
func (e *Engine) newResolver(points Dataset, m mapped) (resolver, Legend, error) {
	switch e.cfg.Mode {
	case ModeInfluence:
		legend := BuildLegend(points.Values())
		labels := make([]string, len(m.index))
		for i, idx := range m.index {
			labels[i] = points[idx].Value
		}
		return influenceResolver{labels: labels, legend: legend}, legend, nil

	case ModeWeighted:
		numeric := make([]float64, len(points))
		for i, p := range points {
			v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, Legend{}, fmt.Errorf("%w: point %q value %q", ErrNonNumericValue, p.Name, p.Value)
			}
			numeric[i] = v
		}
		values := make([]float64, len(m.index))
		for i, idx := range m.index {
			values[i] = numeric[idx]
		}
		legend := SingleLabelLegend(e.cfg.valueLabel(), len(points))
		return weightedResolver{values: values, clamp: e.cfg.Clamp}, legend, nil

	default:
		return nil, Legend{}, fmt.Errorf("%w: %q", ErrInvalidMode, e.cfg.Mode)
	}
}

// fill resolves every cell. Each band owns a contiguous row range, so cells
// are written exactly once without locking.
func (e *Engine) fill(ctx context.Context, grid *Grid, ix *pointIndex, res resolver) (Stats, error) {
	spec := grid.Spec()
	workers := e.cfg.workers(spec.Height)
	bandStats := make([]Stats, workers)
	var rowsDone atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo := w * spec.Height / workers
		hi := (w + 1) * spec.Height / workers
		g.Go(func() error {
			var (
				vicinity []Neighbor
				scratch  []int
			)
			for row := lo; row < hi; row++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				y := spec.cellY(row)
				for col := range spec.Width {
					vicinity, scratch = ix.query(Cell{X: col, Y: y}, vicinity, scratch)
					v, outcome, err := res.resolve(vicinity)
					if err != nil {
						return fmt.Errorf("resolve cell (%d, %d): %w", col, y, err)
					}
					grid.set(row, col, v)
					bandStats[w].count(outcome)
				}
				done := rowsDone.Add(1)
				if e.cfg.Progress != nil {
					e.cfg.Progress(int(done), spec.Height)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var total Stats
	for _, s := range bandStats {
		total.merge(s)
	}
	return total, nil
}
