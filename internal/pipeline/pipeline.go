package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
	"github.com/couchcryptid/storm-data-heatmap/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into a heatmap sample.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (heatmap.Point, error)
}

// Rasterizer computes a raster over a dataset. *heatmap.Engine implements it.
type Rasterizer interface {
	Compute(ctx context.Context, points heatmap.Dataset) (*heatmap.Result, error)
}

// SnapshotLoader publishes a raster snapshot to the destination.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, snapshot domain.RasterSnapshot) error
}

// Options tunes the pipeline loop.
type Options struct {
	BatchSize  int
	WindowSize int
	Field      domain.Field
}

// Pipeline orchestrates the extract-compute-publish loop. Each batch of storm
// events is folded into a sliding window and the raster is recomputed over
// the whole window. Source offsets are committed once the raster that
// includes them has been published.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	rasterizer  Rasterizer
	loader      SnapshotLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options

	window  *Window
	pending []domain.RawEvent // accepted but not yet published
	dirty   bool

	latest atomic.Pointer[domain.RasterSnapshot]
	ready  atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, r Rasterizer, l SnapshotLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		rasterizer:  r,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
		window:      NewWindow(opts.WindowSize),
	}
}

// CheckReadiness returns nil once the first raster has been published, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published a raster yet")
	}
	return nil
}

// Latest returns the most recently published snapshot.
func (p *Pipeline) Latest() (domain.RasterSnapshot, bool) {
	s := p.latest.Load()
	if s == nil {
		return domain.RasterSnapshot{}, false
	}
	return *s, true
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"batch_size", p.opts.BatchSize,
		"window_size", p.opts.WindowSize,
		"field", p.opts.Field,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-compute-publish cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.opts.BatchSize)

	// The reader has already advanced past a partial batch returned with an
	// error, so it is absorbed before backing off.
	if len(rawBatch) > 0 {
		p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
		p.metrics.BatchSize.Observe(float64(len(rawBatch)))
		p.absorb(ctx, rawBatch)
	}

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err, "fetched", len(rawBatch))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	if len(rawBatch) > 0 {
		*backoff = 200 * time.Millisecond
	}

	if !p.dirty {
		p.commitPending(ctx)
		return ctx.Err() == nil
	}

	published, ok := p.publish(ctx, backoff, maxBackoff)
	if !ok {
		return false
	}
	if published {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// absorb transforms each message in the batch and folds the samples into the
// window. Messages that cannot become samples are committed right away.
func (p *Pipeline) absorb(ctx context.Context, rawBatch []domain.RawEvent) {
	for _, raw := range rawBatch {
		point, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		if p.window.Add(point) > 0 {
			p.dirty = true
		}
		p.pending = append(p.pending, raw)
	}
	p.metrics.WindowSize.Set(float64(p.window.Len()))
}

// publish recomputes the raster over the window and loads it. Returns whether
// a snapshot was published and false as its second value if the pipeline
// should stop.
func (p *Pipeline) publish(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) (bool, bool) {
	points := p.window.Points()

	computeStart := time.Now()
	res, err := p.rasterizer.Compute(ctx, points)
	if err != nil {
		if ctx.Err() != nil {
			return false, false
		}
		// Compute errors depend only on the window contents and are not
		// retried. The samples stay until more events arrive.
		p.logger.Warn("compute raster failed", "error", err, "points", len(points))
		p.metrics.ComputeErrors.Inc()
		p.dirty = false
		p.commitPending(ctx)
		return false, true
	}
	p.metrics.ComputeDuration.Observe(time.Since(computeStart).Seconds())

	snapshot := domain.NewRasterSnapshot(res, string(p.opts.Field), points)
	if err := p.loader.LoadSnapshot(ctx, snapshot); err != nil {
		p.logger.Error("load snapshot failed", "error", err, "snapshot_id", snapshot.ID)
		return false, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.recordRaster(res)
	p.latest.Store(&snapshot)
	p.ready.Store(true)
	p.dirty = false
	p.commitPending(ctx)

	p.logger.Info("raster published",
		"snapshot_id", snapshot.ID,
		"points", res.Points,
		"dropped", res.Dropped,
		"width", res.Spec.Width,
		"height", res.Spec.Height,
	)
	return true, true
}

func (p *Pipeline) recordRaster(res *heatmap.Result) {
	p.metrics.RastersPublished.Inc()
	p.metrics.PointsDropped.Add(float64(res.Dropped))
	p.metrics.RasterCells.WithLabelValues(heatmap.OutcomeAssigned.String()).Add(float64(res.Stats.Assigned))
	p.metrics.RasterCells.WithLabelValues(heatmap.OutcomeAmbiguous.String()).Add(float64(res.Stats.Ambiguous))
	p.metrics.RasterCells.WithLabelValues(heatmap.OutcomeEmpty.String()).Add(float64(res.Stats.Empty))
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitPending(ctx context.Context) {
	for _, raw := range p.pending {
		p.commitOffset(ctx, raw)
	}
	p.pending = p.pending[:0]
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
