package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

// PointTransformer implements Transformer by decoding storm events and
// picking the configured field, geocoding events that arrive without
// coordinates.
type PointTransformer struct {
	field    domain.Field
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a PointTransformer. Pass a nil geocoder to skip
// events that have no coordinates.
func NewTransformer(field domain.Field, geocoder domain.Geocoder, logger *slog.Logger) *PointTransformer {
	return &PointTransformer{
		field:    field,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *PointTransformer) Transform(ctx context.Context, raw domain.RawEvent) (heatmap.Point, error) {
	event, err := domain.ParseStormEvent(raw)
	if err != nil {
		return heatmap.Point{}, err
	}

	event, err = domain.LocateEvent(ctx, event, t.geocoder, t.logger)
	if err != nil {
		return heatmap.Point{}, err
	}

	return domain.ToPoint(event, t.field)
}
