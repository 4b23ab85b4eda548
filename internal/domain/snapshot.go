package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

// Bounds is the serialized extent of a raster.
type Bounds struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// RasterSnapshot is a computed raster in its published form. Cells are
// stored row-major with the first row at the northern edge.
type RasterSnapshot struct {
	ID         string                `json:"id"`
	Mode       heatmap.Mode          `json:"mode"`
	Field      string                `json:"field"`
	Bounds     Bounds                `json:"bounds"`
	Grid       heatmap.GridSpec      `json:"grid"`
	Legend     []heatmap.LegendEntry `json:"legend"`
	Cells      [][]float64           `json:"cells"`
	Stats      heatmap.Stats         `json:"stats"`
	Points     int                   `json:"points"`
	Dropped    int                   `json:"dropped"`
	ComputedAt time.Time             `json:"computed_at"`
}

// NewRasterSnapshot packages an engine result. field labels the sampled value.
// points must be the dataset the result was computed from; they feed the
// snapshot ID.
func NewRasterSnapshot(res *heatmap.Result, field string, points heatmap.Dataset) RasterSnapshot {
	return RasterSnapshot{
		ID:    snapshotID(res, field, points),
		Mode:  res.Mode,
		Field: field,
		Bounds: Bounds{
			LatMin: res.Bounds.LatMin(),
			LatMax: res.Bounds.LatMax(),
			LonMin: res.Bounds.LonMin(),
			LonMax: res.Bounds.LonMax(),
		},
		Grid:       res.Spec,
		Legend:     res.Legend.Entries(),
		Cells:      res.Grid.Rows(),
		Stats:      res.Stats,
		Points:     res.Points,
		Dropped:    res.Dropped,
		ComputedAt: clock.Now().UTC(),
	}
}

// snapshotID hashes everything that determines a raster's cells, including
// each sample's position. Floats are hashed by their bit patterns.
func snapshotID(res *heatmap.Result, field string, points heatmap.Dataset) string {
	h := sha256.New()
	b := res.Bounds
	fmt.Fprintf(h, "%s|%s|%x|%d|%d|%x|%t", res.Mode, field,
		math.Float64bits(res.Spec.Scale), res.Spec.Width, res.Spec.Height,
		math.Float64bits(res.Radius), res.Clamped)
	fmt.Fprintf(h, "|%x|%x|%x|%x",
		math.Float64bits(b.LatMin()), math.Float64bits(b.LatMax()),
		math.Float64bits(b.LonMin()), math.Float64bits(b.LonMax()))
	for _, p := range points {
		fmt.Fprintf(h, "|%q=%q@%x,%x", p.Name, p.Value, math.Float64bits(p.Lat), math.Float64bits(p.Lon))
	}
	return "raster-" + hex.EncodeToString(h.Sum(nil)[:8])
}

// SerializeSnapshot encodes a snapshot for the sink topic, keyed by its ID.
func SerializeSnapshot(s RasterSnapshot) (OutputEvent, error) {
	value, err := json.Marshal(s)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return OutputEvent{
		Key:   []byte(s.ID),
		Value: value,
		Headers: map[string]string{
			"mode":        string(s.Mode),
			"field":       s.Field,
			"computed_at": s.ComputedAt.Format(time.RFC3339),
			"points":      strconv.Itoa(s.Points),
		},
	}, nil
}
