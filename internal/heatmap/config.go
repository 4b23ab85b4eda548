package heatmap

import (
	"fmt"
	"math"
	"runtime"
)

// Defaults used by DefaultConfig.
const (
	DefaultScale      = 0.007
	DefaultRadius     = 0.2
	DefaultValueLabel = "value"
)

// ProgressFunc receives the number of completed raster rows. It may be called
// from several goroutines at once.
type ProgressFunc func(rowsDone, rowsTotal int)

// Padding grows the data extent into the bounding box. Border applies to every
// side; a positive directional offset overrides it for that side.
type Padding struct {
	Border float64 `json:"border,omitempty"`
	North  float64 `json:"north,omitempty"`
	South  float64 `json:"south,omitempty"`
	East   float64 `json:"east,omitempty"`
	West   float64 `json:"west,omitempty"`
}

// Uniform returns a Padding with the same border on every side.
func Uniform(border float64) Padding {
	return Padding{Border: border}
}

func (p Padding) north() float64 { return p.side(p.North) }
func (p Padding) south() float64 { return p.side(p.South) }
func (p Padding) east() float64  { return p.side(p.East) }
func (p Padding) west() float64  { return p.side(p.West) }

func (p Padding) side(v float64) float64 {
	if v > 0 {
		return v
	}
	return p.Border
}

func (p Padding) validate() error {
	sides := []struct {
		name string
		v    float64
	}{
		{"border", p.Border}, {"north", p.North}, {"south", p.South}, {"east", p.East}, {"west", p.West},
	}
	for _, s := range sides {
		if s.v < 0 || math.IsNaN(s.v) || math.IsInf(s.v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidPadding, s.name, s.v)
		}
	}
	return nil
}

// Config holds every engine tunable.
type Config struct {
	Mode    Mode    `json:"mode"`
	Scale   float64 `json:"scale"`  // degrees per cell
	Radius  float64 `json:"radius"` // degrees
	Padding Padding `json:"padding"`

	// Region fixes the raster extent instead of deriving it from the data.
	// Padding is ignored when it is set, and samples beyond its reach are
	// dropped.
	Region *BoundingBox `json:"-"`

	// Clamp caps weighted-mode aggregates at 1.0. Ignored in influence mode.
	Clamp bool `json:"clamp,omitempty"`

	// ValueLabel titles the single weighted-mode legend entry.
	ValueLabel string `json:"value_label,omitempty"`

	// Workers is the number of row bands filled in parallel. Values below 1
	// mean GOMAXPROCS.
	Workers int `json:"-"`

	Progress ProgressFunc `json:"-"`
}

// DefaultConfig returns an influence-mode configuration with the reference
// scale and radius and no padding.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeInfluence,
		Scale:      DefaultScale,
		Radius:     DefaultRadius,
		ValueLabel: DefaultValueLabel,
	}
}

// Validate reports the first configuration error, if any.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if !(c.Scale > 0) || math.IsInf(c.Scale, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, c.Scale)
	}
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRadius, c.Radius)
	}
	if c.Region != nil && (!(c.Region.LatMax() > c.Region.LatMin()) || !(c.Region.LonMax() > c.Region.LonMin())) {
		return ErrDegenerateBounds
	}
	return c.Padding.validate()
}

func (c Config) bounds(points Dataset) (BoundingBox, error) {
	if c.Region == nil {
		return DeriveBounds(points, c.Padding)
	}
	if len(points) == 0 {
		return BoundingBox{}, ErrEmptyDataset
	}
	return *c.Region, nil
}

func (c Config) workers(rows int) int {
	n := c.Workers
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	return max(1, min(n, rows))
}

func (c Config) valueLabel() string {
	if c.ValueLabel == "" {
		return DefaultValueLabel
	}
	return c.ValueLabel
}
