package heatmap

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// BoundingBox is the geographic extent covered by the raster. X holds
// longitude and Y latitude.
type BoundingBox struct {
	rect r2.Rect
}

// DeriveBounds returns the extent of the dataset grown by the padding.
func DeriveBounds(points Dataset, pad Padding) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, ErrEmptyDataset
	}
	if err := pad.validate(); err != nil {
		return BoundingBox{}, err
	}

	rect := r2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(r2.Point{X: p.Lon, Y: p.Lat})
	}
	rect.X.Lo -= pad.west()
	rect.X.Hi += pad.east()
	rect.Y.Lo -= pad.south()
	rect.Y.Hi += pad.north()

	if !(rect.X.Hi > rect.X.Lo) || !(rect.Y.Hi > rect.Y.Lo) {
		return BoundingBox{}, fmt.Errorf("%w: lat [%v, %v] lon [%v, %v]",
			ErrDegenerateBounds, rect.Y.Lo, rect.Y.Hi, rect.X.Lo, rect.X.Hi)
	}
	return BoundingBox{rect: rect}, nil
}

// NewBoundingBox builds a box from explicit limits.
func NewBoundingBox(latMin, latMax, lonMin, lonMax float64) (BoundingBox, error) {
	if !(latMax > latMin) || !(lonMax > lonMin) {
		return BoundingBox{}, fmt.Errorf("%w: lat [%v, %v] lon [%v, %v]",
			ErrDegenerateBounds, latMin, latMax, lonMin, lonMax)
	}
	return BoundingBox{rect: r2.RectFromPoints(
		r2.Point{X: lonMin, Y: latMin},
		r2.Point{X: lonMax, Y: latMax},
	)}, nil
}

func (b BoundingBox) LatMin() float64 { return b.rect.Y.Lo }
func (b BoundingBox) LatMax() float64 { return b.rect.Y.Hi }
func (b BoundingBox) LonMin() float64 { return b.rect.X.Lo }
func (b BoundingBox) LonMax() float64 { return b.rect.X.Hi }

// Reaches reports whether p lies inside the box grown by radius degrees on
// every side. Points outside cannot influence any cell and are dropped.
func (b BoundingBox) Reaches(p Point, radius float64) bool {
	return b.rect.ExpandedByMargin(radius).ContainsPoint(r2.Point{X: p.Lon, Y: p.Lat})
}

// GridSpec is the raster resolution derived from a bounding box.
type GridSpec struct {
	Scale  float64 `json:"scale"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// NewGridSpec sizes a raster that covers b with cells of scale degrees.
func NewGridSpec(b BoundingBox, scale float64) GridSpec {
	size := b.rect.Size()
	return GridSpec{
		Scale:  scale,
		Width:  int(math.Ceil(size.X / scale)),
		Height: int(math.Ceil(size.Y / scale)),
	}
}

// Cells returns the number of cells in the raster.
func (s GridSpec) Cells() int { return s.Width * s.Height }

// row converts a northward cell index into a Grid row.
func (s GridSpec) row(y int) int { return s.Height - 1 - y }

// cellY converts a Grid row into a northward cell index.
func (s GridSpec) cellY(row int) int { return s.Height - 1 - row }
