package heatmap

import (
	"math"
	"slices"

	"github.com/golang/geo/r2"
)

// Neighbor is a sample within the search radius of a cell, identified by its
// position in the mapped sample list, with its distance-decay weight.
type Neighbor struct {
	Index  int
	Weight float64
}

// Query scans every mapped cell and returns those within radius cell units of
// c, in input order. Weights decay linearly from 0.999 at distance zero and
// stay positive up to the radius.
func Query(c Cell, cells []Cell, radius float64) []Neighbor {
	return appendExhaustive(nil, c, cells, radius)
}

func appendExhaustive(dst []Neighbor, c Cell, cells []Cell, radius float64) []Neighbor {
	for i, pc := range cells {
		if d := distance(pc, c); d <= radius {
			dst = append(dst, Neighbor{Index: i, Weight: decay(d, radius)})
		}
	}
	return dst
}

func distance(a, b Cell) float64 {
	d := r2.Point{X: float64(a.X), Y: float64(a.Y)}.Sub(r2.Point{X: float64(b.X), Y: float64(b.Y)})
	return math.Sqrt(d.Dot(d))
}

func decay(dist, radius float64) float64 {
	return maxWeight - dist/radius
}

// maxBucketRadius bounds the radius handled by bucketing. Larger radii cover
// the whole raster anyway and fall back to the exhaustive scan.
const maxBucketRadius = 1 << 16

// pointIndex buckets mapped cells into square tiles of side >= radius so a
// query only visits the 3x3 tiles around the queried cell. Candidates are
// re-sorted into input order, which keeps the result identical to Query
// down to the summation order of weights.
type pointIndex struct {
	cells   []Cell
	radius  float64
	reach   int
	size    int
	buckets map[Cell][]int
}

func newPointIndex(cells []Cell, radius float64) *pointIndex {
	ix := &pointIndex{cells: cells, radius: radius}
	if radius > maxBucketRadius {
		return ix
	}
	ix.reach = int(math.Floor(radius))
	ix.size = max(1, int(math.Ceil(radius)))
	ix.buckets = make(map[Cell][]int)
	for i, c := range cells {
		key := ix.bucket(c)
		ix.buckets[key] = append(ix.buckets[key], i)
	}
	return ix
}

func (ix *pointIndex) bucket(c Cell) Cell {
	return Cell{X: floorDiv(c.X, ix.size), Y: floorDiv(c.Y, ix.size)}
}

// query appends the vicinity of c to dst[:0] and returns it. scratch is
// reused between calls by a single goroutine.
func (ix *pointIndex) query(c Cell, dst []Neighbor, scratch []int) ([]Neighbor, []int) {
	dst = dst[:0]
	if ix.buckets == nil {
		return appendExhaustive(dst, c, ix.cells, ix.radius), scratch
	}

	lo := ix.bucket(Cell{X: c.X - ix.reach, Y: c.Y - ix.reach})
	hi := ix.bucket(Cell{X: c.X + ix.reach, Y: c.Y + ix.reach})
	candidates := scratch[:0]
	for bx := lo.X; bx <= hi.X; bx++ {
		for by := lo.Y; by <= hi.Y; by++ {
			candidates = append(candidates, ix.buckets[Cell{X: bx, Y: by}]...)
		}
	}
	slices.Sort(candidates)

	for _, i := range candidates {
		if d := distance(ix.cells[i], c); d <= ix.radius {
			dst = append(dst, Neighbor{Index: i, Weight: decay(d, ix.radius)})
		}
	}
	return dst, candidates
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
