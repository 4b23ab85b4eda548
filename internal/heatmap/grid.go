package heatmap

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"
)

// Grid is the dense raster produced by the engine, Height rows by Width
// columns with row 0 at the northern edge. Cells start at Sentinel and each
// is written exactly once.
type Grid struct {
	spec  GridSpec
	cells *mat.Dense
}

func newGrid(spec GridSpec) *Grid {
	return &Grid{spec: spec, cells: mat.NewDense(spec.Height, spec.Width, nil)}
}

// Spec returns the grid's resolution.
func (g *Grid) Spec() GridSpec { return g.spec }

func (g *Grid) Width() int  { return g.spec.Width }
func (g *Grid) Height() int { return g.spec.Height }

// At returns the value at row, col. It panics on out-of-range indices.
func (g *Grid) At(row, col int) float64 { return g.cells.At(row, col) }

// AtCell returns the value of a mapper cell, false when the cell lies outside
// the raster.
func (g *Grid) AtCell(c Cell) (float64, bool) {
	if c.X < 0 || c.X >= g.spec.Width || c.Y < 0 || c.Y >= g.spec.Height {
		return 0, false
	}
	return g.cells.At(g.spec.row(c.Y), c.X), true
}

// Rows copies the raster out as row slices, north first.
func (g *Grid) Rows() [][]float64 {
	rows := make([][]float64, g.spec.Height)
	for r := range rows {
		rows[r] = append([]float64(nil), g.cells.RawRowView(r)...)
	}
	return rows
}

// Matrix exposes the raster as a read-only gonum matrix.
func (g *Grid) Matrix() mat.Matrix { return g.cells }

func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

func (g *Grid) set(row, col int, v float64) { g.cells.Set(row, col, v) }
