package heatmap

import "math"

// Cell is a raster coordinate. X grows eastward from the western edge and Y
// grows northward from the southern edge. Mapped samples may fall outside the
// raster when they sit within the radius margin.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToCell maps a sample to its cell. The ceil convention attributes samples
// lying exactly on a cell boundary to the cell above and to the right.
func ToCell(p Point, b BoundingBox, scale float64) Cell {
	return Cell{
		X: int(math.Ceil((p.Lon - b.LonMin()) / scale)),
		Y: int(math.Ceil((p.Lat - b.LatMin()) / scale)),
	}
}

// mapped holds the samples that survived the reach filter, in dataset order.
type mapped struct {
	index []int  // position in the original dataset
	cells []Cell // mapped cell, parallel to index
}

// mapPoints drops samples outside the box's reach and maps the rest once.
func mapPoints(points Dataset, b BoundingBox, scale, radius float64) mapped {
	m := mapped{
		index: make([]int, 0, len(points)),
		cells: make([]Cell, 0, len(points)),
	}
	for i, p := range points {
		if !b.Reaches(p, radius) {
			continue
		}
		m.index = append(m.index, i)
		m.cells = append(m.cells, ToCell(p, b, scale))
	}
	return m
}

func (m mapped) dropped(total int) int { return total - len(m.index) }
