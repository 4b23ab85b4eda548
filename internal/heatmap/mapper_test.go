package heatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCell(t *testing.T) {
	b, err := NewBoundingBox(0, 2, 0, 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		lat  float64
		lon  float64
		want Cell
	}{
		{"origin", 0, 0, Cell{X: 0, Y: 0}},
		{"interior rounds up", 0.2, 0.7, Cell{X: 2, Y: 1}},
		{"boundary stays on its line", 1.0, 1.5, Cell{X: 3, Y: 2}},
		{"north-east corner", 2, 2, Cell{X: 4, Y: 4}},
		{"west of the box", 0.5, -0.6, Cell{X: -1, Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCell(Point{Lat: tt.lat, Lon: tt.lon}, b, 0.5))
		})
	}
}

func TestMapPoints_DropsOutOfReach(t *testing.T) {
	b, err := NewBoundingBox(0, 1, 0, 1)
	require.NoError(t, err)

	points := Dataset{
		{Name: "in", Lat: 0.5, Lon: 0.5},
		{Name: "far", Lat: 40, Lon: 40},
		{Name: "margin", Lat: 1.1, Lon: -0.1},
	}

	m := mapPoints(points, b, 0.25, 0.2)

	assert.Equal(t, []int{0, 2}, m.index)
	assert.Equal(t, []Cell{{X: 2, Y: 2}, {X: 0, Y: 5}}, m.cells)
	assert.Equal(t, 1, m.dropped(len(points)))
}
