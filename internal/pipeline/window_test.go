package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

func TestWindow_AddDeduplicatesByName(t *testing.T) {
	w := NewWindow(10)

	a := heatmap.Point{Name: "a", Lat: 1, Lon: 1, Value: "hail"}
	b := heatmap.Point{Name: "b", Lat: 2, Lon: 2, Value: "wind"}
	assert.Equal(t, 2, w.Add(a, b))
	assert.Equal(t, 0, w.Add(a), "identical replay")

	moved := a
	moved.Value = "tornado"
	assert.Equal(t, 1, w.Add(moved), "updated sample replaces in place")
	assert.Equal(t, heatmap.Dataset{moved, b}, w.Points())
}

func TestWindow_EvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		w.Add(heatmap.Point{Name: name, Value: "hail"})
	}

	assert.Equal(t, 3, w.Len())
	got := w.Points()
	assert.Equal(t, []string{"c", "d", "e"}, []string{got[0].Name, got[1].Name, got[2].Name})

	assert.Equal(t, 1, w.Add(heatmap.Point{Name: "a", Value: "hail"}), "evicted samples can return")
	assert.Equal(t, 0, w.Add(heatmap.Point{Name: "e", Value: "hail"}), "index survives eviction")
}

func TestWindow_PointsIsACopy(t *testing.T) {
	w := NewWindow(2)
	w.Add(heatmap.Point{Name: "a", Value: "hail"})

	pts := w.Points()
	pts[0].Value = "changed"

	assert.Equal(t, "hail", w.Points()[0].Value)
}

func TestNewWindow_MinimumSize(t *testing.T) {
	w := NewWindow(0)
	w.Add(heatmap.Point{Name: "a"}, heatmap.Point{Name: "b"})
	assert.Equal(t, 1, w.Len())
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		current, want time.Duration
	}{
		{200 * time.Millisecond, 400 * time.Millisecond},
		{2500 * time.Millisecond, 5 * time.Second},
		{4 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextBackoff(tt.current, 5*time.Second))
	}
}
