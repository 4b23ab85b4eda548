package pipeline

import "github.com/couchcryptid/storm-data-heatmap/internal/heatmap"

// Window is the bounded set of samples a raster is computed from. Samples
// are keyed by name, so replayed events replace rather than duplicate their
// earlier copy. When full, the oldest samples are evicted first. Window is
// not safe for concurrent use.
type Window struct {
	limit  int
	points heatmap.Dataset
	index  map[string]int
}

// NewWindow creates a window holding at most limit samples.
func NewWindow(limit int) *Window {
	return &Window{
		limit: max(1, limit),
		index: make(map[string]int),
	}
}

// Add inserts or replaces samples and reports how many changed the window.
func (w *Window) Add(points ...heatmap.Point) int {
	changed := 0
	for _, p := range points {
		if i, ok := w.index[p.Name]; ok {
			if w.points[i] == p {
				continue
			}
			w.points[i] = p
			changed++
			continue
		}
		w.index[p.Name] = len(w.points)
		w.points = append(w.points, p)
		changed++
	}
	w.evict()
	return changed
}

func (w *Window) evict() {
	excess := len(w.points) - w.limit
	if excess <= 0 {
		return
	}
	for _, p := range w.points[:excess] {
		delete(w.index, p.Name)
	}
	w.points = append(w.points[:0], w.points[excess:]...)
	for i, p := range w.points {
		w.index[p.Name] = i
	}
}

// Points returns a copy of the samples, oldest first.
func (w *Window) Points() heatmap.Dataset {
	return append(heatmap.Dataset(nil), w.points...)
}

// Len returns the number of samples held.
func (w *Window) Len() int { return len(w.points) }
