// Package heatmap interpolates sparse, labeled geographic samples onto a dense
// raster.
//
// # Coordinate Space
//
// The engine works in a flattened degree space: latitude and longitude are
// treated as planar Y and X, and distances are Euclidean in cell units. No
// geodesic correction is applied.
//
// A sample maps to cell (x, y) with
//
//	x = ceil((lon - lonMin) / scale)
//	y = ceil((lat - latMin) / scale)
//
// so y grows northward from the southern edge of the bounding box. The Grid
// stores row 0 at the northern edge: Grid row r holds cell y = height-1-r.
// Samples outside the bounding box grown by the search radius are dropped
// before any cell is resolved.
//
// # Modes
//
// Influence mode resolves each cell to the locally dominant category. Sample
// weights decay linearly from 0.999 at distance zero to just above zero at the
// radius, are summed per category, and the winner must not be outweighed by
// the other categories combined. A winning margin of 0.999 or more writes the
// category's legend rank; a smaller margin writes rank - (0.999 - margin), a
// fraction that encodes partial confidence for colour blending.
//
// Weighted mode writes the distance-weighted sum of numeric sample values,
// optionally clamped at 1.0.
//
// # Sentinel
//
// A cell with no sample in range, or with no clear categorical majority, keeps
// the value 0. Legend ranks start at 1, so the sentinel never collides with a
// resolved influence cell.
package heatmap
