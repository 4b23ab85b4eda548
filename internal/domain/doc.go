// Package domain models the storm events consumed by the heatmap service and
// the raster snapshots it publishes.
//
// # Input
//
// Events arrive as the JSON documents produced by the storm data ETL service:
// one enriched storm report per message, keyed by a deterministic event ID.
// Only the fields needed to place and classify a report are decoded:
//
//	{"id": "hail-3f2a...", "type": "hail", "geo": {"lat": 31.02, "lon": -98.44},
//	 "magnitude": 1.75, "unit": "in", "severity": "severe",
//	 "location": {"name": "Chappel", "state": "TX"}}
//
// # Fields
//
// A [Field] selects which attribute of an event becomes the heatmap sample
// value. Categorical fields (type, severity, state) feed influence-mode
// rasters; magnitude feeds weighted-mode rasters. When severity is absent it
// is derived from magnitude with the NWS thresholds:
//
//	Hail:    <0.75" minor | <1.5" moderate | <2.5" severe | >=2.5" extreme
//	Wind:    <50 mph minor | <74 mph moderate | <96 mph severe | >=96 mph extreme
//	Tornado: EF0-1 minor | EF2 moderate | EF3-4 severe | EF5 extreme
//
// # Snapshots
//
// Each recomputation yields a [RasterSnapshot]. Its ID hashes the mode, field,
// raster resolution and the ordered event IDs it was computed from, so
// replaying the same window produces the same ID.
package domain
