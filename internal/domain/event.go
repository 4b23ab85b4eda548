package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Location is the named place a report was filed against.
type Location struct {
	Name   string `json:"name,omitempty"`
	State  string `json:"state,omitempty"`
	County string `json:"county,omitempty"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// IsZero reports whether no coordinates were recorded.
func (g Geo) IsZero() bool { return g.Lat == 0 && g.Lon == 0 }

// StormEvent is the subset of an enriched storm report used for rasters.
type StormEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"type"`
	Geo       Geo       `json:"geo,omitempty"`
	Magnitude float64   `json:"magnitude"`
	Unit      string    `json:"unit,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Location  Location  `json:"location,omitempty"`
	BeginTime time.Time `json:"begin_time,omitempty"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
