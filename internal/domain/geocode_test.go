package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _, _ string) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocateEvent_KeepsExistingCoordinates(t *testing.T) {
	geo := &mockGeocoder{}
	event := StormEvent{ID: "evt-1", Geo: Geo{Lat: 31.02, Lon: -98.44}}

	got, err := LocateEvent(context.Background(), event, geo, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, event, got)
	assert.Zero(t, geo.calls)
}

func TestLocateEvent_ForwardGeocodes(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{Lat: 30.2672, Lon: -97.7431, PlaceName: "Austin", Confidence: 0.95}}
	event := StormEvent{ID: "evt-1", Location: Location{Name: "AUSTIN", State: "TX"}}

	got, err := LocateEvent(context.Background(), event, geo, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, Geo{Lat: 30.2672, Lon: -97.7431}, got.Geo)
	assert.Equal(t, 1, geo.calls)
}

func TestLocateEvent_Failures(t *testing.T) {
	located := StormEvent{ID: "evt-1", Location: Location{Name: "AUSTIN", State: "TX"}}

	tests := []struct {
		name     string
		event    StormEvent
		geocoder Geocoder
	}{
		{name: "no geocoder", event: located},
		{name: "no place name", event: StormEvent{ID: "evt-2"}, geocoder: &mockGeocoder{}},
		{name: "provider error", event: located, geocoder: &mockGeocoder{err: errors.New("timeout")}},
		{name: "no match", event: located, geocoder: &mockGeocoder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LocateEvent(context.Background(), tt.event, tt.geocoder, discardLogger())
			require.ErrorIs(t, err, ErrMissingCoordinates)
		})
	}
}
