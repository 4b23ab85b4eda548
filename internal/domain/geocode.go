package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrMissingCoordinates is returned when an event has no coordinates and none
// could be looked up.
var ErrMissingCoordinates = errors.New("event has no coordinates")

// LocateEvent makes sure event carries coordinates. Events that already have
// them are returned unchanged; otherwise the location name is forward
// geocoded. A nil geocoder disables the lookup.
func LocateEvent(ctx context.Context, event StormEvent, geocoder Geocoder, logger *slog.Logger) (StormEvent, error) {
	if !event.Geo.IsZero() {
		return event, nil
	}
	if geocoder == nil || event.Location.Name == "" || event.Location.State == "" {
		return event, fmt.Errorf("%w: %s", ErrMissingCoordinates, event.ID)
	}

	result, err := geocoder.ForwardGeocode(ctx, event.Location.Name, event.Location.State)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"event_id", event.ID,
			"location", event.Location.Name,
			"state", event.Location.State,
			"error", err,
		)
		return event, fmt.Errorf("%w: %s: %w", ErrMissingCoordinates, event.ID, err)
	}
	if result.Lat == 0 && result.Lon == 0 {
		return event, fmt.Errorf("%w: %s: no match for %s, %s",
			ErrMissingCoordinates, event.ID, event.Location.Name, event.Location.State)
	}

	event.Geo = Geo{Lat: result.Lat, Lon: result.Lon}
	logger.Debug("event located",
		"event_id", event.ID,
		"place", result.PlaceName,
		"confidence", result.Confidence,
	)
	return event, nil
}
