package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

var (
	// ErrMissingID is returned for events without an ID; the window
	// deduplicates on it.
	ErrMissingID = errors.New("event has no id")

	// ErrMissingValue is returned when the selected field is empty.
	ErrMissingValue = errors.New("event has no value for field")

	// ErrInvalidField is returned by ParseField for unknown field names.
	ErrInvalidField = errors.New("invalid field")
)

// Field names the event attribute used as a sample value.
type Field string

const (
	FieldType      Field = "type"
	FieldSeverity  Field = "severity"
	FieldState     Field = "state"
	FieldMagnitude Field = "magnitude"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldType, FieldSeverity, FieldState, FieldMagnitude:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
}

// Numeric reports whether the field holds numbers rather than labels.
func (f Field) Numeric() bool { return f == FieldMagnitude }

// DefaultField returns the field used when none is configured for mode.
func DefaultField(mode heatmap.Mode) Field {
	if mode == heatmap.ModeWeighted {
		return FieldMagnitude
	}
	return FieldType
}

// ParseStormEvent deserializes a RawEvent's value into a StormEvent.
func ParseStormEvent(raw RawEvent) (StormEvent, error) {
	var event StormEvent
	if err := json.Unmarshal(raw.Value, &event); err != nil {
		return StormEvent{}, fmt.Errorf("parse storm event: %w", err)
	}
	event.ID = strings.TrimSpace(event.ID)
	if event.ID == "" {
		event.ID = strings.TrimSpace(string(raw.Key))
	}
	if event.ID == "" {
		return StormEvent{}, ErrMissingID
	}
	event.EventType = strings.ToLower(strings.TrimSpace(event.EventType))
	event.Severity = strings.ToLower(strings.TrimSpace(event.Severity))
	event.Location.State = strings.ToUpper(strings.TrimSpace(event.Location.State))
	event.Location.Name = strings.TrimSpace(event.Location.Name)
	return event, nil
}

// ToPoint converts a located event into a heatmap sample named by the event ID.
func ToPoint(event StormEvent, field Field) (heatmap.Point, error) {
	value, err := fieldValue(event, field)
	if err != nil {
		return heatmap.Point{}, err
	}
	return heatmap.Point{
		Name:  event.ID,
		Lat:   event.Geo.Lat,
		Lon:   event.Geo.Lon,
		Value: value,
	}, nil
}

func fieldValue(event StormEvent, field Field) (string, error) {
	var v string
	switch field {
	case FieldType:
		v = event.EventType
	case FieldSeverity:
		v = event.Severity
		if v == "" {
			v = deriveSeverity(event.EventType, event.Magnitude)
		}
	case FieldState:
		v = event.Location.State
	case FieldMagnitude:
		v = strconv.FormatFloat(event.Magnitude, 'f', -1, 64)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	if v == "" {
		return "", fmt.Errorf("%w %s: %s", ErrMissingValue, field, event.ID)
	}
	return v, nil
}

// deriveSeverity maps magnitude to a severity label using NWS Severe Weather
// Criteria and the Enhanced Fujita Scale. Returns "" when magnitude is 0 or
// the event type is unrecognized.
func deriveSeverity(eventType string, magnitude float64) string {
	if magnitude == 0 {
		return ""
	}

	switch eventType {
	case "hail":
		switch {
		case magnitude < 0.75:
			return "minor"
		case magnitude < 1.5:
			return "moderate"
		case magnitude < 2.5:
			return "severe"
		default:
			return "extreme"
		}
	case "wind":
		switch {
		case magnitude < 50:
			return "minor"
		case magnitude < 74:
			return "moderate"
		case magnitude < 96:
			return "severe"
		default:
			return "extreme"
		}
	case "tornado":
		switch {
		case magnitude <= 1:
			return "minor"
		case magnitude == 2:
			return "moderate"
		case magnitude <= 4:
			return "severe"
		default:
			return "extreme"
		}
	default:
		return ""
	}
}
