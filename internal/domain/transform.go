package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the fixed rendering of event instants: no zone suffix,
// second precision, always UTC.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	moderateSigThreshold = 100
	highSigThreshold     = 500
)

// Normalize flattens raw feed events into FlatEvents, preserving input order.
// A single malformed record, or a repeated id, fails the whole batch with a
// *NormalizationError.
func Normalize(raws []RawEvent) ([]FlatEvent, error) {
	out := make([]FlatEvent, 0, len(raws))
	seen := make(map[string]int, len(raws))

	for i := range raws {
		raw := &raws[i]
		if err := validateRawEvent(raw); err != nil {
			return nil, &NormalizationError{Index: i, ID: raw.ID, Err: err}
		}
		if first, dup := seen[raw.ID]; dup {
			return nil, &NormalizationError{
				Index: i,
				ID:    raw.ID,
				Err:   fmt.Errorf("duplicate id, first seen at index %d", first),
			}
		}
		seen[raw.ID] = i
		out = append(out, flatten(raw))
	}

	return out, nil
}

// flatten maps a validated RawEvent onto the flat schema.
func flatten(raw *RawEvent) FlatEvent {
	coords := raw.Geometry.Coordinates
	place := *raw.Properties.Place
	sig := *raw.Properties.Sig

	event := FlatEvent{
		ID:            raw.ID,
		Longitude:     *coords[0],
		Latitude:      *coords[1],
		Title:         raw.Properties.Title,
		Place:         place,
		Sig:           int(sig),
		Time:          EpochMillis(*raw.Properties.Time),
		SigClass:      ClassifySignificance(sig),
		StateProvince: StateProvince(place),
	}
	if len(coords) > 2 && coords[2] != nil {
		elevation := *coords[2]
		event.Elevation = &elevation
	}
	if raw.Properties.Mag != nil {
		mag := *raw.Properties.Mag
		event.Mag = &mag
	}
	if raw.Properties.MagType != nil {
		event.MagType = *raw.Properties.MagType
	}
	return event
}

// ClassifySignificance buckets a significance score. Boundaries belong to the
// higher class: 100 is Moderate, 500 is High.
func ClassifySignificance(sig float64) SigClass {
	switch {
	case sig < moderateSigThreshold:
		return SigLow
	case sig < highSigThreshold:
		return SigModerate
	default:
		return SigHigh
	}
}

// StateProvince returns the trailing comma-separated token of place, trimmed.
// A place without commas is returned whole, trimmed.
func StateProvince(place string) string {
	if i := strings.LastIndex(place, ","); i >= 0 {
		return strings.TrimSpace(place[i+1:])
	}
	return strings.TrimSpace(place)
}

// EpochMillis converts a feed timestamp to a UTC instant.
func EpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatTimestamp renders t in TimestampLayout after converting to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// LatestUpdate returns the newest properties.updated instant in the batch.
// The value is informational only and never persisted.
func LatestUpdate(raws []RawEvent) (time.Time, bool) {
	var latest time.Time
	var found bool
	for i := range raws {
		u := raws[i].Properties.Updated
		if u == nil {
			continue
		}
		t := EpochMillis(*u)
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}
