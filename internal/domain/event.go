package domain

import (
	"encoding/json"
	"time"
)

// FeatureCollection is the GeoJSON payload returned by the feed. Features
// stay undecoded until DecodeRawEvents.
type FeatureCollection struct {
	Type     string            `json:"type"`
	Metadata Metadata          `json:"metadata"`
	Features []json.RawMessage `json:"features"`
}

// Metadata describes the query that produced a FeatureCollection.
type Metadata struct {
	Generated int64  `json:"generated"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Count     int    `json:"count"`
}

// RawEvent is a single nested GeoJSON Feature as delivered by the feed.
// Only the fields the flat schema needs are decoded; everything else in the
// payload (detail, url, tz, felt, nst, gap, dmin, alert, status, net, code,
// ids, sources, tsunami, types, rms, ...) is ignored.
type RawEvent struct {
	ID         string        `json:"id" validate:"required"`
	Properties RawProperties `json:"properties"`
	Geometry   RawGeometry   `json:"geometry"`
}

// RawProperties is the properties object of a Feature.
type RawProperties struct {
	Mag     *float64 `json:"mag"`
	Place   *string  `json:"place" validate:"required"`
	Time    *int64   `json:"time" validate:"required"`
	Updated *int64   `json:"updated"`
	Title   string   `json:"title"`
	Sig     *float64 `json:"sig" validate:"required"`
	MagType *string  `json:"magType"`
}

// RawGeometry holds the [longitude, latitude, depth] coordinate triple.
// Elements are pointers so a null entry is distinguishable from 0.
type RawGeometry struct {
	Coordinates []*float64 `json:"coordinates" validate:"min=2,max=3"`
}

// SigClass buckets the significance score.
type SigClass string

const (
	SigLow      SigClass = "Low"
	SigModerate SigClass = "Moderate"
	SigHigh     SigClass = "High"
)

// FlatEvent is the normalized record that maps one-to-one onto a table row.
// Field order matches Columns.
type FlatEvent struct {
	ID            string    `json:"id"`
	Longitude     float64   `json:"longitude"`
	Latitude      float64   `json:"latitude"`
	Elevation     *float64  `json:"elevation"`
	Title         string    `json:"title"`
	Place         string    `json:"place"`
	Sig           int       `json:"sig"`
	Mag           *float64  `json:"mag"`
	MagType       string    `json:"magType"`
	Time          time.Time `json:"time"`
	SigClass      SigClass  `json:"sig_class"`
	StateProvince string    `json:"state_province"`
}

// Columns is the canonical column order of the persisted schema.
var Columns = []string{
	"id", "longitude", "latitude", "elevation",
	"title", "place", "sig", "mag", "magType",
	"time", "sig_class", "state_province",
}

// Record returns the event as a plain key-value mapping keyed by Columns,
// with time rendered in TimestampLayout. Nil pointers become nil values.
func (e FlatEvent) Record() map[string]any {
	var elevation, mag any
	if e.Elevation != nil {
		elevation = *e.Elevation
	}
	if e.Mag != nil {
		mag = *e.Mag
	}
	return map[string]any{
		"id":             e.ID,
		"longitude":      e.Longitude,
		"latitude":       e.Latitude,
		"elevation":      elevation,
		"title":          e.Title,
		"place":          e.Place,
		"sig":            e.Sig,
		"mag":            mag,
		"magType":        e.MagType,
		"time":           FormatTimestamp(e.Time),
		"sig_class":      string(e.SigClass),
		"state_province": e.StateProvince,
	}
}
