// Package domain models USGS earthquake event data and its flat, persisted form.
//
// # Data Source
//
// Events come from the USGS FDSN event web service
// (https://earthquake.usgs.gov/fdsnws/event/1/) queried with format=geojson
// and a starttime/endtime pair of calendar dates. The response is a GeoJSON
// FeatureCollection; each Feature is one event.
//
// # Feed Conventions
//
// Coordinates:
//
//	geometry.coordinates = [longitude, latitude, depth_km]
//	Depth is stored as "elevation" for compatibility with the existing table.
//	Some features carry only [longitude, latitude]; elevation is then null.
//
// Timestamps:
//
//	properties.time and properties.updated are epoch milliseconds, UTC.
//	They are rendered as "2006-01-02 15:04:05" with no zone suffix.
//
// Place:
//
//	Free text, usually "<distance> <compass> of <locality>, <region>",
//	e.g. "10km SE of Example City, CA". The last comma-separated token is the
//	state or province; offshore events often have no comma at all.
//
// Significance:
//
//	properties.sig is a 0–1000+ score combining magnitude, felt reports and
//	estimated impact. It is bucketed into three classes:
//
//	  sig < 100        Low
//	  100 ≤ sig < 500  Moderate
//	  sig ≥ 500        High
//
// # Identity
//
// The feed's event id (e.g. "us7000abcd") is the primary key. Loads use
// INSERT ... ON CONFLICT (id) DO NOTHING, so the first write wins and a
// whole run can be replayed safely.
package domain
