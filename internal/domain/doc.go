// Package domain models the city-signal batch inputs and derived artifacts.
//
// # Inputs
//
// Three tabular sources feed a batch:
//
//	Sensor readings   sensor_id, timestamp, sensor_type, status, latitude, longitude, reading_value
//	Disaster events   event_id, date, latitude, longitude, disaster_type, location, severity, ...
//	Social reports    timestamp, text, latitude, longitude
//
// Geometry is optional at the row level. A missing or unparseable coordinate is
// represented by a nil *Geo and never by a zero value, so (0, 0) in the Gulf of
// Guinea stays a legitimate location. Rows without usable geometry are excluded
// from geometric stages and surfaced as [Rejection] values.
//
// # Categories
//
// Disaster categories form a closed vocabulary (see [Category]). External strings
// are normalized by [ParseCategory]; "Industrial-Accident", "industrial_accident"
// and "industrial accident" all map to [CategoryIndustrialAccident]. Anything not
// in the vocabulary becomes [CategoryUnknown].
//
// # Event pool
//
// Logged events carry externally curated integer IDs. Sensor-derived events are
// numbered after the largest logged ID so the merged pool never contains two
// events with the same ID. Impact fields (severity, casualties, losses) are nil
// for sensor-derived events.
//
// # Zones
//
// Zone names are free-form labels from the reference data. [UnknownZone] is the
// sentinel for points that fall outside every zone of an atlas.
package domain
