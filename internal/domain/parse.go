package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 style timestamp. Values without a zone
// are interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp: %w", ErrMalformedRecord)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: %w", s, ErrMalformedRecord)
}

// ParseGeo builds a coordinate from raw latitude/longitude strings. It returns
// nil when either side is empty or unparseable; range checks are left to
// Geo.Validate so out-of-range rows can be reported distinctly.
func ParseGeo(lat, lon string) *Geo {
	la, okLat := ParseOptionalFloat(lat)
	lo, okLon := ParseOptionalFloat(lon)
	if !okLat || !okLon {
		return nil
	}
	return &Geo{Lat: la, Lon: lo}
}

// ParseOptionalFloat parses a float, reporting false for empty, invalid or
// non-finite input.
func ParseOptionalFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseOptionalInt parses an integer, tolerating a trailing ".0" as written by
// spreadsheet exports.
func ParseOptionalInt(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
