package domain

import (
	"fmt"
	"math"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair in degrees.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether g is usable geometry. A nil or non-finite
// coordinate is malformed; a finite coordinate outside [-90,90]/[-180,180]
// is out of range.
func (g *Geo) Validate() error {
	if g == nil {
		return fmt.Errorf("missing coordinates: %w", ErrMalformedRecord)
	}
	if !isFinite(g.Lat) || !isFinite(g.Lon) {
		return fmt.Errorf("non-finite coordinates: %w", ErrMalformedRecord)
	}
	if g.Lat < -90 || g.Lat > 90 {
		return fmt.Errorf("latitude %g: %w", g.Lat, ErrOutOfRange)
	}
	if g.Lon < -180 || g.Lon > 180 {
		return fmt.Errorf("longitude %g: %w", g.Lon, ErrOutOfRange)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
