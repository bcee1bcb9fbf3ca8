package correlate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/city-signal/internal/domain"
)

// SensorZone is the location label given to sensor-derived events.
const SensorZone = "unknown"

// sensorCategories maps sensor types to the event category they evidence.
var sensorCategories = map[string]domain.Category{
	"seismic":     domain.CategoryEarthquake,
	"flood":       domain.CategoryFlood,
	"temp":        domain.CategoryFire,
	"temperature": domain.CategoryFire,
	"humidity":    domain.CategoryFire,
}

// SensorCategory returns the event category for a sensor type.
func SensorCategory(sensorType string) (domain.Category, bool) {
	c, ok := sensorCategories[strings.ToLower(strings.TrimSpace(sensorType))]
	return c, ok
}

// SensorEvents turns active readings of a mapped sensor type into events.
// IDs are assigned sequentially from firstID in input order; impact fields are
// left nil.
func SensorEvents(readings []domain.SensorReading, firstID int) []domain.DisasterEvent {
	var events []domain.DisasterEvent
	id := firstID
	for _, r := range readings {
		if !r.Active() {
			continue
		}
		cat, ok := SensorCategory(r.SensorType)
		if !ok {
			continue
		}
		events = append(events, domain.DisasterEvent{
			ID:         id,
			Category:   cat,
			Timestamp:  r.Timestamp,
			Geo:        r.Geo,
			Zone:       SensorZone,
			Provenance: domain.ProvenanceSensor,
		})
		id++
	}
	return events
}

var errMissingDate = errors.New("missing date")

// BuildPool merges logged events with events derived from sensor readings.
// Sensor-derived IDs start after the largest logged ID. A repeated logged ID
// fails the whole pool with ErrDuplicateEventID. Events without usable
// geometry or timestamp are excluded and reported as rejections.
func BuildPool(logged []domain.DisasterEvent, readings []domain.SensorReading) ([]domain.DisasterEvent, []domain.Rejection, error) {
	seen := make(map[int]struct{}, len(logged))
	maxID := 0
	for _, e := range logged {
		if _, dup := seen[e.ID]; dup {
			return nil, nil, fmt.Errorf("event %d: %w", e.ID, domain.ErrDuplicateEventID)
		}
		seen[e.ID] = struct{}{}
		maxID = max(maxID, e.ID)
	}

	candidates := make([]domain.DisasterEvent, 0, len(logged)+len(readings))
	for _, e := range logged {
		e.Provenance = domain.ProvenanceLogged
		candidates = append(candidates, e)
	}
	candidates = append(candidates, SensorEvents(readings, maxID+1)...)

	pool := make([]domain.DisasterEvent, 0, len(candidates))
	var rejected []domain.Rejection
	for i, e := range candidates {
		if err := checkEvent(e); err != nil {
			rejected = append(rejected, domain.Rejection{Kind: "event", Index: i, ID: e.RecordID(), Err: err})
			continue
		}
		pool = append(pool, e)
	}
	return pool, rejected, nil
}

func checkEvent(e domain.DisasterEvent) error {
	if err := e.Geo.Validate(); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: %w", domain.ErrMalformedRecord, errMissingDate)
	}
	return nil
}
