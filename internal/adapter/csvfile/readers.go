package csvfile

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/zone"
	"github.com/paulmach/orb/geojson"
)

// Rows that cannot be parsed keep zero timestamps, NaN values or nil geometry
// so that analysis rejects them with a reason instead of failing the file.

// ReadSensors parses a sensor readings CSV.
func ReadSensors(r io.Reader) ([]domain.SensorReading, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("timestamp", "sensor_type", "status", "latitude", "longitude", "reading_value"); err != nil {
		return nil, fmt.Errorf("sensors: %w", err)
	}

	out := make([]domain.SensorReading, 0, len(t.rows))
	for _, row := range t.rows {
		value, ok := domain.ParseOptionalFloat(t.get(row, "reading_value"))
		if !ok {
			value = math.NaN()
		}
		out = append(out, domain.SensorReading{
			SensorID:   t.get(row, "sensor_id"),
			Timestamp:  parseTime(t.get(row, "timestamp")),
			SensorType: strings.ToLower(t.get(row, "sensor_type")),
			Geo:        domain.ParseGeo(t.get(row, "latitude"), t.get(row, "longitude")),
			Status:     strings.ToLower(t.get(row, "status")),
			Value:      value,
		})
	}
	return out, nil
}

// ReadEvents parses a disaster events CSV. The date column may be named
// "date" or "timestamp". A row with an unparseable event_id fails the file.
func ReadEvents(r io.Reader) ([]domain.DisasterEvent, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("event_id", "latitude", "longitude", "disaster_type"); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	if !t.has("date", "timestamp") {
		return nil, fmt.Errorf("events: missing columns: date")
	}

	out := make([]domain.DisasterEvent, 0, len(t.rows))
	for i, row := range t.rows {
		id, ok := domain.ParseOptionalInt(t.get(row, "event_id"))
		if !ok {
			return nil, fmt.Errorf("events: row %d: invalid event_id %q", i+2, t.get(row, "event_id"))
		}
		e := domain.DisasterEvent{
			ID:         id,
			Category:   domain.ParseCategory(t.get(row, "disaster_type")),
			Timestamp:  parseTime(t.get(row, "date", "timestamp")),
			Geo:        domain.ParseGeo(t.get(row, "latitude"), t.get(row, "longitude")),
			Zone:       t.get(row, "location"),
			Provenance: domain.ProvenanceLogged,
		}
		if s := t.get(row, "severity"); s != "" {
			e.Severity = &s
		}
		if n, ok := domain.ParseOptionalInt(t.get(row, "casualties")); ok {
			e.Casualties = &n
		}
		if f, ok := domain.ParseOptionalFloat(t.get(row, "economic_loss_million_usd")); ok {
			e.EconomicLoss = &f
		}
		if f, ok := domain.ParseOptionalFloat(t.get(row, "duration_hours")); ok {
			e.DurationHours = &f
		}
		out = append(out, e)
	}
	return out, nil
}

// ReadReports parses a social reports CSV. Reports without a report_id
// column get "r-<row>" ids, counting data rows from 1.
func ReadReports(r io.Reader) ([]domain.SocialReport, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("timestamp", "text", "latitude", "longitude"); err != nil {
		return nil, fmt.Errorf("reports: %w", err)
	}

	out := make([]domain.SocialReport, 0, len(t.rows))
	for i, row := range t.rows {
		id := t.get(row, "report_id", "id")
		if id == "" {
			id = "r-" + strconv.Itoa(i+1)
		}
		out = append(out, domain.SocialReport{
			ReportID:  id,
			Timestamp: parseTime(t.get(row, "timestamp")),
			Text:      t.get(row, "text"),
			Geo:       domain.ParseGeo(t.get(row, "latitude"), t.get(row, "longitude")),
		})
	}
	return out, nil
}

// ReadZones parses a GeoJSON FeatureCollection into a zone atlas.
func ReadZones(r io.Reader) ([]zone.Zone, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read zones: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode zones geojson: %w", err)
	}
	return zone.FromFeatureCollection(fc), nil
}

func parseTime(s string) time.Time {
	ts, err := domain.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
