package domain

import (
	"strconv"
	"time"
)

// UnknownZone is the sentinel label for points outside every zone.
const UnknownZone = "Unknown"

// StatusActive marks a sensor whose readings are usable.
const StatusActive = "active"

// Provenance distinguishes curated events from ones synthesized from sensors.
type Provenance string

const (
	ProvenanceLogged Provenance = "logged"
	ProvenanceSensor Provenance = "sensor"
)

// Observation is a generic point observation produced by a sensor or a report.
type Observation struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Geo       *Geo      `json:"geo,omitempty"`
	Category  string    `json:"category,omitempty"`
	Value     *float64  `json:"value,omitempty"`
	Status    string    `json:"status,omitempty"`
	Zone      string    `json:"zone,omitempty"`
}

func (o *Observation) Position() *Geo      { return o.Geo }
func (o *Observation) SetZone(zone string) { o.Zone = zone }

// SensorReading is one row of a city sensor feed.
type SensorReading struct {
	SensorID   string    `json:"sensor_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	SensorType string    `json:"sensor_type"`
	Geo        *Geo      `json:"geo,omitempty"`
	Status     string    `json:"status"`
	Value      float64   `json:"reading_value"`
	Zone       string    `json:"zone,omitempty"`
}

func (r *SensorReading) Position() *Geo      { return r.Geo }
func (r *SensorReading) SetZone(zone string) { r.Zone = zone }

// Active reports whether the reading came from a sensor in active status.
func (r *SensorReading) Active() bool {
	return r.Status == StatusActive
}

// DisasterEvent is a member of the verification pool.
type DisasterEvent struct {
	ID            int        `json:"event_id"`
	Category      Category   `json:"disaster_type"`
	Timestamp     time.Time  `json:"date"`
	Geo           *Geo       `json:"geo,omitempty"`
	Zone          string     `json:"location,omitempty"`
	Severity      *string    `json:"severity"`
	Casualties    *int       `json:"casualties"`
	EconomicLoss  *float64   `json:"economic_loss_million_usd"`
	DurationHours *float64   `json:"duration_hours"`
	Provenance    Provenance `json:"provenance"`
}

func (e *DisasterEvent) Position() *Geo      { return e.Geo }
func (e *DisasterEvent) SetZone(zone string) { e.Zone = zone }

// SocialReport is an unauthenticated social-media post with a location.
type SocialReport struct {
	ReportID  string    `json:"report_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Geo       *Geo      `json:"geo,omitempty"`
	Zone      string    `json:"zone,omitempty"`
}

func (r *SocialReport) Position() *Geo      { return r.Geo }
func (r *SocialReport) SetZone(zone string) { r.Zone = zone }

// RecordID returns the identifier used when reporting rejected rows.
func (o *Observation) RecordID() string { return o.ID }

// RecordID returns the sensor id.
func (r *SensorReading) RecordID() string { return r.SensorID }

// RecordID returns the event id in decimal.
func (e *DisasterEvent) RecordID() string { return strconv.Itoa(e.ID) }

// RecordID returns the report id.
func (r *SocialReport) RecordID() string { return r.ReportID }
