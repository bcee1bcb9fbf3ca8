package domain

import "time"

// FlaggedReading is a sensor reading annotated with rolling statistics.
// RollingStd and ZScore are nil where the statistic is undefined; AnomalyFlag
// is always set.
type FlaggedReading struct {
	SensorReading
	RollingMean float64  `json:"rolling_mean"`
	RollingStd  *float64 `json:"rolling_std"`
	ZScore      *float64 `json:"z_score"`
	AnomalyFlag bool     `json:"anomaly_flag"`
}

// Match describes the event a report was compared against.
type Match struct {
	EventID    int           `json:"event_id"`
	DistanceKM float64       `json:"distance_km"`
	TimeDelta  time.Duration `json:"time_delta_ns"`
}

// VerdictedReport is a social report with its verification verdict. The
// verdict is a recomputable projection, never authoritative state.
type VerdictedReport struct {
	SocialReport
	DetectedCategory Category `json:"detected_category"`
	IsVerified       bool     `json:"is_verified"`
	IsUnverified     bool     `json:"is_unverified"`

	// Nearest in-radius event of the same category, set even when the
	// temporal gate rejected it.
	Match *Match `json:"match,omitempty"`

	// Geocoding enrichment fields.
	PlaceName        string  `json:"place_name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"
}

// SetVerified records the verdict and keeps IsUnverified its complement.
func (v *VerdictedReport) SetVerified(ok bool) {
	v.IsVerified = ok
	v.IsUnverified = !ok
}

// RiskLevel buckets a zone by its anomaly count.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// ZoneFeatures is one zone-level aggregate row over flagged readings.
type ZoneFeatures struct {
	ZoneID       string    `json:"zone_id"`
	MeanValue    float64   `json:"mean_value"`
	MaxValue     float64   `json:"max_value"`
	MinValue     float64   `json:"min_value"`
	AnomalyCount int       `json:"anomaly_count"`
	SensorCount  int       `json:"sensor_count"`
	RiskLevel    RiskLevel `json:"risk_level"`
}

// ZoneSummary joins cleaned sensor, report and event counts per zone.
type ZoneSummary struct {
	Zone           string   `json:"zone"`
	AvgReading     *float64 `json:"avg_reading"`
	MaxReading     *float64 `json:"max_reading"`
	SensorCount    int      `json:"sensor_count"`
	TopSensorType  string   `json:"top_sensor_type,omitempty"`
	ReportCount    int      `json:"report_count"`
	DisasterEvents int      `json:"disaster_events"`
}
