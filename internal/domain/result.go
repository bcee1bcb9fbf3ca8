package domain

import "time"

// Result is the output of one batch run.
type Result struct {
	RunID        string    `json:"run_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	ZoneStrategy string    `json:"zone_strategy"`

	Sensors    []FlaggedReading  `json:"sensors"`
	Reports    []VerdictedReport `json:"reports"`
	Events     []DisasterEvent   `json:"events"`
	Zones      []ZoneFeatures    `json:"zones"`
	Summary    []ZoneSummary     `json:"zone_summary"`
	EventStats EventStats        `json:"event_stats"`
	Rejections []Rejection       `json:"rejections"`

	Stats Stats `json:"stats"`
}

// EventStats are headline figures over the logged disaster events. Missing
// casualty and loss values count as zero.
type EventStats struct {
	TotalEvents       int                         `json:"total_events"`
	TotalCasualties   int                         `json:"total_casualties"`
	TotalEconomicLoss float64                     `json:"total_economic_loss_million_usd"`
	ByYear            map[int]int                 `json:"by_year"`
	ByType            map[Category]int            `json:"by_type"`
	ByZone            map[string]int              `json:"by_zone"`
	LossByType        map[Category]float64        `json:"economic_loss_by_type"`
	TypeByZone        map[Category]map[string]int `json:"type_by_zone"`
}

// Stats counts the rows in a Result.
type Stats struct {
	Sensors    int `json:"sensors"`
	Anomalies  int `json:"anomalies"`
	Reports    int `json:"reports"`
	Verified   int `json:"verified"`
	Events     int `json:"events"`
	Zones      int `json:"zones"`
	Rejections int `json:"rejections"`
}

// Tally fills Stats from the result's rows.
func (r *Result) Tally() {
	s := Stats{
		Sensors:    len(r.Sensors),
		Reports:    len(r.Reports),
		Events:     len(r.Events),
		Zones:      len(r.Zones),
		Rejections: len(r.Rejections),
	}
	for _, f := range r.Sensors {
		if f.AnomalyFlag {
			s.Anomalies++
		}
	}
	for _, v := range r.Reports {
		if v.IsVerified {
			s.Verified++
		}
	}
	r.Stats = s
}
