// Package features aggregates flagged readings, reports and events per zone.
package features

import (
	"sort"

	"github.com/couchcryptid/city-signal/internal/domain"
)

// Risk level upper bounds on a zone's anomaly count, inclusive.
const (
	lowMax      = 50
	moderateMax = 100
	highMax     = 150
)

// RiskFor buckets an anomaly count into a risk level.
func RiskFor(anomalies int) domain.RiskLevel {
	switch {
	case anomalies <= lowMax:
		return domain.RiskLow
	case anomalies <= moderateMax:
		return domain.RiskModerate
	case anomalies <= highMax:
		return domain.RiskHigh
	default:
		return domain.RiskCritical
	}
}

// ZoneFeatures aggregates flagged readings per zone, ordered by zone name.
// Readings without a zone are ignored.
func ZoneFeatures(rows []domain.FlaggedReading) []domain.ZoneFeatures {
	byZone := make(map[string]*domain.ZoneFeatures)
	sums := make(map[string]float64)

	for _, r := range rows {
		if r.Zone == "" {
			continue
		}
		f, ok := byZone[r.Zone]
		if !ok {
			f = &domain.ZoneFeatures{ZoneID: r.Zone, MaxValue: r.Value, MinValue: r.Value}
			byZone[r.Zone] = f
		}
		f.SensorCount++
		f.MaxValue = max(f.MaxValue, r.Value)
		f.MinValue = min(f.MinValue, r.Value)
		if r.AnomalyFlag {
			f.AnomalyCount++
		}
		sums[r.Zone] += r.Value
	}

	out := make([]domain.ZoneFeatures, 0, len(byZone))
	for zone, f := range byZone {
		f.MeanValue = sums[zone] / float64(f.SensorCount)
		f.RiskLevel = RiskFor(f.AnomalyCount)
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZoneID < out[j].ZoneID })
	return out
}

// ByRisk returns a copy of rows ordered by anomaly count, highest first. Ties
// keep zone order.
func ByRisk(rows []domain.ZoneFeatures) []domain.ZoneFeatures {
	out := append([]domain.ZoneFeatures(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnomalyCount > out[j].AnomalyCount })
	return out
}
