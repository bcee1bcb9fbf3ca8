package features

import (
	"math"
	"sort"

	"github.com/couchcryptid/city-signal/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// fenceK scales the interquartile range for the outlier fences.
const fenceK = 1.5

// CleanSensors keeps active readings with geometry and a finite value that lie
// within the 1.5 IQR fences of the kept values. Quartiles use linear
// interpolation of the empirical CDF.
func CleanSensors(readings []domain.SensorReading) []domain.SensorReading {
	kept := make([]domain.SensorReading, 0, len(readings))
	for _, r := range readings {
		if !r.Active() || r.Geo == nil || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return kept
	}

	lower, upper := Fences(values(kept))
	out := kept[:0]
	for _, r := range kept {
		if r.Value >= lower && r.Value <= upper {
			out = append(out, r)
		}
	}
	return out
}

// Fences returns the inclusive lower and upper IQR outlier bounds of xs.
// xs must not be empty.
func Fences(xs []float64) (lower, upper float64) {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1
	return q1 - fenceK*iqr, q3 + fenceK*iqr
}

func values(readings []domain.SensorReading) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.Value
	}
	return out
}

// DedupeReports keeps the first report for each text, then drops the kept
// reports that have no geometry. A located copy of a text whose first
// occurrence is unlocated is dropped too.
func DedupeReports(reports []domain.SocialReport) []domain.SocialReport {
	seen := make(map[string]struct{}, len(reports))
	out := make([]domain.SocialReport, 0, len(reports))
	for _, r := range reports {
		if _, dup := seen[r.Text]; dup {
			continue
		}
		seen[r.Text] = struct{}{}
		if r.Geo == nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

type sensorAgg struct {
	sum   float64
	max   float64
	count int
	types map[string]int
}

// ZoneSummaries joins cleaned sensor statistics, de-duplicated report counts
// and logged event counts per zone. Zones come from sensors and reports;
// events only add counts to those zones. Rows are ordered by zone name.
func ZoneSummaries(readings []domain.SensorReading, reports []domain.SocialReport, events []domain.DisasterEvent) []domain.ZoneSummary {
	sensors := make(map[string]*sensorAgg)
	for _, r := range CleanSensors(readings) {
		if r.Zone == "" {
			continue
		}
		a, ok := sensors[r.Zone]
		if !ok {
			a = &sensorAgg{max: r.Value, types: make(map[string]int)}
			sensors[r.Zone] = a
		}
		a.sum += r.Value
		a.max = max(a.max, r.Value)
		a.count++
		a.types[r.SensorType]++
	}

	reportCounts := make(map[string]int)
	for _, r := range DedupeReports(reports) {
		if r.Zone != "" {
			reportCounts[r.Zone]++
		}
	}

	eventCounts := make(map[string]int)
	for _, e := range events {
		if e.Provenance == domain.ProvenanceSensor || e.Zone == "" {
			continue
		}
		eventCounts[e.Zone]++
	}

	zones := make(map[string]struct{}, len(sensors)+len(reportCounts))
	for z := range sensors {
		zones[z] = struct{}{}
	}
	for z := range reportCounts {
		zones[z] = struct{}{}
	}

	out := make([]domain.ZoneSummary, 0, len(zones))
	for z := range zones {
		s := domain.ZoneSummary{Zone: z, ReportCount: reportCounts[z], DisasterEvents: eventCounts[z]}
		if a, ok := sensors[z]; ok {
			avg, mx := a.sum/float64(a.count), a.max
			s.AvgReading = &avg
			s.MaxReading = &mx
			s.SensorCount = a.count
			s.TopSensorType = topType(a.types)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Zone < out[j].Zone })
	return out
}

// topType returns the most frequent sensor type, the lexically smallest on ties.
func topType(counts map[string]int) string {
	best, bestN := "", 0
	for t, n := range counts {
		if n > bestN || (n == bestN && t < best) {
			best, bestN = t, n
		}
	}
	return best
}

// EventStats totals the logged events and counts them by year, type and zone.
// Events without a timestamp are left out of ByYear; events without a zone are
// left out of ByZone and TypeByZone.
func EventStats(events []domain.DisasterEvent) domain.EventStats {
	s := domain.EventStats{
		ByYear:     make(map[int]int),
		ByType:     make(map[domain.Category]int),
		ByZone:     make(map[string]int),
		LossByType: make(map[domain.Category]float64),
		TypeByZone: make(map[domain.Category]map[string]int),
	}
	for _, e := range events {
		if e.Provenance == domain.ProvenanceSensor {
			continue
		}
		s.TotalEvents++
		if e.Casualties != nil {
			s.TotalCasualties += *e.Casualties
		}
		if e.EconomicLoss != nil {
			s.TotalEconomicLoss += *e.EconomicLoss
			s.LossByType[e.Category] += *e.EconomicLoss
		}
		if !e.Timestamp.IsZero() {
			s.ByYear[e.Timestamp.Year()]++
		}
		s.ByType[e.Category]++
		if e.Zone == "" {
			continue
		}
		s.ByZone[e.Zone]++
		if s.TypeByZone[e.Category] == nil {
			s.TypeByZone[e.Category] = make(map[string]int)
		}
		s.TypeByZone[e.Category][e.Zone]++
	}
	return s
}
