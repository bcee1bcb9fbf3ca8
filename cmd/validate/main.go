// Command validate checks a results JSON file written by citysignal (or
// genmock -results) against the output invariants: verdict complements,
// category and match gates, anomaly flags, zone risk levels and stats.
//
// Usage:
//
//	go run ./cmd/validate -results data/mock/expected_results.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/city-signal/internal/adapter/csvfile"
	"github.com/couchcryptid/city-signal/internal/anomaly"
	"github.com/couchcryptid/city-signal/internal/correlate"
	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/features"
)

const meanTolerance = 1e-9

// limits are the analysis parameters the result was produced with.
type limits struct {
	radiusKM  float64
	window    time.Duration
	threshold float64
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("results", "", "path to a results JSON file")
	radius := flag.Float64("radius-km", correlate.DefaultRadiusKM, "match radius the results were produced with")
	window := flag.Duration("window", correlate.DefaultWindow, "match window the results were produced with")
	threshold := flag.Float64("threshold", anomaly.DefaultThreshold, "anomaly z-score threshold")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*path, limits{radiusKM: *radius, window: *window, threshold: *threshold}))
}

func run(path string, lim limits) int {
	fmt.Println("=== City Signal Result Validation ===")
	fmt.Println()

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	res, err := csvfile.ReadResult(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateVerdicts(res.Reports, lim),
		validateAnomalies(res.Sensors, lim),
		validateZones(res.Zones, res.Sensors),
		validateEvents(res.Events),
		validateStats(res),
	}

	fmt.Printf("Run %s (%s, zone strategy %s)\n", res.RunID, res.GeneratedAt.Format(time.RFC3339), res.ZoneStrategy)
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d sensors, %d reports, %d events, %d zones, %d rejections\n",
		len(res.Sensors), len(res.Reports), len(res.Events), len(res.Zones), len(res.Rejections))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateVerdicts(reports []domain.VerdictedReport, lim limits) *phase {
	p := &phase{name: "Report verdicts"}
	for _, r := range reports {
		if r.IsUnverified == r.IsVerified {
			p.errorf("%s: is_unverified must be the complement of is_verified", r.ReportID)
		}
		if want := correlate.ExtractCategory(r.Text); r.DetectedCategory != want {
			p.errorf("%s: detected_category %q, text implies %q", r.ReportID, r.DetectedCategory, want)
		}
		if !r.IsVerified {
			continue
		}
		if !r.DetectedCategory.Known() {
			p.errorf("%s: unknown category cannot be verified", r.ReportID)
		}
		if r.Match == nil {
			p.errorf("%s: verified without a match", r.ReportID)
			continue
		}
		if r.Match.DistanceKM >= lim.radiusKM {
			p.errorf("%s: match distance %.3f km not under radius %.3f km", r.ReportID, r.Match.DistanceKM, lim.radiusKM)
		}
		if d := r.Match.TimeDelta; d > lim.window || d < -lim.window {
			p.errorf("%s: match time delta %s outside window %s", r.ReportID, d, lim.window)
		}
	}
	return p
}

func validateAnomalies(sensors []domain.FlaggedReading, lim limits) *phase {
	p := &phase{name: "Anomaly flags"}
	for i, s := range sensors {
		if i > 0 && s.Timestamp.Before(sensors[i-1].Timestamp) {
			p.errorf("row %d (%s): out of timestamp order", i, s.SensorID)
		}
		if s.RollingStd == nil && s.AnomalyFlag {
			p.errorf("row %d (%s): flagged with undefined rolling std", i, s.SensorID)
		}
		if s.ZScore == nil {
			if s.AnomalyFlag {
				p.errorf("row %d (%s): flagged without a z-score", i, s.SensorID)
			}
			continue
		}
		if want := math.Abs(*s.ZScore) > lim.threshold; s.AnomalyFlag != want {
			p.errorf("row %d (%s): z=%.3f flag=%v, threshold %.2f implies %v", i, s.SensorID, *s.ZScore, s.AnomalyFlag, lim.threshold, want)
		}
	}
	return p
}

func validateZones(zones []domain.ZoneFeatures, sensors []domain.FlaggedReading) *phase {
	p := &phase{name: "Zone features"}

	anomalies := make(map[string]int)
	for _, s := range sensors {
		if s.AnomalyFlag {
			anomalies[s.Zone]++
		}
	}

	ids := make([]string, 0, len(zones))
	for _, z := range zones {
		ids = append(ids, z.ZoneID)
		if want := features.RiskFor(z.AnomalyCount); z.RiskLevel != want {
			p.errorf("%s: risk level %s for %d anomalies, want %s", z.ZoneID, z.RiskLevel, z.AnomalyCount, want)
		}
		if z.MinValue-meanTolerance > z.MeanValue || z.MeanValue > z.MaxValue+meanTolerance {
			p.errorf("%s: min %.3f, mean %.3f, max %.3f out of order", z.ZoneID, z.MinValue, z.MeanValue, z.MaxValue)
		}
		if z.AnomalyCount != anomalies[z.ZoneID] {
			p.errorf("%s: anomaly_count %d, flagged sensors say %d", z.ZoneID, z.AnomalyCount, anomalies[z.ZoneID])
		}
	}
	if !sort.StringsAreSorted(ids) {
		p.errorf("zone rows are not sorted by zone id")
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			p.errorf("duplicate zone row %q", ids[i])
		}
	}
	return p
}

func validateEvents(events []domain.DisasterEvent) *phase {
	p := &phase{name: "Event pool"}
	seen := make(map[int]bool, len(events))
	for _, e := range events {
		if seen[e.ID] {
			p.errorf("duplicate event id %d", e.ID)
		}
		seen[e.ID] = true
		if err := e.Geo.Validate(); err != nil {
			p.errorf("event %d: %v", e.ID, err)
		}
		if e.Timestamp.IsZero() {
			p.errorf("event %d: missing timestamp", e.ID)
		}
		if e.Provenance == domain.ProvenanceSensor && e.Zone != correlate.SensorZone {
			p.errorf("event %d: sensor-derived event in zone %q, want %q", e.ID, e.Zone, correlate.SensorZone)
		}
	}
	return p
}

func validateStats(res *domain.Result) *phase {
	p := &phase{name: "Stats"}
	got := res.Stats
	recount := *res
	recount.Tally()
	if got != recount.Stats {
		p.errorf("stats %+v, rows say %+v", got, recount.Stats)
	}
	return p
}
