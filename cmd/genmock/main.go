// Command genmock writes deterministic synthetic sensor, event and report CSV
// fixtures for a city split into lettered zones. With -results it also runs
// the analysis over the generated files under a fixed clock and writes the
// expected result JSON next to them.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -seed 42 -results
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/city-signal/internal/adapter/csvfile"
	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

const timeLayout = "2006-01-02 15:04:05"

var baseDate = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

// district is a zone center; generated points scatter around it.
type district struct {
	label    string
	lat, lon float64
}

var districts = []district{
	{"Zone A", 37.7219, -122.4782},
	{"Zone B", 37.7793, -122.4193},
	{"Zone C", 37.7599, -122.4148},
	{"Zone D", 37.8024, -122.4058},
	{"Zone E", 37.7340, -122.3880},
}

// sensorKind describes the baseline behavior of one sensor type.
type sensorKind struct {
	name       string
	mean, std  float64
	spike      float64
	disaster   string
	reportText []string
}

var sensorKinds = []sensorKind{
	{"seismic", 0.3, 0.05, 4.5, "Earthquake", []string{
		"Felt a strong earthquake just now, shelves fell",
		"Earthquake shaking downtown, everyone outside",
	}},
	{"flood", 1.2, 0.2, 6.0, "Flood", []string{
		"Flooding on the street, water up to the curb",
		"Flood water in the underpass, cars stuck",
	}},
	{"temperature", 22, 2, 55, "Fire", []string{
		"Smoke and fire near the warehouse",
		"Brush fire spreading up the hill",
	}},
	{"humidity", 65, 5, 10, "Fire", nil},
	{"air_quality", 40, 8, 180, "Industrial Accident", []string{
		"Chemical smell after an explosion at the plant",
		"Industrial fire, black smoke everywhere",
	}},
}

var noiseTexts = []string{
	"Traffic is terrible today",
	"Great coffee at the new place on 3rd",
	"Power flickered for a second",
	"Hurricane party this weekend, who's in",
}

type options struct {
	outDir      string
	seed        uint64
	sensors     int
	hours       int
	events      int
	reports     int
	spikeRate   float64
	invalidRate float64
	results     bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.outDir, "out-dir", "data/mock", "output directory for the CSV fixtures")
	flag.Uint64Var(&o.seed, "seed", 42, "random seed")
	flag.IntVar(&o.sensors, "sensors", 25, "number of sensors")
	flag.IntVar(&o.hours, "hours", 48, "hourly readings per sensor")
	flag.IntVar(&o.events, "events", 12, "number of logged disaster events")
	flag.IntVar(&o.reports, "reports", 60, "number of social reports")
	flag.Float64Var(&o.spikeRate, "spike-rate", 0.02, "probability a reading is a spike")
	flag.Float64Var(&o.invalidRate, "invalid-rate", 0.01, "probability a row is malformed")
	flag.BoolVar(&o.results, "results", false, "also write expected_results.json")
	flag.Parse()

	if o.sensors <= 0 || o.hours <= 0 || o.events < 0 || o.reports < 0 {
		flag.Usage()
		return fmt.Errorf("counts must be positive")
	}
	return generate(o)
}

func generate(o options) error {
	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return err
	}

	g := &generator{opts: o, rng: rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))}
	events := g.events()

	files := []struct {
		name string
		rows [][]string
	}{
		{"sensor_readings.csv", g.sensorRows()},
		{"disaster_events.csv", eventRows(events)},
		{"social_reports.csv", g.reportRows(events)},
	}
	for _, f := range files {
		path := filepath.Join(o.outDir, f.name)
		if err := writeCSV(path, f.rows); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		log.Printf("%s: %d rows", path, len(f.rows)-1)
	}

	if o.results {
		return writeResults(o.outDir)
	}
	return nil
}

type generator struct {
	opts options
	rng  *rand.Rand
}

// near scatters a point within roughly 1 km of d.
func (g *generator) near(d district) (float64, float64) {
	return d.lat + (g.rng.Float64()-0.5)*0.018, d.lon + (g.rng.Float64()-0.5)*0.022
}

func (g *generator) district() district {
	return districts[g.rng.IntN(len(districts))]
}

func (g *generator) sensorRows() [][]string {
	rows := [][]string{{"sensor_id", "timestamp", "sensor_type", "status", "latitude", "longitude", "reading_value"}}
	for s := range g.opts.sensors {
		kind := sensorKinds[s%len(sensorKinds)]
		lat, lon := g.near(g.district())
		status := "active"
		if g.rng.Float64() < 0.1 {
			status = "inactive"
		}
		id := fmt.Sprintf("s-%03d", s+1)
		for h := range g.opts.hours {
			v := kind.mean + g.rng.NormFloat64()*kind.std
			if g.rng.Float64() < g.opts.spikeRate {
				v = kind.spike * (1 + g.rng.Float64()*0.2)
			}
			value := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
			latS, lonS := ftoa(lat), ftoa(lon)
			if g.rng.Float64() < g.opts.invalidRate {
				if g.rng.IntN(2) == 0 {
					value = "n/a"
				} else {
					latS = ""
				}
			}
			ts := baseDate.Add(time.Duration(h) * time.Hour)
			rows = append(rows, []string{id, ts.Format(timeLayout), kind.name, status, latS, lonS, value})
		}
	}
	return rows
}

type event struct {
	id       int
	ts       time.Time
	lat, lon float64
	kind     sensorKind
	location string
}

func (g *generator) events() []event {
	out := make([]event, 0, g.opts.events)
	for i := range g.opts.events {
		d := g.district()
		lat, lon := g.near(d)
		out = append(out, event{
			id:       i + 1,
			ts:       baseDate.Add(time.Duration(g.rng.IntN(g.opts.hours*60)) * time.Minute),
			lat:      lat,
			lon:      lon,
			kind:     sensorKinds[g.rng.IntN(len(sensorKinds))],
			location: d.label,
		})
	}
	return out
}

func eventRows(events []event) [][]string {
	severities := []string{"Low", "Medium", "High", "Critical"}
	rows := [][]string{{"event_id", "date", "latitude", "longitude", "disaster_type", "location", "severity", "casualties", "economic_loss_million_usd", "duration_hours"}}
	for _, e := range events {
		rows = append(rows, []string{
			strconv.Itoa(e.id),
			e.ts.Format(timeLayout),
			ftoa(e.lat),
			ftoa(e.lon),
			e.kind.disaster,
			e.location,
			severities[e.id%len(severities)],
			strconv.Itoa(e.id % 7),
			strconv.FormatFloat(float64(e.id)*1.5, 'f', 1, 64),
			strconv.FormatFloat(float64(e.id%5)+0.5, 'f', 1, 64),
		})
	}
	return rows
}

// reportRows places about half the reports near an event of the matching
// category, inside the default radius and window, and scatters the rest.
func (g *generator) reportRows(events []event) [][]string {
	rows := [][]string{{"report_id", "timestamp", "text", "latitude", "longitude"}}
	for i := range g.opts.reports {
		id := fmt.Sprintf("r-%04d", i+1)
		var ts time.Time
		var lat, lon float64
		var text string

		if len(events) > 0 && g.rng.Float64() < 0.5 {
			e := events[g.rng.IntN(len(events))]
			if len(e.kind.reportText) == 0 {
				// humidity events are logged as fires
				e.kind = sensorKinds[2]
			}
			text = e.kind.reportText[g.rng.IntN(len(e.kind.reportText))]
			ts = e.ts.Add(time.Duration(g.rng.IntN(120)-60) * time.Minute)
			lat, lon = e.lat+(g.rng.Float64()-0.5)*0.02, e.lon+(g.rng.Float64()-0.5)*0.02
		} else {
			if g.rng.IntN(3) == 0 {
				text = noiseTexts[g.rng.IntN(len(noiseTexts))]
			} else {
				k := sensorKinds[g.rng.IntN(len(sensorKinds))]
				if len(k.reportText) == 0 {
					k = sensorKinds[0]
				}
				text = k.reportText[g.rng.IntN(len(k.reportText))]
			}
			ts = baseDate.Add(time.Duration(g.rng.IntN(g.opts.hours*60)) * time.Minute)
			lat, lon = g.near(g.district())
		}
		rows = append(rows, []string{id, ts.Format(time.RFC3339), text, ftoa(lat), ftoa(lon)})
	}
	return rows
}

func writeResults(dir string) error {
	// Fixed clock keeps GeneratedAt stable across runs.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate.Add(72 * time.Hour)))
	defer domain.SetClock(nil)

	src := &csvfile.Source{
		SensorsPath: filepath.Join(dir, "sensor_readings.csv"),
		EventsPath:  filepath.Join(dir, "disaster_events.csv"),
		ReportsPath: filepath.Join(dir, "social_reports.csv"),
	}
	ctx := context.Background()
	in, err := src.Load(ctx)
	if err != nil {
		return err
	}
	res, _, err := pipeline.Analyze(ctx, in, pipeline.DefaultAnalysis())
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	res.RunID = "genmock"
	res.GeneratedAt = domain.Now()

	path := filepath.Join(dir, "expected_results.json")
	if err := csvfile.NewJSONSink(path, os.Stdout).Publish(ctx, res); err != nil {
		return err
	}
	log.Printf("%s: %d anomalies, %d/%d reports verified, %d rejections",
		path, res.Stats.Anomalies, res.Stats.Verified, res.Stats.Reports, res.Stats.Rejections)
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}
