// Package anomaly flags sensor readings whose rolling z-score exceeds a threshold.
package anomaly

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/city-signal/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Mode selects how readings are grouped into series.
type Mode string

const (
	// ModePerSensor keeps one series per sensor id.
	ModePerSensor Mode = "per_sensor"
	// ModePooled treats every reading as one series regardless of sensor.
	ModePooled Mode = "pooled"
)

const (
	DefaultWindow    = 10
	DefaultThreshold = 2.0
)

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePerSensor, "":
		return ModePerSensor, nil
	case ModePooled:
		return ModePooled, nil
	default:
		return "", fmt.Errorf("invalid anomaly mode %q", s)
	}
}

// Detector computes trailing-window statistics over each series. The window
// includes the current reading and expands until it holds Window readings.
type Detector struct {
	Window    int
	Threshold float64
	Mode      Mode
}

// NewDetector returns a detector with the default window, threshold and mode.
func NewDetector() Detector {
	return Detector{Window: DefaultWindow, Threshold: DefaultThreshold, Mode: ModePerSensor}
}

// Validate checks the detector parameters.
func (d Detector) Validate() error {
	if d.Window < 1 {
		return fmt.Errorf("anomaly window must be at least 1, got %d", d.Window)
	}
	if d.Threshold < 0 || math.IsNaN(d.Threshold) || math.IsInf(d.Threshold, 0) {
		return fmt.Errorf("anomaly threshold must be a finite non-negative number, got %v", d.Threshold)
	}
	if _, err := ParseMode(string(d.Mode)); err != nil {
		return err
	}
	return nil
}

// Flag annotates every usable reading with its rolling mean, sample standard
// deviation, z-score and anomaly flag. Output is in timestamp order, ties kept
// in input order. Readings without a timestamp or with a non-finite value are
// returned as rejections.
func (d Detector) Flag(readings []domain.SensorReading) ([]domain.FlaggedReading, []domain.Rejection) {
	var rejected []domain.Rejection
	kept := make([]domain.SensorReading, 0, len(readings))
	for i, r := range readings {
		if err := checkReading(r); err != nil {
			rejected = append(rejected, domain.Rejection{Kind: "sensor", Index: i, ID: r.SensorID, Err: err})
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	series := make(map[string]*window)
	out := make([]domain.FlaggedReading, len(kept))
	for i, r := range kept {
		key := ""
		if d.Mode != ModePooled {
			key = r.SensorID
		}
		w, ok := series[key]
		if !ok {
			w = newWindow(d.Window)
			series[key] = w
		}
		w.push(r.Value)
		out[i] = d.flag(r, w.values())
	}
	return out, rejected
}

func (d Detector) flag(r domain.SensorReading, values []float64) domain.FlaggedReading {
	fr := domain.FlaggedReading{SensorReading: r}
	if len(values) < 2 {
		fr.RollingMean = values[0]
		return fr
	}
	mean, std := stat.MeanStdDev(values, nil)
	fr.RollingMean = mean
	if math.IsNaN(std) {
		return fr
	}
	fr.RollingStd = &std
	if std == 0 {
		return fr
	}
	z := (r.Value - mean) / std
	fr.ZScore = &z
	fr.AnomalyFlag = math.Abs(z) > d.Threshold
	return fr
}

var errMissingTimestamp = errors.New("missing timestamp")

func checkReading(r domain.SensorReading) error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: %w", domain.ErrMalformedRecord, errMissingTimestamp)
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return fmt.Errorf("%w: reading value %v", domain.ErrMalformedRecord, r.Value)
	}
	return nil
}
