package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/city-signal/internal/anomaly"
	"github.com/couchcryptid/city-signal/internal/correlate"
	"github.com/couchcryptid/city-signal/internal/zone"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Tuning holds the analysis parameters.
type Tuning struct {
	ZoneStrategy     string        `koanf:"zone_strategy"`
	ZoneLabelMarker  string        `koanf:"zone_label_marker"`
	AnomalyWindow    int           `koanf:"anomaly_window"`
	AnomalyThreshold float64       `koanf:"anomaly_threshold"`
	AnomalyMode      string        `koanf:"anomaly_mode"`
	MatchRadiusKM    float64       `koanf:"match_radius_km"`
	MatchWindow      time.Duration `koanf:"match_window"`
	MatchWorkers     int           `koanf:"match_workers"`
}

// DefaultTuning returns the built-in analysis parameters.
func DefaultTuning() Tuning {
	return Tuning{
		ZoneStrategy:     zone.StrategyAuto,
		ZoneLabelMarker:  zone.DefaultLabelMarker,
		AnomalyWindow:    anomaly.DefaultWindow,
		AnomalyThreshold: anomaly.DefaultThreshold,
		AnomalyMode:      string(anomaly.ModePerSensor),
		MatchRadiusKM:    correlate.DefaultRadiusKM,
		MatchWindow:      correlate.DefaultWindow,
		MatchWorkers:     correlate.DefaultWorkers,
	}
}

// LoadTuning layers defaults, the optional YAML file named by CITYSIGNAL_CONFIG
// and CITYSIGNAL_* environment variables, in increasing precedence.
func LoadTuning() (*Tuning, error) {
	k := koanf.New(".")

	if path := os.Getenv("CITYSIGNAL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load tuning file %s: %w", path, err)
		}
	}

	// CITYSIGNAL_MATCH_RADIUS_KM -> match_radius_km
	envProvider := env.Provider("CITYSIGNAL_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "citysignal_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load tuning env: %w", err)
	}

	t := DefaultTuning()
	if err := k.UnmarshalWithConf("", &t, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Detector returns the configured anomaly detector.
func (t Tuning) Detector() anomaly.Detector {
	mode, _ := anomaly.ParseMode(t.AnomalyMode)
	return anomaly.Detector{Window: t.AnomalyWindow, Threshold: t.AnomalyThreshold, Mode: mode}
}

// Correlator returns the configured report correlator.
func (t Tuning) Correlator() correlate.Correlator {
	return correlate.Correlator{RadiusKM: t.MatchRadiusKM, Window: t.MatchWindow, Workers: t.MatchWorkers}
}

// Validate checks every tuning parameter.
func (t Tuning) Validate() error {
	switch t.ZoneStrategy {
	case zone.StrategyAuto, zone.StrategyNearest, zone.StrategyAtlas, zone.StrategyBoxes:
	default:
		return fmt.Errorf("invalid zone_strategy %q", t.ZoneStrategy)
	}
	if err := t.Detector().Validate(); err != nil {
		return err
	}
	if _, err := anomaly.ParseMode(t.AnomalyMode); err != nil {
		return err
	}
	if err := t.Correlator().Validate(); err != nil {
		return err
	}
	if t.MatchWorkers < 1 {
		return fmt.Errorf("match_workers must be at least 1, got %d", t.MatchWorkers)
	}
	return nil
}
