package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch inputs and outputs.
	SensorsPath string
	EventsPath  string
	ReportsPath string
	ZonesPath   string
	OutputPath  string

	// RunSchedule is a cron spec for re-running the batch in serve mode.
	// Empty runs once at startup only.
	RunSchedule string

	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaReportsTopic string
	KafkaZonesTopic   string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	Tuning Tuning
}

// Load reads configuration from environment variables, applying defaults where
// unset, then layers analysis tuning from CITYSIGNAL_CONFIG and CITYSIGNAL_* variables.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	tuning, err := LoadTuning()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SensorsPath: sharedcfg.EnvOrDefault("SENSORS_PATH", "data/sensor_readings.csv"),
		EventsPath:  sharedcfg.EnvOrDefault("EVENTS_PATH", "data/disaster_events.csv"),
		ReportsPath: sharedcfg.EnvOrDefault("REPORTS_PATH", "data/social_reports.csv"),
		ZonesPath:   os.Getenv("ZONES_PATH"),
		OutputPath:  sharedcfg.EnvOrDefault("OUTPUT_PATH", "-"),
		RunSchedule: os.Getenv("RUN_SCHEDULE"),

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportsTopic: sharedcfg.EnvOrDefault("KAFKA_REPORTS_TOPIC", "verdicted-reports"),
		KafkaZonesTopic:   sharedcfg.EnvOrDefault("KAFKA_ZONES_TOPIC", "zone-features"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		Tuning: *tuning,
	}

	if cfg.SensorsPath == "" || cfg.EventsPath == "" || cfg.ReportsPath == "" {
		return nil, errors.New("SENSORS_PATH, EVENTS_PATH and REPORTS_PATH are required")
	}
	if cfg.RunSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RunSchedule); err != nil {
			return nil, fmt.Errorf("invalid RUN_SCHEDULE: %w", err)
		}
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaReportsTopic == "" || cfg.KafkaZonesTopic == "" {
			return nil, errors.New("KAFKA_REPORTS_TOPIC and KAFKA_ZONES_TOPIC are required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
