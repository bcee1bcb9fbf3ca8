package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/city-signal/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/city-signal/internal/adapter/kafka"
	"github.com/couchcryptid/city-signal/internal/adapter/mapbox"
	"github.com/couchcryptid/city-signal/internal/config"
	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/observability"
	"github.com/couchcryptid/city-signal/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// pathFlags override the *_PATH settings when set.
type pathFlags struct {
	sensors string
	events  string
	reports string
	zones   string
	output  string
}

func (f *pathFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.sensors, "sensors", "", "sensor readings CSV (overrides SENSORS_PATH)")
	cmd.PersistentFlags().StringVar(&f.events, "events", "", "disaster events CSV (overrides EVENTS_PATH)")
	cmd.PersistentFlags().StringVar(&f.reports, "reports", "", "social reports CSV (overrides REPORTS_PATH)")
	cmd.PersistentFlags().StringVar(&f.zones, "zones", "", "zone atlas GeoJSON (overrides ZONES_PATH)")
	cmd.PersistentFlags().StringVarP(&f.output, "output", "o", "", `results JSON path, "-" for stdout (overrides OUTPUT_PATH)`)
}

func (f *pathFlags) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.SensorsPath, f.sensors)
	set(&cfg.EventsPath, f.events)
	set(&cfg.ReportsPath, f.reports)
	set(&cfg.ZonesPath, f.zones)
	set(&cfg.OutputPath, f.output)
}

func newRootCmd() *cobra.Command {
	flags := &pathFlags{}
	root := &cobra.Command{
		Use:           "citysignal",
		Short:         "Zone, anomaly and report-verification analysis over city sensor and social data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(root)
	root.AddCommand(newRunCmd(flags), newServeCmd(flags))
	return root
}

// app is the wired service shared by the run and serve commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	pipeline *pipeline.Pipeline
	kafka    *kafkaadapter.Writer
}

func newApp(flags *pathFlags) (*app, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, err
	}
	flags.apply(cfg)

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			return nil, err
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics}

	sinks := []pipeline.Sink{csvfile.NewJSONSink(cfg.OutputPath, os.Stdout)}
	if cfg.KafkaEnabled {
		a.kafka = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, a.kafka)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers,
			"reports_topic", cfg.KafkaReportsTopic, "zones_topic", cfg.KafkaZonesTopic)
	}

	src := &csvfile.Source{
		SensorsPath: cfg.SensorsPath,
		EventsPath:  cfg.EventsPath,
		ReportsPath: cfg.ReportsPath,
		ZonesPath:   cfg.ZonesPath,
	}
	analysis := pipeline.Analysis{
		ZoneStrategy: cfg.Tuning.ZoneStrategy,
		LabelMarker:  cfg.Tuning.ZoneLabelMarker,
		Detector:     cfg.Tuning.Detector(),
		Correlator:   cfg.Tuning.Correlator(),
	}
	a.pipeline = pipeline.New(src, sinks, analysis, geocoder, logger, metrics)
	return a, nil
}

func (a *app) close() {
	if a.kafka == nil {
		return
	}
	if err := a.kafka.Close(); err != nil {
		a.logger.Error("kafka writer close error", "error", err)
	}
}
