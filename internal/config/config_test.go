package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/city-signal/internal/anomaly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "data/sensor_readings.csv", cfg.SensorsPath)
	assert.Equal(t, "data/disaster_events.csv", cfg.EventsPath)
	assert.Equal(t, "data/social_reports.csv", cfg.ReportsPath)
	assert.Empty(t, cfg.ZonesPath)
	assert.Equal(t, "-", cfg.OutputPath)
	assert.Empty(t, cfg.RunSchedule)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "verdicted-reports", cfg.KafkaReportsTopic)
	assert.Equal(t, "zone-features", cfg.KafkaZonesTopic)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Equal(t, DefaultTuning(), cfg.Tuning)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SENSORS_PATH", "/in/s.csv")
	t.Setenv("EVENTS_PATH", "/in/e.csv")
	t.Setenv("REPORTS_PATH", "/in/r.csv")
	t.Setenv("ZONES_PATH", "/in/zones.geojson")
	t.Setenv("OUTPUT_PATH", "/out/results.json")
	t.Setenv("RUN_SCHEDULE", "*/15 * * * *")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_REPORTS_TOPIC", "custom-reports")
	t.Setenv("KAFKA_ZONES_TOPIC", "custom-zones")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/in/s.csv", cfg.SensorsPath)
	assert.Equal(t, "/in/e.csv", cfg.EventsPath)
	assert.Equal(t, "/in/r.csv", cfg.ReportsPath)
	assert.Equal(t, "/in/zones.geojson", cfg.ZonesPath)
	assert.Equal(t, "/out/results.json", cfg.OutputPath)
	assert.Equal(t, "*/15 * * * *", cfg.RunSchedule)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportsTopic)
	assert.Equal(t, "custom-zones", cfg.KafkaZonesTopic)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidSchedule(t *testing.T) {
	t.Setenv("RUN_SCHEDULE", "every tuesday")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUN_SCHEDULE")
}

func TestLoad_InvalidMapboxTimeout(t *testing.T) {
	t.Setenv("MAPBOX_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TIMEOUT")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoadTuning_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	yaml := "zone_strategy: bbox\nanomaly_window: 24\nanomaly_mode: pooled\nmatch_radius_km: 5\nmatch_window: 90m\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CITYSIGNAL_CONFIG", path)
	t.Setenv("CITYSIGNAL_MATCH_RADIUS_KM", "12.5")
	t.Setenv("CITYSIGNAL_ANOMALY_THRESHOLD", "3")

	tuning, err := LoadTuning()
	require.NoError(t, err)

	assert.Equal(t, "bbox", tuning.ZoneStrategy)
	assert.Equal(t, 24, tuning.AnomalyWindow)
	assert.Equal(t, "pooled", tuning.AnomalyMode)
	assert.InDelta(t, 12.5, tuning.MatchRadiusKM, 0)
	assert.Equal(t, 90*time.Minute, tuning.MatchWindow)
	assert.InDelta(t, 3.0, tuning.AnomalyThreshold, 0)
	assert.Equal(t, "Zone", tuning.ZoneLabelMarker)

	d := tuning.Detector()
	assert.Equal(t, anomaly.ModePooled, d.Mode)
	assert.Equal(t, 24, d.Window)

	c := tuning.Correlator()
	assert.InDelta(t, 12.5, c.RadiusKM, 0)
	assert.Equal(t, 90*time.Minute, c.Window)
}

func TestLoadTuning_MissingFile(t *testing.T) {
	t.Setenv("CITYSIGNAL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadTuning()
	assert.Error(t, err)
}

func TestLoadTuning_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"strategy", "CITYSIGNAL_ZONE_STRATEGY", "voronoi"},
		{"window", "CITYSIGNAL_ANOMALY_WINDOW", "0"},
		{"mode", "CITYSIGNAL_ANOMALY_MODE", "global"},
		{"radius", "CITYSIGNAL_MATCH_RADIUS_KM", "-1"},
		{"workers", "CITYSIGNAL_MATCH_WORKERS", "0"},
		{"duration", "CITYSIGNAL_MATCH_WINDOW", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadTuning()
			assert.Error(t, err)
		})
	}
}
