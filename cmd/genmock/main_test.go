package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/city-signal/internal/adapter/csvfile"
	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallOptions(dir string) options {
	return options{
		outDir:      dir,
		seed:        7,
		sensors:     6,
		hours:       12,
		events:      4,
		reports:     10,
		spikeRate:   0.05,
		invalidRate: 0.05,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, generate(smallOptions(a)))
	require.NoError(t, generate(smallOptions(b)))

	for _, name := range []string{"sensor_readings.csv", "disaster_events.csv", "social_reports.csv"} {
		da, err := os.ReadFile(filepath.Join(a, name))
		require.NoError(t, err)
		db, err := os.ReadFile(filepath.Join(b, name))
		require.NoError(t, err)
		assert.Equal(t, string(da), string(db), name)
	}
}

func TestGenerateWithResults(t *testing.T) {
	dir := t.TempDir()
	o := smallOptions(dir)
	o.results = true
	require.NoError(t, generate(o))

	f, err := os.Open(filepath.Join(dir, "expected_results.json"))
	require.NoError(t, err)
	defer f.Close()

	res, err := csvfile.ReadResult(f)
	require.NoError(t, err)
	assert.Equal(t, "genmock", res.RunID)
	assert.Equal(t, "nearest", res.ZoneStrategy)
	assert.Equal(t, 10, res.Stats.Reports+countKind(res.Rejections, "report"))
	assert.Equal(t, 6*12, res.Stats.Sensors+countKind(res.Rejections, "sensor"))
	for _, r := range res.Reports {
		assert.Equal(t, !r.IsVerified, r.IsUnverified, r.ReportID)
	}
}

func countKind(rejections []domain.Rejection, kind string) int {
	n := 0
	for _, r := range rejections {
		if r.Kind == kind {
			n++
		}
	}
	return n
}
