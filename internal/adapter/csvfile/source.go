package csvfile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/city-signal/internal/pipeline"
)

// Source loads a batch from files on disk. It implements pipeline.Source.
type Source struct {
	SensorsPath string
	EventsPath  string
	ReportsPath string

	// ZonesPath is an optional GeoJSON zone atlas.
	ZonesPath string
}

// Load reads every configured file. Files are re-read on each call so that a
// scheduled run picks up replaced inputs.
func (s *Source) Load(ctx context.Context) (*pipeline.Inputs, error) {
	var in pipeline.Inputs
	var err error

	if in.Sensors, err = readFile(ctx, s.SensorsPath, ReadSensors); err != nil {
		return nil, err
	}
	if in.Events, err = readFile(ctx, s.EventsPath, ReadEvents); err != nil {
		return nil, err
	}
	if in.Reports, err = readFile(ctx, s.ReportsPath, ReadReports); err != nil {
		return nil, err
	}
	if s.ZonesPath != "" {
		if in.Zones, err = readFile(ctx, s.ZonesPath, ReadZones); err != nil {
			return nil, err
		}
	}
	return &in, nil
}

func readFile[T any](ctx context.Context, path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
