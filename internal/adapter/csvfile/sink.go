package csvfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/city-signal/internal/domain"
)

// StdoutPath selects standard output as the JSON sink destination.
const StdoutPath = "-"

// JSONSink writes each result as indented JSON. It implements pipeline.Sink.
type JSONSink struct {
	path string
	out  io.Writer
}

// NewJSONSink writes to path, replacing the file atomically, or to stdout
// when path is StdoutPath.
func NewJSONSink(path string, stdout io.Writer) *JSONSink {
	return &JSONSink{path: path, out: stdout}
}

func (s *JSONSink) Name() string {
	if s.path == StdoutPath {
		return "stdout"
	}
	return "file"
}

func (s *JSONSink) Publish(ctx context.Context, res *domain.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize result: %w", err)
	}
	data = append(data, '\n')

	if s.path == StdoutPath {
		_, err := s.out.Write(data)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".results-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close results: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// ReadResult decodes a result previously written by JSONSink.
func ReadResult(r io.Reader) (*domain.Result, error) {
	var res domain.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}
