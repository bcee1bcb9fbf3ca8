//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/city-signal/internal/adapter/csvfile"
	"github.com/couchcryptid/city-signal/internal/adapter/kafka"
	"github.com/couchcryptid/city-signal/internal/config"
	"github.com/couchcryptid/city-signal/internal/domain"
	"github.com/couchcryptid/city-signal/internal/observability"
	"github.com/couchcryptid/city-signal/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testReportsTopic = "test-verdicted-reports"
	testZonesTopic   = "test-zone-features"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("city-signal-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type received struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

func readN(ctx context.Context, t *testing.T, broker, topic string, n int) []received {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     fmt.Sprintf("test-%s-%d", topic, time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]received, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from %s", topic)
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		out = append(out, received{Key: string(msg.Key), Value: msg.Value, Headers: headers})
	}
	return out
}

// TestPipelineToKafka runs the CSV fixtures through a batch and checks the
// verdicts and zone rows that land on the two output topics.
func TestPipelineToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportsTopic)
	createTopic(t, broker, testZonesTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaReportsTopic: testReportsTopic,
		KafkaZonesTopic:   testZonesTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	dir := filepath.Join("..", "adapter", "csvfile", "testdata")
	src := &csvfile.Source{
		SensorsPath: filepath.Join(dir, "sensors.csv"),
		EventsPath:  filepath.Join(dir, "events.csv"),
		ReportsPath: filepath.Join(dir, "reports.csv"),
		ZonesPath:   filepath.Join(dir, "zones.geojson"),
	}

	p := pipeline.New(src, []pipeline.Sink{writer}, pipeline.DefaultAnalysis(), nil,
		discardLogger(), observability.NewMetricsForTesting())

	res, err := p.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, res.Stats.Reports)
	require.Equal(t, 2, res.Stats.Zones)

	reports := readN(ctx, t, broker, testReportsTopic, res.Stats.Reports)
	verdicts := map[string]string{}
	for _, m := range reports {
		assert.Equal(t, res.RunID, m.Headers["run_id"])
		verdicts[m.Key] = m.Headers["verdict"]

		var v domain.VerdictedReport
		require.NoError(t, json.Unmarshal(m.Value, &v))
		assert.Equal(t, m.Key, v.ReportID)
		assert.Equal(t, !v.IsVerified, v.IsUnverified)
	}
	assert.Equal(t, map[string]string{
		"t1": "verified",
		"t2": "verified",
		"t3": "verified",
		"t4": "unverified",
	}, verdicts)

	zones := readN(ctx, t, broker, testZonesTopic, res.Stats.Zones)
	keys := make([]string, 0, len(zones))
	for _, m := range zones {
		keys = append(keys, m.Key)
		assert.NotEmpty(t, m.Headers["risk_level"])
	}
	assert.ElementsMatch(t, []string{"Zone A", "Zone B"}, keys)
}
