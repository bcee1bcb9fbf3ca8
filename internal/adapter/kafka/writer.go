package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-signal/internal/config"
	"github.com/couchcryptid/city-signal/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes verdicted reports and zone features to Kafka.
// It implements pipeline.Sink.
type Writer struct {
	writer       messageWriter
	reportsTopic string
	zonesTopic   string
	logger       *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report and zone topics.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:       w,
		reportsTopic: cfg.KafkaReportsTopic,
		zonesTopic:   cfg.KafkaZonesTopic,
		logger:       logger,
	}
}

func (w *Writer) Name() string { return "kafka" }

// Publish writes one message per verdicted report and one per zone feature
// row in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, res *domain.Result) error {
	msgs, err := w.messages(res)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("published to kafka", "run_id", res.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func (w *Writer) messages(res *domain.Result) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(res.Reports)+len(res.Zones))
	for i := range res.Reports {
		r := res.Reports[i]
		verdict := "unverified"
		if r.IsVerified {
			verdict = "verified"
		}
		msg, err := serializeToMessage(w.reportsTopic, r.ReportID, r, res,
			kafkago.Header{Key: "verdict", Value: []byte(verdict)},
			kafkago.Header{Key: "category", Value: []byte(r.DetectedCategory)},
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	for i := range res.Zones {
		z := res.Zones[i]
		msg, err := serializeToMessage(w.zonesTopic, z.ZoneID, z, res,
			kafkago.Header{Key: "risk_level", Value: []byte(z.RiskLevel)},
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals v into a Kafka message stamped with the run
// metadata of res.
func serializeToMessage(topic, key string, v any, res *domain.Result, extra ...kafkago.Header) (kafkago.Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s message %s: %w", topic, key, err)
	}
	headers := []kafkago.Header{
		{Key: "run_id", Value: []byte(res.RunID)},
		{Key: "generated_at", Value: []byte(res.GeneratedAt.Format(time.RFC3339))},
	}
	return kafkago.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   data,
		Headers: append(headers, extra...),
	}, nil
}
