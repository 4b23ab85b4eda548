package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-data-heatmap/internal/config"
	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
)

// Writer produces raster snapshots to a Kafka topic.
// It implements pipeline.SnapshotLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		// Snapshots carry a full raster and can exceed the default 1MB batch.
		BatchBytes: 16 << 20,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadSnapshot serializes and publishes a raster snapshot keyed by its ID.
func (w *Writer) LoadSnapshot(ctx context.Context, s domain.RasterSnapshot) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	w.logger.Debug("snapshot written", "snapshot_id", s.ID, "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a snapshot into a Kafka message with sorted headers.
func serializeToMessage(s domain.RasterSnapshot) (kafkago.Message, error) {
	out, err := domain.SerializeSnapshot(s)
	if err != nil {
		return kafkago.Message{}, err
	}
	headers := make([]kafkago.Header, 0, len(out.Headers))
	for _, key := range []string{"mode", "field", "computed_at", "points"} {
		if v, ok := out.Headers[key]; ok {
			headers = append(headers, kafkago.Header{Key: key, Value: []byte(v)})
		}
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
