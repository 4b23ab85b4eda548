//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-data-heatmap/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-heatmap/internal/config"
	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
	"github.com/couchcryptid/storm-data-heatmap/internal/observability"
	"github.com/couchcryptid/storm-data-heatmap/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka starts a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("storm-heatmap-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
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
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchSize:          50,
		BatchFlushInterval: 2 * time.Second,
		Mode:               heatmap.ModeInfluence,
		Field:              domain.FieldType,
		Scale:              0.1,
		Radius:             0.5,
		Padding:            heatmap.Uniform(0.5),
		WindowSize:         100,
	}
}

func stormMessages(t *testing.T, events []domain.StormEvent) []kafkago.Message {
	t.Helper()
	msgs := make([]kafkago.Message, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{Key: []byte(e.ID), Value: payload})
	}
	return msgs
}

var fixtureEvents = []domain.StormEvent{
	{ID: "hail-1", EventType: "hail", Magnitude: 1.25, Geo: domain.Geo{Lat: 31.02, Lon: -98.44}},
	{ID: "hail-2", EventType: "hail", Magnitude: 1.75, Geo: domain.Geo{Lat: 31.10, Lon: -98.30}},
	{ID: "wind-1", EventType: "wind", Magnitude: 65, Geo: domain.Geo{Lat: 31.40, Lon: -98.10}},
	{ID: "tornado-1", EventType: "tornado", Magnitude: 1, Geo: domain.Geo{Lat: 31.60, Lon: -97.90}},
}

// readSnapshot reads a single raster snapshot from the sink consumer.
func readSnapshot(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (domain.RasterSnapshot, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var snap domain.RasterSnapshot
	require.NoError(t, json.Unmarshal(msg.Value, &snap), "unmarshal sink message")
	assert.Equal(t, snap.ID, string(msg.Key))
	return snap, headers
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func runPipeline(ctx context.Context, t *testing.T, cfg *config.Config) (context.CancelFunc, <-chan error) {
	t.Helper()
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	engine, err := heatmap.NewEngine(cfg.EngineConfig(), discardLogger())
	require.NoError(t, err)

	p := pipeline.New(reader, pipeline.NewTransformer(cfg.Field, nil, discardLogger()), engine, writer,
		discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{
			BatchSize:  cfg.BatchSize,
			WindowSize: cfg.WindowSize,
			Field:      cfg.Field,
		})

	pipelineCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()
	return cancel, errCh
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader extracts a
// storm event and kafka.Writer publishes a snapshot computed from it.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	msgs := stormMessages(t, fixtureEvents[:2])
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) < 2 {
		more, err := reader.ExtractBatch(ctx, 2-len(batch))
		require.NoError(t, err)
		batch = append(batch, more...)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for messages from source topic")
		}
	}
	assert.Equal(t, []byte("hail-1"), batch[0].Key)
	assert.Equal(t, testSourceTopic, batch[0].Topic)
	require.NotNil(t, batch[0].Commit, "commit callback should be set")

	transformer := pipeline.NewTransformer(cfg.Field, nil, discardLogger())
	points := make(heatmap.Dataset, 0, len(batch))
	for _, raw := range batch {
		p, err := transformer.Transform(ctx, raw)
		require.NoError(t, err)
		points = append(points, p)
		require.NoError(t, raw.Commit(ctx))
	}

	res, err := heatmap.Compute(ctx, points, cfg.EngineConfig())
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	want := domain.NewRasterSnapshot(res, string(cfg.Field), points)
	require.NoError(t, writer.LoadSnapshot(ctx, want))

	got, headers := readSnapshot(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Cells, got.Cells)
	assert.Equal(t, "influence", headers["mode"])
	assert.Equal(t, "type", headers["field"])
	assert.Equal(t, "2", headers["points"])
	_, err = time.Parse(time.RFC3339, headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")
}

// TestPipelineEndToEnd wires the full pipeline with real Kafka and verifies
// that a raster covering every event is published.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, stormMessages(t, fixtureEvents)...))

	stop, errCh := runPipeline(ctx, t, cfg)
	consumer := sinkConsumer(t, broker)

	// The first batch may not hold every event, so read until one does.
	var snap domain.RasterSnapshot
	for snap.Points < len(fixtureEvents) {
		snap, _ = readSnapshot(ctx, t, consumer)
	}

	stop()
	require.NoError(t, <-errCh)

	assert.Equal(t, heatmap.ModeInfluence, snap.Mode)
	assert.Zero(t, snap.Dropped)
	require.Len(t, snap.Legend, 3)
	assert.Equal(t, "hail", snap.Legend[0].Label)
	assert.Equal(t, 1, snap.Legend[0].Rank)
	assert.Len(t, snap.Cells, snap.Grid.Height)
	assert.Len(t, snap.Cells[0], snap.Grid.Width)
	assert.InDelta(t, 30.52, snap.Bounds.LatMin, 1e-9)
	assert.InDelta(t, 32.10, snap.Bounds.LatMax, 1e-9)
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the raster is built from the valid messages only.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := append([]kafkago.Message{{Key: []byte("bad"), Value: []byte("not-json{{{")}},
		stormMessages(t, fixtureEvents[:1])...)
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	stop, errCh := runPipeline(ctx, t, cfg)
	consumer := sinkConsumer(t, broker)

	snap, headers := readSnapshot(ctx, t, consumer)
	assert.Equal(t, 1, snap.Points)
	assert.Equal(t, "1", headers["points"])

	// No further snapshot arrives since nothing new was accepted.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	stop()
	require.NoError(t, <-errCh)
}
