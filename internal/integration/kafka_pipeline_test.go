//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/floodcast/floodcast-api/internal/adapter/kafka"
	"github.com/floodcast/floodcast-api/internal/adapter/mlservice"
	"github.com/floodcast/floodcast-api/internal/adapter/store"
	"github.com/floodcast/floodcast-api/internal/auth"
	"github.com/floodcast/floodcast-api/internal/config"
	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/floodcast/floodcast-api/internal/observability"
	"github.com/floodcast/floodcast-api/internal/pipeline"
	"github.com/floodcast/floodcast-api/internal/retry"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-prediction-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("floodcast-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
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

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func headers(msg kafkago.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

// TestWriterPublishesPrediction verifies the Kafka adapter round-trips a
// prediction record with its key and headers.
func TestWriterPublishesPrediction(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	result := domain.PredictionResult{
		ID:             "pred-1",
		SubjectID:      "user-1",
		Year:           2024,
		Month:          1,
		Latitude:       -6.3,
		Longitude:      106.8,
		PredictedLabel: true,
		RegencyName:    "Bogor",
		DistrictName:   "Pondok Gede",
		CreatedAt:      time.Date(2024, time.January, 20, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, writer.PublishPrediction(ctx, result))

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := newConsumer(t, broker).ReadMessage(readCtx)
	require.NoError(t, err)

	assert.Equal(t, "user-1", string(msg.Key))
	h := headers(msg)
	assert.Equal(t, "prediction.recorded", h["event_type"])
	assert.Equal(t, "2024-01-20T09:00:00Z", h["created_at"])

	var got domain.PredictionResult
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, result, got)
}

// TestPipelineEndToEnd wires the prediction pipeline with a real store and
// Kafka broker and verifies every successful prediction is both persisted and
// published.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"prediction":0,"metadata":{"district":{"NAME_2":"Kota Depok","NAME_3":"cimanggis"}}}`))
	}))
	t.Cleanup(ml.Close)

	st, err := store.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { _ = st.Close() })

	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	authorizer := auth.NewAuthorizer("integration-secret", time.Hour)
	client := mlservice.NewClient(ml.URL, 5*time.Second, retry.Policy{MaxRetries: 1, Step: time.Millisecond}, metrics, discardLogger())
	p := pipeline.New(authorizer, client, st.Predictions(), writer, discardLogger(), metrics)

	token, err := authorizer.Issue("user-7")
	require.NoError(t, err)

	months := []string{"Januari", "Februari", "Maret"}
	for _, m := range months {
		body := fmt.Sprintf(`{"tahun":2025,"bulan":%q,"latitude":-6.37,"longitude":106.87}`, m)
		resp, err := p.Predict(ctx, "Bearer "+token, strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, "Cimanggis", resp.FormattedDistrictName)
		assert.False(t, resp.PredictedLabel)
	}

	// An out-of-region request is neither persisted nor published.
	_, err = p.Predict(ctx, "Bearer "+token,
		strings.NewReader(`{"tahun":2025,"bulan":"April","latitude":-7.5,"longitude":110.4}`))
	require.ErrorIs(t, err, domain.ErrOutOfBounds)

	stored, err := p.History(ctx, "Bearer "+token)
	require.NoError(t, err)
	require.Len(t, stored, len(months))

	consumer := newConsumer(t, broker)
	published := map[string]domain.PredictionResult{}
	for len(published) < len(months) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err)
		assert.Equal(t, "user-7", string(msg.Key))

		var r domain.PredictionResult
		require.NoError(t, json.Unmarshal(msg.Value, &r))
		published[r.ID] = r
	}

	for _, s := range stored {
		pub, ok := published[s.ID]
		require.True(t, ok, "stored prediction %s was not published", s.ID)
		assert.Equal(t, s.Month, pub.Month)
		assert.Equal(t, "Cimanggis", pub.DistrictName)
	}

	// No fourth event follows.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no event for the rejected request")
}
