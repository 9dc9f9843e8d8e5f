package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
	"github.com/utafrali/rocketshoes-cart/internal/logger"
)

type fakeMessageWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeMessageWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeMessageWriter) Close() error {
	f.closed = true
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer(w *fakeMessageWriter) *Producer {
	writer := &Writer{writer: w, logger: newTestLogger()}
	return NewProducer(writer, "@RocketShoes:cart", newTestLogger())
}

func testCart() domain.Cart {
	return domain.Cart{Items: []domain.LineItem{
		{ID: 1, Title: "Tênis de Caminhada", Price: decimal.RequireFromString("179.9"), Amount: 2},
		{ID: 3, Title: "Tênis Adidas Duramo", Price: decimal.RequireFromString("219.9"), Amount: 1},
	}}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishCartUpdated(t *testing.T) {
	w := &fakeMessageWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-123")

	require.NoError(t, p.PublishCartUpdated(ctx, testCart()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicCartUpdated, msg.Topic)
	assert.Equal(t, "@RocketShoes:cart", string(msg.Key))
	assert.Equal(t, TopicCartUpdated, header(msg, "event_type"))
	assert.Equal(t, SourceCartService, header(msg, "source"))
	assert.Equal(t, "corr-123", header(msg, "correlation_id"))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "corr-123", event.CorrelationID)

	var data CartUpdatedData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "@RocketShoes:cart", data.CartKey)
	assert.Equal(t, 3, data.ItemCount)
	assert.Equal(t, "579.7", data.Total.String())
	require.Len(t, data.Items, 2)
	assert.Equal(t, 1, data.Items[0].ProductID)
	assert.Equal(t, "359.8", data.Items[0].Subtotal.String())
}

func TestPublishCartUpdated_EmptyCart(t *testing.T) {
	w := &fakeMessageWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishCartUpdated(context.Background(), domain.Cart{}))
	require.Len(t, w.messages, 1)
	assert.Empty(t, header(w.messages[0], "correlation_id"))

	var event Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	var data CartUpdatedData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, 0, data.ItemCount)
	assert.Empty(t, data.Items)
	assert.True(t, data.Total.IsZero())
}

func TestPublishCartUpdated_WriteError(t *testing.T) {
	w := &fakeMessageWriter{err: errors.New("broker unreachable")}
	p := newTestProducer(w)

	err := p.PublishCartUpdated(context.Background(), testCart())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish cart.updated event")
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestWriter_PropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	w := &fakeMessageWriter{}
	require.NoError(t, newTestProducer(w).PublishCartUpdated(ctx, testCart()))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.messages[0], "traceparent"))
}

func TestWriter_Close(t *testing.T) {
	w := &fakeMessageWriter{}
	writer := &Writer{writer: w, logger: newTestLogger()}

	require.NoError(t, writer.Close())
	assert.True(t, w.closed)
}

func TestWriter_PingWithoutBrokers(t *testing.T) {
	writer := &Writer{writer: &fakeMessageWriter{}, logger: newTestLogger()}

	err := writer.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("value1")}}
	carrier := headerCarrier{headers: &headers}

	assert.Equal(t, "value1", carrier.Get("existing"))
	assert.Empty(t, carrier.Get("missing"))

	carrier.Set("new-key", "new-value")
	carrier.Set("existing", "updated")

	assert.Equal(t, "new-value", carrier.Get("new-key"))
	assert.Equal(t, "updated", carrier.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new-key"}, carrier.Keys())
}
