package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/rocketshoes-cart/internal/logger"
)

func TestNewCartEvent_Fields(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-abc")

	event, err := newCartEvent(ctx, TopicCartUpdated, "@RocketShoes:cart", map[string]int{"item_count": 3})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, TopicCartUpdated, event.EventType)
	assert.Equal(t, "@RocketShoes:cart", event.AggregateID)
	assert.Equal(t, AggregateTypeCart, event.AggregateType)
	assert.Equal(t, SourceCartService, event.Source)
	assert.Equal(t, "corr-abc", event.CorrelationID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.JSONEq(t, `{"item_count":3}`, string(event.Data))
}

func TestNewCartEvent_WithoutCorrelationID(t *testing.T) {
	event, err := newCartEvent(context.Background(), TopicCartUpdated, "cart-1", nil)
	require.NoError(t, err)

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correlation_id")
	assert.JSONEq(t, `null`, string(event.Data))
}

func TestNewCartEvent_InvalidPayload(t *testing.T) {
	_, err := newCartEvent(context.Background(), TopicCartUpdated, "cart-1", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal ecommerce.cart.updated payload")
}

func TestNewCartEvent_UniqueIDs(t *testing.T) {
	a, err := newCartEvent(context.Background(), TopicCartUpdated, "cart-1", nil)
	require.NoError(t, err)
	b, err := newCartEvent(context.Background(), TopicCartUpdated, "cart-1", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.EventID, b.EventID)
}
