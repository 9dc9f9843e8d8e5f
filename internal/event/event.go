package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/rocketshoes-cart/internal/logger"
)

const (
	AggregateTypeCart = "cart"
	SourceCartService = "cart-service"

	envelopeVersion = 1
)

// Event is the envelope the cart service writes to Kafka. AggregateID is the
// cart slot key and is also used as the message key.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// newCartEvent wraps payload in an envelope for the cart stored under
// cartKey. The correlation ID is taken from ctx.
func newCartEvent(ctx context.Context, eventType, cartKey string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateID:   cartKey,
		AggregateType: AggregateTypeCart,
		Version:       envelopeVersion,
		Timestamp:     time.Now().UTC(),
		Source:        SourceCartService,
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Data:          data,
	}, nil
}
