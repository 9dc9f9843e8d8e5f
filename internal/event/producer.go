package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
)

// TopicCartUpdated receives a snapshot of the cart after every mutation.
const TopicCartUpdated = "ecommerce.cart.updated"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartKey   string          `json:"cart_key"`
	Items     []CartItemData  `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// CartItemData is one line item within a cart event.
type CartItemData struct {
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Amount    int             `json:"amount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
}

// Producer publishes cart domain events.
type Producer struct {
	publisher publisher
	cartKey   string
	logger    *slog.Logger
}

// NewProducer creates a cart event producer. cartKey identifies the cart
// as the event aggregate.
func NewProducer(w *Writer, cartKey string, logger *slog.Logger) *Producer {
	return &Producer{publisher: w, cartKey: cartKey, logger: logger}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart domain.Cart) error {
	event, err := newCartEvent(ctx, TopicCartUpdated, p.cartKey, newCartUpdatedData(p.cartKey, cart))
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.publisher.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_key", p.cartKey),
		slog.Int("item_count", cart.ItemCount()),
	)
	return nil
}

func newCartUpdatedData(key string, cart domain.Cart) CartUpdatedData {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ID,
			Title:     item.Title,
			Price:     item.Price,
			Amount:    item.Amount,
			Subtotal:  item.Subtotal(),
		}
	}
	return CartUpdatedData{
		CartKey:   key,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
	}
}
