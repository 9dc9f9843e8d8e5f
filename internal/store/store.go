// Package store holds the shopper's cart in memory and mirrors it into a
// persisted slot after every successful mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
	"github.com/utafrali/rocketshoes-cart/internal/logger"
	"github.com/utafrali/rocketshoes-cart/internal/slot"
)

const (
	opAdd    = "add_item"
	opRemove = "remove_item"
	opUpdate = "update_item_amount"
)

var tracer = otel.Tracer("github.com/utafrali/rocketshoes-cart/internal/store")

// Catalog is the remote catalog and stock service.
type Catalog interface {
	Stock(ctx context.Context, productID int) (domain.Stock, error)
	Product(ctx context.Context, productID int) (domain.Product, error)
}

// Publisher announces cart changes to other services.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart domain.Cart) error
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier replaces the default logging notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithPublisher publishes a cart.updated event after every successful mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithSerializedMutations runs mutations one at a time, from the snapshot
// read through the remote calls to the write-back. Without it, overlapping
// mutations each work on the snapshot taken when they started and the last
// write wins.
func WithSerializedMutations() Option {
	return func(s *Store) { s.serialize = true }
}

// Store is the cart state container.
type Store struct {
	// mu guards cart and orders slot writes with the in-memory swap.
	mu   sync.RWMutex
	cart domain.Cart

	opMu      sync.Mutex
	serialize bool

	slot      slot.Slot
	catalog   Catalog
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
}

// New loads the persisted cart from s, or starts empty when the slot has
// never been written.
func New(ctx context.Context, s slot.Slot, catalog Catalog, logger *slog.Logger, opts ...Option) (*Store, error) {
	st := &Store{
		slot:     s,
		catalog:  catalog,
		notifier: NewLogNotifier(logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(st)
	}

	cart, err := load(ctx, s)
	if err != nil {
		return nil, err
	}
	st.cart = cart

	logger.InfoContext(ctx, "cart loaded",
		slog.Int("items", len(cart.Items)),
		slog.Int("units", cart.ItemCount()),
		slog.Bool("serialized_mutations", st.serialize),
	)
	return st, nil
}

func load(ctx context.Context, s slot.Slot) (domain.Cart, error) {
	data, err := s.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Cart{Items: []domain.LineItem{}}, nil
		}
		return domain.Cart{}, fmt.Errorf("load cart slot: %w", err)
	}

	cart, err := domain.DecodeCart(data)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart slot: %w", err)
	}
	return cart, nil
}

// Cart returns a snapshot of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// AddItem adds one unit of the product, fetching its catalog record when it
// is not in the cart yet.
func (s *Store) AddItem(ctx context.Context, productID int) (err error) {
	ctx, span := s.startSpan(ctx, opAdd, productID)
	defer func() { s.finish(ctx, span, opAdd, productID, err) }()

	unlock := s.lockOperation()
	defer unlock()

	updated := s.Cart()
	idx := updated.FindItemIndex(productID)

	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return domain.RemoteFailure(domain.NoticeAddFailed, err)
	}

	current := 0
	if idx >= 0 {
		current = updated.Items[idx].Amount
	}
	amount := current + 1
	if amount > stock.Amount {
		return domain.StockExceeded(productID, amount, stock.Amount)
	}

	if idx >= 0 {
		updated.Items[idx].Amount = amount
	} else {
		product, err := s.catalog.Product(ctx, productID)
		if err != nil {
			return domain.RemoteFailure(domain.NoticeAddFailed, err)
		}
		item := domain.NewLineItem(product, 1)
		item.ID = productID
		updated.Items = append(updated.Items, item)
	}

	return s.commit(ctx, updated, domain.NoticeAddFailed)
}

// RemoveItem drops the product from the cart. It never calls the catalog.
func (s *Store) RemoveItem(ctx context.Context, productID int) (err error) {
	ctx, span := s.startSpan(ctx, opRemove, productID)
	defer func() { s.finish(ctx, span, opRemove, productID, err) }()

	unlock := s.lockOperation()
	defer unlock()

	updated := s.Cart()
	idx := updated.FindItemIndex(productID)
	if idx < 0 {
		return domain.ItemNotFound(domain.NoticeRemoveFailed, productID)
	}
	updated.Items = append(updated.Items[:idx], updated.Items[idx+1:]...)

	return s.commit(ctx, updated, domain.NoticeRemoveFailed)
}

// UpdateItemAmount sets the quantity of a product already in the cart.
// Amounts of zero or less are ignored.
func (s *Store) UpdateItemAmount(ctx context.Context, productID, amount int) (err error) {
	if amount <= 0 {
		operationsTotal.WithLabelValues(opUpdate, "noop").Inc()
		return nil
	}

	ctx, span := s.startSpan(ctx, opUpdate, productID)
	span.SetAttributes(attribute.Int("cart.amount", amount))
	defer func() { s.finish(ctx, span, opUpdate, productID, err) }()

	unlock := s.lockOperation()
	defer unlock()

	updated := s.Cart()

	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return domain.RemoteFailure(domain.NoticeUpdateFailed, err)
	}
	if amount > stock.Amount {
		return domain.StockExceeded(productID, amount, stock.Amount)
	}

	idx := updated.FindItemIndex(productID)
	if idx < 0 {
		return domain.ItemNotFound(domain.NoticeUpdateFailed, productID)
	}
	updated.Items[idx].Amount = amount

	return s.commit(ctx, updated, domain.NoticeUpdateFailed)
}

// commit writes the whole cart to the slot and only then makes it current.
func (s *Store) commit(ctx context.Context, updated domain.Cart, notice string) error {
	data, err := domain.EncodeCart(updated)
	if err != nil {
		return domain.PersistFailure(notice, err)
	}

	s.mu.Lock()
	if err := s.slot.Save(ctx, data); err != nil {
		s.mu.Unlock()
		return domain.PersistFailure(notice, err)
	}
	s.cart = updated
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishCartUpdated(ctx, updated.Clone()); err != nil {
			logger.WithContext(ctx, s.logger).ErrorContext(ctx, "failed to publish cart.updated event",
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (s *Store) lockOperation() func() {
	if !s.serialize {
		return func() {}
	}
	s.opMu.Lock()
	return s.opMu.Unlock
}

func (s *Store) startSpan(ctx context.Context, op string, productID int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "cart."+op, trace.WithAttributes(attribute.Int("product.id", productID)))
}

func (s *Store) finish(ctx context.Context, span trace.Span, op string, productID int, err error) {
	defer span.End()

	log := logger.WithContext(ctx, s.logger)
	if err == nil {
		operationsTotal.WithLabelValues(op, "ok").Inc()
		log.InfoContext(ctx, "cart updated",
			slog.String("operation", op),
			slog.Int("product_id", productID),
		)
		return
	}

	notice := Notice{Code: "INTERNAL_ERROR", Message: err.Error()}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		notice = Notice{Code: appErr.Code, Message: appErr.Message}
	}

	operationsTotal.WithLabelValues(op, strings.ToLower(notice.Code)).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, notice.Code)

	log.WarnContext(ctx, "cart operation failed",
		slog.String("operation", op),
		slog.Int("product_id", productID),
		slog.String("code", notice.Code),
		slog.String("error", err.Error()),
	)
	s.notifier.Notify(ctx, notice)
}
