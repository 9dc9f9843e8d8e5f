package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
	"github.com/utafrali/rocketshoes-cart/internal/logger"
	"github.com/utafrali/rocketshoes-cart/internal/validator"
)

// CartService is the cart store as seen by the HTTP layer.
type CartService interface {
	Cart() domain.Cart
	AddItem(ctx context.Context, productID int) error
	RemoveItem(ctx context.Context, productID int) error
	UpdateItemAmount(ctx context.Context, productID, amount int) error
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// --- Request / response DTOs ---

// UpdateAmountRequest is the JSON body of PUT /api/v1/cart/items/{productId}.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// CartResponse is the cart as returned to clients.
type CartResponse struct {
	Items     []ItemResponse  `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// ItemResponse is one line item with its subtotal. Attributes is the rest of
// the product record as the catalog returned it.
type ItemResponse struct {
	ID         int                        `json:"id"`
	Title      string                     `json:"title"`
	Price      decimal.Decimal            `json:"price"`
	Image      string                     `json:"image"`
	Amount     int                        `json:"amount"`
	Subtotal   decimal.Decimal            `json:"subtotal"`
	Attributes map[string]json.RawMessage `json:"attributes,omitempty"`
}

func newCartResponse(c domain.Cart) CartResponse {
	items := make([]ItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = ItemResponse{
			ID:         item.ID,
			Title:      item.Title,
			Price:      item.Price,
			Image:      item.Image,
			Amount:     item.Amount,
			Subtotal:   item.Subtotal(),
			Attributes: item.Attrs,
		}
	}
	return CartResponse{
		Items:     items,
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(h.service.Cart())})
}

// GetAmounts handles GET /api/v1/cart/amounts
func (h *CartHandler) GetAmounts(w http.ResponseWriter, r *http.Request) {
	amounts := h.service.Cart().Amounts()
	out := make(map[string]int, len(amounts))
	for id, amount := range amounts {
		out[strconv.Itoa(id)] = amount
	}
	writeJSON(w, http.StatusOK, response{Data: out})
}

// AddItem handles POST /api/v1/cart/items/{productId}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.AddItem(r.Context(), productID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(h.service.Cart())})
}

// UpdateItemAmount handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.service.UpdateItemAmount(r.Context(), productID, *req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(h.service.Cart())})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveItem(r.Context(), productID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: newCartResponse(h.service.Cart())})
}

// --- Helpers ---

func productIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil || id <= 0 {
		writeAppError(w, domain.InvalidInput("productId must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		writeAppError(w, appErr)
		return
	}

	logger.FromContext(r.Context(), h.logger).ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	writeJSON(w, domain.HTTPStatus(err), response{
		Error: &errorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
	})
}

func writeAppError(w http.ResponseWriter, appErr *domain.AppError) {
	writeJSON(w, appErr.Status, response{
		Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
	})
}
