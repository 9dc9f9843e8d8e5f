package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the cart failure kinds.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStockExceeded  = errors.New("stock exceeded")
	ErrRemoteFailure  = errors.New("remote failure")
	ErrPersistFailure = errors.New("persist failure")
)

// Notice texts shown to the shopper when an operation fails.
const (
	NoticeOutOfStock   = "requested quantity is out of stock"
	NoticeAddFailed    = "failed to add product"
	NoticeRemoveFailed = "failed to remove product"
	NoticeUpdateFailed = "failed to update product quantity"
)

// AppError represents a structured application error with HTTP status mapping.
// Message is safe to show to the shopper.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StockExceeded creates a 409 error for a quantity above the remote stock.
func StockExceeded(productID, requested, available int) *AppError {
	return &AppError{
		Code:    "OUT_OF_STOCK",
		Message: NoticeOutOfStock,
		Status:  http.StatusConflict,
		Err: fmt.Errorf("%w: product %d requested %d, available %d",
			ErrStockExceeded, productID, requested, available),
	}
}

// ItemNotFound creates a 404 error for a product that is not in the cart.
func ItemNotFound(notice string, productID int) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: notice,
		Status:  http.StatusNotFound,
		Err:     fmt.Errorf("%w: product %d is not in the cart", ErrNotFound, productID),
	}
}

// NotFound creates a 404 error for a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// RemoteFailure creates a 502 error for a failed catalog or stock call.
func RemoteFailure(notice string, cause error) *AppError {
	return &AppError{
		Code:    "REMOTE_FAILURE",
		Message: notice,
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrRemoteFailure, cause),
	}
}

// PersistFailure creates a 500 error for a failed slot write.
func PersistFailure(notice string, cause error) *AppError {
	return &AppError{
		Code:    "PERSIST_FAILED",
		Message: notice,
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf("%w: %w", ErrPersistFailure, cause),
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStockExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
