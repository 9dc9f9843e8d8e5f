package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// ErrNotFound is returned when the catalog has no record for the requested product.
var ErrNotFound = errors.New("catalog: not found")

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// StatusError is a non-2xx response from the catalog service.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog GET %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("catalog GET %s returned status %d: %s", e.Path, e.Status, e.Body)
}

// Unwrap maps 404 responses onto ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// IsClientError returns true for 4xx responses.
func (e *StatusError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}
