package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/utafrali/rocketshoes-cart/internal/domain"
)

const maxBodyBytes = 1 << 20

var tracer = otel.Tracer("github.com/utafrali/rocketshoes-cart/internal/catalog")

// Config holds catalog client configuration.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Breaker      BreakerConfig

	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64
	RateBurst int
}

// DefaultConfig returns sensible defaults for the given catalog base URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		Breaker:      DefaultBreakerConfig("catalog"),
	}
}

// Client reads stock levels and product records from the remote catalog
// service. Requests are retried on network errors and 5xx responses and run
// behind a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        Config
	breaker    *gobreaker.CircuitBreaker[[]byte]
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a catalog client.
func New(cfg Config, logger *slog.Logger) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		cfg:     cfg,
		breaker: newBreaker(cfg.Breaker, logger),
		limiter: limiter,
		logger:  logger,
	}
}

// Stock fetches the current stock level of a product.
func (c *Client) Stock(ctx context.Context, productID int) (domain.Stock, error) {
	var stock domain.Stock
	if err := c.getJSON(ctx, "/stock/{id}", productID, &stock); err != nil {
		return domain.Stock{}, fmt.Errorf("get stock %d: %w", productID, err)
	}
	return stock, nil
}

// Product fetches the catalog record of a product.
func (c *Client) Product(ctx context.Context, productID int) (domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, "/products/{id}", productID, &product); err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", productID, err)
	}
	return product, nil
}

// Ready reports an error while the circuit breaker is open.
func (c *Client) Ready(_ context.Context) error {
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("catalog circuit breaker is %s", state)
	}
	return nil
}

// State returns the current circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) getJSON(ctx context.Context, route string, productID int, dst any) error {
	ctx, span := tracer.Start(ctx, "GET "+route)
	defer span.End()
	span.SetAttributes(attribute.Int("product.id", productID))

	path := strings.Replace(route, "{id}", fmt.Sprint(productID), 1)
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// fetch performs a GET with exponential backoff on retryable failures.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			wait := c.cfg.RetryWaitMin * time.Duration(1<<uint(attempt-1))
			if wait > c.cfg.RetryWaitMax {
				wait = c.cfg.RetryWaitMax
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("catalog rate limit: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create GET request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isRetryableError(ctx, err) && attempt < c.cfg.MaxRetries {
				c.logger.DebugContext(ctx, "catalog request failed, retrying",
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.String("error", err.Error()),
				)
				continue
			}
			return nil, fmt.Errorf("GET %s failed after %d attempts: %w", path, attempt+1, err)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", path, err)
		}

		// Retry on 5xx errors (except 501 Not Implemented).
		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented && attempt < c.cfg.MaxRetries {
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	}
}

// isRetryableError reports whether a transport error is worth another attempt.
func isRetryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
