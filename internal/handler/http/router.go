package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/rocketshoes-cart/internal/health"
	"github.com/utafrali/rocketshoes-cart/internal/middleware"
)

const serviceName = "cart"

// NewRouter creates a chi router with all cart routes registered.
func NewRouter(svc CartService, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(svc, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Get("/", cartHandler.GetCart)
		r.Get("/amounts", cartHandler.GetAmounts)

		r.Post("/items/{productId}", cartHandler.AddItem)
		r.Put("/items/{productId}", cartHandler.UpdateItemAmount)
		r.Delete("/items/{productId}", cartHandler.RemoveItem)
	})

	return r
}
