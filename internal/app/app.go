package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/rocketshoes-cart/internal/catalog"
	"github.com/utafrali/rocketshoes-cart/internal/config"
	"github.com/utafrali/rocketshoes-cart/internal/event"
	handler "github.com/utafrali/rocketshoes-cart/internal/handler/http"
	"github.com/utafrali/rocketshoes-cart/internal/health"
	"github.com/utafrali/rocketshoes-cart/internal/slot"
	"github.com/utafrali/rocketshoes-cart/internal/slot/memory"
	pgslot "github.com/utafrali/rocketshoes-cart/internal/slot/postgres"
	redisslot "github.com/utafrali/rocketshoes-cart/internal/slot/redis"
	"github.com/utafrali/rocketshoes-cart/internal/store"
	"github.com/utafrali/rocketshoes-cart/internal/tracing"
)

// ServiceName identifies the service in logs, traces and events.
const ServiceName = "cart-service"

// initTracer is replaced in tests.
var initTracer = tracing.InitTracer

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *store.Store
	closers        []closer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

type closer struct {
	name  string
	close func() error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	cartSlot, err := a.openSlot(ctx)
	if err != nil {
		a.release()
		return nil, err
	}

	catalogCfg := catalog.DefaultConfig(cfg.CatalogBaseURL)
	catalogCfg.Timeout = cfg.CatalogTimeout
	catalogCfg.MaxRetries = cfg.CatalogMaxRetries
	catalogCfg.RateLimit = cfg.CatalogRateLimit
	catalogCfg.RateBurst = cfg.CatalogRateBurst
	catalogClient := catalog.New(catalogCfg, logger)

	opts := []store.Option{store.WithNotifier(store.NewLogNotifier(logger))}
	if cfg.SerializeMutations {
		opts = append(opts, store.WithSerializedMutations())
	}
	if cfg.EventsEnabled() {
		writer := event.NewWriter(event.DefaultWriterConfig(cfg.KafkaBrokers), logger)
		a.closers = append(a.closers, closer{name: "kafka writer", close: writer.Close})
		opts = append(opts, store.WithPublisher(event.NewProducer(writer, cfg.SlotKey, logger)))
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("cart events disabled, no kafka brokers configured")
	}

	st, err := store.New(ctx, cartSlot, catalogClient, logger, opts...)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("init cart store: %w", err)
	}
	a.store = st

	healthHandler := health.NewHandler()
	healthHandler.Register("slot", cartSlot.Ping)
	healthHandler.Register("catalog", catalogClient.Ready)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler.NewRouter(st, healthHandler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openSlot connects the configured slot backend.
func (a *App) openSlot(ctx context.Context) (slot.Slot, error) {
	cfg := a.cfg

	switch cfg.SlotBackend {
	case config.SlotBackendMemory:
		a.logger.Warn("using in-memory cart slot, the cart is lost on restart")
		return memory.NewSlot(cfg.SlotKey), nil

	case config.SlotBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, closer{name: "redis", close: rdb.Close})
		a.logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return redisslot.NewSlot(rdb, cfg.SlotKey, cfg.SlotTTL), nil

	case config.SlotBackendPostgres:
		pool, err := pgslot.Connect(ctx, cfg.PostgresDSN, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer{name: "postgres", close: func() error {
			pool.Close()
			return nil
		}})
		if err := pgslot.RunMigrations(ctx, pool, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return pgslot.NewSlot(pool, cfg.SlotKey), nil

	default:
		return nil, fmt.Errorf("unknown slot backend %q", cfg.SlotBackend)
	}
}

// Handler returns the HTTP handler serving the cart API.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.release()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeAll()
	a.shutdownTracer(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return nil
}

// release closes connections and flushes the tracer outside a graceful shutdown.
func (a *App) release() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.closeAll()
	a.shutdownTracer(ctx)
}

func (a *App) shutdownTracer(ctx context.Context) {
	if a.tracerShutdown == nil {
		return
	}
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
	a.tracerShutdown = nil
}

// closeAll releases connections in reverse order of creation.
func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error(c.name+" close error", slog.String("error", err.Error()))
		}
	}
	a.closers = nil
}
