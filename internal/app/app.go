// Package app wires together all dependencies and runs the storefront server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ekaraca/storefront/internal/auth"
	"github.com/ekaraca/storefront/internal/config"
	"github.com/ekaraca/storefront/internal/event"
	"github.com/ekaraca/storefront/internal/gateway"
	gatewaymock "github.com/ekaraca/storefront/internal/gateway/mock"
	"github.com/ekaraca/storefront/internal/gateway/razorpay"
	handler "github.com/ekaraca/storefront/internal/handler/http"
	"github.com/ekaraca/storefront/internal/migrations"
	"github.com/ekaraca/storefront/internal/repository/postgres"
	redisrepo "github.com/ekaraca/storefront/internal/repository/redis"
	"github.com/ekaraca/storefront/internal/service"
	"github.com/ekaraca/storefront/pkg/database"
	"github.com/ekaraca/storefront/pkg/health"
	"github.com/ekaraca/storefront/pkg/httpclient"
	pkgkafka "github.com/ekaraca/storefront/pkg/kafka"
	"github.com/ekaraca/storefront/pkg/middleware"
	"github.com/ekaraca/storefront/pkg/tracing"
)

// App holds the long-lived resources of a running server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates the application, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:     cfg.OTELEnabled,
		ServiceName: "storefront",
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "storefront")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Kafka is optional; without it order events are dropped with a log line.
	var producer *pkgkafka.Producer
	events := event.Publisher(event.NoopPublisher{})
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, logger)
		events = event.NewPublisher(producer, logger)
		logger.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	}

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)
	cartRepo := redisrepo.NewCartRepository(redisClient)
	productCache := redisrepo.NewProductCache(redisClient, 5*time.Minute)

	catalogSvc := service.NewCatalogService(productRepo, productCache, logger)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo, productCache, logger)
	orderSvc := service.NewOrderService(orderRepo, productRepo, productCache, events, cfg.Currency, logger)
	paymentSvc := service.NewPaymentService(orderSvc, orderRepo, gw, events, logger)
	cartSvc := service.NewCartService(cartRepo, productRepo, logger)
	favoriteSvc := service.NewFavoriteService(favoriteRepo, productRepo, logger)

	healthHandler := health.NewHandler(2 * time.Second)
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		ServiceName:    "storefront",
		Products:       handler.NewProductHandler(catalogSvc, reviewSvc, logger),
		Orders:         handler.NewOrderHandler(orderSvc, paymentSvc, logger),
		Cart:           handler.NewCartHandler(cartSvc, logger),
		Favorites:      handler.NewFavoriteHandler(favoriteSvc, logger),
		Health:         healthHandler,
		TokenValidator: auth.NewValidator(cfg.JWTSecret).Middleware(),
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitPerSecond,
			Burst:             cfg.RateLimitBurst,
			TTL:               3 * time.Minute,
		},
		RequestTimeout: cfg.RequestTimeout(),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// buildGateway selects the payment gateway implementation from configuration.
func buildGateway(cfg *config.Config, logger *slog.Logger) (gateway.Gateway, error) {
	switch cfg.GatewayProvider {
	case "razorpay":
		client := httpclient.New(httpclient.DefaultConfig())
		breaker := httpclient.NewBreakerClient(client, httpclient.CircuitBreakerConfig{
			Name: "razorpay",
		}, nil)
		return razorpay.New(razorpay.Config{
			KeyID:     cfg.GatewayKeyID,
			KeySecret: cfg.GatewayKeySecret,
			BaseURL:   cfg.GatewayBaseURL,
		}, breaker), nil
	case "mock":
		logger.Warn("using mock payment gateway, not suitable for production")
		return gatewaymock.New("key_mock", "mock_secret"), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.GatewayProvider)
	}
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
		return err
	}

	return a.Shutdown()
}

// Shutdown stops all components in order: drain HTTP, flush spans, close the
// Kafka producer, then the data stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGrace())
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
