package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"gorm.io/gorm"

	_ "github.com/tair/product-catalog/docs"
	"github.com/tair/product-catalog/internal/catalog"
	catalogcache "github.com/tair/product-catalog/internal/catalog/cache"
	httpDelivery "github.com/tair/product-catalog/internal/catalog/delivery/http"
	"github.com/tair/product-catalog/internal/catalog/events"
	"github.com/tair/product-catalog/internal/catalog/notify"
	"github.com/tair/product-catalog/internal/catalog/repository"
	"github.com/tair/product-catalog/internal/catalog/usecase/command"
	"github.com/tair/product-catalog/kafka"
	"github.com/tair/product-catalog/pkg/auth"
	"github.com/tair/product-catalog/pkg/authz"
	gateway "github.com/tair/product-catalog/pkg/cache"
	"github.com/tair/product-catalog/pkg/config"
	"github.com/tair/product-catalog/pkg/database"
	"github.com/tair/product-catalog/pkg/logger"
	"github.com/tair/product-catalog/pkg/tracing"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		ServiceName: cfg.Service.Name,
		Development: cfg.Service.IsDevelopment(),
		Level:       cfg.Service.LogLevel,
	})

	logger.Logger.Info().
		Str("service", cfg.Service.Name).
		Str("environment", cfg.Service.Environment).
		Str("log_level", cfg.Service.LogLevel).
		Str("storage", cfg.Database.Driver).
		Msg("Starting catalog service")

	shutdownTracer, err := tracing.Init(cfg.Service.Name, cfg.Tracing.JaegerEndpoint, cfg.Tracing.Enabled)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	auth.Configure(cfg.JWT.Secret)

	checks := make(map[string]httpDelivery.HealthCheck)

	repos, closeDB := openRepositories(cfg, checks)
	defer closeDB()

	// Redis backs both the response cache and the rate limiter. Without it the service
	// runs uncached and unlimited.
	var (
		gw      gateway.Gateway = gateway.Nop{}
		limiter *httpDelivery.RateLimiter
	)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, caching and rate limiting disabled")
	} else {
		gw = gateway.NewRedisCache(redisClient)
		limiter = httpDelivery.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		logger.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected")
	}
	cancelPing()

	// Event fan-out: websocket clients always, Kafka when enabled
	hub := notify.NewHub(cfg.Websocket.AllowedOrigins...)
	defer hub.Close()
	subscribers := []events.Subscriber{hub}

	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled {
		publisher, err = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to create Kafka publisher, continuing without it")
		} else {
			defer publisher.Close()
			subscribers = append(subscribers, events.NewBreaker(publisher, 5, 30*time.Second))
		}
	}
	bus := events.NewBus(subscribers...)

	guard := httpDelivery.NewGuard(authz.NewEvaluator(), limiter)
	ttl := catalogcache.TTL{Item: cfg.Cache.ItemTTL, List: cfg.Cache.ListTTL}

	handlers, err := catalog.InitializeHandlers(repos, gw, ttl, bus, guard)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handlers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.Enabled {
		consumer := startPurchaseConsumer(ctx, cfg.Kafka, handlers.AdjustStock)
		if consumer != nil {
			defer consumer.Close()
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           buildRouter(cfg, handlers, hub, checks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTP.Port).
			Str("metrics_endpoint", "/metrics").
			Str("websocket_endpoint", "/ws").
			Msg("HTTP server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// openRepositories selects the storage driver. In postgres mode it migrates the schema and
// registers a database health check.
func openRepositories(cfg *config.Config, checks map[string]httpDelivery.HealthCheck) (catalog.Repositories, func()) {
	if cfg.Database.Driver == config.StorageMemory {
		logger.Logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		return catalog.ProvideMemoryRepositories(), func() {}
	}

	db, err := database.NewGormConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}

	if err := migrate(db); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	checks["database"] = func(ctx context.Context) error { return sqlDB.PingContext(ctx) }
	return catalog.ProvideGormRepositories(db), func() { sqlDB.Close() }
}

func migrate(db *gorm.DB) error {
	return repository.NewGormCategoryRepository(db).AutoMigrate()
}

func startPurchaseConsumer(ctx context.Context, cfg config.KafkaConfig, adjust *command.AdjustStockHandler) *kafka.Consumer {
	consumer, err := kafka.NewConsumer(cfg.Brokers, cfg.GroupID, []string{cfg.PurchaseTopic})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to create Kafka consumer, purchases will not reduce stock")
		return nil
	}

	consumer.RegisterHandler(kafka.EventTypeProductPurchased, kafka.PurchaseHandler(func(ctx context.Context, productID string, delta int) error {
		_, err := adjust.Handle(ctx, command.AdjustStockCommand{ProductID: productID, Delta: delta})
		return err
	}))

	consumer.Start(ctx)
	return consumer
}

func buildRouter(cfg *config.Config, handlers *catalog.Handlers, hub *notify.Hub, checks map[string]httpDelivery.HealthCheck) http.Handler {
	router := mux.NewRouter()

	middlewareConfig := httpDelivery.DefaultMiddlewareConfig(cfg.HTTP.RequestTimeout)
	middlewareConfig.EnableTracing = cfg.Tracing.Enabled
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	handlers.RegisterRoutes(router)
	httpDelivery.RegisterHealthCheck(router, checks)
	router.Handle("/metrics", promhttp.Handler())
	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// The websocket endpoint needs the raw connection, so it bypasses the buffering
	// timeout and response wrappers of the API middleware chain.
	root := http.NewServeMux()
	root.Handle("/ws", hub)
	root.Handle("/", httpDelivery.SetupCORS(middlewareConfig)(router))
	return root
}
