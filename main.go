package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planify/booking-service/internal/handler"
	"github.com/planify/booking-service/internal/metrics"
	"github.com/planify/booking-service/internal/repository"
	"github.com/planify/booking-service/internal/resilience"
	"github.com/planify/booking-service/internal/service"
	"github.com/planify/booking-service/pkg/config"
	"github.com/planify/booking-service/pkg/database"
	"github.com/planify/booking-service/pkg/logger"
	"github.com/planify/booking-service/pkg/middleware"
	"github.com/planify/booking-service/pkg/redis"
	"github.com/planify/booking-service/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	// Redis backs request idempotency only; the service still boots without it.
	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Warn("redis unavailable, idempotency protection disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Event delivery is best-effort; without a broker the service runs with
	// publication disabled.
	var publisher service.EventPublisher
	kafkaPublisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
		Brokers:      cfg.Kafka.Brokers,
		CreatedTopic: cfg.Kafka.BookingCreatedTopic,
		EventsTopic:  cfg.Kafka.BookingEventsTopic,
		ServiceName:  cfg.App.Name,
		ClientID:     cfg.Kafka.ClientID,
	})
	if err != nil {
		log.Warn("kafka unavailable, event publication disabled", zap.Error(err))
		publisher = service.NewNoOpEventPublisher()
	} else {
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	}

	availabilityPolicy := resilience.NewPolicy("availability", toPolicyConfig(cfg.Resilience.Availability))
	creationPolicy := resilience.NewPolicy("bookingCreation", toPolicyConfig(cfg.Resilience.BookingCreation))
	cancelPolicy := resilience.NewPolicy("bookingCancellation", toPolicyConfig(cfg.Resilience.BookingCancellation))

	bookingRepo := repository.NewPostgresBookingRepository(db.Pool())
	locationRepo := repository.NewPostgresLocationRepository(db.Pool())
	m := metrics.New()

	availabilityService := service.NewAvailabilityService(bookingRepo, availabilityPolicy, m)
	bookingService := service.NewBookingService(
		bookingRepo,
		locationRepo,
		publisher,
		creationPolicy,
		cancelPolicy,
		m,
		service.BookingServiceConfig{DefaultCurrency: cfg.Booking.DefaultCurrency},
	)
	locationService := service.NewLocationService(locationRepo)

	router := buildRouter(cfg, db, redisClient, bookingService, availabilityService, locationService)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("starting booking service",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func buildRouter(
	cfg *config.Config,
	db *database.PostgresDB,
	redisClient *redis.Client,
	bookingService service.BookingService,
	availabilityService service.AvailabilityService,
	locationService service.LocationService,
) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))

	healthChecks := map[string]handler.HealthChecker{"postgres": db}
	if redisClient != nil {
		healthChecks["redis"] = redisClient
	}
	healthHandler := handler.NewHealthHandler(healthChecks)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)

	bookingHandler := handler.NewBookingHandler(bookingService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	locationHandler := handler.NewLocationHandler(locationService)

	api := router.Group("/api")
	{
		create := api.Group("/bookings")
		if redisClient != nil {
			create.Use(middleware.Idempotency(middleware.DefaultIdempotencyConfig(redisClient.Client())))
		}
		create.POST("", bookingHandler.Create)

		api.GET("/bookings/:id", bookingHandler.Get)
		api.POST("/bookings/:id/cancel", bookingHandler.Cancel)

		api.GET("/booking/:locationId/availability", availabilityHandler.Check)

		api.GET("/locations", locationHandler.List)
		api.GET("/locations/:id", locationHandler.Get)
	}

	return router
}

func toPolicyConfig(pc config.PolicyConfig) resilience.PolicyConfig {
	return resilience.PolicyConfig{
		Retry: resilience.RetryConfig{
			MaxRetries:      pc.Retry.MaxRetries,
			InitialInterval: pc.Retry.InitialInterval,
			MaxInterval:     pc.Retry.MaxInterval,
			Multiplier:      pc.Retry.Multiplier,
			JitterFactor:    pc.Retry.JitterFactor,
		},
		Breaker: resilience.BreakerConfig{
			FailureRateThreshold: pc.Breaker.FailureRateThreshold,
			MinRequests:          pc.Breaker.MinRequests,
			Interval:             pc.Breaker.Interval,
			OpenTimeout:          pc.Breaker.OpenTimeout,
			HalfOpenMaxCalls:     pc.Breaker.HalfOpenMaxCalls,
		},
		Bulkhead: resilience.BulkheadConfig{
			MaxConcurrent: pc.Bulkhead.MaxConcurrent,
		},
	}
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}
