package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kleihaven/api/routes"
	"kleihaven/internal/notifications"
	"kleihaven/internal/payments"
	"kleihaven/internal/shared/config"
	"kleihaven/internal/shared/database"
	"kleihaven/pkg/cache"
	"kleihaven/pkg/logger"
	"kleihaven/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	cacheService := cache.NewService(db.GetRedisClient())

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Payment gateway client
	gateway := payments.NewClient(cfg.Payment)

	// Notification pipeline: producer feeds the topic, consumer workers
	// deliver the emails. The API keeps working when Kafka is down; booking
	// confirmations are then logged instead of sent.
	dispatcher, stopNotifications := setupNotifications(cfg, appLogger)
	defer stopNotifications()

	// Setup router with rate limiter
	router := setupRouter(cfg, db, cacheService, gateway, dispatcher, rateLimiter)

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_status", fmt.Sprintf("http://localhost:%s%s/status", cfg.Port, cfg.GetAPIBasePath())),
			slog.String("version", cfg.APIVersion),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

// setupNotifications wires the Kafka producer, the email consumer workers and
// the dispatcher. Any piece failing to start degrades to a logging dispatcher
// instead of taking the API down.
func setupNotifications(cfg *config.Config, appLogger *logger.Logger) (notifications.Dispatcher, func()) {
	noop := func() {}

	producer, err := notifications.NewKafkaProducer(notifications.NewKafkaProducerConfig(cfg.Kafka))
	if err != nil {
		appLogger.Error("Failed to initialize notification producer", slog.Any("error", err))
		appLogger.Info("Continuing without notification pipeline")
		return notifications.NewDispatcher(nil, cfg.Email.OwnerEmail, appLogger), noop
	}

	dispatcher := notifications.NewDispatcher(producer, cfg.Email.OwnerEmail, appLogger)

	emailService, err := notifications.NewSMTPEmailService(notifications.NewSMTPConfig(cfg.Email))
	if err != nil {
		appLogger.Error("Failed to initialize email service", slog.Any("error", err))
		appLogger.Info("Continuing without email workers, notifications stay queued")
		return dispatcher, func() {
			if err := producer.Close(); err != nil {
				appLogger.Error("Error closing notification producer", slog.Any("error", err))
			}
		}
	}

	consumer, err := notifications.NewKafkaConsumer(notifications.NewConsumerConfig(cfg.Kafka), emailService, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize notification consumer", slog.Any("error", err))
		return dispatcher, func() {
			if err := producer.Close(); err != nil {
				appLogger.Error("Error closing notification producer", slog.Any("error", err))
			}
		}
	}

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(consumerCtx, cfg.Kafka.ConsumerWorkers); err != nil {
			appLogger.Error("Failed to start notification consumer", slog.Any("error", err))
		}
	}()
	appLogger.Info("Notification pipeline started",
		slog.Int("workers", cfg.Kafka.ConsumerWorkers),
		slog.String("topic", cfg.Kafka.NotificationTopic),
	)

	return dispatcher, func() {
		appLogger.Info("Stopping notification pipeline...")
		cancelConsumer()
		if err := consumer.Stop(); err != nil {
			appLogger.Error("Error stopping notification consumer", slog.Any("error", err))
		}
		if err := producer.Close(); err != nil {
			appLogger.Error("Error closing notification producer", slog.Any("error", err))
		}
	}
}

func setupRouter(cfg *config.Config, db *database.DB, cacheService cache.Service, gateway payments.Gateway, dispatcher notifications.Dispatcher, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true // allow every origin dynamically
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Scheduler-Token"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	// Initialize and setup routes
	appRouter := routes.NewRouter(cfg, db, cacheService, gateway, dispatcher, appLogger)
	appRouter.SetupRoutes(engine)

	return engine
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
