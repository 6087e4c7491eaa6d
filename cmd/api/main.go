package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Adithya-srikar/Medical-chatbot/internal/api/router"
	"github.com/Adithya-srikar/Medical-chatbot/internal/booking"
	"github.com/Adithya-srikar/Medical-chatbot/internal/chat"
	"github.com/Adithya-srikar/Medical-chatbot/internal/config"
	"github.com/Adithya-srikar/Medical-chatbot/internal/http/handlers"
	"github.com/Adithya-srikar/Medical-chatbot/internal/observability/metrics"
	"github.com/Adithya-srikar/Medical-chatbot/internal/webchat"
	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medical-chatbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Session storage: Redis when configured, in-memory otherwise
	var store chat.SessionStore
	if cfg.RedisAddr != "" {
		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(redisOpts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cancel()
		store = chat.NewRedisSessionStore(redisClient, cfg.SessionTTL, cfg.HistoryLimit)
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL)
	} else {
		store = chat.NewMemorySessionStore()
		logger.Info("using in-memory session store")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)

	// Remote booking service client
	bookingClient := booking.NewClient(cfg.BookingAPIBaseURL,
		booking.WithTimeout(cfg.BookingAPITimeout),
		booking.WithLogger(logger),
	)

	// Conversation engine and handlers
	engine := chat.NewEngine(bookingClient, logger, chat.WithMetrics(chatMetrics))
	chatHandler := webchat.NewHandler(engine, store, chatMetrics, logger)
	adminSessions := handlers.NewAdminSessionsHandler(store, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		AdminSessions:      adminSessions,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		RateLimitPerSec:    cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
