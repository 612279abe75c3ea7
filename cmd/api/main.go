package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/handlers"
	"github.com/pairline/pairline/internal/logging"
	"github.com/pairline/pairline/internal/middleware"
	"github.com/pairline/pairline/internal/observability"
	"github.com/pairline/pairline/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Wire services
	cfg := config.AppConfig
	logger := logging.Logger

	store := services.NewSessionStore(config.MongoDB, cfg, logger)
	broadcaster := services.NewBroadcaster(store, config.Redis, logger)
	limiter := services.NewRateLimiter(config.Redis, cfg.RateLimitMaxAttempts, cfg.RateLimitLockout, logger)
	callStates := services.NewCallStateStore(cfg.CallStateTTL, logger)
	dialer := services.NewDialer(cfg, logger)
	conversation := services.NewConversation(store, limiter, broadcaster, dialer, callStates, cfg, logger)

	handlers.Init(store, broadcaster, conversation)

	// In-process expiry sweep alongside the API
	sweeper := services.NewSweeper(store, cfg.SweepInterval, logger)
	sweeper.Start()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		v1.POST("/sessions", handlers.CreateSession)
		v1.GET("/sessions/:id", handlers.GetSession)
		v1.GET("/sessions/:id/stream", handlers.StreamSession)

		v1.POST("/voice/transcript", handlers.HandleTranscript)
		v1.POST("/voice/status", handlers.HandleDialStatus)
	}

	// Create server with timeouts. WriteTimeout stays unset because the
	// event stream endpoint holds its response open indefinitely.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeper.Stop()
	callStates.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited")
}
