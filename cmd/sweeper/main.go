package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/logging"
	"github.com/pairline/pairline/internal/services"
)

// Standalone expiry sweeper for deployments that run the API with the
// in-process sweep disabled, or that want sweeping isolated from request
// serving.
func main() {
	// Initialize logging
	if err := logging.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logging.Logger.Info("Starting pairline sweeper")

	// Initialize MongoDB
	config.InitMongoDB()
	if config.MongoDB == nil {
		log.Fatal("Failed to initialize MongoDB")
	}

	store := services.NewSessionStore(config.MongoDB, config.AppConfig, logging.Logger)
	sweeper := services.NewSweeper(store, config.AppConfig.SweepInterval, logging.Logger)
	sweeper.Start()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logging.Logger.Info("Shutdown signal received")

	sweeper.Stop()

	logging.Logger.Info("pairline sweeper stopped")
}
