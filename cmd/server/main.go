package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/api"
	"github.com/medflowai/medflow-api/internal/cache"
	"github.com/medflowai/medflow-api/internal/config"
	"github.com/medflowai/medflow-api/internal/database"
	"github.com/medflowai/medflow-api/internal/email"
	"github.com/medflowai/medflow-api/internal/repository"
	"github.com/medflowai/medflow-api/internal/service"
	"github.com/medflowai/medflow-api/pkg/external"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	dynamoClient, err := database.NewDynamoClient(ctx, cfg.DynamoDB, logger)
	if err != nil {
		logger.Fatalf("Failed to create DynamoDB client: %v", err)
	}
	if cfg.DynamoDB.EnsureTable {
		if err := database.EnsureTable(ctx, dynamoClient, cfg.DynamoDB, logger); err != nil {
			logger.Fatalf("Failed to ensure DynamoDB table: %v", err)
		}
	}

	var store repository.Store = repository.NewDynamoStore(
		dynamoClient, cfg.DynamoDB.TableName, cfg.DynamoDB.IndexName, logger)

	// Optional read cache over the immutable records
	if cfg.Cache.Enabled {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			logger.Fatalf("Invalid redis URL: %v", err)
		}
		store, err = cache.NewPredictionCache(store, cache.Config{
			MaxItems:    cfg.Cache.MaxItems,
			TTL:         cfg.Cache.TTL,
			RedisClient: redis.NewClient(opts),
		}, logger)
		if err != nil {
			logger.Fatalf("Failed to create prediction cache: %v", err)
		}
	}

	// Upstreams
	inferenceClient := external.NewInferenceClient(external.InferenceConfig{
		BaseURL:   cfg.Inference.BaseURL,
		Timeout:   cfg.Inference.Timeout,
		RateLimit: cfg.Inference.RateLimit,
	})

	sesClient, err := email.NewSESClient(ctx, cfg.Email)
	if err != nil {
		logger.Fatalf("Failed to create SES client: %v", err)
	}
	sender := email.NewSESSender(sesClient, cfg.Email, logger)

	// HTTP server
	server := api.NewServer(
		cfg,
		service.NewPredictionService(store, logger),
		service.NewInferenceService(inferenceClient, logger),
		sender,
		logger,
	)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting MedFlow API server")

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
