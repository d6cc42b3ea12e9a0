// Package api exposes the HTTP surface of the MedFlow prediction API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
	"github.com/medflowai/medflow-api/internal/email"
	"github.com/medflowai/medflow-api/internal/middleware"
	"github.com/medflowai/medflow-api/internal/service"
)

// Server represents the HTTP server
type Server struct {
	cfg         *domain.Config
	predictions *service.PredictionService
	inference   *service.InferenceService
	email       email.Sender
	router      *gin.Engine
	server      *http.Server
	log         *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *domain.Config,
	predictions *service.PredictionService,
	inference *service.InferenceService,
	sender email.Sender,
	logger *logrus.Logger,
) *Server {
	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(middleware.SetupCORS(cfg.CORS))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())

	server := &Server{
		cfg:         cfg,
		predictions: predictions,
		inference:   inference,
		email:       sender,
		router:      router,
		log:         logger,
	}

	server.setupRoutes()

	return server
}

// Router exposes the underlying gin engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	auth := middleware.RequireAuth(s.cfg.Auth)

	predictions := s.router.Group("/predictions", auth)
	{
		predictions.POST("", s.handleCreatePrediction)
		predictions.GET("/:userId", s.handleListPredictions)
		predictions.GET("/:userId/:predictionId", s.handleGetPrediction)
	}

	model := s.router.Group("/model", auth)
	{
		model.GET("/test", s.handleModelTest)
		model.POST("/sendData", s.handleSendData)
	}

	s.router.POST("/sendEmail", s.handleSendEmail)
}

// handleHealth handles liveness probes
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
