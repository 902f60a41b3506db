package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/alertledger/internal/api/handlers"
	"github.com/eshaffer321/alertledger/internal/api/middleware"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	ingester   handlers.Ingester
}

// NewServer creates a new API server.
// If ingester is nil, the alert webhook is not available. If repo is nil, the
// read endpoints are not available.
func NewServer(cfg Config, repo storage.Repository, ingester handlers.Ingester, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   gin.New(),
		logger:   logger,
		repo:     repo,
		ingester: ingester,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	// CORS
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger, "/health"))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Get)

	api := s.router.Group("/api")

	// Alert webhook
	if s.ingester != nil {
		alertsHandler := handlers.NewAlertsHandler(s.ingester, s.logger)
		api.POST("/alerts", alertsHandler.Create)
	}

	if s.repo == nil {
		return
	}

	// Stored rows
	rowsHandler := handlers.NewRowsHandler(s.repo)
	api.GET("/rows", rowsHandler.List)

	// Ingest runs
	runsHandler := handlers.NewRunsHandler(s.repo)
	api.GET("/runs", runsHandler.List)
	api.GET("/runs/:id", runsHandler.Get)

	// Stats
	statsHandler := handlers.NewStatsHandler(s.repo)
	api.GET("/stats", statsHandler.Get)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
