package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/alertledger/internal/api"
	"github.com/eshaffer321/alertledger/internal/clients"
	"github.com/eshaffer321/alertledger/internal/infrastructure/config"
	"github.com/eshaffer321/alertledger/internal/infrastructure/logging"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 30 * time.Second

// RunServe runs the API server until ctx is cancelled.
func RunServe(ctx context.Context, cfg *config.Config, flags ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	if flags.Port != 0 {
		cfg.Server.Port = flags.Port
	}

	// Initialize rule source, storage and ingest service
	svc, err := clients.NewClients(cfg, logger, clients.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	// Create API config
	apiCfg := api.DefaultConfig()
	apiCfg.Port = cfg.Server.Port
	if len(cfg.Server.AllowedOrigins) > 0 {
		apiCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	// Create and start server
	server := api.NewServer(apiCfg, svc.Storage, svc.Ingest, logger)
	logger.Info("rule table", "source", svc.Rules.Describe())

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
