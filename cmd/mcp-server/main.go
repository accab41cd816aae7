package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bzcasper/mcp-gateway/pkg/config"
	"github.com/Bzcasper/mcp-gateway/pkg/mcp"
	"github.com/Bzcasper/mcp-gateway/pkg/mcp/auth"
	"github.com/Bzcasper/mcp-gateway/pkg/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.ParsedLogLevel(),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Auth gate. The API-key validator rejects everything when no master key
	// is configured; JWT-shaped credentials are only accepted when a signing
	// secret is configured.
	validators := []auth.Validator{
		auth.NewAPIKeyValidator(cfg.MasterAPIKey, cfg.MinAPIKeyLength),
	}

	if cfg.JWTSecret != "" {
		jwtValidator, jwtErr := auth.NewJWTValidator([]byte(cfg.JWTSecret), cfg.JWTAlgorithm)
		if jwtErr != nil {
			logger.Error("failed to build JWT validator", slog.String("error", jwtErr.Error()))
			os.Exit(1)
		}
		validators = append(validators, jwtValidator)
	} else {
		logger.Warn("MCP_JWT_SECRET not set - JWT credentials will be rejected")
	}

	if cfg.MasterAPIKey == "" {
		logger.Warn("MCP_MASTER_API_KEY not set - API key credentials will be rejected")
	}

	gate := auth.NewGate(validators, logger)

	// Tool registry, populated once before any request traffic.
	registry := mcp.NewRegistry(cfg.ToolTimeout, logger)

	var dbClient *tools.DatabaseClient
	if cfg.DatabaseURL != "" {
		dbClient, err = tools.NewDatabaseClient(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to initialize database client", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			_ = dbClient.Close()
		}()
	} else {
		logger.Warn("MCP_DATABASE_URL not set - database tools will return errors when called")
	}

	tools.NewDatabaseProvider(dbClient, logger).Register(registry)
	tools.NewVideoProvider(logger).Register(registry)
	tools.NewSpeechProvider(cfg.TTSEndpoint, cfg.TTSAPIKey, cfg.Voices, cfg.DefaultVoice, logger).Register(registry)

	logger.Info("tool registry populated", slog.Int("tools", len(registry.List())))

	dispatcher := mcp.NewDispatcher(registry, logger)
	server := mcp.NewHTTPServer(dispatcher, gate, cfg.ListenAddr, logger)

	err = server.Serve(ctx)
	if err != nil {
		logger.Error("MCP server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
