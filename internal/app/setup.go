package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentciril/ciril/db"
	"github.com/agentciril/ciril/internal/assistant"
	"github.com/agentciril/ciril/internal/auth"
	"github.com/agentciril/ciril/internal/chatlog"
	"github.com/agentciril/ciril/internal/config"
	"github.com/agentciril/ciril/internal/database"
	"github.com/agentciril/ciril/internal/gemini"
	"github.com/agentciril/ciril/internal/knowledge"
	"github.com/agentciril/ciril/internal/observability"
	"github.com/agentciril/ciril/internal/profile"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelShutdown = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:        os.Getenv("GEMINI_API_KEY"),
		ChatModel:     cfg.ChatModel,
		EmbedderModel: cfg.EmbedderModel,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	a.Gemini = client

	a.Profiles, err = profile.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating profile store: %w", err)
	}
	a.ChatLog, err = chatlog.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating chat log store: %w", err)
	}
	a.Knowledge, err = knowledge.NewStore(pool, client, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Indexer = knowledge.NewIndexer(a.Knowledge, a.Profiles, logger)

	a.Assistant, err = assistant.New(assistant.Config{
		Generator: client,
		Searcher:  a.Knowledge,
		Profiles:  a.Profiles,
		Logbook:   a.ChatLog,
		Indexer:   a.Indexer,
		TopK:      cfg.RetrievalTopK,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}

	// Admin auth is only wired when credentials are configured; the
	// reindex command runs without them.
	if cfg.AdminEmail != "" {
		a.Auth, err = auth.New(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("creating authenticator: %w", err)
		}
	}

	return a, nil
}

// provideOtelShutdown sets up OTLP tracing when enabled. Returns a
// function that flushes pending spans with a bounded timeout.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if !cfg.Tracing.Enabled {
		return func() {}
	}

	shutdown, err := observability.Setup(ctx, observability.Config{
		AgentHost:   cfg.Tracing.AgentHost,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	}, logger)
	if err != nil {
		logger.Warn("setting up tracing", "error", err)
		return func() {}
	}

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates the connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	return pool, nil
}
