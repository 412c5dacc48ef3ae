// Package app provides application initialization and dependency wiring.
//
// App is the container shared by every entry point (serve, reindex).
// Setup builds the database pool, Gemini client, stores, and the chat
// pipeline in dependency order; Close releases everything in reverse.
package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentciril/ciril/internal/assistant"
	"github.com/agentciril/ciril/internal/auth"
	"github.com/agentciril/ciril/internal/chatlog"
	"github.com/agentciril/ciril/internal/config"
	"github.com/agentciril/ciril/internal/gemini"
	"github.com/agentciril/ciril/internal/knowledge"
	"github.com/agentciril/ciril/internal/profile"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool      *pgxpool.Pool
	Gemini    *gemini.Client
	Profiles  *profile.Store
	ChatLog   *chatlog.Store
	Knowledge *knowledge.Store
	Indexer   *knowledge.Indexer
	Assistant *assistant.Assistant
	Auth      *auth.Authenticator

	otelShutdown func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.otelShutdown != nil {
		a.otelShutdown()
	}

	if a.Pool != nil {
		a.Pool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	return nil
}
