// Package assistant implements the recruiter-facing chat pipeline: it
// retrieves relevant profile context, asks the model for an in-character
// reply, and records the exchange.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agentciril/ciril/internal/chatlog"
	"github.com/agentciril/ciril/internal/gemini"
	"github.com/agentciril/ciril/internal/knowledge"
	"github.com/agentciril/ciril/internal/profile"
)

// historyWindow is how many recent log entries are replayed as
// conversation context (visitor and assistant messages combined).
const historyWindow = 10

// Generator produces model replies. *gemini.Client satisfies this.
type Generator interface {
	Generate(ctx context.Context, system string, history []gemini.Turn, message string) (string, error)
}

// Searcher retrieves relevant documents. *knowledge.Store satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// ProfileSource loads the candidate profile. *profile.Store satisfies this.
type ProfileSource interface {
	Profile(ctx context.Context) (*profile.Profile, error)
}

// Logbook records and replays chat messages. *chatlog.Store satisfies this.
type Logbook interface {
	Append(ctx context.Context, visitorID, role, content string, queryTimeMS int64) error
	Recent(ctx context.Context, visitorID string, limit int) ([]chatlog.Message, error)
}

// ExchangeIndexer stores completed exchanges for future retrieval.
// *knowledge.Indexer satisfies this.
type ExchangeIndexer interface {
	IndexExchange(ctx context.Context, visitorID, question, answer string) error
}

// Reply is the assistant's answer to one visitor message.
type Reply struct {
	Text        string
	QueryTimeMS int64
}

// Assistant orchestrates retrieval, generation, and logging.
//
// Assistant is safe for concurrent use by multiple goroutines.
type Assistant struct {
	generator Generator
	searcher  Searcher
	profiles  ProfileSource
	logbook   Logbook
	indexer   ExchangeIndexer
	topK      int
	logger    *slog.Logger
}

// Config wires an Assistant's collaborators.
type Config struct {
	Generator Generator
	Searcher  Searcher
	Profiles  ProfileSource
	Logbook   Logbook
	Indexer   ExchangeIndexer
	TopK      int
	Logger    *slog.Logger
}

// New creates an Assistant. Generator, Searcher, and Profiles are
// required; Logbook and Indexer are optional (nil disables logging and
// exchange indexing).
func New(cfg Config) (*Assistant, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("profile source is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Assistant{
		generator: cfg.Generator,
		searcher:  cfg.Searcher,
		profiles:  cfg.Profiles,
		logbook:   cfg.Logbook,
		indexer:   cfg.Indexer,
		topK:      cfg.TopK,
		logger:    cfg.Logger,
	}, nil
}

// Reply answers one visitor message. Failures in retrieval, generation,
// or logging degrade to canned replies or warnings; the visitor always
// receives a response and Reply only returns an error for context
// cancellation.
func (a *Assistant) Reply(ctx context.Context, visitorID, message string) (*Reply, error) {
	start := time.Now()

	message = strings.TrimSpace(message)
	if message == "" {
		return &Reply{Text: fallbackEmptyMessage}, nil
	}

	results, err := a.searcher.Search(ctx, message,
		knowledge.WithTopK(a.topK),
		knowledge.WithoutFilter("category", knowledge.CategoryConversation))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("knowledge search failed, answering without retrieval",
			"visitor_id", visitorID, "error", err)
		results = nil
	}

	// The visitor's own prior exchanges are retrieved separately so one
	// visitor's questions never surface in another's context.
	if visitorID != "" {
		conv, err := a.searcher.Search(ctx, message,
			knowledge.WithTopK(a.topK),
			knowledge.WithFilter("category", knowledge.CategoryConversation),
			knowledge.WithFilter("visitor_id", visitorID))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("conversation search failed", "visitor_id", visitorID, "error", err)
		} else {
			results = append(results, conv...)
		}
	}

	p, err := a.profiles.Profile(ctx)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("loading profile failed, answering without profile context",
			"visitor_id", visitorID, "error", err)
	}

	history := a.recentHistory(ctx, visitorID)

	text, err := a.generator.Generate(ctx, systemPrompt(p, results), history, message)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error("generation failed", "visitor_id", visitorID, "error", err)
		text = fallbackAPIError
	case strings.TrimSpace(text) == "":
		a.logger.Warn("empty model reply, using fallback", "visitor_id", visitorID)
		text = fallbackEmptyReply
	default:
		// Only index genuine model replies; canned fallbacks would
		// poison future retrieval.
		a.indexExchange(ctx, visitorID, message, text)
	}

	reply := &Reply{Text: text, QueryTimeMS: time.Since(start).Milliseconds()}
	a.logExchange(ctx, visitorID, message, reply)
	return reply, nil
}

// recentHistory loads the visitor's latest messages as generation
// context. Best effort: a log failure only costs continuity.
func (a *Assistant) recentHistory(ctx context.Context, visitorID string) []gemini.Turn {
	if a.logbook == nil {
		return nil
	}
	messages, err := a.logbook.Recent(ctx, visitorID, historyWindow)
	if err != nil {
		a.logger.Warn("loading chat history failed", "visitor_id", visitorID, "error", err)
		return nil
	}

	turns := make([]gemini.Turn, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == chatlog.RoleAssistant {
			role = "model"
		}
		turns = append(turns, gemini.Turn{Role: role, Text: m.Content})
	}
	return turns
}

// logExchange appends both sides of the exchange to the chat log.
// Best effort: the reply is already composed, so failures are warnings.
func (a *Assistant) logExchange(ctx context.Context, visitorID, message string, reply *Reply) {
	if a.logbook == nil {
		return
	}
	if err := a.logbook.Append(ctx, visitorID, chatlog.RoleVisitor, message, 0); err != nil {
		a.logger.Warn("logging visitor message failed", "visitor_id", visitorID, "error", err)
	}
	if err := a.logbook.Append(ctx, visitorID, chatlog.RoleAssistant, reply.Text, reply.QueryTimeMS); err != nil {
		a.logger.Warn("logging assistant reply failed", "visitor_id", visitorID, "error", err)
	}
}

// indexExchange stores the exchange in the knowledge base. Best effort.
func (a *Assistant) indexExchange(ctx context.Context, visitorID, question, answer string) {
	if a.indexer == nil {
		return
	}
	if err := a.indexer.IndexExchange(ctx, visitorID, question, answer); err != nil {
		a.logger.Warn("indexing exchange failed", "visitor_id", visitorID, "error", err)
	}
}
