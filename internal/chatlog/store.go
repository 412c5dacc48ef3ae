// Package chatlog persists the append-only conversation log.
//
// Every visitor message and assistant reply is recorded for the admin to
// review. Rows are never updated or deleted by the application.
package chatlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message roles as stored in the chat_messages table.
const (
	RoleVisitor   = "visitor"
	RoleAssistant = "assistant"
)

const (
	// DefaultHistoryLimit is used when the caller does not specify a limit.
	DefaultHistoryLimit = 50

	// MaxHistoryLimit caps how many messages a single History call returns.
	MaxHistoryLimit = 500
)

// Message is a single logged chat message.
type Message struct {
	ID          uuid.UUID `json:"id"`
	VisitorID   string    `json:"visitor_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	QueryTimeMS int64     `json:"query_time_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows a History query.
type Filter struct {
	VisitorID string // empty matches all visitors
	Limit     int    // 0 means DefaultHistoryLimit
}

// Store manages the conversation log backed by PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a chatlog Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Append records one message. queryTimeMS is only meaningful for
// assistant replies and may be zero.
func (s *Store) Append(ctx context.Context, visitorID, role, content string, queryTimeMS int64) error {
	if role != RoleVisitor && role != RoleAssistant {
		return fmt.Errorf("invalid role %q", role)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_messages (visitor_id, role, content, query_time_ms)
		 VALUES ($1, $2, $3, $4)`,
		visitorID, role, content, queryTimeMS,
	)
	if err != nil {
		return fmt.Errorf("appending chat message: %w", err)
	}
	return nil
}

// clampLimit applies the default and maximum history limits.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// History returns logged messages newest-first, optionally filtered by
// visitor.
func (s *Store) History(ctx context.Context, f Filter) ([]Message, error) {
	limit := clampLimit(f.Limit)

	rows, err := s.pool.Query(ctx,
		`SELECT id, visitor_id, role, content, query_time_ms, created_at
		 FROM chat_messages
		 WHERE ($1 = '' OR visitor_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		f.VisitorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.VisitorID, &m.Role, &m.Content, &m.QueryTimeMS, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}
	return messages, nil
}

// Recent returns the latest exchanges for one visitor in chronological
// order, for use as conversation context.
func (s *Store) Recent(ctx context.Context, visitorID string, limit int) ([]Message, error) {
	if visitorID == "" || limit <= 0 {
		return []Message{}, nil
	}
	messages, err := s.History(ctx, Filter{VisitorID: visitorID, Limit: limit})
	if err != nil {
		return nil, err
	}
	// History is newest-first; reverse for prompt order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Count returns the total number of logged messages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chat_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chat messages: %w", err)
	}
	return n, nil
}
