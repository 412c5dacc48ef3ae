// Package knowledge manages the retrieval knowledge base backed by
// PostgreSQL + pgvector.
//
// Documents are embedded on write and searched by cosine similarity.
// Metadata is stored as JSONB and filtered with the containment
// operator, so filters always use parameterized queries.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Embedder generates vector embeddings for text.
// *gemini.Client satisfies this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Querier is the database surface the Store needs, satisfied by both
// *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages knowledge documents with vector search capabilities.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       Querier
	embedder Embedder
	logger   *slog.Logger
}

// NewStore creates a knowledge Store.
func NewStore(db Querier, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, embedder: embedder, logger: logger}, nil
}

// Add embeds and upserts a document. Documents with the same ID are
// replaced, which makes reindexing idempotent.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.Content == "" {
		return fmt.Errorf("document %q has empty content", doc.ID)
	}

	values, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}
	embedding := pgvector.NewVector(values)

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (id, content, embedding, metadata)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		     content = EXCLUDED.content,
		     embedding = EXCLUDED.embedding,
		     metadata = EXCLUDED.metadata,
		     created_at = now()`,
		doc.ID, doc.Content, embedding, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Search performs semantic search over the knowledge base.
// It returns the most similar documents to the query, ordered by
// similarity descending. A 10-second timeout is applied to prevent
// long-running vector searches from blocking.
//
// Example usage:
//
//	results, err := store.Search(ctx, "what databases do you know",
//	    knowledge.WithTopK(3),
//	    knowledge.WithFilter("category", "profile"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if query == "" {
		return []Result{}, nil
	}
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	values, err := s.embedder.Embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryEmbedding := pgvector.NewVector(values)

	// Filter metadata is always produced by json.Marshal and bound as a
	// query parameter; the JSONB @> operator never sees raw user input.
	filterJSON, err := json.Marshal(orEmpty(cfg.filter))
	if err != nil {
		return nil, fmt.Errorf("marshaling filter: %w", err)
	}

	sql := `SELECT id, content, metadata, created_at,
	               1 - (embedding <=> $1) AS similarity
	        FROM documents
	        WHERE metadata @> $2`
	args := []any{queryEmbedding, filterJSON, cfg.topK}
	if len(cfg.exclude) > 0 {
		excludeJSON, err := json.Marshal(cfg.exclude)
		if err != nil {
			return nil, fmt.Errorf("marshaling exclusion filter: %w", err)
		}
		sql += ` AND NOT metadata @> $4`
		args = append(args, excludeJSON)
	}
	sql += ` ORDER BY embedding <=> $1 LIMIT $3`

	rows, err := s.db.Query(queryCtx, sql, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r            Result
			metadataJSON []byte
		)
		if err := rows.Scan(&r.Document.ID, &r.Document.Content, &metadataJSON,
			&r.Document.CreateAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &r.Document.Metadata); err != nil {
			s.logger.Warn("failed to parse metadata", "document_id", r.Document.ID, "error", err)
			r.Document.Metadata = map[string]string{}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// DeleteByFilter removes all documents whose metadata contains the given
// key/value pairs, and returns how many were deleted. An empty filter is
// rejected to avoid accidentally wiping the knowledge base.
func (s *Store) DeleteByFilter(ctx context.Context, filter map[string]string) (int64, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("filter must not be empty")
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("marshaling filter: %w", err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE metadata @> $1`, filterJSON)
	if err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}

	s.logger.Debug("deleted documents", "filter", filter, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// Count returns the number of documents matching the given filter.
// A nil or empty filter counts all documents.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	filterJSON, err := json.Marshal(orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("marshaling filter: %w", err)
	}

	var count int64
	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE metadata @> $1`, filterJSON,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}

	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// orEmpty normalizes a nil filter to an empty object so that the JSONB
// containment check matches every row.
func orEmpty(filter map[string]string) map[string]string {
	if filter == nil {
		return map[string]string{}
	}
	return filter
}
