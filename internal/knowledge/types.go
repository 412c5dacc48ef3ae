package knowledge

import (
	"time"
)

// VectorDimension is the embedding width stored in the documents table.
// Must match the vector(N) column in the schema and the embedder's
// output dimensionality.
const VectorDimension int32 = 768

// Category values for document metadata.
const (
	// CategoryProfile marks documents derived from profile fields.
	CategoryProfile = "profile"

	// CategoryProject marks documents derived from portfolio projects.
	CategoryProject = "project"

	// CategoryConversation marks documents derived from past chat exchanges.
	CategoryConversation = "conversation"

	// CategoryDocument marks chunks of uploaded documents (extracted text).
	CategoryDocument = "document"
)

// Document represents a knowledge document.
// It contains the textual content and optional metadata.
type Document struct {
	ID       string            // Unique identifier
	Content  string            // Document text content
	Metadata map[string]string // Optional metadata (category, subcategory, etc.)
	CreateAt time.Time         // Creation timestamp
}

// Result represents a single search result with similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity score (0-1)
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	filter  map[string]string
	exclude map[string]string
	timeout time.Duration
}

// WithTopK sets the maximum number of results to return.
// Default is 3 if not specified.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithFilter adds a metadata filter to restrict search results.
// Multiple calls to WithFilter add additional filters (AND logic).
// Example: WithFilter("category", "profile")
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

// WithoutFilter excludes documents whose metadata contains the given
// key/value pair. Used to keep past conversations out of general
// profile retrieval.
// Example: WithoutFilter("category", "conversation")
func WithoutFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]string)
		}
		c.exclude[key] = value
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    3,
		filter:  nil,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
