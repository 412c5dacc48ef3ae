// Package gemini wraps the Google GenAI client for chat generation and
// text embedding.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// EmbeddingDimension is the output dimensionality requested from the
// embedder. Must match the vector(N) column width in the documents table.
const EmbeddingDimension int32 = 768

// Config holds the settings for a Client.
type Config struct {
	APIKey        string
	ChatModel     string
	EmbedderModel string
	Temperature   float32
	MaxTokens     int
}

// Turn is a single prior exchange in a conversation, passed to Generate
// so the model sees recent context.
type Turn struct {
	Role string // genai.RoleUser or genai.RoleModel
	Text string
}

// Client wraps the Google GenAI client to provide prompt-based generation
// and embedding. Safe for concurrent use.
type Client struct {
	client        *genai.Client
	chatModel     string
	embedderModel string
	temperature   float32
	maxTokens     int32
	retry         RetryConfig
	logger        *slog.Logger
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:        client,
		chatModel:     cfg.ChatModel,
		embedderModel: cfg.EmbedderModel,
		temperature:   cfg.Temperature,
		maxTokens:     int32(cfg.MaxTokens), //nolint:gosec // bounded by config validation
		retry:         DefaultRetryConfig(),
		logger:        logger,
	}, nil
}

// Generate produces a model reply for message, given the system instruction
// and recent conversation history. Transient API failures are retried with
// exponential backoff.
func (c *Client) Generate(ctx context.Context, system string, history []Turn, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, &genai.Content{
			Role:  turn.Role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: message}},
	})

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxTokens,
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := withRetry(ctx, c.retry, c.logger, "generate", func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.client.Models.GenerateContent(ctx, c.chatModel, contents, config)
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return collectText(resp), nil
}

// Embed generates a vector embedding for the given text, truncated to
// EmbeddingDimension values.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	dim := EmbeddingDimension
	config := &genai.EmbedContentConfig{OutputDimensionality: &dim}

	resp, err := withRetry(ctx, c.retry, c.logger, "embed", func(ctx context.Context) (*genai.EmbedContentResponse, error) {
		return c.client.Models.EmbedContent(ctx, c.embedderModel, genai.Text(text), config)
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// collectText concatenates all non-empty text parts across candidates.
// An empty result is not an error here; the caller decides how to handle
// an empty model reply.
func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}
