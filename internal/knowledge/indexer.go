package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentciril/ciril/internal/profile"
)

// Chunking parameters for long project descriptions. Short texts stay as
// a single document; longer texts are split with overlap so sentences at
// chunk boundaries remain retrievable.
const (
	ChunkSize    = 1000
	ChunkOverlap = 100
)

// IndexerStore is the knowledge store surface the Indexer needs.
// *Store satisfies this interface.
type IndexerStore interface {
	Add(ctx context.Context, doc Document) error
	DeleteByFilter(ctx context.Context, filter map[string]string) (int64, error)
}

// ProfileSource loads the profile data to be indexed.
// *profile.Store satisfies this interface.
type ProfileSource interface {
	Profile(ctx context.Context) (*profile.Profile, error)
	Projects(ctx context.Context) ([]profile.Project, error)
}

// Indexer converts profile data and chat exchanges into knowledge
// documents.
type Indexer struct {
	store  IndexerStore
	source ProfileSource
	logger *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(store IndexerStore, source ProfileSource, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, source: source, logger: logger}
}

// Reindex rebuilds all profile-derived documents from the current profile
// and project list. Existing profile and project documents are removed
// first so deleted fields do not linger; conversation and uploaded
// document chunks are kept. Returns the number of documents written.
func (idx *Indexer) Reindex(ctx context.Context) (int, error) {
	p, err := idx.source.Profile(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading profile: %w", err)
	}
	projects, err := idx.source.Projects(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading projects: %w", err)
	}

	for _, category := range []string{CategoryProfile, CategoryProject} {
		if _, err := idx.store.DeleteByFilter(ctx, map[string]string{"category": category}); err != nil {
			return 0, fmt.Errorf("clearing %s documents: %w", category, err)
		}
	}

	docs := ProfileDocuments(p, projects)
	for _, doc := range docs {
		if err := idx.store.Add(ctx, doc); err != nil {
			return 0, fmt.Errorf("indexing %q: %w", doc.ID, err)
		}
	}

	idx.logger.Info("profile reindexed", "documents", len(docs), "projects", len(projects))
	return len(docs), nil
}

// IndexExchange stores one visitor question and assistant answer as a
// conversation document, so later questions can draw on past answers.
func (idx *Indexer) IndexExchange(ctx context.Context, visitorID, question, answer string) error {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil
	}

	doc := Document{
		ID:      "conversation:" + uuid.NewString(),
		Content: fmt.Sprintf("Visitor asked: %s\nYou answered: %s", question, answer),
		Metadata: map[string]string{
			"category":   CategoryConversation,
			"visitor_id": visitorID,
		},
		CreateAt: time.Now(),
	}
	if err := idx.store.Add(ctx, doc); err != nil {
		return fmt.Errorf("indexing exchange: %w", err)
	}
	return nil
}

// IndexDocument chunks an uploaded document's extracted text and stores
// it under category=document so chat retrieval can draw on it.
// Re-ingesting the same title replaces the previous chunks. Returns the
// number of chunks written.
func (idx *Indexer) IndexDocument(ctx context.Context, title, description, text string) (int, error) {
	title = strings.TrimSpace(title)
	text = strings.TrimSpace(text)
	if title == "" {
		return 0, fmt.Errorf("document title is required")
	}
	if text == "" {
		return 0, fmt.Errorf("document text is required")
	}

	if _, err := idx.store.DeleteByFilter(ctx, map[string]string{
		"category": CategoryDocument,
		"document": title,
	}); err != nil {
		return 0, fmt.Errorf("clearing document %q: %w", title, err)
	}

	content := title
	if d := strings.TrimSpace(description); d != "" {
		content += ": " + d
	}
	content += "\n" + text

	now := time.Now()
	chunks := ChunkText(content, ChunkSize, ChunkOverlap)
	for i, chunk := range chunks {
		doc := Document{
			ID:      fmt.Sprintf("document:%s:%d", title, i),
			Content: chunk,
			Metadata: map[string]string{
				"category": CategoryDocument,
				"document": title,
				"chunk":    fmt.Sprintf("%d", i),
			},
			CreateAt: now,
		}
		if err := idx.store.Add(ctx, doc); err != nil {
			return 0, fmt.Errorf("indexing %q: %w", doc.ID, err)
		}
	}

	idx.logger.Info("document indexed", "document", title, "chunks", len(chunks))
	return len(chunks), nil
}

// RemoveDocument deletes every chunk of the named document.
func (idx *Indexer) RemoveDocument(ctx context.Context, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("document title is required")
	}
	deleted, err := idx.store.DeleteByFilter(ctx, map[string]string{
		"category": CategoryDocument,
		"document": title,
	})
	if err != nil {
		return 0, fmt.Errorf("removing document %q: %w", title, err)
	}
	idx.logger.Info("document removed", "document", title, "chunks", deleted)
	return deleted, nil
}

// ProfileDocuments builds the document set for a profile and its
// projects. Each populated profile field becomes one document; project
// descriptions are chunked. Document IDs are stable so reindexing
// upserts in place.
func ProfileDocuments(p *profile.Profile, projects []profile.Project) []Document {
	now := time.Now()
	docs := []Document{}

	addField := func(subcategory, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		docs = append(docs, Document{
			ID:      "profile:" + subcategory,
			Content: content,
			Metadata: map[string]string{
				"category":    CategoryProfile,
				"subcategory": subcategory,
			},
			CreateAt: now,
		})
	}

	addField("bio", p.Bio)
	addField("skills", strings.Join(p.Skills, ", "))
	addField("experience", p.Experience)
	addField("interests", p.Interests)
	if p.Name != "" || p.Location != "" {
		addField("identity", strings.TrimSpace(p.Name+" is based in "+p.Location))
	}

	for _, pr := range projects {
		content := pr.Title
		if pr.Description != "" {
			content += ": " + pr.Description
		}
		if len(pr.Technologies) > 0 {
			content += "\nTechnologies: " + strings.Join(pr.Technologies, ", ")
		}
		if pr.URL != "" {
			content += "\nURL: " + pr.URL
		}

		for i, chunk := range ChunkText(content, ChunkSize, ChunkOverlap) {
			docs = append(docs, Document{
				ID:      fmt.Sprintf("project:%s:%d", pr.ID, i),
				Content: chunk,
				Metadata: map[string]string{
					"category": CategoryProject,
					"project":  pr.Title,
					"chunk":    fmt.Sprintf("%d", i),
				},
				CreateAt: now,
			})
		}
	}

	return docs
}

// ChunkText splits text into chunks of at most size bytes with the given
// overlap between consecutive chunks. Split points prefer whitespace
// near the boundary so words are not cut mid-rune.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	chunks := []string{}
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}

		// Back up to the last whitespace within the chunk, if any.
		cut := end
		if i := strings.LastIndexFunc(text[start:end], func(r rune) bool {
			return r == ' ' || r == '\n' || r == '\t'
		}); i > 0 {
			cut = start + i
		}

		chunks = append(chunks, strings.TrimSpace(text[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	// Drop empty chunks produced by runs of whitespace.
	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
