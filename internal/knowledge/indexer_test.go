package knowledge

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/agentciril/ciril/internal/profile"
)

// fakeStore records Add and DeleteByFilter calls.
type fakeStore struct {
	docs    map[string]Document
	deleted []map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]Document{}}
}

func (f *fakeStore) Add(_ context.Context, doc Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeStore) DeleteByFilter(_ context.Context, filter map[string]string) (int64, error) {
	f.deleted = append(f.deleted, filter)
	var n int64
	for id, doc := range f.docs {
		match := true
		for k, v := range filter {
			if doc.Metadata[k] != v {
				match = false
				break
			}
		}
		if match {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

type fakeSource struct {
	profile  *profile.Profile
	projects []profile.Project
}

func (f *fakeSource) Profile(context.Context) (*profile.Profile, error) {
	return f.profile, nil
}

func (f *fakeSource) Projects(context.Context) ([]profile.Project, error) {
	return f.projects, nil
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    int // expected chunk count; 0 means nil
	}{
		{"empty", "", 100, 10, 0},
		{"short text single chunk", "hello world", 100, 10, 1},
		{"exact size single chunk", strings.Repeat("a", 100), 100, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.size, tt.overlap)
			if len(got) != tt.want {
				t.Errorf("ChunkText() returned %d chunks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestChunkText_LongTextSplitsWithOverlap(t *testing.T) {
	words := make([]string, 0, 400)
	for range 400 {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := ChunkText(text, 1000, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for %d bytes, got %d", len(text), len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk %d is %d bytes, exceeds size limit", i, len(c))
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	// Overlap means consecutive chunks share a boundary region.
	tail := chunks[0][len(chunks[0])-20:]
	if !strings.Contains(chunks[1], tail[:4]) {
		t.Errorf("chunk 1 does not overlap chunk 0 tail")
	}
}

func TestProfileDocuments_FieldsAndMetadata(t *testing.T) {
	p := &profile.Profile{
		Name:       "Alex Chen",
		Location:   "Berlin",
		Bio:        "Backend engineer with a focus on distributed systems.",
		Skills:     []string{"Go", "PostgreSQL", "Kubernetes"},
		Experience: "Five years building payment infrastructure.",
		Interests:  "Climbing and synthesizers.",
	}
	projects := []profile.Project{
		{
			ID:           uuid.New(),
			Title:        "ledgerd",
			Description:  "A double-entry ledger service.",
			Technologies: []string{"Go", "PostgreSQL"},
			URL:          "https://example.com/ledgerd",
		},
	}

	docs := ProfileDocuments(p, projects)

	byID := map[string]Document{}
	for _, d := range docs {
		byID[d.ID] = d
	}

	bio, ok := byID["profile:bio"]
	if !ok {
		t.Fatal("missing profile:bio document")
	}
	if bio.Metadata["category"] != CategoryProfile || bio.Metadata["subcategory"] != "bio" {
		t.Errorf("bio metadata = %v", bio.Metadata)
	}

	skills, ok := byID["profile:skills"]
	if !ok {
		t.Fatal("missing profile:skills document")
	}
	if !strings.Contains(skills.Content, "Go, PostgreSQL") {
		t.Errorf("skills content = %q", skills.Content)
	}

	identity, ok := byID["profile:identity"]
	if !ok {
		t.Fatal("missing profile:identity document")
	}
	if !strings.Contains(identity.Content, "Alex Chen") || !strings.Contains(identity.Content, "Berlin") {
		t.Errorf("identity content = %q", identity.Content)
	}

	var projectDoc *Document
	for _, d := range docs {
		if d.Metadata["category"] == CategoryProject {
			projectDoc = &d
			break
		}
	}
	if projectDoc == nil {
		t.Fatal("missing project document")
	}
	if projectDoc.Metadata["project"] != "ledgerd" {
		t.Errorf("project metadata = %v", projectDoc.Metadata)
	}
	if !strings.Contains(projectDoc.Content, "double-entry ledger") {
		t.Errorf("project content = %q", projectDoc.Content)
	}
}

func TestProfileDocuments_SkipsEmptyFields(t *testing.T) {
	p := &profile.Profile{Bio: "Just a bio."}

	docs := ProfileDocuments(p, nil)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document for bio-only profile, got %d", len(docs))
	}
	if docs[0].ID != "profile:bio" {
		t.Errorf("doc ID = %q", docs[0].ID)
	}
}

func TestProfileDocuments_ChunksLongDescriptions(t *testing.T) {
	long := strings.Repeat("This project does many interesting things. ", 60) // ~2.6KB
	projects := []profile.Project{{ID: uuid.New(), Title: "big", Description: long}}

	docs := ProfileDocuments(&profile.Profile{}, projects)
	if len(docs) < 3 {
		t.Fatalf("expected multiple chunks, got %d documents", len(docs))
	}
	for i, d := range docs {
		if d.Metadata["category"] != CategoryProject {
			t.Errorf("doc %d category = %q", i, d.Metadata["category"])
		}
	}
}

func TestIndexer_Reindex(t *testing.T) {
	store := newFakeStore()

	// Pre-seed a stale project doc and a conversation doc.
	_ = store.Add(context.Background(), Document{
		ID:       "project:stale:0",
		Content:  "old project",
		Metadata: map[string]string{"category": CategoryProject},
	})
	_ = store.Add(context.Background(), Document{
		ID:       "conversation:keep",
		Content:  "Visitor asked: hi\nYou answered: hello",
		Metadata: map[string]string{"category": CategoryConversation},
	})

	source := &fakeSource{
		profile: &profile.Profile{Bio: "A bio.", Skills: []string{"Go"}},
	}

	idx := NewIndexer(store, source, nil)
	n, err := idx.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if n != 2 {
		t.Errorf("Reindex wrote %d documents, want 2 (bio, skills)", n)
	}

	if _, ok := store.docs["project:stale:0"]; ok {
		t.Error("stale project document survived reindex")
	}
	if _, ok := store.docs["conversation:keep"]; !ok {
		t.Error("conversation document was removed by reindex")
	}
	if _, ok := store.docs["profile:bio"]; !ok {
		t.Error("missing profile:bio after reindex")
	}
}

func TestIndexer_IndexExchange(t *testing.T) {
	store := newFakeStore()
	idx := NewIndexer(store, &fakeSource{profile: &profile.Profile{}}, nil)

	if err := idx.IndexExchange(context.Background(), "visitor-1", "What do you do?", "I build backends."); err != nil {
		t.Fatalf("IndexExchange: %v", err)
	}
	if len(store.docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(store.docs))
	}
	for _, d := range store.docs {
		if !strings.HasPrefix(d.Content, "Visitor asked: What do you do?") {
			t.Errorf("content = %q", d.Content)
		}
		if d.Metadata["visitor_id"] != "visitor-1" {
			t.Errorf("metadata = %v", d.Metadata)
		}
	}
}

func TestIndexer_IndexDocument(t *testing.T) {
	store := newFakeStore()
	idx := NewIndexer(store, &fakeSource{}, nil)

	long := strings.Repeat("The quarterly report covers revenue and headcount. ", 50)
	n, err := idx.IndexDocument(context.Background(), "Resume", "2026 edition", long)
	if err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if n < 2 {
		t.Fatalf("expected multiple chunks for %d bytes, got %d", len(long), n)
	}
	if len(store.docs) != n {
		t.Errorf("store holds %d docs, want %d", len(store.docs), n)
	}

	first, ok := store.docs["document:Resume:0"]
	if !ok {
		t.Fatal("missing document:Resume:0")
	}
	if first.Metadata["category"] != CategoryDocument || first.Metadata["document"] != "Resume" {
		t.Errorf("metadata = %v", first.Metadata)
	}
	if !strings.HasPrefix(first.Content, "Resume: 2026 edition") {
		t.Errorf("first chunk = %q, want title and description header", first.Content)
	}
}

func TestIndexer_IndexDocument_ReplacesPreviousChunks(t *testing.T) {
	store := newFakeStore()
	idx := NewIndexer(store, &fakeSource{}, nil)

	long := strings.Repeat("old content sentence here. ", 100)
	if _, err := idx.IndexDocument(context.Background(), "Resume", "", long); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	n, err := idx.IndexDocument(context.Background(), "Resume", "", "short now")
	if err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if n != 1 {
		t.Fatalf("chunks = %d, want 1", n)
	}
	if len(store.docs) != 1 {
		t.Errorf("store holds %d docs, want 1: stale chunks survived re-ingest", len(store.docs))
	}
}

func TestIndexer_IndexDocument_RequiresTitleAndText(t *testing.T) {
	idx := NewIndexer(newFakeStore(), &fakeSource{}, nil)

	if _, err := idx.IndexDocument(context.Background(), " ", "", "text"); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := idx.IndexDocument(context.Background(), "title", "", "  "); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestIndexer_RemoveDocument(t *testing.T) {
	store := newFakeStore()
	idx := NewIndexer(store, &fakeSource{}, nil)

	if _, err := idx.IndexDocument(context.Background(), "Resume", "", "some text"); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}

	deleted, err := idx.RemoveDocument(context.Background(), "Resume")
	if err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(store.docs) != 0 {
		t.Errorf("store still holds %d docs", len(store.docs))
	}
}

func TestIndexer_ReindexKeepsUploadedDocuments(t *testing.T) {
	store := newFakeStore()
	idx := NewIndexer(store, &fakeSource{profile: &profile.Profile{Bio: "A bio."}}, nil)

	if _, err := idx.IndexDocument(context.Background(), "Resume", "", "some text"); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if _, err := idx.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if _, ok := store.docs["document:Resume:0"]; !ok {
		t.Error("uploaded document chunk was removed by profile reindex")
	}
}

func TestIndexer_IndexExchange_SkipsEmpty(t *testing.T) {
	store := newFakeStore()
	idx := NewIndexer(store, &fakeSource{}, nil)

	if err := idx.IndexExchange(context.Background(), "v", "", "answer"); err != nil {
		t.Fatalf("IndexExchange: %v", err)
	}
	if len(store.docs) != 0 {
		t.Errorf("expected no documents for empty question, got %d", len(store.docs))
	}
}
