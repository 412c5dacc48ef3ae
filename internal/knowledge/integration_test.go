//go:build integration
// +build integration

package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentciril/ciril/internal/testutil"
)

func setupIntegrationStore(t *testing.T) *Store {
	t.Helper()

	db := testutil.SetupTestDB(t)
	store, err := NewStore(db.Pool, testutil.NewFakeEmbedder(), testutil.DiscardLogger())
	require.NoError(t, err)
	return store
}

func TestStore_AddAndSearch_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	doc := Document{
		ID:      "profile:bio",
		Content: "Backend engineer with eight years of Go and PostgreSQL experience.",
		Metadata: map[string]string{
			"category": CategoryProfile,
			"field":    "bio",
		},
	}
	require.NoError(t, store.Add(ctx, doc))

	results, err := store.Search(ctx, doc.Content, WithTopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, doc.ID, results[0].Document.ID)
	assert.Equal(t, doc.Content, results[0].Document.Content)
	// The fake embedder is deterministic, so an identical query embeds
	// to the identical vector and similarity is ~1.
	assert.InDelta(t, 1.0, results[0].Similarity, 0.01)
}

func TestStore_AddUpsertsByID_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	doc := Document{
		ID:       "profile:bio",
		Content:  "First version of the bio.",
		Metadata: map[string]string{"category": CategoryProfile},
	}
	require.NoError(t, store.Add(ctx, doc))

	doc.Content = "Second version of the bio."
	require.NoError(t, store.Add(ctx, doc))

	count, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same ID should upsert, not duplicate")

	results, err := store.Search(ctx, doc.Content, WithTopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Second version of the bio.", results[0].Document.Content)
}

func TestStore_SearchWithFilter_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	docs := []Document{
		{ID: "profile:bio", Content: "Distributed systems engineer.",
			Metadata: map[string]string{"category": CategoryProfile}},
		{ID: "project:x:0", Content: "Built a distributed job queue in Go.",
			Metadata: map[string]string{"category": CategoryProject}},
	}
	for _, d := range docs {
		require.NoError(t, store.Add(ctx, d))
	}

	results, err := store.Search(ctx, "distributed systems",
		WithTopK(5), WithFilter("category", CategoryProject))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "project:x:0", results[0].Document.ID)
}

func TestStore_SearchWithoutFilter_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	docs := []Document{
		{ID: "profile:bio", Content: "Works on search infrastructure.",
			Metadata: map[string]string{"category": CategoryProfile}},
		{ID: "conversation:1", Content: "Visitor asked: search?\nYou answered: yes.",
			Metadata: map[string]string{"category": CategoryConversation, "visitor_id": "v-1"}},
	}
	for _, d := range docs {
		require.NoError(t, store.Add(ctx, d))
	}

	results, err := store.Search(ctx, "search infrastructure",
		WithTopK(5), WithoutFilter("category", CategoryConversation))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "profile:bio", results[0].Document.ID)
}

func TestStore_DeleteByFilter_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	docs := []Document{
		{ID: "profile:bio", Content: "Bio.",
			Metadata: map[string]string{"category": CategoryProfile}},
		{ID: "project:x:0", Content: "Project A.",
			Metadata: map[string]string{"category": CategoryProject}},
		{ID: "project:y:0", Content: "Project B.",
			Metadata: map[string]string{"category": CategoryProject}},
	}
	for _, d := range docs {
		require.NoError(t, store.Add(ctx, d))
	}

	deleted, err := store.DeleteByFilter(ctx, map[string]string{"category": CategoryProject})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Empty filters must be rejected: they would wipe the whole table.
	_, err = store.DeleteByFilter(ctx, nil)
	assert.Error(t, err)
}
