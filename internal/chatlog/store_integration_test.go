//go:build integration
// +build integration

package chatlog

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
	store, err := NewStore(db.Pool, testutil.DiscardLogger())
	require.NoError(t, err)
	return store
}

func TestStore_AppendAndHistory_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	require.NoError(t, store.Append(ctx, "v-1", RoleVisitor, "What do you work on?", 0))
	require.NoError(t, store.Append(ctx, "v-1", RoleAssistant, "Mostly storage systems.", 420))
	require.NoError(t, store.Append(ctx, "v-2", RoleVisitor, "Hello there", 0))

	// Unfiltered history returns everything, newest first.
	all, err := store.History(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Hello there", all[0].Content)

	// Visitor filter narrows to one conversation.
	mine, err := store.History(ctx, Filter{VisitorID: "v-1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, m := range mine {
		assert.Equal(t, "v-1", m.VisitorID)
	}
	assert.Equal(t, int64(420), mine[0].QueryTimeMS)

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestStore_AppendRejectsUnknownRole_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	err := store.Append(ctx, "v-1", "system", "sneaky", 0)
	assert.Error(t, err)
}

func TestStore_Recent_Integration(t *testing.T) {
	ctx := context.Background()
	store := setupIntegrationStore(t)

	require.NoError(t, store.Append(ctx, "v-1", RoleVisitor, "first", 0))
	require.NoError(t, store.Append(ctx, "v-1", RoleAssistant, "second", 0))
	require.NoError(t, store.Append(ctx, "v-1", RoleVisitor, "third", 0))

	recent, err := store.Recent(ctx, "v-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Recent returns oldest-first so it can feed a prompt directly.
	assert.Equal(t, "second", recent[0].Content)
	assert.Equal(t, "third", recent[1].Content)
}
