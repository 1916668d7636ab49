package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

func testDB(t *testing.T) MessageRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	return NewMessageRepository(db)
}

func TestMessageRepository_CreateOrIgnore(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	msg := domain.NewTextMessage("m1", "c1", "u1", "hello", now)
	require.NoError(t, repo.CreateOrIgnore(ctx, msg))

	// Replaying the same row is a no-op, not an error.
	replay := domain.NewTextMessage("m1", "c1", "u1", "changed", now)
	require.NoError(t, repo.CreateOrIgnore(ctx, replay))

	got, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, domain.StatusSent, got.Status)
}

func TestMessageRepository_Upsert(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	msg := domain.NewTextMessage("m1", "c1", "u1", "hello", now)
	require.NoError(t, repo.Upsert(ctx, msg))

	msg.Status = domain.StatusSeen
	msg.Edited = true
	msg.Content = "hello!"
	require.NoError(t, repo.Upsert(ctx, msg))

	got, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, "hello!", got.Content)
	require.Equal(t, domain.StatusSeen, got.Status)
	require.True(t, got.Edited)
}

func TestMessageRepository_GetByID_Missing(t *testing.T) {
	repo := testDB(t)

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMessageRepository_GetByConversation(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	offsets := map[string]int{"m1": 1, "m2": 2, "m3": 3}
	for _, id := range []string{"m3", "m1", "m2"} {
		msg := domain.NewTextMessage(id, "c1", "u1", "text", base.Add(time.Duration(offsets[id])*time.Minute))
		require.NoError(t, repo.CreateOrIgnore(ctx, msg))
	}
	other := domain.NewTextMessage("other", "c2", "u1", "elsewhere", base)
	require.NoError(t, repo.CreateOrIgnore(ctx, other))

	msgs, err := repo.GetByConversation(ctx, "c1", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m3", msgs[2].ID)

	limited, err := repo.GetByConversation(ctx, "c1", 2, 1)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "m2", limited[0].ID)
}

func TestMessageRepository_Search(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for id, content := range map[string]string{
		"m1": "see you at the meeting",
		"m2": "meeting moved to 3pm",
		"m3": "lunch?",
	} {
		require.NoError(t, repo.CreateOrIgnore(ctx,
			domain.NewTextMessage(id, "c1", "u1", content, now)))
	}

	hits, err := repo.Search(ctx, "meeting", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// LIKE wildcards in the query are treated literally.
	hits, err = repo.Search(ctx, "%", 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestMessageRepository_DeleteByConversation(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateOrIgnore(ctx, domain.NewTextMessage("m1", "c1", "u1", "one", now)))
	require.NoError(t, repo.CreateOrIgnore(ctx, domain.NewTextMessage("m2", "c2", "u1", "two", now)))

	require.NoError(t, repo.DeleteByConversation(ctx, "c1"))

	gone, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.Nil(t, gone)

	kept, err := repo.GetByID(ctx, "m2")
	require.NoError(t, err)
	require.NotNil(t, kept)
}
