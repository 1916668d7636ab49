package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

func msg(id, convID, content string, at time.Time) *domain.Message {
	return domain.NewTextMessage(id, convID, "user-1", content, at)
}

func TestMessageStore_Put_AppendsInArrivalOrder(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	require.True(t, s.Put(msg("m1", "c1", "first", now)))
	require.True(t, s.Put(msg("m2", "c1", "second", now.Add(time.Second))))

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m2", msgs[1].ID)
}

func TestMessageStore_Put_DedupesByID(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	require.True(t, s.Put(msg("m1", "c1", "hello", now)))
	require.False(t, s.Put(msg("m1", "c1", "hello", now)))

	require.Equal(t, 1, s.Len("c1"))
}

func TestMessageStore_Put_StatusOnlyMovesForward(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	first := msg("m1", "c1", "hello", now)
	first.Status = domain.StatusDelivered
	s.Put(first)

	update := msg("m1", "c1", "hello", now)
	update.Status = domain.StatusSent
	s.Put(update)
	require.Equal(t, domain.StatusDelivered, s.Messages("c1")[0].Status)

	update.Status = domain.StatusSeen
	s.Put(update)
	require.Equal(t, domain.StatusSeen, s.Messages("c1")[0].Status)
}

func TestMessageStore_Put_AppliesEdits(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	s.Put(msg("m1", "c1", "hello", now))

	edited := msg("m1", "c1", "hello, world", now)
	edited.Edited = true
	require.False(t, s.Put(edited))

	got := s.Messages("c1")[0]
	require.True(t, got.Edited)
	require.Equal(t, "hello, world", got.Content)
}

func TestMessageStore_Replace_InstallsSnapshot(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	s.Put(msg("stale", "c1", "gone after refresh", now))
	s.Replace("c1", []*domain.Message{
		msg("m1", "c1", "first", now),
		msg("m2", "c1", "second", now.Add(time.Second)),
	})

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m2", msgs[1].ID)
}

func TestMessageStore_Replace_KeepsPushRacedMessages(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	// A push lands while the snapshot query is in flight; the snapshot is
	// too old to contain it, but it must survive the replace.
	s.Put(msg("pushed", "c1", "raced the fetch", now.Add(2*time.Second)))
	s.Replace("c1", []*domain.Message{
		msg("m1", "c1", "first", now),
	})

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "pushed", msgs[1].ID)
}

func TestMessageStore_Replace_SnapshotCoverageEndsRaceProtection(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	s.Put(msg("m1", "c1", "hello", now))

	// First snapshot covers the pushed message, so a later snapshot
	// without it means it was deleted upstream.
	s.Replace("c1", []*domain.Message{msg("m1", "c1", "hello", now)})
	s.Replace("c1", nil)

	require.Equal(t, 0, s.Len("c1"))
}

func TestMessageStore_Replace_MergesDuplicateWithPush(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	s.Put(msg("m1", "c1", "hello", now))
	s.Replace("c1", []*domain.Message{
		msg("m0", "c1", "earlier", now.Add(-time.Minute)),
		msg("m1", "c1", "hello", now),
	})

	msgs := s.Messages("c1")
	require.Len(t, msgs, 2)
	require.Equal(t, "m0", msgs[0].ID)
	require.Equal(t, "m1", msgs[1].ID)
}

func TestMessageStore_LastMessage_Derived(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	require.Nil(t, s.LastMessage("c1"))

	s.Replace("c1", []*domain.Message{
		msg("m1", "c1", "first", now),
		msg("m2", "c1", "second", now.Add(time.Second)),
	})
	require.Equal(t, "m2", s.LastMessage("c1").ID)

	s.Put(msg("m3", "c1", "third", now.Add(2*time.Second)))
	require.Equal(t, "m3", s.LastMessage("c1").ID)
}

func TestMessageStore_ConversationsAreIndependent(t *testing.T) {
	s := NewMessageStore()
	now := time.Now()

	s.Put(msg("m1", "c1", "one", now))
	s.Put(msg("m2", "c2", "two", now))

	require.Equal(t, 1, s.Len("c1"))
	require.Equal(t, 1, s.Len("c2"))
	require.Equal(t, "m1", s.LastMessage("c1").ID)
	require.Equal(t, "m2", s.LastMessage("c2").ID)
}

func TestMessageStore_Put_DetachesFromCaller(t *testing.T) {
	s := NewMessageStore()
	m := msg("m1", "c1", "original", time.Now())

	s.Put(m)
	m.Content = "tampered"
	m.Status = domain.StatusSeen

	got := s.Messages("c1")[0]
	require.Equal(t, "original", got.Content)
	require.Equal(t, domain.StatusSent, got.Status)
}

func TestMessageStore_ReadsReturnCopies(t *testing.T) {
	s := NewMessageStore()
	s.Put(msg("m1", "c1", "hello", time.Now()))

	view := s.Messages("c1")[0]
	view.Content = "tampered"
	view.Status = domain.StatusSeen
	require.Equal(t, "hello", s.Messages("c1")[0].Content)
	require.Equal(t, domain.StatusSent, s.Messages("c1")[0].Status)

	last := s.LastMessage("c1")
	last.Content = "tampered"
	require.Equal(t, "hello", s.LastMessage("c1").Content)
}
