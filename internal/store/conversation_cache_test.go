package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

func privateConv(id, otherID string) *domain.Conversation {
	return domain.NewPrivateConversation(id, time.Now(),
		domain.User{ID: "self"}, domain.User{ID: otherID})
}

func TestConversationCache_SetAll_PreservesOrder(t *testing.T) {
	c := NewConversationCache()
	c.SetAll([]*domain.Conversation{
		privateConv("c2", "u2"),
		privateConv("c1", "u1"),
	})

	all := c.All()
	require.Len(t, all, 2)
	require.Equal(t, "c2", all[0].ID)
	require.Equal(t, "c1", all[1].ID)
}

func TestConversationCache_Prepend(t *testing.T) {
	c := NewConversationCache()
	c.SetAll([]*domain.Conversation{privateConv("c1", "u1")})

	c.Prepend(privateConv("c2", "u2"))
	require.Equal(t, "c2", c.All()[0].ID)

	// Prepending a known id is a no-op.
	c.Prepend(privateConv("c1", "u1"))
	require.Equal(t, 2, c.Len())
	require.Equal(t, "c2", c.All()[0].ID)
}

func TestConversationCache_ResetUnread(t *testing.T) {
	c := NewConversationCache()
	conv := privateConv("c1", "u1")
	conv.UnreadCount = 4
	c.SetAll([]*domain.Conversation{conv})

	c.ResetUnread("c1")
	require.Equal(t, 0, c.Get("c1").UnreadCount)

	// Unknown ids are ignored.
	c.ResetUnread("missing")
}

func TestConversationCache_FindPrivateWith(t *testing.T) {
	c := NewConversationCache()
	group := domain.NewGroupConversation("g1", "team", time.Now(),
		domain.User{ID: "self"}, domain.User{ID: "u1"}, domain.User{ID: "u2"})
	c.SetAll([]*domain.Conversation{
		group,
		privateConv("c1", "u1"),
	})

	found := c.FindPrivateWith("u1")
	require.NotNil(t, found)
	require.Equal(t, "c1", found.ID)

	require.Nil(t, c.FindPrivateWith("u9"))
}

func TestConversationCache_GetUnknown(t *testing.T) {
	c := NewConversationCache()
	require.Nil(t, c.Get("missing"))
	require.Empty(t, c.All())
}

func TestConversationCache_DetachesFromCaller(t *testing.T) {
	c := NewConversationCache()
	conv := privateConv("c1", "u1")
	conv.LastMessage = domain.NewTextMessage("m1", "c1", "u1", "hello", time.Now())

	c.SetAll([]*domain.Conversation{conv})
	conv.UnreadCount = 99
	conv.LastMessage.Content = "tampered"

	got := c.Get("c1")
	require.Equal(t, 0, got.UnreadCount)
	require.Equal(t, "hello", got.LastMessage.Content)
}

func TestConversationCache_ReadsReturnCopies(t *testing.T) {
	c := NewConversationCache()
	conv := privateConv("c1", "u1")
	conv.LastMessage = domain.NewTextMessage("m1", "c1", "u1", "hello", time.Now())
	c.SetAll([]*domain.Conversation{conv})

	view := c.All()[0]
	view.UnreadCount = 99
	view.LastMessage.Content = "tampered"

	require.Equal(t, 0, c.Get("c1").UnreadCount)
	require.Equal(t, "hello", c.Get("c1").LastMessage.Content)

	byID := c.Get("c1")
	byID.Name = "tampered"
	require.Empty(t, c.Get("c1").Name)
}
