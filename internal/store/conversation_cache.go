package store

import (
	"sync"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

// ConversationCache is the ordered local copy of the signed-in user's
// conversation list. Unread counts are backend-owned; the cache only ever
// zeroes them when a conversation becomes the active selection.
//
// Cache-owned structs never leave the cache: writes store copies and reads
// return copies, so callers can hold results across lock boundaries.
type ConversationCache struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.Conversation
}

func NewConversationCache() *ConversationCache {
	return &ConversationCache{
		byID: make(map[string]*domain.Conversation),
	}
}

// SetAll replaces the whole list, preserving the given ordering.
func (c *ConversationCache) SetAll(convs []*domain.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = c.order[:0]
	c.byID = make(map[string]*domain.Conversation, len(convs))
	for _, conv := range convs {
		c.order = append(c.order, conv.ID)
		c.byID[conv.ID] = cloneConversation(conv)
	}
}

// Prepend inserts a newly created conversation at the head of the list.
func (c *ConversationCache) Prepend(conv *domain.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[conv.ID]; ok {
		return
	}
	c.order = append([]string{conv.ID}, c.order...)
	c.byID[conv.ID] = cloneConversation(conv)
}

func (c *ConversationCache) Get(id string) *domain.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneConversation(c.byID[id])
}

// All returns the list in cache order.
func (c *ConversationCache) All() []*domain.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Conversation, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneConversation(c.byID[id]))
	}
	return out
}

// ResetUnread zeroes the unread counter for id.
func (c *ConversationCache) ResetUnread(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conv, ok := c.byID[id]; ok {
		conv.UnreadCount = 0
	}
}

// FindPrivateWith returns an existing private conversation containing the
// given user, or nil. Used to keep conversation creation idempotent.
func (c *ConversationCache) FindPrivateWith(userID string) *domain.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		conv := c.byID[id]
		if conv.Kind == domain.ConversationPrivate && conv.HasParticipant(userID) {
			return cloneConversation(conv)
		}
	}
	return nil
}

// Participant slices are immutable once a conversation is built, so a
// shallow copy is enough.
func cloneConversation(conv *domain.Conversation) *domain.Conversation {
	if conv == nil {
		return nil
	}
	out := *conv
	out.LastMessage = conv.LastMessage.Clone()
	return &out
}

func (c *ConversationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
