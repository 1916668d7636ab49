package store

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultTypingTTL is how long a typing ping keeps a user marked as typing.
const DefaultTypingTTL = 5 * time.Second

// TypingTracker turns insert-only typing pings into a decaying set of
// currently-typing users per conversation.
type TypingTracker struct {
	mu    sync.Mutex
	ttl   time.Duration
	marks map[string]map[string]time.Time
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		ttl:   ttl,
		marks: make(map[string]map[string]time.Time),
	}
}

// Mark records a typing ping from userID in the conversation.
func (t *TypingTracker) Mark(conversationID, userID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.marks[conversationID]
	if users == nil {
		users = make(map[string]time.Time)
		t.marks[conversationID] = users
	}
	if at.After(users[userID]) {
		users[userID] = at
	}
}

// Active returns the users whose last ping is still within the TTL.
func (t *TypingTracker) Active(conversationID string, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.marks[conversationID]
	active := lo.PickBy(users, func(_ string, last time.Time) bool {
		return now.Sub(last) < t.ttl
	})
	for id := range users {
		if _, ok := active[id]; !ok {
			delete(users, id)
		}
	}

	ids := lo.Keys(active)
	sort.Strings(ids)
	return ids
}

// Clear drops all marks for a conversation.
func (t *TypingTracker) Clear(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.marks, conversationID)
}
