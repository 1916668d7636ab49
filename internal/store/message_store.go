// Package store holds the client-side view state the sync engine converges:
// per-conversation message sequences, the conversation list and typing marks.
// All durable truth stays in the backend; everything here is rebuildable.
package store

import (
	"sync"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

// MessageStore keeps one ordered, id-keyed sequence per conversation.
// Snapshot fetches and push events both merge through it, so a message can
// never appear twice no matter how the two paths interleave, and a push
// that raced a snapshot survives the snapshot's replace.
type MessageStore struct {
	mu            sync.RWMutex
	conversations map[string]*sequence
}

type entry struct {
	msg      *domain.Message
	fromPush bool
}

type sequence struct {
	order []string
	byID  map[string]*entry
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		conversations: make(map[string]*sequence),
	}
}

// Put merges a push-delivered message into its conversation's sequence.
// Unknown ids append in arrival order; known ids update in place, with
// delivery status only ever moving forward. Reports whether the message
// was new to the sequence.
func (s *MessageStore) Put(msg *domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq(msg.ConversationID).merge(msg, true)
}

// Replace installs a snapshot for the conversation. Rows absent from the
// snapshot are dropped, except push-delivered ones the snapshot may simply
// be too old to contain; those keep their place at the tail.
func (s *MessageStore) Replace(conversationID string, msgs []*domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.conversations[conversationID]
	next := &sequence{byID: make(map[string]*entry)}
	for _, msg := range msgs {
		next.merge(msg, false)
	}

	if old != nil {
		for _, id := range old.order {
			e := old.byID[id]
			if e.fromPush && next.byID[id] == nil {
				next.merge(e.msg, true)
			}
		}
	}

	s.conversations[conversationID] = next
}

// Messages returns the conversation's sequence in arrival order. Entries are
// copies; the store keeps sole ownership of the structs it may still update.
func (s *MessageStore) Messages(conversationID string) []*domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.conversations[conversationID]
	if seq == nil {
		return nil
	}
	out := make([]*domain.Message, 0, len(seq.order))
	for _, id := range seq.order {
		out = append(out, seq.byID[id].msg.Clone())
	}
	return out
}

// LastMessage derives the conversation's most recent message by lookup.
// The store is the single source of truth; no second mutable copy exists.
func (s *MessageStore) LastMessage(conversationID string) *domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.conversations[conversationID]
	if seq == nil || len(seq.order) == 0 {
		return nil
	}
	return seq.byID[seq.order[len(seq.order)-1]].msg.Clone()
}

// Len reports the sequence length for a conversation.
func (s *MessageStore) Len(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.conversations[conversationID]
	if seq == nil {
		return 0
	}
	return len(seq.order)
}

func (s *MessageStore) seq(conversationID string) *sequence {
	seq := s.conversations[conversationID]
	if seq == nil {
		seq = &sequence{byID: make(map[string]*entry)}
		s.conversations[conversationID] = seq
	}
	return seq
}

func (q *sequence) merge(msg *domain.Message, fromPush bool) bool {
	if e, ok := q.byID[msg.ID]; ok {
		e.update(msg)
		if !fromPush {
			// Now snapshot-covered, so it no longer needs race protection.
			e.fromPush = false
		}
		return false
	}
	q.order = append(q.order, msg.ID)
	q.byID[msg.ID] = &entry{msg: msg.Clone(), fromPush: fromPush}
	return true
}

func (e *entry) update(next *domain.Message) {
	cur := e.msg
	if cur.Status.Advances(next.Status) {
		cur.Status = next.Status
	}
	if next.Edited {
		cur.Edited = true
		cur.Content = next.Content
	}
	if len(next.Reactions) > 0 {
		cur.Reactions = next.Reactions
	}
}
