package backend

import (
	"time"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

const (
	TableConversations = "conversations"
	TableParticipants  = "participants"
	TableProfiles      = "profiles"
	TableMessages      = "messages"
	TablePresence      = "presence"
	TableTyping        = "typing"
)

// Column accessors tolerant of the two value shapes a Record can carry:
// native Go values from the memory client, JSON-decoded values from REST.

func StringField(rec Record, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func BoolField(rec Record, key string) bool {
	v, _ := rec[key].(bool)
	return v
}

func IntField(rec Record, key string) int {
	switch v := rec[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func TimeField(rec Record, key string) time.Time {
	switch v := rec[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func MessageRecord(m *domain.Message) Record {
	return Record{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"content":         m.Content,
		"created_at":      m.CreatedAt.UTC().Format(time.RFC3339Nano),
		"status":          string(m.Status),
		"is_edited":       m.Edited,
	}
}

func MessageFromRecord(rec Record) *domain.Message {
	return &domain.Message{
		ID:             StringField(rec, "id"),
		ConversationID: StringField(rec, "conversation_id"),
		SenderID:       StringField(rec, "sender_id"),
		Content:        StringField(rec, "content"),
		CreatedAt:      TimeField(rec, "created_at"),
		Status:         domain.DeliveryStatus(StringField(rec, "status")),
		Edited:         BoolField(rec, "is_edited"),
	}
}

func ConversationRecord(c *domain.Conversation) Record {
	return Record{
		"id":         c.ID,
		"type":       string(c.Kind),
		"name":       c.Name,
		"avatar":     c.AvatarURL,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func ConversationFromRecord(rec Record) *domain.Conversation {
	return &domain.Conversation{
		ID:          StringField(rec, "id"),
		Kind:        domain.ConversationKind(StringField(rec, "type")),
		Name:        StringField(rec, "name"),
		AvatarURL:   StringField(rec, "avatar"),
		UnreadCount: IntField(rec, "unread_count"),
		CreatedAt:   TimeField(rec, "created_at"),
	}
}

func ParticipantRecord(p domain.Participant) Record {
	return Record{
		"conversation_id": p.ConversationID,
		"user_id":         p.UserID,
		"role":            string(p.Role),
	}
}

func ParticipantFromRecord(rec Record) domain.Participant {
	return domain.Participant{
		ConversationID: StringField(rec, "conversation_id"),
		UserID:         StringField(rec, "user_id"),
		Role:           domain.ParticipantRole(StringField(rec, "role")),
	}
}

func ProfileRecord(u *domain.User) Record {
	return Record{
		"user_id":      u.ID,
		"display_name": u.Name,
		"avatar_url":   u.AvatarURL,
		"bio":          u.Bio,
		"status":       string(u.Status),
		"last_seen":    u.LastSeen.UTC().Format(time.RFC3339Nano),
	}
}

func ProfileFromRecord(rec Record) *domain.User {
	return &domain.User{
		ID:        StringField(rec, "user_id"),
		Name:      StringField(rec, "display_name"),
		AvatarURL: StringField(rec, "avatar_url"),
		Bio:       StringField(rec, "bio"),
		Status:    domain.ParsePresenceStatus(StringField(rec, "status")),
		LastSeen:  TimeField(rec, "last_seen"),
	}
}

// Presence rows are insert-only heartbeats; the newest row per user wins.
func PresenceRecord(userID string, status domain.PresenceStatus, at time.Time) Record {
	return Record{
		"user_id":    userID,
		"status":     string(status),
		"created_at": at.UTC().Format(time.RFC3339Nano),
	}
}

// Typing rows are insert-only pings scoped to one conversation.
func TypingRecord(conversationID, userID string, at time.Time) Record {
	return Record{
		"conversation_id": conversationID,
		"user_id":         userID,
		"created_at":      at.UTC().Format(time.RFC3339Nano),
	}
}
