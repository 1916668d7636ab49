package domain

import "time"

type ConversationKind string

const (
	ConversationPrivate ConversationKind = "private"
	ConversationGroup   ConversationKind = "group"
)

type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

type Participant struct {
	ConversationID string
	UserID         string
	Role           ParticipantRole
}

type Conversation struct {
	ID           string
	Kind         ConversationKind
	Name         string
	AvatarURL    string
	Participants []User
	LastMessage  *Message
	UnreadCount  int
	Typing       []string
	CreatedAt    time.Time
}

func NewPrivateConversation(id string, createdAt time.Time, participants ...User) *Conversation {
	return &Conversation{
		ID:           id,
		Kind:         ConversationPrivate,
		Participants: participants,
		CreatedAt:    createdAt,
	}
}

func NewGroupConversation(id, name string, createdAt time.Time, participants ...User) *Conversation {
	return &Conversation{
		ID:           id,
		Kind:         ConversationGroup,
		Name:         name,
		Participants: participants,
		CreatedAt:    createdAt,
	}
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the other member of a private conversation.
func (c *Conversation) Counterpart(selfID string) *User {
	if c.Kind != ConversationPrivate {
		return nil
	}
	for i := range c.Participants {
		if c.Participants[i].ID != selfID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Title returns a human-readable name: the group name, or the
// counterpart's display name for a private conversation.
func (c *Conversation) Title(selfID string) string {
	if c.Name != "" {
		return c.Name
	}
	if other := c.Counterpart(selfID); other != nil {
		return other.DisplayName()
	}
	return c.ID
}
