package domain

import "time"

type DeliveryStatus string

const (
	StatusSending   DeliveryStatus = "sending"
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusSeen      DeliveryStatus = "seen"
)

var statusRank = map[DeliveryStatus]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusSeen:      3,
}

// Advances reports whether moving from s to next is a forward transition.
// Delivery status never moves backwards.
func (s DeliveryStatus) Advances(next DeliveryStatus) bool {
	return statusRank[next] > statusRank[s]
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
	AttachmentVoice AttachmentType = "voice"
)

type Attachment struct {
	ID   string
	Type AttachmentType
	URL  string
	Name string
	Size int64
}

type Reaction struct {
	Emoji  string
	UserID string
}

type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	CreatedAt      time.Time
	Status         DeliveryStatus
	Edited         bool
	ReplyTo        string
	Reactions      []Reaction
	Attachments    []Attachment
}

// Clone returns an independent copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	if len(m.Reactions) > 0 {
		out.Reactions = append([]Reaction(nil), m.Reactions...)
	}
	if len(m.Attachments) > 0 {
		out.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	return &out
}

func NewTextMessage(id, conversationID, senderID, content string, createdAt time.Time) *Message {
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      createdAt,
		Status:         StatusSent,
	}
}
