package repository

import (
	"strings"
	"time"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

type MessageModel struct {
	ID             string    `gorm:"primaryKey;column:id"`
	ConversationID string    `gorm:"column:conversation_id;index:idx_conv_created"`
	SenderID       string    `gorm:"column:sender_id"`
	Content        string    `gorm:"column:content"`
	Status         string    `gorm:"column:status"`
	IsEdited       bool      `gorm:"column:is_edited"`
	ReplyTo        string    `gorm:"column:reply_to"`
	MessageTime    time.Time `gorm:"column:message_time;index:idx_conv_created"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (MessageModel) TableName() string { return "messages" }

type ConversationModel struct {
	ID           string    `gorm:"primaryKey;column:id"`
	Kind         string    `gorm:"column:kind"`
	Name         string    `gorm:"column:name"`
	AvatarURL    string    `gorm:"column:avatar_url"`
	Participants string    `gorm:"column:participants"`
	UnreadCount  int       `gorm:"column:unread_count"`
	StartedAt    time.Time `gorm:"column:started_at"`
	LastActivity time.Time `gorm:"column:last_activity;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (ConversationModel) TableName() string { return "conversations" }

// Conversion functions

func MessageModelToDomain(m *MessageModel) *domain.Message {
	if m == nil {
		return nil
	}
	return &domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Status:         domain.DeliveryStatus(m.Status),
		Edited:         m.IsEdited,
		ReplyTo:        m.ReplyTo,
		CreatedAt:      m.MessageTime,
	}
}

func MessageDomainToModel(msg *domain.Message) *MessageModel {
	if msg == nil {
		return nil
	}
	return &MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Status:         string(msg.Status),
		IsEdited:       msg.Edited,
		ReplyTo:        msg.ReplyTo,
		MessageTime:    msg.CreatedAt,
	}
}

func ConversationModelToDomain(m *ConversationModel) *domain.Conversation {
	if m == nil {
		return nil
	}
	conv := &domain.Conversation{
		ID:          m.ID,
		Kind:        domain.ConversationKind(m.Kind),
		Name:        m.Name,
		AvatarURL:   m.AvatarURL,
		UnreadCount: m.UnreadCount,
		CreatedAt:   m.StartedAt,
	}
	if m.Participants != "" {
		for _, id := range strings.Split(m.Participants, ",") {
			conv.Participants = append(conv.Participants, domain.User{ID: id})
		}
	}
	return conv
}

func ConversationDomainToModel(conv *domain.Conversation) *ConversationModel {
	if conv == nil {
		return nil
	}
	ids := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.ID)
	}
	model := &ConversationModel{
		ID:           conv.ID,
		Kind:         string(conv.Kind),
		Name:         conv.Name,
		AvatarURL:    conv.AvatarURL,
		Participants: strings.Join(ids, ","),
		UnreadCount:  conv.UnreadCount,
		StartedAt:    conv.CreatedAt,
	}
	if conv.LastMessage != nil {
		model.LastActivity = conv.LastMessage.CreatedAt
	}
	return model
}
