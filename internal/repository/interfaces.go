package repository

import (
	"context"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

// The repositories mirror synced state into a local sqlite file so history
// and search survive restarts. They are a cache, never the source of truth;
// the backend wins on any disagreement.

type MessageRepository interface {
	CreateOrIgnore(ctx context.Context, msg *domain.Message) error
	Upsert(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	GetByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.Message, error)
	DeleteByConversation(ctx context.Context, conversationID string) error
}

type ConversationRepository interface {
	Upsert(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	GetAll(ctx context.Context, limit, offset int) ([]*domain.Conversation, error)
	Delete(ctx context.Context, id string) error
}
