package service

import (
	"context"

	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/repository"
)

// HistoryService reads the local sqlite mirror: message history that
// survived restarts and full-text-ish search over it.
type HistoryService struct {
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
}

func NewHistoryService(msgRepo repository.MessageRepository, convRepo repository.ConversationRepository) *HistoryService {
	return &HistoryService{
		msgRepo:  msgRepo,
		convRepo: convRepo,
	}
}

func (s *HistoryService) Messages(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, error) {
	return s.msgRepo.GetByConversation(ctx, conversationID, limit, offset)
}

func (s *HistoryService) Search(ctx context.Context, query string, limit int) ([]*domain.Message, error) {
	return s.msgRepo.Search(ctx, query, limit)
}

func (s *HistoryService) Conversations(ctx context.Context, limit, offset int) ([]*domain.Conversation, error) {
	return s.convRepo.GetAll(ctx, limit, offset)
}
