package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

func (s *Server) handleListConversations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	convs := s.syncSvc.Conversations()

	if len(convs) == 0 {
		if s.syncSvc.Loading() {
			return mcp.NewToolResultText("Conversations are still loading, try again shortly."), nil
		}
		return mcp.NewToolResultText("No conversations yet. Use chat_start_conversation to begin one."), nil
	}

	selfID := s.syncSvc.SelfID()
	active := s.syncSvc.ActiveConversationID()

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d conversation(s):\n\n", len(convs)))

	for i, conv := range convs {
		kind := "Private"
		if conv.Kind == domain.ConversationGroup {
			kind = "Group"
		}

		marker := ""
		if conv.ID == active {
			marker = " [active]"
		}

		result.WriteString(fmt.Sprintf("%d. %s (%s)%s\n", i+1, conv.Title(selfID), kind, marker))
		result.WriteString(fmt.Sprintf("   ID: %s\n", conv.ID))

		if conv.UnreadCount > 0 {
			result.WriteString(fmt.Sprintf("   Unread: %d message(s)\n", conv.UnreadCount))
		}

		if conv.LastMessage != nil {
			preview := conv.LastMessage.Content
			if len(preview) > 60 {
				preview = preview[:60] + "..."
			}
			result.WriteString(fmt.Sprintf("   Last: %s\n", preview))
			result.WriteString(fmt.Sprintf("   Time: %s\n", conv.LastMessage.CreatedAt.Format("2006-01-02 15:04")))
		}

		if len(conv.Typing) > 0 {
			result.WriteString(fmt.Sprintf("   Typing: %s\n", strings.Join(conv.Typing, ", ")))
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleGetMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		return mcp.NewToolResultError("conversation_id is required"), nil
	}

	limit := request.GetInt("limit", 50)
	if limit > 200 {
		limit = 200
	}
	if limit <= 0 {
		limit = 50
	}

	if err := s.syncSvc.Select(ctx, conversationID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to open conversation: %v", err)), nil
	}

	messages := s.syncSvc.Messages(conversationID)
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No messages in conversation %s yet", conversationID)), nil
	}

	selfID := s.syncSvc.SelfID()

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Messages from %s (%d):\n\n", conversationID, len(messages)))

	for _, msg := range messages {
		sender := "Me"
		if msg.SenderID != selfID {
			sender = msg.SenderID
		}

		edited := ""
		if msg.Edited {
			edited = " (edited)"
		}

		result.WriteString(fmt.Sprintf("[%s] %s%s:\n", msg.CreatedAt.Format("2006-01-02 15:04"), sender, edited))
		result.WriteString(fmt.Sprintf("  %s\n", msg.Content))
		result.WriteString(fmt.Sprintf("  status: %s | ID: %s\n\n", msg.Status, msg.ID))
	}

	if typing := s.syncSvc.TypingUsers(conversationID); len(typing) > 0 {
		result.WriteString(fmt.Sprintf("Currently typing: %s\n", strings.Join(typing, ", ")))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		return mcp.NewToolResultError("conversation_id is required"), nil
	}

	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	msg, err := s.syncSvc.SendMessage(ctx, conversationID, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Message sent (id %s). It appears in the thread once the live feed echoes it.", msg.ID)), nil
}

func (s *Server) handleStartConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	conv, err := s.syncSvc.CreateConversation(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start conversation: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Conversation with %s is active (id %s).",
		conv.Title(s.syncSvc.SelfID()), conv.ID)), nil
}

func (s *Server) handleSearchMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.historySvc == nil {
		return mcp.NewToolResultError("local history is disabled"), nil
	}

	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit > 100 {
		limit = 100
	}
	if limit <= 0 {
		limit = 20
	}

	messages, err := s.historySvc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No cached messages match '%s'", query)), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Search results for '%s' (%d found):\n\n", query, len(messages)))

	for i, msg := range messages {
		result.WriteString(fmt.Sprintf("%d. [%s] %s:\n", i+1, msg.CreatedAt.Format("2006-01-02 15:04"), msg.SenderID))

		text := msg.Content
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		result.WriteString(fmt.Sprintf("   %s\n", text))
		result.WriteString(fmt.Sprintf("   Conversation: %s | ID: %s\n\n", msg.ConversationID, msg.ID))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) handleSetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := request.GetString("status", "")
	if status == "" {
		return mcp.NewToolResultError("status is required"), nil
	}

	parsed := domain.ParsePresenceStatus(status)
	s.presenceSvc.SetStatus(ctx, parsed)

	return mcp.NewToolResultText(fmt.Sprintf("Presence status set to %s.", parsed)), nil
}
