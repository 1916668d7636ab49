package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/service"
)

// CommandHandler handles CLI commands
type CommandHandler struct {
	sync     *service.SyncService
	presence *service.PresenceService
	history  *service.HistoryService
	bus      domain.EventBus
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	syncSvc *service.SyncService,
	presenceSvc *service.PresenceService,
	historySvc *service.HistoryService,
	bus domain.EventBus,
) *CommandHandler {
	return &CommandHandler{
		sync:     syncSvc,
		presence: presenceSvc,
		history:  historySvc,
		bus:      bus,
	}
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a command string (e.g., "/send hello there")
func ParseCommand(input string) (*Command, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty command")
	}

	if !strings.HasPrefix(input, "/") {
		return nil, fmt.Errorf("commands must start with /")
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	return &Command{Name: name, Args: args}, nil
}

// SubscribeEvents exposes the domain event bus as CLI events.
func (h *CommandHandler) SubscribeEvents(types []domain.EventType) <-chan Event {
	in := h.bus.Subscribe(types)
	out := make(chan Event, 100)

	go func() {
		defer close(out)
		for evt := range in {
			out <- translateEvent(evt, h.sync.SelfID())
		}
	}()

	return out
}

func translateEvent(evt domain.Event, selfID string) Event {
	e := Event{Type: string(evt.Type()), Timestamp: evt.Timestamp()}

	switch v := evt.(type) {
	case domain.MessageReceivedEvent:
		e.Data = messageInfo(v.Message, selfID)
	case domain.MessageSentEvent:
		e.Data = messageInfo(v.Message, selfID)
	case domain.ConversationUpdatedEvent:
		e.Data = map[string]interface{}{"conversation_id": v.Conversation.ID}
	case domain.PresenceUpdatedEvent:
		e.Data = map[string]interface{}{
			"user_id":   v.UserID,
			"status":    string(v.Status),
			"last_seen": v.LastSeen,
		}
	case domain.TypingUpdatedEvent:
		e.Data = map[string]interface{}{
			"conversation_id": v.ConversationID,
			"user_id":         v.UserID,
		}
	case domain.ConnectionStatusEvent:
		e.Data = map[string]interface{}{
			"connected": v.Connected,
			"reason":    v.Reason,
		}
	}

	return e
}

// Execute executes a command and returns the result
func (h *CommandHandler) Execute(ctx context.Context, cmd *Command) (interface{}, error) {
	switch cmd.Name {
	case "help", "h":
		return h.cmdHelp()
	case "whoami":
		return map[string]string{"user_id": h.sync.SelfID(), "status": string(h.presence.Status())}, nil
	case "chats", "ls":
		return h.cmdChats()
	case "select", "open":
		return h.cmdSelect(ctx, cmd.Args)
	case "messages", "msg":
		return h.cmdMessages(cmd.Args)
	case "send":
		return h.cmdSend(ctx, cmd.Args)
	case "new":
		return h.cmdNew(ctx, cmd.Args)
	case "users":
		return h.cmdUsers()
	case "status":
		return h.cmdStatus(ctx, cmd.Args)
	case "typing":
		return h.cmdTyping(ctx)
	case "refresh":
		h.sync.LoadConversations(ctx)
		return map[string]string{"message": "conversation list reloaded"}, nil
	case "history":
		return h.cmdHistory(ctx, cmd.Args)
	case "search":
		return h.cmdSearch(ctx, cmd.Args)
	case "quit", "exit", "q":
		return map[string]bool{"quit": true}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s. Type /help for available commands", cmd.Name)
	}
}

func (h *CommandHandler) cmdHelp() (interface{}, error) {
	help := `Available commands:

Conversations:
  /chats, /ls              List conversations
  /select, /open <n|id>    Make a conversation active (index from /chats or id)
  /new <user-id>           Start (or resume) a private conversation
  /refresh                 Reload the conversation list

Messages:
  /messages, /msg [limit]  Show messages of the active conversation
  /send <text>             Send a message to the active conversation
  /typing                  Signal that you are typing

People:
  /users                   List people across your conversations with presence
  /status <online|away|busy|offline>  Set your presence status
  /whoami                  Show your user id and status

Local history:
  /history <conv-id> [limit]  Show cached history for a conversation
  /search <query> [limit]     Search cached messages

Other:
  /help, /h                Show this help
  /quit, /exit, /q         Exit the CLI`

	return map[string]string{"help": help}, nil
}

func (h *CommandHandler) cmdChats() (interface{}, error) {
	convs := h.sync.Conversations()
	active := h.sync.ActiveConversationID()

	infos := make([]ConversationInfo, 0, len(convs))
	for _, conv := range convs {
		infos = append(infos, conversationInfo(conv, h.sync.SelfID(), active))
	}

	return map[string]interface{}{
		"conversations": infos,
		"loading":       h.sync.Loading(),
	}, nil
}

func (h *CommandHandler) cmdSelect(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /select <n|conversation-id>")
	}

	id := args[0]
	if n, err := strconv.Atoi(id); err == nil {
		convs := h.sync.Conversations()
		if n < 1 || n > len(convs) {
			return nil, fmt.Errorf("no conversation #%d", n)
		}
		id = convs[n-1].ID
	}

	if err := h.sync.Select(ctx, id); err != nil {
		return nil, err
	}

	conv := h.sync.Conversation(id)
	return map[string]interface{}{
		"conversation": conversationInfo(conv, h.sync.SelfID(), id),
		"messages":     h.messageInfos(h.sync.Messages(id)),
	}, nil
}

func (h *CommandHandler) cmdMessages(args []string) (interface{}, error) {
	active := h.sync.ActiveConversationID()
	if active == "" {
		return nil, fmt.Errorf("no active conversation; use /select first")
	}

	msgs := h.sync.Messages(active)
	if len(args) > 0 {
		if limit, err := strconv.Atoi(args[0]); err == nil && limit > 0 && limit < len(msgs) {
			msgs = msgs[len(msgs)-limit:]
		}
	}

	return map[string]interface{}{
		"conversation_id": active,
		"messages":        h.messageInfos(msgs),
		"typing":          h.sync.TypingUsers(active),
	}, nil
}

func (h *CommandHandler) cmdSend(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /send <text>")
	}

	active := h.sync.ActiveConversationID()
	if active == "" {
		return nil, fmt.Errorf("no active conversation; use /select first")
	}

	msg, err := h.sync.SendMessage(ctx, active, strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	return messageInfo(msg, h.sync.SelfID()), nil
}

func (h *CommandHandler) cmdNew(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /new <user-id>")
	}

	conv, err := h.sync.CreateConversation(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return conversationInfo(conv, h.sync.SelfID(), h.sync.ActiveConversationID()), nil
}

func (h *CommandHandler) cmdUsers() (interface{}, error) {
	seen := make(map[string]bool)
	var users []UserInfo

	for _, conv := range h.sync.Conversations() {
		for _, p := range conv.Participants {
			if p.ID == h.sync.SelfID() || seen[p.ID] {
				continue
			}
			seen[p.ID] = true

			status, lastSeen := h.presence.StatusOf(p.ID)
			users = append(users, UserInfo{
				ID:       p.ID,
				Name:     p.DisplayName(),
				Status:   string(status),
				LastSeen: lastSeen,
			})
		}
	}

	return map[string]interface{}{"users": users}, nil
}

func (h *CommandHandler) cmdStatus(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 1 {
		return map[string]string{"status": string(h.presence.Status())}, nil
	}

	status := domain.ParsePresenceStatus(args[0])
	h.presence.SetStatus(ctx, status)
	return map[string]string{"message": fmt.Sprintf("status set to %s", status)}, nil
}

func (h *CommandHandler) cmdTyping(ctx context.Context) (interface{}, error) {
	active := h.sync.ActiveConversationID()
	if active == "" {
		return nil, fmt.Errorf("no active conversation; use /select first")
	}

	h.presence.Typing(ctx, active)
	return map[string]string{"message": "typing signalled"}, nil
}

func (h *CommandHandler) cmdHistory(ctx context.Context, args []string) (interface{}, error) {
	if h.history == nil {
		return nil, fmt.Errorf("local history is disabled")
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /history <conversation-id> [limit]")
	}

	limit := 50
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			limit = n
		}
	}

	msgs, err := h.history.Messages(ctx, args[0], limit, 0)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"conversation_id": args[0],
		"messages":        h.messageInfos(msgs),
	}, nil
}

func (h *CommandHandler) cmdSearch(ctx context.Context, args []string) (interface{}, error) {
	if h.history == nil {
		return nil, fmt.Errorf("local history is disabled")
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("usage: /search <query> [limit]")
	}

	limit := 20
	query := args[0]
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			limit = n
			query = strings.Join(args[:len(args)-1], " ")
		} else {
			query = strings.Join(args, " ")
		}
	}

	msgs, err := h.history.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"query":    query,
		"messages": h.messageInfos(msgs),
	}, nil
}

func (h *CommandHandler) messageInfos(msgs []*domain.Message) []MessageInfo {
	infos := make([]MessageInfo, 0, len(msgs))
	for _, msg := range msgs {
		infos = append(infos, messageInfo(msg, h.sync.SelfID()))
	}
	return infos
}

func messageInfo(msg *domain.Message, selfID string) MessageInfo {
	return MessageInfo{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Status:         string(msg.Status),
		Edited:         msg.Edited,
		CreatedAt:      msg.CreatedAt,
		IsFromMe:       msg.SenderID == selfID,
	}
}

func conversationInfo(conv *domain.Conversation, selfID, activeID string) ConversationInfo {
	info := ConversationInfo{
		ID:          conv.ID,
		Title:       conv.Title(selfID),
		Kind:        string(conv.Kind),
		UnreadCount: conv.UnreadCount,
		Typing:      conv.Typing,
		Active:      conv.ID == activeID,
	}
	if conv.LastMessage != nil {
		info.LastMessageText = conv.LastMessage.Content
		info.LastMessageTime = conv.LastMessage.CreatedAt
	}
	return info
}
