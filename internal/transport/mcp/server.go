package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/driftlabs/drift/chat-client/internal/service"
)

type ServerConfig struct {
	Address string
}

type Server struct {
	mcpServer   *server.MCPServer
	sseServer   *server.SSEServer
	httpServer  *http.Server
	syncSvc     *service.SyncService
	presenceSvc *service.PresenceService
	historySvc  *service.HistoryService
	config      ServerConfig
}

func NewServer(
	syncSvc *service.SyncService,
	presenceSvc *service.PresenceService,
	historySvc *service.HistoryService,
	config ServerConfig,
) *Server {
	s := &Server{
		syncSvc:     syncSvc,
		presenceSvc: presenceSvc,
		historySvc:  historySvc,
		config:      config,
	}

	s.mcpServer = server.NewMCPServer(
		"drift-chat-client",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	s.sseServer = server.NewSSEServer(s.mcpServer,
		server.WithKeepAliveInterval(30*time.Second),
	)

	return s
}

func (s *Server) registerTools() {
	// List conversations tool
	s.mcpServer.AddTool(
		mcp.NewTool("chat_list_conversations",
			mcp.WithDescription("List the signed-in user's conversations with last message and typing state"),
		),
		s.handleListConversations,
	)

	// Get messages tool
	s.mcpServer.AddTool(
		mcp.NewTool("chat_get_messages",
			mcp.WithDescription("Select a conversation and return its message thread"),
			mcp.WithString("conversation_id",
				mcp.Required(),
				mcp.Description("ID of the conversation"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of messages to return (default 50, max 200)"),
			),
		),
		s.handleGetMessages,
	)

	// Send message tool
	s.mcpServer.AddTool(
		mcp.NewTool("chat_send_message",
			mcp.WithDescription("Send a text message to a conversation"),
			mcp.WithString("conversation_id",
				mcp.Required(),
				mcp.Description("ID of the conversation to send to"),
			),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Message text to send"),
			),
		),
		s.handleSendMessage,
	)

	// Start conversation tool
	s.mcpServer.AddTool(
		mcp.NewTool("chat_start_conversation",
			mcp.WithDescription("Start a private conversation with a user, or resume the existing one"),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("ID of the user to talk to"),
			),
		),
		s.handleStartConversation,
	)

	// Search messages tool
	s.mcpServer.AddTool(
		mcp.NewTool("chat_search_messages",
			mcp.WithDescription("Search locally cached messages by text content"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query text"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum results to return (default 20, max 100)"),
			),
		),
		s.handleSearchMessages,
	)

	// Presence tool
	s.mcpServer.AddTool(
		mcp.NewTool("chat_set_status",
			mcp.WithDescription("Set the signed-in user's presence status"),
			mcp.WithString("status",
				mcp.Required(),
				mcp.Description("One of: online, away, busy, offline"),
			),
		),
		s.handleSetStatus,
	)
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.Handle("/sse", s.sseServer.SSEHandler())
	mux.Handle("/message", s.sseServer.MessageHandler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: mux,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
