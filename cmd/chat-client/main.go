package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftlabs/drift/chat-client/internal/backend"
	"github.com/driftlabs/drift/chat-client/internal/cli"
	"github.com/driftlabs/drift/chat-client/internal/config"
	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/logger"
	"github.com/driftlabs/drift/chat-client/internal/repository"
	"github.com/driftlabs/drift/chat-client/internal/service"
	"github.com/driftlabs/drift/chat-client/internal/session"
	mcpTransport "github.com/driftlabs/drift/chat-client/internal/transport/mcp"
)

// RunMode defines how the application runs
type RunMode string

const (
	RunModeServer      RunMode = "server"
	RunModeInteractive RunMode = "interactive"
	RunModeHeadless    RunMode = "headless"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	ctx := context.Background()

	// The local cache is best-effort; the client runs fine without it.
	var (
		msgRepo  repository.MessageRepository
		convRepo repository.ConversationRepository
		history  *service.HistoryService
	)
	if db, err := repository.Open(cfg.CachePath); err != nil {
		logger.Log.Warn().Err(err).Msg("local cache unavailable")
	} else {
		msgRepo = repository.NewMessageRepository(db)
		convRepo = repository.NewConversationRepository(db)
		history = service.NewHistoryService(msgRepo, convRepo)
	}

	client, selfID, err := connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	bus := domain.NewEventBus()

	syncSvc := service.NewSyncService(client, bus, msgRepo, convRepo, selfID)
	presenceSvc := service.NewPresenceService(client, bus, selfID)

	if err := presenceSvc.Start(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("presence unavailable")
	}

	syncSvc.LoadConversations(ctx)
	bus.Publish(domain.ConnectionStatusEvent{Connected: true, EventTime: time.Now()})

	switch RunMode(cfg.Mode) {
	case RunModeInteractive:
		runCLIMode(ctx, syncSvc, presenceSvc, history, bus, false)
	case RunModeHeadless:
		runCLIMode(ctx, syncSvc, presenceSvc, history, bus, true)
	default:
		runServerMode(ctx, cfg, syncSvc, presenceSvc, history, bus)
	}
}

func connect(ctx context.Context, cfg *config.Config) (backend.Client, string, error) {
	if cfg.OfflineDemo {
		mem := backend.NewMemoryClient()
		selfID, err := seedDemo(ctx, mem)
		return mem, selfID, err
	}

	if cfg.Email == "" || cfg.Password == "" {
		return nil, "", fmt.Errorf("CHAT_EMAIL and CHAT_PASSWORD are required (or run with -demo)")
	}

	sess, err := session.SignIn(ctx, cfg.BackendURL, cfg.BackendKey, cfg.Email, cfg.Password)
	if err != nil {
		return nil, "", err
	}

	rest := backend.NewRestClient(backend.RestConfig{
		BaseURL:     cfg.BackendURL,
		RealtimeURL: cfg.RealtimeURL,
		APIKey:      cfg.BackendKey,
		AccessToken: sess.AccessToken,
	})
	return rest, sess.UserID, nil
}

func runServerMode(
	ctx context.Context,
	cfg *config.Config,
	syncSvc *service.SyncService,
	presenceSvc *service.PresenceService,
	history *service.HistoryService,
	bus domain.EventBus,
) {
	log.Printf("Drift chat client starting...")
	log.Printf("Cache: %s", cfg.CachePath)
	log.Printf("MCP address: %s", cfg.MCPAddress)

	mcpServer := mcpTransport.NewServer(
		syncSvc,
		presenceSvc,
		history,
		mcpTransport.ServerConfig{Address: cfg.MCPAddress},
	)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP SSE server on %s", cfg.MCPAddress)
		if err := mcpServer.Start(); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Print ready message for subprocess coordination
	fmt.Println("ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("Stopping presence...")
	presenceSvc.Stop()

	log.Printf("Closing sync engine...")
	syncSvc.Close()

	log.Printf("Stopping MCP server...")
	if err := mcpServer.Stop(shutdownCtx); err != nil {
		log.Printf("MCP server stop error: %v", err)
	}

	log.Printf("Shutdown complete")
}

func runCLIMode(
	ctx context.Context,
	syncSvc *service.SyncService,
	presenceSvc *service.PresenceService,
	history *service.HistoryService,
	bus domain.EventBus,
	headless bool,
) {
	handler := cli.NewCommandHandler(syncSvc, presenceSvc, history, bus)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	var err error
	if headless {
		err = cli.NewHeadlessCLI(handler).Run(ctx)
	} else {
		err = cli.NewInteractiveCLI(handler).Run(ctx)
	}
	if err != nil && err != context.Canceled {
		log.Printf("CLI error: %v", err)
	}

	presenceSvc.Stop()
	syncSvc.Close()
}
