package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftlabs/drift/chat-client/internal/backend"
	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/logger"
)

const (
	heartbeatEvery = 30 * time.Second
	// A peer with no heartbeat for this long reads as offline.
	presenceStaleAfter = 90 * time.Second
	typingThrottle     = 3 * time.Second
)

type peerPresence struct {
	status   domain.PresenceStatus
	lastSeen time.Time
}

// PresenceService publishes the signed-in user's status as insert-only
// heartbeat rows and folds everyone else's heartbeats into a live presence
// map. Typing works the same way: throttled ping rows, consumed by the sync
// controller's typing feed.
type PresenceService struct {
	client backend.Client
	bus    domain.EventBus
	selfID string
	log    zerolog.Logger

	mu         sync.Mutex
	status     domain.PresenceStatus
	peers      map[string]peerPresence
	lastTyping map[string]time.Time
	sub        backend.Subscription
	stop       chan struct{}
	started    bool
}

func NewPresenceService(client backend.Client, bus domain.EventBus, selfID string) *PresenceService {
	return &PresenceService{
		client:     client,
		bus:        bus,
		selfID:     selfID,
		log:        logger.Module("presence"),
		status:     domain.PresenceOnline,
		peers:      make(map[string]peerPresence),
		lastTyping: make(map[string]time.Time),
	}
}

// Start opens the controller-lifetime presence feed, warms the peer map
// from recent heartbeats and begins emitting our own.
func (s *PresenceService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	sub, err := s.client.Subscribe(ctx, backend.TablePresence, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("presence feed unavailable")
	} else {
		s.mu.Lock()
		s.sub = sub
		s.mu.Unlock()
		go s.consume(sub)
	}

	s.warm(ctx)
	s.beat(ctx)
	go s.heartbeatLoop()

	return nil
}

// SetStatus changes the published status and emits a heartbeat immediately.
func (s *PresenceService) SetStatus(ctx context.Context, status domain.PresenceStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.beat(ctx)
}

func (s *PresenceService) Status() domain.PresenceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// StatusOf resolves a peer's current presence; silence demotes to offline.
func (s *PresenceService) StatusOf(userID string) (domain.PresenceStatus, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peer, ok := s.peers[userID]
	if !ok || time.Since(peer.lastSeen) > presenceStaleAfter {
		return domain.PresenceOffline, peer.lastSeen
	}
	return peer.status, peer.lastSeen
}

// Typing emits a typing ping for the conversation, throttled so holding a
// key down does not flood the backend.
func (s *PresenceService) Typing(ctx context.Context, conversationID string) {
	now := time.Now()

	s.mu.Lock()
	if now.Sub(s.lastTyping[conversationID]) < typingThrottle {
		s.mu.Unlock()
		return
	}
	s.lastTyping[conversationID] = now
	s.mu.Unlock()

	if _, err := s.client.Insert(ctx, backend.TableTyping,
		backend.TypingRecord(conversationID, s.selfID, now)); err != nil {
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("typing ping failed")
	}
}

// Stop ends heartbeats and closes the presence feed.
func (s *PresenceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	close(s.stop)
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
}

func (s *PresenceService) heartbeatLoop() {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()

	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.beat(context.Background())
		}
	}
}

func (s *PresenceService) beat(ctx context.Context) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	if _, err := s.client.Insert(ctx, backend.TablePresence,
		backend.PresenceRecord(s.selfID, status, time.Now())); err != nil {
		s.log.Warn().Err(err).Msg("heartbeat failed")
	}
}

func (s *PresenceService) warm(ctx context.Context) {
	rows, err := s.client.Query(ctx, backend.TablePresence, nil,
		&backend.Order{Column: "created_at", Ascending: true})
	if err != nil {
		s.log.Warn().Err(err).Msg("presence warm-up query failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range rows {
		s.applyLocked(rec)
	}
}

func (s *PresenceService) consume(sub backend.Subscription) {
	for rec := range sub.Records() {
		s.mu.Lock()
		userID, status, lastSeen := s.applyLocked(rec)
		s.mu.Unlock()

		if userID == "" || userID == s.selfID {
			continue
		}
		s.bus.Publish(domain.PresenceUpdatedEvent{
			UserID:    userID,
			Status:    status,
			LastSeen:  lastSeen,
			EventTime: time.Now(),
		})
	}
}

func (s *PresenceService) applyLocked(rec backend.Record) (string, domain.PresenceStatus, time.Time) {
	userID := backend.StringField(rec, "user_id")
	if userID == "" {
		return "", domain.PresenceOffline, time.Time{}
	}

	status := domain.ParsePresenceStatus(backend.StringField(rec, "status"))
	at := backend.TimeField(rec, "created_at")
	if at.IsZero() {
		at = time.Now()
	}

	// Heartbeats can arrive out of order across reconnections.
	if prev, ok := s.peers[userID]; !ok || at.After(prev.lastSeen) {
		s.peers[userID] = peerPresence{status: status, lastSeen: at}
	}
	peer := s.peers[userID]
	return userID, peer.status, peer.lastSeen
}
