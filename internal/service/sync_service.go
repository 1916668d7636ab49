package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftlabs/drift/chat-client/internal/backend"
	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/logger"
	"github.com/driftlabs/drift/chat-client/internal/repository"
	"github.com/driftlabs/drift/chat-client/internal/store"
)

// SyncService keeps the local view of conversations and messages convergent
// with backend state. Reads are snapshot fetches, live updates arrive over a
// push subscription scoped to the active conversation, and both paths merge
// by message id so no interleaving can duplicate or lose a message.
//
// Exactly one message subscription is alive at a time and it always tracks
// the active selection; switching tears the old one down first. A selection
// generation stamps every in-flight fetch and subscription so late results
// for a conversation the user has already left are discarded.
type SyncService struct {
	client   backend.Client
	bus      domain.EventBus
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository

	selfID string
	log    zerolog.Logger

	messages *store.MessageStore
	convs    *store.ConversationCache
	typing   *store.TypingTracker

	mu         sync.Mutex
	activeID   string
	generation uint64
	msgSub     backend.Subscription
	typingSub  backend.Subscription
	loading    bool
	loaded     bool
}

// NewSyncService wires the controller. The repositories are an optional
// local-history mirror; pass nil to run purely in memory.
func NewSyncService(
	client backend.Client,
	bus domain.EventBus,
	msgRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	selfID string,
) *SyncService {
	return &SyncService{
		client:   client,
		bus:      bus,
		msgRepo:  msgRepo,
		convRepo: convRepo,
		selfID:   selfID,
		log:      logger.Module("sync"),
		messages: store.NewMessageStore(),
		convs:    store.NewConversationCache(),
		typing:   store.NewTypingTracker(store.DefaultTypingTTL),
	}
}

func (s *SyncService) SelfID() string { return s.selfID }

// LoadConversations replaces the local conversation list with everything the
// signed-in user participates in, each entry carrying its participant
// profiles and most recent message. A query failure marks loading complete
// and keeps the previous list; only a first-load failure shows the empty
// state. Nothing fatal either way.
func (s *SyncService) LoadConversations(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.loaded = true
		s.mu.Unlock()
	}()

	convs, err := s.fetchConversations(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("loading conversations failed")
		// A failed refresh keeps whatever the previous load produced;
		// only the first load falls back to the empty state.
		if !s.Loaded() {
			s.convs.SetAll(nil)
		}
		return
	}

	s.convs.SetAll(convs)

	for _, conv := range convs {
		if s.convRepo != nil {
			if err := s.convRepo.Upsert(ctx, conv); err != nil {
				s.log.Warn().Err(err).Str("conversation", conv.ID).Msg("failed to mirror conversation")
			}
		}
	}
}

func (s *SyncService) fetchConversations(ctx context.Context) ([]*domain.Conversation, error) {
	memberships, err := s.client.Query(ctx, backend.TableParticipants,
		backend.Filter{"user_id": s.selfID}, nil)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	if len(memberships) == 0 {
		return nil, nil
	}

	convIDs := make([]string, 0, len(memberships))
	for _, rec := range memberships {
		convIDs = append(convIDs, backend.StringField(rec, "conversation_id"))
	}

	rows, err := s.client.Query(ctx, backend.TableConversations,
		backend.Filter{"id": convIDs},
		&backend.Order{Column: "created_at", Ascending: false})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	convs := make([]*domain.Conversation, 0, len(rows))
	for _, rec := range rows {
		conv := backend.ConversationFromRecord(rec)

		participants, err := s.fetchParticipants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		conv.Participants = participants

		if err := s.warmLastMessage(ctx, conv.ID); err != nil {
			return nil, err
		}

		convs = append(convs, conv)
	}

	return convs, nil
}

func (s *SyncService) fetchParticipants(ctx context.Context, conversationID string) ([]domain.User, error) {
	rows, err := s.client.Query(ctx, backend.TableParticipants,
		backend.Filter{"conversation_id": conversationID}, nil)
	if err != nil {
		return nil, fmt.Errorf("list participants of %s: %w", conversationID, err)
	}

	userIDs := make([]string, 0, len(rows))
	for _, rec := range rows {
		userIDs = append(userIDs, backend.StringField(rec, "user_id"))
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	profiles, err := s.client.Query(ctx, backend.TableProfiles,
		backend.Filter{"user_id": userIDs}, nil)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	byID := make(map[string]*domain.User, len(profiles))
	for _, rec := range profiles {
		u := backend.ProfileFromRecord(rec)
		byID[u.ID] = u
	}

	users := make([]domain.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := byID[id]; ok {
			users = append(users, *u)
		} else {
			users = append(users, domain.User{ID: id, Status: domain.PresenceOffline})
		}
	}
	return users, nil
}

// warmLastMessage seeds the store with the conversation's newest message so
// the list can derive its preview before the conversation is ever selected.
func (s *SyncService) warmLastMessage(ctx context.Context, conversationID string) error {
	rows, err := s.client.Query(ctx, backend.TableMessages,
		backend.Filter{"conversation_id": conversationID},
		&backend.Order{Column: "created_at", Ascending: false})
	if err != nil {
		return fmt.Errorf("load last message of %s: %w", conversationID, err)
	}
	if len(rows) == 0 {
		return nil
	}
	s.messages.Put(backend.MessageFromRecord(rows[0]))
	return nil
}

// Select makes the conversation the active selection: unread drops to zero,
// the push subscription moves over, and a fresh snapshot fetch runs. The
// subscription opens before the fetch is issued, so a message committed in
// between shows up on the feed and the id-merge collapses any overlap.
// Selecting the already-active conversation only re-zeroes unread.
func (s *SyncService) Select(ctx context.Context, conversationID string) error {
	if s.convs.Get(conversationID) == nil {
		return fmt.Errorf("unknown conversation: %s", conversationID)
	}

	s.mu.Lock()
	if s.activeID == conversationID && s.msgSub != nil {
		s.mu.Unlock()
		s.convs.ResetUnread(conversationID)
		return nil
	}

	s.teardownLocked()
	s.generation++
	gen := s.generation
	s.activeID = conversationID
	s.mu.Unlock()

	s.convs.ResetUnread(conversationID)
	s.typing.Clear(conversationID)

	msgSub, err := s.client.Subscribe(ctx, backend.TableMessages,
		backend.Filter{"conversation_id": conversationID})
	if err != nil {
		// Snapshot-only operation; re-selecting is the documented recovery
		// path for a missing feed.
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("message feed unavailable")
	} else {
		s.setMsgSub(gen, msgSub)
		go s.consumeMessages(msgSub, gen)
	}

	typingSub, err := s.client.Subscribe(ctx, backend.TableTyping,
		backend.Filter{"conversation_id": conversationID})
	if err != nil {
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("typing feed unavailable")
	} else {
		s.setTypingSub(gen, typingSub)
		go s.consumeTyping(typingSub, conversationID, gen)
	}

	s.loadMessages(ctx, conversationID, gen)
	return nil
}

// loadMessages fetches the full ascending snapshot and installs it, unless
// the selection moved while the query was in flight.
func (s *SyncService) loadMessages(ctx context.Context, conversationID string, gen uint64) {
	rows, err := s.client.Query(ctx, backend.TableMessages,
		backend.Filter{"conversation_id": conversationID},
		&backend.Order{Column: "created_at", Ascending: true})
	if err != nil {
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("message snapshot failed")
		return
	}

	if !s.generationCurrent(gen) {
		s.log.Debug().Str("conversation", conversationID).Msg("discarding stale snapshot")
		return
	}

	msgs := make([]*domain.Message, 0, len(rows))
	for _, rec := range rows {
		msgs = append(msgs, backend.MessageFromRecord(rec))
	}
	s.messages.Replace(conversationID, msgs)

	if s.msgRepo != nil {
		for _, msg := range msgs {
			if err := s.msgRepo.Upsert(ctx, msg); err != nil {
				s.log.Warn().Err(err).Str("message", msg.ID).Msg("failed to mirror message")
			}
		}
	}
}

func (s *SyncService) consumeMessages(sub backend.Subscription, gen uint64) {
	for rec := range sub.Records() {
		if !s.generationCurrent(gen) {
			return
		}

		msg := backend.MessageFromRecord(rec)
		added := s.messages.Put(msg)

		if s.msgRepo != nil {
			if err := s.msgRepo.CreateOrIgnore(context.Background(), msg); err != nil {
				s.log.Warn().Err(err).Str("message", msg.ID).Msg("failed to mirror pushed message")
			}
		}

		if !added {
			// Echo of a snapshot-covered row; the merge already absorbed it.
			continue
		}

		if msg.SenderID == s.selfID {
			s.bus.Publish(domain.MessageSentEvent{Message: msg, EventTime: time.Now()})
		} else {
			s.bus.Publish(domain.MessageReceivedEvent{Message: msg, EventTime: time.Now()})
		}
	}
}

func (s *SyncService) consumeTyping(sub backend.Subscription, conversationID string, gen uint64) {
	for rec := range sub.Records() {
		if !s.generationCurrent(gen) {
			return
		}

		userID := backend.StringField(rec, "user_id")
		if userID == "" || userID == s.selfID {
			continue
		}

		at := backend.TimeField(rec, "created_at")
		if at.IsZero() {
			at = time.Now()
		}
		s.typing.Mark(conversationID, userID, at)

		s.bus.Publish(domain.TypingUpdatedEvent{
			ConversationID: conversationID,
			UserID:         userID,
			EventTime:      time.Now(),
		})
	}
}

// SendMessage inserts the message backend-side with status "sent". There is
// no optimistic local append: the message becomes visible when the feed
// echoes it back or the next snapshot covers it, which keeps the sender's
// view identical to every other participant's.
func (s *SyncService) SendMessage(ctx context.Context, conversationID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content is empty")
	}
	if s.convs.Get(conversationID) == nil {
		return nil, fmt.Errorf("unknown conversation: %s", conversationID)
	}

	rec, err := s.client.Insert(ctx, backend.TableMessages, backend.Record{
		"conversation_id": conversationID,
		"sender_id":       s.selfID,
		"content":         content,
		"status":          string(domain.StatusSent),
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	return backend.MessageFromRecord(rec), nil
}

// CreateConversation starts (or resumes) a private conversation with the
// target user. An existing private conversation short-circuits with zero
// backend writes. Otherwise the conversation row and both participant rows
// are inserted, and only after the backend confirmed all of them does the
// local cache gain an entry. A failure between the inserts can leave an
// orphaned conversation row backend-side; it has no participants, is never
// surfaced to anyone, and nothing local mutates.
func (s *SyncService) CreateConversation(ctx context.Context, targetUserID string) (*domain.Conversation, error) {
	if targetUserID == "" || targetUserID == s.selfID {
		return nil, fmt.Errorf("invalid target user")
	}

	if existing := s.convs.FindPrivateWith(targetUserID); existing != nil {
		if err := s.Select(ctx, existing.ID); err != nil {
			return nil, err
		}
		return existing, nil
	}

	convRec, err := s.client.Insert(ctx, backend.TableConversations, backend.Record{
		"type": string(domain.ConversationPrivate),
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	convID := backend.StringField(convRec, "id")

	for _, p := range []domain.Participant{
		{ConversationID: convID, UserID: s.selfID, Role: domain.RoleAdmin},
		{ConversationID: convID, UserID: targetUserID, Role: domain.RoleMember},
	} {
		if _, err := s.client.Insert(ctx, backend.TableParticipants, backend.ParticipantRecord(p)); err != nil {
			return nil, fmt.Errorf("add participant %s: %w", p.UserID, err)
		}
	}

	participants, err := s.fetchParticipants(ctx, convID)
	if err != nil {
		s.log.Warn().Err(err).Str("conversation", convID).Msg("profile load after create failed")
		participants = []domain.User{
			{ID: s.selfID},
			{ID: targetUserID},
		}
	}

	conv := backend.ConversationFromRecord(convRec)
	conv.Participants = participants
	s.convs.Prepend(conv)

	if s.convRepo != nil {
		if err := s.convRepo.Upsert(ctx, conv); err != nil {
			s.log.Warn().Err(err).Str("conversation", conv.ID).Msg("failed to mirror conversation")
		}
	}

	s.bus.Publish(domain.ConversationUpdatedEvent{Conversation: conv, EventTime: time.Now()})

	if err := s.Select(ctx, conv.ID); err != nil {
		return nil, err
	}
	return conv, nil
}

// Conversations returns the cached list with derived last-message and
// typing state filled in for rendering. Entries are per-call copies, safe
// to hold while the engine keeps syncing.
func (s *SyncService) Conversations() []*domain.Conversation {
	now := time.Now()
	convs := s.convs.All()
	for _, conv := range convs {
		conv.LastMessage = s.messages.LastMessage(conv.ID)
		conv.Typing = s.typing.Active(conv.ID, now)
	}
	return convs
}

func (s *SyncService) Conversation(id string) *domain.Conversation {
	conv := s.convs.Get(id)
	if conv == nil {
		return nil
	}
	conv.LastMessage = s.messages.LastMessage(id)
	conv.Typing = s.typing.Active(id, time.Now())
	return conv
}

// Messages returns the local sequence for a conversation in arrival order.
func (s *SyncService) Messages(conversationID string) []*domain.Message {
	return s.messages.Messages(conversationID)
}

// TypingUsers returns who is currently typing in the conversation.
func (s *SyncService) TypingUsers(conversationID string) []string {
	return s.typing.Active(conversationID, time.Now())
}

// ActiveConversationID returns the current selection, or "".
func (s *SyncService) ActiveConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Loading reports whether the initial conversation load is still running.
func (s *SyncService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Loaded reports whether the initial conversation load has completed,
// successfully or not. Together with an empty list it drives the UI's
// empty state.
func (s *SyncService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Close tears down any live subscriptions.
func (s *SyncService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.generation++
	s.activeID = ""
}

func (s *SyncService) teardownLocked() {
	if s.msgSub != nil {
		s.msgSub.Close()
		s.msgSub = nil
	}
	if s.typingSub != nil {
		s.typingSub.Close()
		s.typingSub = nil
	}
}

func (s *SyncService) setMsgSub(gen uint64, sub backend.Subscription) {
	s.mu.Lock()
	stale := gen != s.generation
	if !stale {
		s.msgSub = sub
	}
	s.mu.Unlock()

	if stale {
		// Selection already moved on; this feed lost the race.
		sub.Close()
	}
}

func (s *SyncService) setTypingSub(gen uint64, sub backend.Subscription) {
	s.mu.Lock()
	stale := gen != s.generation
	if !stale {
		s.typingSub = sub
	}
	s.mu.Unlock()

	if stale {
		sub.Close()
	}
}

func (s *SyncService) generationCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}
