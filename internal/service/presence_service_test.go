package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/drift/chat-client/internal/backend"
	"github.com/driftlabs/drift/chat-client/internal/domain"
)

func TestPresenceService_StartEmitsHeartbeat(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()

	svc := NewPresenceService(c, domain.NewEventBus(), selfID)
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	rows, err := c.Query(ctx, backend.TablePresence, backend.Filter{"user_id": selfID}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, string(domain.PresenceOnline), backend.StringField(rows[0], "status"))
}

func TestPresenceService_PeerHeartbeats(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()
	bus := domain.NewEventBus()

	svc := NewPresenceService(c, bus, selfID)
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	events := bus.Subscribe([]domain.EventType{domain.EventTypePresenceUpdated})

	_, err := c.Insert(ctx, backend.TablePresence,
		backend.PresenceRecord(aliceID, domain.PresenceAway, time.Now()))
	require.NoError(t, err)

	ev := waitEvent(t, events)
	updated := ev.(domain.PresenceUpdatedEvent)
	require.Equal(t, aliceID, updated.UserID)
	require.Equal(t, domain.PresenceAway, updated.Status)

	status, _ := svc.StatusOf(aliceID)
	require.Equal(t, domain.PresenceAway, status)
}

func TestPresenceService_WarmsFromExistingHeartbeats(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()

	_, err := c.Insert(ctx, backend.TablePresence,
		backend.PresenceRecord(aliceID, domain.PresenceBusy, time.Now()))
	require.NoError(t, err)

	svc := NewPresenceService(c, domain.NewEventBus(), selfID)
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	status, _ := svc.StatusOf(aliceID)
	require.Equal(t, domain.PresenceBusy, status)
}

func TestPresenceService_SilentPeerReadsOffline(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()

	// Last heartbeat is well past the staleness window.
	_, err := c.Insert(ctx, backend.TablePresence,
		backend.PresenceRecord(aliceID, domain.PresenceOnline, time.Now().Add(-10*time.Minute)))
	require.NoError(t, err)

	svc := NewPresenceService(c, domain.NewEventBus(), selfID)
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	status, _ := svc.StatusOf(aliceID)
	require.Equal(t, domain.PresenceOffline, status)

	status, _ = svc.StatusOf("never-seen")
	require.Equal(t, domain.PresenceOffline, status)
}

func TestPresenceService_OutOfOrderHeartbeatIgnored(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()
	bus := domain.NewEventBus()

	svc := NewPresenceService(c, bus, selfID)
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	events := bus.Subscribe([]domain.EventType{domain.EventTypePresenceUpdated})

	now := time.Now()
	_, err := c.Insert(ctx, backend.TablePresence,
		backend.PresenceRecord(aliceID, domain.PresenceOnline, now))
	require.NoError(t, err)
	_, err = c.Insert(ctx, backend.TablePresence,
		backend.PresenceRecord(aliceID, domain.PresenceAway, now.Add(-time.Minute)))
	require.NoError(t, err)

	waitEvent(t, events)
	waitEvent(t, events)

	status, _ := svc.StatusOf(aliceID)
	require.Equal(t, domain.PresenceOnline, status)
}

func TestPresenceService_SetStatus(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()

	svc := NewPresenceService(c, domain.NewEventBus(), selfID)
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	svc.SetStatus(ctx, domain.PresenceBusy)
	require.Equal(t, domain.PresenceBusy, svc.Status())

	rows, err := c.Query(ctx, backend.TablePresence,
		backend.Filter{"user_id": selfID}, &backend.Order{Column: "created_at", Ascending: false})
	require.NoError(t, err)
	require.Equal(t, string(domain.PresenceBusy), backend.StringField(rows[0], "status"))
}

func TestPresenceService_TypingThrottled(t *testing.T) {
	c := backend.NewMemoryClient()
	ctx := context.Background()

	svc := NewPresenceService(c, domain.NewEventBus(), selfID)

	svc.Typing(ctx, "conv-1")
	svc.Typing(ctx, "conv-1")
	svc.Typing(ctx, "conv-2")

	rows, err := c.Query(ctx, backend.TableTyping, backend.Filter{"conversation_id": "conv-1"}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = c.Query(ctx, backend.TableTyping, backend.Filter{"conversation_id": "conv-2"}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
