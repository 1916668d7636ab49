package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driftlabs/drift/chat-client/internal/backend"
	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/service"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("/send hello there")
	require.NoError(t, err)
	require.Equal(t, "send", cmd.Name)
	require.Equal(t, []string{"hello", "there"}, cmd.Args)

	cmd, err = ParseCommand("  /chats  ")
	require.NoError(t, err)
	require.Equal(t, "chats", cmd.Name)
	require.Empty(t, cmd.Args)

	_, err = ParseCommand("")
	require.Error(t, err)

	_, err = ParseCommand("hello without slash")
	require.Error(t, err)
}

func newTestHandler(t *testing.T) (*CommandHandler, backend.Client) {
	t.Helper()

	const self = "00000000-0000-0000-0000-0000000000a1"
	const alice = "00000000-0000-0000-0000-0000000000a2"

	c := backend.NewMemoryClient()
	ctx := context.Background()

	for id, name := range map[string]string{self: "You", alice: "Alice Johnson"} {
		_, err := c.Insert(ctx, backend.TableProfiles, backend.Record{
			"user_id":      id,
			"display_name": name,
		})
		require.NoError(t, err)
	}
	_, err := c.Insert(ctx, backend.TableConversations, backend.Record{
		"id":         "conv-1",
		"type":       string(domain.ConversationPrivate),
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	for _, userID := range []string{self, alice} {
		_, err := c.Insert(ctx, backend.TableParticipants, backend.Record{
			"conversation_id": "conv-1",
			"user_id":         userID,
			"role":            string(domain.RoleMember),
		})
		require.NoError(t, err)
	}

	bus := domain.NewEventBus()
	syncSvc := service.NewSyncService(c, bus, nil, nil, self)
	syncSvc.LoadConversations(ctx)
	t.Cleanup(syncSvc.Close)

	presenceSvc := service.NewPresenceService(c, bus, self)

	return NewCommandHandler(syncSvc, presenceSvc, nil, bus), c
}

func TestCommandHandler_Chats(t *testing.T) {
	h, _ := newTestHandler(t)

	result, err := h.Execute(context.Background(), &Command{Name: "chats"})
	require.NoError(t, err)

	data := result.(map[string]interface{})
	infos := data["conversations"].([]ConversationInfo)
	require.Len(t, infos, 1)
	require.Equal(t, "conv-1", infos[0].ID)
	require.Equal(t, "Alice Johnson", infos[0].Title)
	require.False(t, infos[0].Active)
}

func TestCommandHandler_SelectByIndexAndSend(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	_, err := h.Execute(ctx, &Command{Name: "select", Args: []string{"1"}})
	require.NoError(t, err)

	result, err := h.Execute(ctx, &Command{Name: "send", Args: []string{"hello", "world"}})
	require.NoError(t, err)

	info := result.(MessageInfo)
	require.Equal(t, "hello world", info.Content)
	require.True(t, info.IsFromMe)
}

func TestCommandHandler_SendWithoutSelection(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Command{Name: "send", Args: []string{"hi"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no active conversation")
}

func TestCommandHandler_SelectBadIndex(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Command{Name: "select", Args: []string{"7"}})
	require.Error(t, err)
}

func TestCommandHandler_UnknownCommand(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Command{Name: "frobnicate"})
	require.Error(t, err)
}

func TestCommandHandler_HistoryDisabled(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Command{Name: "history", Args: []string{"conv-1"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "disabled")

	_, err = h.Execute(context.Background(), &Command{Name: "search", Args: []string{"hello"}})
	require.Error(t, err)
}

func TestParamsToArgs(t *testing.T) {
	require.Nil(t, paramsToArgs("send", nil))

	args := paramsToArgs("select", map[string]interface{}{"conversation_id": "conv-1"})
	require.Equal(t, []string{"conv-1"}, args)

	args = paramsToArgs("send", map[string]interface{}{"text": "hello world"})
	require.Equal(t, []string{"hello world"}, args)

	// JSON numbers decode as float64.
	args = paramsToArgs("history", map[string]interface{}{"conversation_id": "conv-1", "limit": float64(25)})
	require.Equal(t, []string{"conv-1", "25"}, args)

	args = paramsToArgs("search", map[string]interface{}{"query": "meeting", "limit": float64(5)})
	require.Equal(t, []string{"meeting", "5"}, args)
}
