package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftlabs/drift/chat-client/internal/backend"
	"github.com/driftlabs/drift/chat-client/internal/domain"
)

// seedDemo fills the in-memory backend with a small set of profiles and
// conversations so the client is usable without any remote backend.
// Returns the id of the demo user to sign in as.
func seedDemo(ctx context.Context, client *backend.MemoryClient) (string, error) {
	selfID := uuid.NewString()

	people := []*domain.User{
		{ID: selfID, Name: "You", Status: domain.PresenceOnline},
		{ID: uuid.NewString(), Name: "Alice Johnson", Status: domain.PresenceOnline, Bio: "Coffee first."},
		{ID: uuid.NewString(), Name: "Bob Smith", Status: domain.PresenceAway},
		{ID: uuid.NewString(), Name: "Grace Lee", Status: domain.PresenceBusy, Bio: "Probably debugging."},
	}
	for _, u := range people {
		if _, err := client.Insert(ctx, backend.TableProfiles, backend.ProfileRecord(u)); err != nil {
			return "", fmt.Errorf("seed profile %s: %w", u.Name, err)
		}
	}

	openers := []string{
		"Hey! How are you doing?",
		"Can we meet tomorrow?",
		"Did you see the latest news?",
	}

	for i, other := range people[1:] {
		convRec, err := client.Insert(ctx, backend.TableConversations, backend.Record{
			"type": string(domain.ConversationPrivate),
		})
		if err != nil {
			return "", fmt.Errorf("seed conversation: %w", err)
		}
		convID := backend.StringField(convRec, "id")

		for _, p := range []domain.Participant{
			{ConversationID: convID, UserID: selfID, Role: domain.RoleAdmin},
			{ConversationID: convID, UserID: other.ID, Role: domain.RoleMember},
		} {
			if _, err := client.Insert(ctx, backend.TableParticipants, backend.ParticipantRecord(p)); err != nil {
				return "", fmt.Errorf("seed participant: %w", err)
			}
		}

		msg := domain.NewTextMessage("", convID, other.ID, openers[i%len(openers)],
			time.Now().Add(-time.Duration(i+1)*time.Hour))
		if _, err := client.Insert(ctx, backend.TableMessages, backend.MessageRecord(msg)); err != nil {
			return "", fmt.Errorf("seed message: %w", err)
		}
	}

	return selfID, nil
}
