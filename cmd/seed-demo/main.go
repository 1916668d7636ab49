package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/driftlabs/drift/chat-client/internal/domain"
	"github.com/driftlabs/drift/chat-client/internal/repository"
)

// Seeds the local cache database with demo conversations and history so the
// /history and /search commands have something to chew on without a backend.
func main() {
	dbPath := "demo_chat.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	fmt.Printf("Using cache database at: %s\n", dbPath)

	db, err := repository.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open cache database: %v", err)
	}

	ctx := context.Background()
	if err := db.WithContext(ctx).Exec("DELETE FROM messages").Error; err != nil {
		log.Fatalf("Failed to clear messages: %v", err)
	}
	if err := db.WithContext(ctx).Exec("DELETE FROM conversations").Error; err != nil {
		log.Fatalf("Failed to clear conversations: %v", err)
	}

	msgRepo := repository.NewMessageRepository(db)
	convRepo := repository.NewConversationRepository(db)

	selfID := uuid.NewString()

	names := []string{
		"Alice Johnson",
		"Bob Smith",
		"Charlie Brown",
		"Diana Prince",
		"Grace Lee",
		"Henry Davis",
		"Maria Garcia",
		"Noah Anderson",
	}

	sampleTexts := []string{
		"Hey! How are you doing?",
		"Just checking in",
		"Can we meet tomorrow?",
		"Thanks for your help!",
		"See you later!",
		"That sounds great!",
		"Let me know when you're free",
		"Perfect! I'll be there",
		"Did you see the latest news?",
		"What time works for you?",
		"I'll send it over shortly",
		"Looking forward to it!",
	}

	total := 0
	for i, name := range names {
		other := domain.User{ID: uuid.NewString(), Name: name}
		conv := domain.NewPrivateConversation(uuid.NewString(),
			time.Now().Add(-time.Duration(i*24)*time.Hour),
			domain.User{ID: selfID, Name: "You"}, other)

		count := 5 + rand.Intn(20)
		when := conv.CreatedAt
		var last *domain.Message
		for j := 0; j < count; j++ {
			when = when.Add(time.Duration(1+rand.Intn(180)) * time.Minute)

			sender := selfID
			if rand.Intn(2) == 0 {
				sender = other.ID
			}

			msg := domain.NewTextMessage(uuid.NewString(), conv.ID, sender,
				sampleTexts[rand.Intn(len(sampleTexts))], when)
			msg.Status = domain.StatusSeen

			if err := msgRepo.CreateOrIgnore(ctx, msg); err != nil {
				log.Fatalf("Failed to seed message: %v", err)
			}
			last = msg
			total++
		}

		conv.LastMessage = last
		if err := convRepo.Upsert(ctx, conv); err != nil {
			log.Fatalf("Failed to seed conversation: %v", err)
		}
	}

	fmt.Printf("Seeded %d conversations with %d messages\n", len(names), total)
	fmt.Printf("Run the client with -cache %s to browse them\n", dbPath)
}
