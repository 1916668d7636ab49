package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/driftlabs/drift/chat-client/internal/domain"
)

// InteractiveCLI handles interactive command-line interface
type InteractiveCLI struct {
	handler *CommandHandler
	reader  *bufio.Reader
	writer  io.Writer
}

// NewInteractiveCLI creates a new interactive CLI
func NewInteractiveCLI(handler *CommandHandler) *InteractiveCLI {
	return &InteractiveCLI{
		handler: handler,
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
	}
}

// Run starts the interactive CLI loop
func (cli *InteractiveCLI) Run(ctx context.Context) error {
	cli.printWelcome()

	// Subscribe to events in background
	eventChan := cli.handler.SubscribeEvents([]domain.EventType{
		domain.EventTypeMessageReceived,
		domain.EventTypeTypingUpdated,
		domain.EventTypePresenceUpdated,
		domain.EventTypeConnectionStatus,
	})

	go cli.handleEvents(eventChan)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			cli.print("\n> ")
			line, err := cli.reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			// Bare text goes to the active conversation.
			if !strings.HasPrefix(line, "/") {
				line = "/send " + line
			}

			if err := cli.processCommand(ctx, line); err != nil {
				if err.Error() == "quit" {
					cli.println("Goodbye!")
					return nil
				}
				cli.printf("Error: %s\n", err)
			}
		}
	}
}

func (cli *InteractiveCLI) printWelcome() {
	cli.println("===========================================")
	cli.println("  Drift Chat CLI")
	cli.println("===========================================")
	cli.println("Type /help for available commands")
	cli.println("")
}

func (cli *InteractiveCLI) processCommand(ctx context.Context, input string) error {
	cmd, err := ParseCommand(input)
	if err != nil {
		return err
	}

	result, err := cli.handler.Execute(ctx, cmd)
	if err != nil {
		return err
	}

	// Check for quit command
	if m, ok := result.(map[string]bool); ok && m["quit"] {
		return fmt.Errorf("quit")
	}

	// Format and display result
	cli.displayResult(cmd.Name, result)
	return nil
}

func (cli *InteractiveCLI) displayResult(cmdName string, result interface{}) {
	switch cmdName {
	case "help", "h":
		if m, ok := result.(map[string]string); ok {
			cli.println(m["help"])
		}

	case "chats", "ls":
		if m, ok := result.(map[string]interface{}); ok {
			convs, _ := m["conversations"].([]ConversationInfo)
			if loading, _ := m["loading"].(bool); loading {
				cli.println("(still loading...)")
			}
			if len(convs) == 0 {
				cli.println("No conversations yet. Start one with /new <user-id>.")
				return
			}
			cli.printf("%d conversation(s):\n\n", len(convs))
			for i, conv := range convs {
				marker := " "
				if conv.Active {
					marker = "*"
				}
				unread := ""
				if conv.UnreadCount > 0 {
					unread = fmt.Sprintf(" [%d unread]", conv.UnreadCount)
				}
				cli.printf("%s %d. %s (%s)%s\n", marker, i+1, conv.Title, conv.Kind, unread)
				cli.printf("     ID: %s\n", conv.ID)
				if conv.LastMessageText != "" {
					preview := conv.LastMessageText
					if len(preview) > 50 {
						preview = preview[:50] + "..."
					}
					cli.printf("     Last: %s\n", preview)
				}
				if len(conv.Typing) > 0 {
					cli.printf("     typing: %s\n", strings.Join(conv.Typing, ", "))
				}
			}
		}

	case "select", "open", "messages", "msg", "history":
		if m, ok := result.(map[string]interface{}); ok {
			messages, _ := m["messages"].([]MessageInfo)
			cli.printf("%d message(s):\n\n", len(messages))
			cli.printMessages(messages)
			if typing, _ := m["typing"].([]string); len(typing) > 0 {
				cli.printf("typing: %s\n", strings.Join(typing, ", "))
			}
		}

	case "send":
		if msg, ok := result.(MessageInfo); ok {
			cli.printf("Message sent (id %s); it appears in the thread once the feed echoes it.\n", msg.ID)
		}

	case "new":
		if conv, ok := result.(ConversationInfo); ok {
			cli.printf("Conversation with %s is active (id %s).\n", conv.Title, conv.ID)
		}

	case "users":
		if m, ok := result.(map[string]interface{}); ok {
			users, _ := m["users"].([]UserInfo)
			if len(users) == 0 {
				cli.println("Nobody here yet.")
				return
			}
			for _, u := range users {
				cli.printf("%s (%s) - %s\n", u.Name, u.ID, u.Status)
			}
		}

	case "search":
		if m, ok := result.(map[string]interface{}); ok {
			query, _ := m["query"].(string)
			messages, _ := m["messages"].([]MessageInfo)
			cli.printf("Search results for '%s' (%d found):\n\n", query, len(messages))
			cli.printMessages(messages)
		}

	default:
		// Generic JSON output for other commands
		if m, ok := result.(map[string]string); ok {
			if msg, exists := m["message"]; exists {
				cli.println(msg)
				return
			}
		}
		// Pretty print JSON
		data, _ := json.MarshalIndent(result, "", "  ")
		cli.println(string(data))
	}
}

func (cli *InteractiveCLI) printMessages(messages []MessageInfo) {
	for _, msg := range messages {
		sender := "Me"
		if !msg.IsFromMe {
			sender = msg.SenderID
		}
		timestamp := msg.CreatedAt.Format("2006-01-02 15:04")
		edited := ""
		if msg.Edited {
			edited = " (edited)"
		}
		cli.printf("[%s] %s:%s\n", timestamp, sender, edited)
		cli.printf("  %s\n", msg.Content)
		cli.printf("  status: %s | ID: %s\n\n", msg.Status, msg.ID)
	}
}

func (cli *InteractiveCLI) handleEvents(eventChan <-chan Event) {
	for event := range eventChan {
		switch event.Type {
		case string(domain.EventTypeMessageReceived):
			if msg, ok := event.Data.(MessageInfo); ok {
				cli.printf("\n[New Message] From %s:\n", msg.SenderID)
				cli.printf("  %s\n", msg.Content)
				cli.print("> ")
			}
		case string(domain.EventTypeTypingUpdated):
			if data, ok := event.Data.(map[string]interface{}); ok {
				user, _ := data["user_id"].(string)
				cli.printf("\n[%s is typing...]\n> ", user)
			}
		case string(domain.EventTypePresenceUpdated):
			if data, ok := event.Data.(map[string]interface{}); ok {
				user, _ := data["user_id"].(string)
				status, _ := data["status"].(string)
				cli.printf("\n[%s is now %s]\n> ", user, status)
			}
		case string(domain.EventTypeConnectionStatus):
			if data, ok := event.Data.(map[string]interface{}); ok {
				connected, _ := data["connected"].(bool)
				if connected {
					cli.println("\n[Connected]")
				} else {
					reason, _ := data["reason"].(string)
					cli.printf("\n[Disconnected: %s]\n", reason)
				}
				cli.print("> ")
			}
		}
	}
}

func (cli *InteractiveCLI) print(s string) {
	fmt.Fprint(cli.writer, s)
}

func (cli *InteractiveCLI) println(s string) {
	fmt.Fprintln(cli.writer, s)
}

func (cli *InteractiveCLI) printf(format string, args ...interface{}) {
	fmt.Fprintf(cli.writer, format, args...)
}
