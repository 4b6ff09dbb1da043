// ABOUTME: Conversation messages exchanged between customer and assistant
// ABOUTME: History is append-only; helpers always return fresh slices
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Conversation roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is a single conversation entry
type ChatMessage struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Validate checks the role and content of a message
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("invalid role %q: must be user, assistant, or system", m.Role)
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("message content cannot be empty")
	}
	return nil
}

// AppendTurn copies history and appends a user/assistant exchange.
// The input slice is never modified.
func AppendTurn(history []ChatMessage, userMessage, assistantReply string) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+2)
	out = append(out, history...)
	out = append(out,
		ChatMessage{Role: RoleUser, Content: userMessage},
		ChatMessage{Role: RoleAssistant, Content: assistantReply},
	)
	return out
}

// RecentMessages returns up to n trailing messages without sharing the backing array
func RecentMessages(history []ChatMessage, n int) []ChatMessage {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]ChatMessage, len(history))
	copy(out, history)
	return out
}
