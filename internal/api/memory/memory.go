package memory

import (
	"github.com/FACorreiaa/go-family-journey/internal/types"
)

// DefaultCap bounds how many exchanges are kept per family.
const DefaultCap = 10

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContextMessage is one role-tagged entry in the flattened history handed to
// the language model. Speaker attribution is preserved on user turns only.
type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Speaker string `json:"speaker,omitempty"`
}

// Buffer applies FIFO eviction to a family's conversation history. Access
// never reorders entries, so eviction is strictly oldest-first.
type Buffer struct {
	cap int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Buffer{cap: capacity}
}

func (b *Buffer) Cap() int {
	return b.cap
}

// Append pushes an exchange onto the back and drops from the front once the
// buffer exceeds its capacity.
func (b *Buffer) Append(history []types.ConversationExchange, exchange types.ConversationExchange) []types.ConversationExchange {
	history = append(history, exchange)
	if len(history) > b.cap {
		history = history[len(history)-b.cap:]
	}
	return history
}

// Recent returns the last limit entries, most-recent last.
func (b *Buffer) Recent(history []types.ConversationExchange, limit int) []types.ConversationExchange {
	if limit <= 0 || len(history) == 0 {
		return nil
	}
	if limit > len(history) {
		limit = len(history)
	}
	out := make([]types.ConversationExchange, limit)
	copy(out, history[len(history)-limit:])
	return out
}

// ForContext flattens the last limit exchanges into a role-tagged list
// suitable for a language model prompt.
func (b *Buffer) ForContext(history []types.ConversationExchange, limit int) []ContextMessage {
	recent := b.Recent(history, limit)
	messages := make([]ContextMessage, 0, len(recent)*2)
	for _, exchange := range recent {
		messages = append(messages, ContextMessage{
			Role:    RoleUser,
			Content: exchange.UserMessage,
			Speaker: exchange.Speaker,
		})
		messages = append(messages, ContextMessage{
			Role:    RoleAssistant,
			Content: exchange.AgentResponse,
		})
	}
	return messages
}
