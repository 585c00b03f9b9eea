package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-family-journey/internal/types"
)

func exchange(i int) types.ConversationExchange {
	return types.ConversationExchange{
		Timestamp:     time.Date(2025, 6, 1, 10, 0, i, 0, time.UTC),
		UserMessage:   fmt.Sprintf("user message %d", i),
		AgentResponse: fmt.Sprintf("agent response %d", i),
		Speaker:       "Lucía",
	}
}

func TestAppend_Bounded(t *testing.T) {
	b := NewBuffer(10)

	var history []types.ConversationExchange
	for i := 0; i < 15; i++ {
		history = b.Append(history, exchange(i))
	}

	require.Len(t, history, 10)
	// Oldest-first order preserved: entries 5..14 remain.
	assert.Equal(t, "user message 5", history[0].UserMessage)
	assert.Equal(t, "user message 14", history[9].UserMessage)
}

func TestAppend_DefaultCap(t *testing.T) {
	b := NewBuffer(0)
	assert.Equal(t, DefaultCap, b.Cap())
}

func TestRecent(t *testing.T) {
	b := NewBuffer(10)

	var history []types.ConversationExchange
	for i := 0; i < 6; i++ {
		history = b.Append(history, exchange(i))
	}

	recent := b.Recent(history, 3)
	require.Len(t, recent, 3)
	assert.Equal(t, "user message 3", recent[0].UserMessage)
	assert.Equal(t, "user message 5", recent[2].UserMessage)

	assert.Len(t, b.Recent(history, 100), 6)
	assert.Nil(t, b.Recent(history, 0))
	assert.Nil(t, b.Recent(nil, 5))
}

func TestForContext(t *testing.T) {
	b := NewBuffer(10)

	var history []types.ConversationExchange
	for i := 0; i < 3; i++ {
		history = b.Append(history, exchange(i))
	}

	messages := b.ForContext(history, 2)
	require.Len(t, messages, 4)

	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "user message 1", messages[0].Content)
	assert.Equal(t, "Lucía", messages[0].Speaker)

	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "agent response 1", messages[1].Content)
	// Speaker attribution only on user turns.
	assert.Empty(t, messages[1].Speaker)

	assert.Equal(t, "user message 2", messages[2].Content)
	assert.Equal(t, "agent response 2", messages[3].Content)
}
