package agent

import (
	"sync"

	"github.com/remibot/remi/internal/ollama"
)

// History holds the conversation transcript sent to the model. The system
// prompt is pinned at index zero and survives both trimming and Clear.
// Guarded by a lock because the UI goroutine may clear while the agent
// loop reads.
type History struct {
	mu       sync.RWMutex
	messages []ollama.Message
	max      int
}

// NewHistory creates a history seeded with the system prompt. max bounds the
// number of non-system messages kept.
func NewHistory(system string, max int) *History {
	return &History{
		messages: []ollama.Message{{Role: "system", Content: system}},
		max:      max,
	}
}

// Append adds messages and trims the oldest non-system entries beyond max.
func (h *History) Append(msgs ...ollama.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msgs...)

	if len(h.messages)-1 > h.max {
		trimmed := make([]ollama.Message, 0, h.max+1)
		trimmed = append(trimmed, h.messages[0])
		trimmed = append(trimmed, h.messages[len(h.messages)-h.max:]...)
		h.messages = trimmed
	}
}

// Messages returns a copy of the transcript.
func (h *History) Messages() []ollama.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]ollama.Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// Len returns the transcript length including the system message.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear drops everything except the system message.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = []ollama.Message{h.messages[0]}
}
