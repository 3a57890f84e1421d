package agent

import "github.com/remibot/remi/internal/ollama"

// ToolCall is one pending tool invocation decoded from the model's reply.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult records one completed tool invocation within the current turn.
type ToolResult struct {
	Name   string
	Args   map[string]any
	Result map[string]any
}

// Turn accumulates everything that happens between picking up an event and
// committing the exchange to history. Only the agent loop touches it.
// WorkingMessages, once seeded for a turn, is never rebuilt mid-turn; it is
// only appended to, and cleared by Reset.
type Turn struct {
	UserText         string
	AssistantText    string
	AssistantEmitted bool
	Reminder         *ReminderPayload
	PendingToolCalls []ToolCall
	ToolResults      []ToolResult
	WorkingMessages  []ollama.Message
}

// Reset clears the turn back to empty.
func (t *Turn) Reset() {
	*t = Turn{}
}
