package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/remibot/remi/internal/reminders"
)

// ListReminders reads active reminders straight from the store so the model
// never answers list questions from stale conversation memory.
type ListReminders struct {
	store *reminders.Store
}

// NewListReminders creates the list_reminders tool.
func NewListReminders(deps Deps) *ListReminders {
	return &ListReminders{store: deps.Store}
}

func (l *ListReminders) Name() string {
	return "list_reminders"
}

func (l *ListReminders) Description() string {
	return "Tool to list active reminders when the user asks what reminders they currently have. " +
		"Examples: 'Show me my reminders', 'What reminders do I have?', 'Can you list my reminders?'. " +
		"This tool is the source of truth for active reminder state; do not answer reminder-list requests from memory."
}

func (l *ListReminders) UserMessage() string {
	return "Fetching your reminders..."
}

func (l *ListReminders) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object"}`)
}

func (l *ListReminders) Run(ctx context.Context, _ map[string]any) (map[string]any, error) {
	active, err := l.store.ListActive(ctx, false)
	if err != nil {
		return nil, err
	}

	if len(active) == 0 {
		return map[string]any{
			"success":   true,
			"count":     0,
			"message":   "You don't have any active reminders.",
			"reminders": []any{},
		}, nil
	}

	now := time.Now()
	entries := make([]any, 0, len(active))
	lines := make([]string, 0, len(active))
	for i, r := range active {
		entry := map[string]any{
			"number":     i + 1,
			"task":       r.Task,
			"when":       r.When,
			"when_human": reminders.FormatWhen(r.When, now),
			"id":         r.ID,
			"created_at": r.CreatedAt,
		}
		if r.Notes != "" {
			entry["notes"] = r.Notes
		}
		entries = append(entries, entry)
		lines = append(lines, fmt.Sprintf("%d. **%s** - %s", i+1, r.Task, reminders.FormatWhen(r.When, now)))
	}

	summary := fmt.Sprintf("You have %d reminder(s):\n\n", len(active)) + strings.Join(lines, "\n")

	return map[string]any{
		"success":   true,
		"count":     len(active),
		"reminders": entries,
		"summary":   summary,
	}, nil
}
