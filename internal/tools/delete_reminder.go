package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/remibot/remi/internal/reminders"
)

const deleteReminderArgsSchema = `{
	"type": "object",
	"properties": {
		"request": {
			"type": "string",
			"minLength": 1,
			"description": "The user's deletion request describing which reminder to delete. Examples: 'delete the water reminder', 'remove the reminder about emails', 'cancel my 5pm reminder'. Can reference the task, time, or position in the list."
		}
	},
	"required": ["request"]
}`

const matchSchema = `{
	"type": "object",
	"properties": {
		"reminder_id": {
			"type": "string",
			"minLength": 1,
			"description": "The exact ID of the reminder that matches the user's deletion request."
		},
		"confidence": {
			"type": "string",
			"description": "Confidence level of the match: 'high', 'medium', or 'low'."
		},
		"reason": {
			"type": "string",
			"description": "Brief explanation of why this reminder was matched."
		}
	},
	"required": ["reminder_id"]
}`

const deleteConfirmationSchema = `{
	"type": "object",
	"properties": {
		"confirmation_message": {
			"type": "string",
			"minLength": 1,
			"description": "A short, friendly message confirming which reminder was deleted."
		}
	},
	"required": ["confirmation_message"]
}`

const matchPrompt = "You match a user's deletion request to a specific reminder. " +
	"Analyze the user's request and the list of available reminders, then return the exact ID " +
	"of the reminder they want to delete. Return ONLY JSON matching the schema with reminder_id, " +
	"confidence, and optional reason."

const deleteConfirmationPrompt = "Generate a short confirmation message for a deleted reminder. " +
	"Return ONLY JSON matching the schema with confirmation_message."

// DeleteReminder matches the user's description against active reminders and
// removes the matched row.
type DeleteReminder struct {
	store  *reminders.Store
	llm    Extractor
	think  bool
	logger *zap.Logger
}

// NewDeleteReminder creates the delete_reminder tool. A nil logger defaults
// to a no-op logger.
func NewDeleteReminder(deps Deps) *DeleteReminder {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &DeleteReminder{store: deps.Store, llm: deps.LLM, think: deps.Think, logger: deps.Logger}
}

func (d *DeleteReminder) Name() string {
	return "delete_reminder"
}

func (d *DeleteReminder) Description() string {
	return "Tool to delete an existing reminder when the user asks to remove or cancel one. " +
		"Examples: 'Delete my water reminder', 'Remove the reminder about emails', 'Cancel reminder number 2'. " +
		"Pass the user's deletion request in request; matching is handled by the tool."
}

func (d *DeleteReminder) UserMessage() string {
	return "Deleting your reminder..."
}

func (d *DeleteReminder) Schema() json.RawMessage {
	return json.RawMessage(deleteReminderArgsSchema)
}

func (d *DeleteReminder) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	request, _ := args["request"].(string)

	active, err := d.store.ListActive(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return map[string]any{"error": "You don't have any active reminders to delete."}, nil
	}

	id, ok := d.match(ctx, request, active)
	if !ok {
		d.logger.Warn("reminder match failed", zap.String("request", request))
		return map[string]any{
			"error": "Could not identify which reminder you want to delete. Please be more specific.",
		}, nil
	}

	record, err := d.store.Get(ctx, id)
	if err != nil || record == nil {
		return map[string]any{"error": "The matched reminder could not be found in the database."}, nil
	}

	deleted, err := d.store.Delete(ctx, record.ID)
	if err != nil {
		return map[string]any{
			"error": fmt.Sprintf("Could not delete reminder due to error: %v", err),
		}, nil
	}
	if !deleted {
		return map[string]any{"error": "Failed to delete the reminder from the database."}, nil
	}

	d.sweepPast(ctx)

	return map[string]any{
		"success":      true,
		"confirmation": d.buildConfirmation(ctx, record.Task, record.When),
		"deleted_reminder": map[string]any{
			"task": record.Task,
			"when": record.When,
			"id":   record.ID,
		},
	}, nil
}

// sweepPast silently removes remaining reminders whose due time already
// passed. Best effort after a successful delete; only the count is logged.
func (d *DeleteReminder) sweepPast(ctx context.Context) {
	active, err := d.store.ListActive(ctx, false)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	removed := 0
	for _, r := range active {
		if !reminders.IsPast(r.When, now) {
			continue
		}
		if ok, err := d.store.Delete(ctx, r.ID); err == nil && ok {
			removed++
		}
	}
	if removed > 0 {
		d.logger.Info("removed past reminders", zap.Int("count", removed))
	}
}

func (d *DeleteReminder) match(ctx context.Context, request string, active []reminders.Reminder) (string, bool) {
	lines := make([]string, 0, len(active))
	for i, r := range active {
		line := fmt.Sprintf("%d. ID: %s, Task: %s, When: %s", i+1, r.ID, r.Task, r.When)
		if r.Notes != "" {
			line += fmt.Sprintf(", Notes: %s", r.Notes)
		}
		lines = append(lines, line)
	}
	listing := strings.Join(lines, "\n") + "\n\nUser request: " + request

	var out struct {
		ReminderID string `json:"reminder_id"`
		Confidence string `json:"confidence"`
		Reason     string `json:"reason"`
	}
	err := d.llm.ChatJSON(ctx, matchPrompt, listing, json.RawMessage(matchSchema), d.think, &out)
	if err != nil || strings.TrimSpace(out.ReminderID) == "" {
		return "", false
	}
	return strings.TrimSpace(out.ReminderID), true
}

func (d *DeleteReminder) buildConfirmation(ctx context.Context, task, when string) string {
	details := fmt.Sprintf("Deleted reminder - Task: %s, When: %s", task, when)

	var out struct {
		ConfirmationMessage string `json:"confirmation_message"`
	}
	err := d.llm.ChatJSON(ctx, deleteConfirmationPrompt, details, json.RawMessage(deleteConfirmationSchema), d.think, &out)
	if err != nil || strings.TrimSpace(out.ConfirmationMessage) == "" {
		return fmt.Sprintf("Reminder deleted: %s (%s).", task, when)
	}
	return out.ConfirmationMessage
}
