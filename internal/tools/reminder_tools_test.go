package tools

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/remibot/remi/internal/reminders"
)

type fakeExtractor struct {
	chatJSON func(ctx context.Context, system, user string, schema json.RawMessage, think bool, out any) error
}

func (f *fakeExtractor) ChatJSON(ctx context.Context, system, user string, schema json.RawMessage, think bool, out any) error {
	return f.chatJSON(ctx, system, user, schema, think, out)
}

func openToolStore(t *testing.T) *reminders.Store {
	t.Helper()
	store, err := reminders.Open(filepath.Join(t.TempDir(), "reminders.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDateTime_Run(t *testing.T) {
	tool := NewDateTime()

	result, err := tool.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, key := range []string{"iso", "date", "time", "timestamp", "timezone"} {
		if _, ok := result[key]; !ok {
			t.Fatalf("missing key %q in result: %v", key, result)
		}
	}

	iso, _ := result["iso"].(string)
	if _, err := time.Parse(time.RFC3339, iso); err != nil {
		t.Fatalf("iso field does not parse: %v", err)
	}
}

func TestSetReminder_Run(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, system, _ string, _ json.RawMessage, _ bool, out any) error {
		if strings.Contains(system, "extract reminder request data") {
			return json.Unmarshal([]byte(`{"task":"drink water","time":"9:15 PM","intended_date":"today"}`), out)
		}
		return json.Unmarshal([]byte(`{"confirmation_message":"Got it, I'll remind you to drink water."}`), out)
	}}

	tool := NewSetReminder(Deps{Store: store, LLM: ext})
	result, err := tool.Run(context.Background(), map[string]any{"request": "remind me to drink water at 9:15 pm"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("expected success, got: %v", result)
	}
	if result["task"] != "drink water" {
		t.Fatalf("unexpected task: %v", result["task"])
	}
	if result["confirmation"] != "Got it, I'll remind you to drink water." {
		t.Fatalf("unexpected confirmation: %v", result["confirmation"])
	}

	when, _ := result["when"].(string)
	due, err := time.Parse(time.RFC3339, when)
	if err != nil {
		t.Fatalf("when does not parse: %v", err)
	}
	if due.Hour() != 21 || due.Minute() != 15 {
		t.Fatalf("expected due at 21:15, got %s", due.Format("15:04"))
	}

	id, _ := result["reminder_id"].(string)
	stored, err := store.Get(context.Background(), id)
	if err != nil || stored == nil {
		t.Fatalf("reminder not stored: %v", err)
	}
	if stored.Task != "drink water" {
		t.Fatalf("stored task mismatch: %q", stored.Task)
	}
}

func TestSetReminder_ExtractionFailure(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, _, _ string, _ json.RawMessage, _ bool, _ any) error {
		return errors.New("model offline")
	}}

	tool := NewSetReminder(Deps{Store: store, LLM: ext})
	result, err := tool.Run(context.Background(), map[string]any{"request": "remind me"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "Could not extract reminder details") {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestSetReminder_MissingField(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, _, _ string, _ json.RawMessage, _ bool, out any) error {
		return json.Unmarshal([]byte(`{"task":"drink water","time":"","intended_date":"today"}`), out)
	}}

	tool := NewSetReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(context.Background(), map[string]any{"request": "remind me to drink water"})

	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "Could not extract reminder details") {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestSetReminder_BadTime(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, _, _ string, _ json.RawMessage, _ bool, out any) error {
		return json.Unmarshal([]byte(`{"task":"stretch","time":"sometime soon","intended_date":"today"}`), out)
	}}

	tool := NewSetReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(context.Background(), map[string]any{"request": "remind me to stretch sometime soon"})

	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "Could not parse time 'sometime soon'") {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestSetReminder_BadDate(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, _, _ string, _ json.RawMessage, _ bool, out any) error {
		return json.Unmarshal([]byte(`{"task":"buy gifts","time":"10:00","intended_date":"christmas"}`), out)
	}}

	tool := NewSetReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(context.Background(), map[string]any{"request": "remind me to buy gifts on christmas at 10"})

	msg, _ := result["error"].(string)
	if !strings.Contains(msg, "Could not interpret date 'christmas'") {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestSetReminder_ConfirmationFallback(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, system, _ string, _ json.RawMessage, _ bool, out any) error {
		if strings.Contains(system, "extract reminder request data") {
			return json.Unmarshal([]byte(`{"task":"call mom","time":"18:00","intended_date":"tomorrow"}`), out)
		}
		return errors.New("model offline")
	}}

	tool := NewSetReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(context.Background(), map[string]any{"request": "remind me to call mom tomorrow at 18:00"})

	if result["success"] != true {
		t.Fatalf("expected success, got: %v", result)
	}
	confirmation, _ := result["confirmation"].(string)
	if !strings.HasPrefix(confirmation, "Reminder set: call mom on ") {
		t.Fatalf("expected fallback confirmation, got: %q", confirmation)
	}
}

func TestListReminders_Empty(t *testing.T) {
	store := openToolStore(t)
	tool := NewListReminders(Deps{Store: store})

	result, err := tool.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("expected success, got: %v", result)
	}
	if result["count"] != 0 {
		t.Fatalf("expected count 0, got: %v", result["count"])
	}
	if result["message"] != "You don't have any active reminders." {
		t.Fatalf("unexpected message: %v", result["message"])
	}
}

func TestListReminders_Populated(t *testing.T) {
	store := openToolStore(t)
	ctx := context.Background()
	future := time.Now().Add(2 * time.Hour).Format(time.RFC3339)
	if _, err := store.Add(ctx, "drink water", future, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, "check emails", future, "inbox zero"); err != nil {
		t.Fatalf("add: %v", err)
	}

	tool := NewListReminders(Deps{Store: store})
	result, err := tool.Run(ctx, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result["count"] != 2 {
		t.Fatalf("expected count 2, got: %v", result["count"])
	}

	summary, _ := result["summary"].(string)
	if !strings.HasPrefix(summary, "You have 2 reminder(s):\n\n") {
		t.Fatalf("unexpected summary header: %q", summary)
	}
	if !strings.Contains(summary, "**drink water**") || !strings.Contains(summary, "**check emails**") {
		t.Fatalf("summary missing tasks: %q", summary)
	}

	entries, _ := result["reminders"].([]any)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got: %v", result["reminders"])
	}
	first, _ := entries[0].(map[string]any)
	for _, key := range []string{"number", "task", "when", "when_human", "id", "created_at"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("entry missing key %q: %v", key, first)
		}
	}
}

func TestDeleteReminder_Run(t *testing.T) {
	store := openToolStore(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	saved, err := store.Add(ctx, "water the plants", future, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	ext := &fakeExtractor{chatJSON: func(_ context.Context, system, _ string, _ json.RawMessage, _ bool, out any) error {
		if strings.Contains(system, "match a user's deletion request") {
			return json.Unmarshal([]byte(`{"reminder_id":"`+saved.ID+`","confidence":"high"}`), out)
		}
		return json.Unmarshal([]byte(`{"confirmation_message":"Deleted your plant reminder."}`), out)
	}}

	tool := NewDeleteReminder(Deps{Store: store, LLM: ext})
	result, err := tool.Run(ctx, map[string]any{"request": "delete the plant reminder"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("expected success, got: %v", result)
	}
	if result["confirmation"] != "Deleted your plant reminder." {
		t.Fatalf("unexpected confirmation: %v", result["confirmation"])
	}

	deleted, _ := result["deleted_reminder"].(map[string]any)
	if deleted["task"] != "water the plants" || deleted["id"] != saved.ID {
		t.Fatalf("unexpected deleted_reminder: %v", deleted)
	}

	if got, err := store.Get(ctx, saved.ID); err != nil || got != nil {
		t.Fatalf("reminder still present after delete: %v %v", got, err)
	}
}

func TestDeleteReminder_NoActives(t *testing.T) {
	store := openToolStore(t)
	ext := &fakeExtractor{chatJSON: func(_ context.Context, _, _ string, _ json.RawMessage, _ bool, _ any) error {
		t.Fatal("extractor should not be called with no reminders")
		return nil
	}}

	tool := NewDeleteReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(context.Background(), map[string]any{"request": "delete it"})

	if result["error"] != "You don't have any active reminders to delete." {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestDeleteReminder_MatchFailure(t *testing.T) {
	store := openToolStore(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	saved, err := store.Add(ctx, "stretch", future, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	ext := &fakeExtractor{chatJSON: func(_ context.Context, _, _ string, _ json.RawMessage, _ bool, _ any) error {
		return errors.New("model offline")
	}}

	tool := NewDeleteReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(ctx, map[string]any{"request": "delete something"})

	if result["error"] != "Could not identify which reminder you want to delete. Please be more specific." {
		t.Fatalf("unexpected result: %v", result)
	}
	if got, err := store.Get(ctx, saved.ID); err != nil || got == nil {
		t.Fatalf("reminder should survive a failed match: %v %v", got, err)
	}
}

func TestDeleteReminder_SweepsPastAfterDelete(t *testing.T) {
	store := openToolStore(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).Format(time.RFC3339)

	target, err := store.Add(ctx, "water the plants", future, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	expired, err := store.Add(ctx, "expired task", past, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	keep, err := store.Add(ctx, "future task", future, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	ext := &fakeExtractor{chatJSON: func(_ context.Context, system, _ string, _ json.RawMessage, _ bool, out any) error {
		if strings.Contains(system, "match a user's deletion request") {
			return json.Unmarshal([]byte(`{"reminder_id":"`+target.ID+`","confidence":"high"}`), out)
		}
		return errors.New("model offline")
	}}

	tool := NewDeleteReminder(Deps{Store: store, LLM: ext})
	result, _ := tool.Run(ctx, map[string]any{"request": "delete the plant reminder"})

	if result["success"] != true {
		t.Fatalf("expected success, got: %v", result)
	}

	if got, _ := store.Get(ctx, expired.ID); got != nil {
		t.Fatalf("expected past reminder swept after the delete, got: %+v", got)
	}
	if got, _ := store.Get(ctx, keep.ID); got == nil {
		t.Fatal("future reminder must survive the sweep")
	}
}
