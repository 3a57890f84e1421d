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

const setReminderArgsSchema = `{
	"type": "object",
	"properties": {
		"request": {
			"type": "string",
			"minLength": 1,
			"description": "The user's reminder request preserved exactly as stated. Examples: 'remind me to drink water in 5 minutes', 'remind me to check emails today at 18:30', 'remind me to call mom tomorrow morning'. Include both the task (what to remind) and timing (when to remind)."
		}
	},
	"required": ["request"]
}`

// reminderRequestSchema is the extraction target. Date and time stay exactly
// as the user wrote them; all calculations happen deterministically afterwards.
const reminderRequestSchema = `{
	"type": "object",
	"properties": {
		"task": {
			"type": "string",
			"minLength": 1,
			"description": "The reminder task in plain language, such as 'take out the trash'."
		},
		"time": {
			"type": "string",
			"minLength": 1,
			"description": "The reminder time as written by the user, e.g., '9:15', '9:15 AM', '3:45 PM', '14:30'. Do not convert or normalize; extract exactly as the user specified."
		},
		"intended_date": {
			"type": "string",
			"minLength": 1,
			"description": "The intended date expression as extracted from user input, e.g., 'today', 'tomorrow', 'monday', 'friday'. Default to 'today' if the user does not specify. Do not calculate or interpret the date; extract the user's intent only."
		},
		"notes": {
			"type": "string",
			"description": "Optional extra note text relevant to the reminder."
		}
	},
	"required": ["task", "time", "intended_date"]
}`

const setConfirmationSchema = `{
	"type": "object",
	"properties": {
		"confirmation_message": {
			"type": "string",
			"minLength": 1,
			"description": "A short, friendly confirmation message for the reminder that was set."
		}
	},
	"required": ["confirmation_message"]
}`

const extractionPrompt = "You extract reminder request data. Return ONLY JSON that matches the provided schema. " +
	"Do not include markdown, explanations, or extra keys. " +
	"Extract the task, time, and intended_date exactly as the user specified. " +
	"Do NOT perform any date calculations or conversions. " +
	"Do NOT convert time to 24-hour format. " +
	"CRITICAL: If the user does NOT explicitly mention a date/day (like 'tomorrow', 'friday', 'next monday', 'this weekend'), " +
	"you MUST set intended_date to 'today'. Do NOT assume 'tomorrow'. Do NOT guess. Default to 'today' if unsure. " +
	"If the user does not specify a time, return an error by returning None."

const setConfirmationPrompt = "You write one short, friendly confirmation for a reminder that was just set. " +
	"Use the provided task, date, and time exactly as given. " +
	"Do not change or infer a different date or time. " +
	"If you mention relative timing (today/tomorrow), it must match the provided current date/time. " +
	"Return ONLY JSON that matches the schema with confirmation_message."

type reminderRequest struct {
	Task         string `json:"task"`
	Time         string `json:"time"`
	IntendedDate string `json:"intended_date"`
	Notes        string `json:"notes,omitempty"`
}

// SetReminder extracts a reminder from the user's phrasing, resolves the due
// time deterministically, and stores it.
type SetReminder struct {
	store  *reminders.Store
	llm    Extractor
	think  bool
	logger *zap.Logger
}

// NewSetReminder creates the set_reminder tool. A nil logger defaults to a
// no-op logger.
func NewSetReminder(deps Deps) *SetReminder {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SetReminder{store: deps.Store, llm: deps.LLM, think: deps.Think, logger: deps.Logger}
}

func (s *SetReminder) Name() string {
	return "set_reminder"
}

func (s *SetReminder) Description() string {
	return "Tool to set or create a reminder for a task when user asks for a reminder to be created. " +
		"Examples: 'Remind me to drink water at 14:45', 'Remind me to do my homework tomorrow at 19:15'"
}

func (s *SetReminder) UserMessage() string {
	return "Setting your reminder..."
}

func (s *SetReminder) Schema() json.RawMessage {
	return json.RawMessage(setReminderArgsSchema)
}

func (s *SetReminder) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	request, _ := args["request"].(string)

	req, ok := s.extract(ctx, request)
	if !ok {
		s.logger.Warn("reminder extraction failed")
		return map[string]any{
			"error": "Could not extract reminder details. Please specify: what to remind you about, what time, and when (today, tomorrow, or a weekday).",
		}, nil
	}

	hour, minute, ok := reminders.ParseClock(req.Time)
	if !ok {
		s.logger.Warn("reminder time parse failed", zap.String("input", req.Time))
		return map[string]any{
			"error": fmt.Sprintf("Could not parse time '%s'. Please use a format like '9:15', '9:15 AM', or '14:30'.", req.Time),
		}, nil
	}

	day, ok := reminders.ResolveDay(req.IntendedDate, time.Now())
	if !ok {
		s.logger.Warn("reminder date resolve failed", zap.String("input", req.IntendedDate))
		return map[string]any{
			"error": fmt.Sprintf("Could not interpret date '%s'. Use 'today', 'tomorrow', or a weekday name.", req.IntendedDate),
		}, nil
	}

	due := reminders.Combine(day, hour, minute)
	dueISO := due.Format(time.RFC3339)

	record, err := s.store.Add(ctx, req.Task, dueISO, req.Notes)
	if err != nil {
		s.logger.Error("reminder save failed", zap.Error(err))
		return map[string]any{
			"error": fmt.Sprintf("Could not save reminder due to storage error: %v", err),
		}, nil
	}

	return map[string]any{
		"success":      true,
		"confirmation": s.buildConfirmation(ctx, record.Task, due),
		"reminder_id":  record.ID,
		"task":         record.Task,
		"when":         dueISO,
	}, nil
}

func (s *SetReminder) extract(ctx context.Context, request string) (reminderRequest, bool) {
	var req reminderRequest
	err := s.llm.ChatJSON(ctx, extractionPrompt, request, json.RawMessage(reminderRequestSchema), s.think, &req)
	if err != nil {
		return reminderRequest{}, false
	}
	if strings.TrimSpace(req.Task) == "" || strings.TrimSpace(req.Time) == "" || strings.TrimSpace(req.IntendedDate) == "" {
		return reminderRequest{}, false
	}
	return req, true
}

func (s *SetReminder) buildConfirmation(ctx context.Context, task string, due time.Time) string {
	formattedDate := due.Format("02.01.2006")
	formattedTime := due.Format("15:04")
	nowContext := time.Now().Format("2006-01-02 15:04:05 MST")

	details := fmt.Sprintf("Current local date/time: %s\nTask: %s\nDate: %s\nTime: %s",
		nowContext, task, formattedDate, formattedTime)

	var out struct {
		ConfirmationMessage string `json:"confirmation_message"`
	}
	err := s.llm.ChatJSON(ctx, setConfirmationPrompt, details, json.RawMessage(setConfirmationSchema), s.think, &out)
	if err != nil || strings.TrimSpace(out.ConfirmationMessage) == "" {
		return fmt.Sprintf("Reminder set: %s on %s at %s.", task, formattedDate, formattedTime)
	}
	return out.ConfirmationMessage
}
