package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/remibot/remi/internal/ollama"
)

// State is one node of the conversation state machine. Handle never returns
// nil; states carry no data of their own, everything mutable lives on the
// Agent's Turn.
type State interface {
	Name() string
	Handle(a *Agent, ev Event) State
}

type idleState struct{}
type generateState struct{}
type useToolsState struct{}
type taskState struct{}
type cleanupState struct{}

var (
	stateIdle     State = idleState{}
	stateGenerate State = generateState{}
	stateUseTools State = useToolsState{}
	stateTask     State = taskState{}
	stateCleanup  State = cleanupState{}
)

// directResponseFields maps tools that produce their own final user-facing
// text to the result field carrying it. When such a tool succeeds and no
// further calls are pending, its text is emitted directly instead of paying
// for another model round trip that would only paraphrase it.
var directResponseFields = map[string]string{
	"set_reminder":    "confirmation",
	"delete_reminder": "confirmation",
	"list_reminders":  "summary",
}

func (idleState) Name() string { return "Idle" }

func (idleState) Handle(a *Agent, ev Event) State {
	switch ev.Kind {
	case EventUserMessage:
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return stateIdle
		}
		a.turn.Reset()
		a.turn.UserText = text
		return stateGenerate

	case EventReminderDue:
		a.turn.Reset()
		a.turn.Reminder = ev.Reminder
		return stateTask

	default:
		return stateIdle
	}
}

func (generateState) Name() string { return "Generate" }

func (generateState) Handle(a *Agent, _ Event) State {
	if len(a.turn.WorkingMessages) == 0 {
		a.turn.WorkingMessages = append(a.history.Messages(),
			ollama.Message{Role: "user", Content: a.turn.UserText})
	}

	req := ollama.ChatRequest{
		Messages: a.turn.WorkingMessages,
		Tools:    a.toolbox.Definitions(),
		Think:    a.think,
	}

	resp, streamed, err := a.chat(req)
	if err != nil {
		a.logger.Error("chat failed", zap.Error(err))
		a.turn.AssistantText = generationApology
		a.sink.EmitText(generationApology)
		return stateCleanup
	}

	message := resp.Message
	calls := a.decodeToolCalls(message.ToolCalls)
	if len(calls) > 0 {
		a.turn.AssistantEmitted = false
		a.turn.WorkingMessages = append(a.turn.WorkingMessages, message)
		a.turn.PendingToolCalls = append(a.turn.PendingToolCalls, calls...)
		return stateUseTools
	}

	content := strings.TrimSpace(message.Content)
	a.turn.AssistantText = content
	if streamed {
		a.turn.AssistantEmitted = true
	} else if content != "" {
		a.sink.EmitText(content)
		a.turn.AssistantEmitted = true
	}
	return stateCleanup
}

func (useToolsState) Name() string { return "UseTools" }

func (useToolsState) Handle(a *Agent, _ Event) State {
	if len(a.turn.PendingToolCalls) == 0 {
		return stateGenerate
	}

	call := a.turn.PendingToolCalls[0]
	a.turn.PendingToolCalls = a.turn.PendingToolCalls[1:]

	if tool, ok := a.toolbox.Get(call.Name); ok {
		if msg := tool.UserMessage(); msg != "" {
			a.sink.EmitStatus(msg)
		}
	}

	result := a.toolbox.RunTool(a.ctx, call.Name, call.Args)
	a.turn.ToolResults = append(a.turn.ToolResults,
		ToolResult{Name: call.Name, Args: call.Args, Result: result})
	a.turn.WorkingMessages = append(a.turn.WorkingMessages, toolMessage(call.Name, result))

	if field, ok := directResponseFields[call.Name]; ok && len(a.turn.PendingToolCalls) == 0 {
		if _, failed := result["error"]; !failed {
			if text, _ := result[field].(string); strings.TrimSpace(text) != "" {
				a.turn.AssistantText = strings.TrimSpace(text)
				a.turn.AssistantEmitted = false
				a.sink.EmitText(a.turn.AssistantText)
				return stateCleanup
			}
		}
	}

	if len(a.turn.PendingToolCalls) > 0 {
		return stateUseTools
	}
	return stateGenerate
}

func (taskState) Name() string { return "Task" }

func (taskState) Handle(a *Agent, ev Event) State {
	if ev.Kind != EventTick {
		return stateTask
	}
	if a.turn.Reminder == nil {
		return stateCleanup
	}

	text := a.notifyDueReminder(a.turn.Reminder)
	a.turn.AssistantText = text
	a.sink.EmitText(text)
	return stateCleanup
}

func (cleanupState) Name() string { return "Cleanup" }

func (cleanupState) Handle(a *Agent, ev Event) State {
	if ev.Kind != EventTick {
		return stateCleanup
	}
	a.CommitTurn()
	return stateIdle
}

// chat runs one backend call. When streaming is enabled, content deltas go to
// the sink as they arrive; the stream is opened lazily on the first non-empty
// delta and closed when the call returns, error or not. The second return
// reports whether any content reached the sink.
func (a *Agent) chat(req ollama.ChatRequest) (*ollama.ChatResponse, bool, error) {
	if !a.stream {
		resp, err := a.backend.Chat(a.ctx, req)
		return resp, false, err
	}

	streamed := false
	resp, err := a.backend.ChatStream(a.ctx, req, func(chunk ollama.ChatResponse) {
		if chunk.Message.Content == "" {
			return
		}
		if !streamed {
			a.sink.BeginStream()
			streamed = true
		}
		a.sink.EmitStreamChunk(chunk.Message.Content)
	})
	if streamed {
		a.sink.EndStream()
	}
	return resp, streamed, err
}

func (a *Agent) decodeToolCalls(raw []ollama.ToolCall) []ToolCall {
	calls := make([]ToolCall, 0, len(raw))
	for _, tc := range raw {
		name := strings.TrimSpace(tc.Function.Name)
		if name == "" {
			a.logger.Warn("skipping tool call without a name")
			continue
		}
		calls = append(calls, ToolCall{Name: name, Args: decodeToolArgs(tc.Function.Arguments)})
	}
	return calls
}

// decodeToolArgs tolerates the argument shapes models actually produce: a
// JSON object, a JSON-encoded string wrapping an object, or garbage.
func decodeToolArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil && args != nil {
		return args
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		args = nil
		if err := json.Unmarshal([]byte(nested), &args); err == nil && args != nil {
			return args
		}
	}

	return map[string]any{}
}

// toolMessage renders a tool result as the tool-role message appended to the
// working transcript. list_reminders results carry the full entry dump; the
// model only needs the summary, so those are reduced to keep stale reminder
// details out of its context.
func toolMessage(name string, result map[string]any) ollama.Message {
	view := result
	if name == "list_reminders" {
		if _, ok := result["summary"]; ok {
			view = map[string]any{
				"success": result["success"],
				"count":   result["count"],
				"summary": result["summary"],
			}
		}
	}

	content, err := json.Marshal(view)
	if err != nil {
		content = []byte("{}")
	}
	return ollama.Message{Role: "tool", ToolName: name, Content: string(content)}
}

// notifyDueReminder asks the model for a one-off notification that the
// reminder is due now. Any failure falls back to a fixed line rather than
// dropping the notification.
func (a *Agent) notifyDueReminder(r *ReminderPayload) string {
	task := strings.TrimSpace(r.Task)
	if task == "" {
		task = "your reminder"
	}
	when := strings.TrimSpace(r.When)
	if when == "" {
		when = "now"
	}

	details := fmt.Sprintf("Current local date/time: %s\nTask: %s\nDue at: %s",
		time.Now().Format("2006-01-02 15:04:05 MST"), task, when)
	if notes := strings.TrimSpace(r.Notes); notes != "" {
		details += fmt.Sprintf("\nNotes: %s", notes)
	}

	req := ollama.ChatRequest{
		Messages: []ollama.Message{
			{Role: "system", Content: reminderNotifyPrompt},
			{Role: "user", Content: details},
		},
		Think: a.think,
	}

	resp, err := a.backend.Chat(a.ctx, req)
	if err != nil {
		a.logger.Warn("reminder notification failed", zap.Error(err))
		return reminderFallback
	}

	text := strings.TrimSpace(resp.Message.Content)
	if text == "" {
		return reminderFallback
	}
	return text
}
