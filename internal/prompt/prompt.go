// Package prompt resolves the agent's system prompt.
package prompt

import (
	"os"
	"strings"
)

const defaultPromptPath = "system.md"

const builtinPrompt = `You are Remi, a friendly personal assistant running in the user's terminal.

You chat naturally and manage the user's reminders with the tools provided:
set_reminder creates one, list_reminders shows the active ones, delete_reminder
removes one, and datetime tells you the current date and time.

Guidelines:
- Call a tool for anything reminder related; never invent reminder data yourself.
- Use the datetime tool instead of guessing the current date, time, or weekday.
- Keep answers short and conversational. Plain text, no markdown tables.
- If a tool reports an error, explain it simply and suggest what to try next.`

// System returns the system prompt text. An explicit override path wins,
// then a system.md in the working directory, then the built-in default.
// Unreadable or empty files fall through to the next source.
func System(overridePath string) string {
	if text, ok := readNonEmpty(overridePath); ok {
		return text
	}
	if text, ok := readNonEmpty(defaultPromptPath); ok {
		return text
	}
	return builtinPrompt
}

func readNonEmpty(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", false
	}
	return text, true
}
