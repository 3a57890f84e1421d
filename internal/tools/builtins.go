package tools

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/remibot/remi/internal/reminders"
)

// Extractor runs schema-constrained extraction chats. *ollama.Client
// satisfies it.
type Extractor interface {
	ChatJSON(ctx context.Context, system, user string, schema json.RawMessage, think bool, out any) error
}

// Deps carries the shared dependencies of the built-in tools.
type Deps struct {
	Store  *reminders.Store
	LLM    Extractor
	Think  bool
	Logger *zap.Logger
}

// Builtins returns the built-in tools in registration order.
func Builtins(deps Deps) []Tool {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return []Tool{
		NewDateTime(),
		NewSetReminder(deps),
		NewListReminders(deps),
		NewDeleteReminder(deps),
	}
}
