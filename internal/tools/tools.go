// Package tools provides the tool framework for remi.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/remibot/remi/internal/ollama"
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// UserMessage returns the status line shown while the tool runs.
	UserMessage() string

	// Schema returns the JSON schema for the tool's arguments.
	Schema() json.RawMessage

	// Run executes the tool. Expected failures belong in the result map
	// under "error"; a returned error is folded into one by the toolbox.
	Run(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Toolbox manages tool registration, validation, and execution.
type Toolbox struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
	logger  *zap.Logger
}

// NewToolbox creates an empty toolbox. A nil logger defaults to a no-op logger.
func NewToolbox(logger *zap.Logger) *Toolbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolbox{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
		logger:  logger,
	}
}

// Register adds a tool, compiling its argument schema once up front.
// Duplicate names and invalid schemas are rejected.
func (t *Toolbox) Register(tool Tool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := tool.Name()
	if _, exists := t.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	schema, err := compileSchema(name, tool.Schema())
	if err != nil {
		return err
	}

	t.tools[name] = tool
	t.schemas[name] = schema
	return nil
}

// MustRegister adds a tool to the toolbox, panicking on error.
func (t *Toolbox) MustRegister(tool Tool) {
	if err := t.Register(tool); err != nil {
		panic(err)
	}
}

// Get retrieves a tool by name.
func (t *Toolbox) Get(name string) (Tool, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tool, exists := t.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (t *Toolbox) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions renders the registry as Ollama function tools, sorted by name
// so the model always sees a stable order.
func (t *Toolbox) Definitions() []ollama.Tool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]ollama.Tool, 0, len(names))
	for _, name := range names {
		tool := t.tools[name]
		defs = append(defs, ollama.Tool{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Schema(),
			},
		})
	}
	return defs
}

// RunTool executes a tool by name. It never panics and never returns an
// error: every failure comes back as a result map with an "error" key so
// the model can read it and react.
func (t *Toolbox) RunTool(ctx context.Context, name string, args map[string]any) (result map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
			result = map[string]any{"error": fmt.Sprintf("%v", r)}
		}
	}()

	t.mu.RLock()
	tool, exists := t.tools[name]
	schema := t.schemas[name]
	t.mu.RUnlock()

	if !exists {
		t.logger.Warn("tool not found", zap.String("tool", name))
		return map[string]any{"error": fmt.Sprintf("Tool not found: %s", name)}
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(normalize(args)); err != nil {
		return map[string]any{"error": "Invalid arguments", "details": err.Error()}
	}

	out, err := tool.Run(ctx, args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	if out == nil {
		out = map[string]any{}
	}
	return out
}

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON schema for tool %q: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	url := name + "-args.json"
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("invalid JSON schema for tool %q: %w", name, err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile JSON schema for tool %q: %w", name, err)
	}
	return schema, nil
}

// normalize round-trips args through encoding/json so the validator only
// sees the types json.Unmarshal produces, however the map was built.
func normalize(args map[string]any) any {
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return args
	}
	return value
}
