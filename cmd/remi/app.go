package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/remibot/remi/internal/agent"
	"github.com/remibot/remi/internal/config"
	"github.com/remibot/remi/internal/ollama"
	"github.com/remibot/remi/internal/prompt"
	"github.com/remibot/remi/internal/reminders"
	"github.com/remibot/remi/internal/tools"
	"github.com/remibot/remi/internal/ui"
)

// app bundles the pieces every chat mode needs: the Ollama client, the
// reminder store, the registered toolbox, and the agent wired to a sink.
type app struct {
	cfg     config.Config
	client  *ollama.Client
	store   *reminders.Store
	toolbox *tools.Toolbox
	agent   *agent.Agent
}

func newApp(cfg config.Config, sink agent.Sink, stream bool) (*app, error) {
	client := ollama.NewClient(ollama.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.Model,
		Timeout: cfg.Ollama.Timeout(),
	})

	store, err := reminders.Open(cfg.Reminders.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open reminder store: %w", err)
	}

	toolbox := tools.NewToolbox(logger)
	for _, tool := range tools.Builtins(tools.Deps{
		Store:  store,
		LLM:    client,
		Think:  cfg.Ollama.Think,
		Logger: logger,
	}) {
		toolbox.MustRegister(tool)
	}

	bot := agent.New(agent.Config{
		Backend:            client,
		Toolbox:            toolbox,
		Sink:               sink,
		SystemPrompt:       prompt.System(cfg.Agent.SystemPromptPath),
		MaxInternalSteps:   cfg.Agent.MaxInternalSteps,
		MaxHistoryMessages: cfg.Agent.MaxHistoryMessages,
		Stream:             stream,
		Think:              cfg.Ollama.Think,
		Logger:             logger,
	})

	return &app{
		cfg:     cfg,
		client:  client,
		store:   store,
		toolbox: toolbox,
		agent:   bot,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("close reminder store", zap.Error(err))
	}
}

// newWorker builds the poller that turns due reminders into agent events.
// The worker marks a reminder completed before notifying, so each fires at
// most once.
func (a *app) newWorker() *reminders.Worker {
	return reminders.NewWorker(a.store, a.cfg.Reminders.PollInterval(), func(due reminders.Due) {
		a.agent.EnqueueEvent(agent.Event{
			Kind: agent.EventReminderDue,
			Reminder: &agent.ReminderPayload{
				ID:    due.ID,
				Task:  due.Task,
				When:  due.When,
				Notes: due.Notes,
			},
		})
	}, logger)
}

func (a *app) toolInfos() []ui.ToolInfo {
	var infos []ui.ToolInfo
	for _, name := range a.toolbox.List() {
		if tool, ok := a.toolbox.Get(name); ok {
			infos = append(infos, ui.ToolInfo{Name: tool.Name(), Description: tool.Description()})
		}
	}
	return infos
}

// loadConfig loads configuration and applies CLI flag overrides.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}

	if ollamaURL != "" {
		cfg.Ollama.BaseURL = ollamaURL
	}
	if ollamaModel != "" {
		cfg.Ollama.Model = ollamaModel
	}

	return cfg
}

// connectOllama checks connectivity before entering a chat mode and warns
// when the configured model is not installed. Exits on connection failure.
func connectOllama(client *ollama.Client, cfg config.Config) {
	connectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Print(connectStyle.Render("Connecting to Ollama... "))
	if err := client.Ping(ctx); err != nil {
		fmt.Println(errorStyle.Render("✗"))
		fmt.Println()
		printConnectionHelp(cfg)
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("✓"))

	if models, err := client.ListModels(ctx); err == nil && !hasModel(models, cfg.Ollama.Model) {
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		fmt.Println(warnStyle.Render(fmt.Sprintf("Model %s is not installed.", cfg.Ollama.Model)))
		if len(models) > 0 {
			fmt.Println(dimStyle.Render("Installed models: " + strings.Join(models, ", ")))
		}
		fmt.Println(dimStyle.Render("Pull it with: ollama pull " + cfg.Ollama.Model))
		fmt.Println()
	}

	fmt.Printf("Using model: %s\n\n", cfg.Ollama.Model)
}

func hasModel(models []string, name string) bool {
	for _, m := range models {
		if m == name || strings.TrimSuffix(m, ":latest") == name {
			return true
		}
	}
	return false
}

// printConnectionHelp displays instructions for connecting to Ollama.
func printConnectionHelp(cfg config.Config) {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))

	fmt.Println(errorStyle.Render("Could not connect to Ollama at " + cfg.Ollama.BaseURL))
	fmt.Println()
	fmt.Println(helpStyle.Render("Make sure Ollama is running:"))
	fmt.Println(cmdStyle.Render("  ollama serve"))
	fmt.Println()
	fmt.Println(helpStyle.Render("And pull the required model:"))
	fmt.Println(cmdStyle.Render("  ollama pull " + cfg.Ollama.Model))
	fmt.Println()
	fmt.Println(helpStyle.Render("Or configure a different endpoint:"))
	fmt.Println(cmdStyle.Render("  REMI_OLLAMA_BASE_URL=http://your-server:11434 remi --it"))
}

func printError(msg string, err error) {
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
		Render(fmt.Sprintf("Error: %s: %v", msg, err)))
}
