package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/remibot/remi/internal/ui"
)

// runInteractive starts the full-screen TUI behind the --it flag.
func runInteractive() {
	defer logger.Sync()

	cfg := loadConfig()

	sink := ui.NewProgramSink()
	app, err := newApp(cfg, sink, cfg.Ollama.Stream)
	if err != nil {
		printError("Failed to start", err)
		os.Exit(1)
	}
	defer app.Close()

	connectOllama(app.client, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.agent.Run(ctx)
		close(done)
	}()
	go app.newWorker().Run(ctx)

	model := ui.NewModel(app.agent, app.toolInfos())
	p := tea.NewProgram(model, tea.WithAltScreen())
	sink.Attach(p)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running UI: %v\n", err)
		os.Exit(1)
	}

	cancel()
	<-done
}
