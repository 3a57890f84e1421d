package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/remibot/remi/internal/console"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with remi in the plain console",
	Long: `Start a line-based chat session in the current terminal.

Replies stream to stdout and due reminders fire into the running
conversation. Type "exit" to leave, "clear" to start the conversation
over. Ctrl+C also exits cleanly.`,
	Run: func(cmd *cobra.Command, args []string) {
		runChat()
	},
}

func runChat() {
	defer logger.Sync()

	cfg := loadConfig()

	term := console.New(os.Stdout)
	app, err := newApp(cfg, term, cfg.Ollama.Stream)
	if err != nil {
		printError("Failed to start", err)
		os.Exit(1)
	}
	defer app.Close()

	connectOllama(app.client, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		app.agent.Run(ctx)
		close(done)
	}()
	go app.newWorker().Run(ctx)

	fmt.Println("Chat with remi. Type 'exit' to quit, 'clear' to start over.")
	fmt.Println()

	if err := term.Run(ctx, app.agent, os.Stdin); err != nil {
		printError("Input error", err)
	}

	// Cancel the agent loop and wait for its final queue drain.
	stop()
	<-done
}
