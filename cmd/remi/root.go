package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/remibot/remi/internal/agent"
	"github.com/remibot/remi/internal/console"
)

var (
	ollamaURL   string
	ollamaModel string
	verbose     bool
	interactive bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "remi [message]",
	Short: "Personal reminder assistant for your terminal",
	Long: `
 ██████╗ ███████╗███╗   ███╗██╗
 ██╔══██╗██╔════╝████╗ ████║██║
 ██████╔╝█████╗  ██╔████╔██║██║
 ██╔══██╗██╔══╝  ██║╚██╔╝██║██║
 ██║  ██║███████╗██║ ╚═╝ ██║██║
 ╚═╝  ╚═╝╚══════╝╚═╝     ╚═╝╚═╝

  Conversational reminder assistant backed by a local LLM.
  Talks to Ollama, keeps reminders in SQLite, and pings you
  in the conversation when they come due.

Usage:
  remi "Remind me to stretch at 15:00"   Send a one-shot message
  remi --it                              Start the full-screen TUI
  remi chat                              Start the plain console chat
  remi tools                             List available tools
  remi config                            View/edit configuration
  remi version                           Show version info

Examples:
  remi "what time is it?"
  remi "remind me to call mom tomorrow at 9:15"
  remi "what reminders do I have?"
  remi --it`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		if interactive {
			runInteractive()
			return
		}

		if len(args) > 0 {
			runOneShot(args)
			return
		}

		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&interactive, "it", false, "Start interactive mode")

	rootCmd.PersistentFlags().StringVar(&ollamaURL, "ollama-url", "", "Ollama API URL")
	rootCmd.PersistentFlags().StringVar(&ollamaModel, "model", "", "LLM model to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

// runOneShot processes a single message and exits. Output goes through the
// console sink; streaming is off so the reply prints in one piece.
func runOneShot(args []string) {
	defer logger.Sync()

	message := strings.Join(args, " ")
	cfg := loadConfig()

	term := console.New(os.Stdout)
	app, err := newApp(cfg, term, false)
	if err != nil {
		printError("Failed to start", err)
		os.Exit(1)
	}
	defer app.Close()

	connectOllama(app.client, cfg)

	app.agent.EnqueueEvent(agent.Event{Kind: agent.EventUserMessage, Text: message})
	app.agent.ProcessQueuedEvents()
}
