package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/remibot/remi/internal/config"
)

var (
	configInit bool
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit configuration",
	Long: `View the effective configuration or create a default config file.

Configuration sources, in order of precedence:
  1. REMI_* environment variables
  2. ./config.local.yaml
  3. ./config.yaml
  4. ~/.remi/config.yaml

Examples:
  remi config --show   # Show the effective configuration
  remi config --init   # Write a default config.yaml`,
	Run: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Create default config file")
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show effective configuration")
}

func runConfig(cmd *cobra.Command, args []string) {
	if configInit {
		initConfigFile()
		return
	}
	if configShow {
		showConfig()
		return
	}
	cmd.Help()
}

func initConfigFile() {
	// Refuse to clobber an existing file
	if _, err := os.Stat("config.yaml"); err == nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render("config.yaml already exists. Use --show to view the effective config."))
		return
	}

	cfg := config.Default()
	if err := cfg.Save("config.yaml"); err != nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
			Render(fmt.Sprintf("Failed to create config: %v", err)))
		os.Exit(1)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).
		Render("Created config.yaml with default settings."))
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Ollama endpoint and model")
	fmt.Println("  - Streaming and thinking mode")
	fmt.Println("  - Reminder database path and poll interval")
	fmt.Println("  - Agent step and history limits")
}

func showConfig() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render("Could not load config. Showing defaults:\n"))
	} else {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true).
			Render("Effective configuration:\n"))
	}

	if ollamaURL != "" {
		cfg.Ollama.BaseURL = ollamaURL
	}
	if ollamaModel != "" {
		cfg.Ollama.Model = ollamaModel
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(string(data))

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).
		Render("Config sources (in order of precedence):"))
	fmt.Println("  1. REMI_* environment variables")
	fmt.Println("  2. ./config.local.yaml")
	fmt.Println("  3. ./config.yaml")
	fmt.Println("  4. ~/.remi/config.yaml")
}
