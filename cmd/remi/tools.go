package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/remibot/remi/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools the assistant can call.

The agent chooses these automatically while chatting; you never invoke
them by hand.

Examples:
  remi tools            # List all tools
  remi tools --verbose  # Include argument schemas`,
	Run: func(cmd *cobra.Command, args []string) {
		runTools()
	},
}

func runTools() {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	toolStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF"))

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	// Listing needs names and descriptions only, so the tools get no store
	// or extractor here.
	toolbox := tools.NewToolbox(logger)
	for _, tool := range tools.Builtins(tools.Deps{Logger: logger}) {
		toolbox.MustRegister(tool)
	}

	fmt.Println(headerStyle.Render("Available Tools"))
	fmt.Println()

	for _, name := range toolbox.List() {
		tool, ok := toolbox.Get(name)
		if !ok {
			continue
		}

		fmt.Printf("  %s\n", toolStyle.Render("◆ "+tool.Name()))
		fmt.Printf("    %s\n", descStyle.Render(tool.Description()))

		if verbose {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, tool.Schema(), "    ", "  "); err == nil {
				fmt.Printf("    %s\n", dimStyle.Render("Arguments:"))
				fmt.Printf("    %s\n", dimStyle.Render(pretty.String()))
			}
		}
		fmt.Println()
	}

	if !verbose {
		fmt.Println(dimStyle.Render("  Use --verbose for argument schemas"))
	}
}
