// cmd/flowdeck/main.go
//
// This is the entry point for the flowdeck terminal client.
// When you run `flowdeck` from a project directory, this is what executes.
//
// Flow:
// 1. Initialize the .flowdeck folder (config, logs, exports)
// 2. Launch the TUI against the configured Workflow Builder API

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/flowdeck/internal/config"
	"github.com/kingrea/flowdeck/internal/tui"
)

func main() {
	// Get the current working directory - this is the "project" we're working in
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitFlowdeckDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .flowdeck directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting flowdeck: %v\n", err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
