package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/ui"
)

// TUI launches the interactive terminal UI for playlist migration.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if r.dest == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to a file so they don't interfere with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger("./tmp/trx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.source, r.engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive terminal UI for playlist migration",
		Action: r.TUI,
	}
}
