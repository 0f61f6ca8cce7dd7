package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/ui"
)

// TUI launches the interactive browser for the open library.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs go to a file while the UI owns the terminal.
	path := r.config.Log.File
	if path == "" {
		path = filepath.Join("tmp", "edbx-tui.log")
	}
	if r.logCloser == nil {
		fileLogger, closer, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.logCloser = closer
		r.SetLogger(fileLogger)
	}

	model := ui.NewModel(ctx, r.playlists, r.members, r.waveforms)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
