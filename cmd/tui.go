package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/klix/internal/shared"
	"github.com/desertthunder/klix/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI connects to a running server's event stream and shows the live monitor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	url := ui.StreamURL(addr, cmd.Int("tail"))
	r.logger.Info("connecting to event stream", "url", url)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source, err := ui.Dial(ctx, url, cmd.String("user"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	model := ui.NewModel(source, nil)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
