package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/klix/internal/server"
	"github.com/desertthunder/klix/internal/shared"
	"github.com/desertthunder/klix/internal/ui"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted. With --monitor the event monitor owns the terminal.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	monitor := cmd.Bool("monitor")
	if monitor {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	if err := r.open(); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	router := server.NewRouter(server.Deps{
		Users:      r.users,
		Settings:   r.users,
		Dispatcher: r.webhooks,
		Errors:     r.errors,
		Bus:        r.bus,
		Logger:     r.logger,
	})
	srv := server.NewHTTPServer(cfg.Addr(), router)
	r.logger.Debug("routes registered", "patterns", router.Routes())

	r.logger.Info("listening", "addr", cfg.Addr(), "driver", r.config.Database.Driver)

	if !monitor {
		return server.Serve(ctx, srv, shutdownTimeout)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ctx, srv, shutdownTimeout)
	}()

	events, unsubscribe := r.bus.Subscribe(256)
	defer unsubscribe()

	model := ui.NewModel(events, r.bus.Tail(ui.DefaultLimit))
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	cancel()
	return <-errCh
}
