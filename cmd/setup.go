package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/klix/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes a config file if none exists, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if config, err := shared.LoadConfig(r.configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", r.configPath)
			r.config = config
		}
	}

	r.logger.Info("initializing database", "driver", r.config.Database.Driver, "path", r.config.Database.Path)

	if err := r.open(); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	applied, err := shared.AppliedMigrations(r.db)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Schema (%d migrations)", len(applied)))
	for _, m := range applied {
		r.writePlain("%04d  %-24s  applied %s\n", m.Version, m.Name, humanize.Time(m.AppliedAt))
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}
