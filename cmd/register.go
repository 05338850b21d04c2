package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"
)

// Register stores a trial registration and notifies the automation webhook.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	res := r.webhooks.ReportRegistration(ctx, cmd.String("name"), cmd.String("email"), cmd.String("phone"))
	if !res.Success {
		return errors.New(res.Message)
	}

	return r.writePlain("✓ %s\n", res.Message)
}
