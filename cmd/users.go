package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/klix/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

type userView struct {
	ID         string        `json:"id"`
	Sequence   int           `json:"sequence"`
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	Status     models.Status `json:"status"`
	WebhookURL string        `json:"webhookUrl,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type trialView struct {
	ID                   string    `json:"id"`
	FullName             string    `json:"fullName"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	StoryboardUsageCount int       `json:"storyboardUsageCount"`
	CreatedAt            time.Time `json:"createdAt"`
}

// UsersAdd creates a user profile.
func (r *Runner) UsersAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	status, err := models.ParseStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	username := cmd.String("username")
	if username == "" {
		username = cmd.String("email")
	}

	user := models.NewUser(0, cmd.String("email"), username, status)
	user.SetWebhookURL(cmd.String("webhook"))
	if err := r.users.Create(user); err != nil {
		return err
	}

	r.logger.Info("user created", "id", user.ID(), "status", status)
	return r.writePlain("✓ Created %s user %s (%s)\n", status, user.Email(), user.ID())
}

// UsersList prints user profiles, or trial registrations with --trials.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if cmd.Bool("trials") {
		return r.listTrials(ctx, useJSON, pretty)
	}

	users, err := r.users.List(map[string]any{"status": cmd.String("status")})
	if err != nil {
		return err
	}

	if useJSON {
		views := make([]userView, len(users))
		for i, u := range users {
			views[i] = userView{u.ID(), u.Sequence(), u.Username(), u.Email(), u.Status(), u.WebhookURL(), u.CreatedAt()}
		}
		return r.writeJSON(views, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Users (%s)", humanize.Comma(int64(len(users)))))
	for _, u := range users {
		webhook := u.WebhookURL()
		if webhook == "" {
			webhook = "no webhook"
		}
		r.writePlain("%4d  %-36s  %-12s  %s\n", u.Sequence(), u.ID(), u.Status(), u.Email())
		r.writePlain("      %s • created %s\n", webhook, humanize.Time(u.CreatedAt()))
	}
	return nil
}

func (r *Runner) listTrials(ctx context.Context, useJSON, pretty bool) error {
	trials, err := r.trials.List(ctx)
	if err != nil {
		return err
	}

	if useJSON {
		views := make([]trialView, len(trials))
		for i, t := range trials {
			views[i] = trialView{t.ID(), t.Username(), t.Email(), t.Phone(), t.StoryboardUsageCount(), t.CreatedAt()}
		}
		return r.writeJSON(views, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Trial registrations (%s)", humanize.Comma(int64(len(trials)))))
	for _, t := range trials {
		r.writePlain("%-32s  %-20s  %-14s  %s\n", t.Email(), t.Username(), t.Phone(), humanize.Time(t.CreatedAt()))
	}
	return nil
}
