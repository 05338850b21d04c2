package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/services"
	"github.com/desertthunder/klix/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// sessionUser loads the user named by --user.
func (r *Runner) sessionUser(cmd *cli.Command) (*models.User, error) {
	id := cmd.String("user")
	user, err := r.users.Get(id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown user %s", shared.ErrNotAuthenticated, id)
	}
	return user, err
}

func (r *Runner) printResult(res services.Result) error {
	if !res.Success {
		return errors.New(res.Message)
	}
	return r.writePlain("✓ %s (%s)\n", res.Message, res.Delivery)
}

// WebhookTest sends the fixed test payload to the user's saved webhook.
func (r *Runner) WebhookTest(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	user, err := r.sessionUser(cmd)
	if err != nil {
		return err
	}

	return r.printResult(r.webhooks.SendTestPing(ctx, user))
}

// WebhookSet saves the user's webhook URL.
func (r *Runner) WebhookSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	id := cmd.String("user")
	url := cmd.StringArg("url")
	if err := r.users.SetWebhookURL(ctx, id, url); err != nil {
		return err
	}

	if url == "" {
		return r.writePlain("✓ Webhook cleared for %s\n", id)
	}
	return r.writePlain("✓ Webhook for %s set to %s\n", id, url)
}

// WebhookResult relays a single generation result. Delivery happens in the background and is
// drained before the process exits.
func (r *Runner) WebhookResult(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	user, err := r.sessionUser(cmd)
	if err != nil {
		return err
	}

	actionType, ok := services.ParseActionType(cmd.String("type"))
	if !ok {
		return fmt.Errorf("%w: unknown result type %q", shared.ErrInvalidArgument, cmd.String("type"))
	}

	action := services.Action{Type: actionType, Prompt: cmd.String("prompt"), Result: models.TextMedia(cmd.String("text"))}
	if path := cmd.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read result file: %w", err)
		}
		action.Result = models.BlobMedia(data, "")
		r.logger.Debug("attached result file", "path", path, "size", humanize.Bytes(uint64(len(data))))
	}

	r.webhooks.ReportResult(ctx, action, user)
	return r.writePlain("Result queued for delivery\n")
}

// WebhookSocial sends a composed post with optional media files.
func (r *Runner) WebhookSocial(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	user, err := r.sessionUser(cmd)
	if err != nil {
		return err
	}

	post := services.SocialPost{
		Caption:      cmd.String("caption"),
		Hashtags:     cmd.String("hashtags"),
		CTA:          cmd.String("cta"),
		Link:         cmd.String("link"),
		ScheduleDate: cmd.String("schedule"),
	}

	var total uint64
	for i, path := range cmd.StringSlice("media") {
		item, err := mediaItem(i, path)
		if err != nil {
			return err
		}
		total += uint64(len(item.Result.Blob.Data))
		post.Media = append(post.Media, item)
	}
	if len(post.Media) > 0 {
		r.logger.Info("sending post with media", "files", len(post.Media), "size", humanize.Bytes(total))
	}

	return r.printResult(r.webhooks.ReportSocialPost(ctx, post, user))
}

// mediaItem loads a file as a manual upload so its original file name is kept.
func mediaItem(i int, path string) (models.HistoryItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.HistoryItem{}, fmt.Errorf("failed to read media file: %w", err)
	}

	mimeType := http.DetectContentType(data)
	itemType := models.ItemImage
	if strings.HasPrefix(mimeType, "video/") {
		itemType = models.ItemVideo
	}

	return models.HistoryItem{
		ID:     models.ManualUploadPrefix + strconv.Itoa(i+1),
		Type:   itemType,
		Prompt: filepath.Base(path),
		Result: models.BlobMedia(data, mimeType),
	}, nil
}
