package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/klix/internal/models"
	"golang.org/x/sync/errgroup"
)

// ScheduleLayout is the wire format of a social post's schedule_date.
const ScheduleLayout = "2006-01-02T15:04:05.000Z"

// localLayouts are parsed in the server's local zone, like a browser datetime-local value.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NormalizeScheduleDate converts s to [ScheduleLayout] in UTC. Empty input stays empty.
func NormalizeScheduleDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Format(ScheduleLayout), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC().Format(ScheduleLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized schedule date %q", s)
}

// encodeBlob returns the base64 text of b and its MIME type, sniffing it when unset.
func encodeBlob(b *models.Blob) (string, string) {
	mimeType := b.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(b.Data)
	}
	return base64.StdEncoding.EncodeToString(b.Data), mimeType
}

// encodeAction renders an action's result for the wire.
func encodeAction(a Action) (result, mimeType string) {
	if a.Result.IsBlob() {
		return encodeBlob(a.Result.Blob)
	}
	mimeType = a.MIMEType
	if a.Type == ActionText && mimeType == "" {
		mimeType = "text/plain"
	}
	return a.Result.Text, mimeType
}

// mediaFileName reuses the uploaded name for manual uploads and synthesizes one otherwise.
func mediaFileName(item models.HistoryItem) string {
	if item.IsManualUpload() {
		return item.Prompt
	}
	if item.Type == models.ItemVideo {
		return fmt.Sprintf("video_%s.mp4", item.ID)
	}
	return fmt.Sprintf("image_%s.png", item.ID)
}

func encodeSocialItem(item models.HistoryItem) SocialMedia {
	m := SocialMedia{Type: "image", FileName: mediaFileName(item)}
	if item.Type == models.ItemVideo {
		m.Type = "video"
	}

	if item.Result.IsBlob() {
		m.Data, m.MIMEType = encodeBlob(item.Result.Blob)
	} else {
		m.Data, m.MIMEType = item.Result.Text, "image/png"
	}
	return m
}

// encodeSocialMedia encodes every item concurrently, preserving order.
func encodeSocialMedia(ctx context.Context, items []models.HistoryItem) ([]SocialMedia, error) {
	out := make([]SocialMedia, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = encodeSocialItem(item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// mediaSize totals the raw bytes of blob media, for logging.
func mediaSize(items []models.HistoryItem) uint64 {
	var n uint64
	for _, item := range items {
		if item.Result.IsBlob() {
			n += uint64(len(item.Result.Blob.Data))
		}
	}
	return n
}
