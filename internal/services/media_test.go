package services

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/klix/internal/models"
)

func TestNormalizeScheduleDate(t *testing.T) {
	local := time.Date(2024, 6, 1, 9, 15, 0, 0, time.Local).UTC().Format(ScheduleLayout)

	tc := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "2024-05-01T10:30:00Z", want: "2024-05-01T10:30:00.000Z"},
		{in: "2024-05-01T10:30:00.25-04:00", want: "2024-05-01T14:30:00.250Z"},
		{in: "2024-06-01T09:15", want: local},
		{in: "2024-06-01 09:15:00", want: local},
		{in: "tomorrow", wantErr: true},
		{in: "2024-13-01T00:00", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeScheduleDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMediaFileName(t *testing.T) {
	tc := []struct {
		item models.HistoryItem
		want string
	}{
		{item: models.HistoryItem{ID: "manual-42", Type: models.ItemImage, Prompt: "cat.jpg"}, want: "cat.jpg"},
		{item: models.HistoryItem{ID: "manual-43", Type: models.ItemVideo, Prompt: "dog.mov"}, want: "dog.mov"},
		{item: models.HistoryItem{ID: "x1", Type: models.ItemVideo}, want: "video_x1.mp4"},
		{item: models.HistoryItem{ID: "x2", Type: models.ItemImage}, want: "image_x2.png"},
		{item: models.HistoryItem{ID: "x3", Type: models.ItemCanvas}, want: "image_x3.png"},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := mediaFileName(tt.item); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEncodeAction(t *testing.T) {
	t.Run("Text Keeps Given MIME", func(t *testing.T) {
		result, mime := encodeAction(Action{Type: ActionText, Result: models.TextMedia("# hi"), MIMEType: "text/markdown"})
		if result != "# hi" || mime != "text/markdown" {
			t.Errorf("unexpected encoding: %q %q", result, mime)
		}
	})

	t.Run("Non-text String Has No Default MIME", func(t *testing.T) {
		_, mime := encodeAction(Action{Type: ActionImage, Result: models.TextMedia("data")})
		if mime != "" {
			t.Errorf("expected empty MIME, got %q", mime)
		}
	})

	t.Run("Blob Overrides Given MIME", func(t *testing.T) {
		_, mime := encodeAction(Action{Type: ActionAudio, Result: models.BlobMedia([]byte("x"), "audio/wav"), MIMEType: "text/plain"})
		if mime != "audio/wav" {
			t.Errorf("expected audio/wav, got %q", mime)
		}
	})
}

func TestEncodeSocialMedia(t *testing.T) {
	t.Run("Preserves Order", func(t *testing.T) {
		items := make([]models.HistoryItem, 10)
		for i := range items {
			items[i] = models.HistoryItem{ID: string(rune('a' + i)), Type: models.ItemImage, Result: models.TextMedia("x")}
		}

		out, err := encodeSocialMedia(context.Background(), items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, m := range out {
			want := "image_" + string(rune('a'+i)) + ".png"
			if m.FileName != want {
				t.Errorf("item %d: expected %s, got %s", i, want, m.FileName)
			}
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := encodeSocialMedia(ctx, []models.HistoryItem{{ID: "a"}})
		if err == nil {
			t.Error("expected context error")
		}
	})
}

func TestParseActionType(t *testing.T) {
	tc := map[string]ActionType{
		"text":   ActionText,
		"Video":  ActionVideo,
		"Canvas": ActionImage,
		"audio":  ActionAudio,
	}
	for in, want := range tc {
		got, ok := ParseActionType(in)
		if !ok || got != want {
			t.Errorf("ParseActionType(%q) = %q, %v", in, got, ok)
		}
	}

	if _, ok := ParseActionType("gif"); ok {
		t.Error("expected unknown type to be rejected")
	}
}

func TestMediaSize(t *testing.T) {
	items := []models.HistoryItem{
		{Result: models.BlobMedia(make([]byte, 10), "")},
		{Result: models.TextMedia("ignored")},
		{Result: models.BlobMedia(make([]byte, 5), "")},
	}
	if n := mediaSize(items); n != 15 {
		t.Errorf("expected 15 bytes, got %d", n)
	}
}
