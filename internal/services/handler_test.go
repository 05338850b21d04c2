package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/classifier"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/models"
)

type recordingReporter struct {
	raws  []any
	users []*models.User
}

func (r *recordingReporter) ReportError(_ context.Context, raw any, user *models.User) {
	r.raws = append(r.raws, raw)
	r.users = append(r.users, user)
}

func TestErrorHandler(t *testing.T) {
	t.Run("Reports And Classifies", func(t *testing.T) {
		rep := &recordingReporter{}
		h := NewErrorHandler(nil, rep, log.New(io.Discard))
		user := newSessionUser("u-1", models.StatusLifetime)
		raw := errors.New("Resource exhausted")

		res := h.Handle(context.Background(), raw, user)

		if res.Code != classifier.Code429 {
			t.Errorf("expected 429, got %q", res.Code)
		}
		if len(rep.raws) != 1 || rep.raws[0] != raw || rep.users[0] != user {
			t.Errorf("expected raw error to be reported once, got %v", rep.raws)
		}
	})

	t.Run("Reports Auth Failures Too", func(t *testing.T) {
		rep := &recordingReporter{}
		bus := events.NewBus(0, nil)
		ch, cancel := bus.Subscribe(2)
		defer cancel()

		c := classifier.New(classifier.WithAuthFailureHook(CredentialFailedHook(bus)))
		h := NewErrorHandler(c, rep, log.New(io.Discard))

		res := h.Handle(context.Background(), "API key not valid", nil)

		if !res.IsAuthFailure {
			t.Fatal("expected auth failure")
		}
		if len(rep.raws) != 1 {
			t.Errorf("expected report, got %d", len(rep.raws))
		}

		select {
		case evt := <-ch:
			if evt.Kind != events.CredentialFailed {
				t.Errorf("expected credential-failed, got %s", evt.Kind)
			}
		default:
			t.Fatal("expected credential-failed event")
		}
		if len(ch) != 0 {
			t.Error("expected exactly one event")
		}
	})

	t.Run("Nil Reporter", func(t *testing.T) {
		h := NewErrorHandler(nil, nil, log.New(io.Discard))
		res := h.Handle(context.Background(), nil, nil)
		if res.UserMessage != classifier.UnknownError {
			t.Errorf("expected unknown error message, got %q", res.UserMessage)
		}
	})
}
