package ui

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/server"
	"github.com/desertthunder/klix/internal/shared"
)

var at = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func event(seq uint64, kind events.Kind, msg string, kv ...string) events.Event {
	evt := events.New(kind, msg, kv...)
	evt.Sequence = seq
	evt.Time = at
	return evt
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newSizedModel(source <-chan events.Event, backlog ...events.Event) *Model {
	m := NewModel(source, backlog)
	m.now = func() time.Time { return at.Add(time.Minute) }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestModel(t *testing.T) {
	t.Run("Backlog Is Newest First", func(t *testing.T) {
		m := newSizedModel(nil, event(1, events.WebhookIssued, "first"), event(2, events.WebhookFailed, "second"))

		if len(m.events) != 2 || m.events[0].Message != "second" {
			t.Errorf("expected newest first, got %+v", m.events)
		}
		if m.counts[events.WebhookIssued] != 1 || m.counts[events.WebhookFailed] != 1 {
			t.Errorf("unexpected counts: %v", m.counts)
		}
	})

	t.Run("Receives Events And Keeps Listening", func(t *testing.T) {
		m := newSizedModel(nil)

		_, cmd := m.Update(eventReceivedMsg(event(1, events.WebhookSkipped, "no url")))

		if cmd == nil {
			t.Fatal("expected a follow-up command")
		}
		if len(m.events) != 1 || m.counts[events.WebhookSkipped] != 1 {
			t.Errorf("expected event to be recorded, got %+v", m.events)
		}
		if len(m.eventList.Items()) != 1 {
			t.Errorf("expected list to show 1 item, got %d", len(m.eventList.Items()))
		}
	})

	t.Run("Skips Events Already In Backlog", func(t *testing.T) {
		m := newSizedModel(nil, event(1, events.WebhookIssued, "a"), event(2, events.WebhookIssued, "b"))

		m.Update(eventReceivedMsg(event(2, events.WebhookIssued, "b")))
		m.Update(eventReceivedMsg(event(3, events.WebhookIssued, "c")))

		if len(m.events) != 3 || m.counts[events.WebhookIssued] != 3 {
			t.Errorf("expected duplicate to be skipped, got %d events", len(m.events))
		}
	})

	t.Run("Credential Failure Raises Banner", func(t *testing.T) {
		m := newSizedModel(nil)
		m.Update(eventReceivedMsg(event(1, events.CredentialFailed, "API key not valid")))

		if m.alert == nil {
			t.Fatal("expected alert to be set")
		}
		if view := m.View(); !strings.Contains(view, "Credential failure") {
			t.Errorf("expected banner in view, got:\n%s", view)
		}
	})

	t.Run("Pause Counts Missed Events", func(t *testing.T) {
		m := newSizedModel(nil)
		m.Update(runes("p"))
		m.Update(eventReceivedMsg(event(1, events.WebhookIssued, "")))
		m.Update(eventReceivedMsg(event(2, events.WebhookIssued, "")))

		if len(m.events) != 0 || m.missed != 2 {
			t.Errorf("expected 2 missed events, got %d recorded and %d missed", len(m.events), m.missed)
		}
		if view := m.View(); !strings.Contains(view, "Paused (2 missed)") {
			t.Errorf("expected paused status, got:\n%s", view)
		}

		m.Update(runes("p"))
		if m.paused || m.missed != 0 {
			t.Error("expected resume to reset the missed counter")
		}
	})

	t.Run("Clear Resets Everything", func(t *testing.T) {
		m := newSizedModel(nil, event(1, events.CredentialFailed, "expired"))
		m.Update(runes("c"))

		if len(m.events) != 0 || m.alert != nil || len(m.counts) != 0 {
			t.Error("expected events, alert and counts to be cleared")
		}
	})

	t.Run("Detail View", func(t *testing.T) {
		m := newSizedModel(nil, event(7, events.WebhookFailed, "timeout", "endpoint", "http://hook.test", "user_id", "u-1"))

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DetailView || m.selected == nil || m.selected.Sequence != 7 {
			t.Fatalf("expected detail view of event 7, got view %d", m.view)
		}

		view := m.View()
		for _, want := range []string{"Event #7", "timeout", "http://hook.test", "u-1"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in detail view", want)
			}
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != EventListView || m.selected != nil {
			t.Error("expected esc to return to the list")
		}
	})

	t.Run("Enter On Empty List", func(t *testing.T) {
		m := newSizedModel(nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != EventListView {
			t.Error("expected to stay on the list")
		}
	})

	t.Run("Stream Closed", func(t *testing.T) {
		source := make(chan events.Event)
		close(source)
		m := newSizedModel(source)

		msg := m.Init()()
		if got, ok := msg.(Msg); !ok || got.kind != MsgStreamClosed {
			t.Fatalf("expected stream closed message, got %#v", msg)
		}

		_, cmd := m.Update(msg)
		if cmd != nil {
			t.Error("expected no further commands")
		}
		if !strings.Contains(m.View(), "Stream closed") {
			t.Error("expected closed status in view")
		}
	})

	t.Run("Limit Trims Oldest", func(t *testing.T) {
		m := newSizedModel(nil)
		m.limit = 2
		for i := range uint64(3) {
			m.Update(eventReceivedMsg(event(i+1, events.WebhookIssued, "")))
		}
		if len(m.events) != 2 || m.events[1].Sequence != 2 {
			t.Errorf("expected sequences 3,2 to remain, got %+v", m.events)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newSizedModel(nil)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestEventItem(t *testing.T) {
	item := eventItem{event: event(3, events.WebhookIssued, "delivered", "endpoint", "http://a.test", "kind", "result"), now: at.Add(2 * time.Minute)}

	if desc := item.Description(); !strings.Contains(desc, "#3") || !strings.Contains(desc, "2 minutes ago") {
		t.Errorf("unexpected description: %q", desc)
	}
	if f := item.fields(); f != "endpoint=http://a.test kind=result" {
		t.Errorf("expected sorted fields, got %q", f)
	}
	if !strings.Contains(item.FilterValue(), "delivered") {
		t.Error("expected message in filter value")
	}
}

func TestStreamURL(t *testing.T) {
	tc := []struct {
		addr string
		tail int
		want string
	}{
		{addr: "localhost:8080", want: "ws://localhost:8080/api/events"},
		{addr: "http://localhost:8080/", tail: 20, want: "ws://localhost:8080/api/events?tail=20"},
		{addr: "https://klix.test", want: "wss://klix.test/api/events"},
		{addr: "ws://klix.test", want: "ws://klix.test/api/events"},
	}

	for _, tt := range tc {
		t.Run(tt.addr, func(t *testing.T) {
			if got := StreamURL(tt.addr, tt.tail); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

type adminLookup struct{}

func (adminLookup) Get(id string) (*models.User, error) {
	if id != "admin-1" {
		return nil, shared.ErrNotFound
	}
	u := models.NewUser(1, "ops@example.com", "ops", models.StatusAdmin)
	u.SetID(id)
	return u, nil
}

func TestDial(t *testing.T) {
	bus := events.NewBus(0, nil)
	r := server.NewBasicRouter()
	r.Use(server.SessionMiddleware(adminLookup{}, log.New(io.Discard)))
	r.Handler(server.NewEventStream(bus, log.New(io.Discard)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	bus.Publish(events.New(events.Registration, "backlog"))

	if _, err := Dial(context.Background(), StreamURL(srv.URL, 1), "someone"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected unauthorized dial to fail with 401, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := Dial(ctx, StreamURL(srv.URL, 1), "admin-1")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Message != "backlog" {
			t.Errorf("expected backlog event, got %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected channel to close after cancel")
	}

	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/api/events", "admin-1"); err == nil {
		t.Error("expected dial error for closed port")
	}
}
