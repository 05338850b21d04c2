package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/models"
	"github.com/desertthunder/klix/internal/services"
	"github.com/desertthunder/klix/internal/shared"
	tu "github.com/desertthunder/klix/internal/testing"
	"github.com/gorilla/websocket"
)

type userMap map[string]*models.User

func (m userMap) Get(id string) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func newUserMap() userMap {
	admin := models.NewUser(1, "ops@example.com", "ops", models.StatusAdmin)
	admin.SetID("admin-1")
	member := models.NewUser(2, "pro@example.com", "pro", models.StatusLifetime)
	member.SetID("member-1")
	return userMap{admin.ID(): admin, member.ID(): member}
}

func streamURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events" + query
}

func dialAs(srv *httptest.Server, userID, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	if header == nil {
		header = http.Header{}
	}
	if userID != "" {
		header.Set(UserHeader, userID)
	}
	return websocket.DefaultDialer.Dial(streamURL(srv, query), header)
}

func dialEvents(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	conn, _, err := dialAs(srv, "admin-1", query, nil)
	if err != nil {
		t.Fatalf("failed to dial event stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	var evt events.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return evt
}

func newStreamRouter(bus *events.Bus, middleware ...Middleware) *BasicRouter {
	logger := log.New(io.Discard)
	r := NewBasicRouter()
	r.Use(middleware...)
	r.Use(SessionMiddleware(newUserMap(), logger))
	r.Handler(NewEventStream(bus, logger))
	return r
}

func TestEventStream(t *testing.T) {
	newStream := func(t *testing.T) (*httptest.Server, *events.Bus) {
		bus := events.NewBus(0, nil)
		srv := httptest.NewServer(newStreamRouter(bus))
		t.Cleanup(srv.Close)
		return srv, bus
	}

	t.Run("Streams Live Events", func(t *testing.T) {
		srv, bus := newStream(t)
		conn := dialEvents(t, srv, "")

		bus.Publish(events.New(events.CredentialFailed, "token rejected", "user_id", "u-1"))

		evt := readEvent(t, conn)
		if evt.Kind != events.CredentialFailed || evt.Fields["user_id"] != "u-1" {
			t.Errorf("unexpected event: %+v", evt)
		}
	})

	t.Run("Backfills Then Streams Without Duplicates", func(t *testing.T) {
		srv, bus := newStream(t)
		bus.Publish(events.New(events.WebhookIssued, "first"))
		bus.Publish(events.New(events.WebhookIssued, "second"))

		conn := dialEvents(t, srv, "?tail=1")
		bus.Publish(events.New(events.WebhookFailed, "third"))

		if evt := readEvent(t, conn); evt.Message != "second" {
			t.Errorf("expected backlog event, got %+v", evt)
		}
		if evt := readEvent(t, conn); evt.Message != "third" {
			t.Errorf("expected live event, got %+v", evt)
		}
	})

	t.Run("Wrapped By Logging Middleware", func(t *testing.T) {
		bus := events.NewBus(0, nil)
		srv := httptest.NewServer(newStreamRouter(bus, LoggingMiddleware(log.New(io.Discard))))
		t.Cleanup(srv.Close)

		conn := dialEvents(t, srv, "")
		bus.Publish(events.New(events.Registration, "ana@example.com"))

		if evt := readEvent(t, conn); evt.Kind != events.Registration {
			t.Errorf("unexpected event: %+v", evt)
		}
	})

	t.Run("Unsubscribes On Disconnect", func(t *testing.T) {
		srv, bus := newStream(t)
		conn := dialEvents(t, srv, "")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()

		deadline := time.Now().Add(2 * time.Second)
		for bus.Subscribers() != 0 {
			if time.Now().After(deadline) {
				t.Fatalf("expected subscriber to be removed, still %d", bus.Subscribers())
			}
			time.Sleep(10 * time.Millisecond)
		}
	})
}

func TestEventStreamAccess(t *testing.T) {
	bus := events.NewBus(0, nil)
	srv := httptest.NewServer(newStreamRouter(bus))
	t.Cleanup(srv.Close)

	tc := []struct {
		name   string
		userID string
		header http.Header
		status int
	}{
		{name: "Anonymous", status: http.StatusUnauthorized},
		{name: "Unknown User", userID: "ghost", status: http.StatusUnauthorized},
		{name: "Non-Admin", userID: "member-1", status: http.StatusForbidden},
		{name: "Foreign Origin", userID: "admin-1", header: http.Header{"Origin": {"https://evil.example"}}, status: http.StatusForbidden},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dialAs(srv, tt.userID, "?tail=10", tt.header)
			if err == nil {
				conn.Close()
				t.Fatal("expected handshake to be refused")
			}
			if !errors.Is(err, websocket.ErrBadHandshake) {
				t.Fatalf("expected bad handshake, got %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}

	if n := bus.Subscribers(); n != 0 {
		t.Errorf("expected refused clients to leave no subscribers, got %d", n)
	}

	t.Run("Same Origin Admin", func(t *testing.T) {
		conn, _, err := dialAs(srv, "admin-1", "", http.Header{"Origin": {srv.URL}})
		if err != nil {
			t.Fatalf("expected same-origin admin to connect: %v", err)
		}
		conn.Close()
	})
}

func TestEventStreamRedactsWebhookURLs(t *testing.T) {
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(hook.Close)
	secretURL := hook.URL + "/webhook/trigger-7f3a9c?token=s3cret"

	bus := events.NewBus(0, nil)
	srv := httptest.NewServer(newStreamRouter(bus))
	t.Cleanup(srv.Close)

	profiles := &tu.StaticProfiles{}
	profiles.Set("member-1", secretURL)
	profiles.Set("member-2", "http://127.0.0.1:1/webhook/unreachable-secret")
	svc := services.NewWebhookService(shared.WebhookConfig{Workers: 1}, profiles, nil,
		services.WithBus(bus),
		services.WithLogger(log.New(io.Discard)),
	)
	t.Cleanup(func() { svc.Close(context.Background()) })

	conn := dialEvents(t, srv, "")
	member := newUserMap()["member-1"]
	unreachable := models.NewUser(3, "x@example.com", "x", models.StatusLifetime)
	unreachable.SetID("member-2")

	svc.SendTestPing(context.Background(), member)
	svc.SendTestPing(context.Background(), unreachable)

	for _, want := range []events.Kind{events.WebhookIssued, events.WebhookFailed} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}

		var evt events.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("invalid event frame: %v", err)
		}
		if evt.Kind != want {
			t.Errorf("expected %s, got %s", want, evt.Kind)
		}
		for _, secret := range []string{"trigger-7f3a9c", "s3cret", "unreachable-secret", "/webhook/"} {
			if strings.Contains(string(data), secret) {
				t.Errorf("frame leaks %q: %s", secret, data)
			}
		}
	}
}
