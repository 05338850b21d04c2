package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	streamBuffer   = 256
	maxBacklog     = 500
)

// MsgAdminOnly is returned to non-admin sessions requesting the event stream.
const MsgAdminOnly = "The event stream is only available to admins."

// EventStream pushes bus events to websocket clients as JSON text frames.
//
// Only admin sessions may connect, and browsers only from the server's own origin. Clients may
// request a backlog with ?tail=N; recent events are sent first, then live ones. A slow client
// misses events rather than holding up publishers.
type EventStream struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewEventStream creates the /api/events handler.
func NewEventStream(bus *events.Bus, logger *log.Logger) *EventStream {
	return &EventStream{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func (s *EventStream) Routes() []string { return []string{"GET /api/events"} }

func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	switch {
	case user == nil:
		writeError(w, http.StatusUnauthorized, services.MsgNotLoggedIn)
		return
	case !user.IsAdmin():
		writeError(w, http.StatusForbidden, MsgAdminOnly)
		return
	}

	backlog, _ := strconv.Atoi(r.URL.Query().Get("tail"))
	backlog = min(max(backlog, 0), maxBacklog)

	// Subscribe before the handshake completes so nothing published after it is missed.
	ch, cancel := s.bus.Subscribe(streamBuffer)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	s.logger.Debug("event stream connected", "client", id, "user_id", user.ID(), "backlog", backlog)

	var recent []events.Event
	if backlog > 0 {
		recent = s.bus.Tail(backlog)
	}

	go s.writePump(conn, id, recent, ch)
	s.readPump(conn, id)
	cancel()
}

// readPump discards client frames and returns when the client goes away.
func (s *EventStream) readPump(conn *websocket.Conn, id string) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("event stream read error", "client", id, "error", err)
			}
			return
		}
	}
}

func (s *EventStream) writePump(conn *websocket.Conn, id string, recent []events.Event, ch <-chan events.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		s.logger.Debug("event stream closed", "client", id)
	}()

	var last uint64
	for _, evt := range recent {
		if !s.write(conn, evt) {
			return
		}
		last = evt.Sequence
	}

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if evt.Sequence <= last {
				continue
			}
			if !s.write(conn, evt) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *EventStream) write(conn *websocket.Conn, evt events.Event) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(evt); err != nil {
		s.logger.Debug("event stream write failed", "error", err)
		return false
	}
	return true
}
