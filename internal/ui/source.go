package ui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/server"
	"github.com/gorilla/websocket"
)

// StreamURL builds the websocket URL of a klix server's event stream.
// addr may be a host:port or an http(s) base URL.
func StreamURL(addr string, tail int) string {
	switch {
	case strings.HasPrefix(addr, "https://"):
		addr = "wss://" + strings.TrimPrefix(addr, "https://")
	case strings.HasPrefix(addr, "http://"):
		addr = "ws://" + strings.TrimPrefix(addr, "http://")
	case !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://"):
		addr = "ws://" + addr
	}

	u := strings.TrimSuffix(addr, "/") + "/api/events"
	if tail > 0 {
		u += "?" + url.Values{"tail": {strconv.Itoa(tail)}}.Encode()
	}
	return u
}

// Dial connects to a remote event stream as the admin userID. The returned channel closes when the
// connection drops or ctx ends.
func Dial(ctx context.Context, streamURL, userID string) (<-chan events.Event, error) {
	header := http.Header{server.UserHeader: {userID}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, streamURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s: %s", streamURL, resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", streamURL, err)
	}

	ch := make(chan events.Event, 64)
	go func() {
		defer close(ch)
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		defer stop()
		defer conn.Close()

		for {
			var evt events.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case ch <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
