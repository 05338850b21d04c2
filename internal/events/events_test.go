package events

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestBus(t *testing.T) {
	t.Run("Publish delivers to subscribers", func(t *testing.T) {
		bus := NewBus(0, nil)
		ch, cancel := bus.Subscribe(4)
		defer cancel()

		bus.Publish(New(CredentialFailed, "token expired", "user_id", "u-1"))

		evt := <-ch
		if evt.Kind != CredentialFailed {
			t.Errorf("expected kind %s, got %s", CredentialFailed, evt.Kind)
		}
		if evt.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", evt.Sequence)
		}
		if evt.Time.IsZero() {
			t.Error("expected time to be stamped")
		}
		if evt.Fields["user_id"] != "u-1" {
			t.Errorf("expected user_id field, got %v", evt.Fields)
		}
	})

	t.Run("Publish never blocks on a full subscriber", func(t *testing.T) {
		var buf bytes.Buffer
		bus := NewBus(0, log.New(&buf))
		ch, cancel := bus.Subscribe(1)
		defer cancel()

		for range 5 {
			bus.Publish(New(WebhookIssued, "sent"))
		}

		if got := len(ch); got != 1 {
			t.Errorf("expected 1 buffered event, got %d", got)
		}
		if !strings.Contains(buf.String(), "event dropped") {
			t.Errorf("expected drop warning in log, got %q", buf.String())
		}
	})

	t.Run("Publish without subscribers", func(t *testing.T) {
		bus := NewBus(0, nil)
		bus.Publish(New(Registration, "new trial"))

		if tail := bus.Tail(10); len(tail) != 1 {
			t.Errorf("expected event retained in tail, got %d", len(tail))
		}
	})

	t.Run("Nil bus is a no-op", func(t *testing.T) {
		var bus *Bus
		bus.Publish(New(WebhookFailed, "ignored"))
	})

	t.Run("Cancel closes the channel", func(t *testing.T) {
		bus := NewBus(0, nil)
		ch, cancel := bus.Subscribe(1)

		cancel()
		cancel()

		if _, ok := <-ch; ok {
			t.Error("expected closed channel")
		}
		if n := bus.Subscribers(); n != 0 {
			t.Errorf("expected 0 subscribers, got %d", n)
		}
	})

	t.Run("Close then cancel", func(t *testing.T) {
		bus := NewBus(0, nil)
		ch, cancel := bus.Subscribe(1)

		bus.Close()
		cancel()

		if _, ok := <-ch; ok {
			t.Error("expected closed channel")
		}
	})

	t.Run("Tail keeps the most recent events", func(t *testing.T) {
		bus := NewBus(3, nil)
		for range 5 {
			bus.Publish(New(WebhookSkipped, "skip"))
		}

		tail := bus.Tail(0)
		if len(tail) != 3 {
			t.Fatalf("expected 3 events, got %d", len(tail))
		}
		if tail[0].Sequence != 3 || tail[2].Sequence != 5 {
			t.Errorf("expected sequences 3..5, got %d..%d", tail[0].Sequence, tail[2].Sequence)
		}

		last := bus.Tail(1)
		if len(last) != 1 || last[0].Sequence != 5 {
			t.Errorf("expected last event only, got %v", last)
		}
	})
}

func TestNew(t *testing.T) {
	evt := New(WebhookFailed, "boom", "url", "https://x", "dangling")
	if len(evt.Fields) != 1 {
		t.Errorf("expected dangling key to be ignored, got %v", evt.Fields)
	}

	bare := New(WebhookIssued, "ok")
	if bare.Fields != nil {
		t.Errorf("expected nil fields, got %v", bare.Fields)
	}
}
