package eventbus

import (
	"testing"
	"time"

	"pkt.systems/termview/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("sess-1")
	defer cancel()

	event := schema.SessionEvent{Type: schema.SessionStarted, SessionID: "sess-1", SurfaceID: "surf-1"}
	bus.OnSessionEvent(event)

	select {
	case got := <-ch:
		if got != event {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}

	// Another session's events stay out of this subscription.
	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionStopped, SessionID: "sess-2"})
	if len(ch) != 0 {
		t.Fatalf("expected no event for another session, got %d queued", len(ch))
	}
}

func TestSubscribeAllReceivesEverySession(t *testing.T) {
	bus := New(nil)
	tail, cancel := bus.SubscribeAll()
	defer cancel()

	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionStarted, SessionID: "sess-1"})
	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionStopped, SessionID: "sess-2"})

	for _, want := range []schema.SessionID{"sess-1", "sess-2"} {
		select {
		case got := <-tail:
			if got.SessionID != want {
				t.Fatalf("expected event for %s, got %+v", want, got)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("sess-1")
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	// A second cancel and a late publish are both no-ops.
	cancel()
	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionStarted, SessionID: "sess-1"})
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	ch, cancel := bus.Subscribe("sess-1")
	defer cancel()

	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionStarted, SessionID: "sess-1"})
	done := make(chan struct{})
	go func() {
		bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionResized, SessionID: "sess-1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
	if drops := bus.Drops(); drops != 1 {
		t.Fatalf("expected 1 dropped event, got %d", drops)
	}
	if got := <-ch; got.Type != schema.SessionStarted {
		t.Fatalf("expected the first event retained, got %+v", got)
	}
}

func TestNilBusIsInert(t *testing.T) {
	var bus *Bus
	bus.OnSessionEvent(schema.SessionEvent{Type: schema.SessionStarted, SessionID: "sess-1"})
	ch, cancel := bus.Subscribe("sess-1")
	if ch != nil {
		t.Fatalf("expected nil channel from nil bus")
	}
	cancel()
	if drops := bus.Drops(); drops != 0 {
		t.Fatalf("expected no drops from nil bus, got %d", drops)
	}
}
