// Package eventbus fans session lifecycle events out to subscribers.
package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"

	"pkt.systems/termview/schema"
)

// allSessions is the subscription key receiving every session's events.
const allSessions schema.SessionID = ""

// Bus fans session events out to per-session subscribers and an
// all-sessions tail. Publishing never blocks: a subscriber that stops
// draining loses events rather than stalling the session loop. A nil
// Bus accepts events and drops them.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.SessionID]map[chan schema.SessionEvent]struct{}
	drops int
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.SessionID]map[chan schema.SessionEvent]struct{}),
		log:   logger,
		depth: 64,
	}
}

// Subscribe registers a subscriber for one session and returns the
// event channel plus a cancel closing it. Cancel is idempotent.
func (b *Bus) Subscribe(id schema.SessionID) (<-chan schema.SessionEvent, func()) {
	return b.subscribe(id)
}

// SubscribeAll registers a subscriber receiving every session's events.
func (b *Bus) SubscribeAll() (<-chan schema.SessionEvent, func()) {
	return b.subscribe(allSessions)
}

// OnSessionEvent fans the event out to the session's subscribers and
// the all-sessions tail. It is the sink sessions publish through.
func (b *Bus) OnSessionEvent(event schema.SessionEvent) {
	if b == nil {
		return
	}
	b.publish(event.SessionID, event)
	b.publish(allSessions, event)
}

// Drops reports how many events overflowed a subscriber buffer.
func (b *Bus) Drops() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drops
}

func (b *Bus) subscribe(id schema.SessionID) (<-chan schema.SessionEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.SessionEvent, b.depth)
	b.mu.Lock()
	group := b.subs[id]
	if group == nil {
		group = make(map[chan schema.SessionEvent]struct{})
		b.subs[id] = group
	}
	group[ch] = struct{}{}
	count := len(group)
	b.mu.Unlock()
	b.log.With("session", id).Debug("eventbus subscribe", "subs", count)
	return ch, func() {
		b.mu.Lock()
		group := b.subs[id]
		if _, ok := group[ch]; !ok {
			b.mu.Unlock()
			return
		}
		delete(group, ch)
		if len(group) == 0 {
			delete(b.subs, id)
		}
		// Closed under the lock so publish can never hit a closed
		// channel.
		close(ch)
		b.mu.Unlock()
		b.log.With("session", id).Debug("eventbus unsubscribe")
	}
}

func (b *Bus) publish(key schema.SessionID, event schema.SessionEvent) {
	b.mu.Lock()
	dropped := 0
	for sub := range b.subs[key] {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.drops += dropped
	b.mu.Unlock()
	if dropped > 0 {
		b.log.With("session", event.SessionID).Trace("eventbus dropped", "count", dropped)
	}
}
