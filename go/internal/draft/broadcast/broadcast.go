// Package broadcast fans session events out to every subscriber of a draft
// in the exact order the session produced them. A Mirror hook additionally
// forwards each event to the draft's parent league room (chat, trade
// side-channel) and any other external consumer.
package broadcast

import (
	"sync"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/rs/zerolog"
)

// Mirror receives a copy of every published event. Implementations must not
// block for long; publishing happens on the session's writer path.
type Mirror interface {
	Mirror(ev events.Event)
}

// Channel is the per-session fan-out. Publish is called only by the session
// actor, so per-subscriber ordering follows actor order exactly.
type Channel struct {
	mu     sync.Mutex
	subs   map[string]chan events.Event
	closed bool

	mirror Mirror
	log    zerolog.Logger
}

// NewChannel builds a fan-out channel. mirror may be nil.
func NewChannel(mirror Mirror, log zerolog.Logger) *Channel {
	return &Channel{
		subs:   make(map[string]chan events.Event),
		mirror: mirror,
		log:    log,
	}
}

// Subscribe registers a subscriber and returns its event stream. The stream
// is closed on Unsubscribe, on Close, or when the subscriber falls too far
// behind.
func (c *Channel) Subscribe(id string, buffer int) <-chan events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.subs[id]; ok {
		close(old)
	}
	ch := make(chan events.Event, buffer)
	if c.closed {
		close(ch)
		return ch
	}
	c.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its stream.
func (c *Channel) Unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every subscriber. A subscriber whose buffer is full
// is dropped rather than allowed to stall the draft.
func (c *Channel) Publish(ev events.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.log.Warn().
				Str("subscriber", id).
				Str("event_type", string(ev.Type)).
				Msg("subscriber buffer full, dropping subscriber")
			delete(c.subs, id)
			close(ch)
		}
	}
	mirror := c.mirror
	c.mu.Unlock()

	if mirror != nil {
		mirror.Mirror(ev)
	}
}

// SubscriberCount returns the number of live subscribers.
func (c *Channel) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close drops all subscribers and closes their streams.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
