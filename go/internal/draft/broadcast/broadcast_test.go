package broadcast

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/rs/zerolog"
)

type recordingMirror struct {
	seen []events.Event
}

func (m *recordingMirror) Mirror(ev events.Event) {
	m.seen = append(m.seen, ev)
}

func makeEvent(i int) events.Event {
	return events.Event{
		ID:      fmt.Sprintf("ev-%d", i),
		DraftID: uuid.Nil.String(),
		Type:    events.TypeChatMessage,
	}
}

func TestPublish_PreservesOrderPerSubscriber(t *testing.T) {
	c := NewChannel(nil, zerolog.Nop())
	ch := c.Subscribe("viewer", 64)

	for i := 0; i < 50; i++ {
		c.Publish(makeEvent(i))
	}
	c.Close()

	i := 0
	for ev := range ch {
		if want := fmt.Sprintf("ev-%d", i); ev.ID != want {
			t.Fatalf("event %d out of order: got %s, want %s", i, ev.ID, want)
		}
		i++
	}
	if i != 50 {
		t.Fatalf("received %d events, want 50", i)
	}
}

func TestPublish_DropsSlowSubscriber(t *testing.T) {
	c := NewChannel(nil, zerolog.Nop())
	slow := c.Subscribe("slow", 1)
	fast := c.Subscribe("fast", 16)

	c.Publish(makeEvent(0))
	c.Publish(makeEvent(1)) // slow's buffer is full: dropped

	if got := c.SubscriberCount(); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	// slow's stream holds the first event, then closes
	if ev, ok := <-slow; !ok || ev.ID != "ev-0" {
		t.Fatalf("slow subscriber first event = %v (ok=%v)", ev.ID, ok)
	}
	if _, ok := <-slow; ok {
		t.Fatal("slow subscriber stream should be closed")
	}

	c.Publish(makeEvent(2))
	if ev := <-fast; ev.ID != "ev-0" {
		t.Fatalf("fast subscriber got %s, want ev-0", ev.ID)
	}
}

func TestMirror_ReceivesEveryEvent(t *testing.T) {
	m := &recordingMirror{}
	c := NewChannel(m, zerolog.Nop())
	c.Subscribe("viewer", 8)

	for i := 0; i < 3; i++ {
		c.Publish(makeEvent(i))
	}
	if len(m.seen) != 3 {
		t.Fatalf("mirror saw %d events, want 3", len(m.seen))
	}
	for i, ev := range m.seen {
		if want := fmt.Sprintf("ev-%d", i); ev.ID != want {
			t.Fatalf("mirror event %d = %s, want %s", i, ev.ID, want)
		}
	}
}

func TestSubscribeAfterClose_YieldsClosedStream(t *testing.T) {
	c := NewChannel(nil, zerolog.Nop())
	c.Close()
	ch := c.Subscribe("late", 1)
	if _, ok := <-ch; ok {
		t.Fatal("stream after Close should be closed")
	}
	// publish after close is a no-op
	c.Publish(makeEvent(0))
}
