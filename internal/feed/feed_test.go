package feed

import (
	"testing"
	"time"

	"github.com/bryanchriswhite/FocusSwitch/internal/switcher"
	"github.com/bryanchriswhite/FocusSwitch/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWired(t *testing.T) (*switcher.Switcher, *Hub) {
	t.Helper()
	hub := NewHub()
	hub.now = func() time.Time { return time.Unix(1700000000, 0) }
	s := switcher.New()
	s.SetObserver(hub)
	return s, hub
}

func recv(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	default:
		t.Fatal("expected an event")
		return Event{}
	}
}

func TestHub_RepublishesInOrder(t *testing.T) {
	s, hub := newWired(t)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	s.WindowListDidUpdate([]window.Info{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}})
	s.SetIndex(2)
	s.WindowContentDidChange(window.Info{ID: 3, Title: "c2"})
	s.WindowListDidUpdate([]window.Info{{ID: 1, Title: "a"}})

	ev := recv(t, ch)
	assert.Equal(t, EventWindows, ev.Type)
	assert.Len(t, ev.Windows, 3)
	assert.Equal(t, int64(1700000000), ev.TS)

	ev = recv(t, ch)
	assert.Equal(t, Event{Type: EventIndex, TS: 1700000000, Index: 2}, ev)

	ev = recv(t, ch)
	assert.Equal(t, EventContent, ev.Type)
	require.NotNil(t, ev.Window)
	assert.Equal(t, "c2", ev.Window.Title)

	ev = recv(t, ch)
	assert.Equal(t, EventWindows, ev.Type)
	assert.Len(t, ev.Windows, 1)

	ev = recv(t, ch)
	assert.Equal(t, EventIndex, ev.Type)
	assert.Equal(t, uint(0), ev.Index)
}

func TestHub_FanOut(t *testing.T) {
	s, hub := newWired(t)
	a, b := hub.Subscribe(), hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	s.WindowListDidUpdate([]window.Info{{ID: 1}})
	assert.Equal(t, EventWindows, recv(t, a).Type)
	assert.Equal(t, EventWindows, recv(t, b).Type)

	hub.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, hub.Subscribers())

	hub.Close()
	_, open = <-b
	assert.False(t, open)
}

func TestHub_DropsWhenFull(t *testing.T) {
	s, hub := newWired(t)
	hub.buffer = 1
	ch := hub.Subscribe()

	s.WindowListDidUpdate([]window.Info{{ID: 1}, {ID: 2}})
	s.SetIndex(1)
	s.SetIndex(0)

	assert.Equal(t, EventWindows, recv(t, ch).Type)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHub_SubscribeWithSnapshot(t *testing.T) {
	s, hub := newWired(t)

	snap, ch := hub.SubscribeWithSnapshot()
	assert.Equal(t, EventWindows, snap.Type)
	assert.Empty(t, snap.Windows)

	s.WindowListDidUpdate([]window.Info{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}})
	s.SetIndex(2)
	s.WindowContentDidChange(window.Info{ID: 2, Title: "b2"})
	hub.Unsubscribe(ch)

	snap, ch = hub.SubscribeWithSnapshot()
	defer hub.Unsubscribe(ch)
	assert.Equal(t, uint(2), snap.Index)
	assert.Equal(t, []window.Info{{ID: 1, Title: "a"}, {ID: 2, Title: "b2"}, {ID: 3, Title: "c"}}, snap.Windows)
	assert.Equal(t, int64(1700000000), snap.TS)

	// events published before subscribing are folded into the snapshot,
	// not queued on the channel
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	s.SetIndex(0)
	assert.Equal(t, Event{Type: EventIndex, TS: 1700000000, Index: 0}, recv(t, ch))
}

func TestHub_SnapshotNeverPrecedesQueuedEvents(t *testing.T) {
	s, hub := newWired(t)
	hub.buffer = 1 << 16
	s.WindowListDidUpdate([]window.Info{{ID: 1}, {ID: 2}, {ID: 3}})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := uint(0); ; i++ {
			select {
			case <-stop:
				return
			default:
				s.SetIndex(i % 3)
			}
		}
	}()

	for n := 0; n < 200; n++ {
		snap, ch := hub.SubscribeWithSnapshot()
		last := snap.Index
		hub.Unsubscribe(ch)
		for ev := range ch {
			require.Equal(t, EventIndex, ev.Type)
			require.NotEqual(t, last, ev.Index, "event repeats the snapshot state")
			last = ev.Index
		}
	}
	close(stop)
	<-done
}
