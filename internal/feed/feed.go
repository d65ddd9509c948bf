// Package feed turns switcher callbacks into serializable events and fans
// them out to any number of subscribers.
package feed

import (
	"sync"
	"time"

	"github.com/bryanchriswhite/FocusSwitch/internal/switcher"
	"github.com/bryanchriswhite/FocusSwitch/internal/window"
)

// EventType names the switcher callback an Event came from.
type EventType string

const (
	EventIndex   EventType = "index"
	EventWindows EventType = "windows"
	EventContent EventType = "content"
)

// Event is one switcher event in wire form.
type Event struct {
	Type    EventType     `json:"type" yaml:"type"`
	TS      int64         `json:"ts" yaml:"ts"`
	Index   uint          `json:"index" yaml:"index"`
	Windows []window.Info `json:"windows,omitempty" yaml:"windows,omitempty"`
	Window  *window.Info  `json:"window,omitempty" yaml:"window,omitempty"`
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

// Hub is a switcher.Observer that republishes every event to subscribers.
// Slow subscribers lose events rather than stall the switcher.
//
// The hub also folds the events it publishes into the state they describe,
// so a new subscriber can be primed with a snapshot that no queued event
// predates.
type Hub struct {
	mu        sync.RWMutex
	listeners []chan Event
	buffer    int
	now       func() time.Time

	windows []window.Info
	index   uint
}

var _ switcher.Observer = (*Hub)(nil)

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		listeners: make([]chan Event, 0),
		buffer:    DefaultBuffer,
		now:       time.Now,
	}
}

// Subscribe adds a listener for switcher events
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	h.listeners = append(h.listeners, ch)
	h.mu.Unlock()
	return ch
}

// SubscribeWithSnapshot adds a listener and returns a windows event holding
// the state as of the last published event. Everything sent on the channel
// afterwards is newer than the snapshot.
func (h *Hub) SubscribeWithSnapshot() (Event, chan Event) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()

	h.listeners = append(h.listeners, ch)
	return Event{
		Type:    EventWindows,
		TS:      h.now().Unix(),
		Index:   h.index,
		Windows: window.Clone(h.windows),
	}, ch
}

// Unsubscribe removes a listener and closes its channel
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, listener := range h.listeners {
		if listener == ch {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close unsubscribes and closes every listener
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.listeners {
		close(ch)
	}
	h.listeners = nil
}

// Subscribers returns the current listener count
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (h *Hub) DidUpdateIndex(_ *switcher.Switcher, index uint) {
	h.publish(Event{Type: EventIndex, Index: index})
}

func (h *Hub) DidUpdateWindowList(s *switcher.Switcher, windows []window.Info) {
	h.publish(Event{Type: EventWindows, Index: s.Index(), Windows: window.Clone(windows)})
}

func (h *Hub) ContentsOfWindowDidChange(_ *switcher.Switcher, w window.Info) {
	h.publish(Event{Type: EventContent, Window: &w})
}

// publish records ev and notifies all listeners, skipping those whose
// channel is full
func (h *Hub) publish(ev Event) {
	ev.TS = h.now().Unix()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.apply(ev)

	for _, listener := range h.listeners {
		select {
		case listener <- ev:
		default:
		}
	}
}

// apply folds ev into the tracked state. Caller holds h.mu.
func (h *Hub) apply(ev Event) {
	switch ev.Type {
	case EventWindows:
		h.windows = window.Clone(ev.Windows)
		h.index = ev.Index
	case EventIndex:
		h.index = ev.Index
	case EventContent:
		for i := range h.windows {
			if h.windows[i].ID == ev.Window.ID {
				h.windows[i] = *ev.Window
				break
			}
		}
	}
}
