// Package switcher keeps a selection index over an ordered window list and
// reconciles window source notifications into index, list and content events
// for a single observer.
//
// Reconciliation rules on a new list:
//   - the previously selected window keeps the selection if it is still
//     present (matched by ID);
//   - otherwise the index is clamped to the new length;
//   - an empty list parks the index at 0, which is never dereferenced.
//
// A list event is always emitted; an index event follows only when the index
// value changed. Index assignments are clamped and emit only on change.
package switcher

import (
	"reflect"
	"sync"

	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/bryanchriswhite/FocusSwitch/internal/window"
	"github.com/rs/zerolog"
)

// Source is the window source capability a Switcher subscribes to.
type Source interface {
	Attach(d window.Delegate)
}

// Switcher tracks the window list and current selection.
//
// All mutations are serialized. Events produced by one mutation are queued
// together and delivered in order, with the lock released, so an observer may
// call back into the Switcher. Such re-entrant calls are delivered after the
// events already queued.
type Switcher struct {
	mu          sync.Mutex
	windows     []window.Info
	index       uint
	observer    Observer
	pending     []event
	dispatching bool

	log *zerolog.Logger
}

var _ window.Delegate = (*Switcher)(nil)

// New creates an empty Switcher.
func New() *Switcher {
	return &Switcher{
		windows: []window.Info{},
		log:     logger.WithComponent("switcher"),
	}
}

// NewWithSource creates a Switcher and registers it as src's delegate.
func NewWithSource(src Source) *Switcher {
	s := New()
	src.Attach(s)
	return s
}

// SetObserver replaces the observer. The current state is not replayed.
// Passing nil clears the slot.
func (s *Switcher) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = o
}

// RemoveObserver clears the slot if o is the registered observer. Owners call
// it before tearing an observer down; events still queued are then skipped.
// Observers of an uncomparable type never match; clear those with
// SetObserver(nil).
func (s *Switcher) RemoveObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sameObserver(s.observer, o) {
		s.observer = nil
	}
}

func sameObserver(a, b Observer) bool {
	if a == nil || b == nil {
		return false
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// Index returns the current selection index. It is 0 and meaningless while
// the list is empty.
func (s *Switcher) Index() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Windows returns a copy of the current window list.
func (s *Switcher) Windows() []window.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window.Clone(s.windows)
}

// State returns a copy of the window list together with the index, read
// atomically.
func (s *Switcher) State() ([]window.Info, uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window.Clone(s.windows), s.index
}

// Len returns the number of windows.
func (s *Switcher) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Selected returns the window under the index, or false when the list is empty.
func (s *Switcher) Selected() (window.Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.windows) == 0 {
		return window.Info{}, false
	}
	return s.windows[s.index], true
}

// SetIndex selects index i, clamped to the last window. An index event is
// emitted only if the stored value changes.
func (s *Switcher) SetIndex(i uint) {
	s.apply(func() []event {
		return s.setIndexLocked(i)
	})
}

// Next moves the selection forward by one, wrapping at the end.
func (s *Switcher) Next() {
	s.apply(func() []event {
		n := uint(len(s.windows))
		if n == 0 {
			return nil
		}
		return s.setIndexLocked((s.index + 1) % n)
	})
}

// Previous moves the selection back by one, wrapping at the start.
func (s *Switcher) Previous() {
	s.apply(func() []event {
		n := uint(len(s.windows))
		if n == 0 {
			return nil
		}
		return s.setIndexLocked((s.index + n - 1) % n)
	})
}

// SelectMatching selects the window best matching query by title or class
// and returns it. The selection is unchanged when nothing matches.
func (s *Switcher) SelectMatching(query string) (window.Info, bool) {
	var (
		found window.Info
		ok    bool
	)
	s.apply(func() []event {
		pos, matched := window.Match(s.windows, query)
		if !matched {
			return nil
		}
		found, ok = s.windows[pos], true
		return s.setIndexLocked(uint(pos))
	})
	return found, ok
}

// WindowListDidUpdate replaces the window list and repairs the index.
func (s *Switcher) WindowListDidUpdate(windows []window.Info) {
	s.apply(func() []event {
		prevIndex := s.index
		hadSelection := len(s.windows) > 0
		var selectedID uint32
		if hadSelection {
			selectedID = s.windows[s.index].ID
		}

		s.windows = window.Clone(windows)
		n := uint(len(s.windows))

		var next uint
		switch {
		case n == 0:
			next = 0
		case hadSelection && window.IndexOf(s.windows, selectedID) >= 0:
			next = uint(window.IndexOf(s.windows, selectedID))
		default:
			next = min(prevIndex, n-1)
		}
		s.index = next

		s.log.Debug().
			Int("count", len(s.windows)).
			Uint("index", next).
			Msg("Window list updated")

		events := []event{{kind: listEvent, windows: window.Clone(s.windows)}}
		if next != prevIndex {
			events = append(events, event{kind: indexEvent, index: next})
		}
		return events
	})
}

// WindowContentDidChange updates a window in place. Notifications for
// windows not in the list are dropped.
func (s *Switcher) WindowContentDidChange(w window.Info) {
	s.apply(func() []event {
		pos := window.IndexOf(s.windows, w.ID)
		if pos < 0 {
			s.log.Trace().Uint32("id", w.ID).Msg("Dropping content change for unknown window")
			return nil
		}
		s.windows[pos] = w
		return []event{{kind: contentEvent, window: w}}
	})
}

// setIndexLocked must be called with mu held.
func (s *Switcher) setIndexLocked(i uint) []event {
	n := uint(len(s.windows))
	switch {
	case n == 0:
		i = 0
	case i >= n:
		i = n - 1
	}
	if i == s.index {
		return nil
	}
	s.index = i
	s.log.Debug().Uint("index", i).Msg("Index updated")
	return []event{{kind: indexEvent, index: i}}
}

// apply runs reconcile under the lock, queues its events and, unless another
// call is already dispatching, drains the queue.
func (s *Switcher) apply(reconcile func() []event) {
	s.mu.Lock()
	s.pending = append(s.pending, reconcile()...)
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true

	for len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		obs := s.observer
		s.mu.Unlock()

		if obs != nil {
			s.deliver(obs, ev)
		}

		s.mu.Lock()
	}
	s.pending = nil
	s.dispatching = false
	s.mu.Unlock()
}

func (s *Switcher) deliver(obs Observer, ev event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("event", ev.kind.String()).Msg("Observer panicked")
		}
	}()

	switch ev.kind {
	case indexEvent:
		obs.DidUpdateIndex(s, ev.index)
	case listEvent:
		obs.DidUpdateWindowList(s, ev.windows)
	case contentEvent:
		obs.ContentsOfWindowDidChange(s, ev.window)
	}
}

type eventKind int

const (
	indexEvent eventKind = iota
	listEvent
	contentEvent
)

func (k eventKind) String() string {
	switch k {
	case indexEvent:
		return "index"
	case listEvent:
		return "windows"
	case contentEvent:
		return "content"
	default:
		return "unknown"
	}
}

type event struct {
	kind    eventKind
	index   uint
	windows []window.Info
	window  window.Info
}
