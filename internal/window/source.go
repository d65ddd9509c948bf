package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
)

// DefaultPollInterval matches the focus polling cadence of the backends.
const DefaultPollInterval = 500 * time.Millisecond

// Delegate receives the raw change notifications produced by a Source.
type Delegate interface {
	// WindowListDidUpdate delivers a new ordered snapshot. Called whenever
	// membership or order changes, and once for the first snapshot.
	WindowListDidUpdate(windows []Info)
	// WindowContentDidChange delivers a record whose content changed while
	// the list itself stayed the same.
	WindowContentDidChange(w Info)
}

// SourceConfig configures a Source.
type SourceConfig struct {
	Interval time.Duration
	Filter   *Filter
}

// Source polls a Backend and turns consecutive snapshots into Delegate
// notifications. Notifications are delivered one at a time, in order.
type Source struct {
	backend  Backend
	filter   *Filter
	interval time.Duration

	mu       sync.RWMutex
	windows  []Info
	primed   bool
	delegate Delegate

	// pollMu serializes polling and delegate delivery
	pollMu sync.Mutex

	runMu    sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewSource creates a new window source on top of backend
func NewSource(backend Backend, cfg SourceConfig) *Source {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Source{
		backend:  backend,
		filter:   cfg.Filter,
		interval: interval,
		windows:  []Info{},
	}
}

// Backend returns the backend the source polls
func (s *Source) Backend() Backend {
	return s.backend
}

// Attach sets the delegate. If a snapshot has already been taken it is
// delivered to d immediately as a list update.
func (s *Source) Attach(d Delegate) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.mu.Lock()
	s.delegate = d
	primed := s.primed
	snapshot := Clone(s.windows)
	s.mu.Unlock()

	if d != nil && primed {
		d.WindowListDidUpdate(snapshot)
	}
}

// Snapshot returns a copy of the last snapshot taken
func (s *Source) Snapshot() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Clone(s.windows)
}

// Start takes an initial snapshot and begins polling until ctx is done or
// Stop is called.
func (s *Source) Start(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return fmt.Errorf("window source already running")
	}
	s.running = true
	stop := make(chan struct{})
	s.stopChan = stop
	s.runMu.Unlock()

	if err := s.Refresh(); err != nil {
		logger.WithComponent("source").Warn().Err(err).Msg("Initial window snapshot failed")
	}

	go s.pollLoop(ctx, stop)
	return nil
}

// Stop stops the polling loop
func (s *Source) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
	}
}

func (s *Source) pollLoop(ctx context.Context, stop chan struct{}) {
	log := logger.WithComponent("source")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := s.Refresh(); err != nil {
				log.Debug().Err(err).Msg("Window poll failed, keeping previous snapshot")
			}
		}
	}
}

// Refresh polls the backend once and notifies the delegate of any change.
// On error the previous snapshot is kept.
func (s *Source) Refresh() error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	raw, err := s.backend.ListWindows()
	if err != nil {
		return fmt.Errorf("list windows via %s: %w", s.backend.Name(), err)
	}

	curr := make([]Info, 0, len(raw))
	for _, w := range raw {
		if w != nil && s.filter.Allow(w) {
			curr = append(curr, *w)
		}
	}

	s.mu.Lock()
	prev := s.windows
	primed := s.primed
	s.windows = curr
	s.primed = true
	d := s.delegate
	s.mu.Unlock()

	change := Diff(prev, curr)
	if !primed {
		change = Change{ListChanged: true}
	}
	if change.Empty() {
		return nil
	}

	logger.WithComponent("source").Debug().
		Bool("list_changed", change.ListChanged).
		Int("updated", len(change.Updated)).
		Int("count", len(curr)).
		Msg("Window snapshot changed")

	if d == nil {
		return nil
	}
	if change.ListChanged {
		d.WindowListDidUpdate(Clone(curr))
	}
	for _, w := range change.Updated {
		d.WindowContentDidChange(w)
	}
	return nil
}
