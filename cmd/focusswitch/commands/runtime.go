package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/FocusSwitch/internal/config"
	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/bryanchriswhite/FocusSwitch/internal/switcher"
	"github.com/bryanchriswhite/FocusSwitch/internal/window"
)

// session is a running window source with a switcher attached to it.
type session struct {
	backend  window.Backend
	source   *window.Source
	switcher *switcher.Switcher
}

// startSession connects the configured backend and starts polling it.
// obs, if not nil, is registered before the first snapshot so it sees the
// initial window list.
func startSession(ctx context.Context, cfg *config.Config, obs switcher.Observer) (*session, error) {
	log := logger.WithComponent("cli")

	backend, err := window.NewBackend(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open window backend: %w", err)
	}
	log.Info().Str("backend", backend.Name()).Msg("Window backend connected")

	sourceCfg, err := cfg.SourceConfig()
	if err != nil {
		backend.Close()
		return nil, err
	}

	source := window.NewSource(backend, sourceCfg)
	sw := switcher.NewWithSource(source)
	if obs != nil {
		sw.SetObserver(obs)
	}

	if err := source.Start(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to start window source: %w", err)
	}

	return &session{
		backend:  backend,
		source:   source,
		switcher: sw,
	}, nil
}

func (s *session) Close() {
	s.source.Stop()
	if err := s.backend.Close(); err != nil {
		logger.WithComponent("cli").Debug().Err(err).Msg("Backend close failed")
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
