package window

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
)

// Backend defines the interface for window discovery backends (X11, KWin, etc.)
type Backend interface {
	// Connect establishes connection to the display server
	Connect() error

	// Close closes the connection to the display server
	Close() error

	// ListWindows returns all visible application windows in stacking order
	ListWindows() ([]*Info, error)

	// Name returns the backend name (e.g., "x11", "kwin")
	Name() string
}

// NewBackend opens the named backend. "auto" prefers KWin when its D-Bus
// service is reachable and falls back to X11 otherwise.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "x11":
		return NewX11Backend()
	case "kwin":
		return NewKWinBackend()
	case "auto", "":
		kwin, err := NewKWinBackend()
		if err == nil {
			return kwin, nil
		}
		logger.WithComponent("window").Debug().Err(err).Msg("KWin backend unavailable, using X11")
		return NewX11Backend()
	default:
		return nil, fmt.Errorf("unknown window backend: %s (use x11, kwin or auto)", name)
	}
}
