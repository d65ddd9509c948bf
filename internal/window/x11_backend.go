package window

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
)

// X11Backend implements the Backend interface using X11
type X11Backend struct {
	conn *xgb.Conn
	root xproto.Window

	atomMu sync.Mutex
	atoms  map[string]xproto.Atom
}

// NewX11Backend creates a new X11 backend
func NewX11Backend() (*X11Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	root := setup.DefaultScreen(conn).Root

	return &X11Backend{
		conn:  conn,
		root:  root,
		atoms: make(map[string]xproto.Atom),
	}, nil
}

// Connect is a no-op; the connection is opened by NewX11Backend
func (b *X11Backend) Connect() error {
	return nil
}

// Close closes the X11 connection
func (b *X11Backend) Close() error {
	b.conn.Close()
	return nil
}

// Name returns the backend name
func (b *X11Backend) Name() string {
	return "x11"
}

// ListWindows returns all visible windows using EWMH _NET_CLIENT_LIST with QueryTree fallback
func (b *X11Backend) ListWindows() ([]*Info, error) {
	log := logger.WithComponent("x11-backend")

	windows, err := b.listWindowsEWMH()
	if err == nil && len(windows) > 0 {
		log.Trace().Int("count", len(windows)).Msg("ListWindows: using EWMH _NET_CLIENT_LIST")
		return windows, nil
	}
	if err != nil {
		log.Debug().Err(err).Msg("ListWindows: EWMH failed, falling back to QueryTree")
	}

	windows, err = b.listWindowsQueryTree()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	return windows, nil
}

// listWindowsEWMH gets windows from _NET_CLIENT_LIST (EWMH standard)
func (b *X11Backend) listWindowsEWMH() ([]*Info, error) {
	clientListAtom, err := b.atom("_NET_CLIENT_LIST")
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST atom: %w", err)
	}

	reply, err := xproto.GetProperty(
		b.conn,
		false,
		b.root,
		clientListAtom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get _NET_CLIENT_LIST property: %w", err)
	}
	if reply.ValueLen == 0 {
		return nil, fmt.Errorf("_NET_CLIENT_LIST is empty")
	}

	ids := make([]xproto.Window, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		ids = append(ids, xproto.Window(binary.LittleEndian.Uint32(reply.Value[i:i+4])))
	}
	return b.collect(ids), nil
}

// listWindowsQueryTree gets windows by querying root window children
func (b *X11Backend) listWindowsQueryTree() ([]*Info, error) {
	tree, err := xproto.QueryTree(b.conn, b.root).Reply()
	if err != nil {
		return nil, err
	}
	return b.collect(tree.Children), nil
}

// collect resolves window ids into records, skipping windows with neither a
// title nor a class (usually not user windows).
func (b *X11Backend) collect(ids []xproto.Window) []*Info {
	log := logger.WithComponent("x11-backend")

	windows := make([]*Info, 0, len(ids))
	for _, id := range ids {
		info := b.windowInfo(id)
		if info.Title == "" && info.Class == "" {
			log.Trace().Uint32("winID", uint32(id)).Msg("skipping window without title or class")
			continue
		}
		windows = append(windows, info)
	}
	return windows
}

// windowInfo retrieves the record for one window. Missing properties leave
// their field zero.
func (b *X11Backend) windowInfo(win xproto.Window) *Info {
	info := &Info{ID: uint32(win)}

	if geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply(); err == nil {
		info.Geometry = Geometry{
			X:      int(geom.X),
			Y:      int(geom.Y),
			Width:  int(geom.Width),
			Height: int(geom.Height),
		}
	}

	info.Title, _ = b.stringProperty(win, "_NET_WM_NAME")
	if info.Title == "" {
		info.Title, _ = b.stringProperty(win, "WM_NAME")
	}

	// WM_CLASS format is: instance\0class\0
	if classRaw, err := b.stringProperty(win, "WM_CLASS"); err == nil {
		parts := strings.Split(classRaw, "\x00")
		if len(parts) >= 2 && parts[1] != "" {
			info.Class = parts[1]
		} else if len(parts) >= 1 {
			info.Class = parts[0]
		}
	}

	if pid, ok := b.cardinalProperty(win, "_NET_WM_PID"); ok {
		info.PID = int(pid)
	}

	if desktop, ok := b.cardinalProperty(win, "_NET_WM_DESKTOP"); ok {
		// 0xFFFFFFFF means the window is on all desktops (sticky)
		if desktop == 0xFFFFFFFF {
			info.Desktop = -1
		} else {
			info.Desktop = int(desktop)
		}
	}

	return info
}

// atom interns name once per connection
func (b *X11Backend) atom(name string) (xproto.Atom, error) {
	b.atomMu.Lock()
	defer b.atomMu.Unlock()

	if a, ok := b.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(b.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	b.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// stringProperty gets a property value as a string
func (b *X11Backend) stringProperty(win xproto.Window, name string) (string, error) {
	atom, err := b.atom(name)
	if err != nil {
		return "", err
	}

	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return "", err
	}
	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property %s", name)
	}

	return string(reply.Value), nil
}

// cardinalProperty reads a single 32-bit CARDINAL property
func (b *X11Backend) cardinalProperty(win xproto.Window, name string) (uint32, bool) {
	atom, err := b.atom(name)
	if err != nil {
		return 0, false
	}

	reply, err := xproto.GetProperty(
		b.conn,
		false,
		win,
		atom,
		xproto.AtomCardinal,
		0,
		1,
	).Reply()
	if err != nil || len(reply.Value) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(reply.Value[:4]), true
}
