package window

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/godbus/dbus/v5"
)

// KWin D-Bus constants
const (
	kwinService                    = "org.kde.KWin"
	virtualDesktopManagerPath      = "/VirtualDesktopManager"
	virtualDesktopManagerInterface = "org.kde.KWin.VirtualDesktopManager"
)

// KWinBackend implements the Backend interface using KWin's D-Bus interface
// and kdotool for window enumeration
type KWinBackend struct {
	conn *dbus.Conn
	run  func(name string, args ...string) ([]byte, error)
}

// NewKWinBackend creates a new KWin D-Bus backend
func NewKWinBackend() (*KWinBackend, error) {
	if _, err := exec.LookPath("kdotool"); err != nil {
		return nil, fmt.Errorf("kdotool not found: %w", err)
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to list D-Bus names: %w", err)
	}

	found := false
	for _, name := range names {
		if name == kwinService {
			found = true
			break
		}
	}
	if !found {
		conn.Close()
		return nil, fmt.Errorf("KWin service not found on D-Bus")
	}

	logger.WithComponent("kwin-backend").Info().Msg("Connected to KWin D-Bus service")

	return &KWinBackend{
		conn: conn,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}, nil
}

// Connect is a no-op; the connection is opened by NewKWinBackend
func (b *KWinBackend) Connect() error {
	return nil
}

// Close closes the D-Bus connection
func (b *KWinBackend) Close() error {
	return b.conn.Close()
}

// Name returns the backend name
func (b *KWinBackend) Name() string {
	return "kwin"
}

// ListWindows enumerates windows with kdotool
func (b *KWinBackend) ListWindows() ([]*Info, error) {
	log := logger.WithComponent("kwin-backend")

	output, err := b.run("kdotool", "search", "--name", ".")
	if err != nil {
		return nil, fmt.Errorf("kdotool search failed: %w", err)
	}

	desktops := b.desktopIndexes()

	windows := make([]*Info, 0)
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		uuid := strings.TrimSpace(scanner.Text())
		if uuid == "" {
			continue
		}

		info := b.windowInfo(uuid, desktops)
		if info.Title == "" && info.Class == "" {
			log.Trace().Str("uuid", uuid).Msg("skipping window without title or class")
			continue
		}
		windows = append(windows, info)
	}
	return windows, nil
}

// windowInfo gets info for a single window via kdotool and D-Bus
func (b *KWinBackend) windowInfo(uuid string, desktops map[string]int) *Info {
	field := func(cmd string) string {
		out, _ := b.run("kdotool", cmd, uuid)
		return strings.TrimSpace(string(out))
	}

	pid, _ := strconv.Atoi(field("getwindowpid"))
	geomOut, _ := b.run("kdotool", "getwindowgeometry", uuid)

	return &Info{
		ID:              hashStringToUint32(uuid),
		Title:           field("getwindowname"),
		Class:           field("getwindowclassname"),
		PID:             pid,
		Geometry:        parseKdotoolGeometry(string(geomOut)),
		IsNativeWayland: true,
		Desktop:         b.windowDesktop(uuid, desktops),
	}
}

// desktopIndexes maps virtual desktop UUIDs to their index
func (b *KWinBackend) desktopIndexes() map[string]int {
	out := make(map[string]int)

	obj := b.conn.Object(kwinService, virtualDesktopManagerPath)
	prop, err := obj.GetProperty(virtualDesktopManagerInterface + ".desktops")
	if err != nil {
		return out
	}

	// desktops is a list of (uint32 index, string uuid, string name)
	entries, ok := prop.Value().([][]interface{})
	if !ok {
		return out
	}
	for _, d := range entries {
		if len(d) < 2 {
			continue
		}
		idx, ok1 := d[0].(uint32)
		uuid, ok2 := d[1].(string)
		if ok1 && ok2 {
			out[uuid] = int(idx)
		}
	}
	return out
}

// windowDesktop returns the desktop index for a window, -1 when it is on all
// desktops or unknown
func (b *KWinBackend) windowDesktop(uuid string, desktops map[string]int) int {
	obj := b.conn.Object(kwinService, dbus.ObjectPath("/org/kde/KWin/Window/"+uuid))

	for _, iface := range []string{"org.kde.KWin.Window", "org.kde.KWin.Client"} {
		prop, err := obj.GetProperty(iface + ".desktops")
		if err != nil {
			continue
		}
		switch v := prop.Value().(type) {
		case []string:
			if len(v) == 1 {
				if idx, ok := desktops[v[0]]; ok {
					return idx
				}
			}
		case []interface{}:
			if len(v) == 1 {
				if s, ok := v[0].(string); ok {
					if idx, ok := desktops[s]; ok {
						return idx
					}
				}
			}
		}
	}
	return -1
}

// parseKdotoolGeometry parses geometry output from kdotool
// Format: "Window <id>\n  Position: X,Y\n  Geometry: WxH"
func parseKdotoolGeometry(output string) Geometry {
	geometry := Geometry{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Position:"):
			parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, "Position:")), ",")
			if len(parts) >= 2 {
				geometry.X, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
				geometry.Y, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			}
		case strings.HasPrefix(line, "Geometry:"):
			parts := strings.Split(strings.TrimSpace(strings.TrimPrefix(line, "Geometry:")), "x")
			if len(parts) >= 2 {
				geometry.Width, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
				geometry.Height, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			}
		}
	}

	return geometry
}

// hashStringToUint32 converts KWin's UUID-style window IDs to numeric IDs (djb2)
func hashStringToUint32(s string) uint32 {
	var hash uint32 = 5381
	for i := 0; i < len(s); i++ {
		hash = ((hash << 5) + hash) + uint32(s[i])
	}
	return hash
}
