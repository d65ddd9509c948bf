package window

// Info is the record a Backend reports for one top-level window.
// ID is the identity used across snapshots; every other field is content
// that may change while the window stays in the list.
type Info struct {
	ID              uint32   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Class           string   `json:"class" yaml:"class"`
	PID             int      `json:"pid" yaml:"pid"`
	Geometry        Geometry `json:"geometry" yaml:"geometry"`
	IsNativeWayland bool     `json:"is_native_wayland" yaml:"is_native_wayland"` // True for native Wayland windows (no X11 ID)
	Desktop         int      `json:"desktop" yaml:"desktop"`                     // Virtual desktop number (-1 means all desktops/sticky)
}

// Geometry represents window geometry
type Geometry struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IndexOf returns the position of the window with the given ID, or -1.
func IndexOf(windows []Info, id uint32) int {
	for i := range windows {
		if windows[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy of a snapshot.
func Clone(windows []Info) []Info {
	if windows == nil {
		return []Info{}
	}
	out := make([]Info, len(windows))
	copy(out, windows)
	return out
}
