package switcher

import "github.com/bryanchriswhite/FocusSwitch/internal/window"

// Observer receives the normalized events of a Switcher. Any type with these
// three methods can be registered.
type Observer interface {
	// DidUpdateIndex is called when the selection index changes value.
	DidUpdateIndex(s *Switcher, index uint)
	// DidUpdateWindowList is called every time the window list is replaced.
	DidUpdateWindowList(s *Switcher, windows []window.Info)
	// ContentsOfWindowDidChange is called when a window already in the list
	// was updated in place.
	ContentsOfWindowDidChange(s *Switcher, w window.Info)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
// Register it by pointer so that RemoveObserver can match it.
type ObserverFuncs struct {
	OnIndex      func(s *Switcher, index uint)
	OnWindowList func(s *Switcher, windows []window.Info)
	OnContents   func(s *Switcher, w window.Info)
}

var _ Observer = (*ObserverFuncs)(nil)

func (f *ObserverFuncs) DidUpdateIndex(s *Switcher, index uint) {
	if f.OnIndex != nil {
		f.OnIndex(s, index)
	}
}

func (f *ObserverFuncs) DidUpdateWindowList(s *Switcher, windows []window.Info) {
	if f.OnWindowList != nil {
		f.OnWindowList(s, windows)
	}
}

func (f *ObserverFuncs) ContentsOfWindowDidChange(s *Switcher, w window.Info) {
	if f.OnContents != nil {
		f.OnContents(s, w)
	}
}
