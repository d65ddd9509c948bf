package window

import (
	"fmt"
	"regexp"
)

// Filter decides which backend windows are offered to the switcher.
// A nil *Filter allows everything.
type Filter struct {
	skipUntitled bool
	exclude      []*regexp.Regexp
}

// NewFilter compiles the class exclusion patterns.
func NewFilter(skipUntitled bool, excludeClasses []string) (*Filter, error) {
	f := &Filter{skipUntitled: skipUntitled}
	for _, pattern := range excludeClasses {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, re)
	}
	return f, nil
}

// Allow reports whether w should appear in the window list.
func (f *Filter) Allow(w *Info) bool {
	if f == nil {
		return true
	}
	if f.skipUntitled && w.Title == "" {
		return false
	}
	for _, re := range f.exclude {
		if re.MatchString(w.Class) {
			return false
		}
	}
	return true
}
