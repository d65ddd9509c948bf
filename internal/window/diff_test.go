package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff_NoChanges(t *testing.T) {
	windows := []Info{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}
	assert.True(t, Diff(windows, Clone(windows)).Empty())
}

func TestDiff_Membership(t *testing.T) {
	prev := []Info{{ID: 1}, {ID: 2}}
	assert.True(t, Diff(prev, []Info{{ID: 1}}).ListChanged)
	assert.True(t, Diff(prev, []Info{{ID: 1}, {ID: 3}}).ListChanged)
	assert.True(t, Diff(nil, []Info{{ID: 1}}).ListChanged)
}

func TestDiff_Reorder(t *testing.T) {
	prev := []Info{{ID: 1}, {ID: 2}}
	change := Diff(prev, []Info{{ID: 2}, {ID: 1}})
	assert.True(t, change.ListChanged)
	assert.Empty(t, change.Updated)
}

func TestDiff_ContentOnly(t *testing.T) {
	prev := []Info{{ID: 1, Title: "editor"}, {ID: 2, Title: "term"}}
	curr := []Info{{ID: 1, Title: "editor"}, {ID: 2, Title: "term: vim"}}

	change := Diff(prev, curr)
	assert.False(t, change.ListChanged)
	assert.Equal(t, []Info{{ID: 2, Title: "term: vim"}}, change.Updated)
}

func TestDiff_GeometryIsContent(t *testing.T) {
	prev := []Info{{ID: 7, Geometry: Geometry{Width: 100}}}
	curr := []Info{{ID: 7, Geometry: Geometry{Width: 200}}}
	assert.Len(t, Diff(prev, curr).Updated, 1)
}

func TestIndexOf(t *testing.T) {
	windows := []Info{{ID: 10}, {ID: 20}, {ID: 30}}
	assert.Equal(t, 1, IndexOf(windows, 20))
	assert.Equal(t, -1, IndexOf(windows, 99))
	assert.Equal(t, -1, IndexOf(nil, 10))
}

func TestFilter(t *testing.T) {
	f, err := NewFilter(true, []string{"^plasmashell$", "(?i)notification"})
	assert.NoError(t, err)

	assert.True(t, f.Allow(&Info{Title: "Firefox", Class: "firefox"}))
	assert.False(t, f.Allow(&Info{Title: "", Class: "firefox"}))
	assert.False(t, f.Allow(&Info{Title: "Desktop", Class: "plasmashell"}))
	assert.False(t, f.Allow(&Info{Title: "x", Class: "NotificationDaemon"}))

	var none *Filter
	assert.True(t, none.Allow(&Info{}))
}

func TestFilter_BadPattern(t *testing.T) {
	_, err := NewFilter(false, []string{"("})
	assert.Error(t, err)
}
