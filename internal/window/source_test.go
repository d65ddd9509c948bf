package window

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves scripted snapshots
type fakeBackend struct {
	mu      sync.Mutex
	windows []*Info
	err     error
	calls   int
}

func (b *fakeBackend) Connect() error { return nil }
func (b *fakeBackend) Close() error   { return nil }
func (b *fakeBackend) Name() string   { return "fake" }

func (b *fakeBackend) ListWindows() ([]*Info, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	out := make([]*Info, len(b.windows))
	for i, w := range b.windows {
		cp := *w
		out[i] = &cp
	}
	return out, nil
}

func (b *fakeBackend) set(windows ...*Info) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = windows
	b.err = nil
}

func (b *fakeBackend) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// recordingDelegate captures notifications as strings like "list:3" or "content:7"
type recordingDelegate struct {
	mu     sync.Mutex
	events []string
	lists  [][]Info
	items  []Info
}

func (d *recordingDelegate) WindowListDidUpdate(windows []Info) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, "list")
	d.lists = append(d.lists, windows)
}

func (d *recordingDelegate) WindowContentDidChange(w Info) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, "content")
	d.items = append(d.items, w)
}

func (d *recordingDelegate) snapshot() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func TestSource_FirstRefreshAlwaysListUpdate(t *testing.T) {
	backend := &fakeBackend{}
	src := NewSource(backend, SourceConfig{})
	d := &recordingDelegate{}
	src.Attach(d)

	require.NoError(t, src.Refresh())
	assert.Equal(t, []string{"list"}, d.snapshot())
	assert.Empty(t, d.lists[0])

	require.NoError(t, src.Refresh())
	assert.Equal(t, []string{"list"}, d.snapshot(), "unchanged empty snapshot must not notify twice")
}

func TestSource_MembershipAndContent(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(&Info{ID: 1, Title: "a"}, &Info{ID: 2, Title: "b"})

	src := NewSource(backend, SourceConfig{})
	d := &recordingDelegate{}
	src.Attach(d)

	require.NoError(t, src.Refresh())
	backend.set(&Info{ID: 1, Title: "a"}, &Info{ID: 2, Title: "b2"})
	require.NoError(t, src.Refresh())
	backend.set(&Info{ID: 2, Title: "b2"})
	require.NoError(t, src.Refresh())

	assert.Equal(t, []string{"list", "content", "list"}, d.snapshot())
	assert.Equal(t, Info{ID: 2, Title: "b2"}, d.items[0])
	assert.Equal(t, []Info{{ID: 2, Title: "b2"}}, d.lists[1])
	assert.Equal(t, []Info{{ID: 2, Title: "b2"}}, src.Snapshot())
}

func TestSource_FilterApplied(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(&Info{ID: 1, Title: "", Class: "x"}, &Info{ID: 2, Title: "ok", Class: "x"}, &Info{ID: 3, Title: "p", Class: "plasmashell"})

	f, err := NewFilter(true, []string{"^plasmashell$"})
	require.NoError(t, err)
	src := NewSource(backend, SourceConfig{Filter: f})

	require.NoError(t, src.Refresh())
	assert.Equal(t, []Info{{ID: 2, Title: "ok", Class: "x"}}, src.Snapshot())
}

func TestSource_ErrorKeepsSnapshot(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(&Info{ID: 1, Title: "a"})
	src := NewSource(backend, SourceConfig{})
	d := &recordingDelegate{}
	src.Attach(d)

	require.NoError(t, src.Refresh())
	backend.fail(errors.New("display gone"))
	assert.Error(t, src.Refresh())

	assert.Equal(t, []Info{{ID: 1, Title: "a"}}, src.Snapshot())
	assert.Equal(t, []string{"list"}, d.snapshot())
}

func TestSource_AttachReplaysSnapshot(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(&Info{ID: 4, Title: "late"})
	src := NewSource(backend, SourceConfig{})
	require.NoError(t, src.Refresh())

	d := &recordingDelegate{}
	src.Attach(d)
	assert.Equal(t, []string{"list"}, d.snapshot())
	assert.Equal(t, []Info{{ID: 4, Title: "late"}}, d.lists[0])
}

func TestSource_StartPolls(t *testing.T) {
	backend := &fakeBackend{}
	backend.set(&Info{ID: 1, Title: "a"})
	src := NewSource(backend, SourceConfig{Interval: 5 * time.Millisecond})
	d := &recordingDelegate{}
	src.Attach(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Start(ctx))
	assert.Error(t, src.Start(ctx), "second Start must fail")
	defer src.Stop()

	backend.set(&Info{ID: 1, Title: "a"}, &Info{ID: 2, Title: "b"})
	assert.Eventually(t, func() bool {
		return len(d.snapshot()) >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"list", "list"}, d.snapshot()[:2])
}
