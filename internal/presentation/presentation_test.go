package presentation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestViewer(t *testing.T, size int) *Viewer {
	t.Helper()
	v, err := NewViewer(size, 2500*time.Millisecond)
	require.NoError(t, err)
	return v
}

func TestDefaultDeck(t *testing.T) {
	deck, err := DefaultDeck()
	require.NoError(t, err)
	assert.Equal(t, 7, deck.Len())
	assert.Equal(t, "Introduction", deck.Slide(0).Title)
	assert.Equal(t, "Conclusions and Improvements", deck.Slide(6).Title)
	assert.Equal(t, deck.Slide(6), deck.Slide(99))
	for _, s := range deck.Slides {
		assert.NotEmpty(t, s.Points, s.Title)
	}
}

func TestParseDeck(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "empty deck", data: "title: x\nslides: []\n", wantErr: ErrEmptyDeck},
		{name: "missing slides", data: "title: x\n", wantErr: ErrEmptyDeck},
		{name: "untitled slide", data: "slides:\n  - points: [a]\n"},
		{name: "invalid yaml", data: "slides: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeck([]byte(tt.data))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	deck, err := ParseDeck([]byte("slides:\n  - title: Only\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, deck.Len())
}

func TestViewer_Navigation(t *testing.T) {
	v := newTestViewer(t, 7)

	tests := []struct {
		name   string
		start  int
		action Action
		want   int
	}{
		{name: "first from middle", start: 4, action: ActionFirst, want: 0},
		{name: "back from middle", start: 4, action: ActionBack, want: 3},
		{name: "back at start stays", start: 0, action: ActionBack, want: 0},
		{name: "forward from middle", start: 4, action: ActionForward, want: 5},
		{name: "forward at end stays", start: 6, action: ActionForward, want: 6},
		{name: "last from start", start: 0, action: ActionLast, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Apply(ViewerState{Index: tt.start}, tt.action, epoch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Index)
			assert.False(t, got.Autoplay)
		})
	}
}

func TestViewer_IndexStaysInBounds(t *testing.T) {
	v := newTestViewer(t, 3)
	s := ViewerState{}
	actions := []Action{ActionBack, ActionBack, ActionForward, ActionForward, ActionForward, ActionForward, ActionLast, ActionForward, ActionFirst, ActionBack}
	for _, a := range actions {
		var err error
		s, err = v.Apply(s, a, epoch)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Index, 0)
		assert.Less(t, s.Index, 3)
	}
}

func TestViewer_ApplyUnknown(t *testing.T) {
	v := newTestViewer(t, 3)
	s := ViewerState{Index: 1}
	got, err := v.Apply(s, Action("sideways"), epoch)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, s, got)

	_, err = ParseAction("sideways")
	assert.ErrorIs(t, err, ErrUnknownAction)
	a, err := ParseAction("autoplay")
	require.NoError(t, err)
	assert.Equal(t, ActionAutoplay, a)
}

func TestViewer_ToggleAutoplay(t *testing.T) {
	v := newTestViewer(t, 7)

	on := v.ToggleAutoplay(ViewerState{Index: 2}, epoch)
	assert.True(t, on.Autoplay)
	assert.Equal(t, epoch, on.LastAdvance)
	assert.Equal(t, 2, on.Index)

	off := v.ToggleAutoplay(on, epoch.Add(time.Second))
	assert.False(t, off.Autoplay)
	assert.Equal(t, epoch, off.LastAdvance)
}

func TestViewer_Tick(t *testing.T) {
	v := newTestViewer(t, 7)

	t.Run("no-op without autoplay", func(t *testing.T) {
		s := ViewerState{Index: 1, LastAdvance: epoch}
		got, changed := v.Tick(s, epoch.Add(time.Hour))
		assert.False(t, changed)
		assert.Equal(t, s, got)
	})

	t.Run("waits for threshold", func(t *testing.T) {
		s := ViewerState{Index: 1, Autoplay: true, LastAdvance: epoch}
		got, changed := v.Tick(s, epoch.Add(2500*time.Millisecond))
		assert.False(t, changed)
		assert.Equal(t, s, got)
	})

	t.Run("two ticks three seconds apart", func(t *testing.T) {
		s := ViewerState{Index: 2, Autoplay: true, LastAdvance: epoch}
		s, changed := v.Tick(s, epoch.Add(3*time.Second))
		require.True(t, changed)
		assert.Equal(t, 3, s.Index)
		s, changed = v.Tick(s, epoch.Add(6*time.Second))
		require.True(t, changed)
		assert.Equal(t, 4, s.Index)
		assert.True(t, s.Autoplay)
		assert.Equal(t, epoch.Add(6*time.Second), s.LastAdvance)
	})

	t.Run("repeated tick is idempotent", func(t *testing.T) {
		s := ViewerState{Index: 2, Autoplay: true, LastAdvance: epoch}
		now := epoch.Add(3 * time.Second)
		s, _ = v.Tick(s, now)
		again, changed := v.Tick(s, now)
		assert.False(t, changed)
		assert.Equal(t, s, again)
	})

	t.Run("halts at last slide", func(t *testing.T) {
		s := ViewerState{Index: 6, Autoplay: true, LastAdvance: epoch}
		now := epoch.Add(3 * time.Second)
		got, changed := v.Tick(s, now)
		require.True(t, changed)
		assert.Equal(t, 6, got.Index)
		assert.False(t, got.Autoplay)
		assert.Equal(t, now, got.LastAdvance)
	})
}

func TestViewer_Progress(t *testing.T) {
	v := newTestViewer(t, 4)
	p := v.Progress(ViewerState{Index: 1})
	assert.Equal(t, 2, p.Current)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 0.5, p.Fraction)
	assert.Equal(t, "Slide 2 of 4", p.Label)

	_, err := NewViewer(0, time.Second)
	assert.ErrorIs(t, err, ErrEmptyDeck)
}

// autoplayHarness is a session-like state guarded by a mutex, advanced by the scheduler.
type autoplayHarness struct {
	mu     sync.Mutex
	viewer *Viewer
	state  ViewerState
}

func (h *autoplayHarness) advance(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state, _ = h.viewer.Tick(h.state, now)
	return h.state.Autoplay
}

func (h *autoplayHarness) snapshot() ViewerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func TestScheduler_RunsToLastSlide(t *testing.T) {
	viewer, err := NewViewer(3, 5*time.Millisecond)
	require.NoError(t, err)
	h := &autoplayHarness{viewer: viewer}
	h.state = viewer.ToggleAutoplay(h.state, time.Now())

	s := NewScheduler(10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.True(t, s.Start(context.Background(), "abc", h.advance))
	assert.False(t, s.Start(context.Background(), "abc", h.advance), "second start is ignored")

	require.Eventually(t, func() bool { return !s.Running("abc") }, 2*time.Second, 5*time.Millisecond)

	final := h.snapshot()
	assert.Equal(t, 2, final.Index)
	assert.False(t, final.Autoplay)
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler(time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	calls := make(chan struct{}, 100)
	s.Start(context.Background(), "k", func(time.Time) bool {
		select {
		case calls <- struct{}{}:
		default:
		}
		return true
	})

	<-calls
	s.Stop("k")
	assert.False(t, s.Running("k"))

	// stopping an unknown key is a no-op
	s.Stop("missing")
}

func TestScheduler_ContextCancel(t *testing.T) {
	s := NewScheduler(time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, "a", func(time.Time) bool { return true })
	s.Start(ctx, "b", func(time.Time) bool { return true })

	cancel()
	require.Eventually(t, func() bool { return !s.Running("a") && !s.Running("b") }, time.Second, time.Millisecond)
	s.StopAll()
}
