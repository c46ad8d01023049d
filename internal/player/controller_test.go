package player

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
)

type harness struct {
	el        *Mock
	player    *store.Store[store.PlayerState]
	favorites *store.Store[store.FavoritesState]
	c         *Controller
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()

	h := &harness{
		el:        NewMock(),
		player:    store.NewPlayerStore(),
		favorites: store.NewFavoritesStore(),
	}
	h.c = NewController(h.el, h.player, h.favorites, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	h.flush(t)
	return h
}

// flush waits until the loop has run everything queued so far, plus follow-up work.
func (h *harness) flush(t *testing.T) {
	t.Helper()
	for range 3 {
		ch := make(chan struct{})
		h.c.queue.push(func() { close(ch) })
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("controller loop did not drain")
		}
	}
}

func (h *harness) countCalls(name string) int {
	n := 0
	for _, c := range h.el.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (h *harness) state() store.PlayerState {
	return h.player.State()
}

func TestControllerVolume(t *testing.T) {
	h := newHarness(t, Options{})
	assert.InDelta(t, 0.5, h.el.Volume(), 1e-9, "default volume applied at start")

	h.c.SetVolume(30)
	h.flush(t)
	assert.InDelta(t, 0.3, h.el.Volume(), 1e-9)

	h.c.SetVolume(140)
	h.flush(t)
	assert.Equal(t, 100, h.state().Volume)
	assert.InDelta(t, 1.0, h.el.Volume(), 1e-9)
}

func TestControllerLoad(t *testing.T) {
	t.Run("waits for ready before playing", func(t *testing.T) {
		h := newHarness(t, Options{})
		playlist := tracks(1, 2)

		h.c.Select(playlist[0], playlist)
		h.flush(t)

		assert.Equal(t, PhaseLoading, h.c.Phase())
		assert.Contains(t, h.el.Calls(), "load:"+playlist[0].AudioURL)
		assert.Zero(t, h.countCalls("play"))

		h.el.SetDuration(187)
		h.el.Emit(Event{Kind: EventReady})
		h.flush(t)

		assert.Equal(t, PhaseReady, h.c.Phase())
		assert.Equal(t, 1, h.countCalls("play"))
		assert.True(t, h.state().IsPlaying)
		assert.Equal(t, 187.0, h.state().Duration)
		assert.Empty(t, h.el.Handlers(EventReady), "ready observer is one-shot")
	})

	t.Run("already buffered plays at once", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)

		assert.Equal(t, PhaseReady, h.c.Phase())
		assert.Equal(t, 1, h.countCalls("play"))
		assert.False(t, h.el.Paused())
	})

	t.Run("same track does not reload", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1, 2)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.c.Select(playlist[0], nil)
		h.flush(t)

		loads := slices.DeleteFunc(h.el.Calls(), func(c string) bool { return c != "load:"+playlist[0].AudioURL })
		assert.Len(t, loads, 1)
	})

	t.Run("superseded ready is ignored", func(t *testing.T) {
		h := newHarness(t, Options{})
		playlist := tracks(1, 2)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		stale := h.el.Handlers(EventReady)
		require.Len(t, stale, 1)

		h.c.Select(playlist[1], nil)
		h.flush(t)

		stale[0](Event{Kind: EventReady})
		h.flush(t)

		assert.Equal(t, PhaseLoading, h.c.Phase(), "stale ready must not complete the new load")
		assert.Zero(t, h.countCalls("play"))

		h.el.Emit(Event{Kind: EventReady})
		h.flush(t)
		assert.Equal(t, PhaseReady, h.c.Phase())
		assert.Equal(t, 1, h.countCalls("play"))
		assert.Equal(t, 2, h.state().CurrentTrack.ID)
	})

	t.Run("load error stops playback", func(t *testing.T) {
		h := newHarness(t, Options{})
		sub := h.c.Subscribe()
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.el.Emit(Event{Kind: EventError, Err: shared.ErrMediaLoad})
		h.flush(t)

		assert.Equal(t, PhaseFailed, h.c.Phase())
		assert.False(t, h.state().IsPlaying)
		assert.Zero(t, h.countCalls("play"))

		select {
		case e := <-sub.Error:
			assert.Equal(t, "load", e.Operation)
			assert.Equal(t, 1, e.TrackID)
			assert.ErrorIs(t, e.Err, shared.ErrMediaLoad)
		default:
			t.Fatal("expected load error event")
		}
	})

	t.Run("play after load error retries the source", func(t *testing.T) {
		h := newHarness(t, Options{})
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.el.Emit(Event{Kind: EventError})
		h.flush(t)

		h.el.SetAutoReady(true)
		h.c.TogglePlay()
		h.flush(t)

		assert.Equal(t, PhaseReady, h.c.Phase())
		assert.Equal(t, 1, h.countCalls("play"))
		assert.True(t, h.state().IsPlaying)
	})

	t.Run("clearing the track unloads", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.player.Dispatch(store.ClearTrack{})
		h.flush(t)

		assert.Equal(t, PhaseIdle, h.c.Phase())
		assert.Equal(t, "", h.el.Source())
		assert.False(t, h.state().IsPlaying)
	})
}

func TestControllerPlayResults(t *testing.T) {
	t.Run("failed start reverts isPlaying", func(t *testing.T) {
		h := newHarness(t, Options{})
		sub := h.c.Subscribe()
		h.el.SetAutoReady(true)
		h.el.SetPlayError(errors.New("autoplay blocked"))
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)

		assert.Eventually(t, func() bool { return !h.state().IsPlaying }, time.Second, 5*time.Millisecond)
		select {
		case e := <-sub.Error:
			assert.Equal(t, "play", e.Operation)
		case <-time.After(time.Second):
			t.Fatal("expected play error event")
		}
	})

	t.Run("superseded start is swallowed", func(t *testing.T) {
		h := newHarness(t, Options{})
		sub := h.c.Subscribe()
		h.el.SetAutoReady(true)
		h.el.HoldPlay(true)
		playlist := tracks(1, 2)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.c.Next()
		h.flush(t)

		assert.Never(t, func() bool {
			select {
			case <-sub.Error:
				return true
			default:
				return false
			}
		}, 100*time.Millisecond, 10*time.Millisecond)
		assert.True(t, h.state().IsPlaying)
		assert.Equal(t, 2, h.state().CurrentTrack.ID)

		require.True(t, h.el.ResolvePlay(nil))
		h.flush(t)
		assert.True(t, h.state().IsPlaying)
	})

	t.Run("stale failure does not touch the new track", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		h.el.HoldPlay(true)
		playlist := tracks(1, 2)

		h.c.Select(playlist[0], playlist)
		var first uint64
		h.c.queue.push(func() { first = h.c.gen })
		h.flush(t)

		h.c.Next()
		h.flush(t)
		h.c.queue.push(func() { h.c.onPlayError(first, errors.New("late failure")) })
		h.flush(t)

		assert.True(t, h.state().IsPlaying)
	})
}

func TestControllerTransport(t *testing.T) {
	t.Run("toggle pauses and resumes", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)

		h.c.TogglePlay()
		h.flush(t)
		assert.True(t, h.el.Paused())
		assert.False(t, h.state().IsPlaying)

		h.c.TogglePlay()
		h.flush(t)
		assert.False(t, h.el.Paused())
		assert.Equal(t, 2, h.countCalls("play"))
	})

	t.Run("toggle while loading is deferred to ready", func(t *testing.T) {
		h := newHarness(t, Options{})
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.c.TogglePlay()
		h.flush(t)

		h.el.Emit(Event{Kind: EventReady})
		h.flush(t)

		assert.Zero(t, h.countCalls("play"))
		assert.False(t, h.state().IsPlaying)
	})

	t.Run("seek", func(t *testing.T) {
		h := newHarness(t, Options{})
		playlist := tracks(1)
		playlist[0].DurationSeconds = 200

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.c.Seek(50)
		h.flush(t)
		assert.Zero(t, h.el.CurrentTime(), "seek ignored while loading")
		assert.Zero(t, h.state().CurrentTime)

		h.el.Emit(Event{Kind: EventReady})
		h.flush(t)
		h.c.Seek(50)
		h.flush(t)
		assert.Equal(t, 50.0, h.el.CurrentTime())
		assert.Equal(t, 50.0, h.state().CurrentTime)

		h.c.Seek(900)
		h.flush(t)
		assert.Equal(t, 200.0, h.el.CurrentTime())
	})

	t.Run("progress and duration sync", func(t *testing.T) {
		h := newHarness(t, Options{})
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.flush(t)
		h.el.Emit(Event{Kind: EventTimeUpdate, Time: 3})
		h.flush(t)
		assert.Zero(t, h.state().CurrentTime, "progress ignored while loading")

		h.el.Emit(Event{Kind: EventDuration, Duration: 240})
		h.el.Emit(Event{Kind: EventReady})
		h.el.Emit(Event{Kind: EventTimeUpdate, Time: 12.5})
		h.flush(t)
		assert.Equal(t, 240.0, h.state().Duration)
		assert.Equal(t, 12.5, h.state().CurrentTime)

		h.el.Emit(Event{Kind: EventDuration, Duration: 0})
		h.flush(t)
		assert.Equal(t, 240.0, h.state().Duration, "non-positive duration ignored")
	})

	t.Run("shuffle and repeat flags", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.c.ToggleShuffle()
		h.c.ToggleRepeat()
		assert.True(t, h.state().Shuffle)
		assert.True(t, h.state().Repeat)
	})

	t.Run("previous", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1, 2, 3)

		h.c.Select(playlist[1], playlist)
		h.flush(t)
		require.True(t, h.c.Previous())
		assert.Equal(t, 1, h.state().CurrentTrack.ID)
		assert.False(t, h.c.Previous())
	})
}

func TestControllerEnded(t *testing.T) {
	t.Run("repeat replays the same track", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1, 2)

		h.c.Select(playlist[0], playlist)
		h.c.ToggleRepeat()
		h.flush(t)
		h.el.Emit(Event{Kind: EventTimeUpdate, Time: 100})
		h.el.SetCurrentTime(100)
		h.flush(t)

		h.el.Emit(Event{Kind: EventEnded})
		h.flush(t)

		assert.Equal(t, 1, h.state().CurrentTrack.ID)
		assert.Zero(t, h.state().CurrentTime)
		assert.Zero(t, h.el.CurrentTime())
		assert.True(t, h.state().IsPlaying)
		assert.Equal(t, 2, h.countCalls("play"))
	})

	t.Run("advances to next", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1, 2, 3)

		h.c.Select(playlist[1], playlist)
		h.flush(t)
		h.el.Emit(Event{Kind: EventEnded})
		h.flush(t)

		assert.Equal(t, 3, h.state().CurrentTrack.ID)
		assert.Equal(t, playlist[2].AudioURL, h.el.Source())
		assert.True(t, h.state().IsPlaying)
	})

	t.Run("stops at end of playlist", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1, 2)

		h.c.Select(playlist[1], playlist)
		h.flush(t)
		h.el.Emit(Event{Kind: EventEnded})
		h.flush(t)

		assert.Equal(t, 2, h.state().CurrentTrack.ID, "last track stays loaded")
		assert.False(t, h.state().IsPlaying)
		assert.Equal(t, PhaseReady, h.c.Phase())
	})

	t.Run("shuffle picks another track", func(t *testing.T) {
		h := newHarness(t, Options{Intn: func(int) int { return 1 }})
		h.el.SetAutoReady(true)
		playlist := tracks(1, 2, 3)

		h.c.Select(playlist[0], playlist)
		h.c.ToggleShuffle()
		h.flush(t)
		h.el.Emit(Event{Kind: EventEnded})
		h.flush(t)

		assert.Equal(t, 3, h.state().CurrentTrack.ID)
	})

	t.Run("shuffle with one track replays", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.el.SetAutoReady(true)
		playlist := tracks(1)

		h.c.Select(playlist[0], playlist)
		h.c.ToggleShuffle()
		h.flush(t)
		h.el.Emit(Event{Kind: EventEnded})
		h.flush(t)

		assert.Equal(t, 1, h.state().CurrentTrack.ID)
		assert.Equal(t, 2, h.countCalls("play"))
	})
}

type fakeSession struct {
	session *models.Session
}

func (f fakeSession) Session(context.Context) (*models.Session, error) {
	return f.session, nil
}

func signedIn() fakeSession {
	return fakeSession{session: &models.Session{
		Token:  &oauth2.Token{AccessToken: "access"},
		UserID: "7",
	}}
}

type fakeFavorites struct {
	mu      sync.Mutex
	calls   atomic.Int32
	block   chan struct{}
	err     error
	entered chan struct{}
}

func (f *fakeFavorites) mutate(ctx context.Context) error {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeFavorites) SetFavorite(ctx context.Context, _ int) error   { return f.mutate(ctx) }
func (f *fakeFavorites) UnsetFavorite(ctx context.Context, _ int) error { return f.mutate(ctx) }

func TestControllerToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("likes and unlikes", func(t *testing.T) {
		favs := &fakeFavorites{}
		h := newHarness(t, Options{Favorites: favs, Session: signedIn()})
		playlist := tracks(1, 2)
		h.c.Select(playlist[0], playlist)

		require.NoError(t, h.c.ToggleLike(ctx))
		assert.True(t, h.favorites.State().Has(1))
		assert.True(t, h.c.Liked())
		assert.True(t, h.state().CurrentTrack.IsLikedBy("7"))
		assert.True(t, h.state().Playlist[0].IsLikedBy("7"))

		require.NoError(t, h.c.ToggleLike(ctx))
		assert.False(t, h.favorites.State().Has(1))
		assert.False(t, h.state().CurrentTrack.IsLikedBy("7"))
		assert.Equal(t, int32(2), favs.calls.Load())
	})

	t.Run("single flight", func(t *testing.T) {
		favs := &fakeFavorites{block: make(chan struct{}), entered: make(chan struct{}, 1)}
		h := newHarness(t, Options{Favorites: favs, Session: signedIn()})
		playlist := tracks(1)
		h.c.Select(playlist[0], playlist)

		first := make(chan error, 1)
		go func() { first <- h.c.ToggleLike(ctx) }()
		<-favs.entered

		assert.ErrorIs(t, h.c.ToggleLike(ctx), shared.ErrLikeInFlight)

		close(favs.block)
		require.NoError(t, <-first)
		assert.Equal(t, int32(1), favs.calls.Load(), "exactly one network mutation")
		assert.True(t, h.favorites.State().Has(1))
	})

	t.Run("failure shows a transient error", func(t *testing.T) {
		favs := &fakeFavorites{err: errors.New("HTTP fail")}
		h := newHarness(t, Options{Favorites: favs, Session: signedIn(), LikeErrorTTL: 30 * time.Millisecond})
		sub := h.c.Subscribe()
		playlist := tracks(1)
		h.c.Select(playlist[0], playlist)

		require.Error(t, h.c.ToggleLike(ctx))
		assert.Equal(t, "HTTP fail", h.c.LikeError())
		assert.False(t, h.favorites.State().Has(1), "membership unchanged")
		assert.False(t, h.state().CurrentTrack.IsLikedBy("7"))

		assert.Eventually(t, func() bool { return h.c.LikeError() == "" }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "HTTP fail", <-sub.LikeError)
		assert.Equal(t, "", <-sub.LikeError)

		favs.mu.Lock()
		favs.err = nil
		favs.mu.Unlock()
		require.NoError(t, h.c.ToggleLike(ctx), "lock released after failure")
	})

	t.Run("requires a session", func(t *testing.T) {
		favs := &fakeFavorites{}
		h := newHarness(t, Options{Favorites: favs, Session: fakeSession{}})
		playlist := tracks(1)
		h.c.Select(playlist[0], playlist)

		assert.ErrorIs(t, h.c.ToggleLike(ctx), shared.ErrNotAuthenticated)
		assert.ErrorIs(t, h.c.ToggleLike(ctx), shared.ErrNotAuthenticated, "lock released on early return")
		assert.Zero(t, favs.calls.Load())
	})

	t.Run("requires a track", func(t *testing.T) {
		h := newHarness(t, Options{Favorites: &fakeFavorites{}, Session: signedIn()})
		assert.ErrorIs(t, h.c.ToggleLike(ctx), shared.ErrTrackNotFound)
	})
}

func TestControllerRun(t *testing.T) {
	h := newHarness(t, Options{})
	assert.ErrorIs(t, h.c.Run(context.Background()), shared.ErrInvalidArgument)
}
