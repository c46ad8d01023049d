package player

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
)

// DefaultLikeErrorTTL is how long a failed like stays visible.
const DefaultLikeErrorTTL = 3 * time.Second

// Phase is the load state of the bound track.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a [Controller]. Zero values are usable.
type Options struct {
	// Favorites performs remote like mutations. Without it ToggleLike fails.
	Favorites services.Favorites
	// Session supplies the signed-in user for like toggles.
	Session services.SessionSource
	Logger  *log.Logger
	// LikeErrorTTL defaults to [DefaultLikeErrorTTL].
	LikeErrorTTL time.Duration
	// Intn picks shuffle candidates; defaults to math/rand/v2.
	Intn func(n int) int
}

// Controller binds one [Element] to the playback store.
//
// Store changes, element callbacks and play results are queued and handled one
// at a time by [Controller.Run]. Fields below the queue are owned by that loop.
type Controller struct {
	el        Element
	player    *store.Store[store.PlayerState]
	favorites *store.Store[store.FavoritesState]
	likes     services.Favorites
	session   services.SessionSource
	logger    *log.Logger
	likeTTL   time.Duration
	intn      func(int) int

	queue *taskQueue
	phase atomic.Int32

	gen      uint64
	boundID  int
	offs     []func()
	loadOffs []func()
	playing  bool
	volume   int

	liking   atomic.Bool
	likeMu   sync.Mutex
	likeErr  string
	likeSeq  uint64
	subsMu   sync.Mutex
	subs     []*Subscription
	running  atomic.Bool
	stopOnce sync.Once
}

// NewController creates a controller for el. Call Run to start it.
func NewController(el Element, player *store.Store[store.PlayerState], favorites *store.Store[store.FavoritesState], opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	ttl := opts.LikeErrorTTL
	if ttl <= 0 {
		ttl = DefaultLikeErrorTTL
	}
	return &Controller{
		el:        el,
		player:    player,
		favorites: favorites,
		likes:     opts.Favorites,
		session:   opts.Session,
		logger:    shared.WithLogger(logger, "component", "player"),
		likeTTL:   ttl,
		intn:      opts.Intn,
		queue:     newTaskQueue(),
		volume:    -1,
	}
}

// Run processes controller work until ctx is done. It returns
// [shared.ErrInvalidArgument] if the controller is already running.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return shared.ErrInvalidArgument
	}

	unsubscribe := c.player.Subscribe(func(store.PlayerState) {
		c.queue.push(c.reconcile)
	})
	defer unsubscribe()

	c.queue.push(c.reconcile)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-c.queue.signal:
			for _, fn := range c.queue.drain() {
				fn()
			}
		}
	}
}

func (c *Controller) shutdown() {
	c.stopOnce.Do(func() {
		c.clearObservers()
		c.el.Pause()

		c.subsMu.Lock()
		for _, sub := range c.subs {
			sub.close()
		}
		c.subs = nil
		c.subsMu.Unlock()
	})
}

// Phase reports the load state of the bound track.
func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

// Subscribe returns channels for error and like-error events. They are closed
// through Done when Run returns.
func (c *Controller) Subscribe() *Subscription {
	sub := newSubscription()
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.subs = append(c.subs, sub)
	return sub
}

func (c *Controller) emitError(e ErrorEvent) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		sub.sendError(e)
	}
}

// reconcile brings the element in line with the current store snapshot.
func (c *Controller) reconcile() {
	s := c.player.State()

	if s.Volume != c.volume {
		c.volume = s.Volume
		c.el.SetVolume(percentToLevel(s.Volume))
	}

	id, ok := s.CurrentID()
	switch {
	case !ok && c.Phase() != PhaseIdle:
		c.unbind()
		return
	case !ok:
		return
	case c.Phase() == PhaseIdle || id != c.boundID:
		c.bind(*s.CurrentTrack)
		return
	case c.Phase() == PhaseFailed && s.IsPlaying:
		// Retry a failed source when playback is requested again.
		c.bind(*s.CurrentTrack)
		return
	}

	if c.Phase() != PhaseReady || s.IsPlaying == c.playing {
		return
	}
	c.playing = s.IsPlaying
	if s.IsPlaying {
		c.startPlay()
	} else {
		c.el.Pause()
	}
}

// bind switches the element to t and starts a new generation.
func (c *Controller) bind(t models.Track) {
	c.gen++
	gen := c.gen
	c.clearObservers()

	c.boundID = t.ID
	c.playing = false
	c.phase.Store(int32(PhaseLoading))

	c.el.Pause()
	c.el.SetCurrentTime(0)
	c.player.Dispatch(store.SetCurrentTime{Seconds: 0})
	c.el.SetSource(t.AudioURL)
	c.logger.Debug("loading track", "id", t.ID, "name", t.Name, "gen", gen)

	c.offs = append(c.offs,
		c.on(gen, EventTimeUpdate, c.onTimeUpdate),
		c.on(gen, EventDuration, func(e Event) { c.setDuration(e.Duration) }),
		c.on(gen, EventEnded, func(Event) { c.onEnded(gen) }),
	)

	c.loadOffs = []func(){
		c.on(gen, EventReady, func(Event) { c.onReady(gen) }),
		c.on(gen, EventError, func(e Event) { c.onLoadError(e.Err) }),
	}

	// Already buffered: skip the observer path.
	if c.el.Ready() {
		c.onReady(gen)
	}
}

// on registers an observer whose work runs on the loop only while gen is current.
func (c *Controller) on(gen uint64, kind EventKind, fn func(Event)) func() {
	return c.el.On(kind, func(e Event) {
		c.queue.push(func() {
			if gen == c.gen {
				fn(e)
			}
		})
	})
}

func (c *Controller) clearLoadObservers() {
	for _, off := range c.loadOffs {
		off()
	}
	c.loadOffs = nil
}

func (c *Controller) clearObservers() {
	c.clearLoadObservers()
	for _, off := range c.offs {
		off()
	}
	c.offs = nil
}

func (c *Controller) unbind() {
	c.gen++
	c.clearObservers()
	c.el.Pause()
	c.el.SetSource("")
	c.boundID = 0
	c.playing = false
	c.phase.Store(int32(PhaseIdle))
	c.logger.Debug("track cleared")
}

func (c *Controller) onReady(gen uint64) {
	if gen != c.gen || c.Phase() != PhaseLoading {
		return
	}
	c.clearLoadObservers()
	c.phase.Store(int32(PhaseReady))
	c.setDuration(c.el.Duration())

	if c.player.State().IsPlaying {
		c.playing = true
		c.startPlay()
	}
}

func (c *Controller) onLoadError(err error) {
	if c.Phase() != PhaseLoading {
		return
	}
	c.clearLoadObservers()
	c.phase.Store(int32(PhaseFailed))
	c.playing = false
	if err == nil {
		err = shared.ErrMediaLoad
	}

	c.logger.Error("error loading audio", "id", c.boundID, "err", err)
	c.emitError(ErrorEvent{Operation: "load", TrackID: c.boundID, Err: err})
	c.player.Dispatch(store.SetPlaying{Playing: false})
}

// startPlay asks the element to play and handles the result on the loop.
func (c *Controller) startPlay() {
	gen := c.gen
	result := c.el.Play()
	go func() {
		err := <-result
		if err == nil {
			return
		}
		c.queue.push(func() { c.onPlayError(gen, err) })
	}()
}

func (c *Controller) onPlayError(gen uint64, err error) {
	if gen != c.gen || errors.Is(err, shared.ErrPlaybackAborted) {
		c.logger.Debug("play superseded", "gen", gen, "err", err)
		return
	}

	c.logger.Error("error playing audio", "id", c.boundID, "err", err)
	c.emitError(ErrorEvent{Operation: "play", TrackID: c.boundID, Err: err})
	c.playing = false
	c.player.Dispatch(store.SetPlaying{Playing: false})
}

func (c *Controller) onTimeUpdate(e Event) {
	if c.Phase() != PhaseReady {
		return
	}
	c.player.Dispatch(store.SetCurrentTime{Seconds: e.Time})
}

func (c *Controller) setDuration(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return
	}
	c.player.Dispatch(store.SetDuration{Seconds: seconds})
}

func (c *Controller) onEnded(gen uint64) {
	s := c.player.State()
	if s.CurrentTrack == nil {
		return
	}

	if s.Repeat {
		c.replay()
		return
	}

	next := NextTrack(s.Playlist, s.CurrentTrack, s.Shuffle, c.intn)
	switch {
	case next == nil:
		c.logger.Debug("end of playlist", "id", s.CurrentTrack.ID, "gen", gen)
		c.playing = false
		c.player.Dispatch(store.SetPlaying{Playing: false})
	case next.ID == s.CurrentTrack.ID:
		c.replay()
	default:
		c.player.Dispatch(store.SelectTrack{Track: *next})
	}
}

// replay rewinds the bound track and plays it again.
func (c *Controller) replay() {
	c.el.SetCurrentTime(0)
	c.player.Dispatch(store.SetCurrentTime{Seconds: 0})
	c.playing = true
	c.player.Dispatch(store.SetPlaying{Playing: true})
	c.startPlay()
}

// Intents. These are safe to call from any goroutine.

// Select makes t current with playlist as the navigation context.
func (c *Controller) Select(t models.Track, playlist []models.Track) {
	if playlist != nil {
		c.player.Dispatch(store.SetPlaylist{Tracks: playlist})
	}
	c.player.Dispatch(store.SelectTrack{Track: t})
}

// Next switches to the next track and reports whether one existed.
func (c *Controller) Next() bool {
	s := c.player.State()
	next := NextTrack(s.Playlist, s.CurrentTrack, s.Shuffle, c.intn)
	if next == nil {
		return false
	}
	c.player.Dispatch(store.SelectTrack{Track: *next})
	return true
}

// Previous switches to the previous track and reports whether one existed.
func (c *Controller) Previous() bool {
	s := c.player.State()
	prev := PrevTrack(s.Playlist, s.CurrentTrack)
	if prev == nil {
		return false
	}
	c.player.Dispatch(store.SelectTrack{Track: *prev})
	return true
}

// TogglePlay flips play/pause. While loading only the intent is stored.
func (c *Controller) TogglePlay() {
	c.player.Dispatch(store.TogglePlay{})
}

// Seek moves playback to seconds. Ignored unless the bound track is ready.
func (c *Controller) Seek(seconds float64) {
	c.queue.push(func() {
		if c.Phase() != PhaseReady || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return
		}
		seconds = max(seconds, 0)
		if d := c.player.State().Duration; d > 0 {
			seconds = min(seconds, d)
		}
		c.el.SetCurrentTime(seconds)
		c.player.Dispatch(store.SetCurrentTime{Seconds: seconds})
	})
}

// SetVolume stores percent (clamped to 0-100); the element follows immediately.
func (c *Controller) SetVolume(percent int) {
	c.player.Dispatch(store.SetVolume{Percent: percent})
}

func (c *Controller) ToggleShuffle() { c.player.Dispatch(store.ToggleShuffle{}) }

func (c *Controller) ToggleRepeat() { c.player.Dispatch(store.ToggleRepeat{}) }
