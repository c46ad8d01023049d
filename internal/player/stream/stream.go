// package stream plays catalog track files through beep.
//
// The package is kept apart from the controller so that only binaries which
// actually open an audio device link the speaker and its cgo backends.
package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"

	"github.com/desertthunder/skyplay/internal/player"
	"github.com/desertthunder/skyplay/internal/shared"
)

const tickInterval = 250 * time.Millisecond

// DefaultMaxBytes caps a track download when [Options.MaxBytes] is unset.
const DefaultMaxBytes int64 = 64 << 20

// DecodeFunc turns a fully buffered track file into a seekable stream.
type DecodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// Options configures an [Element].
type Options struct {
	Client *http.Client // nil means [http.DefaultClient]
	Logger *log.Logger
	Output Output     // nil means [Speaker]
	Decode DecodeFunc // nil means mp3
	// MaxBytes caps the size of a downloaded track file.
	MaxBytes int64
}

// Element is a [player.Element] that downloads a track file over HTTP and
// plays it through an [Output].
type Element struct {
	client   *http.Client
	logger   *log.Logger
	out      Output
	decode   DecodeFunc
	maxBytes int64

	mu       sync.Mutex
	src      string
	seq      uint64
	arm      uint64
	cancel   context.CancelFunc
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	ready    bool
	loadErr  error
	pending  []chan error
	handlers map[player.EventKind]map[int]func(player.Event)
	nextID   int

	// drained holds the arm id of the last chain the output ran to the end.
	// The output drops a finished chain, so a drained element must be re-armed
	// before it can make sound again.
	drained atomic.Uint64

	done chan struct{}
	once sync.Once
}

// New creates an element and starts its progress ticker.
func New(opts Options) *Element {
	s := &Element{
		client:   opts.Client,
		logger:   opts.Logger,
		out:      opts.Output,
		decode:   opts.Decode,
		maxBytes: opts.MaxBytes,
		level:    1,
		handlers: make(map[player.EventKind]map[int]func(player.Event)),
		done:     make(chan struct{}),
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(io.Discard)
	}
	if s.out == nil {
		s.out = Speaker{}
	}
	if s.decode == nil {
		s.decode = mp3.Decode
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxBytes
	}
	go s.tick()
	return s
}

func (s *Element) SetSource(url string) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.unloadLocked()
	s.src = url
	s.loadErr = nil
	pending := s.pending
	s.pending = nil

	var ctx context.Context
	if url != "" {
		ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.mu.Unlock()

	for _, ch := range pending {
		ch <- shared.ErrPlaybackAborted
	}
	if url != "" {
		go s.load(ctx, seq, url)
	}
}

// unloadLocked stops and releases the current stream. Callers hold s.mu.
func (s *Element) unloadLocked() {
	if s.streamer != nil {
		s.out.Clear()
		s.streamer.Close()
	}
	s.streamer = nil
	s.ctrl = nil
	s.volume = nil
	s.ready = false
}

func (s *Element) load(ctx context.Context, seq uint64, url string) {
	streamer, format, err := s.fetch(ctx, url)
	if err == nil {
		err = s.out.Init(format.SampleRate)
		if err != nil {
			streamer.Close()
			err = fmt.Errorf("%w: audio output: %v", shared.ErrMediaLoad, err)
		}
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		if streamer != nil && err == nil {
			streamer.Close()
		}
		return
	}

	if err != nil {
		s.cancel = nil
		s.loadErr = err
		pending := s.pending
		s.pending = nil
		s.mu.Unlock()

		s.logger.Error("failed to load audio", "url", url, "err", err)
		for _, ch := range pending {
			ch <- err
		}
		s.emit(player.Event{Kind: player.EventError, Err: err})
		return
	}

	var play beep.Streamer = streamer
	if rate := s.out.SampleRate(); format.SampleRate != rate {
		play = beep.Resample(4, format.SampleRate, rate, streamer)
	}
	s.streamer = streamer
	s.format = format
	s.ctrl = &beep.Ctrl{Streamer: play, Paused: len(s.pending) == 0}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2, Volume: levelToVolume(s.level), Silent: s.level <= 0}
	s.ready = true
	s.cancel = nil
	pending := s.pending
	s.pending = nil
	duration := format.SampleRate.D(streamer.Len()).Seconds()
	s.armLocked()
	s.mu.Unlock()

	s.emit(player.Event{Kind: player.EventDuration, Duration: duration})
	s.emit(player.Event{Kind: player.EventReady})
	for _, ch := range pending {
		ch <- nil
	}
}

// armLocked hands the volume chain to the output, followed by a callback that
// reports the end of the stream. Callers hold s.mu and a loaded stream.
func (s *Element) armLocked() {
	s.arm++
	seq, arm := s.seq, s.arm
	s.out.Play(beep.Seq(s.volume, beep.Callback(func() {
		// Runs on the output goroutine with the output lock held.
		s.drained.Store(arm)
		go s.finished(seq, arm)
	})))
}

// drainedLocked reports whether the output has dropped the current chain.
func (s *Element) drainedLocked() bool {
	return s.ctrl != nil && s.drained.Load() == s.arm
}

func (s *Element) fetch(ctx context.Context, url string) (beep.StreamSeekCloser, beep.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", shared.ErrMediaLoad, err)
	}
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", shared.ErrMediaLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, beep.Format{}, fmt.Errorf("%w: %s returned %d", shared.ErrMediaLoad, url, resp.StatusCode)
	}
	if resp.ContentLength > s.maxBytes {
		return nil, beep.Format{}, s.tooLarge(url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %v", shared.ErrMediaLoad, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, beep.Format{}, s.tooLarge(url)
	}

	streamer, format, err := s.decode(readSeekNopCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: decode: %v", shared.ErrMediaLoad, err)
	}
	return streamer, format, nil
}

func (s *Element) tooLarge(url string) error {
	return fmt.Errorf("%w: %s is larger than %s", shared.ErrMediaLoad, url, humanize.IBytes(uint64(s.maxBytes)))
}

// readSeekNopCloser lets the decoder seek inside a fully buffered body.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func (s *Element) finished(seq, arm uint64) {
	s.mu.Lock()
	current := seq == s.seq && arm == s.arm
	if current && s.ctrl != nil {
		s.out.Lock()
		s.ctrl.Paused = true
		s.out.Unlock()
	}
	s.mu.Unlock()

	if current {
		s.emit(player.Event{Kind: player.EventEnded})
	}
}

func (s *Element) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

func (s *Element) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Play resumes the loaded stream. A stream that already ran to the end starts
// over from the beginning.
func (s *Element) Play() <-chan error {
	ch := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.src == "":
		ch <- fmt.Errorf("%w: no source", shared.ErrMediaLoad)
	case s.loadErr != nil:
		ch <- s.loadErr
	case !s.ready:
		s.pending = append(s.pending, ch)
	default:
		drained := s.drainedLocked()
		s.out.Lock()
		if drained {
			if err := s.streamer.Seek(0); err != nil {
				s.logger.Warn("rewind failed", "err", err)
			}
		}
		s.ctrl.Paused = false
		s.out.Unlock()
		if drained {
			s.armLocked()
		}
		ch <- nil
	}
	return ch
}

func (s *Element) Pause() {
	s.mu.Lock()
	if s.ctrl != nil {
		s.out.Lock()
		s.ctrl.Paused = true
		s.out.Unlock()
	}
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ch := range pending {
		ch <- shared.ErrPlaybackAborted
	}
}

func (s *Element) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl == nil {
		return true
	}
	s.out.Lock()
	defer s.out.Unlock()
	return s.ctrl.Paused
}

// SetCurrentTime seeks within the loaded stream. Seeking a stream that ran to
// the end re-arms it, so a following Play continues from the new position.
func (s *Element) SetCurrentTime(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return
	}

	pos := s.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	pos = min(max(pos, 0), max(s.streamer.Len()-1, 0))

	s.out.Lock()
	err := s.streamer.Seek(pos)
	s.out.Unlock()
	if err != nil {
		s.logger.Warn("seek failed", "seconds", seconds, "err", err)
		return
	}
	if s.drainedLocked() {
		s.armLocked()
	}
}

func (s *Element) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Element) positionLocked() float64 {
	if s.streamer == nil {
		return 0
	}
	s.out.Lock()
	defer s.out.Unlock()
	return s.format.SampleRate.D(s.streamer.Position()).Seconds()
}

func (s *Element) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len()).Seconds()
}

// SetVolume sets the volume level (0.0 to 1.0).
func (s *Element) SetVolume(level float64) {
	level = min(max(level, 0), 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = level
	if s.volume != nil {
		s.out.Lock()
		s.volume.Volume = levelToVolume(level)
		s.volume.Silent = level <= 0
		s.out.Unlock()
	}
}

func (s *Element) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Element) On(kind player.EventKind, fn func(player.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.handlers[kind] == nil {
		s.handlers[kind] = make(map[int]func(player.Event))
	}
	s.handlers[kind][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[kind], id)
	}
}

func (s *Element) emit(e player.Event) {
	s.mu.Lock()
	fns := make([]func(player.Event), 0, len(s.handlers[e.Kind]))
	for _, fn := range s.handlers[e.Kind] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// tick reports progress while a source is playing.
func (s *Element) tick() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			playing := s.ctrl != nil && s.ready
			if playing {
				s.out.Lock()
				playing = !s.ctrl.Paused
				s.out.Unlock()
			}
			var pos float64
			if playing {
				pos = s.positionLocked()
			}
			s.mu.Unlock()

			if playing {
				s.emit(player.Event{Kind: player.EventTimeUpdate, Time: pos})
			}
		}
	}
}

// Close unloads the source and stops the progress ticker.
func (s *Element) Close() error {
	s.once.Do(func() { close(s.done) })
	s.SetSource("")
	return nil
}

var _ player.Element = (*Element)(nil)
