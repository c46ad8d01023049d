package player

import (
	"sync"

	"github.com/desertthunder/skyplay/internal/shared"
)

// Mock is a test double for [Element].
//
// Loads complete only when the test says so: SetAutoReady makes new sources
// ready at once, otherwise Emit(Event{Kind: EventReady}) completes them.
// Play results resolve immediately unless HoldPlay is set.
type Mock struct {
	mu        sync.Mutex
	src       string
	ready     bool
	autoReady bool
	paused    bool
	time      float64
	duration  float64
	volume    float64
	holdPlay  bool
	playErr   error
	pending   []chan error
	calls     []string
	handlers  map[EventKind]map[int]func(Event)
	nextID    int
}

// NewMock creates a paused, empty mock element at full volume.
func NewMock() *Mock {
	return &Mock{
		paused:   true,
		volume:   1,
		handlers: make(map[EventKind]map[int]func(Event)),
	}
}

func (m *Mock) SetSource(url string) {
	m.mu.Lock()
	m.calls = append(m.calls, "load:"+url)
	m.src = url
	m.ready = url != "" && m.autoReady
	m.paused = true
	m.time = 0
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, ch := range pending {
		ch <- shared.ErrPlaybackAborted
	}
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *Mock) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *Mock) Play() <-chan error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "play")
	ch := make(chan error, 1)
	if m.holdPlay {
		m.pending = append(m.pending, ch)
		return ch
	}
	if m.playErr == nil {
		m.paused = false
	}
	ch <- m.playErr
	return ch
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.calls = append(m.calls, "pause")
	m.paused = true
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, ch := range pending {
		ch <- shared.ErrPlaybackAborted
	}
}

func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Mock) SetCurrentTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = seconds
}

func (m *Mock) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *Mock) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = level
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) On(kind EventKind, fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	if m.handlers[kind] == nil {
		m.handlers[kind] = make(map[int]func(Event))
	}
	m.handlers[kind][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers[kind], id)
	}
}

// Test helpers

// SetAutoReady makes subsequent sources ready as soon as they are set.
func (m *Mock) SetAutoReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReady = ready
}

// HoldPlay keeps Play results pending until ResolvePlay, SetSource or Pause.
func (m *Mock) HoldPlay(hold bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdPlay = hold
}

// SetPlayError makes immediate Play results fail with err.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// ResolvePlay resolves the oldest pending Play with err and reports whether one existed.
func (m *Mock) ResolvePlay(err error) bool {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		return false
	}
	ch := m.pending[0]
	m.pending = m.pending[1:]
	if err == nil {
		m.paused = false
	}
	m.mu.Unlock()

	ch <- err
	return true
}

// SetDuration sets the value reported by Duration.
func (m *Mock) SetDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = seconds
}

// Emit delivers e to the current observers. EventReady also marks the source ready.
func (m *Mock) Emit(e Event) {
	if e.Kind == EventReady {
		m.mu.Lock()
		m.ready = true
		m.mu.Unlock()
	}
	for _, fn := range m.Handlers(e.Kind) {
		fn(e)
	}
}

// Handlers returns a snapshot of the observers registered for kind.
func (m *Mock) Handlers(kind EventKind) []func(Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fns := make([]func(Event), 0, len(m.handlers[kind]))
	for _, fn := range m.handlers[kind] {
		fns = append(fns, fn)
	}
	return fns
}

// Calls returns the recorded load, play and pause calls in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Verify Mock implements Element at compile time.
var _ Element = (*Mock)(nil)
