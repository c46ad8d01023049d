// Package player drives a single audio element from the shared playback state.
//
// The [Controller] is the only owner of its [Element]. Views never touch the
// element; they dispatch store actions or call the controller's intent methods,
// and the controller reconciles the element with the resulting state on its own
// event loop. Element callbacks are bound to a load generation so observers left
// over from a superseded track can never act on the current one.
package player

import "fmt"

// EventKind identifies an element notification.
type EventKind int

const (
	// EventReady fires once enough data is buffered to start playback.
	EventReady EventKind = iota
	// EventError fires when the current source fails to load.
	EventError
	// EventTimeUpdate reports playback progress.
	EventTimeUpdate
	// EventDuration fires when metadata or a duration change is known.
	EventDuration
	// EventEnded fires when playback reaches the end of the source.
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventError:
		return "error"
	case EventTimeUpdate:
		return "timeupdate"
	case EventDuration:
		return "durationchange"
	case EventEnded:
		return "ended"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to observers registered with [Element.On].
type Event struct {
	Kind     EventKind
	Time     float64 // seconds, EventTimeUpdate
	Duration float64 // seconds, EventDuration
	Err      error   // EventError
}

// Element is a streaming media resource with an asynchronous load lifecycle.
//
// Observers may be invoked from any goroutine. Play resolves its channel exactly
// once: nil when playback started, [shared.ErrPlaybackAborted] when a later
// SetSource or Pause superseded the attempt, or another error when playback
// could not start.
type Element interface {
	// SetSource starts loading url. An empty url unloads the element.
	SetSource(url string)
	Source() string
	// Ready reports whether the current source can play without waiting.
	Ready() bool
	Play() <-chan error
	Pause()
	Paused() bool
	SetCurrentTime(seconds float64)
	CurrentTime() float64
	Duration() float64
	// SetVolume applies a linear level in [0, 1].
	SetVolume(level float64)
	Volume() float64
	// On registers fn for kind and returns a function removing it.
	On(kind EventKind, fn func(Event)) (off func())
}
