package player

const eventBufferSize = 16

// ErrorEvent is emitted when loading, starting playback or a like toggle fails.
type ErrorEvent struct {
	Operation string // "load", "play" or "like"
	TrackID   int
	Err       error
}

// Subscription provides event channels for a subscriber.
type Subscription struct {
	Error <-chan ErrorEvent
	// LikeError carries the transient like message; "" when it clears.
	LikeError <-chan string
	Done      <-chan struct{}

	errorCh chan ErrorEvent
	likeCh  chan string
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		errorCh: make(chan ErrorEvent, eventBufferSize),
		likeCh:  make(chan string, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Error = s.errorCh
	s.LikeError = s.likeCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendLikeError(msg string) {
	select {
	case s.likeCh <- msg:
	default:
	}
}
