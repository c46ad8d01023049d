package stream

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output mixes streamers into an audio device.
//
// Lock guards every streamer handed to Play; the element takes it before
// touching a playing chain.
type Output interface {
	// Init prepares the device. Only the first call picks the sample rate.
	Init(rate beep.SampleRate) error
	SampleRate() beep.SampleRate
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

// Speaker is the [Output] backed by the system audio device.
type Speaker struct{}

func (Speaker) Init(rate beep.SampleRate) error {
	speakerOnce.Do(func() {
		speakerRate = rate
		speakerErr = speaker.Init(rate, rate.N(time.Second/10))
	})
	return speakerErr
}

func (Speaker) SampleRate() beep.SampleRate { return speakerRate }
func (Speaker) Play(s ...beep.Streamer)     { speaker.Play(s...) }
func (Speaker) Clear()                      { speaker.Clear() }
func (Speaker) Lock()                       { speaker.Lock() }
func (Speaker) Unlock()                     { speaker.Unlock() }
