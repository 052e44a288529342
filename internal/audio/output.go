package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Speaker is the system audio device. Only one may be open per process.
type Speaker struct {
	rate beep.SampleRate
}

// OpenSpeaker initializes the device at rate with the given buffer length.
// Failure wraps [ErrDeviceUnavailable]; callers run the engine without an output.
func OpenSpeaker(rate beep.SampleRate, buffer time.Duration) (*Speaker, error) {
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return &Speaker{rate: rate}, nil
}

func (s *Speaker) Play(st beep.Streamer) {
	speaker.Play(st)
}

func (s *Speaker) Lock() {
	speaker.Lock()
}

func (s *Speaker) Unlock() {
	speaker.Unlock()
}

// SampleRate returns the rate the device was opened with.
func (s *Speaker) SampleRate() beep.SampleRate {
	return s.rate
}

func (s *Speaker) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}
