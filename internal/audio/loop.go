package audio

import (
	"fmt"

	"github.com/gopxl/beep/v2"
)

// loop replays src indefinitely by rewinding it whenever it drains.
//
// A panic inside the source ends the loop with [ErrDecoderFault]. A rewind that yields
// no samples ends it too, so an empty file cannot spin the mixer.
type loop struct {
	src   Source
	err   error
	ended bool
}

func newLoop(src Source) *loop {
	return &loop{src: src}
}

func (l *loop) Stream(samples [][2]float64) (n int, ok bool) {
	if l.ended {
		return 0, false
	}

	defer func() {
		if r := recover(); r != nil {
			l.err = fmt.Errorf("%w: %w: %v", ErrDecodeFailure, ErrDecoderFault, r)
			l.ended = true
			n, ok = 0, false
		}
	}()

	rewound := false
	for n < len(samples) {
		m, more := l.src.Stream(samples[n:])
		n += m
		if m > 0 {
			rewound = false
		}
		if more && m > 0 {
			continue
		}

		if err := l.src.Err(); err != nil {
			l.err = fmt.Errorf("%w: %w", ErrDecodeFailure, err)
			l.ended = true
			break
		}
		if rewound {
			l.ended = true
			break
		}
		if err := l.src.Rewind(); err != nil {
			l.err = fmt.Errorf("%w: rewind: %w", ErrDecodeFailure, err)
			l.ended = true
			break
		}
		rewound = true
	}
	return n, n > 0
}

func (l *loop) Err() error {
	return l.err
}

// fadeIn ramps gain linearly from 0 to 1 over its first length samples.
type fadeIn struct {
	s      beep.Streamer
	pos    int
	length int
}

func (f *fadeIn) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.s.Stream(samples)
	for i := 0; i < n && f.pos < f.length; i++ {
		g := float64(f.pos) / float64(f.length)
		samples[i][0] *= g
		samples[i][1] *= g
		f.pos++
	}
	return n, ok
}

func (f *fadeIn) Err() error {
	return f.s.Err()
}
