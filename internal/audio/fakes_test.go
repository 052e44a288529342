package audio

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"github.com/desertthunder/tanin/internal/shared"
)

// fakeSource emits value for total samples per pass; total < 0 never drains.
type fakeSource struct {
	total   int
	pos     int
	value   float64
	rewinds int
	closed  int
	panics  bool
}

func (s *fakeSource) Stream(samples [][2]float64) (int, bool) {
	if s.panics {
		panic("corrupt frame")
	}
	n := len(samples)
	if s.total >= 0 {
		n = min(n, s.total-s.pos)
	}
	for i := range n {
		samples[i] = [2]float64{s.value, s.value}
	}
	s.pos += n
	return n, n > 0
}

func (s *fakeSource) Err() error   { return nil }
func (s *fakeSource) Close() error { s.closed++; return nil }

func (s *fakeSource) Format() beep.Format {
	return beep.Format{SampleRate: TargetSampleRate, NumChannels: 2, Precision: 2}
}

func (s *fakeSource) Rewind() error {
	s.rewinds++
	s.pos = 0
	return nil
}

// fakeDecoder hands out a fresh fakeSource per path unless the path is listed in fail.
type fakeDecoder struct {
	fail    map[string]error
	sources map[string][]*fakeSource
	panics  map[string]bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		fail:    make(map[string]error),
		sources: make(map[string][]*fakeSource),
		panics:  make(map[string]bool),
	}
}

func (d *fakeDecoder) Decode(path string) (Source, error) {
	if err, ok := d.fail[path]; ok {
		return nil, err
	}
	src := &fakeSource{total: -1, value: 1, panics: d.panics[path]}
	d.sources[path] = append(d.sources[path], src)
	return src, nil
}

func (d *fakeDecoder) last(path string) *fakeSource {
	srcs := d.sources[path]
	if len(srcs) == 0 {
		return nil
	}
	return srcs[len(srcs)-1]
}

var errBadFile = errors.Join(ErrDecodeFailure, errors.New("bad file"))

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}
