//go:build cgo

package audio

import (
	"errors"
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"gopkg.in/hraban/opus.v2"
)

// opusFrame is 120 ms at 48 kHz, the largest Opus frame, in samples per channel.
const opusFrame = 5760

type opusSource struct {
	path   string
	file   *os.File
	stream *opus.Stream
	pcm    []float32
	// channels is the interleave stride of pcm. Mono is duplicated to both sides and
	// anything past the first two channels is dropped.
	channels int
	pos      int
	n        int
	err      error
}

// openOpus decodes Ogg Opus through libopusfile, which always outputs 48 kHz.
func openOpus(path string) (Source, error) {
	s := &opusSource{path: path}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *opusSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}

	channels, err := opusChannels(f)
	if err != nil {
		f.Close()
		return &structuralError{err: err}
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return &structuralError{err: err}
	}

	if channels != s.channels || s.pcm == nil {
		s.channels = channels
		s.pcm = make([]float32, opusFrame*channels)
	}

	s.file, s.stream = f, stream
	s.pos, s.n = 0, 0
	return nil
}

func (s *opusSource) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) {
		if s.pos >= s.n {
			n, err := s.stream.ReadFloat32(s.pcm)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				break
			}
			s.pos, s.n = 0, n
			continue
		}

		for s.pos < s.n && filled < len(samples) {
			base := s.pos * s.channels
			left := float64(s.pcm[base])
			right := left
			if s.channels > 1 {
				right = float64(s.pcm[base+1])
			}
			samples[filled][0] = left
			samples[filled][1] = right
			s.pos++
			filled++
		}
	}
	return filled, filled > 0
}

func (s *opusSource) Err() error {
	return s.err
}

func (s *opusSource) Format() beep.Format {
	return beep.Format{SampleRate: TargetSampleRate, NumChannels: 2, Precision: 4}
}

// Rewind reopens the file since opus.Stream cannot seek.
func (s *opusSource) Rewind() error {
	s.Close()
	s.err = nil
	return s.open()
}

func (s *opusSource) Close() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.file.Close()
	s.stream, s.file = nil, nil
	return err
}
