package audio

import (
	"github.com/gopxl/beep/v2"
)

// TargetSampleRate is the rate every source is conformed to before mixing.
const TargetSampleRate = beep.SampleRate(48000)

// Source is a decoded, rewindable sample stream.
//
// Channel count is always two: beep streams are stereo frames, and mono decoders
// duplicate the channel. Duration is not exposed; looping makes every track unbounded.
type Source interface {
	beep.Streamer
	Format() beep.Format
	Rewind() error
	Close() error
}

// seekSource adapts a beep decoder result.
type seekSource struct {
	s      beep.StreamSeekCloser
	format beep.Format
}

func (s *seekSource) Stream(samples [][2]float64) (int, bool) { return s.s.Stream(samples) }
func (s *seekSource) Err() error                              { return s.s.Err() }
func (s *seekSource) Format() beep.Format                     { return s.format }
func (s *seekSource) Rewind() error                           { return s.s.Seek(0) }
func (s *seekSource) Close() error                            { return s.s.Close() }

// resampled conforms a source to a different sample rate.
type resampled struct {
	src     Source
	quality int
	to      beep.SampleRate
	r       *beep.Resampler
}

func conform(src Source, to beep.SampleRate, quality int) Source {
	if src.Format().SampleRate == to {
		return src
	}
	r := &resampled{src: src, quality: quality, to: to}
	r.reset()
	return r
}

func (r *resampled) reset() {
	r.r = beep.Resample(r.quality, r.src.Format().SampleRate, r.to, r.src)
}

func (r *resampled) Stream(samples [][2]float64) (int, bool) { return r.r.Stream(samples) }
func (r *resampled) Err() error                              { return r.r.Err() }
func (r *resampled) Close() error                            { return r.src.Close() }

func (r *resampled) Format() beep.Format {
	f := r.src.Format()
	f.SampleRate = r.to
	return f
}

// Rewind restarts the underlying source and drops the resampler's buffered state.
func (r *resampled) Rewind() error {
	if err := r.src.Rewind(); err != nil {
		return err
	}
	r.reset()
	return nil
}
