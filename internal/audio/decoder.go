package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/desertthunder/tanin/internal/shared"
)

// Decoder opens a path as a [Source].
type Decoder interface {
	Decode(path string) (Source, error)
}

// Selector picks a decode strategy from the file extension and contents.
//
// Paths ending in .opus or .webm go to the Ogg Opus decoder first. When it rejects
// the container, or for any other extension, the general decoders sniff the header
// and dispatch to vorbis, mp3, wav or flac. Every error returned wraps [ErrDecodeFailure].
type Selector struct {
	SampleRate beep.SampleRate
	Quality    int
	Logger     *log.Logger

	specialized func(path string) (Source, error)
}

// NewSelector creates a [Selector] that conforms every source to [TargetSampleRate].
func NewSelector(logger *log.Logger) *Selector {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Selector{
		SampleRate:  TargetSampleRate,
		Quality:     4,
		Logger:      logger,
		specialized: openOpus,
	}
}

var specializedExts = map[string]bool{".opus": true, ".webm": true}

// Decode implements [Decoder].
func (s *Selector) Decode(path string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if specializedExts[ext] && s.specialized != nil {
		src, err := guard(func() (Source, error) { return s.specialized(path) })
		if err == nil {
			return conform(src, s.SampleRate, s.Quality), nil
		}

		var structural *structuralError
		if !errors.As(err, &structural) {
			return nil, decodeError(path, err)
		}
		s.Logger.Debug("specialized decoder rejected file, falling back", "path", path, "reason", structural.err)
	}

	src, err := s.general(path)
	if err != nil {
		return nil, decodeError(path, err)
	}
	return conform(src, s.SampleRate, s.Quality), nil
}

func (s *Selector) general(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src, err := guard(func() (Source, error) { return decodeSniffed(f) })
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// guard runs fn and converts a panic into [ErrDecoderFault].
func guard(fn func() (Source, error)) (src Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			src = nil
			err = fmt.Errorf("%w: %v", ErrDecoderFault, r)
		}
	}()
	return fn()
}

type container int

const (
	unknownContainer container = iota
	oggContainer
	mp3Container
	wavContainer
	flacContainer
)

func sniff(header []byte) container {
	switch {
	case bytes.HasPrefix(header, []byte("OggS")):
		return oggContainer
	case bytes.HasPrefix(header, []byte("RIFF")) && len(header) >= 12 && bytes.Equal(header[8:12], []byte("WAVE")):
		return wavContainer
	case bytes.HasPrefix(header, []byte("fLaC")):
		return flacContainer
	case bytes.HasPrefix(header, []byte("ID3")):
		return mp3Container
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return mp3Container
	default:
		return unknownContainer
	}
}

func decodeSniffed(f *os.File) (Source, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
		}
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch sniff(header[:n]) {
	case oggContainer:
		stream, format, err = vorbis.Decode(f)
	case mp3Container:
		stream, format, err = mp3.Decode(f)
	case wavContainer:
		stream, format, err = wav.Decode(f)
	case flacContainer:
		stream, format, err = flac.Decode(f)
	default:
		return nil, fmt.Errorf("%w: unrecognized header % x", ErrUnsupportedFormat, header[:n])
	}
	if err != nil {
		return nil, err
	}
	return &seekSource{s: closeWith(stream, f), format: format}, nil
}

// closeWith makes Close release both the decoder and the file, since wav and flac
// decoders do not own their reader.
func closeWith(s beep.StreamSeekCloser, f *os.File) beep.StreamSeekCloser {
	return &fileStream{StreamSeekCloser: s, f: f}
}

type fileStream struct {
	beep.StreamSeekCloser
	f *os.File
}

func (s *fileStream) Close() error {
	err := s.StreamSeekCloser.Close()
	if ferr := s.f.Close(); ferr != nil && !errors.Is(ferr, os.ErrClosed) && err == nil {
		err = ferr
	}
	return err
}
