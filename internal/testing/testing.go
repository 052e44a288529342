// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FakeOutput records streamers handed to it instead of sending them to a device.
//
// Pull drives the mix by hand the way a device callback would.
type FakeOutput struct {
	mu        sync.Mutex
	streamers []beep.Streamer
	played    int
}

func (o *FakeOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streamers = append(o.streamers, s)
	o.played++
}

func (o *FakeOutput) Lock() {
	o.mu.Lock()
}

func (o *FakeOutput) Unlock() {
	o.mu.Unlock()
}

// Played returns the number of streamers ever handed to Play.
func (o *FakeOutput) Played() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.played
}

// Active returns the number of streamers that have not finished.
func (o *FakeOutput) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streamers)
}

// Pull mixes n samples from every live streamer, dropping the ones that finish.
func (o *FakeOutput) Pull(n int) [][2]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	mix := make([][2]float64, n)
	buf := make([][2]float64, n)
	kept := o.streamers[:0]
	for _, s := range o.streamers {
		m, ok := s.Stream(buf)
		for i := 0; i < m; i++ {
			mix[i][0] += buf[i][0]
			mix[i][1] += buf[i][1]
		}
		if ok {
			kept = append(kept, s)
		}
	}
	o.streamers = kept
	return mix
}

// WriteToneWAV writes a 16-bit stereo sine tone and returns its path.
func WriteToneWAV(t *testing.T, path string, sampleRate, frames int) string {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, 0, frames*2),
	}
	for i := range frames {
		v := int(math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)) * 12000)
		buf.Data = append(buf.Data, v, v)
	}

	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize wav: %v", err)
	}
	return path
}

// WriteFile writes content to path and returns path.
func WriteFile(t *testing.T, path string, content []byte) string {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
