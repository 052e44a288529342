package audio

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/desertthunder/tanin/internal/shared"
)

// DefaultFadeDuration applies to both fade-in on start and fade-out on stop.
const DefaultFadeDuration = 2 * time.Second

// Output is the live device the engine mixes into.
//
// Play must add s to a running mix and return immediately. Lock and Unlock guard
// every mutation of a streamer that is already playing.
type Output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

// EngineOpts configures an [Engine]. A nil Output puts the engine in disabled mode.
type EngineOpts struct {
	Output       Output
	Decoder      Decoder
	Logger       *log.Logger
	FadeDuration time.Duration
	SampleRate   beep.SampleRate
}

// handle is the runtime state of one audible track.
//
// The chain is ctrl → gain → fadeIn → loop → source. Clearing ctrl.Streamer makes the
// mixer drop the whole chain on its next pass.
type handle struct {
	id     string
	ctrl   *beep.Ctrl
	gain   *effects.Gain
	loop   *loop
	src    Source
	volume float64
}

type fade struct {
	h       *handle
	start   float64
	elapsed time.Duration
}

// Engine mixes looping tracks with per-track and master volume.
type Engine struct {
	out     Output
	decoder Decoder
	logger  *log.Logger
	fadeDur time.Duration
	rate    beep.SampleRate

	playing  map[string]*handle
	fading   []*fade
	volumes  map[string]float64
	master   float64
	failures map[string]error
}

// NewEngine creates an [Engine]. Unset options fall back to a [Selector], a stderr
// logger, [DefaultFadeDuration] and [TargetSampleRate]; master volume starts at 1.
func NewEngine(opts EngineOpts) *Engine {
	e := &Engine{
		out:      opts.Output,
		decoder:  opts.Decoder,
		logger:   opts.Logger,
		fadeDur:  opts.FadeDuration,
		rate:     opts.SampleRate,
		playing:  make(map[string]*handle),
		volumes:  make(map[string]float64),
		master:   1,
		failures: make(map[string]error),
	}
	if e.logger == nil {
		e.logger = shared.NewLogger(nil)
	}
	if e.fadeDur <= 0 {
		e.fadeDur = DefaultFadeDuration
	}
	if e.rate <= 0 {
		e.rate = TargetSampleRate
	}
	if e.decoder == nil {
		// Sources must arrive at the rate the output runs at.
		sel := NewSelector(e.logger)
		sel.SampleRate = e.rate
		e.decoder = sel
	}
	return e
}

// Enabled reports whether the engine has an output device.
func (e *Engine) Enabled() bool {
	return e.out != nil
}

// FadeDuration returns the engine-wide fade window.
func (e *Engine) FadeDuration() time.Duration {
	return e.fadeDur
}

// Start plays id from path at volume, fading in. It is a no-op when id is already
// playing. A fade-out still running for id is cut off first.
func (e *Engine) Start(id, path string, volume float64) error {
	if e.out == nil {
		return ErrDeviceUnavailable
	}
	if _, ok := e.playing[id]; ok {
		return nil
	}

	e.cancelFade(id)

	src, err := e.decoder.Decode(path)
	if err != nil {
		return err
	}

	e.volumes[id] = clamp(volume)
	delete(e.failures, id)

	lp := newLoop(src)
	gain := &effects.Gain{Streamer: &fadeIn{s: lp, length: e.rate.N(e.fadeDur)}}
	h := &handle{
		id:   id,
		ctrl: &beep.Ctrl{Streamer: gain},
		gain: gain,
		loop: lp,
		src:  src,
	}
	h.volume = e.effective(id)
	gain.Gain = h.volume - 1

	e.out.Play(h.ctrl)
	e.playing[id] = h

	e.logger.Debug("track started", "id", id, "path", path, "volume", h.volume)
	return nil
}

// Stop begins fading id out from its current effective volume.
func (e *Engine) Stop(id string) {
	h, ok := e.playing[id]
	if !ok {
		return
	}
	delete(e.playing, id)
	e.fading = append(e.fading, &fade{h: h, start: h.volume})
	e.logger.Debug("track fading out", "id", id, "from", h.volume)
}

// StopAll tears down every playing and fading track without a fade.
func (e *Engine) StopAll() {
	if e.out == nil {
		return
	}

	e.out.Lock()
	for id, h := range e.playing {
		h.detach()
		delete(e.volumes, id)
	}
	for _, f := range e.fading {
		f.h.detach()
		delete(e.volumes, f.h.id)
	}
	e.out.Unlock()

	for _, h := range e.playing {
		h.close(e.logger)
	}
	for _, f := range e.fading {
		f.h.close(e.logger)
	}
	clear(e.playing)
	e.fading = nil
}

// SetTrackVolume records the intended volume for id and applies it when id is playing.
// A track that is fading out keeps following its fade curve.
func (e *Engine) SetTrackVolume(id string, volume float64) {
	e.volumes[id] = clamp(volume)
	if h, ok := e.playing[id]; ok {
		e.lock()
		e.apply(h)
		e.unlock()
	}
}

// SetMasterVolume updates the master volume and re-applies every playing track.
func (e *Engine) SetMasterVolume(volume float64) {
	e.master = clamp(volume)
	e.lock()
	for _, h := range e.playing {
		e.apply(h)
	}
	e.unlock()
}

// Tick advances fade-outs by elapsed and removes the ones that finished. It also
// tears down playing tracks whose stream failed; see [Engine.Failures].
func (e *Engine) Tick(elapsed time.Duration) {
	if e.out == nil {
		return
	}

	var done []*handle

	e.out.Lock()
	kept := e.fading[:0]
	for _, f := range e.fading {
		f.elapsed += elapsed
		if f.elapsed >= e.fadeDur {
			f.h.setVolume(0)
			f.h.detach()
			done = append(done, f.h)
			continue
		}
		f.h.setVolume(f.start * (1 - f.elapsed.Seconds()/e.fadeDur.Seconds()))
		kept = append(kept, f)
	}
	clear(e.fading[len(kept):])
	e.fading = kept

	for id, h := range e.playing {
		if !h.loop.ended {
			continue
		}
		err := h.loop.err
		if err == nil {
			err = fmt.Errorf("%w: stream ended", ErrDecodeFailure)
		}
		e.failures[id] = err
		h.detach()
		delete(e.playing, id)
		done = append(done, h)
	}
	e.out.Unlock()

	for _, h := range done {
		if _, restarted := e.playing[h.id]; !restarted {
			delete(e.volumes, h.id)
		}
		h.close(e.logger)
	}
}

// Failures returns and clears the tracks whose streams failed since the last call.
func (e *Engine) Failures() map[string]error {
	if len(e.failures) == 0 {
		return nil
	}
	out := maps.Clone(e.failures)
	clear(e.failures)
	return out
}

// IsPlaying reports whether id is playing. Fading tracks are not playing.
func (e *Engine) IsPlaying(id string) bool {
	_, ok := e.playing[id]
	return ok
}

// IsFading reports whether id has a fade-out in progress.
func (e *Engine) IsFading(id string) bool {
	return e.fadeIndex(id) >= 0
}

// Playing returns the ids of all playing tracks, sorted.
func (e *Engine) Playing() []string {
	return slices.Sorted(maps.Keys(e.playing))
}

// EffectiveVolume returns the volume currently applied to id's output.
func (e *Engine) EffectiveVolume(id string) (float64, bool) {
	if h, ok := e.playing[id]; ok {
		return h.volume, true
	}
	if i := e.fadeIndex(id); i >= 0 {
		return e.fading[i].h.volume, true
	}
	return 0, false
}

// TrackVolume returns the intended volume stored for id.
func (e *Engine) TrackVolume(id string) (float64, bool) {
	v, ok := e.volumes[id]
	return v, ok
}

// MasterVolume returns the master volume.
func (e *Engine) MasterVolume() float64 {
	return e.master
}

// Close stops everything and closes the output when it supports it.
func (e *Engine) Close() error {
	e.StopAll()
	if c, ok := e.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *Engine) effective(id string) float64 {
	return clamp(e.volumes[id] * e.master)
}

// apply must run under the output lock.
func (e *Engine) apply(h *handle) {
	h.setVolume(e.effective(h.id))
}

func (e *Engine) cancelFade(id string) {
	i := e.fadeIndex(id)
	if i < 0 {
		return
	}
	h := e.fading[i].h

	e.out.Lock()
	h.detach()
	e.out.Unlock()

	h.close(e.logger)
	e.fading = slices.Delete(e.fading, i, i+1)
	e.logger.Debug("fade cancelled by restart", "id", id)
}

func (e *Engine) fadeIndex(id string) int {
	return slices.IndexFunc(e.fading, func(f *fade) bool { return f.h.id == id })
}

func (e *Engine) lock() {
	if e.out != nil {
		e.out.Lock()
	}
}

func (e *Engine) unlock() {
	if e.out != nil {
		e.out.Unlock()
	}
}

func (h *handle) setVolume(v float64) {
	h.volume = v
	h.gain.Gain = v - 1
}

// detach must run under the output lock.
func (h *handle) detach() {
	h.ctrl.Streamer = nil
}

func (h *handle) close(logger *log.Logger) {
	if err := h.src.Close(); err != nil {
		logger.Warn("failed to close source", "id", h.id, "error", err)
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
