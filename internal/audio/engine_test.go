package audio

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"

	th "github.com/desertthunder/tanin/internal/testing"
)

const tolerance = 1e-9

func newTestEngine(t *testing.T) (*Engine, *th.FakeOutput, *fakeDecoder) {
	t.Helper()
	out := &th.FakeOutput{}
	dec := newFakeDecoder()
	e := NewEngine(EngineOpts{Output: out, Decoder: dec, Logger: quietLogger()})
	return e, out, dec
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestEngineStart(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		e, out, _ := newTestEngine(t)

		for range 3 {
			if err := e.Start("rain", "rain.ogg", 0.5); err != nil {
				t.Fatalf("failed to start: %v", err)
			}
		}

		if out.Played() != 1 {
			t.Errorf("expected one streamer on the output, got %d", out.Played())
		}
		if !e.IsPlaying("rain") {
			t.Error("expected rain to be playing")
		}
	})

	t.Run("restart during fade cancels fade", func(t *testing.T) {
		e, out, dec := newTestEngine(t)

		if err := e.Start("rain", "rain.ogg", 0.5); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		e.Stop("rain")
		e.Tick(500 * time.Millisecond)

		if !e.IsFading("rain") || e.IsPlaying("rain") {
			t.Fatal("expected rain to be fading and not playing")
		}

		first := dec.last("rain.ogg")
		if err := e.Start("rain", "rain.ogg", 0.5); err != nil {
			t.Fatalf("failed to restart: %v", err)
		}

		if e.IsFading("rain") {
			t.Error("restart should cancel the fade")
		}
		if !e.IsPlaying("rain") {
			t.Error("expected rain to be playing after restart")
		}
		if first.closed != 1 {
			t.Errorf("expected the faded source to be closed once, got %d", first.closed)
		}

		out.Pull(64)
		if out.Active() != 1 {
			t.Errorf("expected exactly one live streamer after restart, got %d", out.Active())
		}
	})

	t.Run("decode failure creates no handle", func(t *testing.T) {
		e, out, dec := newTestEngine(t)
		dec.fail["broken.opus"] = errBadFile

		err := e.Start("broken", "broken.opus", 0.5)
		if !errors.Is(err, ErrDecodeFailure) {
			t.Fatalf("expected ErrDecodeFailure, got %v", err)
		}
		if e.IsPlaying("broken") || e.IsFading("broken") {
			t.Error("failed start must not leave a handle")
		}
		if _, ok := e.TrackVolume("broken"); ok {
			t.Error("failed start must not record a volume")
		}
		if out.Played() != 0 {
			t.Errorf("expected nothing on the output, got %d", out.Played())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		e := NewEngine(EngineOpts{Decoder: newFakeDecoder(), Logger: quietLogger()})

		if e.Enabled() {
			t.Fatal("engine without output should be disabled")
		}
		if err := e.Start("rain", "rain.ogg", 0.5); !errors.Is(err, ErrDeviceUnavailable) {
			t.Errorf("expected ErrDeviceUnavailable, got %v", err)
		}

		e.Stop("rain")
		e.SetMasterVolume(0.3)
		e.SetTrackVolume("rain", 0.2)
		e.Tick(time.Second)
		e.StopAll()

		if e.MasterVolume() != 0.3 {
			t.Errorf("expected master volume to be stored, got %v", e.MasterVolume())
		}
	})

	t.Run("fade in", func(t *testing.T) {
		e, out, _ := newTestEngine(t)
		e.SetMasterVolume(1)

		if err := e.Start("rain", "rain.ogg", 1); err != nil {
			t.Fatalf("failed to start: %v", err)
		}

		mix := out.Pull(1000)
		if mix[0][0] != 0 {
			t.Errorf("expected first sample to be silent, got %v", mix[0][0])
		}
		if !(mix[999][0] > mix[1][0]) {
			t.Errorf("expected gain to rise during fade-in, got %v then %v", mix[1][0], mix[999][0])
		}

		full := e.rate.N(e.FadeDuration())
		out.Pull(full)
		if after := out.Pull(10); !approx(after[0][0], 1) {
			t.Errorf("expected unity gain after fade-in, got %v", after[0][0])
		}
	})
}

func TestEngineVolume(t *testing.T) {
	t.Run("effective is product", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		for _, id := range []string{"rain", "wind", "fire"} {
			if err := e.Start(id, id+".ogg", 0.5); err != nil {
				t.Fatalf("failed to start %s: %v", id, err)
			}
		}

		steps := []struct {
			name string
			do   func()
		}{
			{name: "master down", do: func() { e.SetMasterVolume(0.4) }},
			{name: "rain up", do: func() { e.SetTrackVolume("rain", 0.9) }},
			{name: "wind over range", do: func() { e.SetTrackVolume("wind", 1.7) }},
			{name: "master over range", do: func() { e.SetMasterVolume(3) }},
			{name: "fire negative", do: func() { e.SetTrackVolume("fire", -0.5) }},
			{name: "master half", do: func() { e.SetMasterVolume(0.5) }},
		}

		for _, step := range steps {
			step.do()
			t.Run(step.name, func(t *testing.T) {
				for _, id := range e.Playing() {
					tv, _ := e.TrackVolume(id)
					want := clamp(tv * e.MasterVolume())
					got, ok := e.EffectiveVolume(id)
					if !ok || !approx(got, want) {
						t.Errorf("%s: effective %v, want %v", id, got, want)
					}
					if got < 0 || got > 1 {
						t.Errorf("%s: effective %v outside [0,1]", id, got)
					}
				}
			})
		}
	})

	t.Run("fading ignores volume changes", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		if err := e.Start("rain", "rain.ogg", 0.8); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		e.Stop("rain")
		e.SetTrackVolume("rain", 0.1)
		e.SetMasterVolume(0.2)

		got, _ := e.EffectiveVolume("rain")
		if !approx(got, 0.8) {
			t.Errorf("fading track should keep its fade start volume, got %v", got)
		}
	})

	t.Run("stored without playing", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.SetTrackVolume("rain", 0.3)

		if v, ok := e.TrackVolume("rain"); !ok || v != 0.3 {
			t.Errorf("expected stored volume 0.3, got %v", v)
		}
		if _, ok := e.EffectiveVolume("rain"); ok {
			t.Error("non-playing track should have no effective volume")
		}
	})
}

func TestEngineFade(t *testing.T) {
	t.Run("half way", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		if err := e.Start("rain", "rain.ogg", 0.8); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		e.Stop("rain")
		e.Tick(e.FadeDuration() / 2)

		got, ok := e.EffectiveVolume("rain")
		if !ok || math.Abs(got-0.4) > 1e-6 {
			t.Errorf("expected ≈0.4 half way through fade, got %v", got)
		}
	})

	t.Run("independent of tick rate", func(t *testing.T) {
		coarse, _, _ := newTestEngine(t)
		fine, _, _ := newTestEngine(t)

		for _, e := range []*Engine{coarse, fine} {
			if err := e.Start("rain", "rain.ogg", 1); err != nil {
				t.Fatalf("failed to start: %v", err)
			}
			e.Stop("rain")
		}

		coarse.Tick(600 * time.Millisecond)
		for range 20 {
			fine.Tick(30 * time.Millisecond)
		}

		a, _ := coarse.EffectiveVolume("rain")
		b, _ := fine.EffectiveVolume("rain")
		if math.Abs(a-b) > 1e-6 {
			t.Errorf("fade depends on tick cadence: %v vs %v", a, b)
		}
	})

	t.Run("round trip removes state", func(t *testing.T) {
		e, out, dec := newTestEngine(t)

		if err := e.Start("rain", "rain.ogg", 0.6); err != nil {
			t.Fatalf("failed to start: %v", err)
		}
		e.Stop("rain")
		e.Tick(e.FadeDuration())

		if e.IsPlaying("rain") || e.IsFading("rain") {
			t.Error("expected no handle after the fade completed")
		}
		if _, ok := e.EffectiveVolume("rain"); ok {
			t.Error("expected no effective volume after teardown")
		}
		if _, ok := e.TrackVolume("rain"); ok {
			t.Error("expected track volume to be removed after teardown")
		}
		if dec.last("rain.ogg").closed != 1 {
			t.Error("expected source to be closed after teardown")
		}

		out.Pull(16)
		if out.Active() != 0 {
			t.Errorf("expected output to drop the stream, got %d active", out.Active())
		}
	})

	t.Run("stop unknown is noop", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.Stop("nothing")
		if e.IsFading("nothing") {
			t.Error("stopping an unknown id should not create a fade")
		}
	})
}

func TestEngineStopAll(t *testing.T) {
	e, out, dec := newTestEngine(t)

	for _, id := range []string{"rain", "wind"} {
		if err := e.Start(id, id+".ogg", 0.5); err != nil {
			t.Fatalf("failed to start %s: %v", id, err)
		}
	}
	e.Stop("wind")
	e.StopAll()

	if len(e.Playing()) != 0 || e.IsFading("wind") {
		t.Error("expected no playing or fading tracks after StopAll")
	}
	for _, path := range []string{"rain.ogg", "wind.ogg"} {
		if dec.last(path).closed != 1 {
			t.Errorf("expected %s source to be closed", path)
		}
	}

	out.Pull(16)
	if out.Active() != 0 {
		t.Errorf("expected output to be empty, got %d", out.Active())
	}
}

func TestEngineStreamFault(t *testing.T) {
	e, out, dec := newTestEngine(t)
	dec.panics["bad.ogg"] = true

	if err := e.Start("bad", "bad.ogg", 0.5); err != nil {
		t.Fatalf("start should succeed before streaming: %v", err)
	}
	if err := e.Start("rain", "rain.ogg", 0.5); err != nil {
		t.Fatalf("failed to start rain: %v", err)
	}

	out.Pull(128)
	e.Tick(30 * time.Millisecond)

	if e.IsPlaying("bad") {
		t.Error("faulted track should be torn down")
	}
	if !e.IsPlaying("rain") {
		t.Error("other tracks must keep playing")
	}

	failures := e.Failures()
	if err := failures["bad"]; !errors.Is(err, ErrDecoderFault) || !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("expected decoder fault for bad, got %v", err)
	}
	if e.Failures() != nil {
		t.Error("failures should be cleared after reading")
	}
}

func TestNewEngineSampleRate(t *testing.T) {
	tests := []struct {
		name string
		rate beep.SampleRate
		want beep.SampleRate
	}{
		{name: "default", rate: 0, want: TargetSampleRate},
		{name: "configured", rate: 44100, want: 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(EngineOpts{Output: &th.FakeOutput{}, Logger: quietLogger(), SampleRate: tt.rate})

			sel, ok := e.decoder.(*Selector)
			if !ok {
				t.Fatalf("expected default decoder to be a Selector, got %T", e.decoder)
			}
			if sel.SampleRate != tt.want {
				t.Errorf("expected decoder rate %v, got %v", tt.want, sel.SampleRate)
			}

			path := th.WriteToneWAV(t, filepath.Join(t.TempDir(), "tone.wav"), 48000, 4800)
			src, err := e.decoder.Decode(path)
			if err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			defer src.Close()
			if got := src.Format().SampleRate; got != tt.want {
				t.Errorf("expected source at %v, got %v", tt.want, got)
			}
		})
	}
}
