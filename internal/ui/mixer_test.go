package ui

import (
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/tanin/internal/audio"
	"github.com/desertthunder/tanin/internal/catalog"
	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/repositories"
	"github.com/desertthunder/tanin/internal/shared"
	th "github.com/desertthunder/tanin/internal/testing"
)

type fixture struct {
	mixer   *Mixer
	catalog *catalog.Catalog
	engine  *audio.Engine
	out     *th.FakeOutput
	presets *repositories.PresetRepository
	session *repositories.SessionRepository
}

// newFixture builds a mixer over three sounds: wind and rain decode, broken does not.
func newFixture(t *testing.T, withOutput bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := shared.NewLogger(io.Discard)

	bundled := []models.Sound{
		{ID: "rain", Name: "Rain", Category: "Rain", FilePath: th.WriteToneWAV(t, filepath.Join(dir, "rain.wav"), 48000, 4800), Volume: 0.5, Icon: "🌧"},
		{ID: "wind", Name: "Wind", Category: "Nature", FilePath: th.WriteToneWAV(t, filepath.Join(dir, "wind.wav"), 48000, 4800), Volume: 0.4, Icon: "🍃"},
		{ID: "broken", Name: "Broken", Category: "Nature", FilePath: filepath.Join(dir, "missing.ogg"), Volume: 0.5},
	}

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cat, err := catalog.New(bundled, repositories.NewSoundRepository(db), catalog.Options{
		CategoryOrder: []string{"Nature", "Rain"},
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}

	f := &fixture{
		catalog: cat,
		presets: repositories.NewPresetRepository(db),
		session: repositories.NewSessionRepository(db),
	}
	opts := audio.EngineOpts{Logger: logger, FadeDuration: time.Second}
	if withOutput {
		f.out = &th.FakeOutput{}
		opts.Output = f.out
	}
	f.engine = audio.NewEngine(opts)
	f.mixer = NewMixer(MixerOpts{
		Engine:  f.engine,
		Catalog: cat,
		Presets: f.presets,
		Session: f.session,
		Logger:  logger,
	})
	return f
}

func (f *fixture) sound(t *testing.T, id string) *models.Sound {
	t.Helper()
	s, ok := f.catalog.Get(id)
	if !ok {
		t.Fatalf("sound %s not in catalog", id)
	}
	return s
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMixerToggle(t *testing.T) {
	t.Run("starts then fades out", func(t *testing.T) {
		f := newFixture(t, true)

		if err := f.mixer.Toggle("rain"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.engine.IsPlaying("rain") {
			t.Fatal("expected rain playing")
		}
		if v, _ := f.engine.TrackVolume("rain"); !near(v, 0.5) {
			t.Errorf("expected stored volume 0.5, got %v", v)
		}

		if err := f.mixer.Toggle("rain"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.engine.IsPlaying("rain") || !f.engine.IsFading("rain") {
			t.Error("expected rain fading out")
		}

		f.mixer.Tick(2 * time.Second)
		if f.engine.IsFading("rain") {
			t.Error("expected fade to finish")
		}
	})

	t.Run("decode failure sets error flag", func(t *testing.T) {
		f := newFixture(t, true)

		err := f.mixer.Toggle("broken")
		if !errors.Is(err, audio.ErrDecodeFailure) {
			t.Fatalf("expected decode failure, got %v", err)
		}
		if !f.sound(t, "broken").Errored {
			t.Error("expected error flag set")
		}
		if f.engine.IsPlaying("broken") {
			t.Error("expected no handle for a failed start")
		}
	})

	t.Run("disabled audio does not flag sounds", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.mixer.Toggle("rain")
		if !errors.Is(err, audio.ErrDeviceUnavailable) {
			t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
		}
		if f.sound(t, "rain").Errored {
			t.Error("expected no error flag in disabled mode")
		}
	})

	t.Run("unknown sound", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.mixer.Toggle("nope"); !errors.Is(err, shared.ErrSoundNotFound) {
			t.Errorf("expected ErrSoundNotFound, got %v", err)
		}
	})

	t.Run("successful start clears error flag", func(t *testing.T) {
		f := newFixture(t, true)
		f.sound(t, "rain").Errored = true

		if err := f.mixer.Toggle("rain"); err != nil {
			t.Fatal(err)
		}
		if f.sound(t, "rain").Errored {
			t.Error("expected error flag cleared")
		}
	})
}

func TestMixerVolume(t *testing.T) {
	f := newFixture(t, true)
	if err := f.mixer.Toggle("rain"); err != nil {
		t.Fatal(err)
	}

	if v := f.mixer.AdjustVolume("rain", 0.2); !near(v, 0.7) {
		t.Errorf("expected 0.7, got %v", v)
	}
	if v, _ := f.engine.TrackVolume("rain"); !near(v, 0.7) {
		t.Errorf("expected engine volume 0.7, got %v", v)
	}
	if v := f.mixer.AdjustVolume("rain", 5); v != 1 {
		t.Errorf("expected clamp to 1, got %v", v)
	}
	if v := f.mixer.AdjustVolume("rain", -5); v != 0 {
		t.Errorf("expected clamp to 0, got %v", v)
	}

	if v := f.mixer.AdjustVolume("wind", -0.1); !near(v, 0.3) {
		t.Errorf("expected silent sound volume to change, got %v", v)
	}
	if f.engine.IsPlaying("wind") {
		t.Error("adjusting volume must not start a sound")
	}
}

func TestMixerMute(t *testing.T) {
	f := newFixture(t, true)
	f.engine.SetMasterVolume(0.6)

	f.mixer.ToggleMute()
	if !f.mixer.Muted() || f.engine.MasterVolume() != 0 {
		t.Fatalf("expected muted master, got %v", f.engine.MasterVolume())
	}
	if !near(f.mixer.MasterVolume(), 0.6) {
		t.Errorf("expected remembered master 0.6, got %v", f.mixer.MasterVolume())
	}

	f.mixer.ToggleMute()
	if f.mixer.Muted() || !near(f.engine.MasterVolume(), 0.6) {
		t.Errorf("expected master restored to 0.6, got %v", f.engine.MasterVolume())
	}

	f.mixer.ToggleMute()
	if v := f.mixer.AdjustMaster(0.1); !near(v, 0.7) || f.mixer.Muted() {
		t.Errorf("expected adjust to unmute at 0.7, got %v muted=%v", v, f.mixer.Muted())
	}
}

func TestMixerStopAll(t *testing.T) {
	f := newFixture(t, true)
	for _, id := range []string{"rain", "wind"} {
		if err := f.mixer.Toggle(id); err != nil {
			t.Fatal(err)
		}
	}

	f.mixer.StopAll()
	if len(f.engine.Playing()) != 0 {
		t.Errorf("expected nothing playing, got %v", f.engine.Playing())
	}
	if !f.engine.IsFading("rain") || !f.engine.IsFading("wind") {
		t.Error("expected both sounds fading out")
	}
}

func TestMixerPresets(t *testing.T) {
	f := newFixture(t, true)
	for _, id := range []string{"rain", "wind"} {
		if err := f.mixer.Toggle(id); err != nil {
			t.Fatal(err)
		}
	}
	f.mixer.AdjustVolume("rain", 0.3)

	p, err := f.mixer.SavePreset("  Storm  ")
	if err != nil {
		t.Fatalf("failed to save preset: %v", err)
	}
	if p.Name() != "Storm" {
		t.Errorf("expected trimmed name, got %q", p.Name())
	}
	want := map[string]float64{"rain": 0.8, "wind": 0.4}
	for id, v := range want {
		if got := p.Sounds()[id]; !near(got, v) {
			t.Errorf("expected %s at %v, got %v", id, v, got)
		}
	}

	f.mixer.StopAll()
	f.mixer.Tick(2 * time.Second)
	f.sound(t, "rain").Volume = 0.1

	if err := f.mixer.LoadPreset(p); err != nil {
		t.Fatalf("failed to load preset: %v", err)
	}
	if !f.engine.IsPlaying("rain") || !f.engine.IsPlaying("wind") {
		t.Errorf("expected preset sounds playing, got %v", f.engine.Playing())
	}
	if v := f.sound(t, "rain").Volume; !near(v, 0.8) {
		t.Errorf("expected rain volume restored to 0.8, got %v", v)
	}

	f.mixer.Toggle("wind")
	if err := f.mixer.UpdatePreset(p); err != nil {
		t.Fatalf("failed to update preset: %v", err)
	}
	if err := f.mixer.RenamePreset(p, "Drizzle"); err != nil {
		t.Fatalf("failed to rename preset: %v", err)
	}

	stored, err := f.presets.Get(p.ID())
	if err != nil {
		t.Fatalf("failed to reload preset: %v", err)
	}
	if stored.Name() != "Drizzle" {
		t.Errorf("expected renamed preset, got %q", stored.Name())
	}
	if ids := stored.SoundIDs(); len(ids) != 1 || ids[0] != "rain" {
		t.Errorf("expected re-captured sounds [rain], got %v", ids)
	}

	list, err := f.mixer.Presets()
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one preset, got %d (%v)", len(list), err)
	}

	if err := f.mixer.DeletePreset(p); err != nil {
		t.Fatalf("failed to delete preset: %v", err)
	}
	if list, _ := f.mixer.Presets(); len(list) != 0 {
		t.Errorf("expected no presets after delete, got %d", len(list))
	}
}

func TestMixerLoadPresetSkipsUnknownAndReportsFailures(t *testing.T) {
	f := newFixture(t, true)
	p := models.NewPreset("mixed", map[string]float64{"rain": 0.5, "gone": 0.5, "broken": 0.5})

	err := f.mixer.LoadPreset(p)
	if !errors.Is(err, audio.ErrDecodeFailure) {
		t.Errorf("expected the broken sound's failure, got %v", err)
	}
	if !f.engine.IsPlaying("rain") {
		t.Error("expected rain playing despite other failures")
	}
	if !f.sound(t, "broken").Errored {
		t.Error("expected broken flagged")
	}
}

func TestMixerSession(t *testing.T) {
	f := newFixture(t, true)
	if err := f.mixer.Restore(); err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	if !near(f.engine.MasterVolume(), models.DefaultVolume) {
		t.Errorf("expected default master, got %v", f.engine.MasterVolume())
	}

	if err := f.mixer.Toggle("wind"); err != nil {
		t.Fatal(err)
	}
	f.mixer.AdjustVolume("rain", 0.2)
	f.mixer.AdjustMaster(0.2)
	f.mixer.ToggleMute()

	if err := f.mixer.Persist(); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	saved, err := f.session.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !near(saved.MasterVolume, 0.7) {
		t.Errorf("expected unmuted master 0.7 saved, got %v", saved.MasterVolume)
	}
	if !saved.Sounds["wind"].Enabled || saved.Sounds["rain"].Enabled {
		t.Errorf("unexpected enabled flags: %+v", saved.Sounds)
	}
	if !near(saved.Sounds["rain"].Volume, 0.7) {
		t.Errorf("expected rain volume 0.7, got %v", saved.Sounds["rain"].Volume)
	}

	next := newFixture(t, true)
	next.mixer.session = f.session
	if err := next.mixer.Restore(); err != nil {
		t.Fatalf("unexpected restore error: %v", err)
	}
	if !near(next.engine.MasterVolume(), 0.7) {
		t.Errorf("expected master 0.7 restored, got %v", next.engine.MasterVolume())
	}
	if !next.engine.IsPlaying("wind") || next.engine.IsPlaying("rain") {
		t.Errorf("expected only wind restored, got %v", next.engine.Playing())
	}
	if v := next.sound(t, "rain").Volume; !near(v, 0.7) {
		t.Errorf("expected rain volume restored, got %v", v)
	}
}

func TestMixerRestoreInitialVolume(t *testing.T) {
	tests := []struct {
		name    string
		initial float64
		want    float64
	}{
		{name: "configured volume on first run", initial: 0.8, want: 0.8},
		{name: "unset falls back to default", initial: 0, want: models.DefaultVolume},
		{name: "out of range falls back to default", initial: 1.5, want: models.DefaultVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			m := NewMixer(MixerOpts{
				Engine:        f.engine,
				Catalog:       f.catalog,
				Presets:       f.presets,
				Session:       f.session,
				InitialVolume: tt.initial,
				Logger:        shared.NewLogger(io.Discard),
			})

			if err := m.Restore(); err != nil {
				t.Fatalf("unexpected restore error: %v", err)
			}
			if !near(f.engine.MasterVolume(), tt.want) {
				t.Errorf("expected master %v, got %v", tt.want, f.engine.MasterVolume())
			}
			if len(f.engine.Playing()) != 0 {
				t.Errorf("expected nothing playing, got %v", f.engine.Playing())
			}
		})
	}
}

func TestMixerRestoreDisabled(t *testing.T) {
	f := newFixture(t, false)
	if err := f.session.Save(&models.Session{
		MasterVolume: 0.9,
		Sounds:       map[string]models.SoundState{"rain": {Enabled: true, Volume: 0.3}},
	}); err != nil {
		t.Fatal(err)
	}

	if err := f.mixer.Restore(); err != nil {
		t.Errorf("disabled audio should not fail restore, got %v", err)
	}
	if v := f.sound(t, "rain").Volume; !near(v, 0.3) {
		t.Errorf("expected volume restored without audio, got %v", v)
	}
}
