package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tanin/internal/audio"
	"github.com/desertthunder/tanin/internal/catalog"
	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

// VolumeStep is the change applied by one volume key press.
const VolumeStep = 0.05

// PresetStore persists presets.
type PresetStore interface {
	Create(p *models.Preset) error
	Update(p *models.Preset) error
	Delete(id string) error
	List(criteria map[string]any) ([]*models.Preset, error)
}

// SessionStore persists the mixer state between runs. Load returns nil when
// nothing was saved yet.
type SessionStore interface {
	Load() (*models.Session, error)
	Save(s *models.Session) error
}

// MixerOpts configures a [Mixer]. Presets and Session may be nil.
type MixerOpts struct {
	Engine        *audio.Engine
	Catalog       *catalog.Catalog
	Presets       PresetStore
	Session       SessionStore
	Logger        *log.Logger
	InitialVolume float64
}

// Mixer applies user intent to the engine and keeps the catalog's volumes and
// error flags in step with it.
type Mixer struct {
	engine  *audio.Engine
	catalog *catalog.Catalog
	presets PresetStore
	session SessionStore
	logger  *log.Logger

	initial float64
	muted   bool
	unmuted float64
}

func NewMixer(opts MixerOpts) *Mixer {
	m := &Mixer{
		engine:  opts.Engine,
		catalog: opts.Catalog,
		presets: opts.Presets,
		session: opts.Session,
		logger:  opts.Logger,
		initial: opts.InitialVolume,
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	if m.initial <= 0 || m.initial > 1 {
		m.initial = models.DefaultVolume
	}
	return m
}

// Enabled reports whether sound can be played at all.
func (m *Mixer) Enabled() bool {
	return m.engine.Enabled()
}

// Start plays s at its stored volume. A failure sets the sound's error flag unless
// audio is disabled altogether.
func (m *Mixer) Start(s *models.Sound) error {
	err := m.engine.Start(s.ID, s.FilePath, s.Volume)
	switch {
	case err == nil:
		s.Errored = false
	case errors.Is(err, audio.ErrDeviceUnavailable):
	default:
		s.Errored = true
		m.logger.Error("failed to start sound", "id", s.ID, "path", s.FilePath, "error", err)
	}
	return err
}

// Toggle starts id when it is silent and fades it out when it is playing.
func (m *Mixer) Toggle(id string) error {
	s, ok := m.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSoundNotFound, id)
	}
	if m.engine.IsPlaying(id) {
		m.engine.Stop(id)
		return nil
	}
	return m.Start(s)
}

// AdjustVolume moves id's volume by delta and returns the new value.
func (m *Mixer) AdjustVolume(id string, delta float64) float64 {
	s, ok := m.catalog.Get(id)
	if !ok {
		return 0
	}
	s.Volume = clamp(s.Volume + delta)
	m.engine.SetTrackVolume(id, s.Volume)
	return s.Volume
}

// MasterVolume returns the master volume the user last chose, even while muted.
func (m *Mixer) MasterVolume() float64 {
	if m.muted {
		return m.unmuted
	}
	return m.engine.MasterVolume()
}

// AdjustMaster moves the master volume by delta. Adjusting while muted unmutes.
func (m *Mixer) AdjustMaster(delta float64) float64 {
	v := clamp(m.MasterVolume() + delta)
	m.muted = false
	m.engine.SetMasterVolume(v)
	return v
}

// Muted reports whether the master is muted.
func (m *Mixer) Muted() bool {
	return m.muted
}

// ToggleMute silences the master volume, or restores the value it had before.
func (m *Mixer) ToggleMute() {
	if m.muted {
		m.muted = false
		m.engine.SetMasterVolume(m.unmuted)
		return
	}
	m.unmuted = m.engine.MasterVolume()
	m.muted = true
	m.engine.SetMasterVolume(0)
}

// StopAll fades out every playing sound.
func (m *Mixer) StopAll() {
	for _, id := range m.engine.Playing() {
		m.engine.Stop(id)
	}
}

// Tick advances the engine and flags sounds whose stream failed.
func (m *Mixer) Tick(dt time.Duration) {
	m.engine.Tick(dt)
	for id, err := range m.engine.Failures() {
		m.logger.Error("sound stopped unexpectedly", "id", id, "error", err)
		if s, ok := m.catalog.Get(id); ok {
			s.Errored = true
		}
	}
}

// Presets lists saved presets by name.
func (m *Mixer) Presets() ([]*models.Preset, error) {
	if m.presets == nil {
		return nil, nil
	}
	return m.presets.List(nil)
}

// SavePreset stores the volumes of every playing sound under name.
func (m *Mixer) SavePreset(name string) (*models.Preset, error) {
	if m.presets == nil {
		return nil, fmt.Errorf("%w: presets are unavailable", shared.ErrInvalidInput)
	}
	p := models.NewPreset(strings.TrimSpace(name), m.capture())
	if err := m.presets.Create(p); err != nil {
		return nil, err
	}
	m.logger.Info("preset saved", "name", p.Name(), "sounds", len(p.Sounds()))
	return p, nil
}

// UpdatePreset replaces p's sounds with the current mix.
func (m *Mixer) UpdatePreset(p *models.Preset) error {
	if m.presets == nil {
		return nil
	}
	p.SetSounds(m.capture())
	return m.presets.Update(p)
}

// RenamePreset changes p's name.
func (m *Mixer) RenamePreset(p *models.Preset, name string) error {
	if m.presets == nil {
		return nil
	}
	old := p.Name()
	p.SetName(strings.TrimSpace(name))
	if err := m.presets.Update(p); err != nil {
		p.SetName(old)
		return err
	}
	return nil
}

// DeletePreset removes p.
func (m *Mixer) DeletePreset(p *models.Preset) error {
	if m.presets == nil {
		return nil
	}
	return m.presets.Delete(p.ID())
}

// LoadPreset fades out the current mix and starts every sound in p at its saved
// volume. Sounds that are gone from the catalog are skipped.
func (m *Mixer) LoadPreset(p *models.Preset) error {
	m.StopAll()

	var errs []error
	sounds := p.Sounds()
	for _, id := range p.SoundIDs() {
		s, ok := m.catalog.Get(id)
		if !ok {
			m.logger.Warn("preset references unknown sound", "preset", p.Name(), "id", id)
			continue
		}
		s.Volume = clamp(sounds[id])
		if err := m.Start(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Restore applies the saved session: master volume, per-sound volumes, and the
// sounds that were playing.
func (m *Mixer) Restore() error {
	session := models.NewSession()
	session.MasterVolume = m.initial
	if m.session != nil {
		loaded, err := m.session.Load()
		if err != nil {
			m.engine.SetMasterVolume(m.initial)
			return fmt.Errorf("failed to load session: %w", err)
		}
		if loaded != nil {
			session = loaded
		}
	}

	m.engine.SetMasterVolume(session.MasterVolume)

	var errs []error
	for _, s := range m.catalog.All() {
		state, ok := session.Sounds[s.ID]
		if !ok {
			continue
		}
		s.Volume = clamp(state.Volume)
		if !state.Enabled {
			continue
		}
		if err := m.Start(s); err != nil && !errors.Is(err, audio.ErrDeviceUnavailable) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Persist saves the current session.
func (m *Mixer) Persist() error {
	if m.session == nil {
		return nil
	}
	session := &models.Session{
		MasterVolume: m.MasterVolume(),
		Sounds:       make(map[string]models.SoundState, m.catalog.Len()),
	}
	for _, s := range m.catalog.All() {
		session.Sounds[s.ID] = models.SoundState{Enabled: m.engine.IsPlaying(s.ID), Volume: s.Volume}
	}
	if err := m.session.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (m *Mixer) capture() map[string]float64 {
	sounds := make(map[string]float64)
	for _, id := range m.engine.Playing() {
		if v, ok := m.engine.TrackVolume(id); ok {
			sounds[id] = v
		}
	}
	return sounds
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
