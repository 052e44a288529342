// package models defines the data model for the ambient sound mixer
package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	DefaultVolume = 0.5
	DefaultIcon   = "🎵"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Sound describes one track in the catalog.
//
// The playback engine only ever sees ID, FilePath and Volume.
type Sound struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	FilePath string  `json:"file_path"`
	Volume   float64 `json:"volume"`
	Icon     string  `json:"icon"`
	URL      string  `json:"url,omitempty"`
	Custom   bool    `json:"custom"`

	// Errored is set when the last start attempt failed. It is never persisted.
	Errored bool `json:"-"`
}

// Matches reports whether query appears in the name or category, ignoring case.
func (s Sound) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.Category), q)
}

// SoundState is the persisted play state of a single sound.
type SoundState struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
}

// Session is the mixer state restored on startup.
type Session struct {
	MasterVolume float64               `json:"global_volume"`
	Sounds       map[string]SoundState `json:"sounds"`
}

// NewSession returns an empty session at the default master volume.
func NewSession() *Session {
	return &Session{MasterVolume: DefaultVolume, Sounds: make(map[string]SoundState)}
}

// Preset is a named collection of sound volumes.
type Preset struct {
	id        string
	name      string
	sounds    map[string]float64
	createdAt time.Time
	updatedAt time.Time
}

// NewPreset creates a [Preset] with a copy of sounds.
func NewPreset(name string, sounds map[string]float64) *Preset {
	now := time.Now()
	p := &Preset{name: name, createdAt: now, updatedAt: now}
	p.SetSounds(sounds)
	return p
}

func (p *Preset) ID() string {
	return p.id
}

func (p *Preset) Name() string {
	return p.name
}

func (p *Preset) Sounds() map[string]float64 {
	return maps.Clone(p.sounds)
}

func (p *Preset) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Preset) UpdatedAt() time.Time {
	return p.updatedAt
}

func (p *Preset) SetID(id string) {
	p.id = id
}

func (p *Preset) SetName(name string) {
	p.name = name
}

func (p *Preset) SetCreatedAt(t time.Time) {
	p.createdAt = t
}

func (p *Preset) SetUpdatedAt(t time.Time) {
	p.updatedAt = t
}

func (p *Preset) SetSound(id string, v float64) {
	p.sounds[id] = v
}

// SetSounds replaces the preset contents with a copy of sounds.
func (p *Preset) SetSounds(sounds map[string]float64) {
	p.sounds = make(map[string]float64, len(sounds))
	maps.Copy(p.sounds, sounds)
}

// SoundIDs returns the preset's sound ids in sorted order.
func (p *Preset) SoundIDs() []string {
	return slices.Sorted(maps.Keys(p.sounds))
}

// Validate checks the preset's name and volumes.
func (p *Preset) Validate() error {
	if strings.TrimSpace(p.name) == "" {
		return fmt.Errorf("preset name is required")
	}
	for id, v := range p.sounds {
		if v < 0 || v > 1 {
			return fmt.Errorf("volume for %s out of range: %v", id, v)
		}
	}
	return nil
}
