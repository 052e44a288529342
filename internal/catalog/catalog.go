package catalog

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

// Store persists acquired sounds.
type Store interface {
	Upsert(sound models.Sound) error
	List(criteria map[string]any) ([]models.Sound, error)
}

// Options controls ordering and visibility.
type Options struct {
	CategoryOrder    []string
	HiddenCategories []string
	HiddenSounds     map[string]bool
	Logger           *log.Logger
}

// Catalog is the ordered, in-memory list of every known sound.
//
// It is only touched from the control loop.
type Catalog struct {
	sounds []*models.Sound
	store  Store
	opts   Options
	logger *log.Logger
}

// New creates a catalog seeded with bundled sounds and everything in store.
// A nil store yields a catalog whose additions live in memory only.
func New(bundled []models.Sound, store Store, opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Catalog{store: store, opts: opts, logger: logger}
	for _, s := range bundled {
		c.put(s)
	}

	if store != nil {
		custom, err := store.List(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load custom sounds: %w", err)
		}
		for _, s := range custom {
			c.put(s)
		}
	}

	c.sort()
	return c, nil
}

// put inserts s, replacing any entry with the same id.
func (c *Catalog) put(s models.Sound) {
	sound := s
	if i := c.index(s.ID); i >= 0 {
		c.sounds[i] = &sound
		return
	}
	c.sounds = append(c.sounds, &sound)
}

func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.sounds, func(s *models.Sound) bool { return s.ID == id })
}

// Len returns the number of sounds, hidden ones included.
func (c *Catalog) Len() int {
	return len(c.sounds)
}

// All returns every sound in display order.
func (c *Catalog) All() []*models.Sound {
	return slices.Clone(c.sounds)
}

// Get returns the sound with the given id.
func (c *Catalog) Get(id string) (*models.Sound, bool) {
	if i := c.index(id); i >= 0 {
		return c.sounds[i], true
	}
	return nil, false
}

// IsHidden reports whether s is filtered out by configuration.
func (c *Catalog) IsHidden(s *models.Sound) bool {
	return slices.Contains(c.opts.HiddenCategories, s.Category) || c.opts.HiddenSounds[s.ID]
}

// Visible returns the sounds that are not hidden and whose name or category matches query.
func (c *Catalog) Visible(query string) []*models.Sound {
	var out []*models.Sound
	for _, s := range c.sounds {
		if c.IsHidden(s) || !s.Matches(query) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Missing returns sounds that have a source URL but no file on disk.
func (c *Catalog) Missing() []*models.Sound {
	var out []*models.Sound
	for _, s := range c.sounds {
		if s.URL == "" {
			continue
		}
		if _, err := os.Stat(s.FilePath); os.IsNotExist(err) {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the distinct categories in display order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, s := range c.sounds {
		if !slices.Contains(out, s.Category) {
			out = append(out, s.Category)
		}
	}
	return out
}

// AddOrUpdate records a freshly acquired sound.
//
// The derived id decides identity: an existing entry keeps its volume and has its
// path, category, icon and url replaced, and its error flag cleared.
func (c *Catalog) AddOrUpdate(name, category, path, icon, url string) error {
	name = strings.TrimSpace(name)
	if name == "" || path == "" {
		return fmt.Errorf("%w: name and path are required", shared.ErrInvalidInput)
	}
	if icon == "" {
		icon = models.DefaultIcon
	}

	id := shared.SoundID(name)
	sound := models.Sound{
		ID:       id,
		Name:     name,
		Category: category,
		FilePath: path,
		Volume:   models.DefaultVolume,
		Icon:     icon,
		URL:      url,
		Custom:   true,
	}

	existing, ok := c.Get(id)
	if ok {
		sound.Volume = existing.Volume
	}

	if c.store != nil {
		if err := c.store.Upsert(sound); err != nil {
			return fmt.Errorf("failed to persist sound %s: %w", id, err)
		}
	}

	if ok {
		existing.FilePath = path
		existing.URL = url
		existing.Category = category
		existing.Icon = icon
		existing.Custom = true
		existing.Errored = false
	} else {
		c.sounds = append(c.sounds, &sound)
	}

	c.sort()
	c.logger.Info("catalog updated", "id", id, "category", category, "path", path, "new", !ok)
	return nil
}

// sort orders sounds by configured category order, then category name, then id.
func (c *Catalog) sort() {
	rank := func(category string) int {
		if i := slices.Index(c.opts.CategoryOrder, category); i >= 0 {
			return i
		}
		return len(c.opts.CategoryOrder)
	}

	slices.SortStableFunc(c.sounds, func(a, b *models.Sound) int {
		ra, rb := rank(a.Category), rank(b.Category)
		switch {
		case ra != rb:
			return ra - rb
		case a.Category != b.Category:
			return strings.Compare(a.Category, b.Category)
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
}
