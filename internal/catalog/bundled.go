package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

const defaultBasePath = "assets/sounds"

type bundledEntry struct {
	Name   string   `toml:"name"`
	File   string   `toml:"file"`
	Volume *float64 `toml:"volume"`
	Icon   string   `toml:"icon"`
	URL    string   `toml:"url"`
}

// LoadBundled reads a bundled catalog file.
func LoadBundled(path string) ([]models.Sound, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled catalog: %w", err)
	}
	return ParseBundled(data)
}

// ParseBundled decodes bundled catalog TOML. Relative file paths are joined to base_path.
func ParseBundled(data []byte) ([]models.Sound, error) {
	var root map[string]toml.Primitive
	md, err := toml.Decode(string(data), &root)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse bundled catalog: %v", shared.ErrInvalidConfig, err)
	}

	basePath := defaultBasePath
	if prim, ok := root["base_path"]; ok {
		if err := md.PrimitiveDecode(prim, &basePath); err != nil {
			return nil, fmt.Errorf("%w: base_path: %v", shared.ErrInvalidConfig, err)
		}
		basePath = strings.TrimRight(basePath, "/")
	}

	var sounds []models.Sound
	for category, prim := range root {
		if category == "base_path" {
			continue
		}

		var entries map[string]bundledEntry
		if err := md.PrimitiveDecode(prim, &entries); err != nil {
			return nil, fmt.Errorf("%w: category %q: %v", shared.ErrInvalidConfig, category, err)
		}

		for id, e := range entries {
			sounds = append(sounds, e.sound(id, category, basePath))
		}
	}
	return sounds, nil
}

func (e bundledEntry) sound(id, category, basePath string) models.Sound {
	name := e.Name
	if name == "" {
		name = shared.DisplayName(id)
	}

	file := e.File
	if file == "" {
		file = shared.SoundID(name) + ".ogg"
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(basePath, file)
	}

	s := models.Sound{
		ID:       id,
		Name:     name,
		Category: category,
		FilePath: file,
		Volume:   models.DefaultVolume,
		Icon:     e.Icon,
		URL:      e.URL,
	}
	if e.Volume != nil {
		s.Volume = *e.Volume
	}
	if s.Icon == "" {
		s.Icon = models.DefaultIcon
	}
	return s
}
