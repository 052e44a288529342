package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	General  GeneralConfig          `toml:"general"`
	Audio    AudioConfig            `toml:"audio"`
	Download DownloadConfig         `toml:"download"`
	Database DatabaseConfig         `toml:"database"`
	Logging  LoggingConfig          `toml:"logging"`
	Sounds   map[string]SoundConfig `toml:"sounds"`
}

// GeneralConfig controls which sounds are shown and in what order.
type GeneralConfig struct {
	EnableBundledSounds bool     `toml:"enable_bundled_sounds"`
	BundledCatalog      string   `toml:"bundled_catalog"`
	CategoryOrder       []string `toml:"category_order"`
	HiddenCategories    []string `toml:"hidden_categories"`
}

// AudioConfig contains output device and mixing settings.
type AudioConfig struct {
	SampleRate    int     `toml:"sample_rate"`
	BufferMS      int     `toml:"buffer_ms"`
	FadeSeconds   float64 `toml:"fade_seconds"`
	InitialVolume float64 `toml:"initial_volume"`
}

// DownloadConfig contains settings for the external fetch tool.
type DownloadConfig struct {
	Tool        string   `toml:"tool"`
	AudioFormat string   `toml:"audio_format"`
	SoundsDir   string   `toml:"sounds_dir"`
	Extensions  []string `toml:"extensions"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains the log file sink used while the TUI owns the terminal.
type LoggingConfig struct {
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// SoundConfig holds per-sound overrides.
type SoundConfig struct {
	Hidden bool `toml:"hidden"`
}

// FadeDuration returns the configured fade window.
func (c AudioConfig) FadeDuration() time.Duration {
	if c.FadeSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.FadeSeconds * float64(time.Second))
}

// BufferDuration returns the configured speaker buffer size.
func (c AudioConfig) BufferDuration() time.Duration {
	if c.BufferMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.BufferMS) * time.Millisecond
}

// IsHidden reports whether the sound with the given id is hidden by config.
func (c *Config) IsHidden(id string) bool {
	sc, ok := c.Sounds[id]
	return ok && sc.Hidden
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Resolve fills empty paths with locations under the per-user directories.
func (c *Config) Resolve() error {
	if c.Database.Path == "" || c.Download.SoundsDir == "" || c.Logging.File == "" {
		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		if c.Database.Path == "" {
			c.Database.Path = filepath.Join(dataDir, "tanin.db")
		}
		if c.Download.SoundsDir == "" {
			c.Download.SoundsDir = filepath.Join(dataDir, "sounds")
		}
		if c.Logging.File == "" {
			c.Logging.File = filepath.Join(dataDir, "logs", "tanin.log")
		}
	}
	return nil
}
