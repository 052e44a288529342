package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Audio.SampleRate != 48000 {
			t.Errorf("expected sample rate 48000, got %d", config.Audio.SampleRate)
		}

		if config.Audio.FadeDuration() != 2*time.Second {
			t.Errorf("expected fade duration 2s, got %v", config.Audio.FadeDuration())
		}

		if config.Download.Tool != "yt-dlp" {
			t.Errorf("expected download tool yt-dlp, got %s", config.Download.Tool)
		}

		want := []string{"opus", "m4a", "mp3", "wav", "ogg"}
		if len(config.Download.Extensions) != len(want) {
			t.Fatalf("expected %d search extensions, got %v", len(want), config.Download.Extensions)
		}
		for i, ext := range want {
			if config.Download.Extensions[i] != ext {
				t.Errorf("extension %d: expected %s, got %s", i, ext, config.Download.Extensions[i])
			}
		}

		if !config.General.EnableBundledSounds {
			t.Error("expected bundled sounds to be enabled by default")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Audio.InitialVolume != defaultConfig.Audio.InitialVolume {
			t.Errorf("created config initial volume doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[general]
category_order = ["Rain"]
hidden_categories = ["Noise"]

[audio]
fade_seconds = 0.5

[database]
path = "/custom/path.db"

[sounds.thunder]
hidden = true
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Audio.FadeDuration() != 500*time.Millisecond {
			t.Errorf("expected fade 500ms, got %v", config.Audio.FadeDuration())
		}

		if config.Audio.SampleRate != 48000 {
			t.Errorf("unset keys should keep defaults, got sample rate %d", config.Audio.SampleRate)
		}

		if !config.IsHidden("thunder") || config.IsHidden("rain") {
			t.Errorf("unexpected hidden flags: %+v", config.Sounds)
		}

		if len(config.General.HiddenCategories) != 1 || config.General.HiddenCategories[0] != "Noise" {
			t.Errorf("expected hidden categories [Noise], got %v", config.General.HiddenCategories)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[audio\nfade_seconds = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		config := DefaultConfig()
		if err := config.Resolve(); err != nil {
			t.Fatalf("failed to resolve paths: %v", err)
		}

		dataDir, _ := DataDir()
		if config.Database.Path != filepath.Join(dataDir, "tanin.db") {
			t.Errorf("unexpected database path %s", config.Database.Path)
		}
		if config.Download.SoundsDir != filepath.Join(dataDir, "sounds") {
			t.Errorf("unexpected sounds dir %s", config.Download.SoundsDir)
		}
	})
}
