// package formatter renders the sound catalog and presets in various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat accepts a format name, case-insensitively. "md" is short for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv, markdown or json)", shared.ErrInvalidFlag, s)
	}
}

// Sounds renders sounds in format f.
func Sounds(sounds []*models.Sound, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return SoundsToCSV(sounds)
	case Markdown:
		return SoundsToMarkdown(sounds)
	case JSON:
		return shared.MarshalJSON(sounds, true)
	default:
		return SoundsToText(sounds)
	}
}

// Presets renders presets in format f.
func Presets(presets []*models.Preset, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return PresetsToCSV(presets)
	case Markdown:
		return PresetsToMarkdown(presets)
	case JSON:
		out := make([]presetJSON, len(presets))
		for i, p := range presets {
			out[i] = toPresetJSON(p)
		}
		return shared.MarshalJSON(out, true)
	default:
		return PresetsToText(presets)
	}
}

// SoundsToCSV converts sounds to CSV with columns: ID, Name, Category, Volume, Icon, Path, URL, Custom
func SoundsToCSV(sounds []*models.Sound) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Category", "Volume", "Icon", "Path", "URL", "Custom"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range sounds {
		record := []string{
			s.ID,
			s.Name,
			s.Category,
			strconv.FormatFloat(s.Volume, 'f', 2, 64),
			s.Icon,
			s.FilePath,
			s.URL,
			strconv.FormatBool(s.Custom),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SoundsToMarkdown renders sounds as one section per category, in the given order.
func SoundsToMarkdown(sounds []*models.Sound) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Sounds\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n", len(sounds)))

	category := ""
	for i, s := range sounds {
		if i == 0 || s.Category != category {
			category = s.Category
			buf.WriteString(fmt.Sprintf("\n## %s\n\n", category))
		}
		source := ""
		if s.URL != "" {
			source = fmt.Sprintf(" ([source](%s))", s.URL)
		}
		buf.WriteString(fmt.Sprintf("- %s %s `%s` [%s]%s\n", s.Icon, s.Name, s.ID, percent(s.Volume), source))
	}

	return buf.Bytes(), nil
}

// SoundsToText renders sounds as plain text grouped by category.
func SoundsToText(sounds []*models.Sound) ([]byte, error) {
	var buf bytes.Buffer

	category := ""
	for i, s := range sounds {
		if i == 0 || s.Category != category {
			if i > 0 {
				buf.WriteString("\n")
			}
			category = s.Category
			buf.WriteString(fmt.Sprintf("%s:\n", category))
		}
		buf.WriteString(fmt.Sprintf("  %s %-24s %-20s %s\n", s.Icon, s.Name, s.ID, percent(s.Volume)))
	}
	buf.WriteString(fmt.Sprintf("\nSounds: %d\n", len(sounds)))

	return buf.Bytes(), nil
}

// PresetsToCSV converts presets to CSV with one row per preset sound: Preset, Sound, Volume
func PresetsToCSV(presets []*models.Preset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Preset", "Sound", "Volume"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range presets {
		sounds := p.Sounds()
		for _, id := range p.SoundIDs() {
			record := []string{p.Name(), id, strconv.FormatFloat(sounds[id], 'f', 2, 64)}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PresetsToMarkdown renders one section per preset.
func PresetsToMarkdown(presets []*models.Preset) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Presets\n")
	for _, p := range presets {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", p.Name()))
		buf.WriteString(fmt.Sprintf("**Updated**: %s\n\n", p.UpdatedAt().Format(time.DateTime)))
		sounds := p.Sounds()
		for _, id := range p.SoundIDs() {
			buf.WriteString(fmt.Sprintf("- %s [%s]\n", shared.DisplayName(id), percent(sounds[id])))
		}
	}

	return buf.Bytes(), nil
}

// PresetsToText renders presets as plain text.
func PresetsToText(presets []*models.Preset) ([]byte, error) {
	var buf bytes.Buffer

	for i, p := range presets {
		buf.WriteString(fmt.Sprintf("%d. %s (%d sounds)\n", i+1, p.Name(), len(p.SoundIDs())))
		sounds := p.Sounds()
		for _, id := range p.SoundIDs() {
			buf.WriteString(fmt.Sprintf("   - %s %s\n", id, percent(sounds[id])))
		}
	}
	buf.WriteString(fmt.Sprintf("Presets: %d\n", len(presets)))

	return buf.Bytes(), nil
}

// WriteExport writes data to path, creating parent directories.
func WriteExport(data []byte, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

type presetJSON struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Sounds    map[string]float64 `json:"sounds"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toPresetJSON(p *models.Preset) presetJSON {
	return presetJSON{
		ID:        p.ID(),
		Name:      p.Name(),
		Sounds:    p.Sounds(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
