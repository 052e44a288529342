package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

var (
	_ list.Item = presetItem{}
)

// presetItem wraps [models.Preset] to implement [list.Item].
type presetItem struct {
	preset *models.Preset
}

func (i presetItem) FilterValue() string { return i.preset.Name() }
func (i presetItem) Title() string       { return i.preset.Name() }
func (i presetItem) Description() string {
	ids := i.preset.SoundIDs()
	if len(ids) == 0 {
		return "empty"
	}
	names := make([]string, len(ids))
	for n, id := range ids {
		names[n] = shared.DisplayName(id)
	}
	return fmt.Sprintf("%d sounds • %s", len(ids), strings.Join(names, ", "))
}

const barWidth = 10

// volumeBar renders v in [0,1] as a fixed-width bar.
func volumeBar(v float64) string {
	filled := int(v*barWidth + 0.5)
	filled = min(max(filled, 0), barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
