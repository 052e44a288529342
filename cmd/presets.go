package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tanin/internal/formatter"
)

// PresetsList prints every saved preset.
func (r *Runner) PresetsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.openStorage(); err != nil {
		return err
	}
	defer r.close()

	presets, err := r.presets.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list presets: %w", err)
	}

	data, err := formatter.Presets(presets, format)
	if err != nil {
		return fmt.Errorf("failed to format presets: %w", err)
	}
	return r.export(data, cmd.String("output"), fmt.Sprintf("%d presets", len(presets)))
}

// PresetsDelete removes the preset with the given name.
func (r *Runner) PresetsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStorage(); err != nil {
		return err
	}
	defer r.close()

	name := cmd.String("name")
	preset, err := r.presets.GetByName(name)
	if err != nil {
		return err
	}
	if err := r.presets.Delete(preset.ID()); err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}

	r.writePlain("✓ Deleted %s\n", name)
	return nil
}
