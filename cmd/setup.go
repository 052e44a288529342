package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tanin/internal/shared"
)

type setupSummary struct {
	Config    string `json:"config"`
	Database  string `json:"database"`
	SoundsDir string `json:"sounds_dir"`
}

// Setup writes the default config file when absent, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		if err := r.loadConfig(r.configPath); err != nil {
			return err
		}
	} else {
		r.logger.Info("using existing config", "path", r.configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.openStorage(); err != nil {
		return err
	}
	defer r.close()

	if err := os.MkdirAll(r.config.Download.SoundsDir, 0755); err != nil {
		return fmt.Errorf("failed to create sounds directory: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	if cmd.Bool("json") {
		return r.writeJSON(setupSummary{
			Config:    r.configPath,
			Database:  r.config.Database.Path,
			SoundsDir: r.config.Download.SoundsDir,
		}, true)
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Config:   %s\n", r.configPath)
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Sounds:   %s\n", r.config.Download.SoundsDir)
	return nil
}
