package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tanin/internal/catalog"
	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/repositories"
	"github.com/desertthunder/tanin/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer

	db       *sql.DB
	sounds   *repositories.SoundRepository
	presets  *repositories.PresetRepository
	sessions *repositories.SessionRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, soundsCommand, presetsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file, falling back to defaults when it does not exist,
// and resolves every empty path.
func (r *Runner) loadConfig(path string) error {
	if path == "" {
		p, err := shared.ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	r.configPath = path

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		config = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat config: %w", err)
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.Resolve(); err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	r.config = config
	return nil
}

// openStorage opens the database and builds the repositories once.
func (r *Runner) openStorage() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	r.db = db
	r.sounds = repositories.NewSoundRepository(db)
	r.presets = repositories.NewPresetRepository(db)
	r.sessions = repositories.NewSessionRepository(db)
	return nil
}

func (r *Runner) close() {
	if r.db == nil {
		return
	}
	if err := r.db.Close(); err != nil {
		r.logger.Warn("failed to close database", "error", err)
	}
	r.db = nil
}

// loadCatalog merges the bundled catalog with every sound stored in the database.
func (r *Runner) loadCatalog() (*catalog.Catalog, error) {
	if err := r.openStorage(); err != nil {
		return nil, err
	}

	var bundled []models.Sound
	if r.config.General.EnableBundledSounds && r.config.General.BundledCatalog != "" {
		loaded, err := catalog.LoadBundled(r.config.General.BundledCatalog)
		switch {
		case errors.Is(err, os.ErrNotExist):
			r.logger.Warn("bundled catalog not found", "path", r.config.General.BundledCatalog)
		case err != nil:
			return nil, err
		default:
			bundled = loaded
		}
	}

	hidden := make(map[string]bool)
	for id, sc := range r.config.Sounds {
		if sc.Hidden {
			hidden[id] = true
		}
	}

	return catalog.New(bundled, r.sounds, catalog.Options{
		CategoryOrder:    r.config.General.CategoryOrder,
		HiddenCategories: r.config.General.HiddenCategories,
		HiddenSounds:     hidden,
		Logger:           shared.WithLogger(r.logger, "component", "catalog"),
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
