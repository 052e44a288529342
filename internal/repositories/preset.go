package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

// PresetRepository implements [models.Repository] for [models.Preset] persistence.
//
// A preset's sounds live in preset_sounds and are replaced wholesale on every write.
type PresetRepository struct {
	db *sql.DB
}

// NewPresetRepository creates a new PresetRepository with the given database connection
func NewPresetRepository(db *sql.DB) *PresetRepository {
	return &PresetRepository{db: db}
}

// Create inserts a new preset with a generated ID
func (r *PresetRepository) Create(preset *models.Preset) error {
	if err := preset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	err := withTx(r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO presets (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`
		if _, err := tx.Exec(query, id, preset.Name(), preset.CreatedAt(), preset.UpdatedAt()); err != nil {
			return fmt.Errorf("failed to insert preset: %w", err)
		}
		return writePresetSounds(tx, id, preset.Sounds())
	})
	if err != nil {
		return err
	}

	preset.SetID(id)
	return nil
}

// Get retrieves a preset by ID
func (r *PresetRepository) Get(id string) (*models.Preset, error) {
	return r.getWhere("id = ?", id)
}

// GetByName retrieves a preset by its unique name
func (r *PresetRepository) GetByName(name string) (*models.Preset, error) {
	return r.getWhere("name = ?", name)
}

func (r *PresetRepository) getWhere(cond string, arg any) (*models.Preset, error) {
	query := `SELECT id, name, created_at, updated_at FROM presets WHERE ` + cond

	preset, err := scanPreset(r.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrPresetNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preset: %w", err)
	}

	sounds, err := r.presetSounds(preset.ID())
	if err != nil {
		return nil, err
	}
	preset.SetSounds(sounds)
	return preset, nil
}

// Update modifies an existing preset's name and sounds
func (r *PresetRepository) Update(preset *models.Preset) error {
	if err := preset.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	err := withTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE presets SET name = ?, updated_at = ? WHERE id = ?", preset.Name(), now, preset.ID())
		if err != nil {
			return fmt.Errorf("failed to update preset: %w", err)
		}
		if err := expectRows(result, fmt.Errorf("%w: %s", shared.ErrPresetNotFound, preset.ID())); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM preset_sounds WHERE preset_id = ?", preset.ID()); err != nil {
			return fmt.Errorf("failed to clear preset sounds: %w", err)
		}
		return writePresetSounds(tx, preset.ID(), preset.Sounds())
	})
	if err != nil {
		return err
	}

	preset.SetUpdatedAt(now)
	return nil
}

// Delete removes a preset and, through the foreign key cascade, its sounds
func (r *PresetRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM presets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return expectRows(result, fmt.Errorf("%w: %s", shared.ErrPresetNotFound, id))
}

// List retrieves all presets ordered by name.
//
// Supported criteria: "name" (string, exact match).
func (r *PresetRepository) List(criteria map[string]any) ([]*models.Preset, error) {
	query := `SELECT id, name, created_at, updated_at FROM presets`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}

	var presets []*models.Preset
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, preset)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, preset := range presets {
		sounds, err := r.presetSounds(preset.ID())
		if err != nil {
			return nil, err
		}
		preset.SetSounds(sounds)
	}
	return presets, nil
}

func (r *PresetRepository) presetSounds(presetID string) (map[string]float64, error) {
	rows, err := r.db.Query("SELECT sound_id, volume FROM preset_sounds WHERE preset_id = ?", presetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preset sounds: %w", err)
	}
	defer rows.Close()

	sounds := make(map[string]float64)
	for rows.Next() {
		var (
			id     string
			volume float64
		)
		if err := rows.Scan(&id, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan preset sound: %w", err)
		}
		sounds[id] = volume
	}
	return sounds, rows.Err()
}

func writePresetSounds(tx *sql.Tx, presetID string, sounds map[string]float64) error {
	for id, volume := range sounds {
		if _, err := tx.Exec("INSERT INTO preset_sounds (preset_id, sound_id, volume) VALUES (?, ?, ?)", presetID, id, volume); err != nil {
			return fmt.Errorf("failed to insert preset sound: %w", err)
		}
	}
	return nil
}

func scanPreset(row scanner) (*models.Preset, error) {
	var (
		id        string
		name      string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	preset := models.NewPreset(name, nil)
	preset.SetID(id)
	preset.SetCreatedAt(createdAt)
	preset.SetUpdatedAt(updatedAt)
	return preset, nil
}
