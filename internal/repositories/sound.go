package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

// SoundRepository persists sounds that were acquired at runtime.
type SoundRepository struct {
	db *sql.DB
}

// NewSoundRepository creates a new SoundRepository with the given database connection
func NewSoundRepository(db *sql.DB) *SoundRepository {
	return &SoundRepository{db: db}
}

// Upsert inserts the sound or, when a row with the same id exists, updates it in place.
func (r *SoundRepository) Upsert(sound models.Sound) error {
	if sound.ID == "" || strings.TrimSpace(sound.Name) == "" || sound.FilePath == "" {
		return fmt.Errorf("%w: sound requires id, name and file path", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO sounds (id, name, category, file_path, icon, url, volume, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			file_path = excluded.file_path,
			icon = excluded.icon,
			url = excluded.url,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	_, err := r.db.Exec(query, sound.ID, sound.Name, sound.Category, sound.FilePath, sound.Icon, sound.URL, sound.Volume, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert sound: %w", err)
	}
	return nil
}

// Get retrieves a sound by id
func (r *SoundRepository) Get(id string) (models.Sound, error) {
	query := `SELECT id, name, category, file_path, icon, url, volume FROM sounds WHERE id = ?`

	sound, err := scanSound(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sound{}, fmt.Errorf("%w: %s", shared.ErrSoundNotFound, id)
	}
	if err != nil {
		return models.Sound{}, fmt.Errorf("failed to query sound: %w", err)
	}
	return sound, nil
}

// SetVolume stores the intended volume of a custom sound.
func (r *SoundRepository) SetVolume(id string, volume float64) error {
	result, err := r.db.Exec("UPDATE sounds SET volume = ?, updated_at = ? WHERE id = ?", volume, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update sound volume: %w", err)
	}
	return expectRows(result, fmt.Errorf("%w: %s", shared.ErrSoundNotFound, id))
}

// Delete removes a sound by id
func (r *SoundRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sounds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sound: %w", err)
	}
	return expectRows(result, fmt.Errorf("%w: %s", shared.ErrSoundNotFound, id))
}

// List retrieves all sounds matching the given criteria.
//
// Supported criteria: "category" (string).
func (r *SoundRepository) List(criteria map[string]any) ([]models.Sound, error) {
	query := `SELECT id, name, category, file_path, icon, url, volume FROM sounds`
	args := []any{}

	if category, ok := criteria["category"].(string); ok && category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY category ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sounds: %w", err)
	}
	defer rows.Close()

	var sounds []models.Sound
	for rows.Next() {
		sound, err := scanSound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sound: %w", err)
		}
		sounds = append(sounds, sound)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sounds, nil
}

func scanSound(row scanner) (models.Sound, error) {
	var s models.Sound
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.FilePath, &s.Icon, &s.URL, &s.Volume); err != nil {
		return models.Sound{}, err
	}
	s.Custom = true
	return s, nil
}
