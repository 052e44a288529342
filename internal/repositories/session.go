package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/tanin/internal/models"
)

const masterVolumeKey = "global_volume"

// SessionRepository stores the mixer state between runs.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the saved session, or nil when nothing was saved yet.
func (r *SessionRepository) Load() (*models.Session, error) {
	session := models.NewSession()
	found := false

	var raw string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", masterVolumeKey).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to query master volume: %w", err)
	default:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse master volume %q: %w", raw, err)
		}
		session.MasterVolume = v
		found = true
	}

	rows, err := r.db.Query("SELECT sound_id, enabled, volume FROM session_sounds")
	if err != nil {
		return nil, fmt.Errorf("failed to query session sounds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			state models.SoundState
		)
		if err := rows.Scan(&id, &state.Enabled, &state.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan session sound: %w", err)
		}
		session.Sounds[id] = state
		found = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if !found {
		return nil, nil
	}
	return session, nil
}

// Save replaces the stored session with s.
func (r *SessionRepository) Save(s *models.Session) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			masterVolumeKey, strconv.FormatFloat(s.MasterVolume, 'f', -1, 64),
		)
		if err != nil {
			return fmt.Errorf("failed to save master volume: %w", err)
		}

		if _, err := tx.Exec("DELETE FROM session_sounds"); err != nil {
			return fmt.Errorf("failed to clear session sounds: %w", err)
		}

		for id, state := range s.Sounds {
			query := "INSERT INTO session_sounds (sound_id, enabled, volume) VALUES (?, ?, ?)"
			if _, err := tx.Exec(query, id, state.Enabled, state.Volume); err != nil {
				return fmt.Errorf("failed to save session sound %s: %w", id, err)
			}
		}
		return nil
	})
}
