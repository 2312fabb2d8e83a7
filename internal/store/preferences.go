package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/karne/internal/model"
)

const themeKey = "theme"

// ErrInvalidTheme is returned for themes other than light and dark.
var ErrInvalidTheme = errors.New("invalid theme")

// SetPreference upserts a key-value pair in the preferences table.
func (s *Store) SetPreference(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetPreference returns the value for a preference key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetPreference(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetTheme persists the dashboard theme.
func (s *Store) SetTheme(t model.Theme) error {
	if t != model.ThemeLight && t != model.ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	return s.SetPreference(themeKey, string(t))
}

// Theme returns the persisted theme, light when none is stored.
func (s *Store) Theme() (model.Theme, error) {
	v, err := s.GetPreference(themeKey)
	if err != nil {
		return "", err
	}
	if t := model.Theme(v); t == model.ThemeDark {
		return t, nil
	}
	return model.ThemeLight, nil
}
