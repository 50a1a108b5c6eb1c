package database

import (
	"database/sql"
	"errors"
)

// Preference returns a stored preference, or "" when unset.
func (db *DB) Preference(key string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetPreference stores a preference, replacing any previous value.
func (db *DB) SetPreference(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		key, value,
	)
	return err
}
