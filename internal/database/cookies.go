package database

import (
	"fmt"
	"net/http"
)

// LoadCookies returns the cookies stored for an API host.
func (db *DB) LoadCookies(host string) ([]*http.Cookie, error) {
	rows, err := db.conn.Query(
		"SELECT name, value FROM cookies WHERE host = ? ORDER BY name", host,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// SaveCookies replaces the stored cookie set for a host. An empty set
// clears the host, which is how a server-side logout is persisted.
func (db *DB) SaveCookies(host string, cookies []*http.Cookie) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin cookie save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cookies WHERE host = ?", host); err != nil {
		return err
	}
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO cookies (host, name, value) VALUES (?, ?, ?)",
			host, c.Name, c.Value,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearCookies removes every cookie stored for a host.
func (db *DB) ClearCookies(host string) error {
	_, err := db.conn.Exec("DELETE FROM cookies WHERE host = ?", host)
	return err
}
