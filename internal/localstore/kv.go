package localstore

import (
	"database/sql"
	"time"
)

// Well-known kv keys.
const (
	KeyCart       = "cart"
	KeyAuthTokens = "auth.tokens"
	KeyUser       = "auth.user"
)

// PutKV inserts or replaces a keyed blob.
func (db *DB) PutKV(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// GetKV returns the blob stored under key. The bool reports whether the key exists.
func (db *DB) GetKV(key string) (string, bool, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// DeleteKV removes a keyed blob. Deleting a missing key is not an error.
func (db *DB) DeleteKV(key string) error {
	_, err := db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
