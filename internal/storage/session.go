package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SessionStore is a small JSON key/value table for editor session state.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Get decodes the value stored under key into dst. It reports false when
// the key is absent.
func (s *SessionStore) Get(key string, dst any) (bool, error) {
	var raw string
	err := s.db.Conn().QueryRow(`SELECT value_json FROM session_kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get session %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode session %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SessionStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO session_kv (key, value_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at`,
		key, string(raw), timestamp(),
	)
	if err != nil {
		return fmt.Errorf("set session %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SessionStore) Delete(key string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM session_kv WHERE key = ?`, key)
	return err
}
