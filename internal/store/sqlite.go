package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Sqlite struct {
	db *sql.DB
}

func NewSqlite(path string) (*Sqlite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	query := `
		CREATE TABLE IF NOT EXISTS kv(
			key TEXT PRIMARY KEY,
			value BLOB
		);
	`
	if _, err = db.Exec(query); err != nil {
		return nil, err
	}

	return &Sqlite{db: db}, nil
}

func (s *Sqlite) Get(key string) ([]byte, error) {
	var value []byte
	query := `SELECT value FROM kv WHERE key = ?`
	err := s.db.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Sqlite) Set(key string, value []byte) error {
	maxRetries := 5
	backoff := 100 * time.Millisecond

	query := `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`

	// sqlite returns busy errors under concurrent writers, retry with backoff
	for i := 0; i < maxRetries; i++ {
		_, err := s.db.Exec(query, key, value)
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return fmt.Errorf("failed to write %q after %d retries", key, maxRetries)
}

func (s *Sqlite) Delete(key string) error {
	query := `DELETE FROM kv WHERE key = ?`
	_, err := s.db.Exec(query, key)
	return err
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}
