package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("not found")

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// PutRecord stores value under key, replacing any previous value.
func PutRecord(db DBExecutor, key string, value []byte) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("key must be non-empty")
	}
	if value == nil {
		value = []byte{}
	}
	_, err := db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		trimmed, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", trimmed, err)
	}
	return nil
}

// GetRecord returns the record stored under key or ErrNotFound.
func GetRecord(db DBExecutor, key string) (Record, error) {
	r := Record{Key: strings.TrimSpace(key)}
	err := db.QueryRow(`SELECT value, updated_at FROM kv WHERE key = ?`, r.Key).Scan(&r.Value, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", r.Key, err)
	}
	return r, nil
}

// DeleteRecord removes key. Deleting a missing key is not an error.
func DeleteRecord(db DBExecutor, key string) error {
	_, err := db.Exec(`DELETE FROM kv WHERE key = ?`, strings.TrimSpace(key))
	return err
}

// RecordExport logs a written CSV file and returns its id.
func RecordExport(db DBExecutor, path string, wordCount int, source string) (int64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("path must be non-empty")
	}
	if wordCount < 0 {
		return 0, fmt.Errorf("wordCount must not be negative, got %d", wordCount)
	}
	res, err := db.Exec(`INSERT INTO exports (path, word_count, source, created_at) VALUES (?, ?, ?, ?)`,
		path, wordCount, source, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentExports returns up to limit exports, newest first.
func RecentExports(db DBExecutor, limit int) ([]Export, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(`SELECT id, path, word_count, source, created_at FROM exports ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.Path, &e.WordCount, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
