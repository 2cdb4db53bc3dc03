// Package cache persists the last known vocabulary snapshot between runs.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/japaniel/vocabdiff/pkg/db"
)

// VocabularyKey is the fixed key the flattened feed vocabulary is stored under.
const VocabularyKey = "googleWords"

// ErrMiss is returned by Get when nothing is cached under the key.
var ErrMiss = errors.New("cache miss")

// Snapshot is a cached vocabulary list with the time it was stored.
type Snapshot struct {
	Lines    []string
	StoredAt time.Time
}

// Cache stores vocabulary snapshots by key.
type Cache interface {
	Get(key string) (Snapshot, error)
	Put(key string, lines []string) error
	Invalidate(key string) error
}

// SQLite is a Cache backed by the kv table of a sqlite database.
// Values are msgpack-encoded string lists.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite wraps an already migrated connection (see db.Open).
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{conn: conn}
}

// Get implements Cache.
func (c *SQLite) Get(key string) (Snapshot, error) {
	rec, err := db.GetRecord(c.conn, key)
	if errors.Is(err, db.ErrNotFound) {
		return Snapshot{}, ErrMiss
	}
	if err != nil {
		return Snapshot{}, err
	}
	var lines []string
	if err := msgpack.Unmarshal(rec.Value, &lines); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return Snapshot{Lines: lines, StoredAt: rec.UpdatedAt}, nil
}

// Put implements Cache.
func (c *SQLite) Put(key string, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	b, err := msgpack.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return db.PutRecord(c.conn, key, b)
}

// Invalidate implements Cache.
func (c *SQLite) Invalidate(key string) error {
	return db.DeleteRecord(c.conn, key)
}

// Memory is an in-process Cache, used when no cache file is configured and in tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]Snapshot
	now  func() time.Time
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]Snapshot), now: time.Now}
}

// Get implements Cache.
func (m *Memory) Get(key string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[key]
	if !ok {
		return Snapshot{}, ErrMiss
	}
	lines := make([]string, len(s.Lines))
	copy(lines, s.Lines)
	return Snapshot{Lines: lines, StoredAt: s.StoredAt}, nil
}

// Put implements Cache.
func (m *Memory) Put(key string, lines []string) error {
	cp := make([]string, len(lines))
	copy(cp, lines)
	m.mu.Lock()
	m.data[key] = Snapshot{Lines: cp, StoredAt: m.now()}
	m.mu.Unlock()
	return nil
}

// Invalidate implements Cache.
func (m *Memory) Invalidate(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
