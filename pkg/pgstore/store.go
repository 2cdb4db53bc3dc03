// Package pgstore reads the learner's known words from a Postgres table.
package pgstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// DefaultTTL is how long a loaded word list is reused before querying again.
const DefaultTTL = 30 * time.Second

const selectWords = `SELECT word FROM english_vocabulary`

// DB is the minimal database interface Store depends on (pgxpool or pgxmock).
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store loads known words from english_vocabulary(word TEXT PRIMARY KEY).
// It never writes to the table.
type Store struct {
	db  DB
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	entries  []vocab.Entry
	loadedAt time.Time
}

// NewStore creates a Store. ttl <= 0 uses DefaultTTL.
func NewStore(db DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl, now: time.Now}
}

// Entries returns the known words, querying the table when the last load is
// older than the TTL.
func (s *Store) Entries(ctx context.Context) ([]vocab.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries != nil && s.now().Sub(s.loadedAt) < s.ttl {
		return s.entries, nil
	}

	rows, err := s.db.Query(ctx, selectWords)
	if err != nil {
		return nil, fmt.Errorf("query known words: %w", err)
	}
	defer rows.Close()

	entries := []vocab.Entry{}
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("scan known word: %w", err)
		}
		entries = append(entries, vocab.Entry{Word: word})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read known words: %w", err)
	}
	s.entries = entries
	s.loadedAt = s.now()
	return entries, nil
}

// Invalidate forces the next Entries call to query the table.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

// Connect opens a pool and waits for the database to answer a ping, retrying
// with exponential backoff up to attempts times.
func Connect(ctx context.Context, databaseURL string, attempts int, log logger.Logger) (*pgxpool.Pool, error) {
	log = logger.OrNop(log)
	if attempts <= 0 {
		attempts = 10
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.WithCappedDuration(5*time.Second, retry.NewExponential(250*time.Millisecond)))

	var pool *pgxpool.Pool
	try := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		try++
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("open pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			log.Info("waiting for database", "attempt", try, "of", attempts)
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}
