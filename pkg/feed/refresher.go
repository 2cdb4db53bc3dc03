package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/japaniel/vocabdiff/pkg/cache"
	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// ErrSuperseded is returned by a refresh that a newer refresh replaced.
// It is not a failure; the result is simply discarded.
var ErrSuperseded = errors.New("refresh superseded")

// Refresher fetches the feed into the cache. Starting a refresh cancels any
// refresh still in flight, and only the newest one may write the cache.
type Refresher struct {
	fetcher Fetcher
	cache   cache.Cache
	log     logger.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewRefresher creates a Refresher. A nil logger disables logging.
func NewRefresher(f Fetcher, c cache.Cache, log logger.Logger) *Refresher {
	return &Refresher{fetcher: f, cache: c, log: logger.OrNop(log)}
}

// Refresh fetches the feed and overwrites the cached snapshot.
func (r *Refresher) Refresh(ctx context.Context) ([]vocab.Entry, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.gen++
	gen := r.gen
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	entries, err := r.fetcher.Fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return nil, ErrSuperseded
	}
	r.cancel = nil
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(cache.VocabularyKey, Flatten(entries)); err != nil {
		r.log.Warn("could not cache vocabulary", "err", err)
	}
	r.log.Debug("vocabulary refreshed", "entries", len(entries))
	return entries, nil
}

// Cached returns the entries of the last stored snapshot.
func (r *Refresher) Cached() ([]vocab.Entry, time.Time, error) {
	snap, err := r.cache.Get(cache.VocabularyKey)
	if err != nil {
		return nil, time.Time{}, err
	}
	return ParseEntries(snap.Lines), snap.StoredAt, nil
}
