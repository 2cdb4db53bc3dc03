package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabdiff/pkg/cache"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[["cat","chat"],[true,"oui"]]`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []vocab.Entry{{Word: "cat", Translation: "chat"}, {Word: "true", Translation: "oui"}}, got)
}

func TestClientFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, 500*time.Millisecond)
	c.http.SetRetryCount(0)
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientFetchCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewClient(srv.URL, 5*time.Second).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// fetcherFunc adapts a function to Fetcher.
type fetcherFunc func(ctx context.Context) ([]vocab.Entry, error)

func (f fetcherFunc) Fetch(ctx context.Context) ([]vocab.Entry, error) { return f(ctx) }

func TestRefresherWritesCache(t *testing.T) {
	c := cache.NewMemory()
	r := NewRefresher(fetcherFunc(func(ctx context.Context) ([]vocab.Entry, error) {
		return []vocab.Entry{{Word: "cat", Translation: "chat"}}, nil
	}), c, nil)

	got, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	snap, err := c.Get(cache.VocabularyKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat,chat"}, snap.Lines)
}

func TestRefresherCancelsSupersededFetch(t *testing.T) {
	c := cache.NewMemory()
	var calls int32
	firstStarted := make(chan struct{})
	firstCanceled := make(chan struct{})

	r := NewRefresher(fetcherFunc(func(ctx context.Context) ([]vocab.Entry, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(firstStarted)
			<-ctx.Done()
			close(firstCanceled)
			// A slow stale response that must never reach the cache.
			return []vocab.Entry{{Word: "stale"}}, nil
		}
		return []vocab.Entry{{Word: "fresh"}}, nil
	}), c, nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = r.Refresh(context.Background())
	}()

	<-firstStarted
	got, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []vocab.Entry{{Word: "fresh"}}, got)

	select {
	case <-firstCanceled:
	case <-time.After(time.Second):
		t.Fatal("superseded fetch was not canceled")
	}
	wg.Wait()
	assert.ErrorIs(t, firstErr, ErrSuperseded)

	snap, err := c.Get(cache.VocabularyKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, snap.Lines)
}

func TestRefresherCachedParsesLines(t *testing.T) {
	c := cache.NewMemory()
	require.NoError(t, c.Put(cache.VocabularyKey, []string{"cat,chat", "dog"}))
	r := NewRefresher(fetcherFunc(func(ctx context.Context) ([]vocab.Entry, error) {
		return nil, ErrUnavailable
	}), c, nil)

	got, storedAt, err := r.Cached()
	require.NoError(t, err)
	assert.False(t, storedAt.IsZero())
	assert.Equal(t, []vocab.Entry{{Word: "cat", Translation: "chat"}, {Word: "dog"}}, got)
}

func TestRefresherCachedMiss(t *testing.T) {
	r := NewRefresher(fetcherFunc(func(ctx context.Context) ([]vocab.Entry, error) {
		return nil, ErrMalformed
	}), cache.NewMemory(), nil)

	_, _, err := r.Cached()
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestRefresherFailureKeepsCache(t *testing.T) {
	c := cache.NewMemory()
	require.NoError(t, c.Put(cache.VocabularyKey, []string{"cat"}))
	r := NewRefresher(fetcherFunc(func(ctx context.Context) ([]vocab.Entry, error) {
		return nil, errors.New("boom")
	}), c, nil)

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	snap, err := c.Get(cache.VocabularyKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, snap.Lines)
}
