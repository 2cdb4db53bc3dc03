package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabdiff/pkg/db"
)

func implementations(t *testing.T) map[string]Cache {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return map[string]Cache{
		"sqlite": NewSQLite(conn),
		"memory": NewMemory(),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(VocabularyKey)
			require.ErrorIs(t, err, ErrMiss)

			lines := []string{"cat,chat", "dog", "true,oui"}
			require.NoError(t, c.Put(VocabularyKey, lines))

			snap, err := c.Get(VocabularyKey)
			require.NoError(t, err)
			assert.Equal(t, lines, snap.Lines)
			assert.False(t, snap.StoredAt.IsZero())

			require.NoError(t, c.Put(VocabularyKey, []string{"bird"}))
			snap, err = c.Get(VocabularyKey)
			require.NoError(t, err)
			assert.Equal(t, []string{"bird"}, snap.Lines)
		})
	}
}

func TestCacheInvalidate(t *testing.T) {
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Put(VocabularyKey, []string{"cat"}))
			require.NoError(t, c.Invalidate(VocabularyKey))
			_, err := c.Get(VocabularyKey)
			assert.ErrorIs(t, err, ErrMiss)
			assert.NoError(t, c.Invalidate(VocabularyKey))
		})
	}
}

func TestCachePutNilStoresEmpty(t *testing.T) {
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Put(VocabularyKey, nil))
			snap, err := c.Get(VocabularyKey)
			require.NoError(t, err)
			assert.Empty(t, snap.Lines)
		})
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put("k", []string{"a"}))
	snap, err := m.Get("k")
	require.NoError(t, err)
	snap.Lines[0] = "z"
	again, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Lines)
}
