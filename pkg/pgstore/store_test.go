package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

func TestStoreEntries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT word FROM english_vocabulary").
		WillReturnRows(pgxmock.NewRows([]string{"word"}).AddRow("Cat").AddRow("dog"))

	s := NewStore(mock, time.Minute)
	got, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []vocab.Entry{{Word: "Cat"}, {Word: "dog"}}, got)
	assert.Equal(t, []string{"cat", "dog"}, vocab.UniqueEntries(got).Words())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreReusesWithinTTL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT word FROM english_vocabulary").
		WillReturnRows(pgxmock.NewRows([]string{"word"}).AddRow("cat"))
	mock.ExpectQuery("SELECT word FROM english_vocabulary").
		WillReturnRows(pgxmock.NewRows([]string{"word"}).AddRow("cat").AddRow("owl"))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(mock, 30*time.Second)
	s.now = func() time.Time { return now }

	first, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)

	now = now.Add(10 * time.Second)
	cached, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	now = now.Add(30 * time.Second)
	reloaded, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, reloaded, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInvalidate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT word").WillReturnRows(pgxmock.NewRows([]string{"word"}).AddRow("cat"))
	mock.ExpectQuery("SELECT word").WillReturnRows(pgxmock.NewRows([]string{"word"}))

	s := NewStore(mock, time.Hour)
	_, err = s.Entries(context.Background())
	require.NoError(t, err)
	s.Invalidate()
	got, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("relation does not exist")
	mock.ExpectQuery("SELECT word").WillReturnError(boom)

	_, err = NewStore(mock, 0).Entries(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", 3, nil)
	assert.Error(t, err)
}
