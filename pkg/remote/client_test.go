package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

func TestProcess(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process", r.URL.Path)
		var req struct {
			Text string `json:"text"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotText = req.Text
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"new_words":["dog"],"all_words":["cat","dog"],"uniq_words":["cat","dog"]}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL+"/", time.Second).Process(context.Background(), "cat dog")
	require.NoError(t, err)
	assert.Equal(t, "cat dog", gotText)
	assert.Equal(t, []string{"dog"}, res.NewWords)
	assert.Equal(t, []string{"cat", "dog"}, res.AllWords)
	assert.Equal(t, []string{"cat", "dog"}, res.UniqueWords)
	assert.Equal(t, vocab.SourceRemote, res.Source)
}

func TestProcessNullArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"new_words":null}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, time.Second).Process(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, res.NewWords)
	assert.Empty(t, res.AllWords)
	assert.Empty(t, res.UniqueWords)
}

func TestProcessFailures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad request": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"new_words":`))
		},
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewClient(srv.URL, time.Second).Process(context.Background(), "x")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestProcessUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 500*time.Millisecond).Process(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Process(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloadCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download-csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("dog\nbird\n"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, NewClient(srv.URL, time.Second).DownloadCSV(context.Background(), &buf))
	assert.Equal(t, "dog\nbird\n", buf.String())
}

func TestDownloadCSVStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	var buf bytes.Buffer
	err := NewClient(srv.URL, time.Second).DownloadCSV(context.Background(), &buf)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, buf.Len())
}
