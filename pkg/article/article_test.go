package article

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html>
<html><head><title>Cats and dogs</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Cats and dogs</h1>
<p>The quick brown fox jumps over the lazy dog. Cats sleep most of the day while
dogs prefer to run around the garden chasing birds and squirrels.</p>
<p>Both animals have lived alongside people for thousands of years, and both are
loved by families all around the world for their loyalty and their charm.</p>
<p><ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>を勉強しています。毎日少しずつ覚えています。</p>
</article>
<footer>Copyright notice</footer>
</body></html>`

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "<ruby>漢字<rt>かんじ</rt></ruby>", "<ruby>漢字</ruby>"},
		{"with rp", "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>", "<ruby>漢字</ruby>"},
		{"multiple", "<ruby>私<rt>わたし</rt></ruby>は<ruby>猫<rt>ねこ</rt></ruby>である", "<ruby>私</ruby>は<ruby>猫</ruby>である"},
		{"attributes", "<ruby class='x'>漢字<RT class='r'>かんじ</RT></ruby>", "<ruby class='x'>漢字</ruby>"},
		{"no ruby", "<p>plain</p>", "<p>plain</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(SanitizeRuby([]byte(tt.input))))
		})
	}
}

func TestFetchExtractsArticle(t *testing.T) {
	ua := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	a, err := NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, <-ua, "Mozilla/5.0")
	assert.Contains(t, a.Text, "quick brown fox")
	assert.Contains(t, a.Text, "漢字")
	assert.NotContains(t, a.Text, "漢字かんじ")
}

func TestFetchRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(time.Second).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// chunked, so ContentLength is unknown and the read limit has to catch it
		for i := 0; i < 4; i++ {
			_, _ = w.Write([]byte(strings.Repeat("a", 512)))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	f.maxBody = 1024
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(time.Second).Fetch(ctx, "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, context.Canceled)
}
