// Package feed fetches the spreadsheet-backed vocabulary list and keeps the
// local cache in step with it.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

var (
	// ErrUnavailable means the feed could not be reached or answered with a non-2xx status.
	ErrUnavailable = errors.New("feed unavailable")
	// ErrMalformed means the feed answered but the body could not be used.
	ErrMalformed = errors.New("feed response malformed")
)

// Fetcher returns the current vocabulary entries from a feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]vocab.Entry, error)
}

// Client fetches the feed over HTTP.
type Client struct {
	http *resty.Client
	url  string
}

// NewClient creates a client for the feed at url.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "vocabdiff-cli").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	c.AddRetryCondition(retryCondition)
	return &Client{http: c, url: url}
}

func retryCondition(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if r == nil {
		return false
	}
	return r.StatusCode() >= http.StatusInternalServerError
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context) ([]vocab.Entry, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status())
	}
	return ParseRows(resp.Body())
}
