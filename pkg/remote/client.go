// Package remote talks to the remote vocabulary store, which computes diffs
// against its own database.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// ErrUnavailable covers every way the remote store can fail to produce a result:
// network errors, non-2xx statuses and undecodable bodies.
var ErrUnavailable = errors.New("remote store unavailable")

const (
	processPath  = "/process"
	downloadPath = "/download-csv"
)

type processRequest struct {
	Text string `json:"text"`
}

// ProcessResponse is the body returned by the process endpoint.
type ProcessResponse struct {
	NewWords  []string `json:"new_words"`
	AllWords  []string `json:"all_words"`
	UniqWords []string `json:"uniq_words"`
}

// Client calls the remote store.
type Client struct {
	http *resty.Client
}

// NewClient creates a client for the store rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "vocabdiff-cli")
	return &Client{http: c}
}

// Process sends text to the store and returns the diff it computed.
func (c *Client) Process(ctx context.Context, text string) (vocab.DiffResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(processRequest{Text: text}).
		Post(processPath)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return vocab.DiffResult{}, ctxErr
	}
	if err != nil {
		return vocab.DiffResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !resp.IsSuccess() {
		return vocab.DiffResult{}, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status())
	}

	var out ProcessResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return vocab.DiffResult{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return vocab.DiffResult{
		AllWords:    orEmpty(out.AllWords),
		UniqueWords: orEmpty(out.UniqWords),
		NewWords:    orEmpty(out.NewWords),
		Source:      vocab.SourceRemote,
	}, nil
}

// DownloadCSV copies the store's CSV export of the last processed text into w.
func (c *Client) DownloadCSV(ctx context.Context, w io.Writer) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		Get(downloadPath)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status())
	}
	_, err = w.Write(resp.Body())
	return err
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
