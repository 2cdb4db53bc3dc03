// Package ingest diffs many documents concurrently and reports the results in
// input order.
package ingest

import (
	"context"
	"fmt"

	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/provider"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Document is one named text to diff.
type Document struct {
	Name string
	Text string
}

// Result is the diff of one document.
type Result struct {
	Index int
	Name  string
	Diff  vocab.DiffResult
	Err   error
}

// Ingester runs documents through a DiffProvider on a worker pool.
type Ingester struct {
	Provider provider.DiffProvider
	Workers  int
	// Logger is used for per-document failures. nil means no logging.
	Logger logger.Logger
	// OnResult is called for every document, strictly in input order.
	OnResult func(Result)
	// OnProgress is called with the number of documents reported so far.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates an Ingester with four workers.
func NewIngester(p provider.DiffProvider) *Ingester {
	return &Ingester{Provider: p, Workers: 4}
}

// Ingest diffs every document and returns the results in input order.
// A failing document does not stop the others; its error is kept in Result.Err.
func (ig *Ingester) Ingest(ctx context.Context, docs []Document) ([]Result, error) {
	log := logger.OrNop(ig.Logger)
	total := len(docs)
	if total == 0 {
		return []Result{}, nil
	}

	workers := ig.Workers
	if workers <= 0 {
		workers = 1
	}
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered for every document so workers never block on a slow consumer.
	resultCh := make(chan Result, total)
	doneCh := make(chan []Result, 1)

	go func() {
		ordered := make([]Result, 0, total)
		buffer := make(map[int]Result)
		nextIdx := 0
		for res := range resultCh {
			buffer[res.Index] = res
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					break
				}
				delete(buffer, nextIdx)
				ordered = append(ordered, item)
				if ig.OnResult != nil {
					ig.OnResult(item)
				}
				nextIdx++
				if ig.OnProgress != nil {
					ig.OnProgress(nextIdx, total)
				}
			}
		}
		doneCh <- ordered
	}()

	wp.Start(ctx)

	var submitErr error
	for i, doc := range docs {
		job := func(ctx context.Context) error {
			res := Result{Index: i, Name: doc.Name}
			res.Diff, res.Err = ig.Provider.Diff(ctx, doc.Text)
			if res.Err != nil {
				log.Warn("document failed", "name", doc.Name, "err", res.Err)
			}
			resultCh <- res
			return res.Err
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			submitErr = err
			break
		}
	}

	wp.Close()
	close(resultCh)
	ordered := <-doneCh

	if submitErr != nil {
		return ordered, fmt.Errorf("submit document: %w", submitErr)
	}
	if err := ctx.Err(); err != nil {
		return ordered, err
	}
	if len(ordered) != total {
		return ordered, fmt.Errorf("only %d of %d documents were processed", len(ordered), total)
	}
	return ordered, nil
}

// MergeNewWords returns the union of the new words of all successful results,
// in order of first appearance across the documents.
func MergeNewWords(results []Result) vocab.WordSet {
	var all []string
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		all = append(all, r.Diff.NewWords...)
	}
	return vocab.NewWordSet(all...)
}
