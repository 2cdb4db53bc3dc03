// Package session owns the state behind one interactive diffing session:
// the current text, the vocabulary snapshot and the latest results of the
// local and remote providers.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/japaniel/vocabdiff/pkg/cache"
	"github.com/japaniel/vocabdiff/pkg/export"
	"github.com/japaniel/vocabdiff/pkg/feed"
	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/provider"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// VocabularySource supplies known words, e.g. the Postgres store.
type VocabularySource interface {
	Entries(ctx context.Context) ([]vocab.Entry, error)
}

// invalidator is implemented by sources that memoise their entries.
type invalidator interface {
	Invalidate()
}

// toggler is implemented by remote providers that track the remote toggle
// themselves, such as provider.Selector.
type toggler interface {
	UseRemote(on bool)
}

// Options wires a Session. Only Local is required.
type Options struct {
	Local      *provider.Local
	Remote     provider.DiffProvider
	Refresher  *feed.Refresher
	Database   VocabularySource
	Exporter   *export.Exporter
	Downloader export.Downloader
	Logger     logger.Logger

	// OnResult is called whenever a new result becomes current.
	OnResult func(vocab.DiffResult)
	// OnExport is called after a CSV file was written.
	OnExport func(path string, words int, source vocab.Source)
}

// Session coordinates the asynchronous work of one user. A newer text cancels
// the remote request of an older one, and results are applied only if they
// still belong to the newest text.
type Session struct {
	opts Options
	log  logger.Logger

	// applyMu serializes vocabulary swaps with the local diffs that read them.
	// Lock order is applyMu, then mu.
	applyMu sync.Mutex

	mu           sync.Mutex
	useRemote    bool
	text         string
	gen          uint64
	remoteCancel context.CancelFunc
	local        vocab.DiffResult
	remote       *vocab.DiffResult
	feedEntries  []vocab.Entry
	dbEntries    []vocab.Entry

	inflight sync.WaitGroup
}

// New creates a Session.
func New(opts Options) *Session {
	if opts.Local == nil {
		opts.Local = provider.NewLocal(nil)
	}
	if opts.Exporter == nil {
		opts.Exporter = export.NewExporter("")
	}
	return &Session{opts: opts, log: logger.OrNop(opts.Logger)}
}

// UseRemote toggles which provider's result is current. Turning it on
// re-submits the current text to the remote store; turning it off cancels the
// request in flight and makes the local result current again.
func (s *Session) UseRemote(ctx context.Context, on bool) {
	if t, ok := s.opts.Remote.(toggler); ok {
		t.UseRemote(on)
	}

	s.mu.Lock()
	changed := s.useRemote != on
	s.useRemote = on
	text := s.text
	local := s.local
	if changed && !on {
		if s.remoteCancel != nil {
			s.remoteCancel()
			s.remoteCancel = nil
		}
		// Late answers of the cancelled request belong to an older generation.
		s.gen++
		s.remote = nil
	}
	s.mu.Unlock()

	switch {
	case !changed || text == "":
	case on:
		s.SetText(ctx, text)
	default:
		s.emit(local)
	}
}

// RemoteMode reports whether remote results are preferred.
func (s *Session) RemoteMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useRemote && s.opts.Remote != nil
}

// LoadCached seeds the vocabulary from the cached feed snapshot.
// A missing snapshot is not an error.
func (s *Session) LoadCached() (int, error) {
	if s.opts.Refresher == nil {
		return 0, nil
	}
	entries, _, err := s.opts.Refresher.Cached()
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s.setFeedEntries(entries)
	return len(entries), nil
}

// LoadDatabase adds the database vocabulary, if one is configured.
// Failures are logged and leave the current vocabulary in place.
func (s *Session) LoadDatabase(ctx context.Context) int {
	if s.opts.Database == nil {
		return 0
	}
	entries, err := s.opts.Database.Entries(ctx)
	if err != nil {
		s.log.Warn("could not load database vocabulary", "err", err)
		return 0
	}
	s.mu.Lock()
	s.dbEntries = entries
	s.mu.Unlock()
	s.applyVocabulary()
	return len(entries)
}

// RefreshVocabulary reloads the database vocabulary, bypassing its memo, and
// fetches the feed. On feed failure the cached snapshot stays in use; a
// refresh replaced by a newer one is silently dropped.
func (s *Session) RefreshVocabulary(ctx context.Context) error {
	if inv, ok := s.opts.Database.(invalidator); ok {
		inv.Invalidate()
		s.LoadDatabase(ctx)
	}
	if s.opts.Refresher == nil {
		return nil
	}
	entries, err := s.opts.Refresher.Refresh(ctx)
	switch {
	case err == nil:
		s.setFeedEntries(entries)
		return nil
	case errors.Is(err, feed.ErrSuperseded), errors.Is(err, context.Canceled):
		return nil
	default:
		s.log.Warn("vocabulary refresh failed, keeping cached snapshot", "err", err)
		return err
	}
}

func (s *Session) setFeedEntries(entries []vocab.Entry) {
	s.mu.Lock()
	s.feedEntries = entries
	s.mu.Unlock()
	s.applyVocabulary()
}

// applyVocabulary pushes the merged vocabulary into the local provider and
// recomputes the local result for the current text.
func (s *Session) applyVocabulary() {
	s.applyMu.Lock()
	s.mu.Lock()
	merged := make([]vocab.Entry, 0, len(s.feedEntries)+len(s.dbEntries))
	merged = append(merged, s.feedEntries...)
	merged = append(merged, s.dbEntries...)
	// SetText waits on applyMu, so text stays current until the swap is done.
	text := s.text
	s.mu.Unlock()

	s.opts.Local.SetVocabulary(merged)
	res, _ := s.opts.Local.Diff(context.Background(), text)

	s.mu.Lock()
	s.local = res
	notify := !s.useRemote || s.remote == nil
	s.mu.Unlock()
	s.applyMu.Unlock()
	if notify {
		s.emit(res)
	}
}

// VocabularySize returns the number of unique known words.
func (s *Session) VocabularySize() int { return s.opts.Local.VocabularySize() }

// SetText makes text current. The local result is computed synchronously and
// returned; in remote mode a request to the remote store starts in the
// background and replaces the request of any previous text.
func (s *Session) SetText(ctx context.Context, text string) vocab.DiffResult {
	s.applyMu.Lock()
	res, _ := s.opts.Local.Diff(ctx, text)

	s.mu.Lock()
	if s.remoteCancel != nil {
		s.remoteCancel()
		s.remoteCancel = nil
	}
	s.gen++
	gen := s.gen
	s.text = text
	s.local = res
	s.remote = nil
	startRemote := s.useRemote && s.opts.Remote != nil && text != ""
	var rctx context.Context
	if startRemote {
		var cancel context.CancelFunc
		rctx, cancel = context.WithCancel(ctx)
		s.remoteCancel = cancel
		s.inflight.Add(1)
	}
	s.mu.Unlock()
	s.applyMu.Unlock()

	s.emit(res)
	if startRemote {
		go s.runRemote(rctx, gen, text)
	}
	return res
}

func (s *Session) runRemote(ctx context.Context, gen uint64, text string) {
	defer s.inflight.Done()
	res, err := s.opts.Remote.Diff(ctx, text)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("remote diff unavailable, showing local result", "err", err)
		}
		return
	}
	if res.Source != vocab.SourceRemote {
		// A fallback provider answered locally; that result is already current.
		return
	}

	s.mu.Lock()
	if gen != s.gen || !s.useRemote {
		s.mu.Unlock()
		return
	}
	s.remote = &res
	s.remoteCancel = nil
	s.mu.Unlock()
	s.emit(res)
}

// Wait blocks until every background remote request has finished.
func (s *Session) Wait() { s.inflight.Wait() }

// Current returns the result to display: the remote one in remote mode when
// it has arrived, the local one otherwise.
func (s *Session) Current() vocab.DiffResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.useRemote && s.remote != nil {
		return *s.remote
	}
	return s.local
}

// Export writes the new words of the current result as CSV. In remote mode
// the file is downloaded from the remote store, falling back to a local file.
// Failures are logged and reported as false.
func (s *Session) Export(ctx context.Context) (string, bool) {
	res := s.Current()
	if s.RemoteMode() && s.opts.Downloader != nil && res.Source == vocab.SourceRemote {
		path, err := s.opts.Exporter.Download(ctx, s.opts.Downloader)
		if err == nil {
			s.exported(path, len(res.NewWords), vocab.SourceRemote)
			return path, true
		}
		s.log.Warn("remote export failed, writing locally", "err", err)
	}
	path, err := s.opts.Exporter.Save(res.NewWords)
	if err != nil {
		s.log.Error("export failed", "err", err)
		return "", false
	}
	s.exported(path, len(res.NewWords), vocab.SourceLocal)
	return path, true
}

func (s *Session) exported(path string, n int, src vocab.Source) {
	s.log.Info("exported new words", "path", path, "words", n, "source", src)
	if s.opts.OnExport != nil {
		s.opts.OnExport(path, n, src)
	}
}

func (s *Session) emit(res vocab.DiffResult) {
	if s.opts.OnResult != nil {
		s.opts.OnResult(res)
	}
}

// Close cancels any background request and waits for it to stop.
func (s *Session) Close() {
	s.mu.Lock()
	if s.remoteCancel != nil {
		s.remoteCancel()
		s.remoteCancel = nil
	}
	s.mu.Unlock()
	s.Wait()
}
