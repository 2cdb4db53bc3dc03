package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/vocabdiff/pkg/cache"
	"github.com/japaniel/vocabdiff/pkg/config"
	"github.com/japaniel/vocabdiff/pkg/db"
	"github.com/japaniel/vocabdiff/pkg/export"
	"github.com/japaniel/vocabdiff/pkg/feed"
	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/pgstore"
	"github.com/japaniel/vocabdiff/pkg/provider"
	"github.com/japaniel/vocabdiff/pkg/remote"
	"github.com/japaniel/vocabdiff/pkg/segment"
	"github.com/japaniel/vocabdiff/pkg/session"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// app holds everything a command needs, built once from the config.
type app struct {
	cfg *config.Config
	log logger.Logger
	out io.Writer

	conn      *sql.DB
	cache     cache.Cache
	refresher *feed.Refresher
	remote    *remote.Client
	local     *provider.Local
	selector  *provider.Selector
	exporter  *export.Exporter
	pool      *pgxpool.Pool
	session   *session.Session

	mu       sync.Mutex
	onResult func(vocab.DiffResult)
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer) (*app, error) {
	seg, err := segment.ForLanguage(cfg.Lang)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open cache database %s: %w", cfg.CachePath, err)
	}

	a := &app{cfg: cfg, log: log, out: out, conn: conn}
	a.cache = cache.NewSQLite(conn)
	a.refresher = feed.NewRefresher(feed.NewClient(cfg.FeedURL, cfg.Timeout), a.cache, log)
	a.remote = remote.NewClient(cfg.RemoteURL, cfg.Timeout)
	a.local = provider.NewLocal(vocab.NewEngine(seg))
	a.selector = provider.NewSelector(a.local, provider.NewRemote(a.remote), log)
	a.exporter = export.NewExporter(cfg.ExportDir)

	var source session.VocabularySource
	if cfg.DatabaseURL != "" {
		pool, err := pgstore.Connect(ctx, cfg.DatabaseURL, 3, log)
		if err != nil {
			// The feed alone is enough to work with.
			log.Warn("database vocabulary unavailable", "err", err)
		} else {
			a.pool = pool
			source = pgstore.NewStore(pool, pgstore.DefaultTTL)
		}
	}

	a.session = session.New(session.Options{
		Local:      a.local,
		Remote:     a.selector,
		Refresher:  a.refresher,
		Database:   source,
		Exporter:   a.exporter,
		Downloader: a.remote,
		Logger:     log,
		OnResult:   a.emit,
		OnExport:   a.recordExport,
	})

	// The session forwards the toggle to the selector.
	a.session.UseRemote(ctx, cfg.Mode == config.ModeRemote)
	return a, nil
}

// loadVocabulary seeds the session from the cache and the database at the
// same time, then refreshes from the feed unless offline is set.
func (a *app) loadVocabulary(ctx context.Context, offline bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.session.LoadCached()
		if err != nil {
			return fmt.Errorf("load cached vocabulary: %w", err)
		}
		a.log.Debug("cached vocabulary loaded", "entries", n)
		return nil
	})
	g.Go(func() error {
		n := a.session.LoadDatabase(gctx)
		a.log.Debug("database vocabulary loaded", "entries", n)
		return nil
	})
	if err := g.Wait(); err != nil {
		// A corrupt cache is not fatal; the feed may still answer.
		a.log.Warn("startup load incomplete", "err", err)
	}
	if offline {
		return
	}
	// Failures are already logged and leave the cached snapshot in place.
	_ = a.session.RefreshVocabulary(ctx)
}

// setOnResult installs a callback for every result the session makes current.
func (a *app) setOnResult(fn func(vocab.DiffResult)) {
	a.mu.Lock()
	a.onResult = fn
	a.mu.Unlock()
}

func (a *app) emit(res vocab.DiffResult) {
	a.mu.Lock()
	fn := a.onResult
	a.mu.Unlock()
	if fn != nil {
		fn(res)
	}
}

func (a *app) recordExport(path string, words int, src vocab.Source) {
	if _, err := db.RecordExport(a.conn, path, words, string(src)); err != nil {
		a.log.Warn("could not record export", "path", path, "err", err)
	}
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.conn != nil {
		a.conn.Close()
	}
}
