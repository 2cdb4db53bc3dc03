// Package provider puts the local engine and the remote store behind one
// diff interface and picks between them at runtime.
package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/japaniel/vocabdiff/pkg/logger"
	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// DiffProvider computes the diff of a text against some known vocabulary.
type DiffProvider interface {
	Diff(ctx context.Context, text string) (vocab.DiffResult, error)
}

// Local diffs against an in-memory vocabulary snapshot.
type Local struct {
	engine *vocab.Engine

	mu        sync.RWMutex
	reference vocab.WordSet
}

// NewLocal creates a local provider with an empty vocabulary.
func NewLocal(engine *vocab.Engine) *Local {
	if engine == nil {
		engine = vocab.NewEngine(nil)
	}
	return &Local{engine: engine}
}

// SetVocabulary replaces the reference snapshot.
func (l *Local) SetVocabulary(entries []vocab.Entry) {
	ref := vocab.UniqueEntries(entries)
	l.mu.Lock()
	l.reference = ref
	l.mu.Unlock()
}

// VocabularySize returns the number of unique known words.
func (l *Local) VocabularySize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reference.Len()
}

// Diff implements DiffProvider. It never fails.
func (l *Local) Diff(_ context.Context, text string) (vocab.DiffResult, error) {
	l.mu.RLock()
	ref := l.reference
	l.mu.RUnlock()
	return l.engine.Compute(text, ref), nil
}

// RemoteClient is the part of the remote store client used here.
type RemoteClient interface {
	Process(ctx context.Context, text string) (vocab.DiffResult, error)
}

// Remote delegates diffing to the remote store.
type Remote struct {
	client RemoteClient
}

// NewRemote wraps a remote store client.
func NewRemote(c RemoteClient) *Remote { return &Remote{client: c} }

// Diff implements DiffProvider.
func (r *Remote) Diff(ctx context.Context, text string) (vocab.DiffResult, error) {
	res, err := r.client.Process(ctx, text)
	if err != nil {
		return vocab.DiffResult{}, err
	}
	res.Source = vocab.SourceRemote
	return res, nil
}

// Selector forwards to the remote provider when remote mode is on and falls
// back to the local one whenever the remote fails.
type Selector struct {
	local  DiffProvider
	remote DiffProvider
	log    logger.Logger
	useRem atomic.Bool
}

// NewSelector creates a selector in local mode. remote may be nil.
func NewSelector(local, remote DiffProvider, log logger.Logger) *Selector {
	return &Selector{local: local, remote: remote, log: logger.OrNop(log)}
}

// UseRemote toggles remote mode.
func (s *Selector) UseRemote(on bool) { s.useRem.Store(on) }

// RemoteEnabled reports whether remote mode is on and a remote provider exists.
func (s *Selector) RemoteEnabled() bool { return s.useRem.Load() && s.remote != nil }

// Diff implements DiffProvider.
func (s *Selector) Diff(ctx context.Context, text string) (vocab.DiffResult, error) {
	if !s.RemoteEnabled() {
		return s.local.Diff(ctx, text)
	}
	res, err := s.remote.Diff(ctx, text)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, context.Canceled) {
		return vocab.DiffResult{}, err
	}
	s.log.Warn("remote diff failed, computing locally", "err", err)
	return s.local.Diff(ctx, text)
}
