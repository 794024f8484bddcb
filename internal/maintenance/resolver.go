// Package maintenance decides whether the site is in maintenance mode.
//
// Status is resolved from an in-memory cache, then the remote status document,
// then the local fallback store. Remote failures never reach the caller; they
// show up as a degraded Status instead.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/conradoqg/maintenance-gate/internal/logx"
	"github.com/conradoqg/maintenance-gate/internal/remote"
	"github.com/conradoqg/maintenance-gate/internal/store"
)

// ErrRemoteUnavailable is attached to a degraded Status.
var ErrRemoteUnavailable = remote.ErrUnavailable

const DefaultCacheDuration = 5 * time.Minute

// Source says where a Status came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Status is the outcome of one resolution.
type Status struct {
	Enabled bool
	Source  Source
	// Degraded is set when the remote document was tried and failed.
	Degraded bool
	Err      error
}

// Scope describes how far a Set propagated.
type Scope string

// ScopeLocalOnly means the local store and this process's cache were updated,
// but the remote document was not. Other clients keep seeing the remote value.
const ScopeLocalOnly Scope = "local_only"

type SetResult struct {
	Enabled bool
	Scope   Scope
	// Err is a local store write failure. The in-memory cache is updated regardless.
	Err error
}

type Options struct {
	CacheDuration time.Duration
	// Fallback enables the local store when the remote is unavailable or unconfigured.
	Fallback bool
}

type Option func(*Resolver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

type statusCache struct {
	// raw as published (bool or string); nil while fetchedAt is zero
	value     any
	fetchedAt time.Time
}

func (c statusCache) fresh(now time.Time, window time.Duration) bool {
	return !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < window
}

// Resolver owns the status cache. Build one per process and share it.
type Resolver struct {
	remote        remote.Source
	store         store.Store
	cacheDuration time.Duration
	fallback      bool
	now           func() time.Time

	// writeMu orders "store write + cache update" pairs so the two never disagree.
	// It is never held across a remote fetch.
	writeMu sync.Mutex

	mu    sync.Mutex
	cache statusCache
	stats stats
}

// New builds a Resolver. src may be nil when no remote document is configured.
func New(src remote.Source, st store.Store, opts Options, extra ...Option) *Resolver {
	if opts.CacheDuration <= 0 {
		opts.CacheDuration = DefaultCacheDuration
	}
	r := &Resolver{
		remote:        src,
		store:         st,
		cacheDuration: opts.CacheDuration,
		fallback:      opts.Fallback,
		now:           time.Now,
		stats:         newStats(),
	}
	for _, o := range extra {
		o(r)
	}
	return r
}

// Status resolves the current maintenance flag. It never fails; when the remote
// document can't be read the answer comes from the local store (or false).
//
// Concurrent callers that find the cache stale each fetch the document; the
// lock is not held across the network read.
func (r *Resolver) Status(ctx context.Context) Status {
	r.mu.Lock()
	if r.cache.fresh(r.now(), r.cacheDuration) {
		st := Status{Enabled: remote.Normalize(r.cache.value), Source: SourceCache}
		r.stats.resolved(st)
		r.mu.Unlock()
		return st
	}
	r.mu.Unlock()

	var remoteErr error
	if r.remote != nil {
		start := time.Now()
		doc, err := r.remote.Fetch(ctx)
		took := time.Since(start)
		if err == nil {
			return r.acceptRemote(ctx, doc, took)
		}
		if ctx.Err() != nil {
			// caller went away; not a remote failure
			logx.Debugf("maintenance status fetch abandoned: %v", ctx.Err())
			return r.resolveLocally(context.WithoutCancel(ctx), Status{Source: SourceDefault, Err: ctx.Err()})
		}
		if !errors.Is(err, ErrRemoteUnavailable) {
			err = fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		remoteErr = err
		logx.Warnf("failed to fetch maintenance status from %s: %v", r.remote.URL(), err)
		r.mu.Lock()
		r.stats.fetched(false, took)
		r.mu.Unlock()
	}

	return r.resolveLocally(ctx, Status{Source: SourceDefault, Degraded: remoteErr != nil, Err: remoteErr})
}

func (r *Resolver) resolveLocally(ctx context.Context, st Status) Status {
	if r.fallback {
		st.Enabled = r.LocalStatus(ctx)
		st.Source = SourceLocal
	}
	r.mu.Lock()
	r.stats.resolved(st)
	r.mu.Unlock()
	return st
}

func (r *Resolver) acceptRemote(ctx context.Context, doc remote.Document, took time.Duration) Status {
	st := Status{Enabled: doc.Enabled(), Source: SourceRemote}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.store.Set(ctx, store.Key, formatFlag(st.Enabled)); err != nil {
		logx.Warnf("failed to mirror maintenance status to local store: %v", err)
	}
	r.mu.Lock()
	r.cache = statusCache{value: doc.Raw, fetchedAt: r.now()}
	r.stats.fetched(true, took)
	r.stats.resolved(st)
	r.mu.Unlock()
	return st
}

// Set records the flag in the local store and the cache.
//
// The remote document is not touched: the result scope is always
// ScopeLocalOnly and other clients only see the change once whoever owns the
// remote document updates it.
func (r *Resolver) Set(ctx context.Context, enabled bool) SetResult {
	value := formatFlag(enabled)
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.store.Set(ctx, store.Key, value)
	if err != nil {
		logx.Errorf("failed to write maintenance status to local store: %v", err)
	}

	r.mu.Lock()
	r.cache = statusCache{value: value, fetchedAt: r.now()}
	r.mu.Unlock()

	logx.Infof("maintenance mode set to %t locally; update the remote document for cross-client sync", enabled)
	return SetResult{Enabled: enabled, Scope: ScopeLocalOnly, Err: err}
}

// LocalStatus reads only the local store. It is meant for decisions that can't
// wait for a remote fetch.
func (r *Resolver) LocalStatus(ctx context.Context) bool {
	v, _, err := r.store.Get(ctx, store.Key)
	if err != nil {
		logx.Warnf("failed to read local maintenance status: %v", err)
		return false
	}
	return v == "true"
}

// RemoteURL is the document location, or "" when none is configured.
func (r *Resolver) RemoteURL() string {
	if r.remote == nil {
		return ""
	}
	return r.remote.URL()
}

func formatFlag(enabled bool) string {
	if enabled {
		return "true"
	}
	return "false"
}
