package maintenance

import (
	"time"

	"github.com/conradoqg/maintenance-gate/internal/remote"
)

type stats struct {
	last          Status
	hasLast       bool
	fetchAttempt  bool
	fetchOK       bool
	fetchDuration time.Duration
	resolutions   map[Source]uint64
	fetchOKs      uint64
	fetchFailures uint64
}

func newStats() stats {
	return stats{resolutions: make(map[Source]uint64)}
}

func (s *stats) resolved(st Status) {
	s.last = st
	s.hasLast = true
	s.resolutions[st.Source]++
}

func (s *stats) fetched(ok bool, took time.Duration) {
	s.fetchAttempt = true
	s.fetchOK = ok
	s.fetchDuration = took
	if ok {
		s.fetchOKs++
	} else {
		s.fetchFailures++
	}
}

// Snapshot is a point-in-time view of the resolver, read without any I/O.
type Snapshot struct {
	RemoteURL string
	// Last is the most recent Status result; zero until the first resolution.
	Last    Status
	HasLast bool
	// Cached reports whether the cache holds a value, and CacheAge how old it is.
	Cached     bool
	CachedFlag bool
	CacheAge   time.Duration
	CacheFresh bool

	FetchAttempted bool
	FetchOK        bool
	FetchDuration  time.Duration
	FetchOKs       uint64
	FetchFailures  uint64
	Resolutions    map[Source]uint64
}

func (r *Resolver) Snapshot() Snapshot {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{
		RemoteURL:      r.RemoteURL(),
		Last:           r.stats.last,
		HasLast:        r.stats.hasLast,
		FetchAttempted: r.stats.fetchAttempt,
		FetchOK:        r.stats.fetchOK,
		FetchDuration:  r.stats.fetchDuration,
		FetchOKs:       r.stats.fetchOKs,
		FetchFailures:  r.stats.fetchFailures,
		Resolutions:    make(map[Source]uint64, len(r.stats.resolutions)),
	}
	for k, v := range r.stats.resolutions {
		snap.Resolutions[k] = v
	}
	if !r.cache.fetchedAt.IsZero() {
		snap.Cached = true
		snap.CachedFlag = remote.Normalize(r.cache.value)
		snap.CacheAge = now.Sub(r.cache.fetchedAt)
		snap.CacheFresh = r.cache.fresh(now, r.cacheDuration)
	}
	return snap
}
