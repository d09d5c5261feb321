// Package cache provides in-process caching for quick leaderboard reads.
// The scores table stays the source of truth.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MRamiBalles/SnakeWeb/server/internal/infra/storage"
)

// DefaultTTL bounds how stale a cached leaderboard can get when scores are
// written by another process.
const DefaultTTL = 30 * time.Second

// LoadFunc reads the top scores from storage.
type LoadFunc func(ctx context.Context, limit int) ([]storage.Score, error)

// Leaderboard caches top-N score lists keyed by N.
type Leaderboard struct {
	lru    *expirable.LRU[int, []storage.Score]
	load   LoadFunc
	hits   atomic.Int64
	misses atomic.Int64

	// gen counts invalidations; a load started before one is not cached.
	mu  sync.Mutex
	gen uint64
}

// NewLeaderboard creates a leaderboard cache holding up to size lists.
func NewLeaderboard(size int, ttl time.Duration, load LoadFunc) *Leaderboard {
	if size <= 0 {
		size = 16
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Leaderboard{
		lru:  expirable.NewLRU[int, []storage.Score](size, nil, ttl),
		load: load,
	}
}

// Top returns the best limit scores, from cache when possible.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]storage.Score, error) {
	if scores, ok := l.lru.Get(limit); ok {
		l.hits.Add(1)
		return clone(scores), nil
	}
	l.misses.Add(1)

	l.mu.Lock()
	gen := l.gen
	l.mu.Unlock()

	scores, err := l.load(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	l.mu.Lock()
	if l.gen == gen {
		l.lru.Add(limit, clone(scores))
	}
	l.mu.Unlock()
	return clone(scores), nil
}

// Invalidate drops every cached list. Called after a new score is stored.
func (l *Leaderboard) Invalidate() {
	l.mu.Lock()
	l.gen++
	l.lru.Purge()
	l.mu.Unlock()
}

// Stats returns cache hits and misses since creation.
func (l *Leaderboard) Stats() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}

func clone(s []storage.Score) []storage.Score {
	out := make([]storage.Score, len(s))
	copy(out, s)
	return out
}
