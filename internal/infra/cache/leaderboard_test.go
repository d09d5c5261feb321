package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/infra/storage"
)

func TestLeaderboardCachesUntilInvalidated(t *testing.T) {
	calls := 0
	rows := []storage.Score{{GameID: "A", Score: 5}, {GameID: "B", Score: 2}}
	lb := NewLeaderboard(4, time.Minute, func(_ context.Context, limit int) ([]storage.Score, error) {
		calls++
		if limit < len(rows) {
			return rows[:limit], nil
		}
		return rows, nil
	})
	ctx := context.Background()

	first, err := lb.Top(ctx, 10)
	if err != nil || len(first) != 2 {
		t.Fatalf("Top failed: %v %+v", err, first)
	}
	first[0].Score = 99 // callers must not corrupt the cache

	second, _ := lb.Top(ctx, 10)
	if calls != 1 {
		t.Errorf("Expected one load, got %d", calls)
	}
	if second[0].Score != 5 {
		t.Errorf("Cached list was modified through a returned slice")
	}

	if one, _ := lb.Top(ctx, 1); len(one) != 1 || calls != 2 {
		t.Errorf("Different limit must load separately, calls=%d", calls)
	}

	lb.Invalidate()
	_, _ = lb.Top(ctx, 10)
	if calls != 3 {
		t.Errorf("Expected reload after invalidation, calls=%d", calls)
	}

	hits, misses := lb.Stats()
	if hits != 1 || misses != 3 {
		t.Errorf("Expected 1 hit and 3 misses, got %d and %d", hits, misses)
	}
}

func TestLeaderboardDoesNotCacheErrors(t *testing.T) {
	fail := true
	lb := NewLeaderboard(4, time.Minute, func(context.Context, int) ([]storage.Score, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []storage.Score{{Score: 1}}, nil
	})

	if _, err := lb.Top(context.Background(), 5); err == nil {
		t.Fatal("Expected load error")
	}
	fail = false
	got, err := lb.Top(context.Background(), 5)
	if err != nil || len(got) != 1 {
		t.Errorf("Expected recovery after error, got %+v (%v)", got, err)
	}
}

func TestLeaderboardDropsLoadRacingInvalidate(t *testing.T) {
	// Setup: the first load reads the table, then blocks until released
	repo := storage.NewMemoryScoreRepository()
	ctx := context.Background()
	read := make(chan struct{})
	release := make(chan struct{})
	blocking := true
	lb := NewLeaderboard(4, time.Minute, func(ctx context.Context, limit int) ([]storage.Score, error) {
		scores, err := repo.Top(ctx, limit)
		if blocking {
			blocking = false
			close(read)
			<-release
		}
		return scores, err
	})

	done := make(chan []storage.Score)
	go func() {
		scores, _ := lb.Top(ctx, 10)
		done <- scores
	}()
	<-read

	// Act: a score lands while the stale load is in flight
	if _, err := repo.Insert(ctx, storage.Score{GameID: "G", Score: 7}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	lb.Invalidate()
	close(release)
	if stale := <-done; len(stale) != 0 {
		t.Fatalf("Expected the racing load to see the empty table, got %+v", stale)
	}

	// Assert
	got, err := lb.Top(ctx, 10)
	if err != nil || len(got) != 1 || got[0].Score != 7 {
		t.Errorf("Expected the new score after invalidation, got %+v (%v)", got, err)
	}
}
