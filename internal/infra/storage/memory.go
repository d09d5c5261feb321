package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryScoreRepository keeps scores in memory when the server runs
// without a database.
type MemoryScoreRepository struct {
	mu     sync.RWMutex
	nextID int64
	scores []Score
}

// NewMemoryScoreRepository creates an empty score table.
func NewMemoryScoreRepository() *MemoryScoreRepository {
	return &MemoryScoreRepository{}
}

func (r *MemoryScoreRepository) Insert(_ context.Context, s Score) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}
	r.scores = append(r.scores, s)
	return s.ID, nil
}

// Top orders like the SQL table: score desc, then oldest first.
func (r *MemoryScoreRepository) Top(_ context.Context, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	out := make([]Score, len(r.scores))
	copy(out, r.scores)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryScoreRepository) BestForGame(_ context.Context, gameID string) (*Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Score
	for i := range r.scores {
		s := r.scores[i]
		if s.GameID != gameID {
			continue
		}
		if best == nil || s.Score > best.Score {
			cp := s
			best = &cp
		}
	}
	return best, nil
}

var _ ScoreRepository = (*MemoryScoreRepository)(nil)
