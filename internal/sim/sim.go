// Package sim runs headless autopilot games. It drives sessions step by
// step instead of waiting for their tickers, so a whole batch finishes in
// well under a second.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// StopReasonStepLimit marks games cut off after MaxSteps moves.
const StopReasonStepLimit = "step_limit"

const idleInterval = 24 * time.Hour

// Options configures a batch.
type Options struct {
	Games     int
	Seed      uint64
	BoardSize int
	MaxSteps  int
	Workers   int
}

// Result is the outcome of one game.
type Result struct {
	GameID    string `json:"game_id"`
	Seed      uint64 `json:"seed"`
	Score     int    `json:"score"`
	Length    int    `json:"length"`
	Ticks     uint64 `json:"ticks"`
	FoodEaten int    `json:"food_eaten"`
	Reason    string `json:"reason"`
}

// Report aggregates a batch.
type Report struct {
	Results      []Result       `json:"results"`
	BestScore    int            `json:"best_score"`
	AverageScore float64        `json:"average_score"`
	TotalTicks   uint64         `json:"total_ticks"`
	StopReasons  map[string]int `json:"stop_reasons"`
	Decisions    int64          `json:"decisions"`
}

// Runner plays batches of autopilot games.
type Runner struct {
	logger  *logger.Logger
	metrics *metrics.Collector
}

// NewRunner creates a runner with its own metrics.
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{logger: log, metrics: metrics.New()}
}

// Run plays opts.Games games, the i-th seeded with opts.Seed+i.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Games <= 0 {
		return nil, errors.New("sim: at least one game is required")
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 5000
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	el := events.NewEventLog(nil)
	el.SetRetention(1000)
	eng := engine.NewEngine(el, r.logger, r.metrics, engine.Options{
		BoardSize:    opts.BoardSize,
		MoveInterval: idleInterval,
		MaxGames:     opts.Games,
	})
	defer eng.Shutdown()
	mind := autopilot.NewMind(eng, r.logger, r.metrics)

	var (
		mu      sync.Mutex
		results = make([]Result, 0, opts.Games)
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Games; i++ {
		seed := opts.Seed + uint64(i)
		g.Go(func() error {
			res, err := r.play(ctx, eng, mind, seed, opts.MaxSteps)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Seed < results[j].Seed })
	return r.report(results), nil
}

func (r *Runner) play(ctx context.Context, eng *engine.Engine, mind *autopilot.Mind, seed uint64, maxSteps int) (Result, error) {
	s, err := eng.CreateGame(engine.GameOptions{Seed: seed})
	if err != nil {
		return Result{}, err
	}
	defer eng.RemoveGame(s.ID(), events.ActorSystem)

	s.SetAutopilot(true, events.ActorSystem)
	if err := s.Start(events.ActorSystem); err != nil {
		return Result{}, err
	}
	// The session ticker never fires within idleInterval; moves come from here.
	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if _, err := mind.Drive(s); err != nil {
			return Result{}, err
		}
		res, err := s.Step()
		if err != nil {
			return Result{}, err
		}
		if res.Collided {
			break
		}
	}

	reason := s.Snapshot().StopReason
	if s.Snapshot().Status != game.StatusStopped {
		reason = StopReasonStepLimit
		_ = s.Stop(events.ActorSystem)
	}
	snap := s.Snapshot()
	score := snap.LastScore
	r.logger.Debug(fmt.Sprintf("sim: seed %d scored %d (%s)", seed, score, reason))

	return Result{
		GameID:    s.ID(),
		Seed:      seed,
		Score:     score,
		Length:    len(snap.Snake),
		Ticks:     snap.Tick,
		FoodEaten: snap.FoodEaten,
		Reason:    reason,
	}, nil
}

func (r *Runner) report(results []Result) *Report {
	rep := &Report{
		Results:     results,
		StopReasons: make(map[string]int),
	}
	total := 0
	for _, res := range results {
		total += res.Score
		rep.TotalTicks += res.Ticks
		rep.StopReasons[res.Reason]++
		if res.Score > rep.BestScore {
			rep.BestScore = res.Score
		}
	}
	if len(results) > 0 {
		rep.AverageScore = float64(total) / float64(len(results))
	}
	if ap, ok := r.metrics.Snapshot()["autopilot"].(map[string]interface{}); ok {
		rep.Decisions, _ = ap["decisions"].(int64)
	}
	return rep
}
