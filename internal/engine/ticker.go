// Package engine contains the game loop: one session per game, each moved by
// its own ticker, and the engine that owns the sessions and reacts to the
// event log.
//
// ARCHITECTURAL RULE: transport code never touches a game.Game directly.
// It calls Session commands, which mutate the game under the session lock
// and record what happened in the EventLog.
package engine

import (
	"context"
	"sync"
	"time"
)

// DefaultMoveInterval is the time between two snake moves.
const DefaultMoveInterval = 300 * time.Millisecond

// Ticker drives one session. It calls step on every beat until step reports
// false, the context ends or Stop is called.
type Ticker struct {
	interval time.Duration
	step     func() bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewTicker creates a ticker. Call Start in a goroutine.
func NewTicker(interval time.Duration, step func() bool) *Ticker {
	if interval <= 0 {
		interval = DefaultMoveInterval
	}
	return &Ticker{
		interval: interval,
		step:     step,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the loop until one of the stop conditions holds.
func (t *Ticker) Start(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-ticker.C:
			if !t.step() {
				return
			}
		}
	}
}

// Stop ends the loop. It is safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

// Done is closed once the loop has returned.
func (t *Ticker) Done() <-chan struct{} {
	return t.done
}
