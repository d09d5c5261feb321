// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Game metrics
	GamesCreated   int64
	GamesStarted   int64
	GamesStopped   int64
	GamesActive    int64
	SelfCollisions int64
	FoodEaten      int64
	BestScore      int64

	// Event metrics
	EventsWritten    int64
	EventWriteErrors int64
	ScoresSaved      int64
	EventsMissed     int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64
	WSRateLimited       int64

	// Autopilot metrics
	AutopilotDecisions int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New creates an empty collector.
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	for {
		cur := atomic.LoadInt64(&c.TickLatencyMax)
		if int64(latency) <= cur || atomic.CompareAndSwapInt64(&c.TickLatencyMax, cur, int64(latency)) {
			break
		}
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordGameCreated counts a new session.
func (c *Collector) RecordGameCreated() {
	atomic.AddInt64(&c.GamesCreated, 1)
}

// RecordGameStarted counts a fresh start and marks the game as active.
func (c *Collector) RecordGameStarted() {
	atomic.AddInt64(&c.GamesStarted, 1)
	atomic.AddInt64(&c.GamesActive, 1)
}

// RecordGameStopped counts a finished game and keeps the best score.
func (c *Collector) RecordGameStopped(finalScore int) {
	atomic.AddInt64(&c.GamesStopped, 1)
	atomic.AddInt64(&c.GamesActive, -1)
	for {
		cur := atomic.LoadInt64(&c.BestScore)
		if int64(finalScore) <= cur || atomic.CompareAndSwapInt64(&c.BestScore, cur, int64(finalScore)) {
			break
		}
	}
}

// RecordSelfCollision counts a game lost to a self collision.
func (c *Collector) RecordSelfCollision() {
	atomic.AddInt64(&c.SelfCollisions, 1)
}

// RecordFoodEaten counts eaten food.
func (c *Collector) RecordFoodEaten() {
	atomic.AddInt64(&c.FoodEaten, 1)
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordScoreSaved counts a persisted high-score row.
func (c *Collector) RecordScoreSaved() {
	atomic.AddInt64(&c.ScoresSaved, 1)
}

// RecordEventsMissed counts events trimmed from the log before a reader
// got to them.
func (c *Collector) RecordEventsMissed(n uint64) {
	atomic.AddInt64(&c.EventsMissed, int64(n))
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordWSRateLimited records a dropped client command.
func (c *Collector) RecordWSRateLimited() {
	atomic.AddInt64(&c.WSRateLimited, 1)
}

// RecordAutopilotDecision counts a direction chosen by the autopilot.
func (c *Collector) RecordAutopilotDecision() {
	atomic.AddInt64(&c.AutopilotDecisions, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	lastTick := c.LastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)

	var tickAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}

	last := ""
	if !lastTick.IsZero() {
		last = lastTick.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      last,
		},

		"games": map[string]interface{}{
			"created":         atomic.LoadInt64(&c.GamesCreated),
			"started":         atomic.LoadInt64(&c.GamesStarted),
			"stopped":         atomic.LoadInt64(&c.GamesStopped),
			"active":          atomic.LoadInt64(&c.GamesActive),
			"self_collisions": atomic.LoadInt64(&c.SelfCollisions),
			"food_eaten":      atomic.LoadInt64(&c.FoodEaten),
			"best_score":      atomic.LoadInt64(&c.BestScore),
		},

		"events": map[string]interface{}{
			"written":      atomic.LoadInt64(&c.EventsWritten),
			"errors":       atomic.LoadInt64(&c.EventWriteErrors),
			"scores_saved": atomic.LoadInt64(&c.ScoresSaved),
			"missed":       atomic.LoadInt64(&c.EventsMissed),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
			"rate_limited":       atomic.LoadInt64(&c.WSRateLimited),
		},

		"autopilot": map[string]interface{}{
			"decisions": atomic.LoadInt64(&c.AutopilotDecisions),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s counter\n", name)
			fmt.Fprintf(w, "%s %d\n\n", name, v)
		}
		gauge := func(name, help string, v float64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s gauge\n", name)
			fmt.Fprintf(w, "%s %g\n\n", name, v)
		}

		counter("snake_tick_count", "Total snake moves across all games", atomic.LoadInt64(&c.TickCount))
		gauge("snake_tick_latency_max_ms", "Maximum tick latency", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("snake_games_started_total", "Games started from the stopped state", atomic.LoadInt64(&c.GamesStarted))
		counter("snake_games_stopped_total", "Games that ended", atomic.LoadInt64(&c.GamesStopped))
		gauge("snake_games_active", "Games currently started or paused", float64(atomic.LoadInt64(&c.GamesActive)))
		counter("snake_self_collisions_total", "Games lost to a self collision", atomic.LoadInt64(&c.SelfCollisions))
		counter("snake_food_eaten_total", "Food items eaten", atomic.LoadInt64(&c.FoodEaten))
		gauge("snake_best_score", "Best final score since start", float64(atomic.LoadInt64(&c.BestScore)))

		counter("snake_events_written_total", "Events written to the database", atomic.LoadInt64(&c.EventsWritten))
		counter("snake_event_write_errors_total", "Failed event writes", atomic.LoadInt64(&c.EventWriteErrors))
		counter("snake_events_missed_total", "Events trimmed before a reader processed them", atomic.LoadInt64(&c.EventsMissed))

		gauge("snake_ws_connections", "Active WebSocket connections", float64(atomic.LoadInt64(&c.WSConnectionsActive)))
		fmt.Fprintf(w, "# HELP snake_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE snake_ws_messages_total counter\n")
		fmt.Fprintf(w, "snake_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "snake_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))
		counter("snake_ws_rate_limited_total", "Client commands dropped by the rate limiter", atomic.LoadInt64(&c.WSRateLimited))

		counter("snake_autopilot_decisions_total", "Directions chosen by the autopilot", atomic.LoadInt64(&c.AutopilotDecisions))
	}
}
