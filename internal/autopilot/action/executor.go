// Package action provides the "hands" of the autopilot.
//
// Decisions become ordinary direction changes, recorded in the EventLog
// with the AUTOPILOT actor like any player command.
package action

import (
	"fmt"

	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot/cognition"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/snake"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// Steerer is the part of a session the executor needs.
type Steerer interface {
	ChangeDirection(d snake.Direction, actor string) (bool, error)
}

// Executor translates Cognition decisions into game commands.
type Executor struct {
	logger  *logger.Logger
	metrics *metrics.Collector
}

// NewExecutor creates a new action executor.
func NewExecutor(log *logger.Logger, m *metrics.Collector) *Executor {
	return &Executor{logger: log, metrics: m}
}

// Execute applies the decision. It reports whether the direction changed.
func (e *Executor) Execute(s Steerer, current snake.Direction, decision *cognition.Decision) (bool, error) {
	e.metrics.RecordAutopilotDecision()

	if decision.Direction == current {
		return false, nil
	}
	ok, err := s.ChangeDirection(decision.Direction, events.ActorAutopilot)
	if err != nil {
		return false, fmt.Errorf("autopilot steer %s: %w", decision.Direction, err)
	}
	if !ok {
		e.logger.Warn("ACTION: autopilot turn " + string(decision.Direction) + " rejected in game " + decision.GameID)
	}
	return ok, nil
}
