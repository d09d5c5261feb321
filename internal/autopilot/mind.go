// Package autopilot steers games whose players handed over control.
// It coordinates Perception, Cognition and Action once per snake move.
package autopilot

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot/action"
	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot/cognition"
	"github.com/MRamiBalles/SnakeWeb/server/internal/autopilot/perception"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/game"
	"github.com/MRamiBalles/SnakeWeb/server/internal/engine"
	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/metrics"
)

// Mind is the autopilot orchestrator.
type Mind struct {
	engine    *engine.Engine
	perceiver *perception.Perceiver
	cognitor  *cognition.Cognitor
	executor  *action.Executor
	logger    *logger.Logger
	metrics   *metrics.Collector

	lastProcessedSeq uint64
}

// NewMind creates the autopilot.
func NewMind(eng *engine.Engine, log *logger.Logger, m *metrics.Collector) *Mind {
	return &Mind{
		engine:    eng,
		perceiver: perception.NewPerceiver(log),
		cognitor:  cognition.NewCognitor(log),
		executor:  action.NewExecutor(log, m),
		logger:    log,
		metrics:   m,
	}
}

// Run reacts to moves of autopilot games until ctx ends.
func (m *Mind) Run(ctx context.Context) error {
	m.logger.Info("Autopilot ready.")
	el := m.engine.GetEventLog()
	m.lastProcessedSeq = el.LastSeq()

	for {
		changed := el.Changed()
		batch := el.Since(m.lastProcessedSeq)
		if missed := events.Missed(m.lastProcessedSeq, batch); missed > 0 {
			m.metrics.RecordEventsMissed(missed)
			m.logger.Warn(fmt.Sprintf("Autopilot fell behind: %d events trimmed before seq %d", missed, batch[0].Seq))
		}
		for _, e := range batch {
			m.lastProcessedSeq = e.Seq
			if !triggers(e) {
				continue
			}
			s, err := m.engine.Game(e.GameID)
			if err != nil || !s.Autopilot() {
				continue
			}
			if _, err := m.Drive(s); err != nil {
				m.logger.Debug("autopilot: " + err.Error())
			}
		}

		select {
		case <-ctx.Done():
			m.logger.Info("Autopilot stopped.")
			return nil
		case <-changed:
		}
	}
}

func triggers(e events.GameEvent) bool {
	switch e.Type {
	case events.EventTypeSnakeMoved, events.EventTypeGameStarted, events.EventTypeGameResumed:
		return true
	case events.EventTypeAutopilotToggled:
		p, ok := e.Payload.(events.AutopilotPayload)
		return ok && p.Enabled
	}
	return false
}

// Drive runs one PERCEIVE -> DECIDE -> ACT cycle on a session.
func (m *Mind) Drive(s *engine.Session) (*cognition.Decision, error) {
	// 1. PERCEIVE
	snap := s.Snapshot()
	if snap.Status == game.StatusStopped {
		return nil, nil
	}
	view, err := m.perceiver.BuildBoardView(snap)
	if err != nil {
		return nil, err
	}

	// 2. COGNITION
	decision := m.cognitor.Decide(view)

	// 3. ACTION
	if _, err := m.executor.Execute(s, snap.Direction, decision); err != nil {
		return decision, err
	}
	return decision, nil
}
