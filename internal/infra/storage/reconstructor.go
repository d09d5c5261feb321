package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Reconstructor rebuilds game summaries from the event log.
// State = f(events): the summary is never stored, only derived.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// GameSummary is what the event log says about one game.
type GameSummary struct {
	GameID           string         `json:"game_id"`
	Events           int            `json:"events"`
	Rounds           int            `json:"rounds"`
	Moves            int            `json:"moves"`
	FoodEaten        int            `json:"food_eaten"`
	DirectionChanges int            `json:"direction_changes"`
	BestScore        int            `json:"best_score"`
	LastScore        int            `json:"last_score"`
	LastStatus       string         `json:"last_status"`
	StopReasons      map[string]int `json:"stop_reasons"`
	Removed          bool           `json:"removed"`
}

// RecapEvent is a simplified event for replay views.
type RecapEvent struct {
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Tick      uint64 `json:"tick"`
	Summary   string `json:"summary"`
}

type stoppedFields struct {
	FinalScore int    `json:"final_score"`
	Reason     string `json:"reason"`
}

type statusFields struct {
	Status string `json:"status"`
}

type directionFields struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type cellFields struct {
	Cell struct {
		Top  int `json:"top"`
		Left int `json:"left"`
	} `json:"cell"`
	Score int `json:"score"`
}

// RebuildGame reconstructs a game's summary from its stored events.
func (r *Reconstructor) RebuildGame(ctx context.Context, gameID string) (*GameSummary, error) {
	events, err := r.eventRepo.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for game: %w", err)
	}
	return Summarize(gameID, events), nil
}

// Summarize folds events in order into a summary.
func Summarize(gameID string, events []GameEvent) *GameSummary {
	s := &GameSummary{
		GameID:      gameID,
		StopReasons: make(map[string]int),
	}
	for _, e := range events {
		s.Events++
		switch e.EventType {
		case "GAME_CREATED", "GAME_PAUSED", "GAME_RESUMED":
			var p statusFields
			if json.Unmarshal(e.Payload, &p) == nil && p.Status != "" {
				s.LastStatus = p.Status
			}
		case "GAME_STARTED":
			s.Rounds++
			s.LastStatus = "started"
		case "GAME_STOPPED":
			var p stoppedFields
			if json.Unmarshal(e.Payload, &p) == nil {
				s.LastScore = p.FinalScore
				if p.FinalScore > s.BestScore {
					s.BestScore = p.FinalScore
				}
				if p.Reason != "" {
					s.StopReasons[p.Reason]++
				}
			}
			s.LastStatus = "stopped"
		case "GAME_REMOVED":
			s.Removed = true
		case "SNAKE_MOVED":
			s.Moves++
		case "FOOD_EATEN":
			s.FoodEaten++
		case "DIRECTION_CHANGED":
			s.DirectionChanges++
		}
	}
	return s
}

// GenerateRecap creates a readable timeline of a stored game. Moves are
// skipped unless includeMoves is set.
func (r *Reconstructor) GenerateRecap(ctx context.Context, gameID string, includeMoves bool) ([]RecapEvent, error) {
	events, err := r.eventRepo.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return Recap(events, includeMoves), nil
}

// Recap turns events into timeline entries.
func Recap(events []GameEvent, includeMoves bool) []RecapEvent {
	recap := make([]RecapEvent, 0, len(events))
	for _, e := range events {
		if e.EventType == "SNAKE_MOVED" && !includeMoves {
			continue
		}
		recap = append(recap, RecapEvent{
			Seq:       e.Seq,
			Timestamp: e.Timestamp.Format("15:04:05.000"),
			EventType: e.EventType,
			Tick:      e.Tick,
			Summary:   summarizeEvent(e),
		})
	}
	return recap
}

func summarizeEvent(e GameEvent) string {
	switch e.EventType {
	case "GAME_CREATED":
		return "Game created."
	case "GAME_STARTED":
		return "New round started by " + e.ActorID + "."
	case "GAME_PAUSED":
		return "Paused by " + e.ActorID + "."
	case "GAME_RESUMED":
		return "Resumed by " + e.ActorID + "."
	case "GAME_STOPPED":
		var p stoppedFields
		_ = json.Unmarshal(e.Payload, &p)
		return fmt.Sprintf("Game over with %d points (%s).", p.FinalScore, p.Reason)
	case "GAME_REMOVED":
		return "Game removed."
	case "DIRECTION_CHANGED":
		var p directionFields
		_ = json.Unmarshal(e.Payload, &p)
		return fmt.Sprintf("%s turned %s -> %s.", e.ActorID, p.From, p.To)
	case "FOOD_EATEN":
		var p cellFields
		_ = json.Unmarshal(e.Payload, &p)
		return fmt.Sprintf("Ate food at %d:%d, score %d.", p.Cell.Top, p.Cell.Left, p.Score)
	case "FOOD_SPAWNED":
		var p cellFields
		_ = json.Unmarshal(e.Payload, &p)
		return fmt.Sprintf("Food appeared at %d:%d.", p.Cell.Top, p.Cell.Left)
	case "SELF_COLLISION":
		var p cellFields
		_ = json.Unmarshal(e.Payload, &p)
		return fmt.Sprintf("Snake bit itself at %d:%d.", p.Cell.Top, p.Cell.Left)
	case "AUTOPILOT_TOGGLED":
		return "Autopilot toggled."
	case "SNAKE_MOVED":
		return "Moved."
	default:
		return "Something happened."
	}
}
