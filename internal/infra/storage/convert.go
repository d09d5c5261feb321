package storage

import (
	"encoding/json"
	"fmt"

	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
)

// FromEvent translates an in-memory event to its stored form.
func FromEvent(e events.GameEvent) (GameEvent, error) {
	var payload json.RawMessage
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return GameEvent{}, fmt.Errorf("marshal %s payload: %w", e.Type, err)
		}
		payload = b
	}
	return GameEvent{
		ID:        e.ID,
		Seq:       e.Seq,
		GameID:    e.GameID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		ActorID:   e.ActorID,
		Payload:   payload,
		Tick:      e.Tick,
	}, nil
}

// FromEvents translates a batch, skipping events whose payload cannot be
// encoded.
func FromEvents(in []events.GameEvent) []GameEvent {
	out := make([]GameEvent, 0, len(in))
	for _, e := range in {
		se, err := FromEvent(e)
		if err != nil {
			continue
		}
		out = append(out, se)
	}
	return out
}
