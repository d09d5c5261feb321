// Package events provides the event log for the game server.
// Every command and every tick of every game is recorded here; the engine,
// the WebSocket hub and the autopilot all tail it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeGameCreated      EventType = "GAME_CREATED"
	EventTypeGameStarted      EventType = "GAME_STARTED"
	EventTypeGamePaused       EventType = "GAME_PAUSED"
	EventTypeGameResumed      EventType = "GAME_RESUMED"
	EventTypeGameStopped      EventType = "GAME_STOPPED"
	EventTypeGameRemoved      EventType = "GAME_REMOVED"
	EventTypeDirectionChanged EventType = "DIRECTION_CHANGED"
	EventTypeSnakeMoved       EventType = "SNAKE_MOVED"
	EventTypeFoodEaten        EventType = "FOOD_EATEN"
	EventTypeFoodSpawned      EventType = "FOOD_SPAWNED"
	EventTypeSelfCollision    EventType = "SELF_COLLISION"
	EventTypeAutopilotToggled EventType = "AUTOPILOT_TOGGLED"
)

// Actors that are not players.
const (
	ActorSystem    = "SYSTEM"
	ActorPlayer    = "PLAYER"
	ActorAutopilot = "AUTOPILOT"
)

// DefaultRetention is how many events the in-memory log keeps.
const DefaultRetention = 50000

// GameEvent represents an immutable record of something that happened to a game.
type GameEvent struct {
	ID        string      `json:"id"`
	Seq       uint64      `json:"seq"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	GameID    string      `json:"game_id"`
	ActorID   string      `json:"actor_id"`
	Payload   interface{} `json:"payload"`
	Tick      uint64      `json:"tick"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events.
// Only the newest events are kept; sequence numbers keep counting up.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	nextSeq   uint64
	retention int
	changed   chan struct{}
	persister EventPersister
	onPersist func(error)

	// Write-throughs still running, and whether Flush has stopped new ones.
	inflight sync.WaitGroup
	flushed  bool
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		nextSeq:   1,
		retention: DefaultRetention,
		changed:   make(chan struct{}),
		persister: persister,
	}
}

// SetRetention changes how many events are kept in memory.
func (el *EventLog) SetRetention(n int) {
	if n <= 0 {
		return
	}
	el.mu.Lock()
	el.retention = n
	el.trimLocked()
	el.mu.Unlock()
}

// OnPersist registers a callback that receives the outcome of every
// write-through to the persister.
func (el *EventLog) OnPersist(fn func(error)) {
	el.mu.Lock()
	el.onPersist = fn
	el.mu.Unlock()
}

// Append adds a new event to the log and returns it with its ID, sequence
// number and timestamp filled in.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Seq = el.nextSeq
	el.nextSeq++
	el.events = append(el.events, event)
	el.trimLocked()

	// Wake up everyone waiting on the previous channel.
	close(el.changed)
	el.changed = make(chan struct{})

	persister, onPersist := el.persister, el.onPersist
	if el.flushed {
		persister = nil
	}
	if persister != nil {
		el.inflight.Add(1)
	}
	el.mu.Unlock()

	if persister != nil {
		// Write through to persistent storage
		go func(e GameEvent) {
			defer el.inflight.Done()
			err := persister.Append(e)
			if onPersist != nil {
				onPersist(err)
			}
		}(event)
	}
	return event
}

// Flush waits for pending write-throughs. Events appended afterwards stay
// in memory only, so the persister's storage can be closed once it returns.
func (el *EventLog) Flush() {
	el.mu.Lock()
	el.flushed = true
	el.mu.Unlock()
	el.inflight.Wait()
}

func (el *EventLog) trimLocked() {
	if over := len(el.events) - el.retention; over > 0 {
		kept := make([]GameEvent, el.retention)
		copy(kept, el.events[over:])
		el.events = kept
	}
}

// Changed returns a channel that is closed on the next Append.
func (el *EventLog) Changed() <-chan struct{} {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.changed
}

// LastSeq returns the sequence number of the newest event, or 0.
func (el *EventLog) LastSeq() uint64 {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.nextSeq - 1
}

// Since returns a copy of the retained events with Seq greater than seq.
func (el *EventLog) Since(seq uint64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	if len(el.events) == 0 {
		return nil
	}
	first := el.events[0].Seq
	start := 0
	if seq >= first {
		start = int(seq - first + 1)
	}
	if start >= len(el.events) {
		return nil
	}
	out := make([]GameEvent, len(el.events)-start)
	copy(out, el.events[start:])
	return out
}

// Missed reports how many events after seq were trimmed before batch, the
// result of Since(seq), was read.
func Missed(seq uint64, batch []GameEvent) uint64 {
	if len(batch) == 0 || batch[0].Seq <= seq+1 {
		return 0
	}
	return batch[0].Seq - seq - 1
}

// GetByGame returns the retained events of one game.
func (el *EventLog) GetByGame(gameID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.GameID == gameID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns the retained events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of every retained event.
func (el *EventLog) Replay() []GameEvent {
	return el.Since(0)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
