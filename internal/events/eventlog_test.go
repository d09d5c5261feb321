package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingPersister struct {
	mu     sync.Mutex
	events []GameEvent
	err    error
}

func (p *recordingPersister) Append(e GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestAppendAssignsSequenceAndID(t *testing.T) {
	el := NewEventLog(nil)

	first := el.Append(GameEvent{Type: EventTypeGameCreated, GameID: "G1"})
	second := el.Append(GameEvent{Type: EventTypeGameStarted, GameID: "G1"})

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("Expected sequence 1,2 got %d,%d", first.Seq, second.Seq)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Errorf("Expected distinct generated IDs, got %q and %q", first.ID, second.ID)
	}
	if first.Timestamp.IsZero() {
		t.Errorf("Expected a timestamp to be filled in")
	}
	if el.LastSeq() != 2 {
		t.Errorf("Expected LastSeq 2, got %d", el.LastSeq())
	}
}

func TestSinceReturnsOnlyNewerEvents(t *testing.T) {
	el := NewEventLog(nil)
	for i := 0; i < 5; i++ {
		el.Append(GameEvent{Type: EventTypeSnakeMoved, GameID: "G1"})
	}

	got := el.Since(3)
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Errorf("Since(3) returned %d events starting at %v", len(got), got)
	}
	if len(el.Since(5)) != 0 {
		t.Errorf("Since(last) should be empty")
	}
}

func TestRetentionKeepsNewestAndSequence(t *testing.T) {
	el := NewEventLog(nil)
	el.SetRetention(3)

	for i := 0; i < 10; i++ {
		el.Append(GameEvent{Type: EventTypeSnakeMoved, GameID: "G1"})
	}

	all := el.Replay()
	if len(all) != 3 {
		t.Fatalf("Expected 3 retained events, got %d", len(all))
	}
	if all[0].Seq != 8 || all[2].Seq != 10 {
		t.Errorf("Expected sequences 8..10, got %d..%d", all[0].Seq, all[2].Seq)
	}

	// A reader that fell behind the retention window resumes at the oldest kept event.
	if got := el.Since(2); len(got) != 3 || got[0].Seq != 8 {
		t.Errorf("Since(2) after trimming returned %v", got)
	}
}

func TestChangedIsClosedOnAppend(t *testing.T) {
	el := NewEventLog(nil)
	ch := el.Changed()

	select {
	case <-ch:
		t.Fatalf("Changed fired before any append")
	default:
	}

	el.Append(GameEvent{Type: EventTypeGameCreated})

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("Changed was not closed by Append")
	}
}

func TestFilters(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(GameEvent{Type: EventTypeGameCreated, GameID: "A"})
	el.Append(GameEvent{Type: EventTypeGameCreated, GameID: "B"})
	el.Append(GameEvent{Type: EventTypeFoodEaten, GameID: "A"})

	if n := len(el.GetByGame("A")); n != 2 {
		t.Errorf("Expected 2 events for game A, got %d", n)
	}
	if n := len(el.GetByType(EventTypeGameCreated)); n != 2 {
		t.Errorf("Expected 2 GAME_CREATED events, got %d", n)
	}
}

func TestPersisterReceivesEvents(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	el := NewEventLog(p)

	results := make(chan error, 2)
	el.OnPersist(func(err error) { results <- err })

	el.Append(GameEvent{Type: EventTypeGameCreated, GameID: "G1"})
	el.Append(GameEvent{Type: EventTypeGameStarted, GameID: "G1"})

	for i := 0; i < 2; i++ {
		select {
		case err := <-results:
			if err == nil {
				t.Errorf("Expected the persister error to be reported")
			}
		case <-time.After(time.Second):
			t.Fatalf("Persister callback %d not called", i)
		}
	}
	if p.count() != 2 {
		t.Errorf("Expected 2 persisted events, got %d", p.count())
	}
}

func TestMissedAfterTrim(t *testing.T) {
	el := NewEventLog(nil)
	el.SetRetention(3)
	for i := 0; i < 10; i++ {
		el.Append(GameEvent{Type: EventTypeSnakeMoved, GameID: "G1"})
	}

	if got := Missed(2, el.Since(2)); got != 5 {
		t.Errorf("Expected 5 missed events after seq 2, got %d", got)
	}
	if got := Missed(7, el.Since(7)); got != 0 {
		t.Errorf("Expected nothing missed after seq 7, got %d", got)
	}
	if got := Missed(10, el.Since(10)); got != 0 {
		t.Errorf("Expected nothing missed at the head, got %d", got)
	}
}

type slowPersister struct {
	recordingPersister
	delay time.Duration
}

func (p *slowPersister) Append(e GameEvent) error {
	time.Sleep(p.delay)
	return p.recordingPersister.Append(e)
}

func TestFlushWaitsForPendingWrites(t *testing.T) {
	// Setup
	p := &slowPersister{delay: 20 * time.Millisecond}
	el := NewEventLog(p)
	for i := 0; i < 5; i++ {
		el.Append(GameEvent{Type: EventTypeSnakeMoved, GameID: "G1"})
	}

	// Act
	el.Flush()

	// Assert
	if got := p.count(); got != 5 {
		t.Errorf("Expected 5 persisted events after Flush, got %d", got)
	}
	el.Append(GameEvent{Type: EventTypeGameStopped, GameID: "G1"})
	time.Sleep(40 * time.Millisecond)
	if got := p.count(); got != 5 {
		t.Errorf("Events after Flush must stay in memory, persisted %d", got)
	}
	if el.LastSeq() != 6 {
		t.Errorf("Expected the late event in memory, LastSeq %d", el.LastSeq())
	}
}
