package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "snake.db"), PoolOptions{MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEventRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteEventRepository(openTestDB(t))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []GameEvent{
		{ID: "e1", Seq: 1, GameID: "G1", Timestamp: base, EventType: "GAME_STARTED", ActorID: "PLAYER", Payload: []byte(`{"status":"started","board_size":20}`)},
		{ID: "e2", Seq: 2, GameID: "G1", Timestamp: base.Add(time.Second), EventType: "FOOD_EATEN", ActorID: "SYSTEM", Payload: []byte(`{"cell":{"top":5,"left":5},"score":1}`), Tick: 3},
		{ID: "e3", Seq: 3, GameID: "G2", Timestamp: base.Add(time.Second), EventType: "GAME_STARTED", ActorID: "PLAYER"},
	}
	for _, e := range events {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append %s failed: %v", e.ID, err)
		}
	}

	got, err := repo.GetByGameID(ctx, "G1")
	if err != nil {
		t.Fatalf("GetByGameID failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
		t.Fatalf("Unexpected events for G1: %+v", got)
	}
	if got[1].Tick != 3 || string(got[1].Payload) != `{"cell":{"top":5,"left":5},"score":1}` {
		t.Errorf("Event fields not preserved: %+v", got[1])
	}
	if !got[0].Timestamp.Equal(base) {
		t.Errorf("Expected timestamp %v, got %v", base, got[0].Timestamp)
	}

	eaten, err := repo.GetByEventType(ctx, "G1", "FOOD_EATEN")
	if err != nil || len(eaten) != 1 {
		t.Errorf("Expected one FOOD_EATEN event, got %d (%v)", len(eaten), err)
	}

	if err := repo.Append(ctx, events[0]); err == nil {
		t.Errorf("Duplicate event ID must be rejected")
	}
}

func TestScoreRepositoryRanking(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteScoreRepository(openTestDB(t))

	now := time.Now().UTC()
	for i, s := range []Score{
		{GameID: "A", Score: 3, Reason: "self_collision", RecordedAt: now},
		{GameID: "B", Score: 9, Reason: "player", RecordedAt: now.Add(time.Second)},
		{GameID: "A", Score: 7, Reason: "self_collision", Autopilot: true, RecordedAt: now.Add(2 * time.Second)},
	} {
		id, err := repo.Insert(ctx, s)
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
		if id != int64(i+1) {
			t.Errorf("Expected row id %d, got %d", i+1, id)
		}
	}

	top, err := repo.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(top) != 2 || top[0].Score != 9 || top[1].Score != 7 {
		t.Fatalf("Unexpected ranking: %+v", top)
	}
	if !top[1].Autopilot {
		t.Errorf("Autopilot flag lost")
	}

	best, err := repo.BestForGame(ctx, "A")
	if err != nil || best == nil || best.Score != 7 {
		t.Errorf("Expected best 7 for A, got %+v (%v)", best, err)
	}
	none, err := repo.BestForGame(ctx, "Z")
	if err != nil || none != nil {
		t.Errorf("Expected nil for unknown game, got %+v (%v)", none, err)
	}
}

func TestGameRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteGameRepository(openTestDB(t))

	created := time.Now().UTC().Truncate(time.Second)
	row := GameRow{ID: "G1", BoardSize: 20, Status: "stopped", CreatedAt: created, UpdatedAt: created}
	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	row.Status = "started"
	row.Rounds = 1
	row.UpdatedAt = created.Add(time.Minute)
	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, err := repo.Get(ctx, "G1")
	if err != nil || got == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != "started" || got.Rounds != 1 || !got.CreatedAt.Equal(created) {
		t.Errorf("Unexpected row %+v", got)
	}

	list, err := repo.List(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Errorf("Expected one listed game, got %d (%v)", len(list), err)
	}
	if missing, _ := repo.Get(ctx, "nope"); missing != nil {
		t.Errorf("Expected nil for unknown game")
	}
}

func TestReconstructorSummary(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteEventRepository(openTestDB(t))

	base := time.Now().UTC()
	seq := uint64(0)
	add := func(typ, payload string) {
		seq++
		e := GameEvent{
			ID:        "e" + string(rune('a'+seq)),
			Seq:       seq,
			GameID:    "G1",
			Timestamp: base.Add(time.Duration(seq) * time.Millisecond),
			EventType: typ,
			ActorID:   "PLAYER",
			Payload:   []byte(payload),
		}
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	add("GAME_CREATED", `{"status":"stopped","board_size":20}`)
	add("GAME_STARTED", `{"status":"started","board_size":20}`)
	add("SNAKE_MOVED", `{}`)
	add("FOOD_EATEN", `{"cell":{"top":5,"left":5},"score":1}`)
	add("SNAKE_MOVED", `{}`)
	add("DIRECTION_CHANGED", `{"from":"right","to":"down"}`)
	add("GAME_STOPPED", `{"final_score":1,"reason":"self_collision"}`)
	add("GAME_STARTED", `{"status":"started","board_size":20}`)
	add("GAME_STOPPED", `{"final_score":0,"reason":"player"}`)

	r := NewReconstructor(repo)
	s, err := r.RebuildGame(ctx, "G1")
	if err != nil {
		t.Fatalf("RebuildGame failed: %v", err)
	}
	if s.Rounds != 2 || s.Moves != 2 || s.FoodEaten != 1 || s.DirectionChanges != 1 {
		t.Errorf("Unexpected counters %+v", s)
	}
	if s.BestScore != 1 || s.LastScore != 0 || s.LastStatus != "stopped" {
		t.Errorf("Unexpected scores %+v", s)
	}
	if s.StopReasons["self_collision"] != 1 || s.StopReasons["player"] != 1 {
		t.Errorf("Unexpected stop reasons %v", s.StopReasons)
	}

	recap, err := r.GenerateRecap(ctx, "G1", false)
	if err != nil {
		t.Fatalf("GenerateRecap failed: %v", err)
	}
	if len(recap) != 7 {
		t.Fatalf("Expected 7 recap entries without moves, got %d", len(recap))
	}
	if recap[3].Summary != "PLAYER turned right -> down." {
		t.Errorf("Unexpected summary %q", recap[3].Summary)
	}
}
