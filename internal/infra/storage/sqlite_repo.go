package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const eventColumns = `id, seq, game_id, timestamp, event_type, actor_id, payload, tick`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payload := string(event.Payload)
	if payload == "" {
		payload = "null"
	}

	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Seq, event.GameID, event.Timestamp, event.EventType,
		event.ActorID, payload, event.Tick,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.Seq, &e.GameID, &e.Timestamp, &e.EventType,
			&e.ActorID, &payloadStr, &e.Tick,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Payload = []byte(payloadStr)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByGameID(ctx context.Context, gameID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE game_id = ? ORDER BY timestamp ASC, seq ASC`
	return r.getMany(ctx, query, gameID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, gameID string, eventType string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE game_id = ? AND event_type = ? ORDER BY timestamp ASC, seq ASC`
	return r.getMany(ctx, query, gameID, eventType)
}

// ---------------------------------------------------------
// SQLiteScoreRepository
// ---------------------------------------------------------

const scoreColumns = `id, game_id, score, length, ticks, food_eaten, reason, autopilot, recorded_at`

type SQLiteScoreRepository struct {
	db *sql.DB
}

func NewSQLiteScoreRepository(db *sql.DB) *SQLiteScoreRepository {
	return &SQLiteScoreRepository{db: db}
}

func (r *SQLiteScoreRepository) Insert(ctx context.Context, s Score) (int64, error) {
	query := `
		INSERT INTO scores (game_id, score, length, ticks, food_eaten, reason, autopilot, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		s.GameID, s.Score, s.Length, s.Ticks, s.FoodEaten, s.Reason, s.Autopilot, s.RecordedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert score: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteScoreRepository) Top(ctx context.Context, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + scoreColumns + ` FROM scores ORDER BY score DESC, recorded_at ASC, id ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	scores := make([]Score, 0, limit)
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *SQLiteScoreRepository) BestForGame(ctx context.Context, gameID string) (*Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE game_id = ? ORDER BY score DESC, id ASC LIMIT 1`
	s, err := scanScore(r.db.QueryRowContext(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(row scanner) (Score, error) {
	var s Score
	err := row.Scan(&s.ID, &s.GameID, &s.Score, &s.Length, &s.Ticks, &s.FoodEaten, &s.Reason, &s.Autopilot, &s.RecordedAt)
	return s, err
}

// ---------------------------------------------------------
// SQLiteGameRepository
// ---------------------------------------------------------

const gameColumns = `id, board_size, status, score, rounds, removed, created_at, updated_at`

type SQLiteGameRepository struct {
	db *sql.DB
}

func NewSQLiteGameRepository(db *sql.DB) *SQLiteGameRepository {
	return &SQLiteGameRepository{db: db}
}

func (r *SQLiteGameRepository) Upsert(ctx context.Context, g GameRow) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			board_size=excluded.board_size,
			status=excluded.status,
			score=excluded.score,
			rounds=excluded.rounds,
			removed=excluded.removed,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.BoardSize, g.Status, g.Score, g.Rounds, g.Removed, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}
	return nil
}

func (r *SQLiteGameRepository) Get(ctx context.Context, id string) (*GameRow, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = ?`
	g, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *SQLiteGameRepository) List(ctx context.Context, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY updated_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(row scanner) (GameRow, error) {
	var g GameRow
	err := row.Scan(&g.ID, &g.BoardSize, &g.Status, &g.Score, &g.Rounds, &g.Removed, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// Ensure the SQLite repositories implement their interfaces
var (
	_ EventRepository = (*SQLiteEventRepository)(nil)
	_ ScoreRepository = (*SQLiteScoreRepository)(nil)
	_ GameRepository  = (*SQLiteGameRepository)(nil)
)
