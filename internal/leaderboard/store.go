package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrClosed = errors.New("leaderboard: store closed")

const (
	DefaultRetainLimit = 50
	DefaultTopLimit    = 10
	MaxTopLimit        = 100
)

const createRecordsTableSQL = `
CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    player_name TEXT NOT NULL,
    score INTEGER NOT NULL,
    snake_length INTEGER NOT NULL,
    food_eaten INTEGER NOT NULL,
    game_mode TEXT NOT NULL DEFAULT 'classic',
    field_size TEXT NOT NULL DEFAULT 'medium',
    created_at INTEGER NOT NULL
);
`

const createRecordsUniqueIndexSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_records_unique
ON records (player_name, score, game_mode, field_size);
`

const createRecordsTopIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_records_top
ON records (game_mode, field_size, score DESC);
`

// Record is one leaderboard row.
type Record struct {
	ID          int64     `json:"id"`
	PlayerName  string    `json:"player_name"`
	Score       int       `json:"score"`
	SnakeLength int       `json:"snake_length"`
	FoodEaten   int       `json:"food_eaten"`
	GameMode    string    `json:"game_mode"`
	FieldSize   string    `json:"field_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// SQLiteStore persists records with database/sql over go-sqlite3.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	retain atomic.Int64
	closed atomic.Bool
}

// Open creates or opens the database at path. ":memory:" is accepted and is
// pinned to a single connection so every query sees the same database.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("leaderboard: empty database path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard database: %w", err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	store := &SQLiteStore{db: db, now: time.Now}
	store.retain.Store(DefaultRetainLimit)
	if err := store.initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	for _, stmt := range []string{createRecordsTableSQL, createRecordsUniqueIndexSQL, createRecordsTopIndexSQL} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initialize leaderboard schema: %w", err)
		}
	}
	return nil
}

// SetClock overrides the timestamp source.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SetRetainLimit changes how many records Cleanup keeps. Values below one
// restore the default.
func (s *SQLiteStore) SetRetainLimit(limit int) {
	if limit < 1 {
		limit = DefaultRetainLimit
	}
	s.retain.Store(int64(limit))
}

func (s *SQLiteStore) RetainLimit() int {
	return int(s.retain.Load())
}

// AddRecord inserts rec. A record with the same player name, score, mode and
// field size as an existing one is rejected: the call returns ok=false and no
// error.
func (s *SQLiteStore) AddRecord(ctx context.Context, rec Record) (int64, bool, error) {
	if s.closed.Load() {
		return 0, false, ErrClosed
	}
	if rec.GameMode == "" {
		rec.GameMode = "classic"
	}
	if rec.FieldSize == "" {
		rec.FieldSize = "medium"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records (player_name, score, snake_length, food_eaten, game_mode, field_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.PlayerName, rec.Score, rec.SnakeLength, rec.FoodEaten, rec.GameMode, rec.FieldSize, s.now().UnixMilli())
	if err != nil {
		return 0, false, fmt.Errorf("insert record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert record: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("insert record: %w", err)
	}
	return id, true, nil
}

// Top returns the best records of one mode and field size, newest first
// among equal scores.
func (s *SQLiteStore) Top(ctx context.Context, limit int, mode, size string) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_name, score, snake_length, food_eaten, game_mode, field_size, created_at
		 FROM records
		 WHERE game_mode = ? AND field_size = ?
		 ORDER BY score DESC, created_at DESC, id DESC
		 LIMIT ?`, mode, size, limit)
	if err != nil {
		return nil, fmt.Errorf("query top records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var created int64
		if err := rows.Scan(&rec.ID, &rec.PlayerName, &rec.Score, &rec.SnakeLength, &rec.FoodEaten, &rec.GameMode, &rec.FieldSize, &created); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Cleanup deletes everything outside the best RetainLimit records across all
// modes and returns how many rows were removed.
func (s *SQLiteStore) Cleanup(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE id NOT IN (
		     SELECT id FROM records ORDER BY score DESC, created_at DESC, id DESC LIMIT ?
		 )`, s.retain.Load())
	if err != nil {
		return 0, fmt.Errorf("cleanup records: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup records: %w", err)
	}
	return removed, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
