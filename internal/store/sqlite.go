package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteDB implements Leaderboard on a SQLite file.
type SQLiteDB struct {
	db       *sql.DB
	capacity int
}

// NewSQLiteDB opens (or creates) the database at path. Call Migrate before use.
func NewSQLiteDB(path string, capacity int) (*SQLiteDB, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return &SQLiteDB{db: db, capacity: capacity}, nil
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteDB) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores(score DESC, seq ASC)`,
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// Submit inserts the entry and prunes everything ranked below capacity
// in the same transaction.
func (s *SQLiteDB) Submit(ctx context.Context, e Entry) (Entry, error) {
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	e = stamp(e, uuid.NewString(), time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("store: begin submit: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scores(id, name, score, created_at) VALUES(?, ?, ?, ?)`,
		e.ID, e.Name, e.Score, e.Date); err != nil {
		if isConstraintErr(err) {
			return Entry{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidEntry, e.ID)
		}
		return Entry{}, fmt.Errorf("store: insert score: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM scores WHERE seq NOT IN (
			SELECT seq FROM scores ORDER BY score DESC, seq ASC LIMIT ?
		)`, s.capacity); err != nil {
		return Entry{}, fmt.Errorf("store: prune scores: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("store: commit submit: %w", err)
	}
	return e, nil
}

func (s *SQLiteDB) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = s.capacity
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, created_at FROM scores ORDER BY score DESC, seq ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: query top: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.Date); err != nil {
			return nil, fmt.Errorf("store: scan entry: %w", err)
		}
		e.Date = e.Date.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "unique constraint")
}
