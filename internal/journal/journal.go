// Package journal records planning calls in a SQLite database.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/goap/internal/goap"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal: closed")

// timeFormat sorts lexically in UTC.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded planning call.
type Entry struct {
	ID        uuid.UUID
	Agent     string
	Goal      string
	Outcome   goap.Outcome
	Actions   []string
	Cost      int
	Expanded  int
	Start     goap.WorldState
	Target    goap.WorldState
	CreatedAt time.Time
}

// Journal is a plan journal backed by SQLite. It is safe for concurrent use.
type Journal struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens or creates the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("journal: %s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			goal TEXT NOT NULL,
			outcome TEXT NOT NULL,
			actions TEXT NOT NULL,
			cost INTEGER NOT NULL,
			expanded INTEGER NOT NULL,
			start_value INTEGER NOT NULL,
			start_care INTEGER NOT NULL,
			goal_value INTEGER NOT NULL,
			goal_care INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_plans_agent_created ON plans(agent, created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("journal: schema: %w", err)
		}
	}
	return nil
}

// Record stores e. A zero ID or CreatedAt is filled in; the stored entry is
// returned.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if j.closed.Load() {
		return Entry{}, ErrClosed
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if e.Actions == nil {
		e.Actions = []string{}
	}
	actions, err := json.Marshal(e.Actions)
	if err != nil {
		return Entry{}, err
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO plans (id, agent, goal, outcome, actions, cost, expanded,
			start_value, start_care, goal_value, goal_care, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Agent, e.Goal, e.Outcome.String(), string(actions), e.Cost, e.Expanded,
		int64(e.Start.Value), int64(e.Start.Care), int64(e.Target.Value), int64(e.Target.Care),
		e.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: record: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return j.query(ctx, "", limit)
}

// RecentFor is Recent restricted to one agent.
func (j *Journal) RecentFor(ctx context.Context, agent string, limit int) ([]Entry, error) {
	return j.query(ctx, agent, limit)
}

func (j *Journal) query(ctx context.Context, agent string, limit int) ([]Entry, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	q := `SELECT id, agent, goal, outcome, actions, cost, expanded,
		start_value, start_care, goal_value, goal_care, created_at FROM plans`
	var args []any
	if agent != "" {
		q += ` WHERE agent = ?`
		args = append(args, agent)
	}
	q += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e                 Entry
		id, outcome, acts string
		created           string
		sv, sc, gv, gc    int64
	)
	if err := rows.Scan(&id, &e.Agent, &e.Goal, &outcome, &acts, &e.Cost, &e.Expanded,
		&sv, &sc, &gv, &gc, &created); err != nil {
		return Entry{}, fmt.Errorf("journal: scan: %w", err)
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return Entry{}, fmt.Errorf("journal: id %q: %w", id, err)
	}
	var ok bool
	if e.Outcome, ok = goap.ParseOutcome(outcome); !ok {
		return Entry{}, fmt.Errorf("journal: unknown outcome %q", outcome)
	}
	if err := json.Unmarshal([]byte(acts), &e.Actions); err != nil {
		return Entry{}, fmt.Errorf("journal: actions: %w", err)
	}
	if e.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return Entry{}, fmt.Errorf("journal: created_at: %w", err)
	}
	e.Start = goap.WorldState{Value: uint32(sv), Care: uint32(sc)}
	e.Target = goap.WorldState{Value: uint32(gv), Care: uint32(gc)}
	return e, nil
}

// Close closes the database. Further calls return ErrClosed.
func (j *Journal) Close() error {
	if !j.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return j.db.Close()
}
