// Package ledger keeps a SQLite record of finished runs.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/lukaszgryglicki/butterbrot/internal/butterbrot"
)

// Entry is one recorded run.
type Entry struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Width      int
	Height     int
	Corner1    butterbrot.Complex
	Corner2    butterbrot.Complex
	Threads    int
	Samples    int
	Iterations int
	Warmup     int
	Accepted   int64
	Points     uint64
	Completed  bool
	TimedOut   bool
	Output     string
}

// NewEntry describes the run res of cfg, stored at output.
func NewEntry(cfg butterbrot.Config, res *butterbrot.Result, output string) Entry {
	return Entry{
		ID:         res.ID,
		StartedAt:  res.Started,
		FinishedAt: res.Started.Add(res.Elapsed),
		Width:      cfg.Width,
		Height:     cfg.Height,
		Corner1:    cfg.Corner1,
		Corner2:    cfg.Corner2,
		Threads:    cfg.Threads,
		Samples:    cfg.Samples,
		Iterations: cfg.Iterations,
		Warmup:     cfg.Warmup,
		Accepted:   res.Accepted,
		Points:     res.Points,
		Completed:  res.Completed,
		TimedOut:   res.TimedOut,
		Output:     output,
	}
}

// Ledger is a handle on the runs table.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if path == "" {
		path = "butterbrot.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer, sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		corners TEXT NOT NULL,
		threads INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		warmup INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		points INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		timed_out INTEGER NOT NULL,
		output TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

type corners struct {
	Corner1 butterbrot.Complex `json:"corner1"`
	Corner2 butterbrot.Complex `json:"corner2"`
}

// Record inserts e.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	cs, err := json.Marshal(corners{e.Corner1, e.Corner2})
	if err != nil {
		return err
	}
	points := int64(math.MaxInt64)
	if e.Points < math.MaxInt64 {
		points = int64(e.Points)
	}
	_, err = l.db.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, finished_at, width, height, corners, threads, samples, iterations, warmup, accepted, points, completed, timed_out, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.StartedAt.UnixNano(), e.FinishedAt.UnixNano(), e.Width, e.Height, string(cs),
		e.Threads, e.Samples, e.Iterations, e.Warmup, e.Accepted, points, e.Completed, e.TimedOut, e.Output)
	if err != nil {
		return fmt.Errorf("record run %s: %w", e.ID, err)
	}
	return nil
}

// List returns the most recent runs first, at most limit of them (all if limit <= 0).
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `SELECT id, started_at, finished_at, width, height, corners, threads, samples,
		iterations, warmup, accepted, points, completed, timed_out, output
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			id, cs            string
			started, finished int64
			points            int64
		)
		if err := rows.Scan(&id, &started, &finished, &e.Width, &e.Height, &cs, &e.Threads, &e.Samples,
			&e.Iterations, &e.Warmup, &e.Accepted, &points, &e.Completed, &e.TimedOut, &e.Output); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		var c corners
		if err := json.Unmarshal([]byte(cs), &c); err != nil {
			return nil, fmt.Errorf("decode corners of %s: %w", id, err)
		}
		e.Corner1, e.Corner2 = c.Corner1, c.Corner2
		e.StartedAt, e.FinishedAt = time.Unix(0, started).UTC(), time.Unix(0, finished).UTC()
		e.Points = uint64(points)
		out = append(out, e)
	}
	return out, rows.Err()
}
