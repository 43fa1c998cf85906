package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DefaultRecentLimit caps RecentRuns when limit is not positive.
const DefaultRecentLimit = 20

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if log != nil {
		log.Info("sqlite recorder opened", zap.String("path", dbPath))
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER,
			total       INTEGER,
			updated     INTEGER,
			failed      INTEGER,
			aborted     INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON refresh_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS refresh_results (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			ok      INTEGER NOT NULL,
			error   TEXT,
			at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON refresh_results(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO refresh_runs
		(id, kind, started_at, finished_at, total, updated, failed, aborted, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Kind, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.Total, run.Updated, run.Failed, run.Aborted, run.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordResult(ctx context.Context, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO refresh_results
		(run_id, symbol, ok, error, at) VALUES (?,?,?,?,?)`,
		res.RunID, res.Symbol, res.OK, res.Error, res.At.UnixMilli(),
	)
	return err
}

func (r *SQLiteRecorder) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT
		id, kind, started_at, finished_at, total, updated, failed, aborted, error
		FROM refresh_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
			errText           sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Kind, &started, &finished,
			&run.Total, &run.Updated, &run.Failed, &run.Aborted, &errText); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started).UTC()
		run.FinishedAt = time.UnixMilli(finished).UTC()
		run.Error = errText.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Results returns the per-symbol outcomes of one run in insertion order.
func (r *SQLiteRecorder) Results(ctx context.Context, runID string) ([]Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `SELECT run_id, symbol, ok, error, at
		FROM refresh_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			res     Result
			at      int64
			errText sql.NullString
		)
		if err := rows.Scan(&res.RunID, &res.Symbol, &res.OK, &errText, &at); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Error = errText.String
		res.At = time.UnixMilli(at).UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
