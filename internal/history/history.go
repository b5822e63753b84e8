// Package history persists run and test results in a local SQLite database
// so past runs can be inspected after reports are cleaned up.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/webrig/webrig/internal/history/migrations"
)

// Run is one recorded test run.
type Run struct {
	ID         string
	Title      string
	StartedAt  time.Time
	FinishedAt time.Time
	ReportPath string
	Passed     int
	Failed     int
	Skipped    int
}

// Result is one recorded test method outcome.
type Result struct {
	RunID      string
	ClassName  string
	Method     string
	SessionID  string
	Status     string
	Duration   time.Duration
	VideoPath  string
	Error      string
	FinishedAt time.Time
}

// Store wraps the history database. All access goes through one serialized
// connection; SQLite does not handle concurrent writers well.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

// BeginRun records the start of a run.
func (s *Store) BeginRun(runID, title string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, title, started_at) VALUES (?, ?, ?)`,
		runID, title, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// FinishRun records the run end and where the report landed.
func (s *Store) FinishRun(runID, reportPath string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, report_path = ? WHERE id = ?`,
		time.Now().UTC(), reportPath, runID,
	)
	if err != nil {
		return fmt.Errorf("record run end: %w", err)
	}
	return nil
}

// RecordResult appends one test method outcome.
func (s *Store) RecordResult(r Result) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO results (run_id, class_name, method, session_id, status, duration_ms, video_path, error, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.ClassName, r.Method, r.SessionID, r.Status,
		r.Duration.Milliseconds(), r.VideoPath, r.Error, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs with their outcome counts, newest
// first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT r.id, r.title, r.started_at, r.finished_at, r.report_path,
		        COALESCE(SUM(CASE WHEN t.status = 'pass' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN t.status = 'fail' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN t.status = 'skip' THEN 1 ELSE 0 END), 0)
		 FROM runs r LEFT JOIN results t ON t.run_id = r.id
		 GROUP BY r.id ORDER BY r.started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		// finished_at is NULL until FinishRun; scanning the raw column keeps
		// the driver's time conversion, which a COALESCE expression loses.
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Title, &r.StartedAt, &finished, &r.ReportPath,
			&r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		} else {
			r.FinishedAt = r.StartedAt
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Results returns the recorded outcomes of one run in insertion order.
func (s *Store) Results(runID string) ([]Result, error) {
	rows, err := s.db.Query(
		`SELECT run_id, class_name, method, session_id, status, duration_ms, video_path, error, finished_at
		 FROM results WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var millis int64
		if err := rows.Scan(&r.RunID, &r.ClassName, &r.Method, &r.SessionID, &r.Status,
			&millis, &r.VideoPath, &r.Error, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Duration = time.Duration(millis) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}
