package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id             TEXT PRIMARY KEY,
		saved_at           TEXT NOT NULL,
		fetch_started_at   TEXT NOT NULL,
		fetch_completed_at TEXT NOT NULL,
		total_found        INTEGER NOT NULL,
		total_filtered     INTEGER NOT NULL,
		progress           TEXT NOT NULL,
		errors             TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		run_id    TEXT NOT NULL REFERENCES runs(run_id),
		position  INTEGER NOT NULL,
		source    TEXT NOT NULL,
		source_id TEXT NOT NULL,
		payload   TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS seen_jobs (
		job_key    TEXT PRIMARY KEY,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// SQLiteStore keeps run snapshots and the set of jobs already reported in a
// SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// SaveRun writes one runs row and one jobs row per result job, in order.
func (s *SQLiteStore) SaveRun(ctx context.Context, res pipeline.Result, runID string) error {
	progress, err := json.Marshal(orEmpty(res.Progress))
	if err != nil {
		return fmt.Errorf("encoding progress for run %s: %w", runID, err)
	}
	errs, err := json.Marshal(orEmpty(res.Errors))
	if err != nil {
		return fmt.Errorf("encoding errors for run %s: %w", runID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", runID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, saved_at, fetch_started_at, fetch_completed_at, total_found, total_filtered, progress, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, s.now().UTC().Format(time.RFC3339Nano), res.FetchStartedAt, res.FetchCompletedAt,
		res.TotalFound, res.TotalFiltered, string(progress), string(errs),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO jobs (run_id, position, source, source_id, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("saving jobs for run %s: %w", runID, err)
	}
	defer stmt.Close()

	for i, job := range res.Jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("encoding job %s/%s: %w", job.Source, job.SourceID, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, string(job.Source), job.SourceID, string(payload)); err != nil {
			return fmt.Errorf("saving job %s/%s: %w", job.Source, job.SourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run %s: %w", runID, err)
	}
	return nil
}

// LatestRun reads back the most recently saved run. Returns ErrNoRuns when
// nothing has been saved yet.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Snapshot, error) {
	var (
		snap           Snapshot
		savedAt        string
		progress, errs string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, saved_at, fetch_started_at, fetch_completed_at, total_found, total_filtered, progress, errors
		 FROM runs ORDER BY saved_at DESC, rowid DESC LIMIT 1`,
	).Scan(&snap.RunID, &savedAt, &snap.Result.FetchStartedAt, &snap.Result.FetchCompletedAt,
		&snap.Result.TotalFound, &snap.Result.TotalFiltered, &progress, &errs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest run: %w", err)
	}

	snap.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	snap.Result.Success = true
	if err := json.Unmarshal([]byte(progress), &snap.Result.Progress); err != nil {
		return nil, fmt.Errorf("decoding progress for run %s: %w", snap.RunID, err)
	}
	if err := json.Unmarshal([]byte(errs), &snap.Result.Errors); err != nil {
		return nil, fmt.Errorf("decoding errors for run %s: %w", snap.RunID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM jobs WHERE run_id = ? ORDER BY position`, snap.RunID)
	if err != nil {
		return nil, fmt.Errorf("reading jobs for run %s: %w", snap.RunID, err)
	}
	defer rows.Close()

	snap.Result.Jobs = []model.Job{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("reading jobs for run %s: %w", snap.RunID, err)
		}
		var job model.Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return nil, fmt.Errorf("decoding job in run %s: %w", snap.RunID, err)
		}
		snap.Result.Jobs = append(snap.Result.Jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading jobs for run %s: %w", snap.RunID, err)
	}

	return &snap, nil
}

// Unseen returns the jobs whose (source, source_id) has not been marked seen,
// keeping their order.
func (s *SQLiteStore) Unseen(ctx context.Context, jobs []model.Job) ([]model.Job, error) {
	var out []model.Job
	for _, job := range jobs {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM seen_jobs WHERE job_key = ?", jobKey(job)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			out = append(out, job)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checking seen status for %s: %w", jobKey(job), err)
		}
	}
	return out, nil
}

// MarkSeen records jobs as reported. Already-seen jobs are left untouched.
func (s *SQLiteStore) MarkSeen(ctx context.Context, jobs []model.Job) error {
	for _, job := range jobs {
		if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO seen_jobs (job_key) VALUES (?)", jobKey(job)); err != nil {
			return fmt.Errorf("marking job %s as seen: %w", jobKey(job), err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func jobKey(j model.Job) string {
	return string(j.Source) + ":" + j.SourceID
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
