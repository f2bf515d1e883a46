package results

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// File outcome statuses recorded in the run report.
const (
	StatusCompleted      = "completed"
	StatusNoResults      = "no_results"
	StatusSearchFailed   = "search_failed"
	StatusParseFailed    = "parse_failed"
	StatusRelocateFailed = "relocate_failed"
)

// FileOutcome is one row of the per-run report: what happened to a
// single file. Failed files never appear in the CSV/JSON outputs, so the
// report is the only artifact that names them.
type FileOutcome struct {
	File          string
	Status        string
	PixivCount    int
	TwitterCount  int
	DanbooruCount int
	Destination   string
	ProcessedAt   time.Time
}

// ReportStore persists the per-run report database inside the run
// output directory. It is a run artifact, not cross-run state.
type ReportStore struct {
	db   *sql.DB
	path string
}

// OpenReport creates run.db inside dir and initializes the schema.
func OpenReport(dir string) (*ReportStore, error) {
	dbPath := filepath.Join(dir, "run.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &ReportStore{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *ReportStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *ReportStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *ReportStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists != 0 {
		// run.db lives in a fresh per-run directory; an existing schema
		// means the directory is being reused.
		var version int
		if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version != schemaVersion {
			return fmt.Errorf("report db has schema version %d, expected %d", version, schemaVersion)
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// StartRun inserts the run row.
func (s *ReportStore) StartRun(ctx context.Context, runID, folder string, started time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, folder, started_at) VALUES (?, ?, ?)",
		runID, folder, started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stamps the run's completion time.
func (s *ReportStore) FinishRun(ctx context.Context, runID string, finished time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ? WHERE id = ?",
		finished.UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordFile appends one file outcome to the report.
func (s *ReportStore) RecordFile(ctx context.Context, runID string, outcome FileOutcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_outcomes (
            run_id, file, status, pixiv_count, twitter_count, danbooru_count,
            destination, processed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		outcome.File,
		outcome.Status,
		outcome.PixivCount,
		outcome.TwitterCount,
		outcome.DanbooruCount,
		nullableString(outcome.Destination),
		outcome.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert file outcome: %w", err)
	}
	return nil
}

// FileOutcomes returns the recorded outcomes for a run in insertion order.
func (s *ReportStore) FileOutcomes(ctx context.Context, runID string) ([]FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, status, pixiv_count, twitter_count, danbooru_count, destination, processed_at
         FROM file_outcomes WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query file outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []FileOutcome
	for rows.Next() {
		var (
			outcome     FileOutcome
			destination sql.NullString
			processedAt string
		)
		if err := rows.Scan(
			&outcome.File, &outcome.Status,
			&outcome.PixivCount, &outcome.TwitterCount, &outcome.DanbooruCount,
			&destination, &processedAt,
		); err != nil {
			return nil, fmt.Errorf("scan file outcome: %w", err)
		}
		outcome.Destination = destination.String
		if ts, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
			outcome.ProcessedAt = ts
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
