package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/subgemma/subtrans/internal/jobs"
	"github.com/subgemma/subtrans/internal/service"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists job state and batch checkpoints so an interrupted
// run resumes without re-translating finished batches.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename
// (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// UpsertJob writes a job snapshot.
func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.RunJob) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}

	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	progressJSON, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	var reportJSON sql.NullString
	if job.Report != nil {
		data, err := json.Marshal(job.Report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO jobs
		(id, source, dedupe_key, config_json, status, error, progress_json, report_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			progress_json = excluded.progress_json,
			report_json = excluded.report_json,
			updated_at = excluded.updated_at`,
		job.ID, job.Source, job.DedupeKey, string(configJSON), string(job.Status),
		job.Error, string(progressJSON), reportJSON, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.ID, err)
	}
	return nil
}

// LoadJobs returns every persisted job.
func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.RunJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, source, dedupe_key, config_json, status, error, progress_json, report_json, created_at, updated_at
		FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	defer rows.Close()

	var out []*jobs.RunJob
	for rows.Next() {
		var (
			job          jobs.RunJob
			status       string
			configJSON   string
			progressJSON string
			reportJSON   sql.NullString
		)
		if err := rows.Scan(&job.ID, &job.Source, &job.DedupeKey, &configJSON, &status,
			&job.Error, &progressJSON, &reportJSON, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Status = jobs.Status(status)
		if err := json.Unmarshal([]byte(configJSON), &job.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config for %s: %w", job.ID, err)
		}
		_ = json.Unmarshal([]byte(progressJSON), &job.Progress)
		if reportJSON.Valid {
			job.Report = &service.RunReport{}
			_ = json.Unmarshal([]byte(reportJSON.String), job.Report)
		}
		out = append(out, &job)
	}
	return out, rows.Err()
}

// DeleteJobData drops the batch checkpoints of a finished job.
func (s *SQLiteStore) DeleteJobData(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM batch_checkpoints WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("delete checkpoints for %s: %w", jobID, err)
	}
	return nil
}

// SaveBatchCheckpoint stores one batch's translated lines.
func (s *SQLiteStore) SaveBatchCheckpoint(ctx context.Context, jobID, file string, start, end int, lines []string) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal checkpoint lines: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO batch_checkpoints
		(job_id, file, batch_start, batch_end, lines_json) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id, file, batch_start, batch_end) DO UPDATE SET lines_json = excluded.lines_json`,
		jobID, file, start, end, string(data))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// BatchCheckpoint is one stored batch result.
type BatchCheckpoint struct {
	File       string
	BatchStart int
	BatchEnd   int
	Lines      []string
}

// LoadBatchCheckpoints returns all checkpoints recorded for a job.
func (s *SQLiteStore) LoadBatchCheckpoints(ctx context.Context, jobID string) ([]BatchCheckpoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file, batch_start, batch_end, lines_json
		FROM batch_checkpoints WHERE job_id = ? ORDER BY file, batch_start`, jobID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints for %s: %w", jobID, err)
	}
	defer rows.Close()

	var out []BatchCheckpoint
	for rows.Next() {
		var cp BatchCheckpoint
		var linesJSON string
		if err := rows.Scan(&cp.File, &cp.BatchStart, &cp.BatchEnd, &linesJSON); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		if err := json.Unmarshal([]byte(linesJSON), &cp.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal checkpoint lines: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// DeleteFileCheckpoints clears the checkpoints of one finished file.
func (s *SQLiteStore) DeleteFileCheckpoints(ctx context.Context, jobID, file string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM batch_checkpoints WHERE job_id = ? AND file = ?`, jobID, file)
	if err != nil {
		return fmt.Errorf("delete checkpoints for %s/%s: %w", jobID, file, err)
	}
	return nil
}
