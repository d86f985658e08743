package repository

import (
	"context"
	"database/sql"
	"errors"

	"lxsync/internal/model"
)

// SQLRunRepository implements RunRepository on database/sql.
type SQLRunRepository struct {
	db *DB
}

// NewRunRepository creates a run log repository.
func NewRunRepository(db *DB) *SQLRunRepository {
	return &SQLRunRepository{db: db}
}

// EnsureTable creates ingestion_runs if it is missing.
func (r *SQLRunRepository) EnsureTable(ctx context.Context) error {
	return r.db.exec(ctx, "repository.ensure_runs_table", r.db.Dialect.RunsSchema())
}

// Insert appends a run.
func (r *SQLRunRepository) Insert(ctx context.Context, run *model.IngestionRun) (int64, error) {
	query := `
		INSERT INTO ingestion_runs (run_id, job_name, started_at, ended_at, success_count, fail_count, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		run.RunID, run.JobName, run.StartedAt, run.EndedAt,
		run.SuccessCount, run.FailCount, run.Note,
	)
	if err != nil {
		return 0, persistErr("repository.insert_run", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, persistErr("repository.insert_run", err)
	}
	run.ID = id
	return id, nil
}

// Latest returns the most recent run of jobName, or nil when there is none.
func (r *SQLRunRepository) Latest(ctx context.Context, jobName string) (*model.IngestionRun, error) {
	query := `
		SELECT id, run_id, job_name, started_at, ended_at, success_count, fail_count, note
		FROM ingestion_runs
		WHERE job_name = ?
		ORDER BY id DESC
		LIMIT 1`

	var run model.IngestionRun
	var note sql.NullString
	err := r.db.QueryRowContext(ctx, query, jobName).Scan(
		&run.ID, &run.RunID, &run.JobName, &run.StartedAt, &run.EndedAt,
		&run.SuccessCount, &run.FailCount, &note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("repository.latest_run", err)
	}
	run.Note = note.String
	return &run, nil
}

// Ensure SQLRunRepository implements RunRepository
var _ RunRepository = (*SQLRunRepository)(nil)
