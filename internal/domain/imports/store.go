package imports

import (
	"context"
	"errors"
	"fmt"

	"paginaflex/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	Create(ctx context.Context, l *Log) error
	// SaveProgress checkpoints the processed count and returns the status
	// currently stored, which lets a running import notice a cancel.
	SaveProgress(ctx context.Context, id int64, processed int) (Status, error)
	Finish(ctx context.Context, l *Log) error
	MarkFailed(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) error
	AddError(ctx context.Context, e *RowError) error

	GetByID(ctx context.Context, id int64) (*Log, error)
	LatestProcessing(ctx context.Context, userID int64) (*Log, error)
	List(ctx context.Context, limit, offset int) ([]Log, int, error)
	ListErrors(ctx context.Context, logID int64) ([]RowError, error)
}

type Repository struct {
	db dbx.Querier
}

var _ Store = (*Repository)(nil)

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const logColumns = `id, kind, status, file_name, user_id, total_rows, created, updated, errors, processed, created_at, completed_at`

func scanLog(row pgx.Row) (*Log, error) {
	l := &Log{}
	err := row.Scan(&l.ID, &l.Kind, &l.Status, &l.FileName, &l.UserID, &l.TotalRows,
		&l.Created, &l.Updated, &l.Errors, &l.Processed, &l.CreatedAt, &l.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return l, nil
}

// Create opens a log. A user can have only one log processing at a time,
// a second one fails with ErrAlreadyRunning.
func (r *Repository) Create(ctx context.Context, l *Log) error {
	if l.Status == "" {
		l.Status = StatusProcessing
	}
	query := `
INSERT INTO import_logs (kind, status, file_name, user_id, total_rows)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, query, l.Kind, l.Status, l.FileName, l.UserID, l.TotalRows).
		Scan(&l.ID, &l.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return ErrAlreadyRunning
		}
		return fmt.Errorf("create import log: %w", err)
	}
	return nil
}

func (r *Repository) SaveProgress(ctx context.Context, id int64, processed int) (Status, error) {
	var status Status
	err := r.db.QueryRow(ctx,
		`UPDATE import_logs SET processed = $2 WHERE id = $1 RETURNING status`, id, processed).
		Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLogNotFound
		}
		return "", fmt.Errorf("save import progress: %w", err)
	}
	return status, nil
}

// Finish writes the final counters and completion time of l. A log that
// was cancelled in the meantime stays cancelled, and l.Status is updated
// to the stored status.
func (r *Repository) Finish(ctx context.Context, l *Log) error {
	query := `
UPDATE import_logs
SET status = CASE WHEN status = $8 THEN status ELSE $2 END,
	created = $3, updated = $4, errors = $5, processed = $6, completed_at = $7
WHERE id = $1
RETURNING status`
	err := r.db.QueryRow(ctx, query,
		l.ID, l.Status, l.Created, l.Updated, l.Errors, l.Processed, l.CompletedAt, StatusCancelled,
	).Scan(&l.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLogNotFound
		}
		return fmt.Errorf("finish import log: %w", err)
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE import_logs SET status = $2 WHERE id = $1`, id, StatusError)
	if err != nil {
		return fmt.Errorf("mark import failed: %w", err)
	}
	return nil
}

// Cancel flips a processing log to cancelled. Logs in any other state are
// left alone and ErrNotProcessing is returned.
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	var status Status
	err := r.db.QueryRow(ctx, `
WITH target AS (SELECT id, status FROM import_logs WHERE id = $1 FOR UPDATE)
UPDATE import_logs l
SET status = CASE WHEN t.status = $2 THEN $3 ELSE t.status END
FROM target t
WHERE l.id = t.id
RETURNING t.status`, id, StatusProcessing, StatusCancelled).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLogNotFound
		}
		return fmt.Errorf("cancel import: %w", err)
	}
	if status != StatusProcessing {
		return ErrNotProcessing
	}
	return nil
}

func (r *Repository) AddError(ctx context.Context, e *RowError) error {
	query := `
INSERT INTO import_errors (log_id, row_num, col, value, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	if err := r.db.QueryRow(ctx, query, e.LogID, e.Row, e.Column, e.Value, e.Message).Scan(&e.ID); err != nil {
		return fmt.Errorf("add import error: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Log, error) {
	l, err := scanLog(r.db.QueryRow(ctx, `SELECT `+logColumns+` FROM import_logs WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrLogNotFound) {
		return nil, fmt.Errorf("get import log: %w", err)
	}
	return l, err
}

func (r *Repository) LatestProcessing(ctx context.Context, userID int64) (*Log, error) {
	query := `
SELECT ` + logColumns + `
FROM import_logs
WHERE user_id = $1 AND status = $2
ORDER BY created_at DESC, id DESC
LIMIT 1`
	l, err := scanLog(r.db.QueryRow(ctx, query, userID, StatusProcessing))
	if err != nil && !errors.Is(err, ErrLogNotFound) {
		return nil, fmt.Errorf("latest processing import: %w", err)
	}
	return l, err
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Log, int, error) {
	query := `
SELECT ` + logColumns + `, COUNT(*) OVER() AS total
FROM import_logs
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list import logs: %w", err)
	}
	defer rows.Close()

	logs := []Log{}
	total := 0
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.Kind, &l.Status, &l.FileName, &l.UserID, &l.TotalRows,
			&l.Created, &l.Updated, &l.Errors, &l.Processed, &l.CreatedAt, &l.CompletedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan import log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	// past the last page COUNT(*) OVER() has no row to ride on
	if len(logs) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM import_logs`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count import logs: %w", err)
		}
	}
	return logs, total, nil
}

func (r *Repository) ListErrors(ctx context.Context, logID int64) ([]RowError, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, log_id, row_num, col, value, message
FROM import_errors
WHERE log_id = $1
ORDER BY row_num, id`, logID)
	if err != nil {
		return nil, fmt.Errorf("list import errors: %w", err)
	}
	defer rows.Close()

	out := []RowError{}
	for rows.Next() {
		var e RowError
		if err := rows.Scan(&e.ID, &e.LogID, &e.Row, &e.Column, &e.Value, &e.Message); err != nil {
			return nil, fmt.Errorf("scan import error: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
