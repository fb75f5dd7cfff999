package jobs

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, limit int) ([]*Job, error)
	UpdateStatus(ctx context.Context, id, status, output, errorMsg string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, project, status, output, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, nullString(j.Project), j.Status, nullString(j.Output), nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, project, status, output, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row.Scan)
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, project, status, output, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id, status, output, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, output = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(output), nullString(errorMsg), time.Now().Format(time.RFC3339), id)
	return err
}

// MarkInterrupted fails every job still recorded as running. Called once at
// startup: a running row at that point belongs to a previous process that
// never got to finish it.
func (r *SQLiteRepository) MarkInterrupted(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE status = ?
	`, StatusFailed, "interrupted by server restart", time.Now().Format(time.RFC3339), StatusRunning)
	return err
}

func scanJob(scan func(...any) error) (*Job, error) {
	var j Job
	var project, output, errMsg sql.NullString
	var createdAt, updatedAt string

	err := scan(&j.ID, &j.Type, &project, &j.Status, &output, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Project = project.String
	j.Output = output.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
