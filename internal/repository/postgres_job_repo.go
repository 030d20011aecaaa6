package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

// Create は求人を保存する。
func (r *PostgresJobRepo) Create(ctx context.Context, job *model.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (
			id, title, company, location, description, salary,
			application_deadline, tags, posted_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.Title, job.Company, job.Location, job.Description, job.Salary,
		job.ApplicationDeadline, pq.Array(job.Tags), job.PostedBy, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	job := &model.Job{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, company, location, description, salary,
			application_deadline, tags, posted_by, created_at, updated_at
		 FROM jobs WHERE id = $1`,
		id,
	).Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &job.Description, &job.Salary,
		&job.ApplicationDeadline, pq.Array(&job.Tags), &job.PostedBy, &job.CreatedAt, &job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by ID: %w", err)
	}
	return job, nil
}

// FindByIDWithPoster は指定IDの求人を投稿者情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByIDWithPoster(ctx context.Context, id string) (*JobWithPoster, error) {
	jw := &JobWithPoster{}
	err := r.db.QueryRowContext(ctx,
		`SELECT j.id, j.title, j.company, j.location, j.description, j.salary,
			j.application_deadline, j.tags, j.posted_by, j.created_at, j.updated_at,
			u.id, u.full_name, u.email
		 FROM jobs j
		 JOIN users u ON u.id = j.posted_by
		 WHERE j.id = $1`,
		id,
	).Scan(
		&jw.Job.ID, &jw.Job.Title, &jw.Job.Company, &jw.Job.Location, &jw.Job.Description, &jw.Job.Salary,
		&jw.Job.ApplicationDeadline, pq.Array(&jw.Job.Tags), &jw.Job.PostedBy, &jw.Job.CreatedAt, &jw.Job.UpdatedAt,
		&jw.Poster.ID, &jw.Poster.FullName, &jw.Poster.Email,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by ID: %w", err)
	}
	return jw, nil
}

// List は条件に合致する求人を投稿者情報付きで新着順に返す。
func (r *PostgresJobRepo) List(ctx context.Context, filter JobFilter) ([]JobWithPoster, error) {
	query := `SELECT j.id, j.title, j.company, j.location, j.description, j.salary,
		j.application_deadline, j.tags, j.posted_by, j.created_at, j.updated_at,
		u.id, u.full_name, u.email
	 FROM jobs j
	 JOIN users u ON u.id = j.posted_by
	 WHERE 1=1`
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (j.title ILIKE $%d OR j.company ILIKE $%d OR j.location ILIKE $%d)", n, n, n)
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(" AND $%d = ANY(j.tags)", len(args))
	}
	if filter.PostedBy != "" {
		args = append(args, filter.PostedBy)
		query += fmt.Sprintf(" AND j.posted_by = $%d", len(args))
	}
	query += " ORDER BY j.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []JobWithPoster{}
	for rows.Next() {
		var jw JobWithPoster
		if err := rows.Scan(
			&jw.Job.ID, &jw.Job.Title, &jw.Job.Company, &jw.Job.Location, &jw.Job.Description, &jw.Job.Salary,
			&jw.Job.ApplicationDeadline, pq.Array(&jw.Job.Tags), &jw.Job.PostedBy, &jw.Job.CreatedAt, &jw.Job.UpdatedAt,
			&jw.Poster.ID, &jw.Poster.FullName, &jw.Poster.Email,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, jw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// Delete は指定IDの求人を削除する。応募はCASCADE削除される。
func (r *PostgresJobRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
