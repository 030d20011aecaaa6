package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// Create は応募を保存する。同一求人への重複応募はErrDuplicateApplicationを返す。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (
			id, job_id, applicant_id, cover_letter, resume_url, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID, app.JobID, app.ApplicantID, app.CoverLetter, app.ResumeURL,
		app.Status, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "uq_applications_job_applicant") {
			return ErrDuplicateApplication
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// Exists は指定ユーザーが指定求人に応募済みかを返す。
func (r *PostgresApplicationRepo) Exists(ctx context.Context, jobID, applicantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM applications WHERE job_id = $1 AND applicant_id = $2
		)`,
		jobID, applicantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application existence: %w", err)
	}
	return exists, nil
}

// ListByApplicant は応募者の応募履歴を求人概要付きで新着順に返す。
func (r *PostgresApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]ApplicationWithJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.job_id, a.applicant_id, a.cover_letter, a.resume_url, a.status,
			a.created_at, a.updated_at,
			j.title, j.company, j.location, j.application_deadline
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 WHERE a.applicant_id = $1
		 ORDER BY a.created_at DESC`,
		applicantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by applicant: %w", err)
	}
	defer rows.Close()

	apps := []ApplicationWithJob{}
	for rows.Next() {
		var aw ApplicationWithJob
		if err := rows.Scan(
			&aw.Application.ID, &aw.Application.JobID, &aw.Application.ApplicantID,
			&aw.Application.CoverLetter, &aw.Application.ResumeURL, &aw.Application.Status,
			&aw.Application.CreatedAt, &aw.Application.UpdatedAt,
			&aw.JobTitle, &aw.JobCompany, &aw.JobLocation, &aw.JobDeadline,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, aw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// ListByJob は求人への応募を応募者プロフィール付きで古い順に返す。
func (r *PostgresApplicationRepo) ListByJob(ctx context.Context, jobID string) ([]ApplicationWithApplicant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.job_id, a.applicant_id, a.cover_letter, a.resume_url, a.status,
			a.created_at, a.updated_at,
			u.id, u.full_name, u.email, u.skills, u.education, u.experience
		 FROM applications a
		 JOIN users u ON u.id = a.applicant_id
		 WHERE a.job_id = $1
		 ORDER BY a.created_at ASC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by job: %w", err)
	}
	defer rows.Close()

	apps := []ApplicationWithApplicant{}
	for rows.Next() {
		var aw ApplicationWithApplicant
		var educationJSON, experienceJSON []byte
		if err := rows.Scan(
			&aw.Application.ID, &aw.Application.JobID, &aw.Application.ApplicantID,
			&aw.Application.CoverLetter, &aw.Application.ResumeURL, &aw.Application.Status,
			&aw.Application.CreatedAt, &aw.Application.UpdatedAt,
			&aw.Applicant.ID, &aw.Applicant.FullName, &aw.Applicant.Email,
			pq.Array(&aw.Applicant.Skills), &educationJSON, &experienceJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		if aw.Applicant.Education, err = unmarshalEducation(educationJSON); err != nil {
			return nil, err
		}
		if aw.Applicant.Experience, err = unmarshalExperience(experienceJSON); err != nil {
			return nil, err
		}
		apps = append(apps, aw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
