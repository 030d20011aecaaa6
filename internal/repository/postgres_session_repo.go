package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したカウンセリングセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

const sessionColumns = `id, job_seeker_id, counselor_id, scheduled_at, rescheduled_at,
	status, notes, created_at, updated_at`

func scanSession(scan func(dest ...any) error) (*model.Session, error) {
	session := &model.Session{}
	err := scan(
		&session.ID, &session.JobSeekerID, &session.CounselorID,
		&session.ScheduledAt, &session.RescheduledAt,
		&session.Status, &session.Notes, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Create はセッションを保存する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (
			id, job_seeker_id, counselor_id, scheduled_at, rescheduled_at,
			status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, session.JobSeekerID, session.CounselorID,
		session.ScheduledAt, session.RescheduledAt,
		session.Status, session.Notes, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	session, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return session, nil
}

// ListForUser はユーザーが当事者として関わるセッションを新着順に返す。
func (r *PostgresSessionRepo) ListForUser(ctx context.Context, userID string) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE job_seeker_id = $1 OR counselor_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// Update はステータスと日時カラムを保存する。
func (r *PostgresSessionRepo) Update(ctx context.Context, session *model.Session) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET
			scheduled_at = $2, rescheduled_at = $3, status = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		session.ID, session.ScheduledAt, session.RescheduledAt,
		session.Status, session.Notes, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("session not found: %s", session.ID)
	}

	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
