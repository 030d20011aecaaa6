package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, full_name, email, password_hash, role,
	bio, profile_image_url, location, phone, skills, career_interests,
	social_linkedin, social_github, social_portfolio, social_website,
	education, experience, completion_score,
	dark_mode_enabled, email_notifications_enabled, job_alerts_enabled,
	is_active, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var educationJSON, experienceJSON []byte
	err := row.Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.Role,
		&user.Profile.Bio, &user.Profile.ProfileImageURL, &user.Profile.Location, &user.Profile.Phone,
		pq.Array(&user.Profile.Skills), pq.Array(&user.Profile.CareerInterests),
		&user.Profile.SocialLinks.LinkedIn, &user.Profile.SocialLinks.GitHub,
		&user.Profile.SocialLinks.Portfolio, &user.Profile.SocialLinks.Website,
		&educationJSON, &experienceJSON, &user.Profile.CompletionScore,
		&user.Preferences.DarkModeEnabled, &user.Preferences.EmailNotificationsEnabled,
		&user.Preferences.JobAlertsEnabled,
		&user.IsActive, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.Profile.Education, err = unmarshalEducation(educationJSON); err != nil {
		return nil, err
	}
	if user.Profile.Experience, err = unmarshalExperience(experienceJSON); err != nil {
		return nil, err
	}
	return user, nil
}

// Create は新規ユーザーを保存する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	educationJSON, err := marshalEducation(user.Profile.Education)
	if err != nil {
		return err
	}
	experienceJSON, err := marshalExperience(user.Profile.Experience)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (
			id, full_name, email, password_hash, role,
			bio, profile_image_url, location, phone, skills, career_interests,
			social_linkedin, social_github, social_portfolio, social_website,
			education, experience, completion_score,
			dark_mode_enabled, email_notifications_enabled, job_alerts_enabled,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		user.ID, user.FullName, user.Email, user.PasswordHash, user.Role,
		user.Profile.Bio, user.Profile.ProfileImageURL, user.Profile.Location, user.Profile.Phone,
		pq.Array(user.Profile.Skills), pq.Array(user.Profile.CareerInterests),
		user.Profile.SocialLinks.LinkedIn, user.Profile.SocialLinks.GitHub,
		user.Profile.SocialLinks.Portfolio, user.Profile.SocialLinks.Website,
		educationJSON, experienceJSON, user.Profile.CompletionScore,
		user.Preferences.DarkModeEnabled, user.Preferences.EmailNotificationsEnabled,
		user.Preferences.JobAlertsEnabled,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// UpdateProfile はプロフィール関連カラムと完成度スコアを更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	educationJSON, err := marshalEducation(user.Profile.Education)
	if err != nil {
		return err
	}
	experienceJSON, err := marshalExperience(user.Profile.Experience)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET
			full_name = $2, bio = $3, profile_image_url = $4, location = $5, phone = $6,
			skills = $7, career_interests = $8,
			social_linkedin = $9, social_github = $10, social_portfolio = $11, social_website = $12,
			education = $13, experience = $14, completion_score = $15,
			dark_mode_enabled = $16, email_notifications_enabled = $17, job_alerts_enabled = $18,
			updated_at = $19
		WHERE id = $1`,
		user.ID, user.FullName,
		user.Profile.Bio, user.Profile.ProfileImageURL, user.Profile.Location, user.Profile.Phone,
		pq.Array(user.Profile.Skills), pq.Array(user.Profile.CareerInterests),
		user.Profile.SocialLinks.LinkedIn, user.Profile.SocialLinks.GitHub,
		user.Profile.SocialLinks.Portfolio, user.Profile.SocialLinks.Website,
		educationJSON, experienceJSON, user.Profile.CompletionScore,
		user.Preferences.DarkModeEnabled, user.Preferences.EmailNotificationsEnabled,
		user.Preferences.JobAlertsEnabled,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// UpdateLastLogin は最終ログイン日時を記録する。
func (r *PostgresUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// ListActiveCounselors は有効なカウンセラーの一覧を名前順で返す。
func (r *PostgresUserRepo) ListActiveCounselors(ctx context.Context) ([]model.CounselorSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, email, bio, profile_image_url, skills, career_interests
		 FROM users
		 WHERE role = $1 AND is_active = TRUE
		 ORDER BY full_name ASC`,
		model.RoleCounselor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list counselors: %w", err)
	}
	defer rows.Close()

	counselors := []model.CounselorSummary{}
	for rows.Next() {
		var c model.CounselorSummary
		if err := rows.Scan(
			&c.ID, &c.FullName, &c.Email, &c.Bio, &c.ProfileImageURL,
			pq.Array(&c.Skills), pq.Array(&c.CareerInterests),
		); err != nil {
			return nil, fmt.Errorf("failed to scan counselor: %w", err)
		}
		counselors = append(counselors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counselors: %w", err)
	}
	return counselors, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
