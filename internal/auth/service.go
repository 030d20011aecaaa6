package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
)

// SignupInput はアカウント登録のリクエスト内容を表す。
type SignupInput struct {
	FullName string
	Email    string
	Password string
	Role     model.Role
}

// Service はパスワード認証に関するビジネスロジックを提供する。
type Service struct {
	users      repository.UserRepository
	tokens     *TokenManager
	bcryptCost int
	now        func() time.Time
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens *TokenManager, bcryptCost int) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Signup は新規ユーザーを登録し、認証トークンを発行する。
// メールアドレスは小文字化・前後空白除去の上で一意性が検証される。
// 管理者ロールは自己申告で取得できない。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.User, string, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if apiErr := validateSignup(in); apiErr != nil {
		return nil, "", apiErr
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.NewString(),
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: string(passwordHash),
		Role:         in.Role,
		Preferences:  model.DefaultPreferences(),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, "", model.NewEmailTakenError()
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, token, nil
}

// Login はメールアドレスとパスワードを検証し、認証トークンを発行する。
// ユーザー列挙を防ぐため、メール不明・パスワード不一致・無効化済みの
// いずれでも同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "user_id", user.ID)
		return nil, "", model.NewInvalidCredentialsError()
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// ログイン自体は成功しているため、記録失敗で処理は止めない
		slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

func validateSignup(in SignupInput) *model.APIError {
	issues := []model.FieldIssue{}

	if len(in.FullName) < 2 || len(in.FullName) > 100 {
		issues = append(issues, model.FieldIssue{
			Field: "fullName", Message: "Full name must be between 2 and 100 characters.",
		})
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || len(in.Email) > 254 {
		issues = append(issues, model.FieldIssue{
			Field: "email", Message: "Please provide a valid email address.",
		})
	}
	if len(in.Password) < 8 || len(in.Password) > 128 {
		issues = append(issues, model.FieldIssue{
			Field: "password", Message: "Password must be between 8 and 128 characters.",
		})
	}
	if in.Role != model.RoleJobSeeker && in.Role != model.RoleCounselor {
		issues = append(issues, model.FieldIssue{
			Field: "role", Message: "Role must be job_seeker or career_counselor.",
		})
	}

	if len(issues) > 0 {
		return model.NewValidationError(issues[0].Message, issues...)
	}
	return nil
}
