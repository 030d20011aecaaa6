// Package session はカウンセリングセッションの状態遷移を管理する。
//
// 遷移はカウンセラー側（accept / reject / reschedule）と
// 求職者側（request / confirm / cancel）に分かれ、すべての変更操作は
// セッションを取り直した上で呼び出し元が記録済みの当事者であることを
// 検証してから状態を進める。
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
	"github.com/hitoshi/careerflow/internal/security"
)

// RequestInput はセッションリクエストの内容を表す。
type RequestInput struct {
	CounselorID string
	ScheduledAt string // RFC3339
	Notes       string
}

// Service はカウンセリングセッションのビジネスロジックを提供する。
type Service struct {
	sessions  repository.SessionRepository
	users     repository.UserRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		sessions:  sessions,
		users:     users,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Request は求職者からの新規セッションリクエストを作成する。
// 対象は有効なカウンセラーでなければならず、希望時刻は厳密に未来であること。
// 同一時間帯の重複予約は検出しない。
func (s *Service) Request(ctx context.Context, jobSeekerID string, in RequestInput) (*model.Session, error) {
	if len(in.Notes) > 500 {
		return nil, model.NewValidationError("Notes must be 500 characters or less.", model.FieldIssue{
			Field: "notes", Message: "Notes must be 500 characters or less.",
		})
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(in.ScheduledAt))
	if err != nil {
		return nil, model.NewValidationError("Scheduled time must be a valid RFC3339 timestamp.", model.FieldIssue{
			Field: "scheduledAt", Message: "Scheduled time must be a valid RFC3339 timestamp.",
		})
	}
	if !scheduledAt.After(s.now()) {
		return nil, model.NewValidationError("Scheduled time must be in the future.", model.FieldIssue{
			Field: "scheduledAt", Message: "Scheduled time must be in the future.",
		})
	}

	counselor, err := s.users.FindByID(ctx, in.CounselorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load counselor: %w", err)
	}
	if counselor == nil || counselor.Role != model.RoleCounselor || !counselor.IsActive {
		return nil, model.NewCounselorNotFoundError()
	}

	now := s.now()
	session := &model.Session{
		ID:          uuid.NewString(),
		JobSeekerID: jobSeekerID,
		CounselorID: in.CounselorID,
		ScheduledAt: scheduledAt,
		Status:      model.SessionPending,
		Notes:       s.sanitizer.Sanitize(strings.TrimSpace(in.Notes)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ListForUser はユーザーが当事者として関わるセッションを新着順に返す。
func (s *Service) ListForUser(ctx context.Context, userID string) ([]model.Session, error) {
	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Accept はカウンセラーが保留中のリクエストを承諾する。
func (s *Service) Accept(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.loadForCounselor(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionPending {
		return nil, model.NewSessionStateError("accept", session.Status)
	}

	session.Status = model.SessionAccepted
	return s.save(ctx, session)
}

// Reject はカウンセラーが保留中のリクエストを拒否する。終端状態。
func (s *Service) Reject(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.loadForCounselor(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionPending {
		return nil, model.NewSessionStateError("reject", session.Status)
	}

	session.Status = model.SessionRejected
	return s.save(ctx, session)
}

// Reschedule はカウンセラーが新しい時刻を提案する。
// 提案時刻は厳密に未来であること。元の時刻は求職者が確定するまで保持される。
func (s *Service) Reschedule(ctx context.Context, sessionID, callerID, proposedAt string) (*model.Session, error) {
	session, err := s.loadForCounselor(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionPending && session.Status != model.SessionAccepted {
		return nil, model.NewSessionStateError("reschedule", session.Status)
	}

	proposed, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(proposedAt))
	if parseErr != nil {
		return nil, model.NewValidationError("Proposed time must be a valid RFC3339 timestamp.", model.FieldIssue{
			Field: "rescheduledAt", Message: "Proposed time must be a valid RFC3339 timestamp.",
		})
	}
	if !proposed.After(s.now()) {
		return nil, model.NewValidationError("Proposed time must be in the future.", model.FieldIssue{
			Field: "rescheduledAt", Message: "Proposed time must be in the future.",
		})
	}

	session.Status = model.SessionRescheduled
	session.RescheduledAt = &proposed
	return s.save(ctx, session)
}

// Confirm は求職者が提案時刻を確定する。
// 提案時刻が正式な予定時刻に昇格し、提案はクリアされる。
func (s *Service) Confirm(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.loadForJobSeeker(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionRescheduled {
		return nil, model.NewSessionStateError("confirm", session.Status)
	}
	if session.RescheduledAt == nil {
		return nil, fmt.Errorf("rescheduled session %s has no proposed time", session.ID)
	}

	session.ScheduledAt = *session.RescheduledAt
	session.RescheduledAt = nil
	session.Status = model.SessionConfirmed
	return s.save(ctx, session)
}

// Cancel は求職者がセッションを取り消す。
// 取消済み・拒否済み以外のどの状態からでも取り消せる。終端状態。
func (s *Service) Cancel(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.loadForJobSeeker(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCancelled || session.Status == model.SessionRejected {
		return nil, model.NewSessionStateError("cancel", session.Status)
	}

	session.Status = model.SessionCancelled
	return s.save(ctx, session)
}

// loadForCounselor はセッションを取得し、呼び出し元が記録済みの
// カウンセラーであることを検証する。
func (s *Service) loadForCounselor(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CounselorID != callerID {
		return nil, model.NewForbiddenError("Only the counselor for this session can perform this action.")
	}
	return session, nil
}

// loadForJobSeeker はセッションを取得し、呼び出し元が記録済みの
// 求職者であることを検証する。
func (s *Service) loadForJobSeeker(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.JobSeekerID != callerID {
		return nil, model.NewForbiddenError("Only the job seeker for this session can perform this action.")
	}
	return session, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, model.NewSessionNotFoundError()
	}
	return session, nil
}

func (s *Service) save(ctx context.Context, session *model.Session) (*model.Session, error) {
	session.UpdatedAt = s.now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}
