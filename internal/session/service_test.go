package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/security"
)

type mockSessionRepo struct {
	sessions map[string]*model.Session
	findErr  error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: map[string]*model.Session{}}
}

func (m *mockSessionRepo) Create(_ context.Context, session *model.Session) error {
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	session, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (m *mockSessionRepo) ListForUser(_ context.Context, userID string) ([]model.Session, error) {
	var out []model.Session
	for _, session := range m.sessions {
		if session.JobSeekerID == userID || session.CounselorID == userID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *model.Session) error {
	if _, ok := m.sessions[session.ID]; !ok {
		return errors.New("session not found")
	}
	cp := *session
	m.sessions[session.ID] = &cp
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, _ *model.User) error { return nil }

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error { return nil }

func (m *mockUserRepo) ListActiveCounselors(_ context.Context) ([]model.CounselorSummary, error) {
	return nil, nil
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mockSessionRepo) {
	t.Helper()
	sessions := newMockSessionRepo()
	users := &mockUserRepo{users: map[string]*model.User{
		"counselor-1": {ID: "counselor-1", Role: model.RoleCounselor, IsActive: true},
		"counselor-inactive": {
			ID: "counselor-inactive", Role: model.RoleCounselor, IsActive: false,
		},
		"seeker-1": {ID: "seeker-1", Role: model.RoleJobSeeker, IsActive: true},
	}}
	svc := NewService(sessions, users, security.NewContentSanitizer())
	svc.now = func() time.Time { return baseTime }
	return svc, sessions
}

func requestSession(t *testing.T, svc *Service) *model.Session {
	t.Helper()
	session, err := svc.Request(context.Background(), "seeker-1", RequestInput{
		CounselorID: "counselor-1",
		ScheduledAt: baseTime.Add(48 * time.Hour).Format(time.RFC3339),
		Notes:       "Resume review",
	})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	return session
}

// TestRequest_Pendingで作成されること を検証する。
func TestRequest_CreatesPendingSession(t *testing.T) {
	svc, repo := newTestService(t)

	session := requestSession(t, svc)

	if session.Status != model.SessionPending {
		t.Errorf("Status = %q, want %q", session.Status, model.SessionPending)
	}
	if session.JobSeekerID != "seeker-1" || session.CounselorID != "counselor-1" {
		t.Errorf("parties = (%q, %q)", session.JobSeekerID, session.CounselorID)
	}
	if session.RescheduledAt != nil {
		t.Error("RescheduledAt should be nil on a new request")
	}
	if _, ok := repo.sessions[session.ID]; !ok {
		t.Error("session was not persisted")
	}
}

func TestRequest_Failures(t *testing.T) {
	svc, _ := newTestService(t)
	future := baseTime.Add(24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name     string
		in       RequestInput
		wantCode string
	}{
		{
			name:     "未知のカウンセラー",
			in:       RequestInput{CounselorID: "nobody", ScheduledAt: future},
			wantCode: model.ErrCodeCounselorNotFound,
		},
		{
			name:     "無効化されたカウンセラー",
			in:       RequestInput{CounselorID: "counselor-inactive", ScheduledAt: future},
			wantCode: model.ErrCodeCounselorNotFound,
		},
		{
			name:     "カウンセラー以外のユーザー",
			in:       RequestInput{CounselorID: "seeker-1", ScheduledAt: future},
			wantCode: model.ErrCodeCounselorNotFound,
		},
		{
			name: "過去の時刻",
			in: RequestInput{
				CounselorID: "counselor-1",
				ScheduledAt: baseTime.Add(-time.Hour).Format(time.RFC3339),
			},
			wantCode: model.ErrCodeValidationFailed,
		},
		{
			name: "ちょうど現在時刻",
			in: RequestInput{
				CounselorID: "counselor-1",
				ScheduledAt: baseTime.Format(time.RFC3339),
			},
			wantCode: model.ErrCodeValidationFailed,
		},
		{
			name:     "時刻の形式不正",
			in:       RequestInput{CounselorID: "counselor-1", ScheduledAt: "tomorrow at noon"},
			wantCode: model.ErrCodeValidationFailed,
		},
		{
			name: "メモが長すぎる",
			in: RequestInput{
				CounselorID: "counselor-1",
				ScheduledAt: future,
				Notes:       string(make([]byte, 501)),
			},
			wantCode: model.ErrCodeValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Request(context.Background(), "seeker-1", tt.in)
			if !isCode(err, tt.wantCode) {
				t.Errorf("Request() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

// TestScenarioAcceptAndCancel はリクエスト、承諾、取消の一連の流れを検証する。
func TestScenarioAcceptAndCancel(t *testing.T) {
	svc, _ := newTestService(t)
	session := requestSession(t, svc)

	accepted, err := svc.Accept(context.Background(), session.ID, "counselor-1")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if accepted.Status != model.SessionAccepted {
		t.Fatalf("Status = %q, want %q", accepted.Status, model.SessionAccepted)
	}

	cancelled, err := svc.Cancel(context.Background(), session.ID, "seeker-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.SessionCancelled {
		t.Errorf("Status = %q, want %q", cancelled.Status, model.SessionCancelled)
	}
}

// TestScenarioRescheduleAndConfirm は再提案から確定までの流れを検証する。
// 確定時に提案時刻が正式な予定時刻へ昇格すること。
func TestScenarioRescheduleAndConfirm(t *testing.T) {
	svc, _ := newTestService(t)
	session := requestSession(t, svc)
	original := session.ScheduledAt
	proposed := baseTime.Add(72 * time.Hour)

	rescheduled, err := svc.Reschedule(
		context.Background(), session.ID, "counselor-1", proposed.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if rescheduled.Status != model.SessionRescheduled {
		t.Fatalf("Status = %q, want %q", rescheduled.Status, model.SessionRescheduled)
	}
	if !rescheduled.ScheduledAt.Equal(original) {
		t.Errorf("ScheduledAt changed before confirmation: %v", rescheduled.ScheduledAt)
	}
	if rescheduled.RescheduledAt == nil || !rescheduled.RescheduledAt.Equal(proposed) {
		t.Errorf("RescheduledAt = %v, want %v", rescheduled.RescheduledAt, proposed)
	}

	confirmed, err := svc.Confirm(context.Background(), session.ID, "seeker-1")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.Status != model.SessionConfirmed {
		t.Errorf("Status = %q, want %q", confirmed.Status, model.SessionConfirmed)
	}
	if !confirmed.ScheduledAt.Equal(proposed) {
		t.Errorf("ScheduledAt = %v, want promoted %v", confirmed.ScheduledAt, proposed)
	}
	if confirmed.RescheduledAt != nil {
		t.Error("RescheduledAt should be cleared after confirmation")
	}
}

// TestReschedule_FromAccepted は承諾済みセッションからの再提案を検証する。
func TestReschedule_FromAccepted(t *testing.T) {
	svc, _ := newTestService(t)
	session := requestSession(t, svc)

	if _, err := svc.Accept(context.Background(), session.ID, "counselor-1"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	rescheduled, err := svc.Reschedule(context.Background(), session.ID, "counselor-1",
		baseTime.Add(96*time.Hour).Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if rescheduled.Status != model.SessionRescheduled {
		t.Errorf("Status = %q, want %q", rescheduled.Status, model.SessionRescheduled)
	}
}

func TestCancel_AfterConfirmed(t *testing.T) {
	svc, repo := newTestService(t)
	session := requestSession(t, svc)
	repo.sessions[session.ID].Status = model.SessionConfirmed

	cancelled, err := svc.Cancel(context.Background(), session.ID, "seeker-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != model.SessionCancelled {
		t.Errorf("Status = %q, want %q", cancelled.Status, model.SessionCancelled)
	}
}

// TestInvalidTransitions は遷移表にない操作がすべて409相当で拒まれることを検証する。
func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from model.SessionStatus
		op   func(svc *Service, id string) error
	}{
		{"承諾済みを再承諾", model.SessionAccepted, func(svc *Service, id string) error {
			_, err := svc.Accept(context.Background(), id, "counselor-1")
			return err
		}},
		{"拒否済みを承諾", model.SessionRejected, func(svc *Service, id string) error {
			_, err := svc.Accept(context.Background(), id, "counselor-1")
			return err
		}},
		{"確定済みを拒否", model.SessionConfirmed, func(svc *Service, id string) error {
			_, err := svc.Reject(context.Background(), id, "counselor-1")
			return err
		}},
		{"取消済みを再提案", model.SessionCancelled, func(svc *Service, id string) error {
			_, err := svc.Reschedule(context.Background(), id, "counselor-1",
				baseTime.Add(time.Hour).Format(time.RFC3339))
			return err
		}},
		{"保留中を確定", model.SessionPending, func(svc *Service, id string) error {
			_, err := svc.Confirm(context.Background(), id, "seeker-1")
			return err
		}},
		{"承諾済みを確定", model.SessionAccepted, func(svc *Service, id string) error {
			_, err := svc.Confirm(context.Background(), id, "seeker-1")
			return err
		}},
		{"取消済みを再取消", model.SessionCancelled, func(svc *Service, id string) error {
			_, err := svc.Cancel(context.Background(), id, "seeker-1")
			return err
		}},
		{"拒否済みを取消", model.SessionRejected, func(svc *Service, id string) error {
			_, err := svc.Cancel(context.Background(), id, "seeker-1")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			session := requestSession(t, svc)
			repo.sessions[session.ID].Status = tt.from

			err := tt.op(svc, session.ID)
			if !isCode(err, model.ErrCodeSessionStateInvalid) {
				t.Errorf("error = %v, want code %s", err, model.ErrCodeSessionStateInvalid)
			}
		})
	}
}

// TestCounterpartyChecks は記録済みの当事者以外からの操作が拒まれることを検証する。
func TestCounterpartyChecks(t *testing.T) {
	tests := []struct {
		name string
		op   func(svc *Service, id string) error
	}{
		{"他のカウンセラーが承諾", func(svc *Service, id string) error {
			_, err := svc.Accept(context.Background(), id, "counselor-other")
			return err
		}},
		{"他のカウンセラーが拒否", func(svc *Service, id string) error {
			_, err := svc.Reject(context.Background(), id, "counselor-other")
			return err
		}},
		{"求職者が承諾", func(svc *Service, id string) error {
			_, err := svc.Accept(context.Background(), id, "seeker-1")
			return err
		}},
		{"カウンセラーが取消", func(svc *Service, id string) error {
			_, err := svc.Cancel(context.Background(), id, "counselor-1")
			return err
		}},
		{"他の求職者が確定", func(svc *Service, id string) error {
			_, err := svc.Confirm(context.Background(), id, "seeker-other")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			session := requestSession(t, svc)
			repo.sessions[session.ID].Status = model.SessionRescheduled
			proposed := baseTime.Add(time.Hour)
			repo.sessions[session.ID].RescheduledAt = &proposed

			err := tt.op(svc, session.ID)
			if !isCode(err, model.ErrCodeForbidden) {
				t.Errorf("error = %v, want code %s", err, model.ErrCodeForbidden)
			}
		})
	}
}

func TestSessionNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Accept(context.Background(), "missing", "counselor-1")
	if !isCode(err, model.ErrCodeSessionNotFound) {
		t.Errorf("Accept() error = %v, want code %s", err, model.ErrCodeSessionNotFound)
	}
}

func TestListForUser(t *testing.T) {
	svc, _ := newTestService(t)
	requestSession(t, svc)

	for _, userID := range []string{"seeker-1", "counselor-1"} {
		sessions, err := svc.ListForUser(context.Background(), userID)
		if err != nil {
			t.Fatalf("ListForUser(%s) error = %v", userID, err)
		}
		if len(sessions) != 1 {
			t.Errorf("ListForUser(%s) returned %d sessions, want 1", userID, len(sessions))
		}
	}

	sessions, err := svc.ListForUser(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("ListForUser(stranger) error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("ListForUser(stranger) returned %d sessions, want 0", len(sessions))
	}
}

func isCode(err error, code string) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
