package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/session"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	Request(ctx context.Context, jobSeekerID string, in session.RequestInput) (*model.Session, error)
	ListForUser(ctx context.Context, userID string) ([]model.Session, error)
	Accept(ctx context.Context, sessionID, callerID string) (*model.Session, error)
	Reject(ctx context.Context, sessionID, callerID string) (*model.Session, error)
	Reschedule(ctx context.Context, sessionID, callerID, proposedAt string) (*model.Session, error)
	Confirm(ctx context.Context, sessionID, callerID string) (*model.Session, error)
	Cancel(ctx context.Context, sessionID, callerID string) (*model.Session, error)
}

// SessionHandler はカウンセリングセッションのHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

type requestSessionRequest struct {
	CounselorID string `json:"counselorId"`
	ScheduledAt string `json:"scheduledAt"`
	Notes       string `json:"notes"`
}

type rescheduleRequest struct {
	RescheduledAt string `json:"rescheduledAt"`
}

type sessionResponse struct {
	ID            string  `json:"id"`
	JobSeekerID   string  `json:"jobSeekerId"`
	CounselorID   string  `json:"counselorId"`
	ScheduledAt   string  `json:"scheduledAt"`
	RescheduledAt *string `json:"rescheduledAt,omitempty"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// Request は新規セッションリクエストを処理する。求職者のみ。
// POST /api/sessions
func (h *SessionHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req requestSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Request(r.Context(), userID, session.RequestInput{
		CounselorID: req.CounselorID,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(created))
}

// List は自分が当事者のセッション一覧を返す。
// GET /api/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, toSessionResponse(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Accept はリクエストの承諾を処理する。担当カウンセラーのみ。
// POST /api/sessions/{id}/accept
func (h *SessionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

// Reject はリクエストの拒否を処理する。担当カウンセラーのみ。
// POST /api/sessions/{id}/reject
func (h *SessionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

// Reschedule は新しい時刻の提案を処理する。担当カウンセラーのみ。
// POST /api/sessions/{id}/reschedule
func (h *SessionHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req rescheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.Reschedule(r.Context(), chi.URLParam(r, "id"), userID, req.RescheduledAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(updated))
}

// Confirm は提案時刻の確定を処理する。当該求職者のみ。
// POST /api/sessions/{id}/confirm
func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

// Cancel はセッションの取消を処理する。当該求職者のみ。
// POST /api/sessions/{id}/cancel
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

// transition はボディを取らない状態遷移エンドポイントの共通処理。
func (h *SessionHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, sessionID, callerID string) (*model.Session, error),
) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	updated, err := op(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(updated))
}

func toSessionResponse(s *model.Session) sessionResponse {
	return sessionResponse{
		ID:            s.ID,
		JobSeekerID:   s.JobSeekerID,
		CounselorID:   s.CounselorID,
		ScheduledAt:   s.ScheduledAt.Format(time.RFC3339),
		RescheduledAt: timePtrOrNil(s.RescheduledAt),
		Status:        string(s.Status),
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}
