package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/hitoshi/careerflow/internal/ai"
	"github.com/hitoshi/careerflow/internal/middleware"
	"github.com/hitoshi/careerflow/internal/model"
)

// AIServiceInterface はAIコーチハンドラーが必要とするサービスインターフェース。
type AIServiceInterface interface {
	Chat(ctx context.Context, userID string, in ai.ChatInput) (string, error)
	CareerPaths(ctx context.Context, userID string) (*ai.CareerPathsResult, error)
	ResumeFeedback(ctx context.Context, userID string, pdf []byte) (*ai.ResumeFeedback, error)
	FitScore(ctx context.Context, userID, jobDescription string) (*ai.FitScoreResult, error)
	CareerPathTree(ctx context.Context, userID, goalRole string) (*ai.CareerPathTree, error)
}

// AIHandler はAIキャリアコーチのHTTPハンドラー。
type AIHandler struct {
	service AIServiceInterface
}

// NewAIHandler はAIHandlerを生成する。
func NewAIHandler(service AIServiceInterface) *AIHandler {
	return &AIHandler{service: service}
}

type chatRequest struct {
	Message string        `json:"message"`
	History []ai.ChatTurn `json:"history"`
	Context string        `json:"context"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type fitScoreRequest struct {
	JobDescription string `json:"jobDescription"`
}

type pathTreeRequest struct {
	GoalRole string `json:"goalRole"`
}

// Chat はコーチとの対話を処理する。
// POST /api/ai/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.service.Chat(r.Context(), userID, ai.ChatInput{
		Message: req.Message,
		History: req.History,
		Context: req.Context,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// CareerPaths はキャリアパス提案を返す。
// GET /api/ai/career-paths
func (h *AIHandler) CareerPaths(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.CareerPaths(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ResumeFeedback はPDF履歴書の分析を処理する。
// POST /api/ai/resume-feedback
func (h *AIHandler) ResumeFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/pdf") {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Please upload a PDF file.", model.FieldIssue{
				Field: "resume", Message: "Content-Type must be application/pdf.",
			}))
		return
	}

	pdf, err := io.ReadAll(io.LimitReader(r.Body, ai.MaxResumeBytes+1))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	result, err := h.service.ResumeFeedback(r.Context(), userID, pdf)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// FitScore は求人票との適合度採点を処理する。
// POST /api/ai/fit-score
func (h *AIHandler) FitScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req fitScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.FitScore(r.Context(), userID, req.JobDescription)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CareerPathTree は目標ロールまでのキャリアツリー生成を処理する。
// POST /api/ai/career-path-tree
func (h *AIHandler) CareerPathTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req pathTreeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.CareerPathTree(r.Context(), userID, req.GoalRole)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
