package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/application"
	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Apply(ctx context.Context, jobID, applicantID string, in application.ApplyInput) (*model.Application, error)
	ListMine(ctx context.Context, applicantID string) ([]repository.ApplicationWithJob, error)
	ListForJob(ctx context.Context, jobID, callerID string) ([]repository.ApplicationWithApplicant, error)
	HasApplied(ctx context.Context, jobID, applicantID string) (bool, error)
	// Export は応募者一覧のxlsxワークブックとダウンロード用ファイル名を返す。
	Export(ctx context.Context, jobID, callerID string) ([]byte, string, error)
}

// ApplicationRecorder は応募メトリクスの記録用最小インターフェース。
type ApplicationRecorder interface {
	RecordApplication()
}

// ApplicationHandler は応募管理のHTTPハンドラー。
type ApplicationHandler struct {
	service ApplicationServiceInterface
	metrics ApplicationRecorder
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface, metrics ApplicationRecorder) *ApplicationHandler {
	return &ApplicationHandler{service: service, metrics: metrics}
}

type applyRequest struct {
	CoverLetter string `json:"coverLetter"`
	ResumeURL   string `json:"resumeUrl"`
}

type applicationResponse struct {
	ID          string `json:"id"`
	JobID       string `json:"jobId"`
	ApplicantID string `json:"applicantId"`
	CoverLetter string `json:"coverLetter"`
	ResumeURL   string `json:"resumeUrl"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

type jobSummaryResponse struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Company             string `json:"company"`
	Location            string `json:"location"`
	ApplicationDeadline string `json:"applicationDeadline"`
}

type applicationWithJobResponse struct {
	applicationResponse
	Job jobSummaryResponse `json:"job"`
}

type applicantResponse struct {
	ID         string               `json:"id"`
	FullName   string               `json:"fullName"`
	Email      string               `json:"email"`
	Skills     []string             `json:"skills"`
	Education  []educationResponse  `json:"education"`
	Experience []experienceResponse `json:"experience"`
}

type applicationWithApplicantResponse struct {
	applicationResponse
	Applicant applicantResponse `json:"applicant"`
}

// Apply は求人への応募を処理する。求職者のみ。
// POST /api/jobs/{jobID}/apply
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Apply(r.Context(), chi.URLParam(r, "jobID"), userID, application.ApplyInput{
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordApplication()
	writeJSON(w, http.StatusCreated, toApplicationResponse(created))
}

// ListMine は自分の応募履歴を返す。
// GET /api/applications/mine
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]applicationWithJobResponse, 0, len(apps))
	for i := range apps {
		a := &apps[i]
		out = append(out, applicationWithJobResponse{
			applicationResponse: toApplicationResponse(&a.Application),
			Job: jobSummaryResponse{
				ID:                  a.Application.JobID,
				Title:               a.JobTitle,
				Company:             a.JobCompany,
				Location:            a.JobLocation,
				ApplicationDeadline: a.JobDeadline.Format(time.RFC3339),
			},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListForJob は求人への応募一覧を応募者プロフィール付きで返す。求人の投稿者のみ。
// GET /api/jobs/{jobID}/applications
func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListForJob(r.Context(), chi.URLParam(r, "jobID"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]applicationWithApplicantResponse, 0, len(apps))
	for i := range apps {
		a := &apps[i]
		out = append(out, applicationWithApplicantResponse{
			applicationResponse: toApplicationResponse(&a.Application),
			Applicant: applicantResponse{
				ID:         a.Applicant.ID,
				FullName:   a.Applicant.FullName,
				Email:      a.Applicant.Email,
				Skills:     emptyIfNil(a.Applicant.Skills),
				Education:  toEducationResponses(a.Applicant.Education),
				Experience: toExperienceResponses(a.Applicant.Experience),
			},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HasApplied は応募済みかどうかを返す。
// GET /api/jobs/{jobID}/applied
func (h *ApplicationHandler) HasApplied(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	applied, err := h.service.HasApplied(r.Context(), chi.URLParam(r, "jobID"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

// Export は応募者一覧をxlsxワークブックとしてダウンロードさせる。求人の投稿者のみ。
// GET /api/jobs/{jobID}/applications/export
func (h *ApplicationHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	workbook, filename, err := h.service.Export(r.Context(), chi.URLParam(r, "jobID"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(workbook)
}

func toApplicationResponse(a *model.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		JobID:       a.JobID,
		ApplicantID: a.ApplicantID,
		CoverLetter: a.CoverLetter,
		ResumeURL:   a.ResumeURL,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}
