package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/job"
	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	Create(ctx context.Context, posterID string, in job.CreateInput) (*model.Job, error)
	List(ctx context.Context, callerID string, filter job.ListFilter) ([]repository.JobWithPoster, error)
	Get(ctx context.Context, jobID string) (*repository.JobWithPoster, error)
	Delete(ctx context.Context, jobID, callerID string) error
}

// JobHandler は求人管理のHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

type createJobRequest struct {
	Title               string   `json:"title"`
	Company             string   `json:"company"`
	Location            string   `json:"location"`
	Description         string   `json:"description"`
	Salary              string   `json:"salary"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	Tags                []string `json:"tags"`
}

type jobPosterResponse struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type jobResponse struct {
	ID                  string             `json:"id"`
	Title               string             `json:"title"`
	Company             string             `json:"company"`
	Location            string             `json:"location"`
	Description         string             `json:"description"`
	Salary              string             `json:"salary"`
	ApplicationDeadline string             `json:"applicationDeadline"`
	Tags                []string           `json:"tags"`
	PostedBy            *jobPosterResponse `json:"postedBy,omitempty"`
	CreatedAt           string             `json:"createdAt"`
}

// Create は求人を作成する。カウンセラーのみ。
// POST /api/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, job.CreateInput{
		Title:               req.Title,
		Company:             req.Company,
		Location:            req.Location,
		Description:         req.Description,
		Salary:              req.Salary,
		ApplicationDeadline: req.ApplicationDeadline,
		Tags:                req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toJobResponse(created, nil))
}

// List は求人一覧を返す。
// GET /api/jobs?search=&tag=&mine=true
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	jobs, err := h.service.List(r.Context(), userID, job.ListFilter{
		Search: query.Get("search"),
		Tag:    query.Get("tag"),
		Mine:   query.Get("mine") == "true",
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i].Job, &jobs[i].Poster))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は求人詳細を返す。
// GET /api/jobs/{jobID}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(&found.Job, &found.Poster))
}

// Delete は求人を削除する。投稿者のみ。
// DELETE /api/jobs/{jobID}
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "jobID"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toJobResponse(j *model.Job, poster *model.JobPoster) jobResponse {
	resp := jobResponse{
		ID:                  j.ID,
		Title:               j.Title,
		Company:             j.Company,
		Location:            j.Location,
		Description:         j.Description,
		Salary:              j.Salary,
		ApplicationDeadline: j.ApplicationDeadline.Format(time.RFC3339),
		Tags:                emptyIfNil(j.Tags),
		CreatedAt:           j.CreatedAt.Format(time.RFC3339),
	}
	if poster != nil {
		resp.PostedBy = &jobPosterResponse{
			ID:       poster.ID,
			FullName: poster.FullName,
			Email:    poster.Email,
		}
	}
	return resp
}
