package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/resource"
)

// ResourceServiceInterface はリソースハンドラーが必要とするサービスインターフェース。
type ResourceServiceInterface interface {
	Create(ctx context.Context, creatorID string, in resource.CreateInput) (*model.Resource, error)
	List(ctx context.Context, filter resource.ListFilter) ([]model.Resource, error)
	Delete(ctx context.Context, resourceID, callerID string) error
}

// ResourceHandler は学習リソースのHTTPハンドラー。
type ResourceHandler struct {
	service ResourceServiceInterface
}

// NewResourceHandler はResourceHandlerを生成する。
func NewResourceHandler(service ResourceServiceInterface) *ResourceHandler {
	return &ResourceHandler{service: service}
}

type createResourceRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
}

type resourceResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	LikesCount  int      `json:"likesCount"`
	CreatedBy   string   `json:"createdBy"`
	CreatedAt   string   `json:"createdAt"`
}

// Create はリソースを登録する。
// POST /api/resources
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createResourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, resource.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Category:    req.Category,
		URL:         req.URL,
		Tags:        req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResourceResponse(created))
}

// List はリソース一覧を返す。
// GET /api/resources?type=&category=&search=&sort=
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resources, err := h.service.List(r.Context(), resource.ListFilter{
		Type:     query.Get("type"),
		Category: query.Get("category"),
		Search:   query.Get("search"),
		Sort:     query.Get("sort"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]resourceResponse, 0, len(resources))
	for i := range resources {
		out = append(out, toResourceResponse(&resources[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete はリソースを削除する。作成者のみ。
// DELETE /api/resources/{id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toResourceResponse(res *model.Resource) resourceResponse {
	return resourceResponse{
		ID:          res.ID,
		Title:       res.Title,
		Description: res.Description,
		Type:        string(res.Type),
		Category:    string(res.Category),
		URL:         res.URL,
		Tags:        emptyIfNil(res.Tags),
		LikesCount:  res.LikesCount,
		CreatedBy:   res.CreatedBy,
		CreatedAt:   res.CreatedAt.Format(time.RFC3339),
	}
}
