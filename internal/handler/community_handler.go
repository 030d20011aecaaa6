package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/community"
	"github.com/hitoshi/careerflow/internal/middleware"
	"github.com/hitoshi/careerflow/internal/model"
)

// CommunityServiceInterface はフォーラムハンドラーが必要とするサービスインターフェース。
type CommunityServiceInterface interface {
	CreatePost(ctx context.Context, authorID string, in community.CreatePostInput) (*model.CommunityPost, error)
	ListPosts(ctx context.Context, filter community.ListPostsFilter) ([]model.CommunityPost, error)
	GetPost(ctx context.Context, postID string) (*model.CommunityPost, error)
	ToggleLikePost(ctx context.Context, postID, userID string) (*community.LikeResult, error)
	DeletePost(ctx context.Context, postID, callerID string, callerRole model.Role) error
	CreateReply(ctx context.Context, postID, authorID, body string) (*model.CommunityReply, error)
	ListReplies(ctx context.Context, postID string) ([]model.CommunityReply, error)
	ToggleLikeReply(ctx context.Context, replyID, userID string) (*community.LikeResult, error)
	DeleteReply(ctx context.Context, replyID, callerID string, callerRole model.Role) error
}

// CommunityHandler はフォーラムのHTTPハンドラー。
type CommunityHandler struct {
	service CommunityServiceInterface
}

// NewCommunityHandler はCommunityHandlerを生成する。
func NewCommunityHandler(service CommunityServiceInterface) *CommunityHandler {
	return &CommunityHandler{service: service}
}

type createPostRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

type createReplyRequest struct {
	Body string `json:"body"`
}

type postResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Category     string   `json:"category"`
	AuthorID     string   `json:"authorId"`
	LikesCount   int      `json:"likesCount"`
	LikedBy      []string `json:"likedBy"`
	RepliesCount int      `json:"repliesCount"`
	ViewsCount   int      `json:"viewsCount"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

type replyResponse struct {
	ID         string   `json:"id"`
	PostID     string   `json:"postId"`
	AuthorID   string   `json:"authorId"`
	Body       string   `json:"body"`
	LikesCount int      `json:"likesCount"`
	LikedBy    []string `json:"likedBy"`
	CreatedAt  string   `json:"createdAt"`
}

type likeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// CreatePost は投稿を作成する。
// POST /api/community/posts
func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.CreatePost(r.Context(), userID, community.CreatePostInput{
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// ListPosts は投稿一覧を返す。
// GET /api/community/posts?category=&search=
func (h *CommunityHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	posts, err := h.service.ListPosts(r.Context(), community.ListPostsFilter{
		Category: query.Get("category"),
		Search:   query.Get("search"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for i := range posts {
		out = append(out, toPostResponse(&posts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetPost は投稿詳細を返す。閲覧数を加算した後の値を返す。
// GET /api/community/posts/{postID}
func (h *CommunityHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(post))
}

// ToggleLikePost は投稿へのいいねをトグルする。
// POST /api/community/posts/{postID}/like
func (h *CommunityHandler) ToggleLikePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.ToggleLikePost(r.Context(), chi.URLParam(r, "postID"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likeResponse{Liked: result.Liked, LikesCount: result.LikesCount})
}

// DeletePost は投稿を返信ごと削除する。著者または管理者のみ。
// DELETE /api/community/posts/{postID}
func (h *CommunityHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUserAndRole(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "postID"), userID, role); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateReply は投稿への返信を作成する。
// POST /api/community/posts/{postID}/replies
func (h *CommunityHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.CreateReply(r.Context(), chi.URLParam(r, "postID"), userID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReplyResponse(created))
}

// ListReplies は投稿への返信を古い順に返す。
// GET /api/community/posts/{postID}/replies
func (h *CommunityHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.service.ListReplies(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]replyResponse, 0, len(replies))
	for i := range replies {
		out = append(out, toReplyResponse(&replies[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ToggleLikeReply は返信へのいいねをトグルする。
// POST /api/community/replies/{id}/like
func (h *CommunityHandler) ToggleLikeReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.ToggleLikeReply(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likeResponse{Liked: result.Liked, LikesCount: result.LikesCount})
}

// DeleteReply は返信を削除する。著者または管理者のみ。
// DELETE /api/community/replies/{id}
func (h *CommunityHandler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requireUserAndRole(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteReply(r.Context(), chi.URLParam(r, "id"), userID, role); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireUserAndRole はコンテキストから認証済みユーザーIDとロールを取り出す。
func requireUserAndRole(w http.ResponseWriter, r *http.Request) (string, model.Role, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return "", "", false
	}
	role, err := middleware.RoleFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", "", false
	}
	return userID, role, true
}

func toPostResponse(p *model.CommunityPost) postResponse {
	return postResponse{
		ID:           p.ID,
		Title:        p.Title,
		Body:         p.Body,
		Category:     string(p.Category),
		AuthorID:     p.AuthorID,
		LikesCount:   p.LikesCount,
		LikedBy:      emptyIfNil(p.LikedBy),
		RepliesCount: p.RepliesCount,
		ViewsCount:   p.ViewsCount,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func toReplyResponse(reply *model.CommunityReply) replyResponse {
	return replyResponse{
		ID:         reply.ID,
		PostID:     reply.PostID,
		AuthorID:   reply.AuthorID,
		Body:       reply.Body,
		LikesCount: reply.LikesCount,
		LikedBy:    emptyIfNil(reply.LikedBy),
		CreatedAt:  reply.CreatedAt.Format(time.RFC3339),
	}
}
