// Package community はフォーラム投稿・返信のビジネスロジックを提供する。
package community

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
	"github.com/hitoshi/careerflow/internal/security"
)

// CreatePostInput は投稿作成のリクエスト内容を表す。
type CreatePostInput struct {
	Title    string
	Body     string
	Category string
}

// ListPostsFilter は投稿一覧の絞り込み条件を表す。
type ListPostsFilter struct {
	Category string // "all" または空はフィルタなし
	Search   string
}

// LikeResult はいいねトグルの結果を表す。
type LikeResult struct {
	Liked      bool
	LikesCount int
}

// Service はフォーラムのビジネスロジックを提供する。
type Service struct {
	posts     repository.PostRepository
	replies   repository.ReplyRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	posts repository.PostRepository,
	replies repository.ReplyRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		posts:     posts,
		replies:   replies,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// CreatePost は投稿を検証・サニタイズして保存する。
func (s *Service) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (*model.CommunityPost, error) {
	category := model.PostCategory(strings.TrimSpace(in.Category))
	if category == "" {
		category = model.CategoryGeneral
	}

	if apiErr := validatePost(in, category); apiErr != nil {
		return nil, apiErr
	}

	now := s.now()
	post := &model.CommunityPost{
		ID:        uuid.NewString(),
		Title:     s.sanitizer.Sanitize(strings.TrimSpace(in.Title)),
		Body:      s.sanitizer.Sanitize(strings.TrimSpace(in.Body)),
		Category:  category,
		AuthorID:  authorID,
		LikedBy:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// ListPosts は条件に合致する投稿を新着順に返す。
func (s *Service) ListPosts(ctx context.Context, filter ListPostsFilter) ([]model.CommunityPost, error) {
	repoFilter := repository.PostFilter{
		Search: strings.TrimSpace(filter.Search),
	}
	category := strings.TrimSpace(filter.Category)
	if category != "" && category != "all" {
		if !model.PostCategory(category).Valid() {
			return nil, model.NewValidationError("Unknown post category.", model.FieldIssue{
				Field: "category", Message: "Unknown post category.",
			})
		}
		repoFilter.Category = category
	}

	posts, err := s.posts.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost は投稿を取得し、閲覧数を加算する。
// 閲覧数の加算は読み取りを失敗させない。加算エラーはログに残すのみ。
// レスポンスは加算後の値を反映する。
func (s *Service) GetPost(ctx context.Context, postID string) (*model.CommunityPost, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	if err := s.posts.IncrementViews(ctx, postID); err != nil {
		slog.Warn("failed to increment post views",
			slog.String("post_id", postID),
			slog.String("error", err.Error()),
		)
	} else {
		post.ViewsCount++
	}

	return post, nil
}

// ToggleLikePost は呼び出し元のいいねを反転する。
func (s *Service) ToggleLikePost(ctx context.Context, postID, userID string) (*LikeResult, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	liked, count, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// DeletePost は投稿と配下の返信を削除する。著者本人または管理者のみ。
func (s *Service) DeletePost(ctx context.Context, postID, callerID string, callerRole model.Role) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return model.NewPostNotFoundError()
	}
	if post.AuthorID != callerID && callerRole != model.RoleAdmin {
		return model.NewForbiddenError("Only the author or an admin can delete this post.")
	}

	if err := s.posts.DeleteWithReplies(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// CreateReply は返信を検証・サニタイズして保存する。
// 親投稿のreplies_countはリポジトリ層で同一トランザクションとして加算される。
func (s *Service) CreateReply(ctx context.Context, postID, authorID, body string) (*model.CommunityReply, error) {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) < 1 || len(trimmed) > 3000 {
		return nil, model.NewValidationError("Reply body must be between 1 and 3000 characters.", model.FieldIssue{
			Field: "body", Message: "Reply body must be between 1 and 3000 characters.",
		})
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	now := s.now()
	reply := &model.CommunityReply{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      s.sanitizer.Sanitize(trimmed),
		LikedBy:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	return reply, nil
}

// ListReplies は投稿配下の返信を古い順に返す。
func (s *Service) ListReplies(ctx context.Context, postID string) ([]model.CommunityReply, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}

	replies, err := s.replies.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// ToggleLikeReply は呼び出し元のいいねを反転する。
func (s *Service) ToggleLikeReply(ctx context.Context, replyID, userID string) (*LikeResult, error) {
	reply, err := s.replies.FindByID(ctx, replyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reply: %w", err)
	}
	if reply == nil {
		return nil, model.NewReplyNotFoundError()
	}

	liked, count, err := s.replies.ToggleLike(ctx, replyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}

// DeleteReply は返信を削除する。著者本人または管理者のみ。
// 親投稿のreplies_countはリポジトリ層で同一トランザクションとして減算される。
func (s *Service) DeleteReply(ctx context.Context, replyID, callerID string, callerRole model.Role) error {
	reply, err := s.replies.FindByID(ctx, replyID)
	if err != nil {
		return fmt.Errorf("failed to load reply: %w", err)
	}
	if reply == nil {
		return model.NewReplyNotFoundError()
	}
	if reply.AuthorID != callerID && callerRole != model.RoleAdmin {
		return model.NewForbiddenError("Only the author or an admin can delete this reply.")
	}

	if err := s.replies.Delete(ctx, replyID); err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	return nil
}

func validatePost(in CreatePostInput, category model.PostCategory) *model.APIError {
	issues := []model.FieldIssue{}

	if n := len(strings.TrimSpace(in.Title)); n < 3 || n > 200 {
		issues = append(issues, model.FieldIssue{
			Field: "title", Message: "Title must be between 3 and 200 characters.",
		})
	}
	if n := len(strings.TrimSpace(in.Body)); n < 10 || n > 5000 {
		issues = append(issues, model.FieldIssue{
			Field: "body", Message: "Body must be between 10 and 5000 characters.",
		})
	}
	if !category.Valid() {
		issues = append(issues, model.FieldIssue{
			Field: "category", Message: "Unknown post category.",
		})
	}

	if len(issues) > 0 {
		return model.NewValidationError(issues[0].Message, issues...)
	}
	return nil
}
