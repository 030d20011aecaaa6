// Package resource は学習リソースライブラリのビジネスロジックを提供する。
package resource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
	"github.com/hitoshi/careerflow/internal/security"
)

// CreateInput はリソース作成のリクエスト内容を表す。
type CreateInput struct {
	Title       string
	Description string
	Type        string
	Category    string
	URL         string
	Tags        []string
}

// ListFilter はリソース一覧の絞り込み条件を表す。
type ListFilter struct {
	Type     string
	Category string
	Search   string
	Sort     string // "newest"（既定）| "popular"
}

// Service は学習リソースのビジネスロジックを提供する。
type Service struct {
	resources repository.ResourceRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(resources repository.ResourceRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		resources: resources,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create はリソースを検証・正規化して保存する。
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (*model.Resource, error) {
	if apiErr := validateCreate(in); apiErr != nil {
		return nil, apiErr
	}

	normalizedURL, ok := NormalizeURL(in.URL)
	if !ok {
		return nil, model.NewInvalidURLError()
	}

	now := s.now()
	res := &model.Resource{
		ID:          uuid.NewString(),
		Title:       s.sanitizer.Sanitize(strings.TrimSpace(in.Title)),
		Description: s.sanitizer.Sanitize(strings.TrimSpace(in.Description)),
		Type:        model.ResourceType(in.Type),
		Category:    model.ResourceCategory(in.Category),
		URL:         normalizedURL,
		Tags:        normalizeTags(in.Tags),
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.resources.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// List は条件に合致するリソースを返す。
// sort=popularではいいね数の多い順、同数では新しい順に並ぶ。
func (s *Service) List(ctx context.Context, filter ListFilter) ([]model.Resource, error) {
	repoFilter := repository.ResourceFilter{
		Type:     strings.TrimSpace(filter.Type),
		Category: strings.TrimSpace(filter.Category),
		Search:   strings.TrimSpace(filter.Search),
	}

	resources, err := s.resources.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	if filter.Sort == "popular" {
		sort.SliceStable(resources, func(i, j int) bool {
			if resources[i].LikesCount != resources[j].LikesCount {
				return resources[i].LikesCount > resources[j].LikesCount
			}
			return resources[i].CreatedAt.After(resources[j].CreatedAt)
		})
	}
	return resources, nil
}

// Delete はリソースを削除する。作成者本人のみ。
func (s *Service) Delete(ctx context.Context, resourceID, callerID string) error {
	res, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("failed to load resource: %w", err)
	}
	if res == nil {
		return model.NewResourceNotFoundError()
	}
	if res.CreatedBy != callerID {
		return model.NewForbiddenError("Only the creator can delete this resource.")
	}

	if err := s.resources.Delete(ctx, resourceID); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

// NormalizeURL はリソースURLをスキーム付きの形に正規化する。
//   - 空文字列は空のまま受理する
//   - http:// または https:// で始まるものはそのまま
//   - www.で始まる、またはドットを含み空白を含まない文字列にはhttps://を前置する
//   - 上記以外の非空入力は拒否する
func NormalizeURL(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", true
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, true
	}
	if strings.HasPrefix(trimmed, "www.") {
		return "https://" + trimmed, true
	}
	if strings.Contains(trimmed, ".") && !strings.Contains(trimmed, " ") {
		return "https://" + trimmed, true
	}
	return "", false
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := []string{}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func validateCreate(in CreateInput) *model.APIError {
	issues := []model.FieldIssue{}

	if n := len(strings.TrimSpace(in.Title)); n < 3 || n > 160 {
		issues = append(issues, model.FieldIssue{
			Field: "title", Message: "Title must be between 3 and 160 characters.",
		})
	}
	if n := len(strings.TrimSpace(in.Description)); n < 10 || n > 500 {
		issues = append(issues, model.FieldIssue{
			Field: "description", Message: "Description must be between 10 and 500 characters.",
		})
	}
	if !model.ResourceType(in.Type).Valid() {
		issues = append(issues, model.FieldIssue{
			Field: "type", Message: "Type must be article, video, or template.",
		})
	}
	if !model.ResourceCategory(in.Category).Valid() {
		issues = append(issues, model.FieldIssue{
			Field: "category", Message: "Category must be resume, interview, or job_search.",
		})
	}
	if len(in.URL) > 500 {
		issues = append(issues, model.FieldIssue{
			Field: "url", Message: "URL must be 500 characters or less.",
		})
	}
	if len(in.Tags) > 12 {
		issues = append(issues, model.FieldIssue{
			Field: "tags", Message: "Tags are limited to 12 entries.",
		})
	}
	for _, tag := range in.Tags {
		if len(strings.TrimSpace(tag)) > 40 {
			issues = append(issues, model.FieldIssue{
				Field: "tags", Message: "Each tag must be 40 characters or less.",
			})
			break
		}
	}

	if len(issues) > 0 {
		return model.NewValidationError(issues[0].Message, issues...)
	}
	return nil
}
