// Package job は求人掲載のビジネスロジックを提供する。
package job

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

// CreateInput は求人作成のリクエスト内容を表す。
type CreateInput struct {
	Title               string
	Company             string
	Location            string
	Description         string
	Salary              string
	ApplicationDeadline string // RFC3339
	Tags                []string
}

// ListFilter は求人一覧の絞り込み条件を表す。
type ListFilter struct {
	Search string
	Tag    string
	Mine   bool
}

// Service は求人のビジネスロジックを提供する。
type Service struct {
	jobs      repository.JobRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(jobs repository.JobRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		jobs:      jobs,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create は求人を検証して保存する。締切は厳密に未来でなければならない。
// タグはフィルタの大文字小文字差を避けるため小文字で保存する。
func (s *Service) Create(ctx context.Context, posterID string, in CreateInput) (*model.Job, error) {
	deadline, apiErr := validateCreate(in, s.now())
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.now()
	job := &model.Job{
		ID:                  uuid.NewString(),
		Title:               strings.TrimSpace(in.Title),
		Company:             strings.TrimSpace(in.Company),
		Location:            strings.TrimSpace(in.Location),
		Description:         s.sanitizer.Sanitize(strings.TrimSpace(in.Description)),
		Salary:              strings.TrimSpace(in.Salary),
		ApplicationDeadline: deadline,
		Tags:                normalizeTags(in.Tags),
		PostedBy:            posterID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// List は条件に合致する求人を投稿者情報付きで新着順に返す。
func (s *Service) List(ctx context.Context, callerID string, filter ListFilter) ([]repository.JobWithPoster, error) {
	repoFilter := repository.JobFilter{
		Search: strings.TrimSpace(filter.Search),
		Tag:    strings.ToLower(strings.TrimSpace(filter.Tag)),
	}
	if filter.Mine {
		repoFilter.PostedBy = callerID
	}

	jobs, err := s.jobs.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// Get は指定IDの求人を投稿者情報付きで取得する。
func (s *Service) Get(ctx context.Context, jobID string) (*repository.JobWithPoster, error) {
	jw, err := s.jobs.FindByIDWithPoster(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if jw == nil {
		return nil, model.NewJobNotFoundError()
	}
	return jw, nil
}

// Delete は求人を削除する。投稿者本人のみが削除できる。
func (s *Service) Delete(ctx context.Context, jobID, callerID string) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return model.NewJobNotFoundError()
	}
	if job.PostedBy != callerID {
		return model.NewForbiddenError("Only the counselor who posted this job can delete it.")
	}

	if err := s.jobs.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := []string{}
	for _, tag := range tags {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
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

func validateCreate(in CreateInput, now time.Time) (time.Time, *model.APIError) {
	issues := []model.FieldIssue{}

	if n := len(strings.TrimSpace(in.Title)); n < 3 || n > 160 {
		issues = append(issues, model.FieldIssue{
			Field: "title", Message: "Title must be between 3 and 160 characters.",
		})
	}
	if n := len(strings.TrimSpace(in.Company)); n < 2 || n > 160 {
		issues = append(issues, model.FieldIssue{
			Field: "company", Message: "Company must be between 2 and 160 characters.",
		})
	}
	if n := len(strings.TrimSpace(in.Location)); n < 2 || n > 200 {
		issues = append(issues, model.FieldIssue{
			Field: "location", Message: "Location must be between 2 and 200 characters.",
		})
	}
	if n := len(strings.TrimSpace(in.Description)); n < 10 || n > 2000 {
		issues = append(issues, model.FieldIssue{
			Field: "description", Message: "Description must be between 10 and 2000 characters.",
		})
	}
	if len(in.Salary) > 100 {
		issues = append(issues, model.FieldIssue{
			Field: "salary", Message: "Salary must be 100 characters or less.",
		})
	}
	if len(in.Tags) > 10 {
		issues = append(issues, model.FieldIssue{
			Field: "tags", Message: "Tags are limited to 10 entries.",
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

	var deadline time.Time
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(in.ApplicationDeadline))
	switch {
	case err != nil:
		issues = append(issues, model.FieldIssue{
			Field: "applicationDeadline", Message: "Application deadline must be a valid RFC3339 timestamp.",
		})
	case !parsed.After(now):
		issues = append(issues, model.FieldIssue{
			Field: "applicationDeadline", Message: "Application deadline must be in the future.",
		})
	default:
		deadline = parsed
	}

	if len(issues) > 0 {
		return time.Time{}, model.NewValidationError(issues[0].Message, issues...)
	}
	return deadline, nil
}
