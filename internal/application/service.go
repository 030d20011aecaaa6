// Package application は求人応募とエクスポートのビジネスロジックを提供する。
package application

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

// ApplyInput は応募のリクエスト内容を表す。
type ApplyInput struct {
	CoverLetter string
	ResumeURL   string
}

// Service は応募のビジネスロジックを提供する。
type Service struct {
	applications repository.ApplicationRepository
	jobs         repository.JobRepository
	sanitizer    security.ContentSanitizerService
	now          func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	applications repository.ApplicationRepository,
	jobs repository.JobRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		applications: applications,
		jobs:         jobs,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// Apply は求人への応募を作成する。
// 締切超過と重複応募は拒否される。重複はストアのユニーク制約でも防がれる。
func (s *Service) Apply(ctx context.Context, jobID, applicantID string, in ApplyInput) (*model.Application, error) {
	if apiErr := validateApply(in); apiErr != nil {
		return nil, apiErr
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError()
	}
	if job.DeadlinePassed(s.now()) {
		return nil, model.NewDeadlinePassedError()
	}

	exists, err := s.applications.Exists(ctx, jobID, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if exists {
		return nil, model.NewAlreadyAppliedError()
	}

	now := s.now()
	app := &model.Application{
		ID:          uuid.NewString(),
		JobID:       jobID,
		ApplicantID: applicantID,
		CoverLetter: s.sanitizer.Sanitize(strings.TrimSpace(in.CoverLetter)),
		ResumeURL:   strings.TrimSpace(in.ResumeURL),
		Status:      model.ApplicationSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.applications.Create(ctx, app); err != nil {
		if err == repository.ErrDuplicateApplication {
			return nil, model.NewAlreadyAppliedError()
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// ListMine は応募者自身の応募履歴を求人概要付きで返す。
func (s *Service) ListMine(ctx context.Context, applicantID string) ([]repository.ApplicationWithJob, error) {
	apps, err := s.applications.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListForJob は求人への応募一覧を返す。求人の投稿者のみが閲覧できる。
func (s *Service) ListForJob(ctx context.Context, jobID, callerID string) ([]repository.ApplicationWithApplicant, error) {
	if _, err := s.ownedJob(ctx, jobID, callerID); err != nil {
		return nil, err
	}

	apps, err := s.applications.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// HasApplied は呼び出し元が指定求人に応募済みかを返す。
func (s *Service) HasApplied(ctx context.Context, jobID, applicantID string) (bool, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return false, model.NewJobNotFoundError()
	}

	exists, err := s.applications.Exists(ctx, jobID, applicantID)
	if err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

// Export は求人への応募一覧をxlsxワークブックとして生成する。
// 求人の投稿者のみが実行できる。戻り値はワークブックのバイト列と
// 求人タイトル由来のファイル名。
func (s *Service) Export(ctx context.Context, jobID, callerID string) ([]byte, string, error) {
	job, err := s.ownedJob(ctx, jobID, callerID)
	if err != nil {
		return nil, "", err
	}

	apps, err := s.applications.ListByJob(ctx, jobID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list applications: %w", err)
	}

	data, err := buildWorkbook(apps)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build workbook: %w", err)
	}
	return data, exportFilename(job.Title), nil
}

// ownedJob は求人を取得し、呼び出し元が投稿者であることを検証する。
func (s *Service) ownedJob(ctx context.Context, jobID, callerID string) (*model.Job, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError()
	}
	if job.PostedBy != callerID {
		return nil, model.NewForbiddenError("Only the counselor who posted this job can view its applications.")
	}
	return job, nil
}

func validateApply(in ApplyInput) *model.APIError {
	issues := []model.FieldIssue{}
	if len(in.CoverLetter) > 2000 {
		issues = append(issues, model.FieldIssue{
			Field: "coverLetter", Message: "Cover letter must be 2000 characters or less.",
		})
	}
	if len(in.ResumeURL) > 500 {
		issues = append(issues, model.FieldIssue{
			Field: "resumeUrl", Message: "Resume URL must be 500 characters or less.",
		})
	}
	if len(issues) > 0 {
		return model.NewValidationError(issues[0].Message, issues...)
	}
	return nil
}
