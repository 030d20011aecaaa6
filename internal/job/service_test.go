package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
	"github.com/hitoshi/careerflow/internal/security"
)

// mockJobRepo はJobRepositoryのテスト用実装。
type mockJobRepo struct {
	jobs       map[string]*model.Job
	created    []*model.Job
	deleted    []string
	lastFilter repository.JobFilter
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: map[string]*model.Job{}}
}

func (m *mockJobRepo) Create(ctx context.Context, job *model.Job) error {
	m.jobs[job.ID] = job
	m.created = append(m.created, job)
	return nil
}

func (m *mockJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	return m.jobs[id], nil
}

func (m *mockJobRepo) FindByIDWithPoster(ctx context.Context, id string) (*repository.JobWithPoster, error) {
	job := m.jobs[id]
	if job == nil {
		return nil, nil
	}
	return &repository.JobWithPoster{Job: *job, Poster: model.JobPoster{ID: job.PostedBy}}, nil
}

func (m *mockJobRepo) List(ctx context.Context, filter repository.JobFilter) ([]repository.JobWithPoster, error) {
	m.lastFilter = filter
	out := []repository.JobWithPoster{}
	for _, job := range m.jobs {
		out = append(out, repository.JobWithPoster{Job: *job})
	}
	return out, nil
}

func (m *mockJobRepo) Delete(ctx context.Context, id string) error {
	delete(m.jobs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

var _ repository.JobRepository = (*mockJobRepo)(nil)

func validCreateInput() CreateInput {
	return CreateInput{
		Title:               "Backend Engineer",
		Company:             "Example Inc",
		Location:            "Tokyo",
		Description:         "Build and operate our job platform backend.",
		Salary:              "8M-12M JPY",
		ApplicationDeadline: time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
		Tags:                []string{"Go", " postgresql ", "go"},
	}
}

func newTestService() (*Service, *mockJobRepo) {
	repo := newMockJobRepo()
	return NewService(repo, security.NewContentSanitizer()), repo
}

// 求人作成でタグが小文字化・重複排除されることを検証
func TestCreate_NormalizesTags(t *testing.T) {
	svc, _ := newTestService()

	job, err := svc.Create(context.Background(), "counselor-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := []string{"go", "postgresql"}
	if len(job.Tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", job.Tags, want)
	}
	for i, tag := range want {
		if job.Tags[i] != tag {
			t.Errorf("Tags[%d] = %q, want %q", i, job.Tags[i], tag)
		}
	}
	if job.PostedBy != "counselor-1" {
		t.Errorf("PostedBy = %q, want counselor-1", job.PostedBy)
	}
}

// 過去の締切・不正な締切が拒否されることを検証
func TestCreate_DeadlineValidation(t *testing.T) {
	tests := []struct {
		name     string
		deadline string
	}{
		{"past deadline", time.Now().Add(-time.Hour).Format(time.RFC3339)},
		{"present deadline", time.Now().Format(time.RFC3339)},
		{"not a timestamp", "next week"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			in := validCreateInput()
			in.ApplicationDeadline = tt.deadline

			_, err := svc.Create(context.Background(), "counselor-1", in)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

// フィールド長の検証を確認
func TestCreate_FieldValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *CreateInput)
		wantField string
	}{
		{"title too short", func(in *CreateInput) { in.Title = "ab" }, "title"},
		{"company too short", func(in *CreateInput) { in.Company = "x" }, "company"},
		{"description too short", func(in *CreateInput) { in.Description = "too short" }, "description"},
		{"too many tags", func(in *CreateInput) {
			in.Tags = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
		}, "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			in := validCreateInput()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), "counselor-1", in)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			found := false
			for _, f := range apiErr.Fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected issue for %q, got %+v", tt.wantField, apiErr.Fields)
			}
		})
	}
}

// mine=trueで投稿者フィルタが適用されることを検証
func TestList_MineFilter(t *testing.T) {
	svc, repo := newTestService()

	if _, err := svc.List(context.Background(), "counselor-1", ListFilter{Mine: true, Tag: " GO "}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if repo.lastFilter.PostedBy != "counselor-1" {
		t.Errorf("PostedBy filter = %q, want counselor-1", repo.lastFilter.PostedBy)
	}
	if repo.lastFilter.Tag != "go" {
		t.Errorf("Tag filter = %q, want lowercased go", repo.lastFilter.Tag)
	}

	if _, err := svc.List(context.Background(), "counselor-1", ListFilter{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if repo.lastFilter.PostedBy != "" {
		t.Errorf("PostedBy filter = %q, want empty without mine", repo.lastFilter.PostedBy)
	}
}

// 不明な求人の取得がJOB_NOT_FOUNDになることを検証
func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), "missing")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeJobNotFound {
		t.Fatalf("expected JOB_NOT_FOUND, got %v", err)
	}
}

// 投稿者本人のみが削除できることを検証
func TestDelete_OwnerOnly(t *testing.T) {
	svc, repo := newTestService()
	job, err := svc.Create(context.Background(), "counselor-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err = svc.Delete(context.Background(), job.ID, "counselor-2")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("expected FORBIDDEN for non-owner, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("job must not be deleted by non-owner")
	}

	if err := svc.Delete(context.Background(), job.ID, "counselor-1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != job.ID {
		t.Errorf("deleted = %v, want [%s]", repo.deleted, job.ID)
	}
}
