package application

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
	"github.com/hitoshi/careerflow/internal/security"
)

// mockApplicationRepo はApplicationRepositoryのテスト用実装。
type mockApplicationRepo struct {
	apps      map[string]*model.Application // key: jobID+"/"+applicantID
	byJob     map[string][]repository.ApplicationWithApplicant
	createErr error
}

func newMockApplicationRepo() *mockApplicationRepo {
	return &mockApplicationRepo{
		apps:  map[string]*model.Application{},
		byJob: map[string][]repository.ApplicationWithApplicant{},
	}
}

func (m *mockApplicationRepo) key(jobID, applicantID string) string {
	return jobID + "/" + applicantID
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	k := m.key(app.JobID, app.ApplicantID)
	if _, ok := m.apps[k]; ok {
		return repository.ErrDuplicateApplication
	}
	m.apps[k] = app
	return nil
}

func (m *mockApplicationRepo) Exists(ctx context.Context, jobID, applicantID string) (bool, error) {
	_, ok := m.apps[m.key(jobID, applicantID)]
	return ok, nil
}

func (m *mockApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]repository.ApplicationWithJob, error) {
	out := []repository.ApplicationWithJob{}
	for _, app := range m.apps {
		if app.ApplicantID == applicantID {
			out = append(out, repository.ApplicationWithJob{Application: *app})
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) ListByJob(ctx context.Context, jobID string) ([]repository.ApplicationWithApplicant, error) {
	return m.byJob[jobID], nil
}

var _ repository.ApplicationRepository = (*mockApplicationRepo)(nil)

// mockJobRepo はJobRepositoryのテスト用実装。
type mockJobRepo struct {
	jobs map[string]*model.Job
}

func (m *mockJobRepo) Create(ctx context.Context, job *model.Job) error {
	m.jobs[job.ID] = job
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
	return &repository.JobWithPoster{Job: *job}, nil
}

func (m *mockJobRepo) List(ctx context.Context, filter repository.JobFilter) ([]repository.JobWithPoster, error) {
	return nil, nil
}

func (m *mockJobRepo) Delete(ctx context.Context, id string) error {
	delete(m.jobs, id)
	return nil
}

var _ repository.JobRepository = (*mockJobRepo)(nil)

func newTestService() (*Service, *mockApplicationRepo, *mockJobRepo) {
	appRepo := newMockApplicationRepo()
	jobRepo := &mockJobRepo{jobs: map[string]*model.Job{
		"job-1": {
			ID:                  "job-1",
			Title:               "Backend Engineer (Go) - Tokyo!",
			PostedBy:            "counselor-1",
			ApplicationDeadline: time.Now().Add(7 * 24 * time.Hour),
		},
		"job-expired": {
			ID:                  "job-expired",
			Title:               "Old Role",
			PostedBy:            "counselor-1",
			ApplicationDeadline: time.Now().Add(-time.Hour),
		},
	}}
	return NewService(appRepo, jobRepo, security.NewContentSanitizer()), appRepo, jobRepo
}

// 応募作成の基本フローを検証
func TestApply_Success(t *testing.T) {
	svc, _, _ := newTestService()

	app, err := svc.Apply(context.Background(), "job-1", "seeker-1", ApplyInput{
		CoverLetter: "I would love to join.",
		ResumeURL:   "https://example.com/resume.pdf",
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if app.Status != model.ApplicationSubmitted {
		t.Errorf("Status = %q, want submitted", app.Status)
	}
	if app.JobID != "job-1" || app.ApplicantID != "seeker-1" {
		t.Errorf("unexpected application: %+v", app)
	}
}

// シナリオ: 締切超過・重複・求人なしの応募失敗を検証
func TestApply_Failures(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Apply(context.Background(), "job-1", "seeker-1", ApplyInput{}); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}

	tests := []struct {
		name     string
		jobID    string
		wantCode string
	}{
		{"missing job", "nope", model.ErrCodeJobNotFound},
		{"deadline passed", "job-expired", model.ErrCodeDeadlinePassed},
		{"duplicate", "job-1", model.ErrCodeAlreadyApplied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(context.Background(), tt.jobID, "seeker-1", ApplyInput{})
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
				t.Fatalf("got %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

// ユニーク制約違反が競合エラーとして返ることを検証（レース時のバックストップ）
func TestApply_DuplicateBackstop(t *testing.T) {
	svc, appRepo, _ := newTestService()
	appRepo.createErr = repository.ErrDuplicateApplication

	_, err := svc.Apply(context.Background(), "job-1", "seeker-1", ApplyInput{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAlreadyApplied {
		t.Fatalf("expected ALREADY_APPLIED, got %v", err)
	}
}

// 応募一覧の閲覧が投稿者に限定されることを検証
func TestListForJob_OwnerOnly(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListForJob(context.Background(), "job-1", "counselor-2")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if _, err := svc.ListForJob(context.Background(), "job-1", "counselor-1"); err != nil {
		t.Fatalf("owner list failed: %v", err)
	}
}

// 応募済み判定を検証
func TestHasApplied(t *testing.T) {
	svc, _, _ := newTestService()

	applied, err := svc.HasApplied(context.Background(), "job-1", "seeker-1")
	if err != nil {
		t.Fatalf("HasApplied failed: %v", err)
	}
	if applied {
		t.Error("expected not applied before applying")
	}

	if _, err := svc.Apply(context.Background(), "job-1", "seeker-1", ApplyInput{}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	applied, err = svc.HasApplied(context.Background(), "job-1", "seeker-1")
	if err != nil {
		t.Fatalf("HasApplied failed: %v", err)
	}
	if !applied {
		t.Error("expected applied after applying")
	}
}

// エクスポートが正しいシート・ヘッダー・行を生成することを検証
func TestExport_Workbook(t *testing.T) {
	svc, appRepo, _ := newTestService()
	appliedAt := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	appRepo.byJob["job-1"] = []repository.ApplicationWithApplicant{
		{
			Application: model.Application{
				ID:          "app-1",
				CoverLetter: "Cover letter text",
				ResumeURL:   "https://example.com/resume.pdf",
				Status:      model.ApplicationSubmitted,
				CreatedAt:   appliedAt,
			},
			Applicant: repository.ApplicantProfile{
				FullName:   "Taro Yamada",
				Email:      "taro@example.com",
				Skills:     []string{"Go", "SQL"},
				Education:  []model.Education{{Degree: "BSc", FieldOfStudy: "CS", Institution: "Example University"}},
				Experience: []model.Experience{{Title: "Engineer", Company: "Example Inc"}},
			},
		},
	}

	data, filename, err := svc.Export(context.Background(), "job-1", "counselor-1")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if filename != "Backend_Engineer__Go____Tokyo__applicants.xlsx" {
		t.Errorf("filename = %q", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "Full Name" || rows[0][8] != "Status" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "Taro Yamada" || rows[1][2] != "Go, SQL" {
		t.Errorf("unexpected row: %v", rows[1])
	}
	if rows[1][3] != "BSc in CS - Example University" {
		t.Errorf("education cell = %q", rows[1][3])
	}
	if rows[1][4] != "Engineer at Example Inc" {
		t.Errorf("experience cell = %q", rows[1][4])
	}
}

// エクスポートが投稿者に限定されることを検証
func TestExport_OwnerOnly(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, err := svc.Export(context.Background(), "job-1", "seeker-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

// ファイル名の導出規則を検証
func TestExportFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Backend Engineer", "Backend_Engineer_applicants.xlsx"},
		{"C++/Rust Developer (Senior)", "C___Rust_Developer__Senior__applicants.xlsx"},
		{
			"A very long job title that definitely exceeds the forty character limit",
			"A_very_long_job_title_that_definitely_ex_applicants.xlsx",
		},
	}

	for _, tt := range tests {
		if got := exportFilename(tt.title); got != tt.want {
			t.Errorf("exportFilename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
