package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/careerflow/internal/ai"
	"github.com/hitoshi/careerflow/internal/model"
)

type mockAIService struct {
	chatFn           func(ctx context.Context, userID string, in ai.ChatInput) (string, error)
	careerPathsFn    func(ctx context.Context, userID string) (*ai.CareerPathsResult, error)
	resumeFeedbackFn func(ctx context.Context, userID string, pdf []byte) (*ai.ResumeFeedback, error)
	fitScoreFn       func(ctx context.Context, userID, jobDescription string) (*ai.FitScoreResult, error)
	pathTreeFn       func(ctx context.Context, userID, goalRole string) (*ai.CareerPathTree, error)
}

func (m *mockAIService) Chat(ctx context.Context, userID string, in ai.ChatInput) (string, error) {
	return m.chatFn(ctx, userID, in)
}

func (m *mockAIService) CareerPaths(ctx context.Context, userID string) (*ai.CareerPathsResult, error) {
	return m.careerPathsFn(ctx, userID)
}

func (m *mockAIService) ResumeFeedback(ctx context.Context, userID string, pdf []byte) (*ai.ResumeFeedback, error) {
	return m.resumeFeedbackFn(ctx, userID, pdf)
}

func (m *mockAIService) FitScore(ctx context.Context, userID, jobDescription string) (*ai.FitScoreResult, error) {
	return m.fitScoreFn(ctx, userID, jobDescription)
}

func (m *mockAIService) CareerPathTree(ctx context.Context, userID, goalRole string) (*ai.CareerPathTree, error) {
	return m.pathTreeFn(ctx, userID, goalRole)
}

func TestAIHandler_Chat(t *testing.T) {
	svc := &mockAIService{
		chatFn: func(_ context.Context, userID string, in ai.ChatInput) (string, error) {
			if userID != "seeker-1" {
				t.Errorf("userID = %q", userID)
			}
			if in.Message != "How do I switch into data engineering?" || len(in.History) != 1 {
				t.Errorf("input = %+v", in)
			}
			return "Start by strengthening your SQL.", nil
		},
	}
	h := NewAIHandler(svc)

	body := bytes.NewBufferString(`{"message":"How do I switch into data engineering?","history":[{"role":"user","parts":["hi"]}]}`)
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/ai/chat", body), "seeker-1", model.RoleJobSeeker)
	w := httptest.NewRecorder()
	h.Chat(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp chatResponse
	decodeBody(t, w, &resp)
	if resp.Reply != "Start by strengthening your SQL." {
		t.Errorf("Reply = %q", resp.Reply)
	}
}

func TestAIHandler_Chat_Unavailable(t *testing.T) {
	svc := &mockAIService{
		chatFn: func(context.Context, string, ai.ChatInput) (string, error) {
			return "", model.NewAIUnavailableError()
		},
	}
	h := NewAIHandler(svc)

	body := bytes.NewBufferString(`{"message":"hello"}`)
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/ai/chat", body), "seeker-1", model.RoleJobSeeker)
	w := httptest.NewRecorder()
	h.Chat(w, r)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestAIHandler_ResumeFeedback_RejectsNonPDF(t *testing.T) {
	called := false
	svc := &mockAIService{
		resumeFeedbackFn: func(context.Context, string, []byte) (*ai.ResumeFeedback, error) {
			called = true
			return nil, nil
		},
	}
	h := NewAIHandler(svc)

	body := bytes.NewBufferString("plain text resume")
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/ai/resume-feedback", body), "seeker-1", model.RoleJobSeeker)
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ResumeFeedback(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if called {
		t.Error("service called for non-PDF upload")
	}
}

func TestAIHandler_ResumeFeedback_PassesBody(t *testing.T) {
	svc := &mockAIService{
		resumeFeedbackFn: func(_ context.Context, userID string, pdf []byte) (*ai.ResumeFeedback, error) {
			if string(pdf) != "%PDF-1.7 fake" {
				t.Errorf("pdf = %q", pdf)
			}
			return &ai.ResumeFeedback{Score: 72, Strengths: []string{"Clear layout"}}, nil
		},
	}
	h := NewAIHandler(svc)

	body := bytes.NewBufferString("%PDF-1.7 fake")
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/ai/resume-feedback", body), "seeker-1", model.RoleJobSeeker)
	r.Header.Set("Content-Type", "application/pdf")
	w := httptest.NewRecorder()
	h.ResumeFeedback(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp ai.ResumeFeedback
	decodeBody(t, w, &resp)
	if resp.Score != 72 {
		t.Errorf("Score = %d, want 72", resp.Score)
	}
}

func TestAIHandler_FitScore(t *testing.T) {
	svc := &mockAIService{
		fitScoreFn: func(_ context.Context, _ string, jobDescription string) (*ai.FitScoreResult, error) {
			if jobDescription != "Senior Go engineer building payment APIs." {
				t.Errorf("jobDescription = %q", jobDescription)
			}
			return &ai.FitScoreResult{Score: 85, MatchedSkills: []string{"Go"}}, nil
		},
	}
	h := NewAIHandler(svc)

	body := bytes.NewBufferString(`{"jobDescription":"Senior Go engineer building payment APIs."}`)
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/ai/fit-score", body), "seeker-1", model.RoleJobSeeker)
	w := httptest.NewRecorder()
	h.FitScore(w, r)

	var resp ai.FitScoreResult
	decodeBody(t, w, &resp)
	if resp.Score != 85 {
		t.Errorf("Score = %d, want 85", resp.Score)
	}
}

func TestAIHandler_CareerPathTree(t *testing.T) {
	svc := &mockAIService{
		pathTreeFn: func(_ context.Context, _ string, goalRole string) (*ai.CareerPathTree, error) {
			if goalRole != "Engineering Manager" {
				t.Errorf("goalRole = %q", goalRole)
			}
			return &ai.CareerPathTree{GoalRole: goalRole, EstimatedTotalYears: "6 years"}, nil
		},
	}
	h := NewAIHandler(svc)

	body := bytes.NewBufferString(`{"goalRole":"Engineering Manager"}`)
	r := withUser(httptest.NewRequest(http.MethodPost, "/api/ai/career-path-tree", body), "seeker-1", model.RoleJobSeeker)
	w := httptest.NewRecorder()
	h.CareerPathTree(w, r)

	var resp ai.CareerPathTree
	decodeBody(t, w, &resp)
	if resp.GoalRole != "Engineering Manager" {
		t.Errorf("GoalRole = %q", resp.GoalRole)
	}
}
