package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/hitoshi/careerflow/internal/model"
)

// fakeLLM は固定の応答を返すllms.Modelの実装。
type fakeLLM struct {
	response string
	err      error

	mu       sync.Mutex
	messages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	f.messages = messages
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// lastPrompt は最後の呼び出しの人間側メッセージのテキストを返す。
func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, msg := range f.messages {
		if msg.Role != schema.ChatMessageTypeHuman {
			continue
		}
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				texts = append(texts, text.Text)
			}
		}
	}
	return strings.Join(texts, "\n")
}

type fakeMetrics struct {
	mu       sync.Mutex
	requests map[string]int
	failures map[string]string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{requests: map[string]int{}, failures: map[string]string{}}
}

func (f *fakeMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}

func (f *fakeMetrics) RecordAIRequest(capability string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[capability]++
}

func (f *fakeMetrics) RecordAIFailure(capability, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[capability] = reason
}

func (f *fakeMetrics) RecordAILatency(string, time.Duration) {}
func (f *fakeMetrics) RecordSignup(string)                   {}
func (f *fakeMetrics) RecordApplication()                    {}

type fakeUserRepo struct {
	user *model.User
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(context.Context, string) (*model.User, error) { return nil, nil }
func (f *fakeUserRepo) UpdateProfile(context.Context, *model.User) error         { return nil }
func (f *fakeUserRepo) UpdateLastLogin(context.Context, string, time.Time) error { return nil }
func (f *fakeUserRepo) ListActiveCounselors(context.Context) ([]model.CounselorSummary, error) {
	return nil, nil
}

func testUser() *model.User {
	return &model.User{
		ID:       "user-1",
		FullName: "Hanako Yamada",
		Role:     model.RoleJobSeeker,
		IsActive: true,
		Profile: model.Profile{
			Bio:             "Aspiring data engineer",
			Skills:          []string{"Python", "SQL"},
			CareerInterests: []string{"Data Engineering"},
		},
	}
}

func newTestService(llm *fakeLLM) (*Service, *fakeMetrics) {
	collector := newFakeMetrics()
	svc := NewService(llm, &fakeUserRepo{user: testUser()}, collector, time.Second)
	return svc, collector
}

func TestBuildProfileContext_OmitsEmptyFields(t *testing.T) {
	user := &model.User{FullName: "Taro Sato"}
	got := BuildProfileContext(user)

	if got != "Name: Taro Sato" {
		t.Errorf("BuildProfileContext() = %q, want name only", got)
	}

	user.Profile.Location = "Osaka"
	user.Profile.Education = []model.Education{
		{Degree: "BSc", FieldOfStudy: "CS", Institution: "Osaka University"},
	}
	got = BuildProfileContext(user)
	for _, want := range []string{"Location: Osaka", "Education: BSc, CS, Osaka University"} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildProfileContext() missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Bio:") {
		t.Error("empty bio should be omitted")
	}
}

func TestChat_IncludesProfileAndHistory(t *testing.T) {
	llm := &fakeLLM{response: "Consider a data engineering bootcamp."}
	svc, collector := newTestService(llm)

	reply, err := svc.Chat(context.Background(), "user-1", ChatInput{
		Message: "What should I learn next?",
		History: []ChatTurn{
			{Role: "user", Parts: []string{"Hi"}},
			{Role: "model", Parts: []string{"Hello! How can I help?"}},
		},
		Context: "Currently preparing for interviews",
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "Consider a data engineering bootcamp." {
		t.Errorf("reply = %q", reply)
	}

	prompt := llm.lastPrompt()
	for _, want := range []string{"Hanako Yamada", "Python, SQL", "Currently preparing for interviews", "What should I learn next?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if len(llm.messages) != 4 { // system + 2 history + prompt
		t.Errorf("sent %d messages, want 4", len(llm.messages))
	}
	if collector.requests[capabilityChat] != 1 {
		t.Errorf("chat request count = %d, want 1", collector.requests[capabilityChat])
	}
}

func TestChat_Validation(t *testing.T) {
	svc, _ := newTestService(&fakeLLM{response: "ok"})

	longHistory := make([]ChatTurn, 51)
	for i := range longHistory {
		longHistory[i] = ChatTurn{Role: "user", Parts: []string{"x"}}
	}

	tests := []struct {
		name string
		in   ChatInput
	}{
		{"空メッセージ", ChatInput{Message: "   "}},
		{"長すぎるメッセージ", ChatInput{Message: strings.Repeat("a", 2001)}},
		{"履歴が多すぎる", ChatInput{Message: "hi", History: longHistory}},
		{"不正な履歴ロール", ChatInput{Message: "hi", History: []ChatTurn{{Role: "assistant", Parts: []string{"x"}}}}},
		{"文脈が長すぎる", ChatInput{Message: "hi", Context: strings.Repeat("a", 5001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), "user-1", tt.in)
			if !isCode(err, model.ErrCodeValidationFailed) {
				t.Errorf("Chat() error = %v, want validation failure", err)
			}
		})
	}
}

func TestCareerPaths_ParsesFencedJSON(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + `{
  "paths": [
    {"title": "Data Analyst", "fitScore": 82, "salaryRange": "estimated", "description": "d",
     "skillsToLearn": ["Tableau"], "recommendedCourse": {"name": "c", "reason": "r"}, "steps": ["s1"]},
    {"title": "Data Engineer", "fitScore": 75, "salaryRange": "estimated", "description": "d",
     "skillsToLearn": ["Spark"], "recommendedCourse": {"name": "c", "reason": "r"}, "steps": ["s1"]},
    {"title": "ML Engineer", "fitScore": 60, "salaryRange": "estimated", "description": "d",
     "skillsToLearn": ["PyTorch"], "recommendedCourse": {"name": "c", "reason": "r"}, "steps": ["s1"]}
  ]
}` + "\n```"}
	svc, _ := newTestService(llm)

	result, err := svc.CareerPaths(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CareerPaths() error = %v", err)
	}
	if len(result.Paths) != 3 {
		t.Fatalf("got %d paths, want 3", len(result.Paths))
	}
	if result.Paths[0].Title != "Data Analyst" || result.Paths[0].FitScore != 82 {
		t.Errorf("first path = %+v", result.Paths[0])
	}
}

func TestCareerPaths_WrongCountIsUnavailable(t *testing.T) {
	llm := &fakeLLM{response: `{"paths": [{"title": "Only One", "fitScore": 50}]}`}
	svc, collector := newTestService(llm)

	_, err := svc.CareerPaths(context.Background(), "user-1")
	if !isCode(err, model.ErrCodeAIUnavailable) {
		t.Errorf("error = %v, want %s", err, model.ErrCodeAIUnavailable)
	}
	if collector.failures[capabilityCareerPaths] != "malformed" {
		t.Errorf("failure reason = %q, want malformed", collector.failures[capabilityCareerPaths])
	}
}

func TestFitScore(t *testing.T) {
	llm := &fakeLLM{response: `{"score": 71, "matchedSkills": ["SQL"], "missingSkills": ["Go"], "reason": "r", "tips": ["t"]}`}
	svc, _ := newTestService(llm)

	result, err := svc.FitScore(context.Background(), "user-1", "Backend engineer role requiring Go and SQL.")
	if err != nil {
		t.Fatalf("FitScore() error = %v", err)
	}
	if result.Score != 71 || len(result.MatchedSkills) != 1 {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(llm.lastPrompt(), "Backend engineer role") {
		t.Error("prompt missing job description")
	}

	_, err = svc.FitScore(context.Background(), "user-1", "short")
	if !isCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("short description error = %v, want validation failure", err)
	}
}

func TestResumeFeedback(t *testing.T) {
	llm := &fakeLLM{response: `{"score": 64, "strengths": ["clear layout"], "improvements": ["add metrics"], "keywords": ["ETL"]}`}
	svc, _ := newTestService(llm)

	result, err := svc.ResumeFeedback(context.Background(), "user-1", []byte("%PDF-1.7 fake"))
	if err != nil {
		t.Fatalf("ResumeFeedback() error = %v", err)
	}
	if result.Score != 64 {
		t.Errorf("Score = %d, want 64", result.Score)
	}

	if _, err := svc.ResumeFeedback(context.Background(), "user-1", nil); !isCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("empty body error = %v, want validation failure", err)
	}
	if _, err := svc.ResumeFeedback(context.Background(), "user-1", make([]byte, MaxResumeBytes+1)); !isCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("oversized body error = %v, want validation failure", err)
	}
}

func TestCareerPathTree_NodeCount(t *testing.T) {
	node := `{"step": %d, "role": "r", "avgSalary": "e", "yearsInRole": "1-2 years", "keySkills": ["k"], "certifications": [], "responsibilities": ["x"]}`
	four := strings.Join([]string{
		strings.ReplaceAll(node, "%d", "1"),
		strings.ReplaceAll(node, "%d", "2"),
		strings.ReplaceAll(node, "%d", "3"),
		strings.ReplaceAll(node, "%d", "4"),
	}, ",")

	llm := &fakeLLM{response: `{"goalRole": "CTO", "nodes": [` + four + `], "estimatedTotalYears": "8-10 years", "advice": "a"}`}
	svc, _ := newTestService(llm)

	result, err := svc.CareerPathTree(context.Background(), "user-1", "CTO")
	if err != nil {
		t.Fatalf("CareerPathTree() error = %v", err)
	}
	if len(result.Nodes) != 4 || result.GoalRole != "CTO" {
		t.Errorf("result = %+v", result)
	}

	llm.response = `{"goalRole": "CTO", "nodes": [], "estimatedTotalYears": "", "advice": ""}`
	if _, err := svc.CareerPathTree(context.Background(), "user-1", "CTO"); !isCode(err, model.ErrCodeAIUnavailable) {
		t.Errorf("too few nodes error = %v, want %s", err, model.ErrCodeAIUnavailable)
	}

	if _, err := svc.CareerPathTree(context.Background(), "user-1", "x"); !isCode(err, model.ErrCodeValidationFailed) {
		t.Errorf("short goal role error = %v, want validation failure", err)
	}
}

// TestUpstreamFailure はモデル側の失敗が汎用エラーとしてのみ現れることを検証する。
func TestUpstreamFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("quota exceeded: project 12345")}
	svc, collector := newTestService(llm)

	_, err := svc.Chat(context.Background(), "user-1", ChatInput{Message: "hi"})
	if !isCode(err, model.ErrCodeAIUnavailable) {
		t.Fatalf("error = %v, want %s", err, model.ErrCodeAIUnavailable)
	}
	var apiErr *model.APIError
	errors.As(err, &apiErr)
	if strings.Contains(apiErr.Message, "quota") {
		t.Error("upstream detail leaked into the client-facing message")
	}
	if collector.failures[capabilityChat] != "upstream" {
		t.Errorf("failure reason = %q, want upstream", collector.failures[capabilityChat])
	}
}

func TestUnknownUser(t *testing.T) {
	svc, _ := newTestService(&fakeLLM{response: "ok"})

	_, err := svc.Chat(context.Background(), "nobody", ChatInput{Message: "hi"})
	if !isCode(err, model.ErrCodeUserNotFound) {
		t.Errorf("error = %v, want %s", err, model.ErrCodeUserNotFound)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"フェンスなし", `{"a":1}`, `{"a":1}`},
		{"jsonフェンス", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"無印フェンス", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"前後の空白", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.in); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func isCode(err error, code string) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
