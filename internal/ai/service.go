package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/hitoshi/careerflow/internal/metrics"
	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
)

// 各機能のメトリクスラベル。
const (
	capabilityChat           = "chat"
	capabilityCareerPaths    = "career_paths"
	capabilityResumeFeedback = "resume_feedback"
	capabilityFitScore       = "fit_score"
	capabilityCareerPathTree = "career_path_tree"
)

// MaxResumeBytes は履歴書PDFの最大サイズ。
const MaxResumeBytes = 10 << 20

// DefaultTimeout は外部モデル呼び出しのデフォルトタイムアウト。
const DefaultTimeout = 60 * time.Second

// ChatTurn は会話履歴の1ターンを表す。
type ChatTurn struct {
	Role  string   `json:"role"` // "user" または "model"
	Parts []string `json:"parts"`
}

// ChatInput はチャットリクエストの内容。
type ChatInput struct {
	Message string
	History []ChatTurn
	Context string
}

// RecommendedCourse はキャリアパス提案に含まれる推薦講座。
type RecommendedCourse struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CareerPath はキャリアパス提案の1件。
type CareerPath struct {
	Title             string            `json:"title"`
	FitScore          int               `json:"fitScore"`
	SalaryRange       string            `json:"salaryRange"`
	Description       string            `json:"description"`
	SkillsToLearn     []string          `json:"skillsToLearn"`
	RecommendedCourse RecommendedCourse `json:"recommendedCourse"`
	Steps             []string          `json:"steps"`
}

// CareerPathsResult はキャリアパス提案のレスポンス。
type CareerPathsResult struct {
	Paths []CareerPath `json:"paths"`
}

// ResumeFeedback は履歴書分析のレスポンス。
type ResumeFeedback struct {
	Score        int      `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Keywords     []string `json:"keywords"`
}

// FitScoreResult は求人適合度のレスポンス。
type FitScoreResult struct {
	Score         int      `json:"score"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	Reason        string   `json:"reason"`
	Tips          []string `json:"tips"`
}

// CareerPathNode はキャリアツリーの1ステップ。
type CareerPathNode struct {
	Step             int      `json:"step"`
	Role             string   `json:"role"`
	AvgSalary        string   `json:"avgSalary"`
	YearsInRole      string   `json:"yearsInRole"`
	KeySkills        []string `json:"keySkills"`
	Certifications   []string `json:"certifications"`
	Responsibilities []string `json:"responsibilities"`
}

// CareerPathTree は目標ロールまでのキャリアツリーのレスポンス。
type CareerPathTree struct {
	GoalRole            string           `json:"goalRole"`
	Nodes               []CareerPathNode `json:"nodes"`
	EstimatedTotalYears string           `json:"estimatedTotalYears"`
	Advice              string           `json:"advice"`
}

// Service はキャリアコーチ機能のビジネスロジックを提供する。
// LLMクライアントはアプリ起動時に一度生成されたものを注入する。
type Service struct {
	llm     llms.Model
	users   repository.UserRepository
	metrics metrics.MetricsCollector
	timeout time.Duration
}

// NewService はServiceを生成する。timeoutが0の場合はDefaultTimeoutを使う。
func NewService(
	llm llms.Model,
	users repository.UserRepository,
	collector metrics.MetricsCollector,
	timeout time.Duration,
) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{llm: llm, users: users, metrics: collector, timeout: timeout}
}

// Chat はプロフィール文脈と会話履歴つきでコーチと対話する。
func (s *Service) Chat(ctx context.Context, userID string, in ChatInput) (string, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" || len(message) > 2000 {
		return "", model.NewValidationError("Message must be between 1 and 2000 characters.", model.FieldIssue{
			Field: "message", Message: "Message must be between 1 and 2000 characters.",
		})
	}
	if len(in.History) > 50 {
		return "", model.NewValidationError("History may contain at most 50 turns.", model.FieldIssue{
			Field: "history", Message: "History may contain at most 50 turns.",
		})
	}
	if len(in.Context) > 5000 {
		return "", model.NewValidationError("Context must be 5000 characters or less.", model.FieldIssue{
			Field: "context", Message: "Context must be 5000 characters or less.",
		})
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemInstruction),
	}
	for _, turn := range in.History {
		role, err := chatRole(turn.Role)
		if err != nil {
			return "", model.NewValidationError("History roles must be \"user\" or \"model\".", model.FieldIssue{
				Field: "history", Message: "History roles must be \"user\" or \"model\".",
			})
		}
		messages = append(messages, llms.TextParts(role, strings.Join(turn.Parts, "\n")))
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	fullContext := BuildProfileContext(user)
	if extra := strings.TrimSpace(in.Context); extra != "" {
		fullContext += "\n\n" + extra
	}
	prompt := fmt.Sprintf("[User Profile]\n%s\n\n[User Message]\n%s", fullContext, message)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, prompt))

	return s.generate(ctx, capabilityChat, messages)
}

// CareerPaths はプロフィールに基づくキャリアパス提案をちょうど3件返す。
func (s *Service) CareerPaths(ctx context.Context, userID string) (*CareerPathsResult, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`[User Profile]
%s

Analyze this person's profile and generate exactly 3 personalized career path recommendations.

Return ONLY a valid JSON object (no markdown, no code fences) with this structure:
{
  "paths": [
    {
      "title": "Role title (e.g. Data Analyst)",
      "fitScore": <number 0-100>,
      "salaryRange": "estimated range",
      "description": "1-2 sentence description of the role and why it fits",
      "skillsToLearn": ["skill1", "skill2", "skill3"],
      "recommendedCourse": {
        "name": "Course or certification name",
        "reason": "One sentence why"
      },
      "steps": ["Step 1 description", "Step 2 description", "Step 3 description", "Step 4 description"]
    }
  ]
}

Tailor fit scores honestly based on the user's current skills and experience.
If the profile is sparse, base recommendations on their career interests and suggest foundational paths.`,
		BuildProfileContext(user))

	raw, err := s.generate(ctx, capabilityCareerPaths, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemInstruction),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return nil, err
	}

	var result CareerPathsResult
	if err := s.parseStructured(capabilityCareerPaths, raw, &result); err != nil {
		return nil, err
	}
	if len(result.Paths) != 3 {
		return nil, s.malformed(capabilityCareerPaths,
			fmt.Errorf("expected 3 paths, got %d", len(result.Paths)))
	}
	return &result, nil
}

// ResumeFeedback はPDFの履歴書を分析して構造化フィードバックを返す。
// 呼び出し元でContent-Typeがapplication/pdfであることを確認すること。
func (s *Service) ResumeFeedback(ctx context.Context, userID string, pdf []byte) (*ResumeFeedback, error) {
	if len(pdf) == 0 {
		return nil, model.NewValidationError("Please upload a PDF file.", model.FieldIssue{
			Field: "resume", Message: "Please upload a PDF file.",
		})
	}
	if len(pdf) > MaxResumeBytes {
		return nil, model.NewValidationError("Resume must be 10MB or less.", model.FieldIssue{
			Field: "resume", Message: "Resume must be 10MB or less.",
		})
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`[User Profile]
%s

Analyze this resume for ATS compatibility. Provide:
1. An overall score (0-100)
2. Three specific strengths
3. Three specific improvements
4. Keyword suggestions for their target roles

Return ONLY valid JSON (no markdown fences):
{ "score": <number>, "strengths": ["..."], "improvements": ["..."], "keywords": ["..."] }`,
		BuildProfileContext(user))

	raw, err := s.generate(ctx, capabilityResumeFeedback, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemInstruction),
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart("application/pdf", pdf),
				llms.TextPart(prompt),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var result ResumeFeedback
	if err := s.parseStructured(capabilityResumeFeedback, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FitScore はユーザーのプロフィールと求人票の適合度を採点する。
func (s *Service) FitScore(ctx context.Context, userID, jobDescription string) (*FitScoreResult, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if len(jobDescription) < 10 || len(jobDescription) > 5000 {
		return nil, model.NewValidationError("Job description must be between 10 and 5000 characters.", model.FieldIssue{
			Field: "jobDescription", Message: "Job description must be between 10 and 5000 characters.",
		})
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`[User Profile]
%s

[Job Description]
%s

Analyze this user's fit for the job described above.

Return ONLY valid JSON (no markdown fences):
{
  "score": <number 0-100>,
  "matchedSkills": ["skill1", "skill2"],
  "missingSkills": ["skill1", "skill2"],
  "reason": "2-3 sentence explanation",
  "tips": ["tip 1", "tip 2", "tip 3"]
}`,
		BuildProfileContext(user), jobDescription)

	raw, err := s.generate(ctx, capabilityFitScore, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemInstruction),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return nil, err
	}

	var result FitScoreResult
	if err := s.parseStructured(capabilityFitScore, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CareerPathTree は目標ロールまでの4〜6段階のキャリアツリーを生成する。
func (s *Service) CareerPathTree(ctx context.Context, userID, goalRole string) (*CareerPathTree, error) {
	goalRole = strings.TrimSpace(goalRole)
	if len(goalRole) < 2 || len(goalRole) > 200 {
		return nil, model.NewValidationError("Goal role must be between 2 and 200 characters.", model.FieldIssue{
			Field: "goalRole", Message: "Goal role must be between 2 and 200 characters.",
		})
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`[User Profile]
%s

The user wants to become a %q.

Generate a career trajectory from their current position to %q.
Include 4-6 steps, each representing a role on the path.

Return ONLY valid JSON (no markdown fences):
{
  "goalRole": %q,
  "nodes": [
    {
      "step": 1,
      "role": "Current / Entry role",
      "avgSalary": "estimated range",
      "yearsInRole": "1-2 years",
      "keySkills": ["skill1", "skill2"],
      "certifications": ["cert1 (optional)"],
      "responsibilities": ["responsibility1", "responsibility2"]
    }
  ],
  "estimatedTotalYears": "X-Y years",
  "advice": "1-2 sentence personalized advice"
}`,
		BuildProfileContext(user), goalRole, goalRole, goalRole)

	raw, err := s.generate(ctx, capabilityCareerPathTree, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemInstruction),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return nil, err
	}

	var result CareerPathTree
	if err := s.parseStructured(capabilityCareerPathTree, raw, &result); err != nil {
		return nil, err
	}
	if len(result.Nodes) < 4 || len(result.Nodes) > 6 {
		return nil, s.malformed(capabilityCareerPathTree,
			fmt.Errorf("expected 4 to 6 nodes, got %d", len(result.Nodes)))
	}
	return &result, nil
}

// generate は外部モデルを呼び出して最初の候補のテキストを返す。
// 呼び出しはリクエストのcontextとタイムアウトの両方で制限される。
func (s *Service) generate(ctx context.Context, capability string, messages []llms.MessageContent) (string, error) {
	s.metrics.RecordAIRequest(capability)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.GenerateContent(ctx, messages)
	s.metrics.RecordAILatency(capability, time.Since(start))
	if err != nil {
		s.metrics.RecordAIFailure(capability, "upstream")
		slog.Error("ai call failed", "capability", capability, "error", err)
		return "", model.NewAIUnavailableError()
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", s.malformed(capability, fmt.Errorf("empty model response"))
	}
	return resp.Choices[0].Content, nil
}

// parseStructured はフェンスを剥がしてJSONをデコードする。
func (s *Service) parseStructured(capability, raw string, dest any) error {
	cleaned := stripCodeFences(raw)
	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		return s.malformed(capability, err)
	}
	return nil
}

// malformed は不正なモデル出力を記録し、汎用エラーを返す。
// 出力の内容そのものはクライアントへ返さない。
func (s *Service) malformed(capability string, err error) error {
	s.metrics.RecordAIFailure(capability, "malformed")
	slog.Error("malformed ai output", "capability", capability, "error", err)
	return model.NewAIUnavailableError()
}

func (s *Service) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError(model.ErrCodeUserNotFound, "User not found.")
	}
	return user, nil
}

func chatRole(role string) (schema.ChatMessageType, error) {
	switch role {
	case "user":
		return schema.ChatMessageTypeHuman, nil
	case "model":
		return schema.ChatMessageTypeAI, nil
	default:
		return "", fmt.Errorf("unknown chat role %q", role)
	}
}
