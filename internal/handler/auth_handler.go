package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/careerflow/internal/auth"
	"github.com/hitoshi/careerflow/internal/middleware"
	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/user"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup は新規アカウントを作成し、ユーザーとトークンを返す。
	Signup(ctx context.Context, in auth.SignupInput) (*model.User, string, error)
	// Login は資格情報を検証し、ユーザーとトークンを返す。
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

// UserServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, in user.UpdateProfileInput) (*model.User, error)
	ListCounselors(ctx context.Context) ([]model.CounselorSummary, error)
}

// SignupRecorder はアカウント登録メトリクスの記録用最小インターフェース。
type SignupRecorder interface {
	RecordSignup(role string)
}

// AuthHandler は認証とプロフィール管理のHTTPハンドラー。
type AuthHandler struct {
	auth    AuthServiceInterface
	users   UserServiceInterface
	metrics SignupRecorder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(authService AuthServiceInterface, userService UserServiceInterface, metrics SignupRecorder) *AuthHandler {
	return &AuthHandler{auth: authService, users: userService, metrics: metrics}
}

type signupRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type educationResponse struct {
	Degree       string  `json:"degree"`
	Institution  string  `json:"institution"`
	FieldOfStudy string  `json:"fieldOfStudy"`
	GPA          string  `json:"gpa,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
}

type experienceResponse struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	Description string  `json:"description"`
}

type socialLinksResponse struct {
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
	Portfolio string `json:"portfolio"`
	Website   string `json:"website"`
}

type profileResponse struct {
	Bio             string               `json:"bio"`
	ProfileImageURL string               `json:"profileImageUrl"`
	Location        string               `json:"location"`
	Phone           string               `json:"phone"`
	Skills          []string             `json:"skills"`
	CareerInterests []string             `json:"careerInterests"`
	SocialLinks     socialLinksResponse  `json:"socialLinks"`
	Education       []educationResponse  `json:"education"`
	Experience      []experienceResponse `json:"experience"`
	CompletionScore int                  `json:"completionScore"`
}

type preferencesResponse struct {
	DarkModeEnabled           bool `json:"darkModeEnabled"`
	EmailNotificationsEnabled bool `json:"emailNotificationsEnabled"`
	JobAlertsEnabled          bool `json:"jobAlertsEnabled"`
}

// userResponse はパスワードハッシュを除いたユーザーのAPIレスポンス。
type userResponse struct {
	ID          string              `json:"id"`
	FullName    string              `json:"fullName"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	Profile     profileResponse     `json:"profile"`
	Preferences preferencesResponse `json:"preferences"`
	IsActive    bool                `json:"isActive"`
	LastLoginAt *string             `json:"lastLoginAt,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

type counselorResponse struct {
	ID              string   `json:"id"`
	FullName        string   `json:"fullName"`
	Email           string   `json:"email"`
	Bio             string   `json:"bio"`
	ProfileImageURL string   `json:"profileImageUrl"`
	Skills          []string `json:"skills"`
	CareerInterests []string `json:"careerInterests"`
}

// Signup はアカウント登録を処理する。
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Password != req.ConfirmPassword {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Passwords do not match.", model.FieldIssue{
				Field: "confirmPassword", Message: "Passwords do not match.",
			}))
		return
	}

	role := model.Role(req.Role)
	if req.Role == "" {
		role = model.RoleJobSeeker
	}

	created, token, err := h.auth.Signup(r.Context(), auth.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignup(string(created.Role))
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(created)})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	found, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(found)})
}

// Me は自分のプロフィールを返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	found, err := h.users.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(found))
}

type updateProfileRequest struct {
	FullName        *string              `json:"fullName"`
	Bio             *string              `json:"bio"`
	ProfileImageURL *string              `json:"profileImageUrl"`
	Location        *string              `json:"location"`
	Phone           *string              `json:"phone"`
	Skills          *[]string            `json:"skills"`
	CareerInterests *[]string            `json:"careerInterests"`
	SocialLinks     *socialLinksRequest  `json:"socialLinks"`
	Education       *[]educationRequest  `json:"education"`
	Experience      *[]experienceRequest `json:"experience"`
	Preferences     *model.Preferences   `json:"preferences"`
}

type socialLinksRequest struct {
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
	Portfolio string `json:"portfolio"`
	Website   string `json:"website"`
}

type educationRequest struct {
	Degree       string `json:"degree"`
	Institution  string `json:"institution"`
	FieldOfStudy string `json:"fieldOfStudy"`
	GPA          string `json:"gpa"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

type experienceRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// UpdateMe は自分のプロフィールを更新する。
// PUT /api/auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := user.UpdateProfileInput{
		FullName:        req.FullName,
		Bio:             req.Bio,
		ProfileImageURL: req.ProfileImageURL,
		Location:        req.Location,
		Phone:           req.Phone,
		Skills:          req.Skills,
		CareerInterests: req.CareerInterests,
		Preferences:     req.Preferences,
	}
	if req.SocialLinks != nil {
		in.SocialLinks = &model.SocialLinks{
			LinkedIn:  req.SocialLinks.LinkedIn,
			GitHub:    req.SocialLinks.GitHub,
			Portfolio: req.SocialLinks.Portfolio,
			Website:   req.SocialLinks.Website,
		}
	}
	if req.Education != nil {
		entries := make([]user.EducationInput, 0, len(*req.Education))
		for _, e := range *req.Education {
			entries = append(entries, user.EducationInput{
				Degree:       e.Degree,
				Institution:  e.Institution,
				FieldOfStudy: e.FieldOfStudy,
				GPA:          e.GPA,
				StartDate:    e.StartDate,
				EndDate:      e.EndDate,
			})
		}
		in.Education = &entries
	}
	if req.Experience != nil {
		entries := make([]user.ExperienceInput, 0, len(*req.Experience))
		for _, e := range *req.Experience {
			entries = append(entries, user.ExperienceInput{
				Title:       e.Title,
				Company:     e.Company,
				StartDate:   e.StartDate,
				EndDate:     e.EndDate,
				Description: e.Description,
			})
		}
		in.Experience = &entries
	}

	updated, err := h.users.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// ListCounselors は有効なカウンセラーの公開プロフィール一覧を返す。
// GET /api/counselors
func (h *AuthHandler) ListCounselors(w http.ResponseWriter, r *http.Request) {
	counselors, err := h.users.ListCounselors(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]counselorResponse, 0, len(counselors))
	for _, c := range counselors {
		out = append(out, counselorResponse{
			ID:              c.ID,
			FullName:        c.FullName,
			Email:           c.Email,
			Bio:             c.Bio,
			ProfileImageURL: c.ProfileImageURL,
			Skills:          emptyIfNil(c.Skills),
			CareerInterests: emptyIfNil(c.CareerInterests),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- ヘルパー関数 ---

func toUserResponse(u *model.User) userResponse {
	resp := userResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
		Profile: profileResponse{
			Bio:             u.Profile.Bio,
			ProfileImageURL: u.Profile.ProfileImageURL,
			Location:        u.Profile.Location,
			Phone:           u.Profile.Phone,
			Skills:          emptyIfNil(u.Profile.Skills),
			CareerInterests: emptyIfNil(u.Profile.CareerInterests),
			SocialLinks: socialLinksResponse{
				LinkedIn:  u.Profile.SocialLinks.LinkedIn,
				GitHub:    u.Profile.SocialLinks.GitHub,
				Portfolio: u.Profile.SocialLinks.Portfolio,
				Website:   u.Profile.SocialLinks.Website,
			},
			Education:       toEducationResponses(u.Profile.Education),
			Experience:      toExperienceResponses(u.Profile.Experience),
			CompletionScore: u.Profile.CompletionScore,
		},
		Preferences: preferencesResponse{
			DarkModeEnabled:           u.Preferences.DarkModeEnabled,
			EmailNotificationsEnabled: u.Preferences.EmailNotificationsEnabled,
			JobAlertsEnabled:          u.Preferences.JobAlertsEnabled,
		},
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		resp.LastLoginAt = timePtr(*u.LastLoginAt)
	}
	return resp
}

func toEducationResponses(entries []model.Education) []educationResponse {
	out := make([]educationResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, educationResponse{
			Degree:       e.Degree,
			Institution:  e.Institution,
			FieldOfStudy: e.FieldOfStudy,
			GPA:          e.GPA,
			StartDate:    timePtrOrNil(e.StartDate),
			EndDate:      timePtrOrNil(e.EndDate),
		})
	}
	return out
}

func toExperienceResponses(entries []model.Experience) []experienceResponse {
	out := make([]experienceResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, experienceResponse{
			Title:       e.Title,
			Company:     e.Company,
			StartDate:   timePtrOrNil(e.StartDate),
			EndDate:     timePtrOrNil(e.EndDate),
			Description: e.Description,
		})
	}
	return out
}

// emptyIfNil はnilスライスを空配列としてシリアライズするための変換。
func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func timePtr(t time.Time) *string {
	s := t.Format(time.RFC3339)
	return &s
}

func timePtrOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return timePtr(*t)
}
