// Package user はプロフィール管理とカウンセラー一覧のビジネスロジックを提供する。
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/careerflow/internal/model"
	"github.com/hitoshi/careerflow/internal/repository"
	"github.com/hitoshi/careerflow/internal/security"
)

// EducationInput は学歴エントリの更新内容を表す。日付はRFC3339文字列。
type EducationInput struct {
	Degree       string
	Institution  string
	FieldOfStudy string
	GPA          string
	StartDate    string
	EndDate      string
}

// ExperienceInput は職歴エントリの更新内容を表す。日付はRFC3339文字列。
type ExperienceInput struct {
	Title       string
	Company     string
	StartDate   string
	EndDate     string
	Description string
}

// UpdateProfileInput はプロフィール更新のリクエスト内容を表す。
// nilのフィールドは「変更なし」を意味する。
type UpdateProfileInput struct {
	FullName        *string
	Bio             *string
	ProfileImageURL *string
	Location        *string
	Phone           *string
	Skills          *[]string
	CareerInterests *[]string
	SocialLinks     *model.SocialLinks
	Education       *[]EducationInput
	Experience      *[]ExperienceInput
	Preferences     *model.Preferences
}

// Service はプロフィール管理のビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		users:     users,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, model.NewNotFoundError(model.ErrCodeUserNotFound, "User not found.")
	}
	return user, nil
}

// UpdateProfile はプロフィールを正規化・検証して保存し、完成度スコアを再計算する。
// スキル・興味は前後空白除去後に大文字小文字を区別して重複排除する。
// 正規化後に空になった学歴・職歴エントリと解析できない日付は黙って捨てる。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if apiErr := validateProfileInput(in); apiErr != nil {
		return nil, apiErr
	}

	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		user.Profile.Bio = s.sanitizer.Sanitize(strings.TrimSpace(*in.Bio))
	}
	if in.ProfileImageURL != nil {
		user.Profile.ProfileImageURL = strings.TrimSpace(*in.ProfileImageURL)
	}
	if in.Location != nil {
		user.Profile.Location = s.sanitizer.Sanitize(strings.TrimSpace(*in.Location))
	}
	if in.Phone != nil {
		user.Profile.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Skills != nil {
		user.Profile.Skills = normalizeStringList(*in.Skills)
	}
	if in.CareerInterests != nil {
		user.Profile.CareerInterests = normalizeStringList(*in.CareerInterests)
	}
	if in.SocialLinks != nil {
		user.Profile.SocialLinks = trimSocialLinks(*in.SocialLinks)
	}
	if in.Education != nil {
		user.Profile.Education = normalizeEducation(*in.Education)
	}
	if in.Experience != nil {
		user.Profile.Experience = normalizeExperience(*in.Experience, s.sanitizer)
	}
	if in.Preferences != nil {
		user.Preferences = *in.Preferences
	}

	user.Profile.CompletionScore = CompletionScore(user.Profile)
	user.UpdatedAt = s.now()

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return user, nil
}

// ListCounselors は有効なカウンセラーの公開安全な一覧を返す。
func (s *Service) ListCounselors(ctx context.Context) ([]model.CounselorSummary, error) {
	counselors, err := s.users.ListActiveCounselors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list counselors: %w", err)
	}
	return counselors, nil
}

// CompletionScore はプロフィールの充足度からスコアを算出する。
// 基礎点10に各フィールドの加点を積み、100を上限とする。
func CompletionScore(p model.Profile) int {
	score := 10
	if p.ProfileImageURL != "" {
		score += 10
	}
	if p.Bio != "" {
		score += 15
	}
	if len(p.Skills) > 0 {
		score += 20
	}
	if len(p.CareerInterests) > 0 {
		score += 20
	}
	if len(p.Education) > 0 {
		score += 15
	}
	if len(p.Experience) > 0 {
		score += 15
	}
	if p.SocialLinks.HasAny() {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

// normalizeStringList は前後空白を除去し、空要素を捨て、
// 大文字小文字を区別して重複を排除する。元の順序は保たれる。
func normalizeStringList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := []string{}
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
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

func trimSocialLinks(links model.SocialLinks) model.SocialLinks {
	return model.SocialLinks{
		LinkedIn:  strings.TrimSpace(links.LinkedIn),
		GitHub:    strings.TrimSpace(links.GitHub),
		Portfolio: strings.TrimSpace(links.Portfolio),
		Website:   strings.TrimSpace(links.Website),
	}
}

// parseDate はRFC3339または日付のみの形式を解析する。解析できない場合はnil。
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func normalizeEducation(entries []EducationInput) []model.Education {
	out := []model.Education{}
	for _, in := range entries {
		e := model.Education{
			Degree:       strings.TrimSpace(in.Degree),
			Institution:  strings.TrimSpace(in.Institution),
			FieldOfStudy: strings.TrimSpace(in.FieldOfStudy),
			GPA:          strings.TrimSpace(in.GPA),
			StartDate:    parseDate(in.StartDate),
			EndDate:      parseDate(in.EndDate),
		}
		if e.IsEmpty() {
			continue
		}
		out = append(out, e)
	}
	return out
}

func normalizeExperience(entries []ExperienceInput, sanitizer security.ContentSanitizerService) []model.Experience {
	out := []model.Experience{}
	for _, in := range entries {
		e := model.Experience{
			Title:       strings.TrimSpace(in.Title),
			Company:     strings.TrimSpace(in.Company),
			StartDate:   parseDate(in.StartDate),
			EndDate:     parseDate(in.EndDate),
			Description: sanitizer.Sanitize(strings.TrimSpace(in.Description)),
		}
		if e.IsEmpty() {
			continue
		}
		out = append(out, e)
	}
	return out
}

func validateProfileInput(in UpdateProfileInput) *model.APIError {
	issues := []model.FieldIssue{}

	if in.FullName != nil {
		if n := len(strings.TrimSpace(*in.FullName)); n < 2 || n > 100 {
			issues = append(issues, model.FieldIssue{
				Field: "fullName", Message: "Full name must be between 2 and 100 characters.",
			})
		}
	}
	if in.Bio != nil && len(*in.Bio) > 200 {
		issues = append(issues, model.FieldIssue{
			Field: "bio", Message: "Bio must be 200 characters or less.",
		})
	}
	if in.ProfileImageURL != nil && len(*in.ProfileImageURL) > 500 {
		issues = append(issues, model.FieldIssue{
			Field: "profileImageUrl", Message: "Image URL must be 500 characters or less.",
		})
	}
	if in.Skills != nil {
		if len(*in.Skills) > 80 {
			issues = append(issues, model.FieldIssue{
				Field: "skills", Message: "Skills are limited to 80 entries.",
			})
		}
		for _, skill := range *in.Skills {
			if len(strings.TrimSpace(skill)) > 60 {
				issues = append(issues, model.FieldIssue{
					Field: "skills", Message: "Each skill must be 60 characters or less.",
				})
				break
			}
		}
	}
	if in.CareerInterests != nil {
		if len(*in.CareerInterests) > 50 {
			issues = append(issues, model.FieldIssue{
				Field: "careerInterests", Message: "Career interests are limited to 50 entries.",
			})
		}
		for _, interest := range *in.CareerInterests {
			if len(strings.TrimSpace(interest)) > 80 {
				issues = append(issues, model.FieldIssue{
					Field: "careerInterests", Message: "Each interest must be 80 characters or less.",
				})
				break
			}
		}
	}
	if in.SocialLinks != nil {
		for _, link := range []string{in.SocialLinks.LinkedIn, in.SocialLinks.GitHub, in.SocialLinks.Portfolio, in.SocialLinks.Website} {
			if len(link) > 300 {
				issues = append(issues, model.FieldIssue{
					Field: "socialLinks", Message: "Each link must be 300 characters or less.",
				})
				break
			}
		}
	}
	if in.Education != nil && len(*in.Education) > 20 {
		issues = append(issues, model.FieldIssue{
			Field: "education", Message: "Education is limited to 20 entries.",
		})
	}
	if in.Experience != nil {
		if len(*in.Experience) > 20 {
			issues = append(issues, model.FieldIssue{
				Field: "experience", Message: "Experience is limited to 20 entries.",
			})
		}
		for _, exp := range *in.Experience {
			if len(exp.Description) > 500 {
				issues = append(issues, model.FieldIssue{
					Field: "experience", Message: "Each description must be 500 characters or less.",
				})
				break
			}
		}
	}

	if len(issues) > 0 {
		return model.NewValidationError(issues[0].Message, issues...)
	}
	return nil
}
