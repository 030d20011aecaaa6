// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す閉じた型。
// ハンドラーごとのアドホックな文字列比較を避け、認可境界で一度だけ検証する。
type Role string

const (
	// RoleJobSeeker は求職者。
	RoleJobSeeker Role = "job_seeker"
	// RoleCounselor はキャリアカウンセラー。
	RoleCounselor Role = "career_counselor"
	// RoleAdmin は管理者。
	RoleAdmin Role = "admin"
)

// Valid は既知のロールかどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// SocialLinks はプロフィールの外部リンク集合を表す。
type SocialLinks struct {
	LinkedIn  string
	GitHub    string
	Portfolio string
	Website   string
}

// HasAny はいずれかのリンクが設定されているかを返す。
func (s SocialLinks) HasAny() bool {
	return s.LinkedIn != "" || s.GitHub != "" || s.Portfolio != "" || s.Website != ""
}

// Education は学歴エントリを表す。
type Education struct {
	Degree       string
	Institution  string
	FieldOfStudy string
	GPA          string
	StartDate    *time.Time
	EndDate      *time.Time
}

// IsEmpty は正規化後に全フィールドが空かどうかを返す。
func (e Education) IsEmpty() bool {
	return e.Degree == "" && e.Institution == "" && e.FieldOfStudy == "" &&
		e.GPA == "" && e.StartDate == nil && e.EndDate == nil
}

// Experience は職歴エントリを表す。
type Experience struct {
	Title       string
	Company     string
	StartDate   *time.Time
	EndDate     *time.Time
	Description string
}

// IsEmpty は正規化後に全フィールドが空かどうかを返す。
func (e Experience) IsEmpty() bool {
	return e.Title == "" && e.Company == "" && e.Description == "" &&
		e.StartDate == nil && e.EndDate == nil
}

// Profile はユーザーの公開プロフィールを表す。
// CompletionScoreは保存のたびにフィールドの充足度から再計算される導出値。
type Profile struct {
	Bio             string
	ProfileImageURL string
	Location        string
	Phone           string
	Skills          []string
	CareerInterests []string
	SocialLinks     SocialLinks
	Education       []Education
	Experience      []Experience
	CompletionScore int
}

// Preferences はユーザーの通知・表示設定を表す。
type Preferences struct {
	DarkModeEnabled           bool
	EmailNotificationsEnabled bool
	JobAlertsEnabled          bool
}

// DefaultPreferences は新規ユーザーの初期設定を返す。
func DefaultPreferences() Preferences {
	return Preferences{
		DarkModeEnabled:           false,
		EmailNotificationsEnabled: true,
		JobAlertsEnabled:          true,
	}
}

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュのみを保持し、平文は保存しない。
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Profile      Profile
	Preferences  Preferences
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CounselorSummary はカウンセラー一覧用の公開安全なプロジェクション。
// 認証情報・設定を含まない。
type CounselorSummary struct {
	ID              string
	FullName        string
	Email           string
	Bio             string
	ProfileImageURL string
	Skills          []string
	CareerInterests []string
}
