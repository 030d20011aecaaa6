// Package model はドメインモデルを定義する。
package model

import "time"

// Job は求人情報を表す。
// 投稿者（カウンセラー）のみが削除できる。応募締切を過ぎた求人への新規応募は拒否される。
type Job struct {
	ID                  string
	Title               string
	Company             string
	Location            string
	Description         string
	Salary              string
	ApplicationDeadline time.Time
	Tags                []string
	PostedBy            string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DeadlinePassed は指定時刻の時点で応募締切を過ぎているかを返す。
func (j *Job) DeadlinePassed(now time.Time) bool {
	return now.After(j.ApplicationDeadline)
}

// JobPoster は求人に付随して返す投稿者の最小プロジェクション。
type JobPoster struct {
	ID       string
	FullName string
	Email    string
}

// ApplicationStatus は応募の選考状態を表す。
type ApplicationStatus string

const (
	// ApplicationSubmitted は応募直後の状態。
	ApplicationSubmitted ApplicationStatus = "submitted"
	// ApplicationReviewed は確認済みの状態。
	ApplicationReviewed ApplicationStatus = "reviewed"
	// ApplicationShortlisted は選考通過の状態。
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	// ApplicationRejected は不採用の状態。
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application は求人への応募を表す。
// (JobID, ApplicantID) の組はストアレベルのユニーク制約で一意に保たれる。
type Application struct {
	ID          string
	JobID       string
	ApplicantID string
	CoverLetter string
	ResumeURL   string
	Status      ApplicationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
