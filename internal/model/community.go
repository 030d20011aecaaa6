// Package model はドメインモデルを定義する。
package model

import "time"

// PostCategory はフォーラム投稿のカテゴリを表す。
type PostCategory string

const (
	// CategoryResumeInterview は履歴書・面接対策。
	CategoryResumeInterview PostCategory = "resume_interview"
	// CategoryIndustryInsights は業界動向。
	CategoryIndustryInsights PostCategory = "industry_insights"
	// CategoryNetworkingTips は人脈づくり。
	CategoryNetworkingTips PostCategory = "networking_tips"
	// CategoryGeneral はその他一般。
	CategoryGeneral PostCategory = "general"
)

// Valid は既知のカテゴリかどうかを返す。
func (c PostCategory) Valid() bool {
	switch c {
	case CategoryResumeInterview, CategoryIndustryInsights, CategoryNetworkingTips, CategoryGeneral:
		return true
	}
	return false
}

// CommunityPost はフォーラム投稿を表す。
// LikesCountはLikedByの要素数と常に一致する（不変条件）。
// RepliesCountは返信のライフサイクルに合わせて増減する非正規化カウンタ。
type CommunityPost struct {
	ID           string
	Title        string
	Body         string
	Category     PostCategory
	AuthorID     string
	LikesCount   int
	LikedBy      []string
	RepliesCount int
	ViewsCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CommunityReply はフォーラム投稿への返信を表す。
type CommunityReply struct {
	ID         string
	PostID     string
	AuthorID   string
	Body       string
	LikesCount int
	LikedBy    []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostAuthor は投稿・返信に付随して返す著者の最小プロジェクション。
type PostAuthor struct {
	ID              string
	FullName        string
	Role            Role
	ProfileImageURL string
}
