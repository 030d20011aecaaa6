// Package model はドメインモデルを定義する。
package model

import "time"

// ResourceType は学習リソースの形式を表す。
type ResourceType string

const (
	// ResourceArticle は記事。
	ResourceArticle ResourceType = "article"
	// ResourceVideo は動画。
	ResourceVideo ResourceType = "video"
	// ResourceTemplate はテンプレート。
	ResourceTemplate ResourceType = "template"
)

// Valid は既知のリソース形式かどうかを返す。
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceArticle, ResourceVideo, ResourceTemplate:
		return true
	}
	return false
}

// ResourceCategory は学習リソースの分野を表す。
type ResourceCategory string

const (
	// ResourceCategoryResume は履歴書。
	ResourceCategoryResume ResourceCategory = "resume"
	// ResourceCategoryInterview は面接。
	ResourceCategoryInterview ResourceCategory = "interview"
	// ResourceCategoryJobSearch は求職活動。
	ResourceCategoryJobSearch ResourceCategory = "job_search"
)

// Valid は既知のリソース分野かどうかを返す。
func (c ResourceCategory) Valid() bool {
	switch c {
	case ResourceCategoryResume, ResourceCategoryInterview, ResourceCategoryJobSearch:
		return true
	}
	return false
}

// Resource はキュレーションされた学習リソースを表す。
// URLはスキーム付きに正規化された形で保存される。作成者のみが削除できる。
type Resource struct {
	ID          string
	Title       string
	Description string
	Type        ResourceType
	Category    ResourceCategory
	URL         string
	Tags        []string
	LikesCount  int
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
