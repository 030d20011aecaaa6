// Package repository はデータ永続化層のインターフェースと PostgreSQL 実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/careerflow/internal/model"
)

// UserRepository はユーザーの永続化操作を定義する。
type UserRepository interface {
	// Create は新規ユーザーを保存する。メールアドレス重複時は ErrDuplicateEmail を返す。
	Create(ctx context.Context, user *model.User) error
	// FindByID は ID でユーザーを検索する。見つからない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合は (nil, nil) を返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile はプロフィール関連カラムと完成度スコアを更新する。
	UpdateProfile(ctx context.Context, user *model.User) error
	// UpdateLastLogin は最終ログイン日時を記録する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// ListActiveCounselors は有効なカウンセラーの一覧を名前順で返す。
	ListActiveCounselors(ctx context.Context) ([]model.CounselorSummary, error)
}

// JobFilter は求人一覧の絞り込み条件。ゼロ値のフィールドは無視される。
type JobFilter struct {
	Search   string // タイトル・企業名・勤務地の部分一致
	Tag      string // タグ完全一致
	PostedBy string // 投稿者 ID
}

// JobWithPoster は求人と投稿者プロジェクションを束ねた読み取り用ビュー。
type JobWithPoster struct {
	Job    model.Job
	Poster model.JobPoster
}

// JobRepository は求人の永続化操作を定義する。
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	// FindByID は ID で求人を検索する。見つからない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)
	// FindByIDWithPoster は ID で求人を投稿者情報付きで検索する。見つからない場合は (nil, nil) を返す。
	FindByIDWithPoster(ctx context.Context, id string) (*JobWithPoster, error)
	// List は条件に合致する求人を投稿者情報付きで新着順に返す。
	List(ctx context.Context, filter JobFilter) ([]JobWithPoster, error)
	// Delete は求人を削除する。応募は外部キー制約により連鎖削除される。
	Delete(ctx context.Context, id string) error
}

// ApplicationWithJob は応募と応募先求人の概要を束ねた読み取り用ビュー。
type ApplicationWithJob struct {
	Application model.Application
	JobTitle    string
	JobCompany  string
	JobLocation string
	JobDeadline time.Time
}

// ApplicantProfile は応募者一覧・エクスポートに必要なプロフィール射影。
type ApplicantProfile struct {
	ID         string
	FullName   string
	Email      string
	Skills     []string
	Education  []model.Education
	Experience []model.Experience
}

// ApplicationWithApplicant は応募と応募者プロフィールを束ねた読み取り用ビュー。
type ApplicationWithApplicant struct {
	Application model.Application
	Applicant   ApplicantProfile
}

// ApplicationRepository は応募の永続化操作を定義する。
type ApplicationRepository interface {
	// Create は応募を保存する。同一求人への重複応募は ErrDuplicateApplication を返す。
	Create(ctx context.Context, app *model.Application) error
	// Exists は指定ユーザーが指定求人に応募済みかを返す。
	Exists(ctx context.Context, jobID, applicantID string) (bool, error)
	// ListByApplicant は応募者の応募履歴を求人概要付きで新着順に返す。
	ListByApplicant(ctx context.Context, applicantID string) ([]ApplicationWithJob, error)
	// ListByJob は求人への応募を応募者プロフィール付きで古い順に返す。
	ListByJob(ctx context.Context, jobID string) ([]ApplicationWithApplicant, error)
}

// PostFilter は投稿一覧の絞り込み条件。
type PostFilter struct {
	Category string // カテゴリ完全一致
	Search   string // タイトル・本文の部分一致
}

// PostRepository はコミュニティ投稿の永続化操作を定義する。
type PostRepository interface {
	Create(ctx context.Context, post *model.CommunityPost) error
	// FindByID は ID で投稿を検索する。見つからない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.CommunityPost, error)
	// List は条件に合致する投稿を新着順に返す。
	List(ctx context.Context, filter PostFilter) ([]model.CommunityPost, error)
	// IncrementViews は閲覧数を 1 加算する。
	IncrementViews(ctx context.Context, id string) error
	// ToggleLike はいいねの付与・解除を反転し、反転後の状態と件数を返す。
	// likes_count は liked_by 配列の要素数と常に一致する。
	ToggleLike(ctx context.Context, postID, userID string) (liked bool, likesCount int, err error)
	// DeleteWithReplies は投稿と配下の返信を単一トランザクションで削除する。
	DeleteWithReplies(ctx context.Context, id string) error
}

// ReplyRepository はコミュニティ返信の永続化操作を定義する。
type ReplyRepository interface {
	// Create は返信を保存し、親投稿の replies_count を同一トランザクションで加算する。
	Create(ctx context.Context, reply *model.CommunityReply) error
	// FindByID は ID で返信を検索する。見つからない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.CommunityReply, error)
	// ListByPost は投稿配下の返信を古い順に返す。
	ListByPost(ctx context.Context, postID string) ([]model.CommunityReply, error)
	// ToggleLike はいいねの付与・解除を反転し、反転後の状態と件数を返す。
	ToggleLike(ctx context.Context, replyID, userID string) (liked bool, likesCount int, err error)
	// Delete は返信を削除し、親投稿の replies_count を同一トランザクションで減算する。
	// カウンタは 0 を下回らない。
	Delete(ctx context.Context, id string) error
}

// ResourceFilter は学習リソース一覧の絞り込み条件。
type ResourceFilter struct {
	Type     string // 種別完全一致
	Category string // カテゴリ完全一致
	Search   string // タイトル・説明の部分一致
}

// ResourceRepository は学習リソースの永続化操作を定義する。
type ResourceRepository interface {
	Create(ctx context.Context, resource *model.Resource) error
	// FindByID は ID でリソースを検索する。見つからない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	// List は条件に合致するリソースを新着順に返す。
	List(ctx context.Context, filter ResourceFilter) ([]model.Resource, error)
	Delete(ctx context.Context, id string) error
}

// SessionRepository はカウンセリングセッションの永続化操作を定義する。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// FindByID は ID でセッションを検索する。見つからない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// ListForUser はユーザーが当事者として関わるセッションを新着順に返す。
	ListForUser(ctx context.Context, userID string) ([]model.Session, error)
	// Update はステータスと日時カラムを保存する。
	Update(ctx context.Context, session *model.Session) error
}
