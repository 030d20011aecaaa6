package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用したコミュニティ投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postColumns = `id, title, body, category, author_id,
	likes_count, liked_by, replies_count, views_count, created_at, updated_at`

func scanPost(scan func(dest ...any) error) (*model.CommunityPost, error) {
	post := &model.CommunityPost{}
	err := scan(
		&post.ID, &post.Title, &post.Body, &post.Category, &post.AuthorID,
		&post.LikesCount, pq.Array(&post.LikedBy), &post.RepliesCount, &post.ViewsCount,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create は投稿を保存する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.CommunityPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO community_posts (
			id, title, body, category, author_id,
			likes_count, liked_by, replies_count, views_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		post.ID, post.Title, post.Body, post.Category, post.AuthorID,
		post.LikesCount, pq.Array(post.LikedBy), post.RepliesCount, post.ViewsCount,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.CommunityPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM community_posts WHERE id = $1`, id)
	post, err := scanPost(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// List は条件に合致する投稿を新着順に返す。
func (r *PostgresPostRepo) List(ctx context.Context, filter PostFilter) ([]model.CommunityPost, error) {
	query := `SELECT ` + postColumns + ` FROM community_posts WHERE 1=1`
	args := []any{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (title ILIKE $%d OR body ILIKE $%d)", n, n)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.CommunityPost{}
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// IncrementViews は閲覧数を1加算する。
func (r *PostgresPostRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE community_posts SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// ToggleLike はいいねの付与・解除を反転する。
// liked_byの更新とlikes_countの更新を単一文で行い、
// likes_countは常に更新後のliked_byの要素数になる。
func (r *PostgresPostRepo) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var liked bool
	var likesCount int
	err := r.db.QueryRowContext(ctx,
		`UPDATE community_posts SET
			liked_by = CASE WHEN $2 = ANY(liked_by)
				THEN array_remove(liked_by, $2)
				ELSE array_append(liked_by, $2) END,
			likes_count = cardinality(CASE WHEN $2 = ANY(liked_by)
				THEN array_remove(liked_by, $2)
				ELSE array_append(liked_by, $2) END),
			updated_at = NOW()
		WHERE id = $1
		RETURNING $2 = ANY(liked_by), likes_count`,
		postID, userID,
	).Scan(&liked, &likesCount)
	if err == sql.ErrNoRows {
		return false, 0, fmt.Errorf("post not found: %s", postID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle post like: %w", err)
	}
	return liked, likesCount, nil
}

// DeleteWithReplies は投稿と配下の返信を単一トランザクションで削除する。
func (r *PostgresPostRepo) DeleteWithReplies(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM community_replies WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete replies: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM community_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
