package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresReplyRepo はPostgreSQLを使用したコミュニティ返信リポジトリ。
type PostgresReplyRepo struct {
	db *sql.DB
}

// NewPostgresReplyRepo はPostgresReplyRepoを生成する。
func NewPostgresReplyRepo(db *sql.DB) *PostgresReplyRepo {
	return &PostgresReplyRepo{db: db}
}

const replyColumns = `id, post_id, author_id, body, likes_count, liked_by, created_at, updated_at`

func scanReply(scan func(dest ...any) error) (*model.CommunityReply, error) {
	reply := &model.CommunityReply{}
	err := scan(
		&reply.ID, &reply.PostID, &reply.AuthorID, &reply.Body,
		&reply.LikesCount, pq.Array(&reply.LikedBy), &reply.CreatedAt, &reply.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Create は返信を保存し、親投稿のreplies_countを同一トランザクションで加算する。
func (r *PostgresReplyRepo) Create(ctx context.Context, reply *model.CommunityReply) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO community_replies (
			id, post_id, author_id, body, likes_count, liked_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reply.ID, reply.PostID, reply.AuthorID, reply.Body,
		reply.LikesCount, pq.Array(reply.LikedBy), reply.CreatedAt, reply.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reply: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE community_posts SET replies_count = replies_count + 1, updated_at = NOW()
		 WHERE id = $1`,
		reply.PostID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment replies count: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", reply.PostID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindByID は指定IDの返信を取得する。見つからない場合はnilを返す。
func (r *PostgresReplyRepo) FindByID(ctx context.Context, id string) (*model.CommunityReply, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+replyColumns+` FROM community_replies WHERE id = $1`, id)
	reply, err := scanReply(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reply by ID: %w", err)
	}
	return reply, nil
}

// ListByPost は投稿配下の返信を古い順に返す。
func (r *PostgresReplyRepo) ListByPost(ctx context.Context, postID string) ([]model.CommunityReply, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+replyColumns+` FROM community_replies
		 WHERE post_id = $1 ORDER BY created_at ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer rows.Close()

	replies := []model.CommunityReply{}
	for rows.Next() {
		reply, err := scanReply(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, *reply)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate replies: %w", err)
	}
	return replies, nil
}

// ToggleLike はいいねの付与・解除を反転する。
func (r *PostgresReplyRepo) ToggleLike(ctx context.Context, replyID, userID string) (bool, int, error) {
	var liked bool
	var likesCount int
	err := r.db.QueryRowContext(ctx,
		`UPDATE community_replies SET
			liked_by = CASE WHEN $2 = ANY(liked_by)
				THEN array_remove(liked_by, $2)
				ELSE array_append(liked_by, $2) END,
			likes_count = cardinality(CASE WHEN $2 = ANY(liked_by)
				THEN array_remove(liked_by, $2)
				ELSE array_append(liked_by, $2) END),
			updated_at = NOW()
		WHERE id = $1
		RETURNING $2 = ANY(liked_by), likes_count`,
		replyID, userID,
	).Scan(&liked, &likesCount)
	if err == sql.ErrNoRows {
		return false, 0, fmt.Errorf("reply not found: %s", replyID)
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle reply like: %w", err)
	}
	return liked, likesCount, nil
}

// Delete は返信を削除し、親投稿のreplies_countを同一トランザクションで減算する。
// カウンタは0を下回らない。
func (r *PostgresReplyRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var postID string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM community_replies WHERE id = $1 RETURNING post_id`, id,
	).Scan(&postID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("reply not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE community_posts SET replies_count = GREATEST(replies_count - 1, 0), updated_at = NOW()
		 WHERE id = $1`,
		postID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement replies count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ReplyRepository = (*PostgresReplyRepo)(nil)
