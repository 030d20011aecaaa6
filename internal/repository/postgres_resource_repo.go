package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/careerflow/internal/model"
)

// PostgresResourceRepo はPostgreSQLを使用した学習リソースリポジトリ。
type PostgresResourceRepo struct {
	db *sql.DB
}

// NewPostgresResourceRepo はPostgresResourceRepoを生成する。
func NewPostgresResourceRepo(db *sql.DB) *PostgresResourceRepo {
	return &PostgresResourceRepo{db: db}
}

const resourceColumns = `id, title, description, type, category, url, tags,
	likes_count, created_by, created_at, updated_at`

func scanResource(scan func(dest ...any) error) (*model.Resource, error) {
	res := &model.Resource{}
	err := scan(
		&res.ID, &res.Title, &res.Description, &res.Type, &res.Category, &res.URL,
		pq.Array(&res.Tags), &res.LikesCount, &res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Create はリソースを保存する。
func (r *PostgresResourceRepo) Create(ctx context.Context, resource *model.Resource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO resources (
			id, title, description, type, category, url, tags,
			likes_count, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		resource.ID, resource.Title, resource.Description, resource.Type, resource.Category,
		resource.URL, pq.Array(resource.Tags), resource.LikesCount, resource.CreatedBy,
		resource.CreatedAt, resource.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert resource: %w", err)
	}
	return nil
}

// FindByID は指定IDのリソースを取得する。見つからない場合はnilを返す。
func (r *PostgresResourceRepo) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	res, err := scanResource(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find resource by ID: %w", err)
	}
	return res, nil
}

// List は条件に合致するリソースを新着順に返す。
func (r *PostgresResourceRepo) List(ctx context.Context, filter ResourceFilter) ([]model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE 1=1`
	args := []any{}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", n, n)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	resources := []model.Resource{}
	for rows.Next() {
		res, err := scanResource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	return resources, nil
}

// Delete は指定IDのリソースを削除する。
func (r *PostgresResourceRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("resource not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ ResourceRepository = (*PostgresResourceRepo)(nil)
