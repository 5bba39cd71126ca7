package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AdoryVo/starter-go-rest-api/internal/apperr"
)

// Repository は投稿の永続化契約です。
type Repository interface {
	Create(ctx context.Context, title, text string, userID uuid.UUID) (*Post, error)
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context) ([]Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id int64) error
}

// PostgresRepository は Repository のPostgres実装です。
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create は投稿を登録します。userID が所有者として記録されます。
func (r *PostgresRepository) Create(ctx context.Context, title, text string, userID uuid.UUID) (*Post, error) {
	query := `INSERT INTO posts (title, text, user_id)
	          VALUES ($1, $2, $3)
	          RETURNING id`

	p := &Post{Title: title, Text: text, UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, title, text, userID).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// GetByID はIDで投稿を取得します。
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	query := `SELECT id, title, text, user_id FROM posts WHERE id = $1`

	p := &Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Title, &p.Text, &p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// List は全投稿をID昇順で返します。
func (r *PostgresRepository) List(ctx context.Context) ([]Post, error) {
	query := `SELECT id, title, text, user_id FROM posts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Text, &p.UserID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

// Update はタイトルと本文を上書きします。所有者は変更しません。
func (r *PostgresRepository) Update(ctx context.Context, p *Post) error {
	query := `UPDATE posts SET title = $2, text = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, p.ID, p.Title, p.Text)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete は投稿を削除します。対象が存在しない場合は apperr.ErrNotFound です。
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
