package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/dbx"
	"github.com/akozlovs/gamersnet/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {

	query :=
		`INSERT INTO posts (id, text, owner_username)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.Text, post.OwnerUsername).Scan(&post.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PostWithOwner, error) {
	query :=
		`SELECT p.id, p.text, p.created_at, p.owner_username, u.name, u.photo_url
		 FROM posts p
		 JOIN users u ON u.username = p.owner_username
		 WHERE p.id = $1
		 `

	post := &models.PostWithOwner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.Text, &post.CreatedAt, &post.OwnerUsername,
		&post.Owner.Name, &post.Owner.PhotoURL)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	post.Owner.Username = post.OwnerUsername
	return post, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.PostWithOwner, error) {
	query :=
		`SELECT p.id, p.text, p.created_at, p.owner_username, u.name, u.photo_url
		 FROM posts p
		 JOIN users u ON u.username = p.owner_username
		 ORDER BY p.created_at, p.id
		 OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.PostWithOwner{}
	for rows.Next() {
		post := &models.PostWithOwner{}
		if err := rows.Scan(&post.ID, &post.Text, &post.CreatedAt, &post.OwnerUsername,
			&post.Owner.Name, &post.Owner.PhotoURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		post.Owner.Username = post.OwnerUsername
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) UpdateText(ctx context.Context, id, text string) (*models.Post, error) {
	query :=
		`UPDATE posts SET text = $2
		 WHERE id = $1
		 RETURNING id, text, created_at, owner_username
		 `

	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id, text).Scan(
		&post.ID, &post.Text, &post.CreatedAt, &post.OwnerUsername)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`DELETE FROM posts
		 WHERE id = $1
		 RETURNING id, text, created_at, owner_username
		 `

	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.Text, &post.CreatedAt, &post.OwnerUsername)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}
