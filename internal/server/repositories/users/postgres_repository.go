package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_hash, name, role, country, born_date, photo_url, game_list, link_list, biography, post_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11, '[]'::jsonb)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Name, user.Role, user.Country,
		nullTime(user.BornDate), user.PhotoURL, marshalList(user.GameList), marshalList(user.LinkList),
		user.Biography).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, email, password_hash, name, role, country, born_date, photo_url,
		        game_list::text, link_list::text, biography, post_ids::text, created_at
		 FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	var bornDate sql.NullTime
	var gameList, linkList, postIDs string

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Name, &user.Role,
		&user.Country, &bornDate, &user.PhotoURL, &gameList, &linkList, &user.Biography,
		&postIDs, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if bornDate.Valid {
		t := bornDate.Time
		user.BornDate = &t
	}
	if user.GameList, err = unmarshalList(gameList); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if user.LinkList, err = unmarshalList(linkList); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if user.PostIDs, err = unmarshalList(postIDs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	query :=
		`SELECT name, role, country, photo_url
		 FROM users
		 ORDER BY created_at, username
		 OFFSET $1 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.Name, &user.Role, &user.Country, &user.PhotoURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, username string, patch *models.UserPatch) error {
	set := []string{}
	args := []any{}

	add := func(expr string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(expr, len(args)))
	}

	if patch.Email != nil {
		add("email = $%d", *patch.Email)
	}
	if patch.Password != nil {
		// already hashed by the service
		add("password_hash = $%d", *patch.Password)
	}
	if patch.Name != nil {
		add("name = $%d", *patch.Name)
	}
	if patch.Country != nil {
		add("country = $%d", *patch.Country)
	}
	if patch.BornDate != nil {
		add("born_date = $%d", *patch.BornDate)
	}
	if patch.PhotoURL != nil {
		add("photo_url = $%d", *patch.PhotoURL)
	}
	if patch.GameList != nil {
		add("game_list = $%d::jsonb", marshalList(*patch.GameList))
	}
	if patch.LinkList != nil {
		add("link_list = $%d::jsonb", marshalList(*patch.LinkList))
	}
	if patch.Biography != nil {
		add("biography = $%d", *patch.Biography)
	}

	// empty patch: nothing to write, existence is checked by the caller
	if len(set) == 0 {
		return nil
	}

	args = append(args, username)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE username = $%d`, joinSet(set), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) AppendPostID(ctx context.Context, username, postID string) error {
	query := `UPDATE users SET post_ids = post_ids || to_jsonb($2::text) WHERE username = $1`

	res, err := r.db.ExecContext(ctx, query, username, postID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) RemovePostID(ctx context.Context, username, postID string) error {
	query := `UPDATE users SET post_ids = post_ids - $2 WHERE username = $1`

	if _, err := r.db.ExecContext(ctx, query, username, postID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func marshalList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func unmarshalList(data string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func joinSet(set []string) string {
	return strings.Join(set, ", ")
}
