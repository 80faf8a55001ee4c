package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/dbx"
	"github.com/akozlovs/gamersnet/internal/logging"
	"github.com/akozlovs/gamersnet/internal/server/models"
	"github.com/akozlovs/gamersnet/internal/server/repositories/repomanager"
)

// PostService provides the post ledger: paged listings with owner summaries,
// single-post lookup, and the create/edit/delete mutations that keep the
// user/post back-references consistent.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "posts"),
	}
}

// List returns one page of posts with owner summaries. Pagination rules
// mirror the user directory.
func (s *PostService) List(ctx context.Context, page int) ([]*models.PostWithOwner, error) {
	if page < 1 {
		return nil, common.ErrorBadRequest
	}

	repo := s.repomanager.Posts(s.db)
	posts, err := repo.List(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	if len(posts) == 0 && page > 1 {
		return nil, common.ErrorNotFound
	}

	return posts, nil
}

// GetByID returns the post with its owner summary. A syntactically invalid
// id is treated as an absent post.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.PostWithOwner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	repo := s.repomanager.Posts(s.db)
	return repo.GetByID(ctx, id)
}

// Create inserts the post and appends its id to the owner's post list inside
// one transaction, so a failed owner link never leaves an orphaned post.
func (s *PostService) Create(ctx context.Context, ownerUsername, text string) (*models.Post, error) {
	post := &models.Post{
		ID:            uuid.New().String(),
		Text:          text,
		OwnerUsername: ownerUsername,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Posts(tx).Create(ctx, post); err != nil {
			return err
		}
		return s.repomanager.Users(tx).AppendPostID(ctx, ownerUsername, post.ID)
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

// Edit applies a sparse patch. Only the text is mutable; an empty patch
// leaves the stored text untouched but still reports a missing post.
func (s *PostService) Edit(ctx context.Context, id string, patch *models.PostPatch) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	repo := s.repomanager.Posts(s.db)

	if patch.Text == nil {
		post, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &post.Post, nil
	}

	return repo.UpdateText(ctx, id, *patch.Text)
}

// Delete removes the post and the owner's back-reference in one transaction
// and returns the deleted record.
func (s *PostService) Delete(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var deleted *models.Post
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		post, err := s.repomanager.Posts(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		deleted = post
		return s.repomanager.Users(tx).RemovePostID(ctx, post.OwnerUsername, post.ID)
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}
