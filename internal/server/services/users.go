// Package services contains server-side business logic. This file implements
// UserService, which handles the user directory (list, view, register, edit,
// cascade delete) plus login and session refresh against the injected
// session store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/logging"
	"github.com/akozlovs/gamersnet/internal/server/auth"
	"github.com/akozlovs/gamersnet/internal/server/config"
	"github.com/akozlovs/gamersnet/internal/server/models"
	"github.com/akozlovs/gamersnet/internal/server/repositories/repomanager"
	"github.com/akozlovs/gamersnet/internal/server/sessions"
)

// PageSize is the fixed page size for user and post listings.
const PageSize = 10

// bcryptCost matches the cost the data was originally hashed with.
const bcryptCost = 10

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService provides directory and authentication operations:
//   - List / Get: paged summaries and single-user views
//   - Register: create users with hashed passwords
//   - Edit: sparse patches
//   - Delete: cascade-delete the user's posts, best effort
//   - Login / Refresh: verify credentials, mint tokens, track sessions
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	sessions                     sessions.Store
	logger                       logging.Logger
	accessTokenKey               []byte
	refreshTokenKey              []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories, the session
// store, and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, store sessions.Store, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		sessions:                     store,
		logger:                       logger.With("module", "users"),
		accessTokenKey:               []byte(cfg.AccessTokenKey),
		refreshTokenKey:              []byte(cfg.RefreshTokenKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// List returns one page of user summaries. Page numbers start at 1; a page
// beyond the last non-empty one yields ErrorNotFound, except page 1 which is
// allowed to be empty.
func (s *UserService) List(ctx context.Context, page int) ([]*models.User, error) {
	if page < 1 {
		return nil, common.ErrorBadRequest
	}

	repo := s.repomanager.Users(s.db)
	users, err := repo.List(ctx, (page-1)*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	if len(users) == 0 && page > 1 {
		return nil, common.ErrorNotFound
	}

	return users, nil
}

// Get returns the full user record, or ErrorNotFound.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByUsername(ctx, username)
}

// Register creates a user from the given record and plaintext password.
// A missing password is rejected before anything is persisted.
func (s *UserService) Register(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if password == "" {
		return nil, common.ErrPasswordEmpty
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}
	user.PasswordHash = string(hash)

	if user.Role == "" {
		user.Role = "user"
	}

	repo := s.repomanager.Users(s.db)
	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created, nil
}

// Edit applies a sparse patch and returns the updated record. A password in
// the patch is re-hashed; absent fields are left untouched.
func (s *UserService) Edit(ctx context.Context, username string, patch *models.UserPatch) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcryptCost)
		if err != nil {
			return nil, common.ErrorInternal
		}
		hashed := string(hash)
		patch.Password = &hashed
	}

	if patch.IsEmpty() {
		// nothing to write, but a missing user must still surface as 404
		return repo.GetByUsername(ctx, username)
	}

	if err := repo.Update(ctx, username, patch); err != nil {
		return nil, err
	}

	return repo.GetByUsername(ctx, username)
}

// Delete removes the user and cascade-deletes every post in the user's post
// list. Individual post failures do not abort the cascade; they are returned
// as warnings and logged.
func (s *UserService) Delete(ctx context.Context, username string) ([]string, error) {
	userRepo := s.repomanager.Users(s.db)
	postRepo := s.repomanager.Posts(s.db)

	user, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, postID := range user.PostIDs {
		if _, err := postRepo.Delete(ctx, postID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			warning := fmt.Sprintf("post %s: %v", postID, err)
			warnings = append(warnings, warning)
			s.logger.Warn(ctx, "cascade delete left a post behind", "username", username, "post_id", postID, "error", err.Error())
		}
	}

	if err := userRepo.Delete(ctx, username); err != nil {
		return warnings, err
	}

	return warnings, nil
}

// Login verifies the credentials and, on success, returns a new TokenPair
// and registers the refresh session.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.verifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	access, err := auth.GenerateToken(user.Username, user.Name, user.Role, s.accessTokenKey, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateToken(user.Username, user.Name, user.Role, s.refreshTokenKey, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	entry := &models.SessionEntry{Username: user.Username, AccessToken: access}
	if err := s.sessions.Put(ctx, refresh, entry, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("error storing session: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh re-verifies the credentials, checks that the refresh token is a
// known session, and mints a new access token, overwriting the stored
// association. An absent session yields ErrUnknownRefreshToken.
func (s *UserService) Refresh(ctx context.Context, username, password, refreshToken string) (string, error) {
	user, err := s.verifyCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}

	if _, err := s.sessions.Get(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUnknownRefreshToken
		}
		return "", fmt.Errorf("error reading session: %w", err)
	}

	access, err := auth.GenerateToken(user.Username, user.Name, user.Role, s.accessTokenKey, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}

	entry := &models.SessionEntry{Username: user.Username, AccessToken: access}
	if err := s.sessions.Put(ctx, refreshToken, entry, s.remainingValidity(refreshToken)); err != nil {
		return "", fmt.Errorf("error storing session: %w", err)
	}

	return access, nil
}

// --- helpers below ---

// verifyCredentials loads the user and compares the bcrypt hash. Unknown
// usernames and wrong passwords are indistinguishable to callers; store
// failures stay distinct.
func (s *UserService) verifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// remainingValidity keeps a refreshed session's TTL aligned with the refresh
// token's own expiry instead of restarting the clock.
func (s *UserService) remainingValidity(refreshToken string) time.Duration {
	claims, err := auth.ParseToken(refreshToken, s.refreshTokenKey)
	if err != nil || claims.ExpiresAt == nil {
		return s.refreshTokenValidityDuration
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return s.refreshTokenValidityDuration
	}
	return remaining
}
