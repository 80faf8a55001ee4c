package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/server/models"
)

type createPostRequest struct {
	Text string `json:"text"`
}

type editPostRequest struct {
	Text *string `json:"text"`
}

// postItemView is the bare post shape returned from edit and delete, where
// no owner join is available.
type postItemView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Owner     string    `json:"owner"`
}

func newPostItemView(p *models.Post) postItemView {
	return postItemView{
		ID:        p.ID,
		Text:      p.Text,
		CreatedAt: p.CreatedAt,
		Owner:     p.OwnerUsername,
	}
}

func (s *HTTPServer) listPosts(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return s.writeError(c, err)
	}

	posts, err := s.posts.List(c.Request().Context(), page)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newPostViews(posts))
}

func (s *HTTPServer) getPost(c echo.Context) error {
	post, err := s.posts.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newPostView(post))
}

func (s *HTTPServer) createPost(c echo.Context) error {
	claims, ok := requestClaims(c)
	if !ok {
		return s.writeError(c, common.ErrorUnauthorized)
	}

	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, common.ErrorBadRequest)
	}

	ctx := c.Request().Context()

	if _, err := s.posts.Create(ctx, claims.Username, req.Text); err != nil {
		return s.writeError(c, err)
	}

	posts, err := s.posts.List(ctx, 1)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newPostViews(posts))
}

func (s *HTTPServer) editPost(c echo.Context) error {
	var req editPostRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, common.ErrorBadRequest)
	}

	post, err := s.posts.Edit(c.Request().Context(), c.Param("id"), &models.PostPatch{Text: req.Text})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newPostItemView(post))
}

func (s *HTTPServer) deletePost(c echo.Context) error {
	post, err := s.posts.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newPostItemView(post))
}
