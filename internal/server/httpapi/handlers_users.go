package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/server/models"
)

type registerRequest struct {
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Name      string     `json:"name"`
	Country   string     `json:"country"`
	BornDate  *time.Time `json:"bornDate"`
	PhotoURL  string     `json:"photoUrl"`
	GameList  []string   `json:"gameList"`
	LinkList  []string   `json:"linkList"`
	Biography string     `json:"biography"`
}

type editUserRequest struct {
	Email     *string    `json:"email"`
	Password  *string    `json:"password"`
	Name      *string    `json:"name"`
	Country   *string    `json:"country"`
	BornDate  *time.Time `json:"bornDate"`
	PhotoURL  *string    `json:"photoUrl"`
	GameList  *[]string  `json:"gameList"`
	LinkList  *[]string  `json:"linkList"`
	Biography *string    `json:"biography"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token string `json:"token"`
}

type presignPhotoResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

func parsePage(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.ErrorBadRequest
	}
	return page, nil
}

func (s *HTTPServer) listUsers(c echo.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return s.writeError(c, err)
	}

	users, err := s.users.List(c.Request().Context(), page)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newUserSummaryViews(users))
}

func (s *HTTPServer) registerUser(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, common.ErrorBadRequest)
	}

	ctx := c.Request().Context()

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		Country:   req.Country,
		BornDate:  req.BornDate,
		PhotoURL:  req.PhotoURL,
		GameList:  req.GameList,
		LinkList:  req.LinkList,
		Biography: req.Biography,
	}

	if _, err := s.users.Register(ctx, user, req.Password); err != nil {
		return s.writeError(c, err)
	}

	users, err := s.users.List(ctx, 1)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newUserSummaryViews(users))
}

func (s *HTTPServer) getUser(c echo.Context) error {
	username := c.Param("username")

	user, err := s.users.Get(c.Request().Context(), username)
	if err != nil {
		return s.writeError(c, err)
	}

	if claims, ok := requestClaims(c); ok && claims.Username == username {
		return c.JSON(http.StatusOK, newUserSelfView(user))
	}
	return c.JSON(http.StatusOK, newUserProfileView(user))
}

func (s *HTTPServer) editUser(c echo.Context) error {
	var req editUserRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, common.ErrorBadRequest)
	}

	patch := &models.UserPatch{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Country:   req.Country,
		BornDate:  req.BornDate,
		PhotoURL:  req.PhotoURL,
		GameList:  req.GameList,
		LinkList:  req.LinkList,
		Biography: req.Biography,
	}

	username := c.Param("username")

	user, err := s.users.Edit(c.Request().Context(), username, patch)
	if err != nil {
		return s.writeError(c, err)
	}

	if claims, ok := requestClaims(c); ok && claims.Username == username {
		return c.JSON(http.StatusOK, newUserSelfView(user))
	}
	return c.JSON(http.StatusOK, newUserProfileView(user))
}

func (s *HTTPServer) deleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	if _, err := s.users.Delete(ctx, c.Param("username")); err != nil {
		return s.writeError(c, err)
	}

	users, err := s.users.List(ctx, 1)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, newUserSummaryViews(users))
}

func (s *HTTPServer) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, common.ErrorBadRequest)
	}

	if !s.loginLimiter.Allow(req.Username) {
		return s.writeError(c, common.ErrRateLimited)
	}

	pair, err := s.users.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, loginResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *HTTPServer) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return s.writeError(c, common.ErrorBadRequest)
	}

	if !s.loginLimiter.Allow(req.Username) {
		return s.writeError(c, common.ErrRateLimited)
	}

	token, err := s.users.Refresh(c.Request().Context(), req.Username, req.Password, req.RefreshToken)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, refreshResponse{Token: token})
}

func (s *HTTPServer) presignPhoto(c echo.Context) error {
	username := c.Param("username")

	claims, ok := requestClaims(c)
	if !ok || claims.Username != username {
		return s.writeError(c, common.ErrorUnauthorized)
	}

	key, url, err := s.photos.PresignPhotoUpload(c.Request().Context(), username)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, presignPhotoResponse{Key: key, UploadURL: url})
}
