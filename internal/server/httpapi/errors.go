package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akozlovs/gamersnet/internal/common"
)

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps service errors onto the wire taxonomy. The message strings
// are part of the public API contract and must not change.
func (s *HTTPServer) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrPasswordEmpty):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Password Can't Be Empty"})
	case errors.Is(err, common.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid User Or Password"})
	case errors.Is(err, common.ErrorBadRequest):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Bad Request"})
	case errors.Is(err, common.ErrUnknownRefreshToken):
		return c.JSON(http.StatusNotFound, errorResponse{Message: "Bad Request"})
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Message: "Page Not Found"})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
	case errors.Is(err, common.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, errorResponse{Message: "Too Many Requests"})
	default:
		s.logger.Error(c.Request().Context(), err.Error())
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal Server Error"})
	}
}
