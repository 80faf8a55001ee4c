// Package httpapi exposes the REST surface of the gamersnet server over
// echo. It owns request decoding, auth middleware, rate limiting on the
// credential endpoints, and the mapping of service errors to HTTP responses.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/akozlovs/gamersnet/internal/logging"
	"github.com/akozlovs/gamersnet/internal/server/ratelimit"
	"github.com/akozlovs/gamersnet/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address      string
	logger       logging.Logger
	users        *services.UserService
	posts        *services.PostService
	photos       *services.PhotoService
	loginLimiter *ratelimit.KeyedLimiter
	accessKey    []byte
}

func NewHTTPServer(address string, l logging.Logger, us *services.UserService, ps *services.PostService, phs *services.PhotoService, limiter *ratelimit.KeyedLimiter, accessKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:      address,
		logger:       l.With("module", "http_server"),
		users:        us,
		posts:        ps,
		photos:       phs,
		loginLimiter: limiter,
		accessKey:    []byte(accessKey),
	}, nil
}

func (s *HTTPServer) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/users", s.listUsers)
	e.POST("/users", s.registerUser)
	e.POST("/users/login", s.login)
	e.POST("/users/refresh", s.refresh)
	e.GET("/users/:username", s.getUser, s.optionalAuth)
	e.PUT("/users/:username", s.editUser, s.optionalAuth)
	e.DELETE("/users/:username", s.deleteUser)
	e.POST("/users/:username/photo", s.presignPhoto, s.requireAuth)

	e.GET("/posts", s.listPosts)
	e.GET("/posts/:id", s.getPost)
	e.POST("/posts", s.createPost, s.requireAuth)
	e.PUT("/posts/:id", s.editPost)
	e.DELETE("/posts/:id", s.deletePost)

	return e
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails. Cancellation triggers a graceful shutdown bounded by
// shutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {

	e := s.newEcho()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
