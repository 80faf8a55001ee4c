// Package server initializes and runs the gamersnet application server.
// It opens the database, runs migrations, selects the session store backend,
// wires the services onto the HTTP server, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akozlovs/gamersnet/internal/logging"
	"github.com/akozlovs/gamersnet/internal/server/config"
	"github.com/akozlovs/gamersnet/internal/server/httpapi"
	"github.com/akozlovs/gamersnet/internal/server/ratelimit"
	"github.com/akozlovs/gamersnet/internal/server/repositories/repomanager"
	"github.com/akozlovs/gamersnet/internal/server/services"
	"github.com/akozlovs/gamersnet/internal/server/sessions"
)

const sessionSweepInterval = time.Minute

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	sessionStore sessions.Store
	loginLimiter *ratelimit.KeyedLimiter
	userService  *services.UserService
	postService  *services.PostService
	photoService *services.PhotoService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("session store init error: %w", err)
	}

	limiter := ratelimit.NewKeyedLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)

	us := services.NewUserService(db, rm, sessionStore, logger, cfg)
	ps := services.NewPostService(db, rm, logger)
	phs := services.NewPhotoService(cfg)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		sessionStore: sessionStore,
		loginLimiter: limiter,
		userService:  us,
		postService:  ps,
		photoService: phs,
	}, nil
}

// newSessionStore picks redis when an address is configured, the in-memory
// store otherwise.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.RedisAddr != "" {
		return sessions.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}
	return sessions.NewMemoryStore(sessionSweepInterval), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := httpapi.NewHTTPServer(
		app.config.EndpointAddrHTTP,
		app.logger,
		app.userService,
		app.postService,
		app.photoService,
		app.loginLimiter,
		app.config.AccessTokenKey,
	)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.shutdown(ctx)
}

func (app *App) shutdown(ctx context.Context) {
	app.loginLimiter.Close()

	if closer, ok := app.sessionStore.(interface{ Close() }); ok {
		closer.Close()
	} else if closer, ok := app.sessionStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.logger.Info(ctx, "App stopped")
}

// LoadEnvFile loads a .env file when present. Missing files are not an
// error; deployments usually configure through real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}
