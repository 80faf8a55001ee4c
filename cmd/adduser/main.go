// Command adduser registers a user directly against the database, prompting
// for the password without echo. Intended for operators seeding accounts.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/akozlovs/gamersnet/internal/logging"
	"github.com/akozlovs/gamersnet/internal/server"
	"github.com/akozlovs/gamersnet/internal/server/config"
	"github.com/akozlovs/gamersnet/internal/server/models"
	"github.com/akozlovs/gamersnet/internal/server/repositories/repomanager"
	"github.com/akozlovs/gamersnet/internal/server/services"
	"github.com/akozlovs/gamersnet/internal/server/sessions"
)

func main() {

	ctx := context.Background()

	server.LoadEnvFile()
	cfg := config.LoadConfig()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Enter user name")
	username, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	username = strings.TrimSpace(username)

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Println(err.Error())
		return
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	store := sessions.NewMemoryStore(time.Minute)
	defer store.Close()

	us := services.NewUserService(db, rm, store, logger, cfg)

	if _, err := us.Register(ctx, &models.User{Username: username}, string(password)); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Success!")

}
