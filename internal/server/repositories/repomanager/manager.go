// Package repomanager hands out repositories bound to a given database handle
// (plain connection or transaction) and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/akozlovs/gamersnet/internal/dbx"
	"github.com/akozlovs/gamersnet/internal/server/repositories/posts"
	"github.com/akozlovs/gamersnet/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
}
