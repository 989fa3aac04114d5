// Package repomanager wires repository constructors to a database handle.
// Services receive a RepositoryManager and bind repositories either to the
// pooled *sql.DB or to a transaction obtained via dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/hoaboard/internal/dbx"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/communities"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/members"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/topics"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/hoaboard/internal/server/repositories/votes"
)

// RepositoryManager vends repositories bound to an arbitrary DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Members(db dbx.DBTX) members.Repository
	Communities(db dbx.DBTX) communities.Repository
	Topics(db dbx.DBTX) topics.Repository
	Votes(db dbx.DBTX) votes.Repository

	RunMigrations(ctx context.Context, db *sql.DB) error
}
