package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/linkedcommunity/internal/dbx"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/posts"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/linkedcommunity/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DB or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Posts(db dbx.DBTX) posts.Repository
}
