package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bizledger/internal/dbx"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/tenants"
)

// RepositoryManager vends repositories bound to either a *sql.DB or a
// transaction, so services can compose them under dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Tenants(db dbx.DBTX) tenants.Repository
}
