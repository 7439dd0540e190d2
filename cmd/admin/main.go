package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bizledger/internal/admincli"
	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/auth"
	"github.com/dmitrijs2005/bizledger/internal/server/config"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bizledger/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	hasher := auth.NewHasher(cfg.BcryptCost)

	open := func(ctx context.Context) (admincli.AccountCreator, func(), error) {
		db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}
		codec := auth.NewCodec([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration, logger)
		lockout := auth.NewLockoutPolicy(cfg.MaxFailedAttempts, cfg.LockoutDuration, nil)
		svc := services.NewAuthService(db, rm, hasher, codec, lockout, logger)
		return svc, func() { db.Close() }, nil
	}

	app := admincli.NewApp(os.Stdin, os.Stdout, hasher, open)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
