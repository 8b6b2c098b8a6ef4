package main

import (
	"go.uber.org/zap"

	"bankledger/config"
	"bankledger/postgres"
	"bankledger/transfer"
)

// ledgerd bootstraps the durable ledger: parse configuration, connect to
// Postgres (creating tables on first run), and verify the engine wires up.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Parse()
	if err != nil {
		logger.Fatal("parsing ledger config", zap.Error(err))
	}

	pgConfig, err := postgres.Parse()
	if err != nil {
		logger.Fatal("parsing postgres config", zap.Error(err))
	}

	db, err := postgres.Connect(pgConfig)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer db.Close()

	service := transfer.NewService(transfer.Config{
		Store:  postgres.NewStore(db, cfg.LockTimeout),
		Trail:  postgres.NewTrail(db),
		Rules:  cfg.Rules(),
		Logger: logger,
	})
	_ = service

	logger.Info("ledger engine ready",
		zap.String("high_value_threshold", cfg.HighValueThreshold.String()),
		zap.String("medium_threshold", cfg.MediumThreshold.String()),
		zap.Int("window_minutes", cfg.WindowMinutes),
		zap.Duration("lock_timeout", cfg.LockTimeout),
	)
}
