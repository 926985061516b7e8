package main

import (
	"context"
	"flag"

	"hayase/internal/config"
	"hayase/internal/db"
	"hayase/internal/logging"
	"hayase/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "revert all migrations instead of applying them")
	steps := flag.Int("steps", 0, "apply n migrations, or revert them when negative")
	status := flag.Bool("status", false, "print the schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	m, err := migrate.Open(ctx, pool, logger)
	if err != nil {
		logger.Fatal("open migrations", zap.Error(err))
	}
	defer m.Close()

	if !*status {
		switch {
		case *down:
			err = m.Down()
		case *steps != 0:
			err = m.Steps(*steps)
		default:
			err = m.Up()
		}
		if err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	st, err := m.Status()
	if err != nil {
		logger.Fatal("read status", zap.Error(err))
	}
	logger.Info("schema", zap.Stringer("status", st))
}
