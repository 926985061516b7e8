// Package migrate owns the postgres schema. Migration files are embedded in
// the binary and applied through golang-migrate over the application's pool.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"hayase/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

const schemaDir = "sql"

// Status is the schema version recorded in schema_migrations.
type Status struct {
	Version uint
	Dirty   bool
	// Empty is true before the first migration has been applied.
	Empty bool
}

func (s Status) String() string {
	switch {
	case s.Empty:
		return "no migrations applied"
	case s.Dirty:
		return fmt.Sprintf("version %d (dirty)", s.Version)
	}
	return fmt.Sprintf("version %d", s.Version)
}

// Migrator applies the embedded schema to one database.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Open prepares a Migrator that borrows connections from pool. Close releases
// them; the pool itself stays open.
func Open(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (*Migrator, error) {
	logger = logging.OrNop(logger).Named("migrate")

	source, err := iofs.New(schemaFiles, schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("attach migrations to database: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", target)
	if err != nil {
		target.Close()
		return nil, fmt.Errorf("prepare migrations: %w", err)
	}
	m.Log = zapLogger{logger: logger}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (g *Migrator) Up() error {
	return g.finish("up", g.m.Up())
}

// Down reverts every applied migration.
func (g *Migrator) Down() error {
	return g.finish("down", g.m.Down())
}

// Steps moves n migrations forward, or back when n is negative.
func (g *Migrator) Steps(n int) error {
	return g.finish(fmt.Sprintf("steps %d", n), g.m.Steps(n))
}

func (g *Migrator) Status() (Status, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Empty: true}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("read schema version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}

func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (g *Migrator) finish(op string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		g.logger.Debug("schema unchanged", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	if st, serr := g.Status(); serr == nil {
		g.logger.Info("schema migrated", zap.String("op", op), zap.Stringer("status", st))
	}
	return nil
}

// Apply brings the schema on pool up to date.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	g, err := Open(ctx, pool, nil)
	if err != nil {
		return err
	}
	defer g.Close()
	return g.Up()
}

// zapLogger routes golang-migrate's progress lines to zap at debug level.
type zapLogger struct {
	logger *zap.Logger
}

func (l zapLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l zapLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
