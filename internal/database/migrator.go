package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationsDir = "migrations"
	seedsDir      = "db/seeds"
)

// Readiness probing; tests shorten these.
var (
	readinessAttempts = 30
	readinessInterval = 2 * time.Second
)

// ErrMigrationsDisabled signals that SQL migrations were skipped and the caller
// should fall back to gorm AutoMigrate.
var ErrMigrationsDisabled = errors.New("sql migrations disabled (AUTO_MIGRATE != true)")

// Migrator applies the embedded SQL migrations and optional seed files.
type Migrator struct {
	db      *sql.DB
	source  fs.FS
	seedDir string
	logger  *slog.Logger
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{
		db:      db,
		source:  migrationsFS,
		seedDir: seedsDir,
		logger:  slog.Default().With("component", "migrator"),
	}
}

// WaitForDatabase pings until the database answers, the attempts run out or
// ctx is done.
func (m *Migrator) WaitForDatabase(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= readinessAttempts; attempt++ {
		if err = m.db.PingContext(ctx); err == nil {
			m.logger.Info("database is ready", "attempt", attempt)
			return nil
		}
		m.logger.Warn("database not ready", "attempt", attempt, "max_attempts", readinessAttempts, "error", err)
		if attempt == readinessAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readinessInterval):
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", readinessAttempts, err)
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	src, err := iofs.New(m.source, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres driver: %w", err)
	}
	inst, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return inst, nil
}

// Up applies every pending migration. A dirty schema left behind by an
// interrupted run is forced back to its recorded version first.
func (m *Migrator) Up() error {
	inst, err := m.instance()
	if err != nil {
		return err
	}

	version, dirty, err := inst.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return fmt.Errorf("read migration version: %w", err)
	case dirty:
		m.logger.Warn("schema is dirty, forcing version", "version", version)
		if err := inst.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
	}

	if err := inst.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema up to date", "version", version)
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	applied, _, err := inst.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	m.logger.Info("applied migrations", "from", version, "to", applied)
	return nil
}

// Version reports the schema version recorded by golang-migrate.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	inst, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	return inst.Version()
}

// Files lists the embedded migration file names in apply order.
func (m *Migrator) Files() ([]string, error) {
	entries, err := fs.ReadDir(m.source, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Seed runs the *.sql files of the seed directory in name order when
// SEED_DATABASE=true. A failing file is logged and skipped.
func (m *Migrator) Seed(ctx context.Context) error {
	if os.Getenv("SEED_DATABASE") != "true" {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(m.seedDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("find seed files: %w", err)
	}
	if len(files) == 0 {
		m.logger.Info("no seed files", "dir", m.seedDir)
		return nil
	}
	slices.Sort(files)

	for _, file := range files {
		name := filepath.Base(file)
		body, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read seed %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx, string(body)); err != nil {
			m.logger.Warn("seed file failed", "file", name, "error", err)
			continue
		}
		m.logger.Info("seed file applied", "file", name)
	}
	return nil
}

// RunMigrationsIfEnabled migrates and seeds the database when AUTO_MIGRATE=true
// and returns ErrMigrationsDisabled otherwise.
func RunMigrationsIfEnabled(ctx context.Context, db *sql.DB) error {
	if os.Getenv("AUTO_MIGRATE") != "true" {
		return ErrMigrationsDisabled
	}

	m := NewMigrator(db)
	if err := m.WaitForDatabase(ctx); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}
	if err := m.Up(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}
	if err := m.Seed(ctx); err != nil {
		m.logger.Warn("seeding failed", "error", err)
	}
	return nil
}
