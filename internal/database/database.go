package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/config"
	"finance-tracker/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// DB wraps the gorm handle shared by every repository.
type DB struct {
	*gorm.DB
}

// schema lists the models AutoMigrate maintains when SQL migrations are off.
var schema = []any{
	&models.User{},
	&models.Category{},
	&models.Transaction{},
	&models.RefreshToken{},
	&models.BlacklistedToken{},
	&models.AuditLog{},
}

// secondaryIndexes back the hot queries: per-user date ranges, category
// cascades and token lookups.
var secondaryIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
	"CREATE INDEX IF NOT EXISTS idx_categories_user_id ON categories(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date)",
	"CREATE INDEX IF NOT EXISTS idx_transactions_category_id ON transactions(category_id)",
	"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token_hash ON refresh_tokens(token_hash)",
	"CREATE INDEX IF NOT EXISTS idx_blacklisted_tokens_expires_at ON blacklisted_tokens(expires_at)",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)",
}

// slogWriter routes gorm's logger output into slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "gorm")
}

func newGormLogger(level logger.LogLevel) logger.Interface {
	return logger.New(slogWriter{}, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open connects to postgres and sizes the pool from cfg.
func Open(cfg *config.DatabaseConfig, level logger.LogLevel) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newGormLogger(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{DB: gdb}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(schema...)
}

// CreateIndexes is best effort; it reports how many statements failed.
func (db *DB) CreateIndexes() error {
	var errs []error
	for _, stmt := range secondaryIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", stmt, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d indexes failed: %w", len(errs), len(secondaryIndexes), errors.Join(errs...))
	}
	return nil
}

func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Initialize opens the database and brings the schema up to date, preferring
// the embedded SQL migrations and falling back to AutoMigrate.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	db, err := Open(&cfg.Database, level)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	switch err := RunMigrationsIfEnabled(ctx, sqlDB); {
	case err == nil:
	case errors.Is(err, ErrMigrationsDisabled):
		slog.Info("sql migrations disabled, using gorm AutoMigrate")
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	default:
		slog.Warn("migration runner failed, falling back to gorm AutoMigrate", "error", err)
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	if err := db.CreateIndexes(); err != nil {
		slog.Warn("index creation incomplete", "error", err)
	}

	slog.Info("database initialized", "host", cfg.Database.Host, "name", cfg.Database.Name)
	return db, nil
}
