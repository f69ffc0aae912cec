package repositories

import (
	"context"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionChanges carries the replacement values for a transaction update.
// Amount is already signed for Type.
type TransactionChanges struct {
	Date       models.Date
	Amount     decimal.Decimal
	Type       models.TransactionType
	CategoryID uuid.UUID
}

// TransactionRevision is a transaction before and after an update. Previous is
// the row as read under the update lock, so its amount is the one reversed.
type TransactionRevision struct {
	Previous *models.Transaction
	Updated  *models.Transaction
}

// TransactionRepositoryInterface defines the contract for transaction storage.
// Every mutation adjusts the owner's cached balance inside the same database transaction.
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, changes TransactionChanges) (*TransactionRevision, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListByDateRange(ctx context.Context, dateRange models.DateRange) ([]models.Transaction, error)
	CountByDateRange(ctx context.Context, dateRange models.DateRange) (int64, error)
	SumByType(ctx context.Context, dateRange models.DateRange) ([]models.TypeTotal, error)
}

// CategoryRepositoryInterface defines the contract for category storage
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *models.Category) error
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Category, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Rename(ctx context.Context, id, ownerID uuid.UUID, name string) (*models.Category, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) (*CategoryDeletion, error)
}

// BalanceRepositoryInterface reads and audits the cached balance.
// Deltas are applied through ApplyBalanceDelta by the mutating repositories.
type BalanceRepositoryInterface interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ComputeBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error)
	Repair(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error)
}

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateImage(ctx context.Context, userID uuid.UUID, image *string) error
	UpdateFailedLoginAttempts(ctx context.Context, user *models.User) error
	RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	ListIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(ctx context.Context, duration time.Duration) (int64, error)
}

type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for blacklisted token repository operations
type BlacklistedTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
