package services

import (
	"context"
	"time"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/export"
	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionServiceInterface records income and expense entries for one user.
// Every mutation keeps the owner's cached balance equal to the sum of their transactions.
type TransactionServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, input models.TransactionInput) (*models.Transaction, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error)
	Update(ctx context.Context, id, userID uuid.UUID, input models.TransactionInput) (*models.Transaction, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListByDateRange(ctx context.Context, userID uuid.UUID, start, end models.Date) ([]models.Transaction, error)
}

// CategoryServiceInterface manages user-owned categories
type CategoryServiceInterface interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error)
	Update(ctx context.Context, id, userID uuid.UUID, name string) (*models.Category, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (*repositories.CategoryDeletion, error)
}

type StatisticsServiceInterface interface {
	GetStatistics(ctx context.Context, userID uuid.UUID, start, end models.Date) ([]models.TypeTotal, error)
}

type ExportServiceInterface interface {
	Export(ctx context.Context, userID uuid.UUID, start, end models.Date, format export.Format) (*export.File, error)
}

// AvatarServiceInterface stores profile images in the blob store and keeps users.image pointing at them
type AvatarServiceInterface interface {
	SetAvatar(ctx context.Context, userID uuid.UUID, image []byte, format string) (*models.User, error)
	SetAvatarFromDataURI(ctx context.Context, userID uuid.UUID, dataURI string) (*models.User, error)
	DeleteAvatar(ctx context.Context, userID uuid.UUID) error
}

// BalanceServiceInterface reads the cached balance and audits it against the transactions
type BalanceServiceInterface interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error)
	Repair(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error)
	ReconcileAll(ctx context.Context, repair bool) (*models.ReconcileSummary, error)
}

type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
}

// TransactionGeneratorInterface produces realistic demo history. Amounts are magnitudes.
type TransactionGeneratorInterface interface {
	CategoryNames() []string
	GenerateSalaryTransactions(categories map[string]uuid.UUID, start, end time.Time) []models.TransactionInput
	GenerateBillTransactions(categories map[string]uuid.UUID, start, end time.Time) []models.TransactionInput
	GenerateDailyPurchases(categories map[string]uuid.UUID, start, end time.Time) []models.TransactionInput
	GenerateHistoricalTransactions(categories map[string]uuid.UUID, start, end time.Time, startingBalance decimal.Decimal, count int) []models.TransactionInput
}

// DemoDataServiceInterface fills an account with generated categories and transactions
type DemoDataServiceInterface interface {
	Seed(ctx context.Context, userID uuid.UUID, days, count int) (int, error)
}

// AuthServiceInterface defines the contract for authentication operations
type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest, ipAddress, userAgent string) (*models.User, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// TokenServiceInterface defines the contract for JWT operations
type TokenServiceInterface interface {
	GenerateAccessToken(user *models.User) (string, time.Time, error)
	GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

// PasswordServiceInterface defines the contract for password operations
type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

// AuditServiceInterface persists the audit trail
type AuditServiceInterface interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	Record(ctx context.Context, userID uuid.UUID, action, resource, resourceID string, metadata models.AuditMetadata) error
	GetUserActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error)
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

type AuditLoggerInterface interface {
	LogBalanceDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, cause string, resourceID uuid.UUID)
	LogCategoryDeleted(ctx context.Context, deletion *repositories.CategoryDeletion)
	LogBalanceDrift(ctx context.Context, report models.BalanceReport)
	LogBalanceRepaired(ctx context.Context, report models.BalanceReport)
	LogExportGenerated(ctx context.Context, userID uuid.UUID, format string, rows int, durationMs int64)
	LogAvatarChanged(ctx context.Context, userID uuid.UUID, operation, path string)
}
