package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUnknownCategory     = errors.New("category not found")
	ErrAmountOutOfRange    = errors.New("amount exceeds the supported range")
)

// maxAmount bounds magnitudes to what decimal(12,2) can hold.
var maxAmount = decimal.New(1, 10)

type transactionService struct {
	repo        repositories.TransactionRepositoryInterface
	audit       AuditServiceInterface
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
	logger      *slog.Logger
}

func NewTransactionService(
	repo repositories.TransactionRepositoryInterface,
	audit AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &transactionService{
		repo:        repo,
		audit:       audit,
		auditLogger: auditLogger,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *transactionService) Create(ctx context.Context, userID uuid.UUID, input models.TransactionInput) (*models.Transaction, error) {
	start := time.Now()

	signed, err := s.signedAmount(input)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Date:       input.Date,
		Amount:     signed,
		Type:       input.Type,
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		s.recordFailure("create")
		return nil, mapTransactionError(err)
	}

	s.recordMutation(ctx, "create", userID, transaction.ID, signed, start)
	s.recordAudit(ctx, userID, models.AuditActionTransactionCreated, transaction.ID, models.AuditMetadata{
		"amount":      signed.StringFixed(2),
		"type":        int(transaction.Type),
		"category_id": transaction.CategoryID.String(),
	})

	return transaction, nil
}

func (s *transactionService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.repo.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, mapTransactionError(err)
	}
	return transaction, nil
}

// Update replaces every field of the transaction.
func (s *transactionService) Update(ctx context.Context, id, userID uuid.UUID, input models.TransactionInput) (*models.Transaction, error) {
	start := time.Now()

	signed, err := s.signedAmount(input)
	if err != nil {
		return nil, err
	}

	revision, err := s.repo.Update(ctx, id, userID, repositories.TransactionChanges{
		Date:       input.Date,
		Amount:     signed,
		Type:       input.Type,
		CategoryID: input.CategoryID,
	})
	if err != nil {
		s.recordFailure("update")
		return nil, mapTransactionError(err)
	}

	previous, updated := revision.Previous, revision.Updated
	s.recordMutation(ctx, "update", userID, updated.ID, updated.Amount.Sub(previous.Amount), start)
	s.recordAudit(ctx, userID, models.AuditActionTransactionUpdated, updated.ID, models.AuditMetadata{
		"old_amount": previous.Amount.StringFixed(2),
		"new_amount": updated.Amount.StringFixed(2),
	})

	return updated, nil
}

func (s *transactionService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	start := time.Now()

	deleted, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		s.recordFailure("delete")
		return mapTransactionError(err)
	}

	s.recordMutation(ctx, "delete", userID, id, deleted.Amount.Neg(), start)
	s.recordAudit(ctx, userID, models.AuditActionTransactionDeleted, id, models.AuditMetadata{
		"amount": deleted.Amount.StringFixed(2),
	})

	return nil
}

func (s *transactionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *transactionService) ListByDateRange(ctx context.Context, userID uuid.UUID, start, end models.Date) ([]models.Transaction, error) {
	dateRange := models.DateRange{UserID: userID, Start: start, End: end}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	return s.repo.ListByDateRange(ctx, dateRange)
}

func (s *transactionService) signedAmount(input models.TransactionInput) (decimal.Decimal, error) {
	if input.Date.IsZero() {
		return decimal.Zero, models.ErrDateRequired
	}
	if input.CategoryID == uuid.Nil {
		return decimal.Zero, models.ErrCategoryRequired
	}

	signed, err := models.SignedAmount(input.Amount, input.Type)
	if err != nil {
		return decimal.Zero, err
	}

	if signed.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrAmountOutOfRange
	}

	return signed, nil
}

func (s *transactionService) recordMutation(ctx context.Context, operation string, userID, transactionID uuid.UUID, delta decimal.Decimal, start time.Time) {
	s.metrics.IncrementCounter("transaction_mutation", map[string]string{"operation": operation})
	s.metrics.RecordProcessingTime("transaction_"+operation, time.Since(start))
	s.metrics.RecordGauge("balance_delta", delta.InexactFloat64(), nil)
	s.auditLogger.LogBalanceDelta(ctx, userID, delta, "transaction_"+operation, transactionID)
}

func (s *transactionService) recordFailure(operation string) {
	s.metrics.IncrementCounter("transaction_mutation", map[string]string{"operation": operation, "status": "failed"})
}

func (s *transactionService) recordAudit(ctx context.Context, userID uuid.UUID, action string, transactionID uuid.UUID, metadata models.AuditMetadata) {
	if err := s.audit.Record(ctx, userID, action, "transaction", transactionID.String(), metadata); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "action", action)
	}
}

func mapTransactionError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTransactionNotFound):
		return ErrTransactionNotFound
	case errors.Is(err, repositories.ErrCategoryNotFound):
		return ErrUnknownCategory
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, models.ErrInvalidTransactionType),
		errors.Is(err, models.ErrAmountSignMismatch),
		errors.Is(err, models.ErrDateRequired),
		errors.Is(err, models.ErrCategoryRequired):
		return err
	default:
		return fmt.Errorf("transaction storage failure: %w", err)
	}
}
