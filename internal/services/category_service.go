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
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

type categoryService struct {
	repo        repositories.CategoryRepositoryInterface
	audit       AuditServiceInterface
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
	logger      *slog.Logger
}

// NewCategoryService creates a new CategoryServiceInterface instance
func NewCategoryService(
	repo repositories.CategoryRepositoryInterface,
	audit AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) CategoryServiceInterface {
	return &categoryService{
		repo:        repo,
		audit:       audit,
		auditLogger: auditLogger,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *categoryService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *categoryService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Category, error) {
	if err := models.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	category := &models.Category{UserID: userID, Name: name}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapCategoryError(err)
	}

	s.recordAudit(ctx, userID, models.AuditActionCategoryCreated, category.ID, models.AuditMetadata{"name": category.Name})
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id, userID uuid.UUID, name string) (*models.Category, error) {
	if err := models.ValidateCategoryName(name); err != nil {
		return nil, err
	}
	category, err := s.repo.Rename(ctx, id, userID, name)
	if err != nil {
		return nil, mapCategoryError(err)
	}

	s.recordAudit(ctx, userID, models.AuditActionCategoryUpdated, category.ID, models.AuditMetadata{"name": category.Name})
	return category, nil
}

// Delete removes the category together with its transactions and reverses
// their contribution to the owner's balance.
func (s *categoryService) Delete(ctx context.Context, id, userID uuid.UUID) (*repositories.CategoryDeletion, error) {
	start := time.Now()

	deletion, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return nil, mapCategoryError(err)
	}

	s.metrics.IncrementCounter("category_deleted", nil)
	s.metrics.RecordProcessingTime("category_delete", time.Since(start))
	s.metrics.RecordGauge("category_cascaded_transactions", float64(deletion.RemovedTransactions), nil)
	if !deletion.BalanceDelta.IsZero() {
		s.metrics.RecordGauge("balance_delta", deletion.BalanceDelta.InexactFloat64(), nil)
	}

	s.auditLogger.LogCategoryDeleted(ctx, deletion)
	s.recordAudit(ctx, deletion.OwnerID, models.AuditActionCategoryDeleted, deletion.CategoryID, models.AuditMetadata{
		"removed_transactions": deletion.RemovedTransactions,
		"balance_delta":        deletion.BalanceDelta.StringFixed(2),
	})

	return deletion, nil
}

func (s *categoryService) recordAudit(ctx context.Context, userID uuid.UUID, action string, categoryID uuid.UUID, metadata models.AuditMetadata) {
	if err := s.audit.Record(ctx, userID, action, "category", categoryID.String(), metadata); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "action", action)
	}
}

func mapCategoryError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, models.ErrCategoryNameRequired),
		errors.Is(err, models.ErrCategoryNameTooLong):
		return err
	default:
		return fmt.Errorf("category storage failure: %w", err)
	}
}
