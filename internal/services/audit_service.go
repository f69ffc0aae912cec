package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrInvalidAuditLog    = errors.New("invalid audit log")
	ErrUnknownAuditAction = errors.New("unknown audit action")
	ErrInvalidRetention   = errors.New("retention must be positive")
)

// AuditService persists the activity trail behind /user/activity.
type AuditService struct {
	repo repositories.AuditLogRepositoryInterface
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface) AuditServiceInterface {
	return &AuditService{repo: repo}
}

// CreateAuditLog stores entry after checking its action, stamping it with the
// request trace id unless the caller set one.
func (s *AuditService) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	switch {
	case entry == nil:
		return ErrInvalidAuditLog
	case !models.IsAuditAction(entry.Action):
		return fmt.Errorf("%w: %q", ErrUnknownAuditAction, entry.Action)
	}
	if entry.TraceID == "" {
		entry.TraceID = CorrelationID(ctx)
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("store audit log: %w", err)
	}
	return nil
}

// Record stores an event performed by userID on one resource.
func (s *AuditService) Record(ctx context.Context, userID uuid.UUID, action, resource, resourceID string, metadata models.AuditMetadata) error {
	if userID == uuid.Nil {
		return ErrInvalidUserID
	}
	return s.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Metadata:   metadata,
	})
}

// GetUserActivity returns one page of the user's trail, newest first.
func (s *AuditService) GetUserActivity(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, ErrInvalidUserID
	}
	return s.repo.List(ctx, repositories.AuditFilter{UserID: userID, Offset: offset, Limit: limit})
}

func (s *AuditService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, ErrInvalidRetention
	}
	return s.repo.DeleteOlderThan(ctx, retention)
}
