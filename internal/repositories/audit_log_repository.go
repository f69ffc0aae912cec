package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultAuditPageSize = 10
	maxAuditPageSize     = 1000
)

// AuditFilter selects audit entries. Zero fields match everything.
type AuditFilter struct {
	UserID  uuid.UUID
	Action  string
	TraceID string
	Offset  int
	Limit   int
}

func (f AuditFilter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.TraceID != "" {
		q = q.Where("trace_id = ?", f.TraceID)
	}
	return q
}

func (f AuditFilter) window() (offset, limit int) {
	offset, limit = max(f.Offset, 0), f.Limit
	if limit <= 0 || limit > maxAuditPageSize {
		limit = defaultAuditPageSize
	}
	return offset, limit
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepositoryInterface {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil {
		return errors.New("create audit log: nil entry")
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns one page of matching entries, newest first, and the total
// number of matches.
func (r *auditLogRepository) List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, int64, error) {
	q := filter.apply(r.db.WithContext(ctx).Model(&models.AuditLog{}))

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	if total == 0 {
		return []*models.AuditLog{}, 0, nil
	}

	offset, limit := filter.window()
	var entries []*models.AuditLog
	err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, total, nil
}

// DeleteOlderThan removes entries created before now minus age.
func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", time.Now().Add(-age)).
		Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete old audit logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
