package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finance-tracker/internal/models"
	"finance-tracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const reconcileBatchSize = 100

type balanceService struct {
	balanceRepo repositories.BalanceRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	audit       AuditServiceInterface
	auditLogger AuditLoggerInterface
	metrics     MetricsRecorderInterface
	logger      *slog.Logger
}

func NewBalanceService(
	balanceRepo repositories.BalanceRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	audit AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) BalanceServiceInterface {
	return &balanceService{
		balanceRepo: balanceRepo,
		userRepo:    userRepo,
		audit:       audit,
		auditLogger: auditLogger,
		metrics:     metrics,
		logger:      logger,
	}
}

// GetBalance returns the cached balance rounded to cents.
func (s *balanceService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.balanceRepo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, err
	}
	return balance.Round(2), nil
}

func (s *balanceService) Reconcile(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error) {
	report, err := s.balanceRepo.Reconcile(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return report, ErrUserNotFound
		}
		return report, err
	}

	if !report.Consistent {
		s.metrics.IncrementCounter("balance_drift", nil)
		s.auditLogger.LogBalanceDrift(ctx, report)
	}
	return report, nil
}

// Repair overwrites the cached balance with the live sum when they differ.
func (s *balanceService) Repair(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error) {
	report, err := s.balanceRepo.Repair(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return report, ErrUserNotFound
		}
		return report, err
	}

	if !report.Repaired {
		return report, nil
	}

	s.metrics.IncrementCounter("balance_drift", nil)
	s.metrics.IncrementCounter("balance_repaired", nil)
	s.auditLogger.LogBalanceRepaired(ctx, report)

	if err := s.audit.Record(ctx, userID, models.AuditActionBalanceRepaired, "user", userID.String(), models.AuditMetadata{
		"stored":   report.Stored.StringFixed(2),
		"computed": report.Computed.StringFixed(2),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log", "error", err, "action", models.AuditActionBalanceRepaired)
	}

	return report, nil
}

// ReconcileAll walks every user in id order. With repair set, drifted
// balances are rewritten.
func (s *balanceService) ReconcileAll(ctx context.Context, repair bool) (*models.ReconcileSummary, error) {
	summary := &models.ReconcileSummary{}
	after := uuid.Nil

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		ids, err := s.userRepo.ListIDs(ctx, after, reconcileBatchSize)
		if err != nil {
			return summary, fmt.Errorf("failed to list users: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			var report models.BalanceReport
			if repair {
				report, err = s.Repair(ctx, id)
			} else {
				report, err = s.Reconcile(ctx, id)
			}
			if errors.Is(err, ErrUserNotFound) {
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("failed to reconcile user %s: %w", id, err)
			}

			summary.Checked++
			if !report.Consistent {
				summary.Drifted++
				summary.Reports = append(summary.Reports, report)
			}
			if report.Repaired {
				summary.Repaired++
			}
		}

		after = ids[len(ids)-1]
		if len(ids) < reconcileBatchSize {
			break
		}
	}

	s.metrics.RecordGauge("reconciled_users", float64(summary.Checked), nil)
	s.logger.InfoContext(ctx, "balance reconciliation finished",
		"checked", summary.Checked,
		"drifted", summary.Drifted,
		"repaired", summary.Repaired)

	return summary, nil
}
