package repositories

import (
	"context"
	"errors"
	"fmt"

	"finance-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyBalanceDelta adds delta to the user's cached balance with a single
// storage-level increment. It must run on the same *gorm.DB transaction as
// the mutation that produced the delta so both commit or roll back together.
func ApplyBalanceDelta(tx *gorm.DB, userID uuid.UUID, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	result := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to apply balance delta: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// sumTransactions returns the live signed sum of a user's transactions.
func sumTransactions(tx *gorm.DB, userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := tx.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum.Round(2), nil
}

type balanceRepository struct {
	db *gorm.DB
}

// NewBalanceRepository creates a repository for reading and reconciling balances
func NewBalanceRepository(db *gorm.DB) BalanceRepositoryInterface {
	return &balanceRepository{db: db}
}

// GetBalance reads the cached field without touching transactions.
func (r *balanceRepository) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var user models.User
	err := r.db.WithContext(ctx).Select("id", "balance").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}
	return user.Balance, nil
}

func (r *balanceRepository) ComputeBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return sumTransactions(r.db.WithContext(ctx), userID)
}

func (r *balanceRepository) Reconcile(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error) {
	var report models.BalanceReport

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := lockUserBalance(tx, userID, clause.Locking{Strength: "SHARE"})
		if err != nil {
			return err
		}

		computed, err := sumTransactions(tx, userID)
		if err != nil {
			return err
		}

		report = models.NewBalanceReport(userID, stored, computed)
		return nil
	})

	return report, err
}

// Repair overwrites the cached balance with the live sum while holding the user row lock.
// The returned report describes the state found before the repair.
func (r *balanceRepository) Repair(ctx context.Context, userID uuid.UUID) (models.BalanceReport, error) {
	var report models.BalanceReport

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := lockUserBalance(tx, userID, clause.Locking{Strength: "UPDATE"})
		if err != nil {
			return err
		}

		computed, err := sumTransactions(tx, userID)
		if err != nil {
			return err
		}

		report = models.NewBalanceReport(userID, stored, computed)
		if report.Consistent {
			return nil
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("balance", computed).Error; err != nil {
			return fmt.Errorf("failed to repair balance: %w", err)
		}

		report.Repaired = true
		return nil
	})

	return report, err
}

func lockUserBalance(tx *gorm.DB, userID uuid.UUID, lock clause.Locking) (decimal.Decimal, error) {
	var user models.User
	err := tx.Clauses(lock).Select("id", "balance").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to lock user: %w", err)
	}
	return user.Balance, nil
}
